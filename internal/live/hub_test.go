package live

import (
	"encoding/json"
	"testing"
)

func TestSendToTargetsOnlyUserSockets(t *testing.T) {
	h := NewHub()
	mine := &client{userID: "u1", send: make(chan []byte, 1)}
	other := &client{userID: "u2", send: make(chan []byte, 1)}
	h.register(mine)
	h.register(other)

	h.sendTo("u1", ServerMessage{Type: "xp", Amount: 10, Reason: "quiz"})

	select {
	case raw := <-mine.send:
		var msg ServerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "xp" || msg.Amount != 10 {
			t.Errorf("msg = %+v", msg)
		}
	default:
		t.Fatal("target socket received nothing")
	}

	select {
	case <-other.send:
		t.Fatal("other user's socket received the message")
	default:
	}
}

func TestSendToDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := &client{userID: "u1", send: make(chan []byte, 1)}
	h.register(c)

	h.sendTo("u1", ServerMessage{Type: "xp", Amount: 1})
	h.sendTo("u1", ServerMessage{Type: "xp", Amount: 2}) // buffer full, dropped

	if got := len(c.send); got != 1 {
		t.Errorf("len(send) = %d, want 1", got)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	c := &client{userID: "u1", send: make(chan []byte, 1)}
	h.register(c)
	h.unregister(c)

	if _, ok := <-c.send; ok {
		t.Error("send channel not closed")
	}

	// Messages after unregister go nowhere
	h.sendTo("u1", ServerMessage{Type: "xp", Amount: 1})
}
