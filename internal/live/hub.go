package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/physics-daily/backend/internal/events"
)

// ServerMessage is pushed to a user's open sockets when they earn XP,
// a badge, or a level.
type ServerMessage struct {
	Type    string `json:"t"`
	Amount  int64  `json:"xp,omitempty"`
	Reason  string `json:"reason,omitempty"`
	BadgeID string `json:"badge_id,omitempty"`
	Label   string `json:"label,omitempty"`
	Level   int    `json:"level,omitempty"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// writePump reads from the send channel and writes to the socket.
func (c *client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub fans gamification events out to each user's open connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Run drains the event bus until ctx is done. Events for users with no
// open socket are discarded.
func (h *Hub) Run(ctx context.Context, bus *events.Bus) {
	log.Println("[live] Hub started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[live] Hub shutting down")
			return
		case ev := <-bus.XPAwards:
			h.sendTo(ev.UserID, ServerMessage{Type: "xp", Amount: ev.Amount, Reason: ev.Reason})
		case ev := <-bus.Badges:
			h.sendTo(ev.UserID, ServerMessage{Type: "badge", BadgeID: ev.ID, Label: ev.Label})
		case ev := <-bus.LevelUps:
			h.sendTo(ev.UserID, ServerMessage{Type: "level", Level: ev.Level})
		}
	}
}

// sendTo delivers a message to every socket the user has open.
// Non-blocking: drops if a send buffer is full.
func (h *Hub) sendTo(userID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[live] marshal: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.userID != userID {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeWS upgrades the request and holds the socket open until the
// client goes away. Clients only receive; inbound frames are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok || userID == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[live] accept: %v", err)
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, 16)}
	h.register(c)
	defer h.unregister(c)

	ctx := conn.CloseRead(r.Context())
	c.writePump(ctx)
	conn.Close(websocket.StatusNormalClosure, "")
}
