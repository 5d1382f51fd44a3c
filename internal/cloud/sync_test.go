package cloud

import (
	"context"
	"testing"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

func newTestAdapter(store Store) *Adapter {
	a := NewAdapter(store, NewProfileChain(FromUserDoc(store)))
	a.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return a
}

func seedDoc(t *testing.T, ms *MemStore, userID, name string, total int64) {
	t.Helper()
	if err := ms.MergeUserDoc(context.Background(), userID, UserDocPatch{DisplayName: &name}); err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		if err := ms.IncrementTotalXP(context.Background(), userID, total); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLogAward(t *testing.T) {
	ms := NewMemStore()
	seedDoc(t, ms, "u1", "Marie C.", 0)
	a := newTestAdapter(ms)

	a.LogAward(context.Background(), "u1", 15, models.ReasonQuiz, map[string]interface{}{"topic_id": "thermodynamics"})

	logs := ms.Logs()
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	e := logs[0]
	if e.Amount != 15 || e.Reason != models.ReasonQuiz || e.UserID != "u1" {
		t.Errorf("entry = %+v", e)
	}
	if e.DisplayName != "Marie C." {
		t.Errorf("DisplayName = %q, want attributed from user doc", e.DisplayName)
	}
	if e.ID == "" {
		t.Error("entry id not assigned")
	}

	doc, _ := ms.UserDoc(context.Background(), "u1")
	if doc.TotalXP != 15 {
		t.Errorf("TotalXP = %d, want 15", doc.TotalXP)
	}
}

func TestLogAwardIgnoresNonPositive(t *testing.T) {
	ms := NewMemStore()
	a := newTestAdapter(ms)

	a.LogAward(context.Background(), "u1", 0, models.ReasonQuiz, nil)
	a.LogAward(context.Background(), "u1", -5, models.ReasonQuiz, nil)

	if len(ms.Logs()) != 0 {
		t.Errorf("len(logs) = %d, want 0", len(ms.Logs()))
	}
}

func TestSyncLocalToCloudPushesDiff(t *testing.T) {
	ms := NewMemStore()
	seedDoc(t, ms, "u1", "Marie C.", 300)
	a := newTestAdapter(ms)

	a.SyncLocalToCloud(context.Background(), "u1", 500)

	logs := ms.Logs()
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	e := logs[0]
	if e.Amount != 200 || e.Reason != models.ReasonSync {
		t.Errorf("entry = %+v", e)
	}
	if e.Meta["source"] != "local-backfill" {
		t.Errorf("Meta.source = %v", e.Meta["source"])
	}
	if e.Meta["cloud_xp"] != int64(300) || e.Meta["local_xp"] != int64(500) {
		t.Errorf("Meta totals = %v / %v", e.Meta["cloud_xp"], e.Meta["local_xp"])
	}

	doc, _ := ms.UserDoc(context.Background(), "u1")
	if doc.TotalXP != 500 {
		t.Errorf("TotalXP = %d, want 500", doc.TotalXP)
	}
}

func TestSyncLocalToCloudRemoteAheadIsNoop(t *testing.T) {
	ms := NewMemStore()
	seedDoc(t, ms, "u1", "Marie C.", 500)
	a := newTestAdapter(ms)

	a.SyncLocalToCloud(context.Background(), "u1", 300)

	if len(ms.Logs()) != 0 {
		t.Errorf("len(logs) = %d, want 0", len(ms.Logs()))
	}
	doc, _ := ms.UserDoc(context.Background(), "u1")
	if doc.TotalXP != 500 {
		t.Errorf("TotalXP = %d, want unchanged 500", doc.TotalXP)
	}
}

func TestSyncLocalToCloudEqualIsNoop(t *testing.T) {
	ms := NewMemStore()
	seedDoc(t, ms, "u1", "Marie C.", 400)
	a := newTestAdapter(ms)

	a.SyncLocalToCloud(context.Background(), "u1", 400)

	if len(ms.Logs()) != 0 {
		t.Errorf("len(logs) = %d, want 0", len(ms.Logs()))
	}
}
