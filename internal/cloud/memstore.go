package cloud

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

// MemStore is an in-memory Store used by tests. Unlike PGStore, merging
// into a missing doc creates it.
type MemStore struct {
	mu   sync.Mutex
	docs map[string]*UserDoc
	logs []models.XPLogEntry

	// Now stamps server timestamps on appended entries.
	Now func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]*UserDoc),
		Now:  time.Now,
	}
}

func (s *MemStore) UserDoc(_ context.Context, userID string) (*UserDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[userID]
	if !ok {
		return nil, nil
	}
	c := *doc
	return &c, nil
}

func (s *MemStore) MergeUserDoc(_ context.Context, userID string, patch UserDocPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[userID]
	if !ok {
		doc = &UserDoc{ID: userID}
		s.docs[userID] = doc
	}
	if patch.DisplayName != nil {
		doc.DisplayName = *patch.DisplayName
	}
	if patch.Country != nil {
		doc.Country = *patch.Country
	}
	return nil
}

func (s *MemStore) IncrementTotalXP(_ context.Context, userID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[userID]
	if !ok {
		doc = &UserDoc{ID: userID}
		s.docs[userID] = doc
	}
	doc.TotalXP += delta
	doc.LastAwardAt = s.Now()
	return nil
}

func (s *MemStore) AppendLog(_ context.Context, entry models.XPLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ServerTS.IsZero() {
		entry.ServerTS = s.Now()
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *MemStore) LogsSince(_ context.Context, field TimestampField, since time.Time, limit int) ([]models.XPLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.XPLogEntry
	for _, e := range s.logs {
		ts := e.ClientTS
		if field == ByServerTS {
			ts = e.ServerTS
		}
		if !ts.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ClientTS, out[j].ClientTS
		if field == ByServerTS {
			a, b = out[i].ServerTS, out[j].ServerTS
		}
		return a.After(b)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) TopTotals(_ context.Context, limit int) ([]UserDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []UserDoc
	for _, d := range s.docs {
		if d.TotalXP > 0 {
			docs = append(docs, *d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].TotalXP > docs[j].TotalXP })
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Logs returns a snapshot of all appended entries.
func (s *MemStore) Logs() []models.XPLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.XPLogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}
