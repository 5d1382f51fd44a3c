package progress

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

// DefaultPersistDelay is how long after the last mutation the store
// waits before writing, coalescing rapid successive awards into one write.
const DefaultPersistDelay = 300 * time.Millisecond

// Profile is the locally cached display profile, the first stop in the
// display-name/country resolution chain.
type Profile struct {
	DisplayName string `json:"displayName"`
	Country     string `json:"country,omitempty"`
}

// Store keeps per-user progress in memory and persists it as keyed JSON
// blobs on disk: one blob for ProgressState, one for the TopicProgress
// map, one for the cached profile. Malformed or missing blobs fall back
// to defaults; progress is never lost to a parse error.
type Store struct {
	mu       sync.Mutex
	dir      string
	states   map[string]*models.ProgressState
	topics   map[string]map[string]*models.TopicProgress
	profiles map[string]*Profile

	// pending maps file path to the serialized blob awaiting write.
	// Serialization happens on the mutating goroutine; the flush timer
	// only touches bytes, never live state.
	pending   map[string][]byte
	coalescer *Coalescer
}

func NewStore(dir string, persistDelay time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{
		dir:      dir,
		states:   make(map[string]*models.ProgressState),
		topics:   make(map[string]map[string]*models.TopicProgress),
		profiles: make(map[string]*Profile),
		pending:  make(map[string][]byte),
	}
	s.coalescer = NewCoalescer(persistDelay, s.flushDirty)
	return s, nil
}

func defaultState() *models.ProgressState {
	return &models.ProgressState{Level: 1, Badges: []models.Badge{}}
}

// Progress returns the user's progress state, creating it lazily.
func (s *Store) Progress(userID string) *models.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		return st
	}
	st := defaultState()
	if raw, err := os.ReadFile(s.statePath(userID)); err == nil {
		if err := json.Unmarshal(raw, st); err != nil {
			log.Printf("[progress] malformed state for %s, using defaults: %v", userID, err)
			st = defaultState()
		}
	}
	if st.Level < 1 {
		st.Level = 1
	}
	if st.Badges == nil {
		st.Badges = []models.Badge{}
	}
	s.states[userID] = st
	return st
}

// Topic returns the user's progress for one topic, creating it lazily.
func (s *Store) Topic(userID, topicID string) *models.TopicProgress {
	byTopic := s.Topics(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if tp, ok := byTopic[topicID]; ok {
		return tp
	}
	tp := &models.TopicProgress{Correct: make(map[string]bool)}
	byTopic[topicID] = tp
	return tp
}

// Topics returns the user's full topic-progress map, creating it lazily.
func (s *Store) Topics(userID string) map[string]*models.TopicProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.topics[userID]; ok {
		return m
	}
	m := make(map[string]*models.TopicProgress)
	if raw, err := os.ReadFile(s.topicsPath(userID)); err == nil {
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Printf("[progress] malformed topic progress for %s, using defaults: %v", userID, err)
			m = make(map[string]*models.TopicProgress)
		}
	}
	for _, tp := range m {
		if tp.Correct == nil {
			tp.Correct = make(map[string]bool)
		}
	}
	s.topics[userID] = m
	return m
}

// SetProfile caches the display profile locally and persists it. Only
// the profile blob is staged here: the state and topic blobs belong to
// the award path, which owns their mutation and stages them itself.
func (s *Store) SetProfile(userID, displayName, country string) {
	p := &Profile{DisplayName: displayName, Country: country}
	s.mu.Lock()
	s.profiles[userID] = p
	s.stage(s.profilePath(userID), p)
	s.mu.Unlock()
	s.coalescer.Trigger()
}

// Profile returns the locally cached profile, if any.
func (s *Store) Profile(userID string) (*Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return p, true
	}
	raw, err := os.ReadFile(s.profilePath(userID))
	if err != nil {
		return nil, false
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil || p.DisplayName == "" && p.Country == "" {
		return nil, false
	}
	s.profiles[userID] = &p
	return &p, true
}

// SchedulePersist serializes the user's current in-memory blobs and
// schedules a coalesced write. Must be called from the goroutine that
// performed the mutation, before it releases ownership of the state.
func (s *Store) SchedulePersist(userID string) {
	s.mu.Lock()
	if st, ok := s.states[userID]; ok {
		s.stage(s.statePath(userID), st)
	}
	if m, ok := s.topics[userID]; ok {
		s.stage(s.topicsPath(userID), m)
	}
	if p, ok := s.profiles[userID]; ok {
		s.stage(s.profilePath(userID), p)
	}
	s.mu.Unlock()
	s.coalescer.Trigger()
}

func (s *Store) stage(path string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[progress] marshal %s: %v", path, err)
		return
	}
	s.pending[path] = raw
}

// FlushNow writes all dirty users immediately.
func (s *Store) FlushNow() {
	s.coalescer.FlushNow()
}

// Close flushes pending writes and stops the persistence timer.
func (s *Store) Close() {
	s.coalescer.FlushNow()
	s.coalescer.Stop()
}

func (s *Store) flushDirty() {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string][]byte)
	s.mu.Unlock()

	for path, raw := range batch {
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			log.Printf("[progress] write %s: %v", path, err)
		}
	}
}

func (s *Store) statePath(userID string) string {
	return filepath.Join(s.dir, userID+".progress.json")
}

func (s *Store) topicsPath(userID string) string {
	return filepath.Join(s.dir, userID+".topics.json")
}

func (s *Store) profilePath(userID string) string {
	return filepath.Join(s.dir, userID+".profile.json")
}
