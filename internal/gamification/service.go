package gamification

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/physics-daily/backend/internal/cloud"
	"github.com/physics-daily/backend/internal/events"
	"github.com/physics-daily/backend/internal/models"
	"github.com/physics-daily/backend/internal/progress"
	"github.com/physics-daily/backend/internal/topics"
)

// AwardHook observes every positive XP award synchronously, inside the
// award path. Hooks must be fast; the leaderboard registers one to
// patch its cached rankings optimistically.
type AwardHook func(userID string, amount int64)

// Service is the XP engine: it owns award arithmetic, leveling, badge
// grants, and the fan-out of each award to the cloud log, the event
// bus, and registered hooks.
type Service struct {
	mu      sync.Mutex
	store   *progress.Store
	catalog *topics.Catalog
	cloud   *cloud.Adapter
	bus     *events.Bus
	hooks   []AwardHook
	now     func() time.Time
}

func NewService(store *progress.Store, catalog *topics.Catalog) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
}

// SetCloud enables forwarding awards to the remote store.
func (s *Service) SetCloud(a *cloud.Adapter) { s.cloud = a }

// SetBus enables publishing award and badge events.
func (s *Service) SetBus(b *events.Bus) { s.bus = b }

// OnAward registers a hook. Not safe to call after the service is
// serving requests.
func (s *Service) OnAward(h AwardHook) { s.hooks = append(s.hooks, h) }

// ── Awarding ──────────────────────────────────────────────

// AddXP awards XP through the full pipeline. Fractional amounts are
// floored, negative results clamp to zero.
func (s *Service) AddXP(userID string, amount float64, reason string, meta map[string]interface{}) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addXPLocked(userID, amount, reason, meta)
}

func (s *Service) addXPLocked(userID string, amount float64, reason string, meta map[string]interface{}) int64 {
	add := int64(math.Floor(amount))
	if add < 0 {
		add = 0
	}

	st := s.store.Progress(userID)
	st.TotalXP += add
	st.LastAwardAt = s.now()

	info := LevelFromXP(st.TotalXP)
	if info.Level > st.Level {
		st.Level = info.Level
		id, label := levelBadge(info.Level)
		s.grantLocked(userID, st, id, label)
		if info.Level%10 == 0 {
			id, label := levelMilestoneBadge(info.Level)
			s.grantLocked(userID, st, id, label)
		}
		if s.bus != nil {
			s.bus.PublishLevelUp(events.LevelUpEvent{UserID: userID, Level: info.Level})
		}
	}

	if add > 0 {
		if s.bus != nil {
			s.bus.PublishXP(events.XPAwardedEvent{UserID: userID, Amount: add, Reason: reason})
		}
		for _, h := range s.hooks {
			h(userID, add)
		}
		if s.cloud != nil {
			go s.cloud.LogAward(context.Background(), userID, add, reason, meta)
		}
	}

	// Staged last: the award and everything it touched (topic progress,
	// badges) land in the same coalesced write.
	s.store.SchedulePersist(userID)

	return add
}

// grantLocked grants a badge once and publishes the earn event.
func (s *Service) grantLocked(userID string, st *models.ProgressState, id, label string) bool {
	if !grantBadgeIfAbsent(st, id, label, s.now()) {
		return false
	}
	if s.bus != nil {
		s.bus.PublishBadge(events.BadgeEarnedEvent{UserID: userID, ID: id, Label: label})
	}
	return true
}

// GrantBadge grants an arbitrary badge by id, once ever per user.
func (s *Service) GrantBadge(userID, id, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.store.Progress(userID)
	granted := s.grantLocked(userID, st, id, label)
	if granted {
		s.store.SchedulePersist(userID)
	}
	return granted
}

// ── Snapshot ──────────────────────────────────────────────

// State returns the full gamification snapshot including per-topic
// mastery for every catalog topic the user has touched.
func (s *Service) State(userID string) *models.GamificationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Progress(userID)
	mastery := make(map[string]models.TopicMastery)
	for id, tp := range s.store.Topics(userID) {
		topic, ok := s.catalog.Lookup(id)
		if !ok || len(tp.Correct) == 0 {
			continue
		}
		pct := float64(len(tp.Correct)) / float64(topic.TotalQuestions) * 100
		mastery[id] = models.TopicMastery{
			Name:         topic.Name,
			Completed:    len(tp.Correct),
			Total:        topic.TotalQuestions,
			Percentage:   math.Round(pct*10) / 10,
			MasteryLevel: masteryLabel(pct >= highMasteryPct),
		}
	}

	badges := make([]models.Badge, len(st.Badges))
	copy(badges, st.Badges)

	return &models.GamificationState{
		TotalXP:         st.TotalXP,
		Level:           st.Level,
		LevelInfo:       LevelFromXP(st.TotalXP),
		LoginStreak:     st.LoginStreak,
		TotalDaysActive: st.TotalDaysActive,
		Badges:          badges,
		LastAwardAt:     st.LastAwardAt,
		TopicMastery:    mastery,
	}
}

// TotalXP returns the user's local XP total.
func (s *Service) TotalXP(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Progress(userID).TotalXP
}

// ── Sign-in Hooks ─────────────────────────────────────────

// SyncOnSignIn reconciles the local total against the remote store in
// the background. Best-effort, never blocks sign-in.
func (s *Service) SyncOnSignIn(userID string) {
	if s.cloud == nil {
		return
	}
	total := s.TotalXP(userID)
	go s.cloud.SyncLocalToCloud(context.Background(), userID, total)
}

// CacheProfile records the display profile used when attributing log
// entries for this user.
func (s *Service) CacheProfile(userID, displayName, country string) {
	s.store.SetProfile(userID, displayName, country)
}
