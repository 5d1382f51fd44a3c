package gamification

import (
	"sync"
	"testing"
	"time"

	"github.com/physics-daily/backend/internal/models"
	"github.com/physics-daily/backend/internal/progress"
	"github.com/physics-daily/backend/internal/topics"
)

func newTestService(t *testing.T, catalog *topics.Catalog) *Service {
	t.Helper()
	store, err := progress.NewStore(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)

	if catalog == nil {
		catalog = topics.Default()
	}
	svc := NewService(store, catalog)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAddXPFloorsAndClamps(t *testing.T) {
	svc := newTestService(t, nil)

	if got := svc.AddXP("u1", 3.9, "quiz", nil); got != 3 {
		t.Errorf("AddXP(3.9) = %d, want 3", got)
	}
	if got := svc.AddXP("u1", -5, "quiz", nil); got != 0 {
		t.Errorf("AddXP(-5) = %d, want 0", got)
	}
	if got := svc.TotalXP("u1"); got != 3 {
		t.Errorf("TotalXP = %d, want 3", got)
	}
}

func TestAddXPLevelUpBadges(t *testing.T) {
	svc := newTestService(t, nil)

	svc.AddXP("u1", 100, "quiz", nil)
	state := svc.State("u1")
	if state.Level != 2 {
		t.Fatalf("Level = %d, want 2", state.Level)
	}
	found := false
	for _, b := range state.Badges {
		if b.ID == "level-2" {
			found = true
		}
	}
	if !found {
		t.Error("level-2 badge not granted")
	}
}

func TestAddXPLevelMilestoneBadge(t *testing.T) {
	svc := newTestService(t, nil)

	// 2700 XP is exactly level 10
	svc.AddXP("u1", 2700, "quiz", nil)
	state := svc.State("u1")
	if state.Level != 10 {
		t.Fatalf("Level = %d, want 10", state.Level)
	}

	var hasLevel, hasMilestone bool
	for _, b := range state.Badges {
		switch b.ID {
		case "level-10":
			hasLevel = true
		case "milestone-10":
			hasMilestone = true
		}
	}
	if !hasLevel {
		t.Error("level-10 badge not granted")
	}
	if !hasMilestone {
		t.Error("milestone-10 badge not granted")
	}
}

func TestAwardHooks(t *testing.T) {
	svc := newTestService(t, nil)

	var awards []int64
	svc.OnAward(func(userID string, amount int64) {
		awards = append(awards, amount)
	})

	svc.AddXP("u1", 10, "quiz", nil)
	svc.AddXP("u1", -3, "quiz", nil) // clamps to zero, no hook
	svc.AddXP("u1", 5, "quiz", nil)

	if len(awards) != 2 || awards[0] != 10 || awards[1] != 5 {
		t.Errorf("hook awards = %v, want [10 5]", awards)
	}
}

// Profile caching runs from the auth handlers without the service
// mutex, concurrently with awards mutating the same user's state.
func TestCacheProfileConcurrentWithAwards(t *testing.T) {
	svc := newTestService(t, smallCatalog())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			svc.CacheProfile("u1", "Marie C.", "FR")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if _, err := svc.CompleteQuiz("u1", models.QuizSubmission{
				TopicID:        "kinematics",
				CorrectCount:   3,
				TotalQuestions: 5,
			}); err != nil {
				t.Errorf("CompleteQuiz: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if got := svc.TotalXP("u1"); got <= 0 {
		t.Errorf("TotalXP = %d, want positive", got)
	}
}

func TestGrantBadgeOnceEver(t *testing.T) {
	svc := newTestService(t, nil)

	if !svc.GrantBadge("u1", "custom", "Custom") {
		t.Fatal("first grant returned false")
	}
	if svc.GrantBadge("u1", "custom", "Custom") {
		t.Fatal("second grant returned true")
	}
}
