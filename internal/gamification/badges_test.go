package gamification

import (
	"fmt"
	"testing"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

func TestGrantBadgeIfAbsent(t *testing.T) {
	st := &models.ProgressState{Badges: []models.Badge{}}
	now := time.Now()

	if !grantBadgeIfAbsent(st, "level-2", "Level 2 Achieved! 🎉", now) {
		t.Fatal("first grant returned false")
	}
	if grantBadgeIfAbsent(st, "level-2", "Level 2 Achieved! 🎉", now) {
		t.Fatal("duplicate grant returned true")
	}
	if len(st.Badges) != 1 {
		t.Fatalf("len(Badges) = %d, want 1", len(st.Badges))
	}
}

func TestGrantBadgeNewestFirst(t *testing.T) {
	st := &models.ProgressState{Badges: []models.Badge{}}
	now := time.Now()

	grantBadgeIfAbsent(st, "first", "First", now)
	grantBadgeIfAbsent(st, "second", "Second", now)

	if st.Badges[0].ID != "second" {
		t.Errorf("Badges[0].ID = %q, want %q", st.Badges[0].ID, "second")
	}
	if st.Badges[1].ID != "first" {
		t.Errorf("Badges[1].ID = %q, want %q", st.Badges[1].ID, "first")
	}
}

func TestGrantBadgeRetentionCap(t *testing.T) {
	st := &models.ProgressState{Badges: []models.Badge{}}
	now := time.Now()

	for i := 0; i < maxBadges+5; i++ {
		grantBadgeIfAbsent(st, fmt.Sprintf("badge-%d", i), "Badge", now)
	}

	if len(st.Badges) != maxBadges {
		t.Fatalf("len(Badges) = %d, want %d", len(st.Badges), maxBadges)
	}
	// Newest kept, oldest dropped
	if st.Badges[0].ID != fmt.Sprintf("badge-%d", maxBadges+4) {
		t.Errorf("newest badge = %q", st.Badges[0].ID)
	}
	if st.HasBadge("badge-0") {
		t.Error("oldest badge should have been dropped")
	}
}

func TestStreakBadgeExactDays(t *testing.T) {
	tests := []struct {
		streak int
		id     string
		ok     bool
	}{
		{6, "", false},
		{7, "week-streak", true},
		{8, "", false},
		{29, "", false},
		{30, "month-streak", true},
		{31, "", false},
		{100, "century-streak", true},
		{101, "", false},
	}

	for _, tt := range tests {
		id, _, ok := streakBadge(tt.streak)
		if ok != tt.ok || id != tt.id {
			t.Errorf("streakBadge(%d) = (%q, %v), want (%q, %v)", tt.streak, id, ok, tt.id, tt.ok)
		}
	}
}
