package gamification

import (
	"testing"
	"time"
)

func TestCheckDailyLoginFirstDay(t *testing.T) {
	svc := newTestService(t, nil)

	result := svc.CheckDailyLogin("u1")
	if !result.Awarded {
		t.Fatal("first login not awarded")
	}
	if result.LoginStreak != 1 {
		t.Errorf("LoginStreak = %d, want 1", result.LoginStreak)
	}
	if result.XP != 2 {
		t.Errorf("XP = %d, want 2", result.XP)
	}
	if result.StreakBonus != 0 {
		t.Errorf("StreakBonus = %d, want 0", result.StreakBonus)
	}
}

func TestCheckDailyLoginSameDayNoop(t *testing.T) {
	svc := newTestService(t, nil)

	svc.CheckDailyLogin("u1")
	result := svc.CheckDailyLogin("u1")
	if result.Awarded {
		t.Fatal("second login on same day was awarded")
	}
	if result.LoginStreak != 1 {
		t.Errorf("LoginStreak = %d, want 1", result.LoginStreak)
	}

	state := svc.State("u1")
	if state.TotalDaysActive != 1 {
		t.Errorf("TotalDaysActive = %d, want 1", state.TotalDaysActive)
	}
}

func TestCheckDailyLoginConsecutiveDays(t *testing.T) {
	svc := newTestService(t, nil)
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return day }
	svc.CheckDailyLogin("u1")

	svc.now = func() time.Time { return day.AddDate(0, 0, 1) }
	result := svc.CheckDailyLogin("u1")

	if result.LoginStreak != 2 {
		t.Errorf("LoginStreak = %d, want 2", result.LoginStreak)
	}
	// 2 base + floor(min(2*0.5, 5)) = 3
	if result.XP != 3 {
		t.Errorf("XP = %d, want 3", result.XP)
	}
}

func TestCheckDailyLoginGapResetsStreak(t *testing.T) {
	svc := newTestService(t, nil)
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return day }
	svc.CheckDailyLogin("u1")
	svc.now = func() time.Time { return day.AddDate(0, 0, 1) }
	svc.CheckDailyLogin("u1")

	svc.now = func() time.Time { return day.AddDate(0, 0, 4) }
	result := svc.CheckDailyLogin("u1")

	if result.LoginStreak != 1 {
		t.Errorf("LoginStreak = %d, want 1", result.LoginStreak)
	}

	state := svc.State("u1")
	if state.TotalDaysActive != 3 {
		t.Errorf("TotalDaysActive = %d, want 3", state.TotalDaysActive)
	}
}

func TestCheckDailyLoginStreakBonusCaps(t *testing.T) {
	svc := newTestService(t, nil)
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var last int64
	for i := 0; i < 15; i++ {
		svc.now = func() time.Time { return day.AddDate(0, 0, i) }
		r := svc.CheckDailyLogin("u1")
		last = r.StreakBonus
	}

	// floor(min(15*0.5, 5)) = 5
	if last != 5 {
		t.Errorf("StreakBonus at streak 15 = %d, want 5", last)
	}
}

func TestCheckDailyLoginWeekStreakBadge(t *testing.T) {
	svc := newTestService(t, nil)
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		svc.now = func() time.Time { return day.AddDate(0, 0, i) }
		svc.CheckDailyLogin("u1")
	}

	state := svc.State("u1")
	found := false
	for _, b := range state.Badges {
		if b.ID == "week-streak" {
			found = true
		}
	}
	if !found {
		t.Error("week-streak badge not granted at streak 7")
	}
	if state.LoginStreak != 7 {
		t.Errorf("LoginStreak = %d, want 7", state.LoginStreak)
	}
}
