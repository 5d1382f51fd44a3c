package gamification

import (
	"math"

	"github.com/physics-daily/backend/internal/models"
)

const (
	dateLayout      = "2006-01-02"
	dailyBaseXP     = 2
	streakBonusCap  = 5
	streakBonusStep = 0.5
)

// CheckDailyLogin records a calendar-day login and awards the daily
// bonus. Calling again on the same day is a no-op. A login on the day
// after the last one extends the streak; any longer gap resets it to 1.
func (s *Service) CheckDailyLogin(userID string) *models.DailyLoginResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Progress(userID)
	now := s.now()
	today := now.Format(dateLayout)

	if st.LastLoginDate == today {
		return &models.DailyLoginResult{Awarded: false, LoginStreak: st.LoginStreak}
	}

	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)
	if st.LastLoginDate == yesterday {
		st.LoginStreak++
	} else {
		st.LoginStreak = 1
	}
	st.LastLoginDate = today
	st.TotalDaysActive++

	bonus := int64(math.Floor(math.Min(float64(st.LoginStreak)*streakBonusStep, streakBonusCap)))
	xp := int64(dailyBaseXP) + bonus

	if id, label, ok := streakBadge(st.LoginStreak); ok {
		s.grantLocked(userID, st, id, label)
	}

	s.addXPLocked(userID, float64(xp), models.ReasonDailyLogin, map[string]interface{}{
		"streak":       st.LoginStreak,
		"streak_bonus": bonus,
	})

	return &models.DailyLoginResult{
		Awarded:     true,
		XP:          xp,
		LoginStreak: st.LoginStreak,
		StreakBonus: bonus,
	}
}
