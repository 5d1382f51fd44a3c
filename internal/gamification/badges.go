package gamification

import (
	"fmt"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

// maxBadges bounds badge retention; oldest badges are dropped past this.
const maxBadges = 50

// grantBadgeIfAbsent inserts a badge at the head of the list with the
// given timestamp and truncates retention to maxBadges. Idempotent: a
// badge id is granted at most once for the lifetime of the state — the
// badge list itself is the award guard, there is no separate ledger.
func grantBadgeIfAbsent(st *models.ProgressState, id, label string, now time.Time) bool {
	if st.HasBadge(id) {
		return false
	}
	st.Badges = append([]models.Badge{{ID: id, Label: label, EarnedAt: now}}, st.Badges...)
	if len(st.Badges) > maxBadges {
		st.Badges = st.Badges[:maxBadges]
	}
	return true
}

// ── Badge id/label builders ─────────────────────────────

func levelBadge(level int) (string, string) {
	return fmt.Sprintf("level-%d", level), fmt.Sprintf("Level %d Achieved! 🎉", level)
}

func levelMilestoneBadge(level int) (string, string) {
	return fmt.Sprintf("milestone-%d", level), fmt.Sprintf("Level %d Milestone! 💎", level)
}

func explorerBadge(topicID, topicName string) (string, string) {
	return "explorer-" + topicID, topicName + " Explorer! 🌟"
}

func masteryBadge(pct int, topicID, topicName string) (string, string) {
	id := fmt.Sprintf("mastery-%d-%s", pct, topicID)
	var icon string
	switch pct {
	case 50:
		icon = "🎯"
	case 70:
		icon = "🏅"
	default:
		icon = "🏆"
	}
	return id, fmt.Sprintf("%s - %d%% Mastery! %s", topicName, pct, icon)
}

// streakBadge returns the badge for an exact streak length, if one exists.
// Streak badges fire at exactly 7, 30, and 100 consecutive days.
func streakBadge(streak int) (string, string, bool) {
	switch streak {
	case 7:
		return "week-streak", "7-Day Login Streak! 🔥", true
	case 30:
		return "month-streak", "30-Day Login Streak! 🏆", true
	case 100:
		return "century-streak", "100-Day Login Streak! 👑", true
	}
	return "", "", false
}
