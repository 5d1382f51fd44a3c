package gamification

import "github.com/physics-daily/backend/internal/models"

// firstLevelCost is the XP required to advance from level 1 to level 2.
// Each subsequent level costs levelCostStep more than the one before.
const (
	firstLevelCost = 100
	levelCostStep  = 50
)

// LevelFromXP maps cumulative XP to a level and progress within it.
// Level 1 starts at 0 XP; the cost to leave level n is 100 + 50*(n-1).
// Pure: reproducible from totalXP alone.
func LevelFromXP(xp int64) models.LevelInfo {
	if xp < 0 {
		xp = 0
	}

	level := 1
	needed := int64(firstLevelCost)
	remaining := xp

	for remaining >= needed {
		remaining -= needed
		level++
		needed += levelCostStep
	}

	return models.LevelInfo{
		Level:           level,
		XPIntoLevel:     remaining,
		XPNeededForNext: needed,
		ProgressPercent: float64(remaining) / float64(needed) * 100,
	}
}
