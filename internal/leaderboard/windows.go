package leaderboard

import "time"

// Range selects the ranking period.
type Range string

const (
	RangeDaily   Range = "daily"
	RangeWeekly  Range = "weekly"
	RangeMonthly Range = "monthly"
	RangeAll     Range = "all"
)

func ParseRange(s string) (Range, bool) {
	switch Range(s) {
	case RangeDaily, RangeWeekly, RangeMonthly, RangeAll:
		return Range(s), true
	}
	return "", false
}

// windowStart returns the inclusive lower bound for a ranking period.
// Daily and weekly are rolling windows; monthly starts at the first of
// the current calendar month in the viewer's zone. Returns ok=false for
// the all-time range, which has no window.
func windowStart(rng Range, now time.Time, loc *time.Location) (time.Time, bool) {
	switch rng {
	case RangeDaily:
		return now.Add(-24 * time.Hour), true
	case RangeWeekly:
		return now.Add(-7 * 24 * time.Hour), true
	case RangeMonthly:
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}
