package models

import (
	"encoding/json"
	"sort"
	"time"
)

// ── Local Progress State ──────────────────────────────────

// Badge is a uniquely-keyed, once-ever achievement marker.
type Badge struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	EarnedAt time.Time `json:"earnedAt"`
}

// ProgressState is the per-user progress record. Level is derived from
// TotalXP and never trusted independently of it.
type ProgressState struct {
	TotalXP         int64     `json:"totalXP"`
	Level           int       `json:"level"`
	LoginStreak     int       `json:"loginStreak"`
	TotalDaysActive int       `json:"totalDaysActive"`
	LastLoginDate   string    `json:"lastLoginDate,omitempty"` // "2006-01-02", empty before first login
	Badges          []Badge   `json:"badges"`
	LastAwardAt     time.Time `json:"lastAwardAt"`
}

// HasBadge reports whether a badge with the given id was ever earned.
// The badge list is the source of truth for award idempotency.
func (p *ProgressState) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// TopicProgress tracks distinct correctly-answered questions per topic.
// The correct-answer set is serialized as a sorted array.
type TopicProgress struct {
	Correct        map[string]bool
	TotalAttempted int
	FirstSolveDate *time.Time
}

type topicProgressJSON struct {
	CorrectQuestionIDs []string   `json:"correctQuestionIds"`
	TotalAttempted     int        `json:"totalAttempted"`
	FirstSolveDate     *time.Time `json:"firstSolveDate"`
}

func (tp TopicProgress) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(tp.Correct))
	for id := range tp.Correct {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return json.Marshal(topicProgressJSON{
		CorrectQuestionIDs: ids,
		TotalAttempted:     tp.TotalAttempted,
		FirstSolveDate:     tp.FirstSolveDate,
	})
}

func (tp *TopicProgress) UnmarshalJSON(data []byte) error {
	var raw topicProgressJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tp.Correct = make(map[string]bool, len(raw.CorrectQuestionIDs))
	for _, id := range raw.CorrectQuestionIDs {
		tp.Correct[id] = true
	}
	tp.TotalAttempted = raw.TotalAttempted
	tp.FirstSolveDate = raw.FirstSolveDate
	return nil
}

// ── Leveling ──────────────────────────────────────────────

type LevelInfo struct {
	Level           int     `json:"level"`
	XPIntoLevel     int64   `json:"xp_into_level"`
	XPNeededForNext int64   `json:"xp_needed_for_next"`
	ProgressPercent float64 `json:"progress_percent"`
}

// ── Quiz Awards ───────────────────────────────────────────

type QuizSubmission struct {
	TopicID        string   `json:"topic_id"`
	CorrectCount   int      `json:"correct_count"`
	TotalQuestions int      `json:"total_questions"`
	QuestionIDs    []string `json:"question_ids,omitempty"`
	TimeSpent      float64  `json:"time_spent_seconds,omitempty"`
}

// XPBreakdown itemizes an award. The fields are additive: their sum,
// floored, equals the awarded XP.
type XPBreakdown struct {
	Base      float64 `json:"base,omitempty"`
	Mastery   float64 `json:"mastery,omitempty"`
	Explorer  float64 `json:"explorer,omitempty"`
	Milestone float64 `json:"milestone,omitempty"`
	Perfect   float64 `json:"perfect,omitempty"`
}

type QuizXPResult struct {
	XP                   int64       `json:"xp"`
	Breakdown            XPBreakdown `json:"breakdown"`
	CompletionPercentage float64     `json:"completion_percentage"`
	MasteryLevel         string      `json:"mastery_level"` // "high" or "developing"
}

type DailyLoginResult struct {
	Awarded     bool  `json:"awarded"`
	XP          int64 `json:"xp"`
	LoginStreak int   `json:"login_streak"`
	StreakBonus int64 `json:"streak_bonus"`
}

// ── State Snapshot ────────────────────────────────────────

type TopicMastery struct {
	Name         string  `json:"name"`
	Completed    int     `json:"completed"`
	Total        int     `json:"total"`
	Percentage   float64 `json:"percentage"`
	MasteryLevel string  `json:"mastery_level"`
}

type GamificationState struct {
	TotalXP         int64                   `json:"total_xp"`
	Level           int                     `json:"level"`
	LevelInfo       LevelInfo               `json:"level_info"`
	LoginStreak     int                     `json:"login_streak"`
	TotalDaysActive int                     `json:"total_days_active"`
	Badges          []Badge                 `json:"badges"`
	LastAwardAt     time.Time               `json:"last_award_at"`
	TopicMastery    map[string]TopicMastery `json:"topic_mastery"`
}
