package models

import "time"

// ── XP Log (remote, append-only) ──────────────────────────

// XPLogEntry is one point-event in the remote log. Entries are immutable
// once written; the per-user running total is incremented separately.
type XPLogEntry struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"uid"`
	DisplayName string                 `json:"display_name"`
	Country     string                 `json:"country,omitempty"`
	Amount      int64                  `json:"xp"`
	Reason      string                 `json:"reason"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
	ServerTS    time.Time              `json:"timestamp"`
	ClientTS    time.Time              `json:"client_ts"`
}

// Award reasons recorded in the log.
const (
	ReasonDailyLogin = "daily-login"
	ReasonQuiz       = "quiz"
	ReasonSync       = "sync"
)

// ── Rankings (derived, rebuilt per query) ─────────────────

type RankingEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"uid"`
	DisplayName   string `json:"display_name"`
	Country       string `json:"country,omitempty"`
	XP            int64  `json:"xp"`
	IsCurrentUser bool   `json:"is_current_user,omitempty"`
}

type RankingResult struct {
	Range       string         `json:"range"`
	Entries     []RankingEntry `json:"entries"`
	CurrentUser *RankingEntry  `json:"current_user,omitempty"`
	Fallback    bool           `json:"all_time_fallback"`
	FetchedAt   time.Time      `json:"fetched_at"`
}
