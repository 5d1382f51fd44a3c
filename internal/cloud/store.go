package cloud

import (
	"context"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

// TimestampField selects which timestamp a log range query filters on.
// Client timestamps make fresh entries visible immediately; server
// timestamps are the durable fallback for entries written elsewhere.
type TimestampField int

const (
	ByClientTS TimestampField = iota
	ByServerTS
)

// UserDoc is the per-user remote record: profile fields plus the
// authoritative running XP total, updated by atomic increment.
type UserDoc struct {
	ID          string
	DisplayName string
	Country     string
	TotalXP     int64
	LastAwardAt time.Time
}

// UserDocPatch is a set-with-merge update; nil fields are left untouched.
type UserDocPatch struct {
	DisplayName *string
	Country     *string
}

// Store is the remote document-store boundary: per-user docs with merge
// and atomic-increment semantics, plus an append-only XP log with
// timestamp range queries.
type Store interface {
	UserDoc(ctx context.Context, userID string) (*UserDoc, error)
	MergeUserDoc(ctx context.Context, userID string, patch UserDocPatch) error
	IncrementTotalXP(ctx context.Context, userID string, delta int64) error
	AppendLog(ctx context.Context, entry models.XPLogEntry) error
	LogsSince(ctx context.Context, field TimestampField, since time.Time, limit int) ([]models.XPLogEntry, error)
	TopTotals(ctx context.Context, limit int) ([]UserDoc, error)
}
