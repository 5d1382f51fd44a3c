package cloud

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/physics-daily/backend/internal/models"
)

// Adapter pushes XP awards to the remote store and reconciles local
// totals against the remote authoritative total on sign-in. Every
// operation is best-effort: failures are logged and swallowed, local
// state stays authoritative for the session.
type Adapter struct {
	store    Store
	profiles *ProfileChain
	timeout  time.Duration
	now      func() time.Time
}

func NewAdapter(store Store, profiles *ProfileChain) *Adapter {
	return &Adapter{
		store:    store,
		profiles: profiles,
		timeout:  10 * time.Second,
		now:      time.Now,
	}
}

// LogAward appends one log entry for the award and increments the
// remote authoritative total atomically. Profile resolution failure
// never blocks the award.
func (a *Adapter) LogAward(ctx context.Context, userID string, amount int64, reason string, meta map[string]interface{}) {
	if amount <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.append(ctx, userID, amount, reason, meta)
}

// SyncLocalToCloud compares the local total to the remote authoritative
// total and, when local is ahead, pushes the difference as a single
// synthetic "sync" entry. Local wins if higher; neither side is ever
// decreased here.
func (a *Adapter) SyncLocalToCloud(ctx context.Context, userID string, localTotal int64) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	doc, err := a.store.UserDoc(ctx, userID)
	if err != nil {
		log.Printf("[cloudsync] read remote total for %s: %v", userID, err)
		return
	}
	var remote int64
	if doc != nil {
		remote = doc.TotalXP
	}
	if localTotal <= remote {
		return
	}

	diff := localTotal - remote
	a.append(ctx, userID, diff, models.ReasonSync, map[string]interface{}{
		"source":   "local-backfill",
		"cloud_xp": remote,
		"local_xp": localTotal,
	})
}

func (a *Adapter) append(ctx context.Context, userID string, amount int64, reason string, meta map[string]interface{}) {
	var displayName, country string
	if p := a.profiles.Resolve(ctx, userID); p != nil {
		displayName = p.DisplayName
		country = p.Country
	}

	entry := models.XPLogEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: displayName,
		Country:     country,
		Amount:      amount,
		Reason:      reason,
		Meta:        meta,
		ClientTS:    a.now(),
	}
	if err := a.store.AppendLog(ctx, entry); err != nil {
		log.Printf("[cloudsync] append log for %s: %v", userID, err)
	}
	if err := a.store.IncrementTotalXP(ctx, userID, amount); err != nil {
		log.Printf("[cloudsync] increment total for %s: %v", userID, err)
	}
}
