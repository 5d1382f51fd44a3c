package leaderboard

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/physics-daily/backend/internal/cloud"
	"github.com/physics-daily/backend/internal/models"
	"github.com/physics-daily/backend/internal/progress"
)

const (
	// logQueryLimit caps each of the two timestamp-indexed log queries.
	logQueryLimit = 2000
	// maxEntries caps the published ranking length.
	maxEntries = 100

	cacheTTL     = 3 * time.Minute
	refreshDelay = 20 * time.Second
)

// ProfileFunc resolves a display profile for optimistic inserts. It
// runs inside the award path and must not block.
type ProfileFunc func(userID string) (displayName, country string)

// Aggregator builds rankings from the remote XP log, caches them per
// range, and patches the cache optimistically when the local user earns
// XP. An optimistic patch is always followed by a debounced
// authoritative refetch that discards the overlay.
type Aggregator struct {
	store   cloud.Store
	profile ProfileFunc
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	cache   map[string]*cacheEntry
	refresh *progress.Coalescer
}

type cacheEntry struct {
	rng Range
	loc *time.Location

	// full is the ranked aggregate without the display cap, so a
	// viewer outside the top entries still gets a rank.
	full      []models.RankingEntry
	fallback  bool
	fetchedAt time.Time
	overlaid  bool
}

func NewAggregator(store cloud.Store, profile ProfileFunc) *Aggregator {
	a := &Aggregator{
		store:   store,
		profile: profile,
		timeout: 15 * time.Second,
		now:     time.Now,
		cache:   make(map[string]*cacheEntry),
	}
	a.refresh = progress.NewCoalescer(refreshDelay, a.refetchOverlaid)
	return a
}

func cacheKey(rng Range, loc *time.Location) string {
	// Only the monthly window depends on the viewer's zone.
	if rng == RangeMonthly {
		return string(rng) + "|" + loc.String()
	}
	return string(rng)
}

// ── Queries ───────────────────────────────────────────────

// Rankings returns the ranking for a period, serving from cache within
// the TTL. The viewer's own entry is flagged and surfaced separately
// even when it falls outside the published cap.
func (a *Aggregator) Rankings(ctx context.Context, rng Range, loc *time.Location, viewerID string) (*models.RankingResult, error) {
	key := cacheKey(rng, loc)

	a.mu.Lock()
	if e, ok := a.cache[key]; ok && a.now().Sub(e.fetchedAt) < cacheTTL {
		res := a.viewLocked(e, viewerID)
		a.mu.Unlock()
		return res, nil
	}
	stale := a.cache[key]
	a.mu.Unlock()

	full, fallback, err := a.fetch(ctx, rng, loc)
	if err != nil {
		// Serve the stale snapshot over an error if we have one.
		if stale != nil {
			a.mu.Lock()
			res := a.viewLocked(stale, viewerID)
			a.mu.Unlock()
			log.Printf("[leaderboard] refresh %s failed, serving stale: %v", key, err)
			return res, nil
		}
		return nil, err
	}

	a.mu.Lock()
	e := &cacheEntry{rng: rng, loc: loc, full: full, fallback: fallback, fetchedAt: a.now()}
	a.cache[key] = e
	res := a.viewLocked(e, viewerID)
	a.mu.Unlock()
	return res, nil
}

func (a *Aggregator) viewLocked(e *cacheEntry, viewerID string) *models.RankingResult {
	n := len(e.full)
	if n > maxEntries {
		n = maxEntries
	}
	entries := make([]models.RankingEntry, n)
	copy(entries, e.full[:n])

	var current *models.RankingEntry
	for i := range entries {
		if entries[i].UserID == viewerID {
			entries[i].IsCurrentUser = true
			c := entries[i]
			current = &c
		}
	}
	if current == nil && viewerID != "" {
		for _, re := range e.full {
			if re.UserID == viewerID {
				c := re
				c.IsCurrentUser = true
				current = &c
				break
			}
		}
	}

	return &models.RankingResult{
		Range:       string(e.rng),
		Entries:     entries,
		CurrentUser: current,
		Fallback:    e.fallback,
		FetchedAt:   e.fetchedAt,
	}
}

// fetch builds the authoritative ranking for a period.
func (a *Aggregator) fetch(ctx context.Context, rng Range, loc *time.Location) ([]models.RankingEntry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	since, windowed := windowStart(rng, a.now(), loc)
	if !windowed {
		entries, err := a.fetchTotals(ctx)
		return entries, false, err
	}

	// Query by both timestamps: client stamps make fresh awards visible
	// immediately, server stamps catch entries logged from elsewhere.
	// Merge and dedupe by entry id.
	byClient, err := a.store.LogsSince(ctx, cloud.ByClientTS, since, logQueryLimit)
	if err != nil {
		return nil, false, err
	}
	byServer, err := a.store.LogsSince(ctx, cloud.ByServerTS, since, logQueryLimit)
	if err != nil {
		return nil, false, err
	}

	seen := make(map[string]bool, len(byClient)+len(byServer))
	var logs []models.XPLogEntry
	for _, e := range append(byClient, byServer...) {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		logs = append(logs, e)
	}

	if len(logs) == 0 {
		// Nothing in the window yet. Fall back to all-time totals so
		// the board is never empty, and flag it.
		entries, err := a.fetchTotals(ctx)
		return entries, true, err
	}

	return rank(aggregate(logs)), false, nil
}

func (a *Aggregator) fetchTotals(ctx context.Context) ([]models.RankingEntry, error) {
	docs, err := a.store.TopTotals(ctx, maxEntries)
	if err != nil {
		return nil, err
	}
	entries := make([]models.RankingEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, models.RankingEntry{
			UserID:      d.ID,
			DisplayName: d.DisplayName,
			Country:     d.Country,
			XP:          d.TotalXP,
		})
	}
	return rank(entries), nil
}

// aggregate sums log amounts per user. Logs arrive newest-first, so the
// first entry seen for a user carries their freshest display profile.
func aggregate(logs []models.XPLogEntry) []models.RankingEntry {
	totals := make(map[string]*models.RankingEntry)
	var order []string
	for _, e := range logs {
		if e.Amount <= 0 {
			continue
		}
		re, ok := totals[e.UserID]
		if !ok {
			re = &models.RankingEntry{
				UserID:      e.UserID,
				DisplayName: e.DisplayName,
				Country:     e.Country,
			}
			totals[e.UserID] = re
			order = append(order, e.UserID)
		}
		re.XP += e.Amount
		if re.DisplayName == "" {
			re.DisplayName = e.DisplayName
		}
		if re.Country == "" {
			re.Country = e.Country
		}
	}
	entries := make([]models.RankingEntry, 0, len(order))
	for _, uid := range order {
		entries = append(entries, *totals[uid])
	}
	return entries
}

// rank sorts by XP descending and assigns dense 1-based ranks: ties
// share a rank, the next distinct total gets the next rank.
func rank(entries []models.RankingEntry) []models.RankingEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].UserID < entries[j].UserID
	})
	r := 0
	var prev int64
	for i := range entries {
		if i == 0 || entries[i].XP != prev {
			r++
			prev = entries[i].XP
		}
		entries[i].Rank = r
	}
	return entries
}

// ── Optimistic Updates ────────────────────────────────────

// OnLocalAward patches every cached ranking with a just-earned local
// award so the viewer sees their new total immediately, then schedules
// a debounced authoritative refetch that replaces the overlay.
func (a *Aggregator) OnLocalAward(userID string, amount int64) {
	if amount <= 0 {
		return
	}

	a.mu.Lock()
	patched := false
	for _, e := range a.cache {
		found := false
		for i := range e.full {
			if e.full[i].UserID == userID {
				e.full[i].XP += amount
				found = true
				break
			}
		}
		if !found {
			name, country := a.profile(userID)
			if name == "" {
				name = "Anonymous"
			}
			e.full = append(e.full, models.RankingEntry{
				UserID:      userID,
				DisplayName: name,
				Country:     country,
				XP:          amount,
			})
		}
		e.full = rank(e.full)
		e.overlaid = true
		patched = true
	}
	a.mu.Unlock()

	if patched {
		a.refresh.Trigger()
	}
}

// refetchOverlaid replaces optimistically patched snapshots with
// authoritative ones.
func (a *Aggregator) refetchOverlaid() {
	a.mu.Lock()
	type target struct {
		key string
		rng Range
		loc *time.Location
	}
	var targets []target
	for key, e := range a.cache {
		if e.overlaid {
			targets = append(targets, target{key, e.rng, e.loc})
		}
	}
	a.mu.Unlock()

	for _, t := range targets {
		full, fallback, err := a.fetch(context.Background(), t.rng, t.loc)
		if err != nil {
			log.Printf("[leaderboard] authoritative refetch %s: %v", t.key, err)
			continue
		}
		a.mu.Lock()
		a.cache[t.key] = &cacheEntry{
			rng: t.rng, loc: t.loc,
			full: full, fallback: fallback, fetchedAt: a.now(),
		}
		a.mu.Unlock()
	}
}

// ── Background Refresh ────────────────────────────────────

// StartRefreshWorker re-fetches expired cached rankings on a fixed
// interval so interactive requests mostly hit a warm cache.
func (a *Aggregator) StartRefreshWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("[leaderboard] Refresh worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("[leaderboard] Refresh worker shutting down")
			return
		case <-ticker.C:
			a.refreshExpired()
		}
	}
}

func (a *Aggregator) refreshExpired() {
	a.mu.Lock()
	type target struct {
		key string
		rng Range
		loc *time.Location
	}
	var targets []target
	for key, e := range a.cache {
		if a.now().Sub(e.fetchedAt) >= cacheTTL {
			targets = append(targets, target{key, e.rng, e.loc})
		}
	}
	a.mu.Unlock()

	for _, t := range targets {
		full, fallback, err := a.fetch(context.Background(), t.rng, t.loc)
		if err != nil {
			log.Printf("[leaderboard] background refresh %s: %v", t.key, err)
			continue
		}
		a.mu.Lock()
		a.cache[t.key] = &cacheEntry{
			rng: t.rng, loc: t.loc,
			full: full, fallback: fallback, fetchedAt: a.now(),
		}
		a.mu.Unlock()
	}
}

// Stop cancels the pending debounced refetch, if any.
func (a *Aggregator) Stop() {
	a.refresh.Stop()
}
