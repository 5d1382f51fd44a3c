package cloud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/physics-daily/backend/internal/models"
)

// PGStore implements Store on Postgres: the users table carries the
// per-user doc and authoritative total, xp_logs is the append-only log.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) UserDoc(ctx context.Context, userID string) (*UserDoc, error) {
	var doc UserDoc
	var country sql.NullString
	var lastAward sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, country, total_xp, last_award_at
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&doc.ID, &doc.DisplayName, &country, &doc.TotalXP, &lastAward)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user doc: %w", err)
	}
	doc.Country = country.String
	doc.LastAwardAt = lastAward.Time
	return &doc, nil
}

func (s *PGStore) MergeUserDoc(ctx context.Context, userID string, patch UserDocPatch) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET
		    display_name = COALESCE($2, display_name),
		    country = COALESCE($3, country),
		    updated_at = NOW()
		 WHERE id = $1`,
		userID, patch.DisplayName, patch.Country,
	)
	return err
}

// IncrementTotalXP adds delta to the authoritative total. The increment
// is a single UPDATE, commutative across concurrent writers.
func (s *PGStore) IncrementTotalXP(ctx context.Context, userID string, delta int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET
		    total_xp = total_xp + $2,
		    last_award_at = NOW(),
		    updated_at = NOW()
		 WHERE id = $1`,
		userID, delta,
	)
	return err
}

func (s *PGStore) AppendLog(ctx context.Context, entry models.XPLogEntry) error {
	var metaJSON *string
	if entry.Meta != nil {
		if b, err := json.Marshal(entry.Meta); err == nil {
			v := string(b)
			metaJSON = &v
		}
	}
	var country *string
	if entry.Country != "" {
		country = &entry.Country
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO xp_logs (id, user_id, display_name, country, amount, reason, meta, client_ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.UserID, entry.DisplayName, country,
		entry.Amount, entry.Reason, metaJSON, entry.ClientTS,
	)
	return err
}

func (s *PGStore) LogsSince(ctx context.Context, field TimestampField, since time.Time, limit int) ([]models.XPLogEntry, error) {
	column := "client_ts"
	if field == ByServerTS {
		column = "server_ts"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, display_name, COALESCE(country, ''), amount, reason, server_ts, client_ts
		 FROM xp_logs
		 WHERE `+column+` >= $1
		 ORDER BY `+column+` DESC
		 LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query xp_logs by %s: %w", column, err)
	}
	defer rows.Close()

	var entries []models.XPLogEntry
	for rows.Next() {
		var e models.XPLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.DisplayName, &e.Country,
			&e.Amount, &e.Reason, &e.ServerTS, &e.ClientTS); err != nil {
			return nil, fmt.Errorf("scan xp_log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PGStore) TopTotals(ctx context.Context, limit int) ([]UserDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, COALESCE(country, ''), total_xp
		 FROM users
		 WHERE total_xp > 0
		 ORDER BY total_xp DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top totals: %w", err)
	}
	defer rows.Close()

	var docs []UserDoc
	for rows.Next() {
		var d UserDoc
		if err := rows.Scan(&d.ID, &d.DisplayName, &d.Country, &d.TotalXP); err != nil {
			return nil, fmt.Errorf("scan user total: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
