package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TurnRecord is one journaled turn outcome.
type TurnRecord struct {
	ID              string
	Generation      uint64
	Kind            string // "chat" | "upload"
	Outcome         string // "applied" | "failed" | "discarded"
	SessionID       string
	Recommendations int
	Duration        time.Duration
	Error           string
	StartedAt       time.Time
}

// Journal records turn outcomes for the current process.
type Journal struct {
	db *DB
}

// NewJournal creates a journal over an open DB.
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

// Record inserts a turn outcome. A missing ID or start time is filled in.
func (j *Journal) Record(ctx context.Context, rec TurnRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	_, err := j.db.sql.ExecContext(ctx,
		`INSERT INTO turns (id, generation, kind, outcome, session_id, recommendations, duration_ms, error, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, int64(rec.Generation), rec.Kind, rec.Outcome, rec.SessionID,
		rec.Recommendations, rec.Duration.Milliseconds(), rec.Error,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}

// Recent returns up to limit turns, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.sql.QueryContext(ctx,
		`SELECT id, generation, kind, outcome, session_id, recommendations, duration_ms, error, started_at
		 FROM turns ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var (
			rec        TurnRecord
			generation int64
			durationMS int64
			startedAt  string
		)
		if err := rows.Scan(&rec.ID, &generation, &rec.Kind, &rec.Outcome, &rec.SessionID,
			&rec.Recommendations, &durationMS, &rec.Error, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		rec.Generation = uint64(generation)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByOutcome returns how many turns ended with each outcome.
func (j *Journal) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := j.db.sql.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM turns GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("counting turns: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
