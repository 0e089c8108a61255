package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ScoreEntry is one row of rec_scores.
type ScoreEntry struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	ViewCount int     `json:"view_count"`
	LastScore float64 `json:"last_score"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

// DecayScores multiplies every stored score by factor and returns the
// number of rows touched. Scores are not clamped.
func (t *Tx) DecayScores(ctx context.Context, factor float64) (int64, error) {
	res, err := t.q.ExecContext(ctx, `UPDATE rec_scores SET score = score * ?`, factor)
	if err != nil {
		return 0, fmt.Errorf("decay scores: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// UpsertScore adds delta to the document's score, bumps its view count and
// records rawScore as the last observed relevance. A missing row is created
// with score = delta and view_count = 1.
func (t *Tx) UpsertScore(ctx context.Context, name string, delta, rawScore float64) error {
	now := time.Now().UnixMilli()
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO rec_scores (name, score, view_count, last_score, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			score      = rec_scores.score + excluded.score,
			view_count = rec_scores.view_count + 1,
			last_score = excluded.last_score,
			updated_at = excluded.updated_at
	`, name, delta, rawScore, now, now)
	if err != nil {
		return fmt.Errorf("upsert score %s: %w", name, err)
	}
	return nil
}

// TopScores returns entries with score > minScore, highest first. Equal
// scores are ordered by name so results are deterministic.
func (t *Tx) TopScores(ctx context.Context, limit int, minScore float64) ([]ScoreEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := t.q.QueryContext(ctx, `
		SELECT name, score, view_count, last_score, created_at, updated_at
		FROM rec_scores
		WHERE score > ?
		ORDER BY score DESC, name ASC
		LIMIT ?
	`, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.Name, &e.Score, &e.ViewCount, &e.LastScore, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetScore returns the entry for name, or nil if it has never been scored.
func (t *Tx) GetScore(ctx context.Context, name string) (*ScoreEntry, error) {
	var e ScoreEntry
	err := t.q.QueryRowContext(ctx, `
		SELECT name, score, view_count, last_score, created_at, updated_at
		FROM rec_scores WHERE name = ?
	`, name).Scan(&e.Name, &e.Score, &e.ViewCount, &e.LastScore, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}
	return &e, nil
}

// GetScore reads a single score outside a transaction.
func (db *DB) GetScore(ctx context.Context, name string) (*ScoreEntry, error) {
	return db.direct().GetScore(ctx, name)
}

// CountScores returns the number of scored documents.
func (db *DB) CountScores(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rec_scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return n, nil
}
