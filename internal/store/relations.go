package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Relation is a directed co-occurrence edge between two documents.
type Relation struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Strength  float64 `json:"strength"`
	UpdatedAt int64   `json:"updated_at"`
}

// BumpRelation increments the strength of from->to by amount, creating the
// edge if needed. Strength never decreases.
func (t *Tx) BumpRelation(ctx context.Context, from, to string, amount float64) error {
	if from == to {
		return fmt.Errorf("bump relation %s: self edge", from)
	}
	now := time.Now().UnixMilli()
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO rec_relations (from_name, to_name, strength, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(from_name, to_name) DO UPDATE SET
			strength   = rec_relations.strength + excluded.strength,
			updated_at = excluded.updated_at
	`, from, to, amount, now)
	if err != nil {
		return fmt.Errorf("bump relation %s->%s: %w", from, to, err)
	}
	return nil
}

// TopRelated returns the strongest outgoing edges of name.
func (t *Tx) TopRelated(ctx context.Context, name string, limit int) ([]Relation, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := t.q.QueryContext(ctx, `
		SELECT from_name, to_name, strength, updated_at
		FROM rec_relations
		WHERE from_name = ?
		ORDER BY strength DESC, to_name ASC
		LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("top related: %w", err)
	}
	defer rows.Close()

	var rels []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.From, &r.To, &r.Strength, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// GetRelation returns the edge from->to, or nil if absent.
func (t *Tx) GetRelation(ctx context.Context, from, to string) (*Relation, error) {
	var r Relation
	err := t.q.QueryRowContext(ctx, `
		SELECT from_name, to_name, strength, updated_at
		FROM rec_relations WHERE from_name = ? AND to_name = ?
	`, from, to).Scan(&r.From, &r.To, &r.Strength, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relation: %w", err)
	}
	return &r, nil
}

// GetRelation reads a single edge outside a transaction.
func (db *DB) GetRelation(ctx context.Context, from, to string) (*Relation, error) {
	return db.direct().GetRelation(ctx, from, to)
}

// CountRelations returns the number of directed edges.
func (db *DB) CountRelations(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rec_relations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count relations: %w", err)
	}
	return n, nil
}
