package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ScoreStore holds accumulated relevance per document name.
type ScoreStore interface {
	DecayScores(ctx context.Context, factor float64) (int64, error)
	UpsertScore(ctx context.Context, name string, delta, rawScore float64) error
	TopScores(ctx context.Context, limit int, minScore float64) ([]ScoreEntry, error)
}

// RelationStore holds directed co-occurrence strengths between document names.
type RelationStore interface {
	BumpRelation(ctx context.Context, from, to string, amount float64) error
	TopRelated(ctx context.Context, name string, limit int) ([]Relation, error)
}

// Stores is the view of both tables available inside one transaction.
type Stores interface {
	ScoreStore
	RelationStore
}

// Transactor runs a function against Stores inside a single transaction.
// Update commits when fn returns nil and rolls back otherwise; View always
// rolls back.
type Transactor interface {
	Update(ctx context.Context, fn func(Stores) error) error
	View(ctx context.Context, fn func(Stores) error) error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx scopes score and relation operations to one SQL transaction.
type Tx struct {
	q querier
}

var _ Stores = (*Tx)(nil)
var _ Transactor = (*DB)(nil)

// Update runs fn in a write transaction. Nothing fn wrote is visible to
// other connections unless fn returns nil and the commit succeeds.
func (db *DB) Update(ctx context.Context, fn func(Stores) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// View runs fn in a transaction that is always rolled back, giving fn a
// consistent snapshot of both tables.
func (db *DB) View(ctx context.Context, fn func(Stores) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	return fn(&Tx{q: tx})
}

// direct runs operations outside any explicit transaction.
func (db *DB) direct() *Tx {
	return &Tx{q: db.DB}
}
