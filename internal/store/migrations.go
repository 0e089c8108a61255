package store

import (
	"context"
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "rec_scores: accumulated relevance per document",
		SQL: `
CREATE TABLE IF NOT EXISTS rec_scores (
    name        TEXT PRIMARY KEY,
    score       REAL NOT NULL DEFAULT 0,
    view_count  INTEGER NOT NULL DEFAULT 0,
    last_score  REAL NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scores_score ON rec_scores(score DESC);
`,
	},
	{
		Version:     2,
		Description: "rec_relations: directed co-occurrence strength",
		SQL: `
CREATE TABLE IF NOT EXISTS rec_relations (
    from_name   TEXT NOT NULL,
    to_name     TEXT NOT NULL,
    strength    REAL NOT NULL DEFAULT 0,
    updated_at  INTEGER NOT NULL,

    PRIMARY KEY (from_name, to_name),
    CHECK (from_name != to_name)
);

CREATE INDEX IF NOT EXISTS idx_relations_from ON rec_relations(from_name, strength DESC);
`,
	},
	{
		Version:     3,
		Description: "documents: name directory for ranked identifiers",
		SQL: `
CREATE TABLE IF NOT EXISTS documents (
    name        TEXT PRIMARY KEY,
    title       TEXT,
    body        TEXT,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
`,
	},
}

func (db *DB) migrate(ctx context.Context) error {
	// Create schema_versions table if it doesn't exist
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
