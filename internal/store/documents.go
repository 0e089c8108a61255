package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Document is an entry in the document directory. Scores and relations
// refer to documents by Name only; deleting a document leaves them in place.
type Document struct {
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Body      string `json:"body,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Identifier returns the document's name.
func (d *Document) Identifier() string {
	return d.Name
}

// PutDocument inserts a document or replaces the title and body of an
// existing one.
func (db *DB) PutDocument(ctx context.Context, doc *Document) error {
	doc.Name = strings.TrimSpace(doc.Name)
	if doc.Name == "" {
		return fmt.Errorf("put document: empty name")
	}

	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (name, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			title      = excluded.title,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, doc.Name, doc.Title, doc.Body, now, now)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}

	stored, err := db.GetDocumentByName(ctx, doc.Name)
	if err != nil {
		return err
	}
	if stored != nil {
		*doc = *stored
	}
	return nil
}

// GetDocumentByName returns a document by name, or nil if not found.
func (db *DB) GetDocumentByName(ctx context.Context, name string) (*Document, error) {
	var d Document
	var title, body sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT name, title, body, created_at, updated_at
		FROM documents WHERE name = ?
	`, name).Scan(&d.Name, &title, &body, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document by name: %w", err)
	}
	d.Title = title.String
	d.Body = body.String
	return &d, nil
}

// ListDocuments returns documents ordered by name. limit <= 0 means all.
func (db *DB) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	query := `SELECT name, title, body, created_at, updated_at FROM documents ORDER BY name ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var title, body sql.NullString
		if err := rows.Scan(&d.Name, &title, &body, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Title = title.String
		d.Body = body.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document from the directory. It reports whether
// a row was removed.
func (db *DB) DeleteDocument(ctx context.Context, name string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
