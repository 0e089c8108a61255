package engine

import (
	"context"

	"github.com/lazypower/docrank/internal/store"
)

// Directory resolves identifiers back to documents. A missing document is
// reported as (nil, nil).
type Directory interface {
	Lookup(ctx context.Context, name string) (Document, error)
}

// StoreDirectory resolves identifiers against the documents table.
type StoreDirectory struct {
	DB *store.DB
}

func (d StoreDirectory) Lookup(ctx context.Context, name string) (Document, error) {
	doc, err := d.DB.GetDocumentByName(ctx, name)
	if err != nil || doc == nil {
		// Keep a nil *store.Document from becoming a non-nil Document.
		return nil, err
	}
	return doc, nil
}
