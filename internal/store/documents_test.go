package store

import (
	"context"
	"testing"
)

func TestPutAndGetDocument(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	doc := &Document{Name: "  guide.md ", Title: "Guide", Body: "hello"}
	if err := db.PutDocument(ctx, doc); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	if doc.Name != "guide.md" {
		t.Errorf("Name = %q, want trimmed guide.md", doc.Name)
	}
	if doc.CreatedAt == 0 {
		t.Error("CreatedAt not set")
	}

	got, err := db.GetDocumentByName(ctx, "guide.md")
	if err != nil {
		t.Fatalf("GetDocumentByName: %v", err)
	}
	if got == nil || got.Title != "Guide" || got.Body != "hello" {
		t.Errorf("got %+v", got)
	}
	if got.Identifier() != "guide.md" {
		t.Errorf("Identifier = %q", got.Identifier())
	}

	// Replace keeps created_at, updates content
	created := got.CreatedAt
	if err := db.PutDocument(ctx, &Document{Name: "guide.md", Title: "Guide v2"}); err != nil {
		t.Fatalf("PutDocument replace: %v", err)
	}
	got, _ = db.GetDocumentByName(ctx, "guide.md")
	if got.Title != "Guide v2" || got.CreatedAt != created {
		t.Errorf("after replace: %+v (created %d)", got, created)
	}
}

func TestPutDocumentEmptyName(t *testing.T) {
	db := testDB(t)
	if err := db.PutDocument(context.Background(), &Document{Name: "   "}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestGetDocumentMissing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetDocumentByName(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetDocumentByName: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestListAndDeleteDocuments(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		if err := db.PutDocument(ctx, &Document{Name: name}); err != nil {
			t.Fatalf("PutDocument %s: %v", name, err)
		}
	}

	docs, err := db.ListDocuments(ctx, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 3 || docs[0].Name != "a" || docs[2].Name != "c" {
		t.Errorf("ListDocuments = %+v", docs)
	}

	docs, _ = db.ListDocuments(ctx, 2)
	if len(docs) != 2 {
		t.Errorf("limited list len = %d, want 2", len(docs))
	}

	removed, err := db.DeleteDocument(ctx, "b")
	if err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if !removed {
		t.Error("expected removed = true")
	}
	removed, _ = db.DeleteDocument(ctx, "b")
	if removed {
		t.Error("second delete should report false")
	}
}
