package engine

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/lazypower/docrank/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEngine(t *testing.T, db *store.DB) *Engine {
	t.Helper()
	eng, err := New(db, StoreDirectory{DB: db}, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

// memStore is an in-memory store.Transactor for ranking tests that need
// exact stored values.
type memStore struct {
	scores map[string]store.ScoreEntry
	rels   map[string][]store.Relation
}

func newMemStore() *memStore {
	return &memStore{
		scores: make(map[string]store.ScoreEntry),
		rels:   make(map[string][]store.Relation),
	}
}

func (m *memStore) setScore(name string, score, last float64, views int) {
	m.scores[name] = store.ScoreEntry{Name: name, Score: score, LastScore: last, ViewCount: views}
}

func (m *memStore) Update(ctx context.Context, fn func(store.Stores) error) error { return fn(m) }
func (m *memStore) View(ctx context.Context, fn func(store.Stores) error) error   { return fn(m) }

func (m *memStore) DecayScores(ctx context.Context, factor float64) (int64, error) {
	for k, e := range m.scores {
		e.Score *= factor
		m.scores[k] = e
	}
	return int64(len(m.scores)), nil
}

func (m *memStore) UpsertScore(ctx context.Context, name string, delta, raw float64) error {
	e := m.scores[name]
	e.Name = name
	e.Score += delta
	e.ViewCount++
	e.LastScore = raw
	m.scores[name] = e
	return nil
}

func (m *memStore) TopScores(ctx context.Context, limit int, minScore float64) ([]store.ScoreEntry, error) {
	var out []store.ScoreEntry
	for _, e := range m.scores {
		if e.Score > minScore {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) BumpRelation(ctx context.Context, from, to string, amount float64) error {
	for i, r := range m.rels[from] {
		if r.To == to {
			m.rels[from][i].Strength += amount
			return nil
		}
	}
	m.rels[from] = append(m.rels[from], store.Relation{From: from, To: to, Strength: amount})
	return nil
}

func (m *memStore) TopRelated(ctx context.Context, name string, limit int) ([]store.Relation, error) {
	out := append([]store.Relation(nil), m.rels[name]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].To < out[j].To
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mapDirectory resolves names present in the map.
type mapDirectory map[string]Document

func (d mapDirectory) Lookup(ctx context.Context, name string) (Document, error) {
	doc, ok := d[name]
	if !ok {
		return nil, nil
	}
	return doc, nil
}

var errInjected = errors.New("injected storage failure")

// failingTransactor runs real transactions but fails every relation bump,
// so a Learn call aborts after its decay and upserts.
type failingTransactor struct {
	db *store.DB
}

func (f failingTransactor) Update(ctx context.Context, fn func(store.Stores) error) error {
	return f.db.Update(ctx, func(s store.Stores) error {
		return fn(failingStores{Stores: s})
	})
}

func (f failingTransactor) View(ctx context.Context, fn func(store.Stores) error) error {
	return f.db.View(ctx, func(s store.Stores) error {
		return fn(failingStores{Stores: s})
	})
}

type failingStores struct {
	store.Stores
}

func (failingStores) BumpRelation(ctx context.Context, from, to string, amount float64) error {
	return errInjected
}

func (failingStores) TopRelated(ctx context.Context, name string, limit int) ([]store.Relation, error) {
	return nil, errInjected
}
