package engine

import (
	"context"
	"math"
	"testing"

	"github.com/lazypower/docrank/internal/store"
)

func memEngine(t *testing.T, m *memStore, dir Directory) *Engine {
	t.Helper()
	eng, err := New(m, dir, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func findCandidate(ranked []Candidate, name string) (Candidate, bool) {
	for _, c := range ranked {
		if c.Name == name {
			return c, true
		}
	}
	return Candidate{}, false
}

func TestBlend(t *testing.T) {
	p := DefaultParams()
	e := store.ScoreEntry{Score: 2, LastScore: 0.5, ViewCount: 3}
	want := 2 * (1 + 0.5*0.3) * (1 + math.Log(4)*0.2)
	if got := p.blend(e); math.Abs(got-want) > eps {
		t.Errorf("blend = %v, want %v", got, want)
	}

	// Zero views and zero last score leave the score untouched
	if got := p.blend(store.ScoreEntry{Score: 10}); got != 10 {
		t.Errorf("blend = %v, want 10", got)
	}
}

func TestDeltaPositionWeight(t *testing.T) {
	p := DefaultParams()
	if got := p.delta(1, 0); got != 0.5 {
		t.Errorf("delta(1, 0) = %v, want 0.5", got)
	}
	if got := p.delta(4, 0); got != 0.25 {
		t.Errorf("delta(4, 0) = %v, want 0.25", got)
	}
	if got := p.delta(1, 1); got != 1.5 {
		t.Errorf("delta(1, 1) = %v, want 1.5", got)
	}
}

func TestRankBoostsAbsentRelated(t *testing.T) {
	m := newMemStore()
	m.setScore("S", 10, 0, 0)
	m.BumpRelation(context.Background(), "S", "R", 0.2)

	eng := memEngine(t, m, mapDirectory{})
	ranked, err := eng.Rank(context.Background(), 3)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	r, ok := findCandidate(ranked, "R")
	if !ok {
		t.Fatalf("R missing from ranking %+v", ranked)
	}
	if math.Abs(r.Value-0.6) > eps {
		t.Errorf("R.Value = %v, want 0.6", r.Value)
	}
	if r.Direct != 0 || math.Abs(r.Boost-0.6) > eps {
		t.Errorf("R parts = direct %v boost %v", r.Direct, r.Boost)
	}
	if ranked[0].Name != "S" || ranked[0].Value != 10 {
		t.Errorf("ranked[0] = %+v, want S at 10", ranked[0])
	}
}

func TestRankBoostThreshold(t *testing.T) {
	m := newMemStore()
	m.setScore("S", 10, 0, 0)
	m.setScore("strong", 6, 0, 0) // >= 0.5 * 10, not boosted
	m.setScore("weak", 4, 0, 0)   // < 0.5 * 10, boosted
	ctx := context.Background()
	m.BumpRelation(ctx, "S", "strong", 0.2)
	m.BumpRelation(ctx, "S", "weak", 0.2)

	eng := memEngine(t, m, mapDirectory{})
	ranked, err := eng.Rank(ctx, 3)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	strong, _ := findCandidate(ranked, "strong")
	if strong.Value != 6 || strong.Boost != 0 {
		t.Errorf("strong = %+v, want unboosted 6", strong)
	}
	weak, _ := findCandidate(ranked, "weak")
	if math.Abs(weak.Value-4.6) > eps {
		t.Errorf("weak.Value = %v, want 4.6", weak.Value)
	}
}

func TestRankOnlyTopSeedsPropagate(t *testing.T) {
	m := newMemStore()
	ctx := context.Background()
	m.setScore("s1", 10, 0, 0)
	m.setScore("s2", 9, 0, 0)
	m.setScore("s3", 8, 0, 0)
	m.setScore("s4", 7, 0, 0)
	m.BumpRelation(ctx, "s4", "hidden", 1.0)
	m.BumpRelation(ctx, "s3", "shown", 1.0)

	eng := memEngine(t, m, mapDirectory{})
	ranked, err := eng.Rank(ctx, 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if _, ok := findCandidate(ranked, "hidden"); ok {
		t.Error("relation of fourth candidate should not propagate")
	}
	shown, ok := findCandidate(ranked, "shown")
	if !ok {
		t.Fatal("relation of third seed should propagate")
	}
	if math.Abs(shown.Value-8*0.3) > eps {
		t.Errorf("shown.Value = %v, want 2.4", shown.Value)
	}
}

func TestRankOverFetch(t *testing.T) {
	m := newMemStore()
	for i := 0; i < 20; i++ {
		m.setScore(string(rune('a'+i)), float64(20-i), 0, 0)
	}

	eng := memEngine(t, m, mapDirectory{})
	ranked, err := eng.Rank(context.Background(), 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 10 {
		t.Errorf("len(ranked) = %d, want 5*2 = 10", len(ranked))
	}
}

func TestRankTieBreakByName(t *testing.T) {
	m := newMemStore()
	m.setScore("zeta", 1, 0, 0)
	m.setScore("alpha", 1, 0, 0)
	m.setScore("mid", 1, 0, 0)

	eng := memEngine(t, m, mapDirectory{})
	ranked, _ := eng.Rank(context.Background(), 3)
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if ranked[i].Name != name {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Name, name)
		}
	}
}

func TestRankExcludesNonPositive(t *testing.T) {
	m := newMemStore()
	m.setScore("pos", 1, 0, 0)
	m.setScore("zero", 0, 0, 0)
	m.setScore("neg", -1, 0, 0)

	eng := memEngine(t, m, mapDirectory{})
	ranked, _ := eng.Rank(context.Background(), 5)
	if len(ranked) != 1 || ranked[0].Name != "pos" {
		t.Errorf("ranked = %+v, want only pos", ranked)
	}
}

func TestRecommendSurfacesRelatedDocument(t *testing.T) {
	m := newMemStore()
	ctx := context.Background()
	m.setScore("S", 10, 0, 0)
	m.BumpRelation(ctx, "S", "R", 0.2)

	dir := mapDirectory{"S": Ref("S"), "R": Ref("R")}
	eng := memEngine(t, m, dir)

	docs, err := eng.Recommend(ctx, 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(docs) != 2 || docs[0].Identifier() != "S" || docs[1].Identifier() != "R" {
		t.Errorf("docs = %v, want [S R]", docs)
	}
}

func TestLearnThenRecommendUsesRelations(t *testing.T) {
	db := testDB(t)
	eng := testEngine(t, db)
	ctx := context.Background()

	for _, name := range []string{"top", "buddy", "other"} {
		db.PutDocument(ctx, &store.Document{Name: name})
	}

	// "buddy" co-occurs with "top" repeatedly but scores nothing itself
	for i := 0; i < 5; i++ {
		eng.Learn(ctx, ResultList{Items: []Result{Scored(Ref("top"), 1.0), Scored(Ref("buddy"), -0.4)}})
	}
	eng.Learn(ctx, Pairs{{Ref("other"), 0.1}})

	ranked, err := eng.Rank(ctx, 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if _, ok := findCandidate(ranked, "buddy"); ok {
		t.Error("buddy was never accepted, so it has no relation and no score")
	}

	// Accepted co-occurrence builds a relation that boosts the partner
	for i := 0; i < 5; i++ {
		eng.Learn(ctx, Pairs{{Ref("top"), 1.0}, {Ref("buddy"), 0.0}})
	}
	s := mustStrength(t, db, "top", "buddy")
	if math.Abs(s-0.5) > 1e-6 {
		t.Errorf("top->buddy = %v, want 0.5", s)
	}
	ranked, _ = eng.Rank(ctx, 2)
	buddy, ok := findCandidate(ranked, "buddy")
	if !ok {
		t.Fatal("buddy missing from ranking")
	}
	if buddy.Boost <= 0 {
		t.Errorf("buddy = %+v, want a relation boost", buddy)
	}
}
