package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lazypower/docrank/internal/logging"
	"github.com/lazypower/docrank/internal/metrics"
	"github.com/lazypower/docrank/internal/store"
)

// Engine learns from ranked result batches and serves recommendations.
// It keeps no state between calls; every call reads and writes the store.
type Engine struct {
	Store     store.Transactor
	Directory Directory
	params    Params
	log       zerolog.Logger
}

// LearnStats summarizes one Learn call.
type LearnStats struct {
	Accepted    int   `json:"accepted"`
	Malformed   int   `json:"malformed"`
	NonPositive int   `json:"non_positive"`
	Decayed     int64 `json:"decayed"`
	Relations   int   `json:"relations"`
}

// Candidate is a ranked identifier with the parts of its value.
type Candidate struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Direct float64 `json:"direct"`
	Boost  float64 `json:"boost"`
}

// New creates an Engine over the given store and document directory.
func New(tx store.Transactor, dir Directory, params Params) (*Engine, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("engine params: %w", err)
	}
	return &Engine{
		Store:     tx,
		Directory: dir,
		params:    params,
		log:       logging.Component("engine"),
	}, nil
}

// Params returns the engine's tuning.
func (e *Engine) Params() Params {
	return e.params
}

// Learn folds a ranked batch into the stored scores and relations.
//
// All existing scores decay once, each usable record adds its contribution,
// and every pair of distinct accepted documents gains relation strength in
// both directions. The whole batch is one transaction. Malformed records are
// skipped and counted; only storage failures are returned. A batch with at
// least one entry always decays, even if every entry turns out malformed.
func (e *Engine) Learn(ctx context.Context, in Input) (LearnStats, error) {
	var stats LearnStats
	if in == nil {
		return stats, nil
	}

	obs, malformed := in.observations()
	stats.Malformed = malformed
	if malformed > 0 {
		metrics.LearnRecords.WithLabelValues(metrics.OutcomeMalformed).Add(float64(malformed))
		e.log.Debug().Int("malformed", malformed).Msg("skipped malformed records")
	}
	if len(obs)+malformed == 0 {
		return stats, nil
	}

	err := e.Store.Update(ctx, func(s store.Stores) error {
		decayed, err := s.DecayScores(ctx, e.params.DecayFactor)
		if err != nil {
			return err
		}
		stats.Decayed = decayed

		var accepted []string
		seen := make(map[string]bool, len(obs))
		for _, o := range obs {
			delta := e.params.delta(o.rank, o.raw)
			if !(delta > 0) {
				stats.NonPositive++
				continue
			}
			if err := s.UpsertScore(ctx, o.name, delta, o.raw); err != nil {
				return err
			}
			stats.Accepted++
			if !seen[o.name] {
				seen[o.name] = true
				accepted = append(accepted, o.name)
			}
		}

		for i := 0; i < len(accepted); i++ {
			for j := i + 1; j < len(accepted); j++ {
				if err := s.BumpRelation(ctx, accepted[i], accepted[j], e.params.RelationIncrement); err != nil {
					return err
				}
				if err := s.BumpRelation(ctx, accepted[j], accepted[i], e.params.RelationIncrement); err != nil {
					return err
				}
				stats.Relations += 2
			}
		}
		return nil
	})
	if err != nil {
		metrics.StorageErrors.WithLabelValues("learn").Inc()
		e.log.Error().Err(err).Int("records", len(obs)).Msg("learn rolled back")
		return LearnStats{Malformed: malformed}, fmt.Errorf("learn: %w", err)
	}

	metrics.LearnBatches.Inc()
	metrics.LearnRecords.WithLabelValues(metrics.OutcomeAccepted).Add(float64(stats.Accepted))
	metrics.LearnRecords.WithLabelValues(metrics.OutcomeNonPositive).Add(float64(stats.NonPositive))
	metrics.RelationBumps.Add(float64(stats.Relations))

	e.log.Debug().
		Int("accepted", stats.Accepted).
		Int("malformed", stats.Malformed).
		Int("non_positive", stats.NonPositive).
		Int("relations", stats.Relations).
		Msg("learned batch")
	return stats, nil
}

// Rank returns the blended candidate ranking for a request of topN results:
// OverFetch*topN direct candidates plus any documents surfaced by relation
// boosting, highest value first. The list is not truncated to topN.
func (e *Engine) Rank(ctx context.Context, topN int) ([]Candidate, error) {
	if topN <= 0 {
		return nil, nil
	}

	var ranked []Candidate
	err := e.Store.View(ctx, func(s store.Stores) error {
		entries, err := s.TopScores(ctx, e.fetchLimit(topN), 0)
		if err != nil {
			return err
		}

		values := make(map[string]*Candidate, len(entries))
		for _, entry := range entries {
			v := e.params.blend(entry)
			values[entry.Name] = &Candidate{Name: entry.Name, Value: v, Direct: v}
		}

		seeds := sortCandidates(values)
		if len(seeds) > e.params.SeedCount {
			seeds = seeds[:e.params.SeedCount]
		}

		for _, seed := range seeds {
			related, err := s.TopRelated(ctx, seed.Name, e.params.RelatedPerSeed)
			if err != nil {
				return err
			}
			for _, rel := range related {
				c, ok := values[rel.To]
				if ok && c.Value >= seed.Value*e.params.BoostThreshold {
					continue
				}
				if !ok {
					c = &Candidate{Name: rel.To}
					values[rel.To] = c
				}
				boost := rel.Strength * seed.Value * e.params.BoostFactor
				c.Value += boost
				c.Boost += boost
			}
		}

		ranked = sortCandidates(values)
		return nil
	})
	if err != nil {
		metrics.StorageErrors.WithLabelValues("rank").Inc()
		return nil, fmt.Errorf("rank: %w", err)
	}
	return ranked, nil
}

// Recommend returns up to topN documents in ranked order. Identifiers that
// no longer resolve to a document are skipped.
func (e *Engine) Recommend(ctx context.Context, topN int) ([]Document, error) {
	if topN <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RecommendDuration.Observe(time.Since(start).Seconds()) }()

	ranked, err := e.Rank(ctx, topN)
	if err != nil {
		e.log.Error().Err(err).Int("top_n", topN).Msg("recommend failed")
		return nil, err
	}

	docs := make([]Document, 0, min(topN, len(ranked)))
	for _, c := range ranked {
		if len(docs) >= topN {
			break
		}
		doc, err := e.Directory.Lookup(ctx, c.Name)
		if err != nil {
			e.log.Warn().Err(err).Str("name", c.Name).Msg("lookup failed, skipping")
			metrics.DanglingReferences.Inc()
			continue
		}
		if doc == nil {
			e.log.Debug().Str("name", c.Name).Msg("dangling reference, skipping")
			metrics.DanglingReferences.Inc()
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// fetchLimit is OverFetch*topN, saturating instead of overflowing.
func (e *Engine) fetchLimit(topN int) int {
	if topN > math.MaxInt/e.params.OverFetch {
		return math.MaxInt
	}
	return topN * e.params.OverFetch
}

// sortCandidates orders by value descending, then name ascending.
func sortCandidates(values map[string]*Candidate) []Candidate {
	out := make([]Candidate, 0, len(values))
	for _, c := range values {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}
