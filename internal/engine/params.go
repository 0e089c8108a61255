package engine

import (
	"fmt"
	"math"

	"github.com/lazypower/docrank/internal/config"
	"github.com/lazypower/docrank/internal/store"
)

// Params are the scoring model's tunables.
type Params struct {
	// DecayFactor multiplies every stored score once per Learn call.
	DecayFactor float64
	// ScoreWeight scales the caller's raw score before it is averaged
	// with the position weight.
	ScoreWeight float64
	// RelationIncrement is added to both directions of every co-occurring pair.
	RelationIncrement float64

	// OverFetch * topN candidates are read before relation boosting.
	OverFetch      int
	SeedCount      int
	RelatedPerSeed int

	RecencyWeight   float64
	FrequencyWeight float64

	// BoostFactor is the share of a seed's value passed to a related document.
	BoostFactor float64
	// BoostThreshold: a related document already valued at or above
	// BoostThreshold * seed value is not boosted by that seed.
	BoostThreshold float64
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return ParamsFrom(config.Default().Ranking)
}

// ParamsFrom converts the ranking section of the config.
func ParamsFrom(rc config.RankingConfig) Params {
	return Params{
		DecayFactor:       rc.DecayFactor,
		ScoreWeight:       rc.ScoreWeight,
		RelationIncrement: rc.RelationIncrement,
		OverFetch:         rc.OverFetch,
		SeedCount:         rc.SeedCount,
		RelatedPerSeed:    rc.RelatedPerSeed,
		RecencyWeight:     rc.RecencyWeight,
		FrequencyWeight:   rc.FrequencyWeight,
		BoostFactor:       rc.BoostFactor,
		BoostThreshold:    rc.BoostThreshold,
	}
}

func (p Params) validate() error {
	if p.DecayFactor <= 0 || p.DecayFactor >= 1 || math.IsNaN(p.DecayFactor) {
		return fmt.Errorf("decay factor %v must be in (0,1)", p.DecayFactor)
	}
	if p.OverFetch < 1 {
		return fmt.Errorf("over fetch %d must be at least 1", p.OverFetch)
	}
	if p.SeedCount < 0 || p.RelatedPerSeed < 0 {
		return fmt.Errorf("seed count and related per seed must not be negative")
	}
	return nil
}

// delta is the contribution of a result at 1-based rank with the given raw
// score: the mean of 1/sqrt(rank) and the weighted raw score.
func (p Params) delta(rank int, raw float64) float64 {
	position := 1 / math.Sqrt(float64(rank))
	return (position + raw*p.ScoreWeight) / 2
}

// blend combines a stored entry into its direct ranking value.
func (p Params) blend(e store.ScoreEntry) float64 {
	recency := 1 + e.LastScore*p.RecencyWeight
	frequency := 1 + math.Log(float64(e.ViewCount)+1)*p.FrequencyWeight
	return e.Score * recency * frequency
}
