package engine

import (
	"math"
	"strings"
)

// Document is anything with a stable identifier. Scores and relations are
// keyed by that identifier.
type Document interface {
	Identifier() string
}

// Ref is a bare document identifier, used when the producer only knows names.
type Ref string

func (r Ref) Identifier() string { return string(r) }

// Input is a ranked batch of results in one of the shapes a producer may
// emit: ResultList, Records or Pairs.
type Input interface {
	observations() (obs []observation, malformed int)
}

// Result is one ranked record. A nil Score counts as 0.
type Result struct {
	Document Document
	Score    *float64
}

// Scored builds a Result with an explicit score.
func Scored(doc Document, score float64) Result {
	return Result{Document: doc, Score: &score}
}

// ResultList is a result object carrying its records in Items.
type ResultList struct {
	Items []Result
}

// Records is a bare ordered list of result records.
type Records []Result

// Pair is a pre-paired (document, raw score) entry.
type Pair struct {
	Document Document
	Score    float64
}

// Pairs is an ordered list of pre-paired entries.
type Pairs []Pair

// observation is one usable entry, keeping the producer's 1-based rank.
type observation struct {
	name string
	raw  float64
	rank int
}

func (l ResultList) observations() ([]observation, int) {
	return Records(l.Items).observations()
}

func (rs Records) observations() ([]observation, int) {
	obs := make([]observation, 0, len(rs))
	malformed := 0
	for i, r := range rs {
		raw := 0.0
		if r.Score != nil {
			raw = *r.Score
		}
		o, ok := observe(r.Document, raw, i+1)
		if !ok {
			malformed++
			continue
		}
		obs = append(obs, o)
	}
	return obs, malformed
}

func (ps Pairs) observations() ([]observation, int) {
	obs := make([]observation, 0, len(ps))
	malformed := 0
	for i, p := range ps {
		o, ok := observe(p.Document, p.Score, i+1)
		if !ok {
			malformed++
			continue
		}
		obs = append(obs, o)
	}
	return obs, malformed
}

// observe resolves one record. Records without a usable identifier or with
// a non-finite score are malformed and reported with ok == false.
func observe(doc Document, raw float64, rank int) (observation, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return observation{}, false
	}
	name, ok := identify(doc)
	if !ok {
		return observation{}, false
	}
	return observation{name: name, raw: raw, rank: rank}, true
}

// identify returns the document's identifier. A nil document, including a
// nil pointer behind a non-nil interface, is unresolvable.
func identify(doc Document) (name string, ok bool) {
	if doc == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			name, ok = "", false
		}
	}()
	name = doc.Identifier()
	return name, strings.TrimSpace(name) != ""
}
