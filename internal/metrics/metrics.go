// Package metrics holds the Prometheus collectors for docrank.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcomes for LearnRecords.
const (
	OutcomeAccepted    = "accepted"
	OutcomeMalformed   = "skipped_malformed"
	OutcomeNonPositive = "skipped_nonpositive"
)

var (
	LearnBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docrank_learn_batches_total",
			Help: "Learning batches committed",
		},
	)

	LearnRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrank_learn_records_total",
			Help: "Result records seen by learn, by outcome",
		},
		[]string{"outcome"},
	)

	RelationBumps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docrank_relation_bumps_total",
			Help: "Directed relation increments written",
		},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docrank_recommend_duration_seconds",
			Help:    "Time spent producing a recommendation list",
			Buckets: prometheus.DefBuckets,
		},
	)

	DanglingReferences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docrank_dangling_references_total",
			Help: "Ranked identifiers that no longer resolve to a document",
		},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrank_storage_errors_total",
			Help: "Aborted learn or recommend transactions",
		},
		[]string{"operation"},
	)
)
