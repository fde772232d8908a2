// Package metrics provides Prometheus metrics for catalog fetches, response
// decoding and favorites mutations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeCached   = "cached"
	OutcomeConflict = "conflict"
	OutcomeNoop     = "noop"
)

var (
	// CatalogFetchTotal counts remote catalog requests by endpoint and outcome.
	CatalogFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popularmovies_catalog_fetch_total",
		Help: "Total number of remote catalog fetches, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// CatalogFetchDuration observes remote catalog latency by endpoint.
	CatalogFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "popularmovies_catalog_fetch_duration_seconds",
		Help:    "Latency of remote catalog fetches, by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// DecodeTotal counts decoded responses by kind and outcome.
	DecodeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popularmovies_decode_total",
		Help: "Total number of decoded API responses, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// FavoritesOpsTotal counts favorites store mutations by driver, op and outcome.
	FavoritesOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popularmovies_favorites_ops_total",
		Help: "Total number of favorites store mutations, by driver, operation and outcome.",
	}, []string{"driver", "op", "outcome"})

	// ListLoadsTotal counts list controller loads by mode and resulting state.
	ListLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popularmovies_list_loads_total",
		Help: "Total number of list loads, by mode and resulting state.",
	}, []string{"mode", "state"})

	// SupersededLoadsTotal counts results discarded because a newer load started.
	SupersededLoadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "popularmovies_list_loads_superseded_total",
		Help: "Total number of list load results discarded as stale.",
	})
)

// RecordFetch records one remote fetch.
func RecordFetch(endpoint, outcome string, seconds float64) {
	CatalogFetchTotal.WithLabelValues(endpoint, outcome).Inc()
	if outcome != OutcomeCached {
		CatalogFetchDuration.WithLabelValues(endpoint).Observe(seconds)
	}
}

// RecordDecode records one decode attempt.
func RecordDecode(kind, outcome string) {
	DecodeTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordFavoriteOp records one favorites mutation.
func RecordFavoriteOp(driver, op, outcome string) {
	FavoritesOpsTotal.WithLabelValues(driver, op, outcome).Inc()
}

// RecordListLoad records a completed list load.
func RecordListLoad(mode, state string) {
	ListLoadsTotal.WithLabelValues(mode, state).Inc()
}

// RecordSuperseded records a discarded stale load.
func RecordSuperseded() {
	SupersededLoadsTotal.Inc()
}
