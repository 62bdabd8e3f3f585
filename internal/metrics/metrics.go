package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MatchQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwhere_match_queries_total",
		Help: "Nearby searches by outcome (ok, empty, no_location, error)",
	}, []string{"outcome"})
	MatchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "parkwhere_match_duration_ms",
		Help:    "Nearby search duration in milliseconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 250},
	})

	IndexRebuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwhere_index_rebuilds_total",
		Help: "Spatial index rebuilds by result (success, failure)",
	}, []string{"result"})
	IndexRebuildDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "parkwhere_index_rebuild_duration_ms",
		Help:    "Spatial index rebuild duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 250, 500, 1000, 5000},
	})
	IndexedSpots = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parkwhere_indexed_spots",
		Help: "Active spots in the current index generation",
	})

	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwhere_import_rows_total",
		Help: "Import rows by verdict (accepted, rejected)",
	}, []string{"verdict"})
	ImportBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwhere_import_batches_total",
		Help: "Import batches by result (committed, store_error)",
	}, []string{"result"})

	AvailabilityUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwhere_availability_updates_total",
		Help: "Availability updates by result (applied, unknown_spot, lot_type_mismatch, stale, invalid, error)",
	}, []string{"result"})

	FeedFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwhere_feed_fetches_total",
		Help: "Availability feed fetches by result (success, failure)",
	}, []string{"result"})
	FeedFetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "parkwhere_feed_fetch_duration_ms",
		Help:    "Availability feed fetch duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
	})

	TrackerFixesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwhere_tracker_fixes_total",
		Help: "Location fixes by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(MatchQueriesTotal)
	prometheus.MustRegister(MatchDurationMs)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(IndexRebuildDurationMs)
	prometheus.MustRegister(IndexedSpots)
	prometheus.MustRegister(ImportRowsTotal)
	prometheus.MustRegister(ImportBatchesTotal)
	prometheus.MustRegister(AvailabilityUpdatesTotal)
	prometheus.MustRegister(FeedFetchesTotal)
	prometheus.MustRegister(FeedFetchDurationMs)
	prometheus.MustRegister(TrackerFixesTotal)
}

// Handler exposes every registered collector in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
