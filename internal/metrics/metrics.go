// Package metrics exposes Prometheus counters for loading, recomputation,
// and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Recomputations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentrisk_recomputations_total",
		Help: "Derived dataset recomputations by region and dataset",
	}, []string{"region", "dataset"})
	RecomputeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentrisk_recompute_duration_seconds",
		Help:    "Time spent recomputing one derived dataset",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"dataset"})
	EmptyResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentrisk_empty_results_total",
		Help: "Recomputations that produced an empty dataset",
	}, []string{"dataset"})
	LoadedRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rentrisk_loaded_rows",
		Help: "Rows held in memory per region table",
	}, []string{"region", "table"})
	ActivePages = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rentrisk_active_pages",
		Help: "Region pages currently held by the server",
	})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentrisk_http_requests_total",
		Help: "HTTP requests by route pattern and status code",
	}, []string{"route", "code"})
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rentrisk_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(Recomputations)
	prometheus.MustRegister(RecomputeDuration)
	prometheus.MustRegister(EmptyResults)
	prometheus.MustRegister(LoadedRows)
	prometheus.MustRegister(ActivePages)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(RateLimited)
}

// ObserveRecompute records one dataset recomputation.
func ObserveRecompute(region, dataset string, elapsed time.Duration, empty bool) {
	Recomputations.WithLabelValues(region, dataset).Inc()
	RecomputeDuration.WithLabelValues(dataset).Observe(elapsed.Seconds())
	if empty {
		EmptyResults.WithLabelValues(dataset).Inc()
	}
}

// RecordLoad sets the loaded table sizes of a region.
func RecordLoad(region string, listings, incidents, boundaries int) {
	LoadedRows.WithLabelValues(region, "listings").Set(float64(listings))
	LoadedRows.WithLabelValues(region, "incidents").Set(float64(incidents))
	LoadedRows.WithLabelValues(region, "boundaries").Set(float64(boundaries))
}

// Handler serves the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
