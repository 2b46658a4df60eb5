// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapePagesTotal           *prometheus.CounterVec
	scrapeListingsTotal        *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	predictionsTotal           *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapePagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carprice_scrape_pages_total",
				Help: "Total number of listing pages processed, labeled by make and outcome.",
			},
			[]string{"make", "outcome"},
		)

		scrapeListingsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carprice_scrape_listings_total",
				Help: "Total number of listing records handled, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carprice_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "carprice_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		predictionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carprice_predictions_total",
				Help: "Total number of price predictions served, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage increments the page counter for the given make and outcome
// (fetched, fetch_error, parse_empty).
func ObservePage(make, outcome string) {
	scrapePagesTotal.WithLabelValues(make, outcome).Inc()
}

// ObserveListing increments the listing counter for the given outcome
// (inserted, duplicate, invalid).
func ObserveListing(outcome string) {
	scrapeListingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObservePrediction increments the prediction counter for the given outcome
// (ok, invalid_input, model_unavailable).
func ObservePrediction(outcome string) {
	predictionsTotal.WithLabelValues(outcome).Inc()
}
