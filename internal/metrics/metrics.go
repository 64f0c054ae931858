// Package metrics exposes Prometheus collectors for the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// requestsTotal counts requests by route and status code
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcsuite_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "status"})

	// requestDuration tracks handler latency
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calcsuite_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"route"})

	// taxCalculations counts tax results by applied jurisdiction
	taxCalculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcsuite_tax_calculations_total",
		Help: "Tax calculations by applied jurisdiction and whether the fallback table was used",
	}, []string{"jurisdiction", "fallback"})

	// scoresRecorded counts accepted score submissions
	scoresRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcsuite_scores_recorded_total",
		Help: "Accepted score submissions by game",
	}, []string{"game"})

	// rateLimited counts rejected requests by limiter
	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcsuite_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"limiter"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTax records one tax calculation.
func ObserveTax(jurisdiction string, fallback bool) {
	taxCalculations.WithLabelValues(jurisdiction, strconv.FormatBool(fallback)).Inc()
}

// ObserveScore records one accepted score.
func ObserveScore(game string) {
	scoresRecorded.WithLabelValues(game).Inc()
}

// ObserveRateLimited records one rejected request.
func ObserveRateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument wraps next with request counting and latency tracking under
// route.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
