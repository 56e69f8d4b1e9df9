// Package telemetry exposes Prometheus metrics for the HTTP surface, the
// exchange client and the persisted store. Everything is registered on the
// default registry and served from /metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "carechat",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method, path and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	exchangeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carechat",
		Subsystem: "exchange",
		Name:      "results_total",
		Help:      "Remote exchange outcomes (ok, timeout, unavailable, error).",
	}, []string{"outcome"})

	exchangeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carechat",
		Subsystem: "exchange",
		Name:      "duration_seconds",
		Help:      "Round-trip time of remote exchanges.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30},
	})

	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carechat",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Persisted store operations by op and outcome.",
	}, []string{"op", "outcome"})

	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "carechat",
		Name:      "sessions",
		Help:      "Number of sessions currently held by the registry.",
	})

	storeDiskBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "carechat",
		Subsystem: "store",
		Name:      "disk_bytes",
		Help:      "Best-effort on-disk size of the store database.",
	})
)

// ExchangeResult records one exchange outcome and its duration.
func ExchangeResult(outcome string, d time.Duration) {
	exchangeResults.WithLabelValues(outcome).Inc()
	exchangeDuration.Observe(d.Seconds())
}

// StoreOp records one persisted-store operation.
func StoreOp(op, outcome string) {
	storeOps.WithLabelValues(op, outcome).Inc()
}

// SetSessionCount updates the registry session gauge.
func SetSessionCount(n int) {
	sessionsGauge.Set(float64(n))
}

// SetStoreDiskBytes updates the store disk usage gauge.
func SetStoreDiskBytes(n uint64) {
	storeDiskBytes.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware wraps a handler and records request timing.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestDuration.
			WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
