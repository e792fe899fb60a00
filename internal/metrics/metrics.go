package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keyword_rotator"

var (
	rotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Rotation runs by outcome (existing, rotated, empty, error)",
		},
		[]string{"outcome"},
	)

	keywordsSelectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keywords_selected_total",
			Help:      "Keywords marked used by rotation",
		},
	)

	backfillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfills_total",
			Help:      "Pool back-fill runs by outcome (ok, empty, error)",
		},
		[]string{"outcome"},
	)

	keywordsSeededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keywords_seeded_total",
			Help:      "Keywords written to the pool by seeding",
		},
	)

	jobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Queue jobs processed by type and outcome (ack, retry, dead)",
		},
		[]string{"type", "outcome"},
	)

	dlqPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dlq_purged_total",
			Help:      "Dead-lettered jobs removed after their retention expired",
		},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRotation counts one rotation run and the keywords it selected
func RecordRotation(outcome string, selected int) {
	rotationsTotal.WithLabelValues(outcome).Inc()
	if selected > 0 {
		keywordsSelectedTotal.Add(float64(selected))
	}
}

// RecordBackfill counts one back-fill run
func RecordBackfill(outcome string) {
	backfillsTotal.WithLabelValues(outcome).Inc()
}

// RecordSeeded adds n to the seeded keyword counter
func RecordSeeded(n int) {
	if n > 0 {
		keywordsSeededTotal.Add(float64(n))
	}
}

// RecordJob counts one processed queue job
func RecordJob(jobType, outcome string) {
	jobsProcessedTotal.WithLabelValues(jobType, outcome).Inc()
}

// RecordDLQPurged adds n to the purged dead-letter counter
func RecordDLQPurged(n int) {
	if n > 0 {
		dlqPurgedTotal.Add(float64(n))
	}
}

// RegisterDBStats exports connection pool statistics for db
func RegisterDBStats(db *sql.DB, dbName string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency labelled by the matched route template
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
