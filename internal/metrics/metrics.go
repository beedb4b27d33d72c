// Package metrics exposes Prometheus instruments for batch runs. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "event_ingest"

// Metrics groups the pipeline instruments on a private registry
type Metrics struct {
	registry *prometheus.Registry

	fragments   *prometheus.CounterVec
	dateMatches *prometheus.CounterVec
	storeWrite  prometheus.Histogram
	storeRetry  prometheus.Counter
	lastRun     prometheus.Gauge
	runDuration prometheus.Summary
}

// New creates and registers the instruments
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Fragments processed by source and outcome",
		}, []string{"source", "outcome"}),
		dateMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_matcher_hits_total",
			Help:      "Date phrases decided by each matcher",
		}, []string{"matcher"}),
		storeWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_write_duration_seconds",
			Help:      "Time spent in a single store upsert",
			Buckets:   prometheus.DefBuckets,
		}),
		storeRetry: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Store writes retried after a failure",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last finished batch",
		}),
		runDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent on a whole batch",
		}),
	}

	m.registry.MustRegister(
		m.fragments, m.dateMatches, m.storeWrite,
		m.storeRetry, m.lastRun, m.runDuration,
	)
	return m
}

// Registry returns the registry holding the instruments
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Fragment counts one fragment outcome for a source
func (m *Metrics) Fragment(source, outcome string) {
	if m == nil {
		return
	}
	m.fragments.WithLabelValues(source, outcome).Inc()
}

// DateMatch counts the matcher that decided a date phrase
func (m *Metrics) DateMatch(matcher string) {
	if m == nil || matcher == "" {
		return
	}
	m.dateMatches.WithLabelValues(matcher).Inc()
}

// ObserveStoreWrite records the duration of one upsert attempt
func (m *Metrics) ObserveStoreWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.storeWrite.Observe(d.Seconds())
}

// StoreRetry counts a retried store write
func (m *Metrics) StoreRetry() {
	if m == nil {
		return
	}
	m.storeRetry.Inc()
}

// RunFinished records the end of a batch
func (m *Metrics) RunFinished(finished time.Time, took time.Duration) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(finished.Unix()))
	m.runDuration.Observe(took.Seconds())
}

// Handler serves /metrics and /healthz
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Server is the HTTP endpoint for scraping
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server on addr
func NewServer(addr string, m *Metrics) *Server {
	return &Server{server: &http.Server{
		Addr:         addr,
		Handler:      m.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

// Serve blocks until the server stops. http.ErrServerClosed is reported as nil.
func (s *Server) Serve() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
