// Package telemetry wires the search's Prometheus metrics, following the
// counter/histogram/gauge layout of the structured-logging example: one
// registry per Metrics set, one metric per observable event, exposed over
// /metrics when a listen address is configured.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the search's Prometheus instruments.
type Metrics struct {
	IsoTestsTotal   prometheus.Counter
	OracleDuration  prometheus.Histogram
	QueueDepth      prometheus.Gauge
	NodesVisited    prometheus.Counter
	BestMaxPC       prometheus.Gauge
	SubtreesSkipped prometheus.Counter
	registry        *prometheus.Registry
}

// New builds a fresh, independently-registered Metrics set. Using a
// private registry rather than the global default keeps repeated test
// construction from panicking on duplicate registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		IsoTestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isoalign_iso_tests_total",
			Help: "Total number of isotactic-decision oracle invocations.",
		}),
		OracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "isoalign_oracle_duration_seconds",
			Help:    "Duration of individual oracle calls.",
			Buckets: prometheus.DefBuckets,
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isoalign_queue_depth",
			Help: "Current number of pending jobs in the search queue.",
		}),
		NodesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isoalign_nodes_visited_total",
			Help: "Total number of lattice nodes dequeued and processed.",
		}),
		BestMaxPC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isoalign_best_max_pc",
			Help: "Current best known max(permissiveness, complexity) bound.",
		}),
		SubtreesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isoalign_subtrees_skipped_total",
			Help: "Total number of lattice subtrees pruned by the permissiveness bound.",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.IsoTestsTotal,
		m.OracleDuration,
		m.QueueDepth,
		m.NodesVisited,
		m.BestMaxPC,
		m.SubtreesSkipped,
	)

	return m
}

// ObserveOracleCall records one oracle invocation's wall-clock duration.
func (m *Metrics) ObserveOracleCall(d time.Duration) {
	m.IsoTestsTotal.Inc()
	m.OracleDuration.Observe(d.Seconds())
}

// Handler returns the /metrics HTTP handler for this Metrics set's
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing Handler at addr, returning once ctx
// is canceled or the server fails to start.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
