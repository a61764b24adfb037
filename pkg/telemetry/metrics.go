package telemetry

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics provides Prometheus metrics for ingestion and validation. A
// disabled or nil Metrics accepts every call and records nothing.
type Metrics struct {
	config MetricsConfig

	filesScanned *prometheus.CounterVec
	pointsMerged prometheus.Counter
	ingestErrors *prometheus.CounterVec

	validationRuns     *prometheus.CounterVec
	validationDuration prometheus.Histogram
	flaggedPoints      *prometheus.GaugeVec
	fieldSeverities    *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		config:   cfg,
		registry: registry,

		filesScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_files_total",
				Help:      "Total number of input files read, by kind",
			},
			[]string{"kind"},
		),
		pointsMerged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "points_merged_total",
				Help:      "Total number of points created by merges",
			},
		),
		ingestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_errors_total",
				Help:      "Total number of failed ingestions, by error class",
			},
			[]string{"class"},
		),
		validationRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_runs_total",
				Help:      "Total number of validation runs",
			},
			[]string{"status"},
		),
		validationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of validation runs in seconds",
				Buckets:   buckets,
			},
		),
		flaggedPoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "flagged_points",
				Help:      "Points flagged by the latest run, by rule",
			},
			[]string{"rule"},
		),
		fieldSeverities: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "diagnostics",
				Help:      "Annotated fields of the latest run, by rule and severity",
			},
			[]string{"rule", "severity"},
		),
	}

	registry.MustRegister(
		m.filesScanned,
		m.pointsMerged,
		m.ingestErrors,
		m.validationRuns,
		m.validationDuration,
		m.flaggedPoints,
		m.fieldSeverities,
	)
	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// RecordFileScanned counts one input file of the given kind.
func (m *Metrics) RecordFileScanned(kind string) {
	if !m.enabled() {
		return
	}
	m.filesScanned.WithLabelValues(kind).Inc()
}

// RecordPointsMerged adds newly created points.
func (m *Metrics) RecordPointsMerged(n int) {
	if !m.enabled() {
		return
	}
	m.pointsMerged.Add(float64(n))
}

// RecordIngestError counts a failed ingestion.
func (m *Metrics) RecordIngestError(class string) {
	if !m.enabled() {
		return
	}
	m.ingestErrors.WithLabelValues(class).Inc()
}

// RecordValidationRun records a completed run.
func (m *Metrics) RecordValidationRun(status string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.validationRuns.WithLabelValues(status).Inc()
	m.validationDuration.Observe(duration.Seconds())
}

// SetFlaggedPoints sets the number of points a rule flagged.
func (m *Metrics) SetFlaggedPoints(rule string, count int) {
	if !m.enabled() {
		return
	}
	m.flaggedPoints.WithLabelValues(rule).Set(float64(count))
}

// SetFieldSeverities sets the number of fields a rule annotated with a
// severity.
func (m *Metrics) SetFieldSeverities(rule, severity string, count int) {
	if !m.enabled() {
		return
	}
	m.fieldSeverities.WithLabelValues(rule, severity).Set(float64(count))
}

// Registry exposes the registry, nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves the metrics endpoint in the background. The
// returned server is nil when metrics are disabled.
func (m *Metrics) StartMetricsServer(logger zerolog.Logger) (*http.Server, error) {
	if !m.enabled() {
		return nil, nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	listener, err := net.Listen("tcp", m.config.ListenAddress)
	if err != nil {
		return nil, err
	}
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	logger.Info().Str("address", listener.Addr().String()).Str("path", path).Msg("Serving metrics")
	return server, nil
}
