// Package metrics collects per-invocation Prometheus metrics and writes
// them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Marker kinds reported by the resolver.
const (
	MarkerNotFound      = "not_found"
	MarkerTooLarge      = "too_large"
	MarkerInvalidFormat = "invalid_format"
	MarkerReadFailure   = "read_failure"
	MarkerTruncated     = "truncated"
)

// Metrics holds the collectors for one ctxkit run. All methods are safe to
// call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsLoaded         prometheus.Counter
	DocumentsSkipped        prometheus.Counter
	DocumentsScored         prometheus.Counter
	ScoringFailures         prometheus.Counter
	RecommendationsReturned prometheus.Counter
	UsageRecorded           *prometheus.CounterVec
	FilesResolved           prometheus.Counter
	ResolverMarkers         *prometheus.CounterVec
	SecretsRedacted         prometheus.Counter
	StageDuration           *prometheus.HistogramVec
}

// New registers every collector on a fresh private registry.
//
// Metrics:
//   - ctxkit_documents_loaded_total - corpus documents decoded
//   - ctxkit_documents_skipped_total - corpus files that failed to load
//   - ctxkit_documents_scored_total - documents scored by the ranker
//   - ctxkit_scoring_failures_total - documents whose scoring failed
//   - ctxkit_recommendations_returned_total - recommendations emitted
//   - ctxkit_usage_recorded_total{action} - usage events persisted
//   - ctxkit_resolver_files_total - index entries produced by the resolver
//   - ctxkit_resolver_markers_total{kind} - in-band failure markers
//   - ctxkit_secrets_redacted_total - secrets masked in bundle content
//   - ctxkit_stage_duration_seconds{stage} - time spent per pipeline stage
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DocumentsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "ctxkit_documents_loaded_total",
			Help: "Total number of corpus documents loaded",
		}),
		DocumentsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ctxkit_documents_skipped_total",
			Help: "Total number of corpus files skipped because they failed to load",
		}),
		DocumentsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "ctxkit_documents_scored_total",
			Help: "Total number of documents scored by the ranker",
		}),
		ScoringFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ctxkit_scoring_failures_total",
			Help: "Total number of documents whose scoring failed and scored zero",
		}),
		RecommendationsReturned: factory.NewCounter(prometheus.CounterOpts{
			Name: "ctxkit_recommendations_returned_total",
			Help: "Total number of recommendations returned",
		}),
		UsageRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ctxkit_usage_recorded_total",
			Help: "Total number of usage events recorded",
		}, []string{"action"}),
		FilesResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "ctxkit_resolver_files_total",
			Help: "Total number of files placed in resolver bundles",
		}),
		ResolverMarkers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ctxkit_resolver_markers_total",
			Help: "Total number of failure markers emitted by the resolver",
		}, []string{"kind"}),
		SecretsRedacted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ctxkit_secrets_redacted_total",
			Help: "Total number of secrets redacted from bundle content",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ctxkit_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"stage"}),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// AddDocumentsLoaded records a finished corpus load.
func (m *Metrics) AddDocumentsLoaded(loaded, skipped int) {
	if m == nil {
		return
	}
	m.DocumentsLoaded.Add(float64(loaded))
	m.DocumentsSkipped.Add(float64(skipped))
}

// RecordScored records one scored document.
func (m *Metrics) RecordScored(failed bool) {
	if m == nil {
		return
	}
	m.DocumentsScored.Inc()
	if failed {
		m.ScoringFailures.Inc()
	}
}

// AddRecommendations records returned recommendations.
func (m *Metrics) AddRecommendations(n int) {
	if m == nil {
		return
	}
	m.RecommendationsReturned.Add(float64(n))
}

// RecordUsage records one persisted usage event.
func (m *Metrics) RecordUsage(action string) {
	if m == nil {
		return
	}
	m.UsageRecorded.WithLabelValues(action).Inc()
}

// RecordResolvedFile records one bundle index entry.
func (m *Metrics) RecordResolvedFile() {
	if m == nil {
		return
	}
	m.FilesResolved.Inc()
}

// RecordMarker records a resolver failure marker of the given kind.
func (m *Metrics) RecordMarker(kind string) {
	if m == nil {
		return
	}
	m.ResolverMarkers.WithLabelValues(kind).Inc()
}

// AddRedactions records masked secrets.
func (m *Metrics) AddRedactions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SecretsRedacted.Add(float64(n))
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// StartStage returns a function that observes the elapsed time of stage
// when called.
func (m *Metrics) StartStage(stage string) func() {
	start := time.Now()
	return func() { m.ObserveStage(stage, time.Since(start)) }
}

// WriteTextfile writes all metrics to path for the node-exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
