package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the substance pipeline.
// A nil *Metrics is valid and records nothing, which keeps tests free of
// duplicate collector registration.
type Metrics struct {
	Resolutions      *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	Enrichments      prometheus.Counter
	FallbackParses   *prometheus.CounterVec
	PersistFailures  prometheus.Counter
	PipelineDuration prometheus.Histogram
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reglens_resolutions_total",
			Help: "Resolver outcomes by result (resolved, unresolved)",
		}, []string{"outcome"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reglens_cache_hits_total",
			Help: "Status lookups served from the cache store",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reglens_cache_misses_total",
			Help: "Status lookups that required fresh enrichment",
		}),
		Enrichments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reglens_enrichments_total",
			Help: "Enrichment provider calls made",
		}),
		FallbackParses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reglens_provider_fallback_parses_total",
			Help: "Provider responses that failed strict decoding by stage",
		}, []string{"stage"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reglens_persist_failures_total",
			Help: "Best-effort cache writes that failed after enrichment",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "reglens_pipeline_duration_seconds",
			Help:    "End-to-end duration of the resolve/cache/enrich pipeline",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementResolution records a resolver outcome.
func (m *Metrics) IncrementResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

// IncrementCacheHit records a lookup served from the cache.
func (m *Metrics) IncrementCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// IncrementCacheMiss records a cold lookup.
func (m *Metrics) IncrementCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// IncrementEnrichment records an enrichment provider call.
func (m *Metrics) IncrementEnrichment() {
	if m == nil {
		return
	}
	m.Enrichments.Inc()
}

// IncrementFallbackParse records a provider response that failed strict decoding.
func (m *Metrics) IncrementFallbackParse(stage string) {
	if m == nil {
		return
	}
	m.FallbackParses.WithLabelValues(stage).Inc()
}

// IncrementPersistFailure records a failed best-effort cache write.
func (m *Metrics) IncrementPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// ObservePipeline records the duration of one Check call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObservePipeline(start time.Time) {
	if m == nil {
		return
	}
	m.PipelineDuration.Observe(time.Since(start).Seconds())
}
