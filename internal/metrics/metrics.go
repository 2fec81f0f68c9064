// Package metrics provides the centralized Prometheus registry for the
// prediction core.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "predictions_generated_total",
		Help:      "Total number of validated predictions returned",
	}, []string{"sport"})
	PredictionsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "predictions_rejected_total",
		Help:      "Total number of predictions discarded by validation",
	}, []string{"sport"})
	ValidationWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "validation_warnings_total",
		Help:      "Total number of non-fatal validation warnings",
	})
	GamesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "games_skipped_total",
		Help:      "Total number of games skipped due to fetch failures",
	}, []string{"sport"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses",
	})
	CacheStaleServedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "cache_stale_served_total",
		Help:      "Total number of stale cache values served as fallback",
	})
	CacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "cache_evictions_total",
		Help:      "Total number of cache entries evicted by the capacity bound",
	})
	SourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prediction_core",
		Name:      "source_errors_total",
		Help:      "Total number of external data source failures",
	}, []string{"source"})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prediction_core",
		Name:      "cache_hit_ratio",
		Help:      "Current cache hit ratio",
	})
	CacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prediction_core",
		Name:      "cache_size",
		Help:      "Current number of cache entries",
	})
	ConsensusScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prediction_core",
		Name:      "consensus_score",
		Help:      "Latest consensus confidence per game",
	}, []string{"game_id"})
)

// Histogram metrics
var (
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prediction_core",
		Name:      "source_fetch_duration_seconds",
		Help:      "Latency of external data source fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	GameScoringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prediction_core",
		Name:      "game_scoring_duration_seconds",
		Help:      "Duration of the per-game scoring pipeline in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsGeneratedTotal)
		registry.MustRegister(PredictionsRejectedTotal)
		registry.MustRegister(ValidationWarningsTotal)
		registry.MustRegister(GamesSkippedTotal)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)
		registry.MustRegister(CacheStaleServedTotal)
		registry.MustRegister(CacheEvictionsTotal)
		registry.MustRegister(SourceErrorsTotal)

		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(CacheSize)
		registry.MustRegister(ConsensusScore)

		registry.MustRegister(SourceFetchDuration)
		registry.MustRegister(GameScoringDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPredictionGenerated records a validated prediction being returned.
func RecordPredictionGenerated(sport string) {
	PredictionsGeneratedTotal.WithLabelValues(sport).Inc()
}

// RecordPredictionRejected records a prediction discarded by validation.
func RecordPredictionRejected(sport string) {
	PredictionsRejectedTotal.WithLabelValues(sport).Inc()
}

// RecordValidationWarnings records non-fatal validation findings.
func RecordValidationWarnings(count int) {
	ValidationWarningsTotal.Add(float64(count))
}

// RecordGameSkipped records a game dropped from a batch after fetch failures.
func RecordGameSkipped(sport string) {
	GamesSkippedTotal.WithLabelValues(sport).Inc()
}

// RecordCacheHit records a cache hit.
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheStaleServed records a stale value served as fallback.
func RecordCacheStaleServed() {
	CacheStaleServedTotal.Inc()
}

// RecordCacheEviction records a capacity eviction.
func RecordCacheEviction() {
	CacheEvictionsTotal.Inc()
}

// RecordSourceError records an external source failure.
func RecordSourceError(source string) {
	SourceErrorsTotal.WithLabelValues(source).Inc()
}

// RecordSourceFetch records external fetch latency.
func RecordSourceFetch(source string, durationSeconds float64) {
	SourceFetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordGameScoring records per-game pipeline latency.
func RecordGameScoring(durationSeconds float64) {
	GameScoringDuration.Observe(durationSeconds)
}

// UpdateCacheHitRatio updates the cache hit ratio gauge.
func UpdateCacheHitRatio(ratio float64) {
	CacheHitRatio.Set(ratio)
}

// UpdateCacheSize updates the cache size gauge.
func UpdateCacheSize(n float64) {
	CacheSize.Set(n)
}

// UpdateConsensusScore updates the per-game consensus gauge.
func UpdateConsensusScore(gameID string, score float64) {
	ConsensusScore.WithLabelValues(gameID).Set(score)
}
