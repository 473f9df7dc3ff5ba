package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/pkg/insight"
)

// MetricsService owns the Prometheus registry and keeps a few counters for
// the JSON summary endpoint. All methods are safe on a nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	llmDuration     *prometheus.HistogramVec
	llmTotal        *prometheus.CounterVec
	extractions     *prometheus.CounterVec
	scores          *prometheus.CounterVec
	levelUps        prometheus.Counter
	degraded        *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	llmCallCount         uint64
	llmFailureCount      uint64
	fallbackCount        uint64
	degradedCount        uint64
	levelUpCount         uint64
}

// NewMetricsService registers the service collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	llmDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Latency of text-completion calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"operation"})

	llmTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Text-completion calls by outcome",
	}, []string{"operation", "outcome"})

	extractions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_extractions_total",
		Help: "Structured insight extraction by method (strict, scan, fallback)",
	}, []string{"operation", "method"})

	scores := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scores_computed_total",
		Help: "Scores computed by classification",
	}, []string{"scheme", "level"})

	levelUps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gamification_level_ups_total",
		Help: "Level-up events emitted",
	})

	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "degraded_responses_total",
		Help: "Responses served without generated insight",
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		llmDuration, llmTotal, extractions, scores, levelUps, degraded, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		llmDuration:     llmDuration,
		llmTotal:        llmTotal,
		extractions:     extractions,
		scores:          scores,
		levelUps:        levelUps,
		degraded:        degraded,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveLLM records one completion call.
func (m *MetricsService) ObserveLLM(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		atomic.AddUint64(&m.llmFailureCount, 1)
	}
	m.llmDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.llmTotal.WithLabelValues(operation, outcome).Inc()
	atomic.AddUint64(&m.llmCallCount, 1)
}

// RecordExtraction counts how a model response was turned into structure.
func (m *MetricsService) RecordExtraction(operation string, method insight.Method) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(operation, string(method)).Inc()
	if method == insight.MethodFallback {
		atomic.AddUint64(&m.fallbackCount, 1)
	}
}

// RecordScore counts a computed score by its tier.
func (m *MetricsService) RecordScore(scheme, level string) {
	if m == nil {
		return
	}
	m.scores.WithLabelValues(scheme, level).Inc()
}

// RecordLevelUps counts emitted level-up events.
func (m *MetricsService) RecordLevelUps(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.levelUps.Add(float64(n))
	atomic.AddUint64(&m.levelUpCount, uint64(n))
}

// RecordDegraded counts a response served without its insight.
func (m *MetricsService) RecordDegraded(operation string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(operation).Inc()
	atomic.AddUint64(&m.degradedCount, 1)
}

// Snapshot returns aggregated counters for the JSON summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{GeneratedAt: time.Now().UTC()}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		LLMCalls:                 atomic.LoadUint64(&m.llmCallCount),
		LLMFailures:              atomic.LoadUint64(&m.llmFailureCount),
		ExtractionFallbacks:      atomic.LoadUint64(&m.fallbackCount),
		DegradedResponses:        atomic.LoadUint64(&m.degradedCount),
		LevelUps:                 atomic.LoadUint64(&m.levelUpCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
