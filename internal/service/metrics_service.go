package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation and provides a
// lightweight snapshot for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	streamedBytes   prometheus.Counter
	streamRequests  *prometheus.CounterVec
	storageDuration *prometheus.HistogramVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	streamedByteCount    uint64
}

// MetricsSnapshot is a cheap JSON view of counters for the admin API.
type MetricsSnapshot struct {
	Requests       uint64  `json:"requests"`
	AvgLatencyMS   float64 `json:"avgLatencyMs"`
	StreamedBytes  uint64  `json:"streamedBytes"`
	CacheHits      uint64  `json:"cacheHits"`
	CacheMisses    uint64  `json:"cacheMisses"`
	CacheHitRatio  float64 `json:"cacheHitRatio"`
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heapAllocBytes"`
}

// NewMetricsService registers the service's Prometheus collectors.
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

	streamedBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audio_streamed_bytes_total",
		Help: "Total audio bytes written to clients",
	})

	streamRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_stream_requests_total",
		Help: "Stream requests by kind (full or partial)",
	}, []string{"kind"})

	storageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "content_store_op_duration_seconds",
		Help:    "Latency of content store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})

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

	registry.MustRegister(requestDuration, requestTotal, streamedBytes, streamRequests,
		storageDuration, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		streamedBytes:   streamedBytes,
		streamRequests:  streamRequests,
		storageDuration: storageDuration,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one completed request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := fmt.Sprintf("%d", status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
	atomic.AddUint64(&s.requestCount, 1)
	atomic.AddUint64(&s.requestDurationTotal, uint64(duration.Milliseconds()))
}

// ObserveStreamRequest records one stream response; partial marks 206s.
func (s *MetricsService) ObserveStreamRequest(partial bool, bytes int64) {
	kind := "full"
	if partial {
		kind = "partial"
	}
	s.streamRequests.WithLabelValues(kind).Inc()
	if bytes > 0 {
		s.streamedBytes.Add(float64(bytes))
		atomic.AddUint64(&s.streamedByteCount, uint64(bytes))
	}
}

// ObserveStorageOp records latency for one content store operation.
func (s *MetricsService) ObserveStorageOp(backend, op string, duration time.Duration) {
	s.storageDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// RecordCacheOperation records a cache lookup result.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
		atomic.AddUint64(&s.cacheHitCount, 1)
	} else {
		s.cacheMisses.Inc()
		atomic.AddUint64(&s.cacheMissCount, 1)
	}
	s.updateHitRatio()
}

// ObserveCacheWrite records latency for a cache set.
func (s *MetricsService) ObserveCacheWrite(duration time.Duration) {
	s.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns a point-in-time counter view.
func (s *MetricsService) Snapshot() MetricsSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	requests := atomic.LoadUint64(&s.requestCount)
	durationTotal := atomic.LoadUint64(&s.requestDurationTotal)
	hits := atomic.LoadUint64(&s.cacheHitCount)
	misses := atomic.LoadUint64(&s.cacheMissCount)

	snapshot := MetricsSnapshot{
		Requests:       requests,
		StreamedBytes:  atomic.LoadUint64(&s.streamedByteCount),
		CacheHits:      hits,
		CacheMisses:    misses,
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
	}
	if requests > 0 {
		snapshot.AvgLatencyMS = float64(durationTotal) / float64(requests)
	}
	if total := hits + misses; total > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(total)
	}
	return snapshot
}

func (s *MetricsService) updateHitRatio() {
	hits := atomic.LoadUint64(&s.cacheHitCount)
	misses := atomic.LoadUint64(&s.cacheMissCount)
	if total := hits + misses; total > 0 {
		s.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}
