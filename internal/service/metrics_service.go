package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

// MetricsSnapshot is a JSON-friendly summary of the in-process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	Transitions              uint64    `json:"transitions"`
	StateConflicts           uint64    `json:"state_conflicts"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService owns the Prometheus registry for HTTP, cache and workflow metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
	proposalStatus  *prometheus.GaugeVec
	notifications   *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	transitionCount      uint64
	conflictCount        uint64
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Committed proposal status transitions",
		}, []string{"from", "to", "trigger"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_state_conflicts_total",
			Help: "Transitions rejected because the proposal status changed or the move is illegal",
		}, []string{"trigger"}),
		proposalStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "proposals_by_status",
			Help: "Number of proposals per status at the last refresh",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_jobs_total",
			Help: "Notification jobs by outcome",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheLookups,
		m.transitions, m.conflicts, m.proposalStatus, m.notifications,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
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

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTransition counts a committed status change.
func (m *MetricsService) RecordTransition(from, to models.ProposalStatus, trigger string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to), trigger).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordConflict counts a rejected transition.
func (m *MetricsService) RecordConflict(trigger string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(trigger).Inc()
	atomic.AddUint64(&m.conflictCount, 1)
}

// SetProposalStatusCounts replaces the per-status gauge values.
func (m *MetricsService) SetProposalStatusCounts(counts map[models.ProposalStatus]int) {
	if m == nil {
		return
	}
	for status, n := range counts {
		m.proposalStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

// RecordNotificationJob counts delivered, failed and dropped notification jobs.
func (m *MetricsService) RecordNotificationJob(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{GeneratedAt: time.Now().UTC()}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	snap := MetricsSnapshot{
		RequestsTotal:  requests,
		CacheHits:      hits,
		CacheMisses:    misses,
		Transitions:    atomic.LoadUint64(&m.transitionCount),
		StateConflicts: atomic.LoadUint64(&m.conflictCount),
		Goroutines:     runtime.NumGoroutine(),
		GeneratedAt:    time.Now().UTC(),
	}
	if hits+misses > 0 {
		snap.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	return snap
}
