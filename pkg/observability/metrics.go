package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Global collector instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Expansion job metrics
	JobsStarted  prometheus.Counter
	JobsFinished *prometheus.CounterVec
	JobDuration  prometheus.Histogram
	JobDepth     prometheus.Histogram

	// Graph growth metrics
	NodesGenerated prometheus.Counter
	EdgesGenerated prometheus.Counter

	// Embedding cache metrics
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter

	// Memory governor metrics
	PressureEvents *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	jobsStarted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansion_jobs_started_total",
			Help:      "Total number of expansion jobs started",
		},
	)

	jobsFinished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansion_jobs_finished_total",
			Help:      "Total number of expansion jobs reaching a terminal state",
		},
		[]string{"status"},
	)

	jobDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expansion_job_duration_seconds",
			Help:      "Wall-clock duration of expansion jobs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	jobDepth := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expansion_job_depth_reached",
			Help:      "Depth levels fully completed per expansion job",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		},
	)

	nodesGenerated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_generated_total",
			Help:      "Total number of concept nodes generated",
		},
	)

	edgesGenerated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_generated_total",
			Help:      "Total number of edges generated",
		},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_hits_total",
			Help:      "Total number of embedding cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_misses_total",
			Help:      "Total number of embedding cache misses",
		},
	)

	cacheEvictions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_evictions_total",
			Help:      "Total number of embedding cache evictions",
		},
	)

	pressureEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_pressure_events_total",
			Help:      "Total number of memory pressure events by severity",
		},
		[]string{"level"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		jobsStarted,
		jobsFinished,
		jobDuration,
		jobDepth,
		nodesGenerated,
		edgesGenerated,
		cacheHits,
		cacheMisses,
		cacheEvictions,
		pressureEvents,
	)

	globalCollector = &Collector{
		registry:       registry,
		HTTPRequests:   httpRequests,
		HTTPDuration:   httpDuration,
		JobsStarted:    jobsStarted,
		JobsFinished:   jobsFinished,
		JobDuration:    jobDuration,
		JobDepth:       jobDepth,
		NodesGenerated: nodesGenerated,
		EdgesGenerated: edgesGenerated,
		CacheHits:      cacheHits,
		CacheMisses:    cacheMisses,
		CacheEvictions: cacheEvictions,
		PressureEvents: pressureEvents,
	}

	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// RecordJobFinished records a job reaching a terminal state
func (c *Collector) RecordJobFinished(status string, duration time.Duration, depthReached int) {
	c.JobsFinished.WithLabelValues(status).Inc()
	c.JobDuration.Observe(duration.Seconds())
	c.JobDepth.Observe(float64(depthReached))
}

// RecordGraphGrowth records generated nodes and edges
func (c *Collector) RecordGraphGrowth(nodes, edges int) {
	c.NodesGenerated.Add(float64(nodes))
	c.EdgesGenerated.Add(float64(edges))
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
