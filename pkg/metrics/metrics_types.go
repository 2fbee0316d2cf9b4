package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Pipeline Metrics
	InstancesTotal      *prometheus.CounterVec
	InstanceDuration    prometheus.Histogram
	NodesParsedTotal    prometheus.Counter
	ParseErrorsTotal    *prometheus.CounterVec
	RecordsWrittenTotal *prometheus.CounterVec
	GroupsTotal         *prometheus.CounterVec

	// Scoring Metrics
	ScoringRequestsTotal *prometheus.CounterVec
	ScoringDuration      prometheus.Histogram
	PolicyReloadsTotal   *prometheus.CounterVec
	ActivePolicy         prometheus.Gauge

	// Training Metrics
	TrainingIterationsTotal prometheus.Counter
	TrainingExamples        *prometheus.GaugeVec
	TrainingEvalMetric      *prometheus.GaugeVec
	TrainingDuration        prometheus.Histogram

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.Mutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	r.initPipelineMetrics()
	r.initScoringMetrics()
	r.initTrainingMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
