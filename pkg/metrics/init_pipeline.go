package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.InstancesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dagger_instances_total",
			Help: "Instances processed by make-data, by outcome",
		},
		[]string{"status"},
	)

	r.InstanceDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dagger_instance_duration_seconds",
			Help:    "Time to build, label and write one instance",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	r.NodesParsedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dagger_nodes_parsed_total",
			Help: "Search nodes reconstructed from solver logs",
		},
	)

	r.ParseErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dagger_parse_errors_total",
			Help: "Malformed records skipped, by input kind",
		},
		[]string{"source"},
	)

	r.RecordsWrittenTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dagger_records_written_total",
			Help: "Labeled training records written, by label",
		},
		[]string{"label"},
	)

	r.GroupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dagger_ranking_groups_total",
			Help: "Priority-queue snapshot groups seen by the converter, by outcome",
		},
		[]string{"status"},
	)
}
