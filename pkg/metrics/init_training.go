package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTrainingMetrics() {
	r.TrainingIterationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dagger_training_iterations_total",
			Help: "Policy iterations trained and saved",
		},
	)

	r.TrainingExamples = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dagger_training_examples",
			Help: "Examples in the most recent split",
		},
		[]string{"split"},
	)

	r.TrainingEvalMetric = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dagger_training_eval",
			Help: "Evaluation metrics of the most recent iteration",
		},
		[]string{"split", "metric"},
	)

	r.TrainingDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dagger_training_duration_seconds",
			Help:    "Wall time to fit one policy iteration",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
	)
}
