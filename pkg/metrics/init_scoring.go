package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initScoringMetrics() {
	r.ScoringRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dagger_scoring_requests_total",
			Help: "Scoring requests served, by status",
		},
		[]string{"status"},
	)

	r.ScoringDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dagger_scoring_duration_seconds",
			Help:    "Time from request decode to reply send",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	r.PolicyReloadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dagger_policy_reloads_total",
			Help: "Policy loads triggered by a changed policy id",
		},
		[]string{"status"},
	)

	r.ActivePolicy = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dagger_active_policy",
			Help: "Iteration id of the policy currently serving, -1 before the first load",
		},
	)
	r.ActivePolicy.Set(-1)
}
