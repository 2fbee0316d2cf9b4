package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordInstance records the outcome of processing one instance
func (r *Registry) RecordInstance(status string, duration time.Duration) {
	r.InstancesTotal.WithLabelValues(status).Inc()
	r.InstanceDuration.Observe(duration.Seconds())
}

// RecordNodes adds to the count of reconstructed search nodes
func (r *Registry) RecordNodes(n int) {
	r.NodesParsedTotal.Add(float64(n))
}

// RecordParseErrors records n skipped records from the given input kind
// ("log" or "trajectory").
func (r *Registry) RecordParseErrors(source string, n int) {
	if n <= 0 {
		return
	}
	r.ParseErrorsTotal.WithLabelValues(source).Add(float64(n))
}

// RecordRecords records n written training records carrying the given label
func (r *Registry) RecordRecords(label string, n int) {
	if n <= 0 {
		return
	}
	r.RecordsWrittenTotal.WithLabelValues(label).Add(float64(n))
}

// RecordGroups records the fate of n snapshot groups
func (r *Registry) RecordGroups(status string, n int) {
	if n <= 0 {
		return
	}
	r.GroupsTotal.WithLabelValues(status).Add(float64(n))
}

// RecordScoringRequest records a served scoring request
func (r *Registry) RecordScoringRequest(status string, duration time.Duration) {
	r.ScoringRequestsTotal.WithLabelValues(status).Inc()
	r.ScoringDuration.Observe(duration.Seconds())
}

// RecordPolicyReload records a policy load attempt. The active policy gauge
// only moves on success.
func (r *Registry) RecordPolicyReload(status string, policyID int) {
	r.PolicyReloadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		r.ActivePolicy.Set(float64(policyID))
	}
}

// RecordTrainingIteration records a finished training iteration
func (r *Registry) RecordTrainingIteration(trainExamples, evalExamples int, duration time.Duration) {
	r.TrainingIterationsTotal.Inc()
	r.TrainingExamples.WithLabelValues("train").Set(float64(trainExamples))
	r.TrainingExamples.WithLabelValues("eval").Set(float64(evalExamples))
	r.TrainingDuration.Observe(duration.Seconds())
}

// SetEvalMetric publishes one evaluation metric for a split
func (r *Registry) SetEvalMetric(split, metric string, value float64) {
	r.TrainingEvalMetric.WithLabelValues(split, metric).Set(value)
}

// UpdateSystemMetrics refreshes uptime and runtime gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
}

// Handler serves the registry in the Prometheus exposition format,
// refreshing system gauges on each scrape.
func (r *Registry) Handler() http.Handler {
	inner := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.UpdateSystemMetrics()
		inner.ServeHTTP(w, req)
	})
}
