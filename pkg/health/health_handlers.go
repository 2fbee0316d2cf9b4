package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessHandler answers 200 while every readiness probe is healthy.
func (hc *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, hc.CheckReadiness(), false)
	}
}

// LivenessHandler answers 200 unless a liveness probe is unhealthy.
func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, hc.CheckLiveness(), true)
	}
}

func writeResponse(w http.ResponseWriter, resp Response, allowDegraded bool) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case resp.Status == StatusHealthy:
		w.WriteHeader(http.StatusOK)
	case resp.Status == StatusDegraded && allowDegraded:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
