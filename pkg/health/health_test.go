package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var errMissing = errors.New("missing")

func isMissing(err error) bool { return errors.Is(err, errMissing) }

func TestPolicyCheck(t *testing.T) {
	id := -1
	check := PolicyCheck(func() int { return id })

	if got := check(); got.Status != StatusUnhealthy {
		t.Errorf("status before load = %s, want unhealthy", got.Status)
	}
	id = 3
	got := check()
	if got.Status != StatusHealthy {
		t.Errorf("status after load = %s, want healthy", got.Status)
	}
	if got.Details["policy_id"] != 3 {
		t.Errorf("policy_id = %v, want 3", got.Details["policy_id"])
	}
}

func TestStoreCheck(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"ok", nil, StatusHealthy},
		{"empty", errMissing, StatusDegraded},
		{"down", errors.New("connection refused"), StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := StoreCheck(func(context.Context) (int, error) { return 2, tt.err }, isMissing, time.Second)
			if got := check(); got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
		})
	}
}

func TestWorstStatusWins(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterReadinessCheck("a", func() Check { return Check{Status: StatusHealthy} })
	hc.RegisterReadinessCheck("b", func() Check { return Check{Status: StatusDegraded} })

	resp := hc.CheckReadiness()
	if resp.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", resp.Status)
	}
	if resp.Checks["a"].Name != "a" {
		t.Errorf("unnamed check should take its registration name, got %q", resp.Checks["a"].Name)
	}

	hc.RegisterReadinessCheck("c", func() Check { return Check{Status: StatusUnhealthy} })
	if resp := hc.CheckReadiness(); resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", resp.Status)
	}
}

func TestHandlers(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterLivenessCheck("store", func() Check { return Check{Status: StatusDegraded} })
	hc.RegisterReadinessCheck("store", func() Check { return Check{Status: StatusDegraded} })

	rec := httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness code = %d, want 200 when degraded", rec.Code)
	}

	rec = httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness code = %d, want 503 when degraded", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusDegraded {
		t.Errorf("body status = %s, want degraded", resp.Status)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}
