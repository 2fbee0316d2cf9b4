package health

import (
	"context"
	"time"
)

// PolicyCheck reports unhealthy until a policy has been loaded.
func PolicyCheck(policyID func() int) CheckFunc {
	return func() Check {
		id := policyID()
		check := Check{
			Name:    "policy",
			Details: map[string]any{"policy_id": id},
		}
		if id < 0 {
			check.Status = StatusUnhealthy
			check.Message = "no policy loaded"
			return check
		}
		check.Status = StatusHealthy
		return check
	}
}

// StoreCheck probes the policy store with latest. A store that answers but
// holds no policy yet is degraded.
func StoreCheck(latest func(ctx context.Context) (int, error), notFound func(error) bool, timeout time.Duration) CheckFunc {
	return func() Check {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		check := Check{Name: "store"}
		id, err := latest(ctx)
		switch {
		case err == nil:
			check.Status = StatusHealthy
			check.Details = map[string]any{"latest": id}
		case notFound(err):
			check.Status = StatusDegraded
			check.Message = "store holds no policy"
		default:
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		}
		return check
	}
}
