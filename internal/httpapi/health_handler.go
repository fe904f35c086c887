package httpapi

import (
	"context"
	"net/http"

	"mrxstudio/internal/services"
)

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) *services.HealthResult
}

func healthHandler(h HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := h.Check(r.Context())
		status := http.StatusOK
		if res.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, res)
	}
}
