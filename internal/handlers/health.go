package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fluxcart/api/internal/platform/httpx"
)

var startTime = time.Now()

// HealthHandlers exposes liveness and readiness probes.
type HealthHandlers struct {
	ready func(ctx context.Context) error
}

// NewHealthHandlers constructs health handlers. The readiness check is
// optional; without one Readyz always succeeds.
func NewHealthHandlers(ready func(ctx context.Context) error) *HealthHandlers {
	return &HealthHandlers{ready: ready}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz reports dependency readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.ready != nil {
		if err := h.ready(ctx); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("not_ready", err.Error(), http.StatusServiceUnavailable))
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
