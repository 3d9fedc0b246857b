package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency the readiness check must reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness and readiness checks.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler takes the dependencies that "ready" should check, keyed by
// the name reported back on failure.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Ping serves /health-check/{action}. "ping" is pure liveness; "ready" also
// pings every registered dependency.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "ready":
		h.ready(w, r)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *HealthHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "err", err)
			writeJSON(w, http.StatusServiceUnavailable, MessageEnvelope{Error: name + " unavailable", Code: "not_ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ready"})
}
