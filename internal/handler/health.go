package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/templui/linkstash/internal/ctxkeys"
	"github.com/templui/linkstash/internal/sqlclient"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	exec sqlclient.Executor
}

func NewHealthHandler(exec sqlclient.Executor) *HealthHandler {
	return &HealthHandler{exec: exec}
}

// Healthz reports whether the SQL store answers a trivial query.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := map[string]string{"status": "ok"}
	if cfg := ctxkeys.Config(r.Context()); cfg != nil {
		status["env"] = cfg.AppEnv
		status["store"] = cfg.StoreDriver
	}

	if _, err := h.exec.Query(ctx, "SELECT 1"); err != nil {
		status["status"] = "unavailable"
		respond(w, http.StatusServiceUnavailable, status)
		return
	}
	respond(w, http.StatusOK, status)
}
