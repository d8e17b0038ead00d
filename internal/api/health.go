package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/spajza/internal/catalog"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
	Items  int64  `json:"items"`
}

// HealthHandler reports whether the item store is reachable.
func HealthHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}

		n, err := svc.Count(ctx)
		if err != nil {
			slog.Warn("health check failed", "error", err)
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}

		jsonResponse(w, http.StatusOK, healthResponse{Status: "ok", Items: n})
	}
}
