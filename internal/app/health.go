package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/authgate/internal/pkg/router"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	code   int
}

func (h healthResponse) StatusCode() int { return h.code }

func (h healthResponse) Message() string {
	if h.code != http.StatusOK {
		return "Service is degraded"
	}
	return "Service is healthy"
}

// health pings every backing store that is configured.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) error{}
	if a.dbConn != nil {
		checks["database"] = a.dbConn.Ping
	}
	if a.cacheConn != nil {
		checks["redis"] = func(ctx context.Context) error { return a.cacheConn.Ping(ctx).Err() }
	}

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks)), code: http.StatusOK}
	for name, ping := range checks {
		if err := ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", "name", name, "error", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			resp.code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}

	return resp, nil
}
