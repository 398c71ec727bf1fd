package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/response"
)

const healthTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	Database HealthChecker
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Handle implements GET /health.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := healthStatus{Status: "ok", Database: "unchecked"}

	if h.Database != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		if err := h.Database.Ping(pingCtx); err != nil {
			response.Error(ctx, w, apperrors.Upstream(err, "Database unavailable"))
			return
		}
		status.Database = "ok"
	}

	response.OK(ctx, w, status, "Health check passed")
}
