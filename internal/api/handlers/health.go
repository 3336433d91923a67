package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/holdwatch/pkg/database"
)

// DBChecker reports database health
type DBChecker interface {
	HealthCheck(ctx context.Context) database.HealthStatus
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	Count() int
}

// HealthHandler reports service health
type HealthHandler struct {
	db  DBChecker     // nil for the file backend
	hub ClientCounter // nil when alerts are not streamed
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db DBChecker, hub ClientCounter) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

// Check returns 200 when healthy, 503 when the database is down
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "holdwatch",
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		dbStatus := h.db.HealthCheck(ctx)
		body["database"] = dbStatus
		if !dbStatus.Healthy {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	if h.hub != nil {
		body["websocket_clients"] = h.hub.Count()
	}

	respondJSON(w, status, body)
}
