package handlers

import (
	"net/http"

	"github.com/wonny/holdwatch/internal/pipeline"
)

// LatestSource exposes the last completed run
type LatestSource interface {
	Latest() *pipeline.RunResult
}

// AttributionHandler serves attribution results
type AttributionHandler struct {
	source LatestSource
}

// NewAttributionHandler creates a new attribution handler
func NewAttributionHandler(source LatestSource) *AttributionHandler {
	return &AttributionHandler{source: source}
}

// GetLatest returns the most recent run
// GET /api/attribution/latest
func (h *AttributionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	res := h.source.Latest()
	if res == nil {
		respondError(w, http.StatusNotFound, "no run completed yet")
		return
	}

	respondJSON(w, http.StatusOK, res)
}
