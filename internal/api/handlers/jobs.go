package handlers

import (
	"net/http"

	"github.com/wonny/holdwatch/internal/scheduler"
)

// JobStatsSource reports scheduler statistics
type JobStatsSource interface {
	GetJobStats() map[string]scheduler.JobStats
}

// JobsHandler serves scheduler statistics
type JobsHandler struct {
	source JobStatsSource
}

// NewJobsHandler creates a new jobs handler; source may be nil
func NewJobsHandler(source JobStatsSource) *JobsHandler {
	return &JobsHandler{source: source}
}

// GetStats returns per-job run statistics
// GET /api/jobs
func (h *JobsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondJSON(w, http.StatusOK, map[string]scheduler.JobStats{})
		return
	}

	respondJSON(w, http.StatusOK, h.source.GetJobStats())
}
