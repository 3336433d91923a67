package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/internal/history"
	"github.com/wonny/holdwatch/pkg/logger"
)

// HistorySource reads the stored snapshot history
type HistorySource interface {
	History(ctx context.Context) (contracts.History, error)
}

// HistoryHandler serves stored snapshots
// ⭐ SSOT: 히스토리 API 핸들러는 이 구조체에서만
type HistoryHandler struct {
	source HistorySource
	logger *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(source HistorySource, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{source: source, logger: log}
}

// ListDates returns every stored date ascending
// GET /api/history
func (h *HistoryHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	hist, ok := h.load(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates": hist.Dates(),
		"count": len(hist),
	})
}

// GetSnapshot returns the snapshot stored for one date
// GET /api/history/{date}
func (h *HistoryHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if _, err := time.Parse(contracts.DateLayout, date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	hist, ok := h.load(w, r)
	if !ok {
		return
	}

	snap, exists := hist[date]
	if !exists {
		respondError(w, http.StatusNotFound, "no snapshot for "+date)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// load treats a never-written history as empty
func (h *HistoryHandler) load(w http.ResponseWriter, r *http.Request) (contracts.History, bool) {
	hist, err := h.source.History(r.Context())
	if errors.Is(err, history.ErrNotFound) {
		return contracts.History{}, true
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history")
		respondError(w, http.StatusInternalServerError, "Failed to load history")
		return nil, false
	}
	return hist, true
}
