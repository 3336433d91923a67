package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/logger"
)

// MemoSource reads stored memos, newest first
type MemoSource interface {
	Memos(ctx context.Context) ([]contracts.Memo, error)
}

// MemosHandler serves the manager memos seen so far
type MemosHandler struct {
	source MemoSource
	logger *logger.Logger
}

// NewMemosHandler creates a new memos handler
func NewMemosHandler(source MemoSource, log *logger.Logger) *MemosHandler {
	return &MemosHandler{source: source, logger: log}
}

// ListMemos returns every stored memo
// GET /api/memos
func (h *MemosHandler) ListMemos(w http.ResponseWriter, r *http.Request) {
	memos, err := h.source.Memos(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load memos")
		respondError(w, http.StatusInternalServerError, "Failed to load memos")
		return
	}
	if memos == nil {
		memos = []contracts.Memo{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"memos": memos,
		"count": len(memos),
	})
}
