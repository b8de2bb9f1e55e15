package handler

import (
	"net/http"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// IndexSource exposes the latest market index readings.
type IndexSource interface {
	FearGreed() domain.FearGreedIndex
	Dominance() domain.DominanceIndex
}

// IndexHandler serves the market index strip.
type IndexHandler struct {
	indices IndexSource
}

// NewIndexHandler creates an IndexHandler.
func NewIndexHandler(indices IndexSource) *IndexHandler {
	return &IndexHandler{indices: indices}
}

// GetIndices returns the fear & greed and dominance readings.
// GET /api/indices
func (h *IndexHandler) GetIndices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fear_greed": h.indices.FearGreed(),
		"dominance":  h.indices.Dominance(),
	})
}
