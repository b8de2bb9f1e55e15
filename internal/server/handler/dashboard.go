package handler

import (
	"log/slog"
	"net/http"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// Dashboard is the user's rolled-up order lists.
type Dashboard interface {
	Open() []domain.DashboardOrder
	Filled() []domain.DashboardOrder
	Ended() []domain.DashboardEndedOrder
	CloseOrder(id string) error
}

// DashboardHandler serves the user dashboard endpoints.
type DashboardHandler struct {
	dash   Dashboard
	logger *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dash Dashboard, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dash:   dash,
		logger: logHandler(logger, "dashboard"),
	}
}

// ListOrders returns one of the dashboard lists selected by ?kind=
// (open, filled or ended). The default is open.
// GET /api/dashboard/orders
func (h *DashboardHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	switch kind {
	case "", "open":
		writeJSON(w, http.StatusOK, map[string]any{"kind": "open", "orders": nonNil(h.dash.Open())})
	case "filled":
		writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "orders": nonNil(h.dash.Filled())})
	case "ended":
		writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "orders": nonNil(h.dash.Ended())})
	default:
		writeError(w, http.StatusBadRequest, "kind must be open, filled or ended")
	}
}

// CloseOrder removes one of the user's open orders.
// DELETE /api/dashboard/orders/{id}
func (h *DashboardHandler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.dash.CloseOrder(id); err != nil {
		writeServiceError(w, r, h.logger, err, "failed to close order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "closed",
		"order_id": id,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
