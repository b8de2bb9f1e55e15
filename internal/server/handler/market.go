package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// MarketService defines the market operations needed by the HTTP handler.
type MarketService interface {
	ListMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error)
	LiveMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.LiveMarket, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	Summary(ctx context.Context) (domain.VolumeSummary, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logHandler(logger, "market"),
	}
}

type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Count   int             `json:"count"`
}

type liveMarketsResponse struct {
	Markets []domain.LiveMarket `json:"markets"`
	Count   int                 `json:"count"`
}

func parseStatus(w http.ResponseWriter, r *http.Request) (domain.MarketStatus, bool) {
	status := domain.MarketStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.MarketStatusLive, domain.MarketStatusUpcoming, domain.MarketStatusEnded:
		return status, true
	}
	writeError(w, http.StatusBadRequest, "unknown status "+string(status))
	return "", false
}

// ListMarkets returns every market, optionally filtered by ?status=.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatus(w, r)
	if !ok {
		return
	}

	markets, err := h.markets.ListMarkets(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list markets")
		return
	}
	if markets == nil {
		markets = []domain.Market{}
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{Markets: markets, Count: len(markets)})
}

// ListLiveMarkets returns markets together with their current up/down
// flash.
// GET /api/markets/live
func (h *MarketHandler) ListLiveMarkets(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatus(w, r)
	if !ok {
		return
	}

	markets, err := h.markets.LiveMarkets(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list live markets")
		return
	}
	if markets == nil {
		markets = []domain.LiveMarket{}
	}

	writeJSON(w, http.StatusOK, liveMarketsResponse{Markets: markets, Count: len(markets)})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// GetVolume returns the aggregate volume figures across all markets.
// GET /api/markets/volume
func (h *MarketHandler) GetVolume(w http.ResponseWriter, r *http.Request) {
	summary, err := h.markets.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to summarise volume")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
