package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/service"
)

// TradeService defines the trade operations needed by the HTTP handler.
type TradeService interface {
	Recent(ctx context.Context, marketID string) ([]domain.Trade, error)
	History(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error)
	Tape(ctx context.Context, lastID string, count int) ([]service.TapeEntry, error)
}

// TradeHandler serves trade feed endpoints.
type TradeHandler struct {
	trades TradeService
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(trades TradeService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		logger: logHandler(logger, "trade"),
	}
}

type listTradesResponse struct {
	Trades []domain.Trade `json:"trades"`
	Count  int            `json:"count"`
}

// ListTrades returns the visible recent trades of a market, newest first.
// GET /api/markets/{id}/trades
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.trades.Recent(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list trades")
		return
	}
	h.writeTrades(w, trades)
}

// ListHistory returns persisted trades of a market.
// GET /api/markets/{id}/trades/history
func (h *TradeHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	trades, err := h.trades.History(r.Context(), pathParam(r, "id"), parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list trade history")
		return
	}
	h.writeTrades(w, trades)
}

func (h *TradeHandler) writeTrades(w http.ResponseWriter, trades []domain.Trade) {
	if trades == nil {
		trades = []domain.Trade{}
	}
	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades, Count: len(trades)})
}

type tapeResponse struct {
	Entries []service.TapeEntry `json:"entries"`
	LastID  string              `json:"last_id"`
}

// ReadTape pages through the cross-market trade tape. Pass the returned
// last_id back as ?after= to continue.
// GET /api/trades/tape
func (h *TradeHandler) ReadTape(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	after := q.Get("after")
	if after == "" {
		after = "0"
	}
	count := 100
	if v := q.Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = min(n, 1000)
		}
	}

	entries, err := h.trades.Tape(r.Context(), after, count)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to read trade tape")
		return
	}

	resp := tapeResponse{Entries: entries, LastID: after}
	if resp.Entries == nil {
		resp.Entries = []service.TapeEntry{}
	}
	if n := len(entries); n > 0 {
		resp.LastID = entries[n-1].StreamID
	}
	writeJSON(w, http.StatusOK, resp)
}
