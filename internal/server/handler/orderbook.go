package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/sim"
)

// BookService defines the order book operations needed by the HTTP handler.
type BookService interface {
	Snapshot(ctx context.Context, marketID string) (domain.OrderBook, error)
	Entry(ctx context.Context, marketID string, side domain.Side, orderID string) (domain.OrderBookEntry, error)
	TakeResell(ctx context.Context, marketID, orderID string) (domain.OrderBookEntry, error)
}

// WalletReader is the read side of the wallet used for trade prefill.
type WalletReader interface {
	sim.WalletBalances
	Address() (string, error)
}

// OrderBookHandler serves order book endpoints.
type OrderBookHandler struct {
	books  BookService
	wallet WalletReader
	logger *slog.Logger
}

// NewOrderBookHandler creates an OrderBookHandler.
func NewOrderBookHandler(books BookService, wallet WalletReader, logger *slog.Logger) *OrderBookHandler {
	return &OrderBookHandler{
		books:  books,
		wallet: wallet,
		logger: logHandler(logger, "orderbook"),
	}
}

// GetOrderBook returns both sides of a market's book.
// GET /api/markets/{id}/orderbook
func (h *OrderBookHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.Snapshot(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get order book")
		return
	}
	if book.Buy == nil {
		book.Buy = []domain.OrderBookEntry{}
	}
	if book.Sell == nil {
		book.Sell = []domain.OrderBookEntry{}
	}

	writeJSON(w, http.StatusOK, book)
}

// TakeResell takes a resell listing off the book.
// POST /api/markets/{id}/orderbook/resell/{orderID}
func (h *OrderBookHandler) TakeResell(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")
	orderID := pathParam(r, "orderID")

	entry, err := h.books.TakeResell(r.Context(), marketID, orderID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to take resell order")
		return
	}

	h.logger.InfoContext(r.Context(), "handler: resell order taken",
		slog.String("market_id", marketID),
		slog.String("order_id", orderID),
	)
	writeJSON(w, http.StatusOK, entry)
}

// Prefill sizes the default trade against one resting order from the
// connected wallet's balance.
// GET /api/markets/{id}/orderbook/{side}/{orderID}/prefill
func (h *OrderBookHandler) Prefill(w http.ResponseWriter, r *http.Request) {
	side, err := domain.ParseSide(pathParam(r, "side"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "invalid side")
		return
	}
	if _, err := h.wallet.Address(); err != nil {
		writeServiceError(w, r, h.logger, err, "wallet unavailable")
		return
	}

	entry, err := h.books.Entry(r.Context(), pathParam(r, "id"), side, pathParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get order")
		return
	}

	prefill, err := sim.Prefill(entry, h.wallet)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to prefill order")
		return
	}

	writeJSON(w, http.StatusOK, prefill)
}
