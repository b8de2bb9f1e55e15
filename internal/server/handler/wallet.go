package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SlugMacro/wm-fe-sub000/internal/wallet"
)

// Wallet is the mock wallet as seen by the HTTP layer.
type Wallet interface {
	State() wallet.State
	Connect(address string) (string, error)
	Disconnect()
}

// WalletHandler serves the mock wallet endpoints.
type WalletHandler struct {
	wallet Wallet
	logger *slog.Logger
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(w Wallet, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		wallet: w,
		logger: logHandler(logger, "wallet"),
	}
}

// GetWallet returns the wallet's connection state and balances.
// GET /api/wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.wallet.State())
}

type connectRequest struct {
	Address string `json:"address"`
}

// Connect attaches the wallet to an address.
// POST /api/wallet/connect
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	addr, err := h.wallet.Connect(req.Address)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, h.logger, err, "failed to connect wallet")
		return
	}

	h.logger.InfoContext(r.Context(), "handler: wallet connected", slog.String("address", addr))
	writeJSON(w, http.StatusOK, h.wallet.State())
}

// Disconnect detaches the wallet.
// POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.wallet.Disconnect()
	writeJSON(w, http.StatusOK, h.wallet.State())
}
