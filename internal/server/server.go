package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/server/handler"
	"github.com/SlugMacro/wm-fe-sub000/internal/server/middleware"
	"github.com/SlugMacro/wm-fe-sub000/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int    // requests per RateWindow per client IP; 0 disables
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Markets   *handler.MarketHandler
	OrderBook *handler.OrderBookHandler
	Trades    *handler.TradeHandler
	Dashboard *handler.DashboardHandler
	Indices   *handler.IndexHandler
	Wallet    *handler.WalletHandler
	Archives  *handler.ArchiveHandler
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

// Server is the HTTP + WebSocket API over the simulation.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// The middleware chain is rate limit, auth, logging, CORS, outermost last.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := Routes(handlers, wsHub)

	var h http.Handler = mux
	h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	h = middleware.Auth(cfg.APIKey, "/api/health", "/metrics")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Routes registers every endpoint on a fresh ServeMux.
func Routes(handlers Handlers, wsHub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Markets.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/volume", handlers.Markets.GetVolume)
	mux.HandleFunc("GET /api/markets/live", handlers.Markets.ListLiveMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)

	// Order book.
	mux.HandleFunc("GET /api/markets/{id}/orderbook", handlers.OrderBook.GetOrderBook)
	mux.HandleFunc("POST /api/markets/{id}/orderbook/resell/{orderID}", handlers.OrderBook.TakeResell)
	mux.HandleFunc("GET /api/markets/{id}/orderbook/{side}/{orderID}/prefill", handlers.OrderBook.Prefill)

	// Trades.
	mux.HandleFunc("GET /api/markets/{id}/trades", handlers.Trades.ListTrades)
	mux.HandleFunc("GET /api/markets/{id}/trades/history", handlers.Trades.ListHistory)
	mux.HandleFunc("GET /api/trades/tape", handlers.Trades.ReadTape)
	mux.HandleFunc("GET /api/archives", handlers.Archives.ListArchives)

	// Dashboard.
	mux.HandleFunc("GET /api/dashboard/orders", handlers.Dashboard.ListOrders)
	mux.HandleFunc("DELETE /api/dashboard/orders/{id}", handlers.Dashboard.CloseOrder)

	mux.HandleFunc("GET /api/indices", handlers.Indices.GetIndices)

	// Wallet.
	mux.HandleFunc("GET /api/wallet", handlers.Wallet.GetWallet)
	mux.HandleFunc("POST /api/wallet/connect", handlers.Wallet.Connect)
	mux.HandleFunc("POST /api/wallet/disconnect", handlers.Wallet.Disconnect)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}
	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}
	return mux
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
