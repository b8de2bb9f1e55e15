package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/cache/memory"
	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/index"
	"github.com/SlugMacro/wm-fe-sub000/internal/metrics"
	"github.com/SlugMacro/wm-fe-sub000/internal/server/handler"
	"github.com/SlugMacro/wm-fe-sub000/internal/service"
	"github.com/SlugMacro/wm-fe-sub000/internal/sim"
	"github.com/SlugMacro/wm-fe-sub000/internal/wallet"
)

var epoch = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type testAPI struct {
	handler http.Handler
	sim     *sim.Simulator
	wallet  *wallet.Mock
	markets *service.MarketService
	trades  *service.TradeService
}

func newTestAPI(t *testing.T, cfg Config, limiter domain.RateLimiter) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	clk := clock.NewFake(epoch)
	s := sim.New(sim.Options{Feed: sim.FeedOptions{Backfill: -1}}, clk, sim.NewRand(7), sim.Hooks{}, logger)
	bus := memory.NewSignalBus()
	m := metrics.New()
	w := wallet.NewMock(map[string]float64{"USDC": 2500, "SOL": 12.5})

	markets := service.NewMarketService(s.Store(), nil, memory.NewMarketCache(), memory.NewPriceCache(), bus, m, logger)
	books := service.NewBookService(s, memory.NewOrderbookCache(), bus, m, logger)
	trades := service.NewTradeService(s, memory.NewTradeCache(), nil, bus, m, logger)

	handlers := Handlers{
		Health:    handler.NewHealthHandler(nil, logger),
		Status:    handler.NewStatusHandler("standalone", "session-1", epoch, s, nil),
		Markets:   handler.NewMarketHandler(markets, logger),
		OrderBook: handler.NewOrderBookHandler(books, w, logger),
		Trades:    handler.NewTradeHandler(trades, logger),
		Dashboard: handler.NewDashboardHandler(s.Dashboard(), logger),
		Indices:   handler.NewIndexHandler(index.New(index.Config{}, logger, nil)),
		Wallet:    handler.NewWalletHandler(w, logger),
		Archives:  handler.NewArchiveHandler(nil, logger),
		Metrics:   m.Handler(),
	}
	srv := NewServer(cfg, handlers, nil, limiter, logger)
	return &testAPI{handler: srv.Handler(), sim: s, wallet: w, markets: markets, trades: trades}
}

func (a *testAPI) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndStatus(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)

	rec := api.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := decode[map[string]any](t, rec)["status"]; got != "ok" {
		t.Errorf("Expected ok, got %v", got)
	}

	rec = api.do(t, http.MethodGet, "/api/status", "")
	status := decode[map[string]any](t, rec)
	if status["mode"] != "standalone" || status["leading"] != true {
		t.Errorf("Unexpected status %v", status)
	}
	if status["markets"] != float64(len(api.sim.MarketIDs())) {
		t.Errorf("Expected %d markets, got %v", len(api.sim.MarketIDs()), status["markets"])
	}
}

func TestMarkets(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)

	type listResp struct {
		Markets []domain.Market `json:"markets"`
		Count   int             `json:"count"`
	}
	all := decode[listResp](t, api.do(t, http.MethodGet, "/api/markets", ""))
	if all.Count != 13 || len(all.Markets) != 13 {
		t.Errorf("Expected 13 markets, got %d", all.Count)
	}
	ended := decode[listResp](t, api.do(t, http.MethodGet, "/api/markets?status=ended", ""))
	if ended.Count != 5 {
		t.Errorf("Expected 5 ended markets, got %d", ended.Count)
	}
	for _, m := range ended.Markets {
		if m.Status != domain.MarketStatusEnded {
			t.Errorf("Expected ended status, got %s", m.Status)
		}
	}

	if rec := api.do(t, http.MethodGet, "/api/markets?status=bogus", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/markets/grass", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if m := decode[domain.Market](t, rec); m.ID != "grass" {
		t.Errorf("Expected grass, got %s", m.ID)
	}
	if rec := api.do(t, http.MethodGet, "/api/markets/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/markets/volume", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for volume, got %d", rec.Code)
	}
	if got := decode[domain.VolumeSummary](t, rec); got.Markets != 13 || got.TotalVolume <= 0 {
		t.Errorf("Unexpected volume summary %+v", got)
	}
}

func TestOrderBookAndResell(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)

	rec := api.do(t, http.MethodGet, "/api/markets/grass/orderbook", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	book := decode[domain.OrderBook](t, rec)
	if len(book.Buy) != sim.BookDepth || len(book.Sell) != sim.BookDepth {
		t.Errorf("Expected %d rows per side, got %d/%d", sim.BookDepth, len(book.Buy), len(book.Sell))
	}

	if rec := api.do(t, http.MethodGet, "/api/markets/jupiter/orderbook", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for ended market, got %d", rec.Code)
	}

	b, _ := api.sim.Book("grass")
	resells := b.ResellOrders()
	if len(resells) == 0 {
		t.Skip("seeded book has no resell listing")
	}
	path := "/api/markets/grass/orderbook/resell/" + resells[0].ID
	if rec := api.do(t, http.MethodPost, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 taking resell, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := api.do(t, http.MethodPost, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second take, got %d", rec.Code)
	}
}

func TestPrefill(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)
	b, _ := api.sim.Book("grass")
	entry := b.Snapshot().Sell[0]
	path := "/api/markets/grass/orderbook/sell/" + entry.ID + "/prefill"

	if rec := api.do(t, http.MethodGet, path, ""); rec.Code != http.StatusPreconditionFailed {
		t.Errorf("Expected 412 with a disconnected wallet, got %d", rec.Code)
	}

	if _, err := api.wallet.Connect("0x52908400098527886E0F7030069857D2E4169EE7"); err != nil {
		t.Fatal(err)
	}
	rec := api.do(t, http.MethodGet, path, "")
	if rec.Code != http.StatusOK && rec.Code != http.StatusConflict {
		t.Fatalf("Expected 200 or 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Code == http.StatusOK {
		p := decode[domain.TradePrefill](t, rec)
		if p.OrderID != entry.ID {
			t.Errorf("Expected order %s, got %s", entry.ID, p.OrderID)
		}
		if p.Fraction < 0 || p.Fraction > 1 {
			t.Errorf("Fraction out of range: %v", p.Fraction)
		}
	}

	if rec := api.do(t, http.MethodGet, "/api/markets/grass/orderbook/sideways/"+entry.ID+"/prefill", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad side, got %d", rec.Code)
	}
}

func TestLiveMarkets(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)
	ctx := context.Background()

	type liveResp struct {
		Markets []domain.LiveMarket `json:"markets"`
		Count   int                 `json:"count"`
	}
	flashOf := func(id string) domain.Flash {
		got := decode[liveResp](t, api.do(t, http.MethodGet, "/api/markets/live?status=live", ""))
		for _, lm := range got.Markets {
			if lm.Status != domain.MarketStatusLive {
				t.Errorf("Expected only live markets, got %s for %s", lm.Status, lm.ID)
			}
			if lm.ID == id {
				return lm.Flash
			}
		}
		t.Fatalf("market %s missing from live projection", id)
		return ""
	}

	m, err := api.sim.Store().Get("grass")
	if err != nil {
		t.Fatal(err)
	}
	api.markets.HandleTick(ctx, []domain.LiveMarket{{Market: m, Flash: domain.FlashUp}})
	if got := flashOf("grass"); got != domain.FlashUp {
		t.Errorf("Expected flash up after a tick, got %q", got)
	}

	api.markets.HandleFlashCleared(ctx, domain.LiveMarket{Market: m, Flash: domain.FlashUp})
	if got := flashOf("grass"); got != domain.FlashNone {
		t.Errorf("Expected flash cleared, got %q", got)
	}

	if rec := api.do(t, http.MethodGet, "/api/markets/live?status=bogus", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestTrades(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)
	f, _ := api.sim.Feed("grass")
	trade := f.Emit()
	api.trades.HandleTrade(context.Background(), trade)

	type listResp struct {
		Trades []domain.Trade `json:"trades"`
		Count  int            `json:"count"`
	}
	got := decode[listResp](t, api.do(t, http.MethodGet, "/api/markets/grass/trades", ""))
	if got.Count == 0 || got.Trades[0].ID != trade.ID {
		t.Errorf("Expected newest trade %d first, got %+v", trade.ID, got.Trades)
	}

	if rec := api.do(t, http.MethodGet, "/api/markets/grass/trades/history", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a trade store, got %d", rec.Code)
	}

	type tapeResp struct {
		Entries []service.TapeEntry `json:"entries"`
		LastID  string              `json:"last_id"`
	}
	tape := decode[tapeResp](t, api.do(t, http.MethodGet, "/api/trades/tape", ""))
	if len(tape.Entries) != 1 || tape.Entries[0].Trade.ID != trade.ID {
		t.Fatalf("Expected one tape entry, got %+v", tape.Entries)
	}
	next := decode[tapeResp](t, api.do(t, http.MethodGet, "/api/trades/tape?after="+tape.LastID, ""))
	if len(next.Entries) != 0 || next.LastID != tape.LastID {
		t.Errorf("Expected empty page after %s, got %+v", tape.LastID, next)
	}
}

func TestDashboard(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)

	type listResp struct {
		Kind   string            `json:"kind"`
		Orders []json.RawMessage `json:"orders"`
	}
	open := decode[listResp](t, api.do(t, http.MethodGet, "/api/dashboard/orders", ""))
	if open.Kind != "open" || len(open.Orders) != len(api.sim.Dashboard().Open()) {
		t.Errorf("Unexpected open list: kind=%s n=%d", open.Kind, len(open.Orders))
	}
	ended := decode[listResp](t, api.do(t, http.MethodGet, "/api/dashboard/orders?kind=ended", ""))
	if len(ended.Orders) != len(api.sim.Dashboard().Ended()) {
		t.Errorf("Expected %d ended orders, got %d", len(api.sim.Dashboard().Ended()), len(ended.Orders))
	}
	if rec := api.do(t, http.MethodGet, "/api/dashboard/orders?kind=all", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown kind, got %d", rec.Code)
	}

	id := api.sim.Dashboard().Open()[0].ID
	if rec := api.do(t, http.MethodDelete, "/api/dashboard/orders/"+id, ""); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 closing order, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodDelete, "/api/dashboard/orders/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second close, got %d", rec.Code)
	}
}

func TestIndicesDefaults(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)

	got := decode[struct {
		FearGreed domain.FearGreedIndex `json:"fear_greed"`
		Dominance domain.DominanceIndex `json:"dominance"`
	}](t, api.do(t, http.MethodGet, "/api/indices", ""))

	if got.FearGreed.Value != 43 || got.FearGreed.Label != "Fear" {
		t.Errorf("Expected default fear & greed, got %+v", got.FearGreed)
	}
	if got.Dominance.BTC != 56.8 || got.Dominance.ETH != 13.2 {
		t.Errorf("Expected default dominance, got %+v", got.Dominance)
	}
}

func TestWallet(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)

	state := decode[wallet.State](t, api.do(t, http.MethodGet, "/api/wallet", ""))
	if state.Connected {
		t.Error("Expected wallet to start disconnected")
	}

	rec := api.do(t, http.MethodPost, "/api/wallet/connect", `{"address":"0x52908400098527886e0f7030069857d2e4169ee7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	state = decode[wallet.State](t, rec)
	if !state.Connected || state.Address != "0x52908400098527886E0F7030069857D2E4169EE7" {
		t.Errorf("Expected checksummed connected address, got %+v", state)
	}

	if rec := api.do(t, http.MethodPost, "/api/wallet/connect", `{"address":"nope"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad address, got %d", rec.Code)
	}

	state = decode[wallet.State](t, api.do(t, http.MethodPost, "/api/wallet/disconnect", ""))
	if state.Connected {
		t.Error("Expected wallet to be disconnected")
	}
}

func TestAuthAndRateLimit(t *testing.T) {
	api := newTestAPI(t, Config{APIKey: "secret", RateLimit: 2, RateWindow: time.Minute}, memory.NewRateLimiter())

	if rec := api.do(t, http.MethodGet, "/api/health", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected public health check, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/api/markets", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/api/markets", "", "X-API-Key", "secret"); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with key, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/api/markets", "", "Authorization", "Bearer secret"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the limit is used up, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)

	rec := api.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "premarket_") {
		t.Error("Expected premarket metrics in scrape output")
	}
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t, Config{CORSOrigins: []string{"http://localhost:3000"}, APIKey: "secret"}, nil)

	rec := api.do(t, http.MethodOptions, "/api/markets", "", "Origin", "http://localhost:3000")
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected origin echoed, got %q", got)
	}

	rec = api.do(t, http.MethodOptions, "/api/markets", "", "Origin", "http://evil.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestArchivesDisabledWithoutStorage(t *testing.T) {
	api := newTestAPI(t, Config{}, nil)
	if rec := api.do(t, http.MethodGet, "/api/archives", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without archival, got %d", rec.Code)
	}
}
