package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestCounters(t *testing.T) {
	m := New()
	m.Tick(3)
	m.Tick(1)
	m.Trade("grass", "Buy")
	m.Fill("grass", "Sell")
	m.IndexFailure("fear_greed")

	out := scrape(t, m)
	for _, want := range []string{
		"premarket_live_ticks_total 2",
		"premarket_market_updates_total 4",
		`premarket_trades_total{market="grass",side="Buy"} 1`,
		`premarket_book_fills_total{market="grass",side="Sell"} 1`,
		`premarket_index_fetch_failures_total{source="fear_greed"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Tick(1)
	m.Trade("a", "Buy")
	m.ClientConnected()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Retired()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "premarket_book_retirements_total 1") {
		t.Errorf("Expected retirement counter in output, got %s", body)
	}
}
