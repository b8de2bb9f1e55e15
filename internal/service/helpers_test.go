package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/cache/memory"
	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/sim"
)

var epoch = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newTestSimulator builds a stopped simulator over the seed markets.
func newTestSimulator(t *testing.T) (*sim.Simulator, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	s := sim.New(sim.Options{Feed: sim.FeedOptions{Backfill: -1}}, clk, sim.NewRand(7), sim.Hooks{}, discardLogger())
	return s, clk
}

func recv(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case b := <-ch:
		var evt Event
		if err := json.Unmarshal(b, &evt); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bus message")
		return Event{}
	}
}

func subscribe(t *testing.T, bus *memory.SignalBus, channel string) <-chan []byte {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch, err := bus.Subscribe(ctx, channel)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return ch
}

type fakeMarketStore struct {
	mu      sync.Mutex
	batches [][]domain.Market
	err     error
}

func (f *fakeMarketStore) Upsert(ctx context.Context, m domain.Market) error {
	return f.UpsertBatch(ctx, []domain.Market{m})
}

func (f *fakeMarketStore) UpsertBatch(_ context.Context, ms []domain.Market) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, ms)
	return nil
}

func (f *fakeMarketStore) GetByID(context.Context, string) (domain.Market, error) {
	return domain.Market{}, domain.ErrNotFound
}

func (f *fakeMarketStore) List(context.Context, domain.MarketStatus, domain.ListOpts) ([]domain.Market, error) {
	return nil, nil
}

func (f *fakeMarketStore) Count(context.Context) (int64, error) { return 0, nil }

type fakeTradeStore struct {
	mu       sync.Mutex
	inserted []domain.Trade
	err      error
}

var errStoreDown = errors.New("store down")

func (f *fakeTradeStore) InsertBatch(_ context.Context, ts []domain.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, ts...)
	return nil
}

func (f *fakeTradeStore) GetLastTimestamp(context.Context) (time.Time, error) {
	return time.Time{}, nil
}

func (f *fakeTradeStore) ListByMarket(_ context.Context, marketID string, _ domain.ListOpts) ([]domain.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Trade
	for _, t := range f.inserted {
		if t.MarketID == marketID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTradeStore) ListBefore(context.Context, time.Time, int) ([]domain.Trade, error) {
	return nil, nil
}

func (f *fakeTradeStore) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }
