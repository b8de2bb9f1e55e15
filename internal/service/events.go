package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/metrics"
)

// Event types carried on the bus.
const (
	EventMarkets     = "markets"
	EventMarketFlash = "market_flash" // a market's flash reset
	EventBook        = "book"
	EventTrade       = "trade"
)

// Event is the JSON envelope published on every bus channel.
type Event struct {
	Event     string          `json:"event"`
	MarketID  string          `json:"market_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// encodeEvent wraps data in an Event envelope.
func encodeEvent(kind, marketID string, at time.Time, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: kind, MarketID: marketID, Timestamp: at.UTC(), Data: raw})
}

// publish sends payload to channel, logging and counting failures.
func publish(ctx context.Context, bus domain.SignalBus, m *metrics.Metrics, logger *slog.Logger, channel string, payload []byte) {
	if err := bus.Publish(ctx, channel, payload); err != nil {
		m.SideEffectFailed("bus")
		logger.WarnContext(ctx, "service: publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}
