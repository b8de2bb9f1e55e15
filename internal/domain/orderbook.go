package domain

import (
	"fmt"
	"strings"
)

// Side is the side of a resting order or an executed trade.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// FillType constrains how an order may be matched.
type FillType string

const (
	FillTypeAny     FillType = ""
	FillTypeFull    FillType = "FULL"    // all-or-nothing
	FillTypePartial FillType = "PARTIAL" // may be matched incrementally
)

// OrderBookEntry is one resting order in a synthetic order book.
type OrderBookEntry struct {
	ID              string   `json:"id"`
	Price           float64  `json:"price"`
	Amount          float64  `json:"amount"`
	AmountFormatted string   `json:"amount_formatted"`
	Collateral      float64  `json:"collateral"`
	CollateralToken string   `json:"collateral_token"`
	CollateralIcon  string   `json:"collateral_icon"`
	FillPercent     float64  `json:"fill_percent"`
	FilledAmount    float64  `json:"filled_amount"`
	TotalAmount     float64  `json:"total_amount"`
	FillType        FillType `json:"fill_type,omitempty"`
	IsResell        bool     `json:"is_resell"`
	IsOwner         bool     `json:"is_owner"`

	// Resell listings only: what the original buyer paid.
	OriginalPrice      float64 `json:"original_price,omitempty"`
	OriginalCollateral float64 `json:"original_collateral,omitempty"`
}

// Fillable reports whether the order may receive an incremental fill.
func (e OrderBookEntry) Fillable() bool {
	return e.FillType != FillTypeFull && !e.IsResell && e.FillPercent < 100
}

// OrderBook is a point-in-time view of both sides of a market's book.
type OrderBook struct {
	MarketID string           `json:"market_id"`
	Buy      []OrderBookEntry `json:"buy"`
	Sell     []OrderBookEntry `json:"sell"`
	Flashed  []string         `json:"flashed"`
}

// TradePrefill is the default sizing offered when a user opens the trade
// panel on an order.
type TradePrefill struct {
	OrderID         string  `json:"order_id"`
	Fraction        float64 `json:"fraction"`
	Amount          float64 `json:"amount"`
	Collateral      float64 `json:"collateral"`
	CollateralToken string  `json:"collateral_token"`
	AllOrNothing    bool    `json:"all_or_nothing"`
}

// ResellProfit is the previous holder's result on a resell listing.
type ResellProfit struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}
