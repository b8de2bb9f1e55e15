package domain

import "time"

// Trade is a synthetic "recent trade" shown in a market's trade feed.
type Trade struct {
	ID              int64     `json:"id"`
	MarketID        string    `json:"market_id"`
	Side            Side      `json:"side"`
	TokenSymbol     string    `json:"token_symbol"`
	Price           float64   `json:"price"`
	Amount          float64   `json:"amount"`
	Collateral      float64   `json:"collateral"`
	CollateralToken string    `json:"collateral_token"`
	CreatedAt       time.Time `json:"created_at"`
	TimeLabel       string    `json:"time_label"`
	IsNew           bool      `json:"is_new"`
}
