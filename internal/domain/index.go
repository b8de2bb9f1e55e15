package domain

import "time"

// FearGreedIndex is the crypto fear & greed reading.
type FearGreedIndex struct {
	Value     int       `json:"value"`
	Label     string    `json:"label"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DominanceIndex is market-cap dominance in percent.
type DominanceIndex struct {
	BTC       float64   `json:"btc"`
	ETH       float64   `json:"eth"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults served until (or instead of) a successful fetch.
var (
	DefaultFearGreed = FearGreedIndex{Value: 43, Label: "Fear"}
	DefaultDominance = DominanceIndex{BTC: 56.8, ETH: 13.2}
)
