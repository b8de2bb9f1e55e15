package domain

import (
	"strings"
	"time"
)

// Chain identifies the network a pre-market token launches on.
type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
	ChainSui      Chain = "sui"
)

// ParseChain maps a free-form chain name onto a known Chain. Anything
// unrecognised falls back to Solana.
func ParseChain(s string) Chain {
	switch Chain(strings.ToLower(strings.TrimSpace(s))) {
	case ChainEthereum:
		return ChainEthereum
	case ChainSui:
		return ChainSui
	default:
		return ChainSolana
	}
}

// ChainToken describes a collateral token.
type ChainToken struct {
	Symbol   string  `json:"symbol"`
	Icon     string  `json:"icon"`
	USDPrice float64 `json:"usd_price"` // reference price used to convert USD notionals
}

// StableToken is the stablecoin collateral shared by every chain.
var StableToken = ChainToken{Symbol: "USDC", Icon: "/icons/usdc.svg", USDPrice: 1}

var nativeTokens = map[Chain]ChainToken{
	ChainSolana:   {Symbol: "SOL", Icon: "/icons/sol.svg", USDPrice: 150},
	ChainEthereum: {Symbol: "ETH", Icon: "/icons/eth.svg", USDPrice: 3200},
	ChainSui:      {Symbol: "SUI", Icon: "/icons/sui.svg", USDPrice: 3.5},
}

// NativeToken returns the native collateral token for c, falling back to SOL.
func NativeToken(c Chain) ChainToken {
	if tok, ok := nativeTokens[c]; ok {
		return tok
	}
	return nativeTokens[ChainSolana]
}

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusLive     MarketStatus = "live"
	MarketStatusUpcoming MarketStatus = "upcoming"
	MarketStatusEnded    MarketStatus = "ended"
)

// SettlementStatus describes where a market is in its settlement cycle.
type SettlementStatus string

const (
	SettlementNone       SettlementStatus = ""
	SettlementInProgress SettlementStatus = "in-progress"
	SettlementUpcoming   SettlementStatus = "upcoming"
	SettlementNewMarket  SettlementStatus = "new-market"
)

// ChartColor is the sparkline colour derived from the last two samples.
type ChartColor string

const (
	ChartGreen ChartColor = "green"
	ChartRed   ChartColor = "red"
)

// MinPrice is the floor applied to every simulated price.
const MinPrice = 0.0001

// Market is one tradable pre-market instrument.
type Market struct {
	ID                string           `json:"id"`
	TokenSymbol       string           `json:"token_symbol"`
	TokenName         string           `json:"token_name"`
	Chain             Chain            `json:"chain"`
	LastPrice         float64          `json:"last_price"`
	PriceChange24h    float64          `json:"price_change_24h"`
	ChartData         []float64        `json:"chart_data"`
	ChartColor        ChartColor       `json:"chart_color"`
	Volume24h         float64          `json:"volume_24h"`
	VolumeChange24h   float64          `json:"volume_change_24h"`
	TotalVolume       float64          `json:"total_volume"`
	TotalVolumeChange float64          `json:"total_volume_change"`
	Status            MarketStatus     `json:"status"`
	SettlementStatus  SettlementStatus `json:"settlement_status,omitempty"`
	SettleTime        *time.Time       `json:"settle_time"`
}

// Clone returns a deep copy so callers can mutate chart data freely.
func (m Market) Clone() Market {
	out := m
	if m.ChartData != nil {
		out.ChartData = make([]float64, len(m.ChartData))
		copy(out.ChartData, m.ChartData)
	}
	if m.SettleTime != nil {
		ts := *m.SettleTime
		out.SettleTime = &ts
	}
	return out
}

// IsTradable reports whether the live update scheduler may perturb m.
func (m Market) IsTradable() bool {
	return m.Status == MarketStatusLive && m.LastPrice > 0
}

// Flash is a transient highlight attached to a freshly changed value.
type Flash string

const (
	FlashNone Flash = ""
	FlashUp   Flash = "up"
	FlashDown Flash = "down"
)

// LiveMarket is the scheduler's projection of a Market plus its flash state.
type LiveMarket struct {
	Market
	Flash Flash `json:"flash"`
}

// VolumeSummary aggregates volume across the market list.
type VolumeSummary struct {
	TotalVolume float64 `json:"total_volume"`
	Volume24h   float64 `json:"volume_24h"`
	Markets     int     `json:"markets"`
}
