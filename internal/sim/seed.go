package sim

import (
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// ChartLen is the number of samples every market's sparkline holds.
const ChartLen = 12

type seedMarket struct {
	id, symbol, name  string
	chain             domain.Chain
	price, change     float64
	volume24h         float64
	volumeChange      float64
	totalVolume       float64
	totalVolumeChange float64
	status            domain.MarketStatus
	settlement        domain.SettlementStatus
	settleIn          time.Duration // zero means no settle time
	chart             [ChartLen]float64
}

var seedTable = []seedMarket{
	{"grass", "GRASS", "Grass", domain.ChainSolana, 0.0523, 4.12, 182_450, 12.4, 2_418_300, 8.1,
		domain.MarketStatusLive, domain.SettlementInProgress, 6 * time.Hour,
		[ChartLen]float64{18, 22, 21, 25, 24, 28, 30, 27, 31, 33, 32, 35}},
	{"eigen", "EIGEN", "EigenLayer", domain.ChainEthereum, 3.42, -2.35, 964_210, -4.8, 12_860_000, 3.3,
		domain.MarketStatusLive, domain.SettlementNone, 0,
		[ChartLen]float64{40, 38, 39, 36, 35, 37, 34, 33, 35, 32, 31, 30}},
	{"walrus", "WAL", "Walrus", domain.ChainSui, 0.418, 7.9, 311_870, 22.1, 3_920_540, 11.6,
		domain.MarketStatusLive, domain.SettlementUpcoming, 72 * time.Hour,
		[ChartLen]float64{12, 13, 15, 14, 17, 19, 18, 21, 22, 24, 23, 26}},
	{"monad", "MON", "Monad", domain.ChainEthereum, 0.0874, 1.05, 512_330, 2.7, 6_104_900, 5.2,
		domain.MarketStatusLive, domain.SettlementNone, 0,
		[ChartLen]float64{20, 21, 20, 22, 21, 23, 22, 22, 24, 23, 24, 25}},
	{"magiceden", "ME", "Magic Eden", domain.ChainSolana, 2.15, -0.84, 228_760, -1.9, 4_335_120, 1.4,
		domain.MarketStatusLive, domain.SettlementUpcoming, 30 * time.Hour,
		[ChartLen]float64{30, 31, 29, 30, 28, 29, 27, 28, 29, 27, 28, 27}},
	{"berachain", "BERA", "Berachain", domain.ChainEthereum, 6.8, 12.6, 1_402_900, 31.5, 18_772_000, 14.9,
		domain.MarketStatusLive, domain.SettlementNone, 0,
		[ChartLen]float64{10, 12, 14, 13, 16, 18, 21, 20, 23, 25, 27, 30}},
	{"deepbook", "DEEP", "DeepBook", domain.ChainSui, 0.031, 0, 0, 0, 0, 0,
		domain.MarketStatusUpcoming, domain.SettlementNewMarket, 120 * time.Hour,
		[ChartLen]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
	{"pump", "PUMP", "Pump.fun", domain.ChainSolana, 0.0042, 0, 0, 0, 0, 0,
		domain.MarketStatusUpcoming, domain.SettlementNewMarket, 168 * time.Hour,
		[ChartLen]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
	{"jupiter", "JUP", "Jupiter", domain.ChainSolana, 0.92, -6.2, 0, 0, 24_118_000, 0,
		domain.MarketStatusEnded, domain.SettlementNone, 0,
		[ChartLen]float64{34, 33, 30, 31, 28, 27, 26, 24, 25, 23, 22, 21}},
	{"zksync", "ZK", "ZKsync", domain.ChainEthereum, 0.21, -14.3, 0, 0, 31_540_000, 0,
		domain.MarketStatusEnded, domain.SettlementNone, 0,
		[ChartLen]float64{44, 41, 40, 36, 35, 33, 30, 29, 27, 26, 24, 22}},
	{"scroll", "SCR", "Scroll", domain.ChainEthereum, 1.12, 3.4, 0, 0, 9_870_500, 0,
		domain.MarketStatusEnded, domain.SettlementNone, 0,
		[ChartLen]float64{20, 21, 23, 22, 24, 23, 25, 26, 25, 27, 26, 28}},
	{"suins", "NS", "SuiNS", domain.ChainSui, 0.34, -1.1, 0, 0, 2_904_300, 0,
		domain.MarketStatusEnded, domain.SettlementNone, 0,
		[ChartLen]float64{15, 16, 15, 14, 15, 14, 13, 14, 13, 13, 12, 13}},
	{"parcl", "PRCL", "Parcl", domain.ChainSolana, 0.47, 2.2, 0, 0, 5_120_800, 0,
		domain.MarketStatusEnded, domain.SettlementNone, 0,
		[ChartLen]float64{18, 17, 19, 18, 20, 19, 21, 20, 22, 21, 23, 22}},
}

// SeedMarkets returns a fresh copy of the built-in market table. Settle
// times are anchored at now.
func SeedMarkets(now time.Time) []domain.Market {
	out := make([]domain.Market, 0, len(seedTable))
	for _, s := range seedTable {
		m := domain.Market{
			ID:                s.id,
			TokenSymbol:       s.symbol,
			TokenName:         s.name,
			Chain:             s.chain,
			LastPrice:         s.price,
			PriceChange24h:    s.change,
			ChartData:         append([]float64(nil), s.chart[:]...),
			Volume24h:         s.volume24h,
			VolumeChange24h:   s.volumeChange,
			TotalVolume:       s.totalVolume,
			TotalVolumeChange: s.totalVolumeChange,
			Status:            s.status,
			SettlementStatus:  s.settlement,
		}
		m.ChartColor = chartColor(m.ChartData)
		if s.settleIn > 0 {
			ts := now.Add(s.settleIn).UTC()
			m.SettleTime = &ts
		}
		out = append(out, m)
	}
	return out
}

func chartColor(chart []float64) domain.ChartColor {
	n := len(chart)
	if n < 2 || chart[n-1] >= chart[n-2] {
		return domain.ChartGreen
	}
	return domain.ChartRed
}
