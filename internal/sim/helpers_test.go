package sim

import (
	"io"
	"log/slog"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// scriptedRand replays fixed draws. Once a script is exhausted Float64
// returns 0.5 (a zero signed step) and IntN returns 0.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newFakeClock() *clock.Fake { return clock.NewFake(epoch) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testMarket(id string, price float64, status domain.MarketStatus) domain.Market {
	chart := make([]float64, ChartLen)
	for i := range chart {
		chart[i] = 10
	}
	return domain.Market{
		ID:          id,
		TokenSymbol: "TKN",
		TokenName:   "Token " + id,
		Chain:       domain.ChainSolana,
		LastPrice:   price,
		ChartData:   chart,
		ChartColor:  domain.ChartGreen,
		Volume24h:   1_000,
		Status:      status,
	}
}
