package sim

import (
	"github.com/shopspring/decimal"
)

// Round6 rounds v half away from zero to 6 decimal places.
func Round6(v float64) float64 {
	return roundTo(v, 6)
}

// Round2 rounds v half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return roundTo(v, 2)
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatAmount renders a token amount compactly: 950, 12.5K, 3.2M, 1.05B.
func FormatAmount(v float64) string {
	d := decimal.NewFromFloat(v)
	neg := d.IsNegative()
	d = d.Abs()

	var s string
	switch {
	case d.GreaterThanOrEqual(billion):
		s = trimZeros(d.Div(billion).StringFixed(2)) + "B"
	case d.GreaterThanOrEqual(million):
		s = trimZeros(d.Div(million).StringFixed(2)) + "M"
	case d.GreaterThanOrEqual(thousand):
		s = trimZeros(d.Div(thousand).StringFixed(2)) + "K"
	default:
		s = trimZeros(d.StringFixed(2))
	}
	if neg {
		return "-" + s
	}
	return s
}

func trimZeros(s string) string {
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
