package sim

import (
	"fmt"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// WalletBalances is the only view of a wallet the simulation needs.
type WalletBalances interface {
	Balance(symbol string) float64
}

// Prefill sizes the default trade against e from the wallet's balance in
// e's collateral token. All-or-nothing orders are offered whole or not at
// all; anything else is scaled down to what the wallet can afford.
func Prefill(e domain.OrderBookEntry, w WalletBalances) (domain.TradePrefill, error) {
	p := domain.TradePrefill{
		OrderID:         e.ID,
		CollateralToken: e.CollateralToken,
		AllOrNothing:    e.FillType == domain.FillTypeFull || e.IsResell,
	}

	remaining := 1 - e.FillPercent/100
	need := e.Collateral * remaining
	amount := e.TotalAmount * remaining
	if need <= 0 {
		return p, nil
	}

	var balance float64
	if w != nil {
		balance = w.Balance(e.CollateralToken)
	}

	if p.AllOrNothing {
		if balance < need {
			return p, fmt.Errorf("sim: prefill %q needs %.6f %s: %w", e.ID, need, e.CollateralToken, domain.ErrInsufficientBalance)
		}
		p.Fraction, p.Amount, p.Collateral = 1, amount, need
		return p, nil
	}

	p.Fraction = min(1, balance/need)
	p.Amount = amount * p.Fraction
	p.Collateral = need * p.Fraction
	return p, nil
}
