package domain

// DashboardSide labels a user's order on the dashboard.
type DashboardSide string

const (
	DashboardBuy    DashboardSide = "Buy"
	DashboardSell   DashboardSide = "Sell"
	DashboardResell DashboardSide = "Resell"
)

// EndedStatus is the terminal state of an order in an ended market.
type EndedStatus string

const (
	EndedSettled EndedStatus = "settled"
	EndedClaimed EndedStatus = "claimed"
	EndedClosed  EndedStatus = "closed"
	EndedResold  EndedStatus = "resold"
	EndedExited  EndedStatus = "exited"
)

// EndedStatuses lists every terminal status in display order.
var EndedStatuses = []EndedStatus{EndedSettled, EndedClaimed, EndedClosed, EndedResold, EndedExited}

// MarketRef is the slice of Market a dashboard row needs to render.
type MarketRef struct {
	ID          string `json:"id"`
	TokenSymbol string `json:"token_symbol"`
	TokenName   string `json:"token_name"`
	Chain       Chain  `json:"chain"`
}

// RefOf builds a MarketRef from m.
func RefOf(m Market) MarketRef {
	return MarketRef{ID: m.ID, TokenSymbol: m.TokenSymbol, TokenName: m.TokenName, Chain: m.Chain}
}

// DashboardOrder is one of the user's open or filled orders.
type DashboardOrder struct {
	ID              string        `json:"id"`
	Market          MarketRef     `json:"market"`
	Side            DashboardSide `json:"side"`
	Price           float64       `json:"price"`
	Amount          float64       `json:"amount"`
	Collateral      float64       `json:"collateral"`
	CollateralToken string        `json:"collateral_token"`
	Received        float64       `json:"received"`
	Progress        float64       `json:"progress"`
	FillType        FillType      `json:"fill_type,omitempty"`
	TimeLabel       string        `json:"time_label"`
}

// DashboardEndedOrder is an order in a market that has ended.
type DashboardEndedOrder struct {
	ID              string        `json:"id"`
	Market          MarketRef     `json:"market"`
	Side            DashboardSide `json:"side"`
	Price           float64       `json:"price"`
	Amount          float64       `json:"amount"`
	Collateral      float64       `json:"collateral"`
	CollateralToken string        `json:"collateral_token"`
	Received        float64       `json:"received"`
	Status          EndedStatus   `json:"status"`
	TimeLabel       string        `json:"time_label"`
}
