package models

import "time"

// Attribution decomposes one day's P&L into Greek-explained components
// plus a residual. The residual is defined as daily P&L minus the sum of
// the explained terms, so the six components always add back exactly.
type Attribution struct {
	Delta    float64 `json:"pnl_delta"`
	Gamma    float64 `json:"pnl_gamma"`
	Vega     float64 `json:"pnl_vega"`
	Theta    float64 `json:"pnl_theta"`
	Rho      float64 `json:"pnl_rho"`
	Residual float64 `json:"pnl_residual"`
}

// DailyResult is one row of the backtest output table.
type DailyResult struct {
	Date           time.Time   `json:"date"`
	Spot           float64     `json:"spot"`
	PortfolioValue float64     `json:"portfolio_value"`
	Cash           float64     `json:"cash"`
	DailyPnL       float64     `json:"daily_pnl"`
	TotalReturn    float64     `json:"total_return"`
	Greeks         Greeks      `json:"greeks"`
	Attribution    Attribution `json:"attribution"`
	NumStrategies  int         `json:"num_strategies"`
}

// TradeRecord is one entry of the portfolio's append-only trade ledger.
type TradeRecord struct {
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	CashFlow      float64   `json:"cash_flow"`
	StrategyIndex *int      `json:"strategy_index,omitempty"`
	CashBalance   float64   `json:"cash_balance"`
}
