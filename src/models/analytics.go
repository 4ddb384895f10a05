package models

import "time"

// EquityPoint is one point on the cumulative PnL curve, one per trade in
// chronological order.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	PnL    float64   `json:"pnl"`
	Equity float64   `json:"equity"`
}

// OverviewResult is the dashboard headline block.
type OverviewResult struct {
	TotalPnL    float64       `json:"totalPnL"`
	TradeCount  int           `json:"tradeCount"`
	WinRate     float64       `json:"winRate"`
	AvgRR       float64       `json:"avgRR"`
	EquityCurve []EquityPoint `json:"equityCurve"`
}

// DimensionStat is the per-bucket result of a group-by breakdown
// (session, asset, strategy).
type DimensionStat struct {
	Trades int     `json:"trades"`
	PnL    float64 `json:"pnl"`
}

// CalendarDay is the rollup for one calendar day inside the displayed month.
type CalendarDay struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Trades int     `json:"trades"`
	PnL    float64 `json:"pnl"`
}

// CalendarWeek is the rollup for one ISO week, counting only trades that fall
// inside the displayed month.
type CalendarWeek struct {
	Week   string  `json:"week"` // ISO year-week, e.g. 2025-W31
	Trades int     `json:"trades"`
	PnL    float64 `json:"pnl"`
}

// CalendarResult is the month view: per-day and per-week rollups.
type CalendarResult struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []CalendarDay  `json:"days"`
	Weeks []CalendarWeek `json:"weeks"`
}

// PeriodDeltaResult compares the current date-range window against the
// immediately preceding window of equal length. DeltaPct is nil when the
// previous window has no trades or zero PnL.
type PeriodDeltaResult struct {
	CurrentPnL     float64  `json:"currentPnL"`
	PreviousPnL    float64  `json:"previousPnL"`
	CurrentTrades  int      `json:"currentTrades"`
	PreviousTrades int      `json:"previousTrades"`
	DeltaPct       *float64 `json:"deltaPct"`
}

// StrategyOption and AccountOption are filter-picker entries. For names that
// only exist denormalized on trades (the live row was deleted or never
// existed), the id is the name itself, surfaced as a pseudo-entry.
type StrategyOption struct {
	StrategyID   string `json:"strategy_id"`
	StrategyName string `json:"strategy_name"`
}

type AccountOption struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// FilterOptions feeds the UI filter pickers.
type FilterOptions struct {
	Assets     []string         `json:"assets"`
	Sessions   []string         `json:"sessions"`
	Strategies []StrategyOption `json:"strategies"`
	Accounts   []AccountOption  `json:"accounts"`
	Tags       []string         `json:"tags"`
}
