package models

import "time"

// Trade direction values. Anything else is rejected at validation time.
const (
	DirectionLong  = "Long"
	DirectionShort = "Short"
)

// TradeImage is a single screenshot attached to a trade. Order of the slice
// is the order the images were uploaded in.
type TradeImage struct {
	ImagePath  string    `json:"image_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// StrategyRef is the resolved strategy linkage embedded in trade responses.
type StrategyRef struct {
	StrategyID   string `json:"strategy_id"`
	StrategyName string `json:"strategy_name"`
}

// AccountRef is the resolved account linkage embedded in trade responses.
type AccountRef struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// Trade is the central journal entity. Optional numeric fields are pointers:
// nil means "not recorded", never NaN. The account_name/strategy_name fields
// are snapshots taken when the trade was written and may diverge from the
// live Account/Strategy if those are renamed later.
type Trade struct {
	TradeID       string     `json:"trade_id"`
	StartDatetime time.Time  `json:"start_datetime"`
	EndDatetime   *time.Time `json:"end_datetime"`

	TradeType       string  `json:"trade_type"`
	Asset           string  `json:"asset"`
	Direction       string  `json:"direction"`
	Timeframe       string  `json:"timeframe"`
	Session         string  `json:"session"`
	EntryCandleType *string `json:"entry_candle_type"`

	StrategyID   *string `json:"strategy_id"`
	StrategyName *string `json:"strategy_name"`
	AccountID    *string `json:"account_id"`
	AccountName  *string `json:"account_name"`

	EntryPrice   float64  `json:"entry_price"`
	ExitPrice    *float64 `json:"exit_price"`
	TakeProfit   *float64 `json:"take_profit"`
	StopLoss     *float64 `json:"stop_loss"`
	LotSize      *float64 `json:"lot_size"`
	AmountTraded *float64 `json:"amount_traded"`
	Leverage     *float64 `json:"leverage"`
	TradeFees    *float64 `json:"trade_fees"`

	RiskPercentage     *float64 `json:"risk_percentage"`
	ExpectedRiskReward *float64 `json:"expected_risk_reward"`
	ActualRiskReward   *float64 `json:"actual_risk_reward"`
	PnL                *float64 `json:"pnl"`

	SlMovedToBreakeven bool     `json:"sl_moved_to_breakeven"`
	IncreasedLotSize   bool     `json:"increased_lot_size"`
	BalanceBeforeTrade *float64 `json:"balance_before_trade"`
	BalanceAfterTrade  *float64 `json:"balance_after_trade"`

	TrendMultiTimeframe *string      `json:"trend_multi_timeframe"`
	EntryReason         *string      `json:"entry_reason"`
	ExitReason          *string      `json:"exit_reason"`
	Notes               *string      `json:"notes"`
	CustomFields        CustomFields `json:"custom_fields"`

	Tags   []string     `json:"tags"`
	Images []TradeImage `json:"images"`

	// Resolved joins, populated on reads when the referenced row still exists.
	Strategy *StrategyRef `json:"strategy"`
	Account  *AccountRef  `json:"account"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradePayload is the client-supplied body for trade create/update.
// trade_id is never accepted from the client; it is allocated on create and
// immutable afterwards. A nil Tags slice on update means "leave tags alone";
// an empty non-nil slice clears them.
type TradePayload struct {
	StartDatetime string `json:"start_datetime"`
	EndDatetime   string `json:"end_datetime"`

	TradeType       string `json:"trade_type"`
	Asset           string `json:"asset"`
	Direction       string `json:"direction"`
	Timeframe       string `json:"timeframe"`
	Session         string `json:"session"`
	EntryCandleType string `json:"entry_candle_type"`

	StrategyID   string `json:"strategy_id"`
	StrategyName string `json:"strategy_name"`
	AccountID    string `json:"account_id"`
	AccountName  string `json:"account_name"`

	EntryPrice   *float64 `json:"entry_price"`
	ExitPrice    *float64 `json:"exit_price"`
	TakeProfit   *float64 `json:"take_profit"`
	StopLoss     *float64 `json:"stop_loss"`
	LotSize      *float64 `json:"lot_size"`
	AmountTraded *float64 `json:"amount_traded"`
	Leverage     *float64 `json:"leverage"`
	TradeFees    *float64 `json:"trade_fees"`

	RiskPercentage *float64 `json:"risk_percentage"`
	PnL            *float64 `json:"pnl"`

	SlMovedToBreakeven bool     `json:"sl_moved_to_breakeven"`
	IncreasedLotSize   bool     `json:"increased_lot_size"`
	BalanceBeforeTrade *float64 `json:"balance_before_trade"`
	BalanceAfterTrade  *float64 `json:"balance_after_trade"`

	TrendMultiTimeframe string       `json:"trend_multi_timeframe"`
	EntryReason         string       `json:"entry_reason"`
	ExitReason          string       `json:"exit_reason"`
	Notes               string       `json:"notes"`
	CustomFields        CustomFields `json:"custom_fields"`

	Tags []string `json:"tags"`
}
