package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
)

// TradeExportRow is the flat CSV representation of a trade. Tags are joined
// with ", ". Optional numerics travel as strings so an empty cell round-trips
// back to an absent value instead of a zero.
type TradeExportRow struct {
	TradeID             string  `csv:"trade_id"`
	StartDatetime       string  `csv:"start_datetime"`
	EndDatetime         string  `csv:"end_datetime"`
	TradeType           string  `csv:"trade_type"`
	Asset               string  `csv:"asset"`
	Direction           string  `csv:"direction"`
	Timeframe           string  `csv:"timeframe"`
	Session             string  `csv:"session"`
	EntryCandleType     string  `csv:"entry_candle_type"`
	StrategyID          string  `csv:"strategy_id"`
	StrategyName        string  `csv:"strategy_name"`
	AccountID           string  `csv:"account_id"`
	AccountName         string  `csv:"account_name"`
	EntryPrice          float64 `csv:"entry_price"`
	ExitPrice           string  `csv:"exit_price"`
	TakeProfit          string  `csv:"take_profit"`
	StopLoss            string  `csv:"stop_loss"`
	LotSize             string  `csv:"lot_size"`
	AmountTraded        string  `csv:"amount_traded"`
	Leverage            string  `csv:"leverage"`
	TradeFees           string  `csv:"trade_fees"`
	RiskPercentage      string  `csv:"risk_percentage"`
	ExpectedRiskReward  string  `csv:"expected_risk_reward"`
	ActualRiskReward    string  `csv:"actual_risk_reward"`
	PnL                 string  `csv:"pnl"`
	SlMovedToBreakeven  bool    `csv:"sl_moved_to_breakeven"`
	IncreasedLotSize    bool    `csv:"increased_lot_size"`
	BalanceBeforeTrade  string  `csv:"balance_before_trade"`
	BalanceAfterTrade   string  `csv:"balance_after_trade"`
	TrendMultiTimeframe string  `csv:"trend_multi_timeframe"`
	EntryReason         string  `csv:"entry_reason"`
	ExitReason          string  `csv:"exit_reason"`
	Notes               string  `csv:"notes"`
	Tags                string  `csv:"tags"`
}

// ExportService writes the full trade set (with tags resolved) to CSV and
// reads it back, allocating fresh sequential ids per imported row.
type ExportService interface {
	ExportTradesCSV(w io.Writer) error
	ExportTrades() ([]models.Trade, error)
	ImportTradesCSV(r io.Reader) (int, error)
}

type exportServiceImpl struct {
	trades TradeService
}

func NewExportService(trades TradeService) ExportService {
	return &exportServiceImpl{trades: trades}
}

// ExportTrades returns every trade, newest first, with tags resolved.
func (s *exportServiceImpl) ExportTrades() ([]models.Trade, error) {
	return s.trades.ListTrades(FilterCriteria{})
}

func (s *exportServiceImpl) ExportTradesCSV(w io.Writer) error {
	trades, err := s.ExportTrades()
	if err != nil {
		return err
	}

	rows := make([]TradeExportRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, exportRow(t))
	}
	return gocsv.Marshal(&rows, w)
}

func exportRow(t models.Trade) TradeExportRow {
	row := TradeExportRow{
		TradeID:             t.TradeID,
		StartDatetime:       formatDBTime(t.StartDatetime),
		TradeType:           t.TradeType,
		Asset:               t.Asset,
		Direction:           t.Direction,
		Timeframe:           t.Timeframe,
		Session:             t.Session,
		EntryCandleType:     derefString(t.EntryCandleType),
		StrategyID:          derefString(t.StrategyID),
		StrategyName:        derefString(t.StrategyName),
		AccountID:           derefString(t.AccountID),
		AccountName:         derefString(t.AccountName),
		EntryPrice:          t.EntryPrice,
		ExitPrice:           floatCell(t.ExitPrice),
		TakeProfit:          floatCell(t.TakeProfit),
		StopLoss:            floatCell(t.StopLoss),
		LotSize:             floatCell(t.LotSize),
		AmountTraded:        floatCell(t.AmountTraded),
		Leverage:            floatCell(t.Leverage),
		TradeFees:           floatCell(t.TradeFees),
		RiskPercentage:      floatCell(t.RiskPercentage),
		ExpectedRiskReward:  floatCell(t.ExpectedRiskReward),
		ActualRiskReward:    floatCell(t.ActualRiskReward),
		PnL:                 floatCell(t.PnL),
		SlMovedToBreakeven:  t.SlMovedToBreakeven,
		IncreasedLotSize:    t.IncreasedLotSize,
		BalanceBeforeTrade:  floatCell(t.BalanceBeforeTrade),
		BalanceAfterTrade:   floatCell(t.BalanceAfterTrade),
		TrendMultiTimeframe: derefString(t.TrendMultiTimeframe),
		EntryReason:         validation.SanitizeForFormulaInjection(derefString(t.EntryReason)),
		ExitReason:          validation.SanitizeForFormulaInjection(derefString(t.ExitReason)),
		Notes:               validation.SanitizeForFormulaInjection(derefString(t.Notes)),
		Tags:                strings.Join(t.Tags, ", "),
	}
	if t.EndDatetime != nil {
		row.EndDatetime = formatDBTime(*t.EndDatetime)
	}
	return row
}

// ImportTradesCSV reads exported rows back in. Each row gets a freshly
// allocated id (exported ids are ignored so an import never collides), and
// tags are split on commas and synced per trade. Returns the number of trades
// created; the first bad row aborts the import.
func (s *exportServiceImpl) ImportTradesCSV(r io.Reader) (int, error) {
	var rows []TradeExportRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return 0, fmt.Errorf("%w: could not parse CSV: %v", ErrValidation, err)
	}

	created := 0
	for i, row := range rows {
		payload, err := importPayload(row)
		if err == nil {
			_, err = s.trades.CreateTrade(payload)
		}
		if err != nil {
			return created, fmt.Errorf("row %d: %w", i+1, err)
		}
		created++
	}

	logger.L.Info("Trades imported", "count", created)
	return created, nil
}

// importPayload converts a parsed CSV row into a trade payload. Optional
// numeric cells stay nil when empty so a manual pnl or absent exit survives
// the round trip.
func importPayload(row TradeExportRow) (models.TradePayload, error) {
	var badField string
	opt := func(field, cell string) *float64 {
		v, err := optionalFloat(cell)
		if err != nil && badField == "" {
			badField = field
		}
		return v
	}

	payload := models.TradePayload{
		StartDatetime:       row.StartDatetime,
		EndDatetime:         row.EndDatetime,
		TradeType:           row.TradeType,
		Asset:               row.Asset,
		Direction:           row.Direction,
		Timeframe:           row.Timeframe,
		Session:             row.Session,
		EntryCandleType:     row.EntryCandleType,
		StrategyID:          row.StrategyID,
		StrategyName:        row.StrategyName,
		AccountID:           row.AccountID,
		AccountName:         row.AccountName,
		EntryPrice:          &row.EntryPrice,
		ExitPrice:           opt("exit_price", row.ExitPrice),
		TakeProfit:          opt("take_profit", row.TakeProfit),
		StopLoss:            opt("stop_loss", row.StopLoss),
		LotSize:             opt("lot_size", row.LotSize),
		AmountTraded:        opt("amount_traded", row.AmountTraded),
		Leverage:            opt("leverage", row.Leverage),
		TradeFees:           opt("trade_fees", row.TradeFees),
		RiskPercentage:      opt("risk_percentage", row.RiskPercentage),
		PnL:                 opt("pnl", row.PnL),
		SlMovedToBreakeven:  row.SlMovedToBreakeven,
		IncreasedLotSize:    row.IncreasedLotSize,
		BalanceBeforeTrade:  opt("balance_before_trade", row.BalanceBeforeTrade),
		BalanceAfterTrade:   opt("balance_after_trade", row.BalanceAfterTrade),
		TrendMultiTimeframe: row.TrendMultiTimeframe,
		EntryReason:         row.EntryReason,
		ExitReason:          row.ExitReason,
		Notes:               row.Notes,
		Tags:                splitTags(row.Tags),
	}
	if badField != "" {
		return models.TradePayload{}, fmt.Errorf("%w: %s is not a number", ErrValidation, badField)
	}
	return payload, nil
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optionalFloat(cell string) (*float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func splitTags(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return []string{}
	}
	parts := strings.Split(joined, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
