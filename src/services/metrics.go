package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

// The metrics family below is pure: every function takes an already-filtered
// in-memory trade set and has no persistence side effects. Empty or
// degenerate input always yields a defined zero/null/placeholder result,
// never an error and never NaN.

// rrPrecision is the display precision for risk:reward ratios.
const rrPrecision = 3

// pnlOf treats an unrecorded PnL as 0 for aggregation purposes.
func pnlOf(t models.Trade) float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// TotalPnL sums pnl over the set, nil entries counting as 0.
func TotalPnL(trades []models.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += pnlOf(t)
	}
	return sum
}

// WinRate returns the percentage of trades with positive PnL, always within
// [0,100] and 0 for an empty set.
func WinRate(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnL != nil && *t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)) * 100
}

// RiskReward computes reward/risk for a position. Returns nil when the
// computed risk is zero or inverted (stop on the wrong side of entry) or the
// ratio is not finite. The result is truncated to 3 decimals.
func RiskReward(direction string, entry, target, stop float64) *float64 {
	var risk, reward float64
	if direction == models.DirectionLong {
		risk = entry - stop
		reward = target - entry
	} else {
		risk = stop - entry
		reward = entry - target
	}
	if risk <= 0 {
		return nil
	}
	rr := reward / risk
	if math.IsNaN(rr) || math.IsInf(rr, 0) {
		return nil
	}
	rr = utils.TruncFloat(rr, rrPrecision)
	return &rr
}

// PnLFromPrices computes realized PnL from entry/exit prices, lot size and
// fees. Callers only invoke it when both entry and exit are known; a missing
// PnL stays unset so the user can record it manually.
func PnLFromPrices(direction string, entry, exit, lotSize, fees float64) float64 {
	var gross float64
	if direction == models.DirectionLong {
		gross = (exit - entry) * lotSize
	} else {
		gross = (entry - exit) * lotSize
	}
	return gross - fees
}

// AverageActualRR averages actual_risk_reward over the set, treating nil as
// 0, matching the dashboard headline. 0 for an empty set.
func AverageActualRR(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trades {
		if t.ActualRiskReward != nil {
			sum += *t.ActualRiskReward
		}
	}
	return sum / float64(len(trades))
}

// EquityCurve sorts the set ascending by start_datetime and emits one running
// sum point per trade.
func EquityCurve(trades []models.Trade) []models.EquityPoint {
	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDatetime.Before(sorted[j].StartDatetime)
	})

	curve := make([]models.EquityPoint, 0, len(sorted))
	var equity float64
	for _, t := range sorted {
		equity += pnlOf(t)
		curve = append(curve, models.EquityPoint{
			Date:   t.StartDatetime,
			PnL:    pnlOf(t),
			Equity: equity,
		})
	}
	return curve
}

// ProfitFactor returns grossProfit/grossLoss. +Inf when there are profits but
// no losses; nil when the set has neither.
func ProfitFactor(trades []models.Trade) *float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		p := pnlOf(t)
		if p > 0 {
			grossProfit += p
		} else if p < 0 {
			grossLoss += -p
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			inf := math.Inf(1)
			return &inf
		}
		return nil
	}
	pf := grossProfit / grossLoss
	return &pf
}

// Expectancy is average PnL per trade; 0 for an empty set.
func Expectancy(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	return TotalPnL(trades) / float64(len(trades))
}

// BestStrategy returns the strategy name with the highest summed PnL in the
// set, or the em-dash placeholder when the set is empty or carries no
// strategy names. Ties break alphabetically for determinism.
func BestStrategy(trades []models.Trade) string {
	sums := map[string]float64{}
	for _, t := range trades {
		if t.StrategyName == nil || *t.StrategyName == "" {
			continue
		}
		sums[*t.StrategyName] += pnlOf(t)
	}
	if len(sums) == 0 {
		return "—"
	}

	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if sums[name] > sums[best] {
			best = name
		}
	}
	return best
}

// BreakdownBy groups the set by an arbitrary dimension, counting trades and
// summing PnL per distinct value.
func BreakdownBy(trades []models.Trade, key func(models.Trade) string) map[string]models.DimensionStat {
	stats := map[string]models.DimensionStat{}
	for _, t := range trades {
		k := key(t)
		s := stats[k]
		s.Trades++
		s.PnL += pnlOf(t)
		stats[k] = s
	}
	return stats
}

// SessionBreakdown groups by trading session.
func SessionBreakdown(trades []models.Trade) map[string]models.DimensionStat {
	return BreakdownBy(trades, func(t models.Trade) string { return t.Session })
}

// AssetBreakdown groups by traded asset.
func AssetBreakdown(trades []models.Trade) map[string]models.DimensionStat {
	return BreakdownBy(trades, func(t models.Trade) string { return t.Asset })
}

// CalendarRollup groups trades by calendar day and ISO week within the given
// month. Trades outside the displayed month are ignored, including the part
// of a spanning week that falls in a neighboring month.
func CalendarRollup(trades []models.Trade, year int, month time.Month) models.CalendarResult {
	days := map[string]models.DimensionStat{}
	weeks := map[string]models.DimensionStat{}

	for _, t := range trades {
		d := t.StartDatetime.UTC()
		if d.Year() != year || d.Month() != month {
			continue
		}
		dayKey := d.Format("2006-01-02")
		isoYear, isoWeek := d.ISOWeek()
		weekKey := fmt.Sprintf("%d-W%02d", isoYear, isoWeek)

		ds := days[dayKey]
		ds.Trades++
		ds.PnL += pnlOf(t)
		days[dayKey] = ds

		ws := weeks[weekKey]
		ws.Trades++
		ws.PnL += pnlOf(t)
		weeks[weekKey] = ws
	}

	result := models.CalendarResult{Year: year, Month: int(month)}
	for key, s := range days {
		result.Days = append(result.Days, models.CalendarDay{Date: key, Trades: s.Trades, PnL: s.PnL})
	}
	sort.Slice(result.Days, func(i, j int) bool { return result.Days[i].Date < result.Days[j].Date })
	for key, s := range weeks {
		result.Weeks = append(result.Weeks, models.CalendarWeek{Week: key, Trades: s.Trades, PnL: s.PnL})
	}
	sort.Slice(result.Weeks, func(i, j int) bool { return result.Weeks[i].Week < result.Weeks[j].Week })
	return result
}

// PeriodDelta compares the current window's PnL against the preceding one.
// DeltaPct is nil when the previous window has no trades or zero PnL, so the
// dashboard never shows a misleading infinite change.
func PeriodDelta(current, previous []models.Trade) models.PeriodDeltaResult {
	result := models.PeriodDeltaResult{
		CurrentPnL:     TotalPnL(current),
		PreviousPnL:    TotalPnL(previous),
		CurrentTrades:  len(current),
		PreviousTrades: len(previous),
	}
	if result.PreviousTrades == 0 || result.PreviousPnL == 0 {
		return result
	}
	delta := (result.CurrentPnL - result.PreviousPnL) / math.Abs(result.PreviousPnL) * 100
	result.DeltaPct = &delta
	return result
}
