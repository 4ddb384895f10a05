package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

func tradeWithPnL(pnl float64, start time.Time) models.Trade {
	return models.Trade{PnL: &pnl, StartDatetime: start}
}

func TestTotalPnLTreatsNilAsZero(t *testing.T) {
	t.Parallel()

	trades := []models.Trade{
		tradeWithPnL(50, time.Now()),
		{}, // pnl never recorded
		tradeWithPnL(-20, time.Now()),
	}
	assert.Equal(t, 30.0, TotalPnL(trades))
}

func TestWinRateBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, WinRate(nil))

	now := time.Now()
	trades := []models.Trade{
		tradeWithPnL(10, now),
		tradeWithPnL(-5, now),
		tradeWithPnL(0, now), // break-even is not a win
		{},
	}
	rate := WinRate(trades)
	assert.Equal(t, 25.0, rate)
	assert.GreaterOrEqual(t, rate, 0.0)
	assert.LessOrEqual(t, rate, 100.0)
}

func TestRiskRewardLong(t *testing.T) {
	t.Parallel()

	// Long from 100, stop 95, target 110: risk 5, reward 10.
	rr := RiskReward(models.DirectionLong, 100, 110, 95)
	require.NotNil(t, rr)
	assert.Equal(t, 2.0, *rr)

	// Exit at 108 instead of target: reward 8 over risk 5.
	rr = RiskReward(models.DirectionLong, 100, 108, 95)
	require.NotNil(t, rr)
	assert.Equal(t, 1.6, *rr)
}

func TestRiskRewardShort(t *testing.T) {
	t.Parallel()

	// Short from 100, stop 105, target 90: risk 5, reward 10.
	rr := RiskReward(models.DirectionShort, 100, 90, 105)
	require.NotNil(t, rr)
	assert.Equal(t, 2.0, *rr)
}

func TestRiskRewardDegenerateRisk(t *testing.T) {
	t.Parallel()

	// Stop equal to entry: zero risk.
	assert.Nil(t, RiskReward(models.DirectionLong, 100, 110, 100))
	// Stop above entry on a long: inverted risk.
	assert.Nil(t, RiskReward(models.DirectionLong, 100, 110, 105))
	// Stop below entry on a short: inverted risk.
	assert.Nil(t, RiskReward(models.DirectionShort, 100, 90, 95))
}

func TestRiskRewardTruncatesToThreeDecimals(t *testing.T) {
	t.Parallel()

	// risk 3, reward 10: 3.3333... truncates, never rounds up.
	rr := RiskReward(models.DirectionLong, 100, 110, 97)
	require.NotNil(t, rr)
	assert.Equal(t, 3.333, *rr)
}

func TestPnLFromPrices(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 8.0, PnLFromPrices(models.DirectionLong, 100, 108, 1, 0))
	assert.Equal(t, 14.0, PnLFromPrices(models.DirectionLong, 100, 108, 2, 2))
	assert.Equal(t, -9.0, PnLFromPrices(models.DirectionShort, 100, 108, 1, 1))
}

func TestEquityCurveRunningSum(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }
	// Deliberately out of order.
	trades := []models.Trade{
		tradeWithPnL(-10, day(3)),
		tradeWithPnL(25, day(1)),
		tradeWithPnL(5, day(2)),
	}

	curve := EquityCurve(trades)
	require.Len(t, curve, 3)
	assert.Equal(t, 25.0, curve[0].Equity)
	assert.Equal(t, 30.0, curve[1].Equity)
	assert.Equal(t, 20.0, curve[2].Equity)
	// The final point equals the set's total.
	assert.Equal(t, TotalPnL(trades), curve[2].Equity)
}

func TestProfitFactor(t *testing.T) {
	t.Parallel()

	now := time.Now()

	assert.Nil(t, ProfitFactor(nil))
	assert.Nil(t, ProfitFactor([]models.Trade{{}}))

	onlyWins := ProfitFactor([]models.Trade{tradeWithPnL(10, now)})
	require.NotNil(t, onlyWins)
	assert.True(t, math.IsInf(*onlyWins, 1))

	mixed := ProfitFactor([]models.Trade{tradeWithPnL(30, now), tradeWithPnL(-10, now)})
	require.NotNil(t, mixed)
	assert.Equal(t, 3.0, *mixed)
}

func TestExpectancy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Expectancy(nil))

	now := time.Now()
	trades := []models.Trade{tradeWithPnL(10, now), tradeWithPnL(-4, now)}
	assert.Equal(t, 3.0, Expectancy(trades))
}

func TestBestStrategy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "—", BestStrategy(nil))
	assert.Equal(t, "—", BestStrategy([]models.Trade{tradeWithPnL(10, time.Now())}))

	breakout := "Breakout"
	reversal := "Reversal"
	trades := []models.Trade{
		{PnL: utils.Float64Ptr(10), StrategyName: &breakout},
		{PnL: utils.Float64Ptr(40), StrategyName: &reversal},
		{PnL: utils.Float64Ptr(-5), StrategyName: &breakout},
	}
	assert.Equal(t, "Reversal", BestStrategy(trades))
}

func TestBestStrategyTieBreaksAlphabetically(t *testing.T) {
	t.Parallel()

	alpha := "Alpha"
	beta := "Beta"
	trades := []models.Trade{
		{PnL: utils.Float64Ptr(10), StrategyName: &beta},
		{PnL: utils.Float64Ptr(10), StrategyName: &alpha},
	}
	assert.Equal(t, "Alpha", BestStrategy(trades))
}

func TestSessionBreakdown(t *testing.T) {
	t.Parallel()

	trades := []models.Trade{
		{Session: "London", PnL: utils.Float64Ptr(10)},
		{Session: "London", PnL: utils.Float64Ptr(-4)},
		{Session: "New York", PnL: utils.Float64Ptr(7)},
	}
	stats := SessionBreakdown(trades)
	require.Len(t, stats, 2)
	assert.Equal(t, models.DimensionStat{Trades: 2, PnL: 6}, stats["London"])
	assert.Equal(t, models.DimensionStat{Trades: 1, PnL: 7}, stats["New York"])
}

func TestCalendarRollupScopedToMonth(t *testing.T) {
	t.Parallel()

	trades := []models.Trade{
		tradeWithPnL(10, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)),
		tradeWithPnL(5, time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)),
		tradeWithPnL(-2, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)),
		// Different month, must be ignored even though its ISO week may
		// overlap the displayed one.
		tradeWithPnL(99, time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)),
	}

	result := CalendarRollup(trades, 2025, time.March)
	require.Len(t, result.Days, 2)
	assert.Equal(t, models.CalendarDay{Date: "2025-03-03", Trades: 2, PnL: 15}, result.Days[0])
	assert.Equal(t, models.CalendarDay{Date: "2025-03-10", Trades: 1, PnL: -2}, result.Days[1])

	require.Len(t, result.Weeks, 2)
	assert.Equal(t, models.CalendarWeek{Week: "2025-W10", Trades: 2, PnL: 15}, result.Weeks[0])
	assert.Equal(t, models.CalendarWeek{Week: "2025-W11", Trades: 1, PnL: -2}, result.Weeks[1])
}

func TestPeriodDelta(t *testing.T) {
	t.Parallel()

	now := time.Now()
	current := []models.Trade{tradeWithPnL(150, now)}
	previous := []models.Trade{tradeWithPnL(100, now)}

	result := PeriodDelta(current, previous)
	require.NotNil(t, result.DeltaPct)
	assert.Equal(t, 50.0, *result.DeltaPct)
}

func TestPeriodDeltaNilOnEmptyOrZeroPrevious(t *testing.T) {
	t.Parallel()

	now := time.Now()
	current := []models.Trade{tradeWithPnL(150, now)}

	assert.Nil(t, PeriodDelta(current, nil).DeltaPct)
	assert.Nil(t, PeriodDelta(current, []models.Trade{tradeWithPnL(0, now)}).DeltaPct)

	// Negative previous PnL uses its magnitude so the sign of the change is
	// meaningful.
	result := PeriodDelta(current, []models.Trade{tradeWithPnL(-100, now)})
	require.NotNil(t, result.DeltaPct)
	assert.Equal(t, 250.0, *result.DeltaPct)
}
