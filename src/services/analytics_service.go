package services

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

// Cache keys for computed analytics. Keys embed the filter fingerprint so
// differently-scoped dashboard cards never share an entry.
const (
	ckOverview     = "agg_overview_%s"
	ckSessions     = "agg_sessions_%s"
	ckAssets       = "agg_assets_%s"
	ckCalendar     = "agg_calendar_%d_%02d_%s"
	ckPeriodDelta  = "agg_period_delta_%s"
	ckFilterOption = "agg_filter_options"
)

type analyticsServiceImpl struct {
	db          *sql.DB
	trades      TradeService
	tags        TagService
	reportCache *cache.Cache
}

// NewAnalyticsService computes dashboard statistics over filtered trade sets,
// caching results until the next write invalidates them.
func NewAnalyticsService(db *sql.DB, trades TradeService, tags TagService, reportCache *cache.Cache) AnalyticsService {
	return &analyticsServiceImpl{db: db, trades: trades, tags: tags, reportCache: reportCache}
}

// fingerprint folds the criteria into a cache-key component. Every field
// occupies a fixed slot (empty when unset) so no two criteria shapes can
// collapse to the same key.
func fingerprint(c FilterCriteria) string {
	dateFrom, dateTo := "", ""
	if c.DateFrom != nil {
		dateFrom = formatDBTime(*c.DateFrom)
	}
	if c.DateTo != nil {
		dateTo = formatDBTime(*c.DateTo)
	}
	parts := []string{
		c.Asset, c.Session, c.StrategyID, c.AccountID, c.Direction, c.Tag, c.Search,
		c.ScopeAccountName, c.ScopeStrategyName, dateFrom, dateTo,
	}
	return strings.Join(parts, "|")
}

func (s *analyticsServiceImpl) Overview(criteria FilterCriteria) (*models.OverviewResult, error) {
	cacheKey := fmt.Sprintf(ckOverview, fingerprint(criteria))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.OverviewResult), nil
	}

	trades, err := s.trades.ListTrades(criteria)
	if err != nil {
		return nil, err
	}

	result := &models.OverviewResult{
		TotalPnL:    TotalPnL(trades),
		TradeCount:  len(trades),
		WinRate:     WinRate(trades),
		AvgRR:       AverageActualRR(trades),
		EquityCurve: EquityCurve(trades),
	}

	s.reportCache.Set(cacheKey, result, cache.DefaultExpiration)
	return result, nil
}

func (s *analyticsServiceImpl) SessionBreakdown(criteria FilterCriteria) (map[string]models.DimensionStat, error) {
	cacheKey := fmt.Sprintf(ckSessions, fingerprint(criteria))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(map[string]models.DimensionStat), nil
	}

	trades, err := s.trades.ListTrades(criteria)
	if err != nil {
		return nil, err
	}
	stats := SessionBreakdown(trades)
	s.reportCache.Set(cacheKey, stats, cache.DefaultExpiration)
	return stats, nil
}

func (s *analyticsServiceImpl) AssetBreakdown(criteria FilterCriteria) (map[string]models.DimensionStat, error) {
	cacheKey := fmt.Sprintf(ckAssets, fingerprint(criteria))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(map[string]models.DimensionStat), nil
	}

	trades, err := s.trades.ListTrades(criteria)
	if err != nil {
		return nil, err
	}
	stats := AssetBreakdown(trades)
	s.reportCache.Set(cacheKey, stats, cache.DefaultExpiration)
	return stats, nil
}

// Calendar rolls up the displayed month. The month bounds are applied as a
// date-range criterion so the month scoping composes with whatever global
// filters are active.
func (s *analyticsServiceImpl) Calendar(year int, month time.Month, criteria FilterCriteria) (*models.CalendarResult, error) {
	cacheKey := fmt.Sprintf(ckCalendar, year, int(month), fingerprint(criteria))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.CalendarResult), nil
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Millisecond)
	scoped := criteria
	if scoped.DateFrom == nil || scoped.DateFrom.Before(monthStart) {
		scoped.DateFrom = &monthStart
	}
	if scoped.DateTo == nil || scoped.DateTo.After(monthEnd) {
		scoped.DateTo = &monthEnd
	}

	trades, err := s.trades.ListTrades(scoped)
	if err != nil {
		return nil, err
	}
	result := CalendarRollup(trades, year, month)
	s.reportCache.Set(cacheKey, &result, cache.DefaultExpiration)
	return &result, nil
}

// PeriodDelta compares the criteria's date window against the immediately
// preceding window of equal length. Without a date range there is no window
// to compare, so both sides come back empty and the delta stays null.
func (s *analyticsServiceImpl) PeriodDelta(criteria FilterCriteria) (*models.PeriodDeltaResult, error) {
	cacheKey := fmt.Sprintf(ckPeriodDelta, fingerprint(criteria))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.PeriodDeltaResult), nil
	}

	if criteria.DateFrom == nil || criteria.DateTo == nil {
		return &models.PeriodDeltaResult{}, nil
	}

	current, err := s.trades.ListTrades(criteria)
	if err != nil {
		return nil, err
	}

	windowLen := criteria.DateTo.Sub(*criteria.DateFrom)
	prevTo := criteria.DateFrom.Add(-time.Millisecond)
	prevFrom := prevTo.Add(-windowLen)
	previousCriteria := criteria
	previousCriteria.DateFrom = &prevFrom
	previousCriteria.DateTo = &prevTo

	previous, err := s.trades.ListTrades(previousCriteria)
	if err != nil {
		return nil, err
	}

	result := PeriodDelta(current, previous)
	s.reportCache.Set(cacheKey, &result, cache.DefaultExpiration)
	return &result, nil
}

// FilterOptions lists the distinct values for the UI pickers. Denormalized
// account/strategy names that only exist on trades (their live row was
// renamed or deleted) are surfaced as pseudo-entries whose id is the name
// itself, so historical trades stay filterable.
func (s *analyticsServiceImpl) FilterOptions() (*models.FilterOptions, error) {
	if cached, found := s.reportCache.Get(ckFilterOption); found {
		return cached.(*models.FilterOptions), nil
	}

	assets, err := s.distinctTradeValues("asset")
	if err != nil {
		return nil, err
	}
	sessions, err := s.distinctTradeValues("session")
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.AllTagNames()
	if err != nil {
		return nil, err
	}

	options := &models.FilterOptions{
		Assets:     assets,
		Sessions:   sessions,
		Tags:       tags,
		Strategies: []models.StrategyOption{},
		Accounts:   []models.AccountOption{},
	}

	seenStrategies := map[string]bool{}
	rows, err := s.db.Query(`SELECT id, strategy_name FROM strategies ORDER BY strategy_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var opt models.StrategyOption
		if err := rows.Scan(&opt.StrategyID, &opt.StrategyName); err != nil {
			return nil, err
		}
		options.Strategies = append(options.Strategies, opt)
		seenStrategies[strings.ToLower(opt.StrategyName)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orphanStrategies, err := s.distinctTradeValues("strategy_name")
	if err != nil {
		return nil, err
	}
	for _, name := range orphanStrategies {
		if !seenStrategies[strings.ToLower(name)] {
			options.Strategies = append(options.Strategies, models.StrategyOption{StrategyID: name, StrategyName: name})
			seenStrategies[strings.ToLower(name)] = true
		}
	}

	seenAccounts := map[string]bool{}
	accountRows, err := s.db.Query(`SELECT id, account_name FROM accounts ORDER BY account_name ASC`)
	if err != nil {
		return nil, err
	}
	defer accountRows.Close()
	for accountRows.Next() {
		var opt models.AccountOption
		if err := accountRows.Scan(&opt.AccountID, &opt.AccountName); err != nil {
			return nil, err
		}
		options.Accounts = append(options.Accounts, opt)
		seenAccounts[strings.ToLower(opt.AccountName)] = true
	}
	if err := accountRows.Err(); err != nil {
		return nil, err
	}

	orphanAccounts, err := s.distinctTradeValues("account_name")
	if err != nil {
		return nil, err
	}
	for _, name := range orphanAccounts {
		if !seenAccounts[strings.ToLower(name)] {
			options.Accounts = append(options.Accounts, models.AccountOption{AccountID: name, AccountName: name})
			seenAccounts[strings.ToLower(name)] = true
		}
	}

	s.reportCache.Set(ckFilterOption, options, cache.DefaultExpiration)
	return options, nil
}

// InvalidateCache drops every cached analytics result. Called on any
// trade/account/strategy/tag write.
func (s *analyticsServiceImpl) InvalidateCache() {
	s.reportCache.Flush()
	logger.L.Debug("Analytics cache invalidated")
}

func (s *analyticsServiceImpl) distinctTradeValues(column string) ([]string, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM trades WHERE %s IS NOT NULL AND TRIM(%s) != ''`, column, column, column)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(values)
	return values, nil
}
