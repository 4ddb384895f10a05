package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
)

// tradeColumns is the canonical column order for trade reads and writes.
const tradeColumns = `trade_id, start_datetime, end_datetime, trade_type, asset, direction, timeframe, session,
	entry_candle_type, strategy_id, strategy_name, account_id, account_name,
	entry_price, exit_price, take_profit, stop_loss, lot_size, amount_traded, leverage, trade_fees,
	risk_percentage, expected_risk_reward, actual_risk_reward, pnl,
	sl_moved_to_breakeven, increased_lot_size, balance_before_trade, balance_after_trade,
	trend_multi_timeframe, entry_reason, exit_reason, notes, custom_fields, created_at, updated_at`

type tradeServiceImpl struct {
	db   *sql.DB
	tags TagService
}

// NewTradeService returns the trade record store. Every write keeps the tag
// index in sync; reads resolve tags and live account/strategy references.
func NewTradeService(db *sql.DB, tags TagService) TradeService {
	return &tradeServiceImpl{db: db, tags: tags}
}

// --- Filter/Scope Resolver ---

// buildTradeFilter translates filter criteria into a WHERE clause. The
// returned shortCircuit flag is set when a tag filter resolved to an empty
// membership: the overall result is empty and the trade store need not be
// queried at all.
func (s *tradeServiceImpl) buildTradeFilter(criteria FilterCriteria) (where string, args []any, shortCircuit bool, err error) {
	var conds []string

	if criteria.Asset != "" {
		conds = append(conds, "t.asset = ?")
		args = append(args, criteria.Asset)
	}
	if criteria.Session != "" {
		conds = append(conds, "t.session = ?")
		args = append(args, criteria.Session)
	}
	if criteria.StrategyID != "" {
		conds = append(conds, "t.strategy_id = ?")
		args = append(args, criteria.StrategyID)
	}
	if criteria.AccountID != "" {
		conds = append(conds, "t.account_id = ?")
		args = append(args, criteria.AccountID)
	}
	if criteria.Direction != "" {
		conds = append(conds, "t.direction = ?")
		args = append(args, criteria.Direction)
	}
	if criteria.DateFrom != nil {
		conds = append(conds, "t.start_datetime >= ?")
		args = append(args, formatDBTime(*criteria.DateFrom))
	}
	if criteria.DateTo != nil {
		conds = append(conds, "t.start_datetime <= ?")
		args = append(args, formatDBTime(*criteria.DateTo))
	}
	if criteria.Search != "" {
		needle := "%" + strings.ToLower(criteria.Search) + "%"
		conds = append(conds, "(LOWER(t.trade_id) LIKE ? OR LOWER(t.asset) LIKE ?)")
		args = append(args, needle, needle)
	}
	if criteria.ScopeAccountName != "" {
		conds = append(conds, "t.account_name = ?")
		args = append(args, criteria.ScopeAccountName)
	}
	if criteria.ScopeStrategyName != "" {
		conds = append(conds, "t.strategy_name = ?")
		args = append(args, criteria.ScopeStrategyName)
	}

	if criteria.Tag != "" {
		memberIDs, err := s.tags.TradeIDsForTag(criteria.Tag)
		if err != nil {
			return "", nil, false, err
		}
		if len(memberIDs) == 0 {
			return "", nil, true, nil
		}
		placeholders := strings.Repeat(",?", len(memberIDs))[1:]
		conds = append(conds, fmt.Sprintf("t.trade_id IN (%s)", placeholders))
		for _, id := range memberIDs {
			args = append(args, id)
		}
	}

	if len(conds) == 0 {
		return "", nil, false, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, false, nil
}

// ListTrades returns the filtered set sorted by start_datetime descending,
// with tags and live strategy/account references resolved.
func (s *tradeServiceImpl) ListTrades(criteria FilterCriteria) ([]models.Trade, error) {
	where, args, shortCircuit, err := s.buildTradeFilter(criteria)
	if err != nil {
		return nil, err
	}
	if shortCircuit {
		return []models.Trade{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s, s.strategy_name, a.account_name
		FROM trades t
		LEFT JOIN strategies s ON s.id = t.strategy_id
		LEFT JOIN accounts a ON a.id = t.account_id
		%s
		ORDER BY t.start_datetime DESC, t.trade_id DESC`, prefixColumns("t", tradeColumns), where)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		trade, err := scanTradeWithRefs(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *trade)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(trades))
	for i, t := range trades {
		ids[i] = t.TradeID
	}
	tagsByTrade, err := s.tags.TagsForTrades(ids)
	if err != nil {
		return nil, err
	}
	for i := range trades {
		trades[i].Tags = tagsByTrade[trades[i].TradeID]
	}
	return trades, nil
}

func (s *tradeServiceImpl) GetTrade(tradeID string) (*models.Trade, error) {
	query := fmt.Sprintf(`
		SELECT %s, s.strategy_name, a.account_name
		FROM trades t
		LEFT JOIN strategies s ON s.id = t.strategy_id
		LEFT JOIN accounts a ON a.id = t.account_id
		WHERE t.trade_id = ?`, prefixColumns("t", tradeColumns))

	trade, err := scanTradeWithRefs(s.db.QueryRow(query, tradeID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: trade %s", ErrNotFound, tradeID)
	}
	if err != nil {
		return nil, err
	}

	tags, err := s.tags.TagsForTrade(tradeID)
	if err != nil {
		return nil, err
	}
	trade.Tags = tags

	images, err := s.loadImages(tradeID)
	if err != nil {
		return nil, err
	}
	trade.Images = images
	return trade, nil
}

// CreateTrade validates the payload, allocates the next sequential id,
// persists the trade, and synchronizes the tag index. The id allocation and
// the insert are deliberately separate steps with no reservation; a lost race
// surfaces as ErrDuplicateTradeID for the client to retry.
func (s *tradeServiceImpl) CreateTrade(payload models.TradePayload) (*models.Trade, error) {
	trade, err := s.buildTrade(payload)
	if err != nil {
		return nil, err
	}

	tradeID, err := s.NextTradeID()
	if err != nil {
		return nil, err
	}
	trade.TradeID = tradeID
	now := time.Now().UTC()
	trade.CreatedAt = now
	trade.UpdatedAt = now

	if err := s.insertTrade(trade); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTradeID, tradeID)
		}
		return nil, err
	}

	if err := s.tags.SyncTagsForTrade(trade.TradeID, payload.Tags); err != nil {
		return nil, fmt.Errorf("syncing tags for %s: %w", trade.TradeID, err)
	}
	trade.Tags = normalizedTagList(payload.Tags)

	logger.L.Info("Trade created", "tradeID", trade.TradeID, "asset", trade.Asset)
	return trade, nil
}

// UpdateTrade rewrites the mutable fields of an existing trade (trade_id is
// immutable) and re-syncs the tag index only when the payload carries a tag
// list.
func (s *tradeServiceImpl) UpdateTrade(tradeID string, payload models.TradePayload) (*models.Trade, error) {
	existing, err := s.GetTrade(tradeID)
	if err != nil {
		return nil, err
	}

	trade, err := s.buildTrade(payload)
	if err != nil {
		return nil, err
	}
	trade.TradeID = existing.TradeID
	trade.CreatedAt = existing.CreatedAt
	trade.UpdatedAt = time.Now().UTC()

	if err := s.updateTrade(trade); err != nil {
		return nil, err
	}

	if payload.Tags != nil {
		if err := s.tags.SyncTagsForTrade(trade.TradeID, payload.Tags); err != nil {
			return nil, fmt.Errorf("syncing tags for %s: %w", trade.TradeID, err)
		}
		trade.Tags = normalizedTagList(payload.Tags)
	} else {
		trade.Tags = existing.Tags
	}
	trade.Images = existing.Images

	logger.L.Info("Trade updated", "tradeID", trade.TradeID)
	return trade, nil
}

// DeleteTrade removes the trade and strips its id from every tag's
// membership. Deleting an id that is already gone is not an error; the tag
// cleanup still runs so a half-deleted trade converges.
func (s *tradeServiceImpl) DeleteTrade(tradeID string) error {
	if _, err := s.db.Exec(`DELETE FROM trade_images WHERE trade_id = ?`, tradeID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM trades WHERE trade_id = ?`, tradeID); err != nil {
		return err
	}
	if err := s.tags.RemoveTradeFromAllTags(tradeID); err != nil {
		return err
	}
	logger.L.Info("Trade deleted", "tradeID", tradeID)
	return nil
}

// DeleteAllTrades wipes the trade store and clears every tag membership in a
// single transaction, so the tag index never ends up holding ids for trades
// that are gone.
func (s *tradeServiceImpl) DeleteAllTrades() (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM trade_images`); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM trades`)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`UPDATE tags SET trade_ids = '[]', updated_at = ?`, formatDBTime(time.Now())); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	deleted, _ := res.RowsAffected()
	logger.L.Info("All trades deleted", "deletedCount", deleted)
	return deleted, nil
}

func (s *tradeServiceImpl) NextTradeID() (string, error) {
	return nextTradeID(s.db)
}

// AddTradeImages appends attachments to a trade, preserving upload order.
func (s *tradeServiceImpl) AddTradeImages(tradeID string, images []models.TradeImage) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM trades WHERE trade_id = ?`, tradeID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: trade %s", ErrNotFound, tradeID)
	}

	var maxPos sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(position) FROM trade_images WHERE trade_id = ?`, tradeID).Scan(&maxPos); err != nil {
		return err
	}
	pos := int(maxPos.Int64)
	for _, img := range images {
		pos++
		_, err := s.db.Exec(
			`INSERT INTO trade_images (trade_id, image_path, uploaded_at, position) VALUES (?, ?, ?, ?)`,
			tradeID, img.ImagePath, formatDBTime(img.UploadedAt), pos)
		if err != nil {
			return err
		}
	}
	return nil
}

// --- internals ---

// buildTrade validates and converts a payload into a trade entity, resolving
// account/strategy linkage and computing the derived fields. No identity or
// timestamps are set here.
func (s *tradeServiceImpl) buildTrade(payload models.TradePayload) (*models.Trade, error) {
	for field, value := range map[string]string{
		"trade_type": payload.TradeType,
		"asset":      payload.Asset,
		"direction":  payload.Direction,
		"timeframe":  payload.Timeframe,
		"session":    payload.Session,
	} {
		if err := validation.ValidateStringNotEmpty(value, field); err != nil {
			return nil, fmt.Errorf("%w: %s is required", ErrValidation, field)
		}
	}
	if err := validation.ValidateOneOf(payload.Direction, "direction", models.DirectionLong, models.DirectionShort); err != nil {
		return nil, fmt.Errorf("%w: direction must be Long or Short", ErrValidation)
	}
	if payload.EntryPrice == nil {
		return nil, fmt.Errorf("%w: entry_price is required", ErrValidation)
	}

	start, err := validation.ValidateDatetime(payload.StartDatetime, "start_datetime")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var end *time.Time
	if strings.TrimSpace(payload.EndDatetime) != "" {
		t, err := validation.ValidateDatetime(payload.EndDatetime, "end_datetime")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		end = &t
	}

	for field, v := range map[string]*float64{
		"exit_price": payload.ExitPrice, "take_profit": payload.TakeProfit,
		"stop_loss": payload.StopLoss, "lot_size": payload.LotSize,
		"trade_fees": payload.TradeFees, "pnl": payload.PnL,
	} {
		if err := validation.ValidateFinite(v, field); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	strategyID, strategyName, err := s.resolveLinkage("strategies", "strategy_name", payload.StrategyID, payload.StrategyName)
	if err != nil {
		return nil, err
	}
	accountID, accountName, err := s.resolveLinkage("accounts", "account_name", payload.AccountID, payload.AccountName)
	if err != nil {
		return nil, err
	}

	trade := &models.Trade{
		StartDatetime:       start,
		EndDatetime:         end,
		TradeType:           payload.TradeType,
		Asset:               payload.Asset,
		Direction:           payload.Direction,
		Timeframe:           payload.Timeframe,
		Session:             payload.Session,
		EntryCandleType:     optionalString(payload.EntryCandleType),
		StrategyID:          strategyID,
		StrategyName:        strategyName,
		AccountID:           accountID,
		AccountName:         accountName,
		EntryPrice:          *payload.EntryPrice,
		ExitPrice:           payload.ExitPrice,
		TakeProfit:          payload.TakeProfit,
		StopLoss:            payload.StopLoss,
		LotSize:             payload.LotSize,
		AmountTraded:        payload.AmountTraded,
		Leverage:            payload.Leverage,
		TradeFees:           payload.TradeFees,
		RiskPercentage:      payload.RiskPercentage,
		PnL:                 payload.PnL,
		SlMovedToBreakeven:  payload.SlMovedToBreakeven,
		IncreasedLotSize:    payload.IncreasedLotSize,
		BalanceBeforeTrade:  payload.BalanceBeforeTrade,
		BalanceAfterTrade:   payload.BalanceAfterTrade,
		TrendMultiTimeframe: optionalString(payload.TrendMultiTimeframe),
		EntryReason:         optionalSanitized(payload.EntryReason),
		ExitReason:          optionalSanitized(payload.ExitReason),
		Notes:               optionalSanitized(payload.Notes),
		CustomFields:        payload.CustomFields,
	}

	applyDerivedFields(trade)
	return trade, nil
}

// applyDerivedFields computes expected/actual risk:reward and PnL from the
// recorded prices. A client-supplied PnL is kept only when entry/exit cannot
// produce one, preserving the manual-entry escape hatch.
func applyDerivedFields(t *models.Trade) {
	if t.StopLoss != nil && t.TakeProfit != nil {
		t.ExpectedRiskReward = RiskReward(t.Direction, t.EntryPrice, *t.TakeProfit, *t.StopLoss)
	}
	if t.StopLoss != nil && t.ExitPrice != nil {
		t.ActualRiskReward = RiskReward(t.Direction, t.EntryPrice, *t.ExitPrice, *t.StopLoss)
	}
	if t.ExitPrice != nil {
		lot := 1.0
		if t.LotSize != nil {
			lot = *t.LotSize
		}
		fees := 0.0
		if t.TradeFees != nil {
			fees = *t.TradeFees
		}
		pnl := PnLFromPrices(t.Direction, t.EntryPrice, *t.ExitPrice, lot, fees)
		t.PnL = &pnl
	}
}

// resolveLinkage resolves a weak account/strategy reference: an explicit id
// wins; otherwise a case-insensitive name lookup. The denormalized name
// snapshot is the payload name, falling back to the live row's name.
func (s *tradeServiceImpl) resolveLinkage(table, nameColumn, id, name string) (*string, *string, error) {
	name = strings.TrimSpace(name)

	if id == "" && name != "" {
		query := fmt.Sprintf(`SELECT id FROM %s WHERE %s = ? COLLATE NOCASE`, table, nameColumn)
		err := s.db.QueryRow(query, name).Scan(&id)
		if err != nil && err != sql.ErrNoRows {
			return nil, nil, err
		}
	}

	if id != "" && name == "" {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, nameColumn, table)
		err := s.db.QueryRow(query, id).Scan(&name)
		if err != nil && err != sql.ErrNoRows {
			return nil, nil, err
		}
	}

	return optionalString(id), optionalString(name), nil
}

func (s *tradeServiceImpl) insertTrade(t *models.Trade) error {
	_, err := s.db.Exec(fmt.Sprintf(`
		INSERT INTO trades (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tradeColumns),
		tradeWriteArgs(t)...)
	return err
}

func (s *tradeServiceImpl) updateTrade(t *models.Trade) error {
	args := tradeWriteArgs(t)
	// move trade_id from the front to the WHERE position
	args = append(args[1:], args[0])
	_, err := s.db.Exec(`
		UPDATE trades SET
			start_datetime = ?, end_datetime = ?, trade_type = ?, asset = ?, direction = ?, timeframe = ?, session = ?,
			entry_candle_type = ?, strategy_id = ?, strategy_name = ?, account_id = ?, account_name = ?,
			entry_price = ?, exit_price = ?, take_profit = ?, stop_loss = ?, lot_size = ?, amount_traded = ?, leverage = ?, trade_fees = ?,
			risk_percentage = ?, expected_risk_reward = ?, actual_risk_reward = ?, pnl = ?,
			sl_moved_to_breakeven = ?, increased_lot_size = ?, balance_before_trade = ?, balance_after_trade = ?,
			trend_multi_timeframe = ?, entry_reason = ?, exit_reason = ?, notes = ?, custom_fields = ?, created_at = ?, updated_at = ?
		WHERE trade_id = ?`, args...)
	return err
}

func (s *tradeServiceImpl) loadImages(tradeID string) ([]models.TradeImage, error) {
	rows, err := s.db.Query(
		`SELECT image_path, uploaded_at FROM trade_images WHERE trade_id = ? ORDER BY position ASC, id ASC`, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.TradeImage{}
	for rows.Next() {
		var (
			img      models.TradeImage
			uploaded string
		)
		if err := rows.Scan(&img.ImagePath, &uploaded); err != nil {
			return nil, err
		}
		img.UploadedAt = parseDBTime(uploaded)
		images = append(images, img)
	}
	return images, rows.Err()
}

// tradeWriteArgs flattens a trade into the tradeColumns order.
func tradeWriteArgs(t *models.Trade) []any {
	return []any{
		t.TradeID,
		formatDBTime(t.StartDatetime),
		nullableTime(t.EndDatetime),
		t.TradeType, t.Asset, t.Direction, t.Timeframe, t.Session,
		nullableString(t.EntryCandleType),
		nullableString(t.StrategyID), nullableString(t.StrategyName),
		nullableString(t.AccountID), nullableString(t.AccountName),
		t.EntryPrice,
		nullableFloat(t.ExitPrice), nullableFloat(t.TakeProfit), nullableFloat(t.StopLoss),
		nullableFloat(t.LotSize), nullableFloat(t.AmountTraded), nullableFloat(t.Leverage), nullableFloat(t.TradeFees),
		nullableFloat(t.RiskPercentage), nullableFloat(t.ExpectedRiskReward), nullableFloat(t.ActualRiskReward), nullableFloat(t.PnL),
		t.SlMovedToBreakeven, t.IncreasedLotSize,
		nullableFloat(t.BalanceBeforeTrade), nullableFloat(t.BalanceAfterTrade),
		nullableString(t.TrendMultiTimeframe),
		nullableString(t.EntryReason), nullableString(t.ExitReason), nullableString(t.Notes),
		encodeCustomFields(t.CustomFields),
		formatDBTime(t.CreatedAt), formatDBTime(t.UpdatedAt),
	}
}

// scanTradeWithRefs scans a row of tradeColumns plus the joined live
// strategy/account names.
func scanTradeWithRefs(row interface{ Scan(...any) error }) (*models.Trade, error) {
	var (
		t                                                    models.Trade
		startStr, createdStr, updatedStr                     string
		endStr                                               sql.NullString
		entryCandle, strategyID, strategyName                sql.NullString
		accountID, accountName                               sql.NullString
		exitPrice, takeProfit, stopLoss, lotSize             sql.NullFloat64
		amountTraded, leverage, tradeFees, riskPct           sql.NullFloat64
		expectedRR, actualRR, pnl, balanceBefore, balanceAft sql.NullFloat64
		trendMTF, entryReason, exitReason, notes, customJSON sql.NullString
		liveStrategyName, liveAccountName                    sql.NullString
	)

	err := row.Scan(
		&t.TradeID, &startStr, &endStr, &t.TradeType, &t.Asset, &t.Direction, &t.Timeframe, &t.Session,
		&entryCandle, &strategyID, &strategyName, &accountID, &accountName,
		&t.EntryPrice, &exitPrice, &takeProfit, &stopLoss, &lotSize, &amountTraded, &leverage, &tradeFees,
		&riskPct, &expectedRR, &actualRR, &pnl,
		&t.SlMovedToBreakeven, &t.IncreasedLotSize, &balanceBefore, &balanceAft,
		&trendMTF, &entryReason, &exitReason, &notes, &customJSON, &createdStr, &updatedStr,
		&liveStrategyName, &liveAccountName,
	)
	if err != nil {
		return nil, err
	}

	t.StartDatetime = parseDBTime(startStr)
	if endStr.Valid {
		end := parseDBTime(endStr.String)
		t.EndDatetime = &end
	}
	t.EntryCandleType = nullStringPtr(entryCandle)
	t.StrategyID = nullStringPtr(strategyID)
	t.StrategyName = nullStringPtr(strategyName)
	t.AccountID = nullStringPtr(accountID)
	t.AccountName = nullStringPtr(accountName)
	t.ExitPrice = nullFloatPtr(exitPrice)
	t.TakeProfit = nullFloatPtr(takeProfit)
	t.StopLoss = nullFloatPtr(stopLoss)
	t.LotSize = nullFloatPtr(lotSize)
	t.AmountTraded = nullFloatPtr(amountTraded)
	t.Leverage = nullFloatPtr(leverage)
	t.TradeFees = nullFloatPtr(tradeFees)
	t.RiskPercentage = nullFloatPtr(riskPct)
	t.ExpectedRiskReward = nullFloatPtr(expectedRR)
	t.ActualRiskReward = nullFloatPtr(actualRR)
	t.PnL = nullFloatPtr(pnl)
	t.BalanceBeforeTrade = nullFloatPtr(balanceBefore)
	t.BalanceAfterTrade = nullFloatPtr(balanceAft)
	t.TrendMultiTimeframe = nullStringPtr(trendMTF)
	t.EntryReason = nullStringPtr(entryReason)
	t.ExitReason = nullStringPtr(exitReason)
	t.Notes = nullStringPtr(notes)
	t.CreatedAt = parseDBTime(createdStr)
	t.UpdatedAt = parseDBTime(updatedStr)

	if customJSON.Valid && customJSON.String != "" {
		if err := json.Unmarshal([]byte(customJSON.String), &t.CustomFields); err != nil {
			return nil, fmt.Errorf("trade %s has corrupt custom_fields: %w", t.TradeID, err)
		}
	}

	if t.StrategyID != nil && liveStrategyName.Valid {
		t.Strategy = &models.StrategyRef{StrategyID: *t.StrategyID, StrategyName: liveStrategyName.String}
	}
	if t.AccountID != nil && liveAccountName.Valid {
		t.Account = &models.AccountRef{AccountID: *t.AccountID, AccountName: liveAccountName.String}
	}
	return &t, nil
}

// prefixColumns qualifies each column in a comma-separated list with a table
// alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func encodeCustomFields(cf models.CustomFields) any {
	if cf == nil {
		return nil
	}
	encoded, err := json.Marshal(cf)
	if err != nil {
		return nil
	}
	return string(encoded)
}

// normalizedTagList mirrors the tag sync normalization for the response body.
func normalizedTagList(tagNames []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, raw := range tagNames {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalSanitized(s string) *string {
	return optionalString(validation.SanitizeText(s))
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDBTime(*t)
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
