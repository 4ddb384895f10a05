package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

func newTradeService(t *testing.T) (TradeService, TagService, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	tags := NewTagService(db)
	return NewTradeService(db, tags), tags, db
}

func TestCreateTradeAllocatesSequentialIDs(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	first, err := trades.CreateTrade(basePayload())
	require.NoError(t, err)
	assert.Equal(t, "trd-1", first.TradeID)

	second, err := trades.CreateTrade(basePayload())
	require.NoError(t, err)
	assert.Equal(t, "trd-2", second.TradeID)
}

func TestCreateTradeValidation(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	missingAsset := basePayload()
	missingAsset.Asset = ""
	_, err := trades.CreateTrade(missingAsset)
	assert.ErrorIs(t, err, ErrValidation)

	badDirection := basePayload()
	badDirection.Direction = "Sideways"
	_, err = trades.CreateTrade(badDirection)
	assert.ErrorIs(t, err, ErrValidation)

	missingEntry := basePayload()
	missingEntry.EntryPrice = nil
	_, err = trades.CreateTrade(missingEntry)
	assert.ErrorIs(t, err, ErrValidation)

	badStart := basePayload()
	badStart.StartDatetime = "not-a-date"
	_, err = trades.CreateTrade(badStart)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateTradeComputesDerivedFields(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	payload := basePayload()
	payload.EntryPrice = utils.Float64Ptr(100)
	payload.StopLoss = utils.Float64Ptr(95)
	payload.TakeProfit = utils.Float64Ptr(110)
	payload.ExitPrice = utils.Float64Ptr(108)

	created, err := trades.CreateTrade(payload)
	require.NoError(t, err)

	require.NotNil(t, created.ExpectedRiskReward)
	assert.Equal(t, 2.0, *created.ExpectedRiskReward)
	require.NotNil(t, created.ActualRiskReward)
	assert.Equal(t, 1.6, *created.ActualRiskReward)
	// Lot size defaults to 1 and fees to 0 when unset.
	require.NotNil(t, created.PnL)
	assert.Equal(t, 8.0, *created.PnL)
}

func TestCreateTradeKeepsManualPnLWhenNoExit(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	payload := basePayload()
	payload.PnL = utils.Float64Ptr(42)

	created, err := trades.CreateTrade(payload)
	require.NoError(t, err)
	require.NotNil(t, created.PnL)
	assert.Equal(t, 42.0, *created.PnL)
}

func TestCreateTradeSyncsTags(t *testing.T) {
	t.Parallel()
	trades, tags, _ := newTradeService(t)

	payload := basePayload()
	payload.Tags = []string{"Breakout", "News"}

	created, err := trades.CreateTrade(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"Breakout", "News"}, created.Tags)

	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Equal(t, []string{created.TradeID}, ids)
}

func TestDuplicateTradeIDDetection(t *testing.T) {
	t.Parallel()
	_, _, db := newTradeService(t)

	// A lost allocation race surfaces as a UNIQUE violation on the insert;
	// that is what CreateTrade maps to ErrDuplicateTradeID.
	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	_, err := db.Exec(`INSERT INTO trades (trade_id, start_datetime, trade_type, asset, direction, timeframe, session, entry_price, created_at, updated_at)
		VALUES ('trd-1', '2025-01-02T00:00:00.000Z', 'Real', 'EURUSD', 'Long', 'M15', 'London', 1.1, '2025-01-02T00:00:00.000Z', '2025-01-02T00:00:00.000Z')`)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	_, err := trades.GetTrade("trd-99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTradeKeepsIDImmutable(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	created, err := trades.CreateTrade(basePayload())
	require.NoError(t, err)

	payload := basePayload()
	payload.Asset = "GBPUSD"
	updated, err := trades.UpdateTrade(created.TradeID, payload)
	require.NoError(t, err)

	assert.Equal(t, created.TradeID, updated.TradeID)
	assert.Equal(t, "GBPUSD", updated.Asset)
	assert.Equal(t, created.CreatedAt.Truncate(time.Millisecond), updated.CreatedAt.Truncate(time.Millisecond))
}

func TestUpdateTradeNilTagsLeavesTagsAlone(t *testing.T) {
	t.Parallel()
	trades, tags, _ := newTradeService(t)

	payload := basePayload()
	payload.Tags = []string{"Breakout"}
	created, err := trades.CreateTrade(payload)
	require.NoError(t, err)

	update := basePayload()
	update.Tags = nil
	updated, err := trades.UpdateTrade(created.TradeID, update)
	require.NoError(t, err)
	assert.Equal(t, []string{"Breakout"}, updated.Tags)

	// An explicit empty list clears them.
	update.Tags = []string{}
	updated, err = trades.UpdateTrade(created.TradeID, update)
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)

	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteTradeStripsTagMembership(t *testing.T) {
	t.Parallel()
	trades, tags, _ := newTradeService(t)

	payload := basePayload()
	payload.Tags = []string{"Breakout"}
	created, err := trades.CreateTrade(payload)
	require.NoError(t, err)

	require.NoError(t, trades.DeleteTrade(created.TradeID))

	_, err = trades.GetTrade(created.TradeID)
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Deleting again is not an error.
	assert.NoError(t, trades.DeleteTrade(created.TradeID))
}

func TestDeleteAllTradesClearsTagIndex(t *testing.T) {
	t.Parallel()
	trades, tags, _ := newTradeService(t)

	for i := 0; i < 3; i++ {
		payload := basePayload()
		payload.Tags = []string{"Breakout"}
		_, err := trades.CreateTrade(payload)
		require.NoError(t, err)
	}

	deleted, err := trades.DeleteAllTrades()
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Tags survive as empty shells.
	names, err := tags.AllTagNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Breakout"}, names)
}

func TestListTradesSortedByStartDescending(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	older := basePayload()
	older.StartDatetime = "2025-03-01T09:00:00Z"
	newer := basePayload()
	newer.StartDatetime = "2025-03-05T09:00:00Z"

	_, err := trades.CreateTrade(older)
	require.NoError(t, err)
	_, err = trades.CreateTrade(newer)
	require.NoError(t, err)

	list, err := trades.ListTrades(FilterCriteria{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].StartDatetime.After(list[1].StartDatetime))
}

func TestListTradesFilters(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	eur := basePayload()
	gbp := basePayload()
	gbp.Asset = "GBPUSD"
	gbp.Direction = models.DirectionShort
	gbp.Session = "New York"

	_, err := trades.CreateTrade(eur)
	require.NoError(t, err)
	_, err = trades.CreateTrade(gbp)
	require.NoError(t, err)

	byAsset, err := trades.ListTrades(FilterCriteria{Asset: "GBPUSD"})
	require.NoError(t, err)
	require.Len(t, byAsset, 1)
	assert.Equal(t, "GBPUSD", byAsset[0].Asset)

	// Criteria are intersected.
	none, err := trades.ListTrades(FilterCriteria{Asset: "GBPUSD", Direction: models.DirectionLong})
	require.NoError(t, err)
	assert.Empty(t, none)

	bySession, err := trades.ListTrades(FilterCriteria{Session: "New York", Direction: models.DirectionShort})
	require.NoError(t, err)
	assert.Len(t, bySession, 1)
}

func TestListTradesDateRangeInclusive(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	payload := basePayload()
	payload.StartDatetime = "2025-03-10T09:30:00Z"
	_, err := trades.CreateTrade(payload)
	require.NoError(t, err)

	exactly := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	list, err := trades.ListTrades(FilterCriteria{DateFrom: &exactly, DateTo: &exactly})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	after := exactly.Add(time.Second)
	list, err = trades.ListTrades(FilterCriteria{DateFrom: &after})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListTradesUnknownTagShortCircuits(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	_, err := trades.CreateTrade(basePayload())
	require.NoError(t, err)

	list, err := trades.ListTrades(FilterCriteria{Tag: "never-used"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListTradesTagFilterIntersectsOtherCriteria(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	tagged := basePayload()
	tagged.Tags = []string{"Breakout"}
	_, err := trades.CreateTrade(tagged)
	require.NoError(t, err)

	other := basePayload()
	other.Asset = "GBPUSD"
	other.Tags = []string{"Breakout"}
	_, err = trades.CreateTrade(other)
	require.NoError(t, err)

	list, err := trades.ListTrades(FilterCriteria{Tag: "Breakout", Asset: "EURUSD"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "EURUSD", list[0].Asset)
}

func TestTradeLinkageByName(t *testing.T) {
	t.Parallel()
	trades, _, db := newTradeService(t)

	_, err := db.Exec(`INSERT INTO accounts (id, account_name, account_type, created_at, updated_at)
		VALUES ('acc-1', 'Main', 'Live', '2025-01-01T00:00:00.000Z', '2025-01-01T00:00:00.000Z')`)
	require.NoError(t, err)

	payload := basePayload()
	payload.AccountName = "main"
	created, err := trades.CreateTrade(payload)
	require.NoError(t, err)

	require.NotNil(t, created.AccountID)
	assert.Equal(t, "acc-1", *created.AccountID)

	fetched, err := trades.GetTrade(created.TradeID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Account)
	assert.Equal(t, "Main", fetched.Account.AccountName)
}

func TestTradeKeepsDenormalizedNameWithoutLiveRow(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	payload := basePayload()
	payload.AccountName = "Deleted Account"
	created, err := trades.CreateTrade(payload)
	require.NoError(t, err)

	fetched, err := trades.GetTrade(created.TradeID)
	require.NoError(t, err)
	require.NotNil(t, fetched.AccountName)
	assert.Equal(t, "Deleted Account", *fetched.AccountName)
	// No live row, so no resolved reference.
	assert.Nil(t, fetched.Account)
}

func TestScopeFiltersComposeByIntersection(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	scoped := basePayload()
	scoped.AccountName = "Funded"
	_, err := trades.CreateTrade(scoped)
	require.NoError(t, err)

	other := basePayload()
	other.AccountName = "Demo"
	_, err = trades.CreateTrade(other)
	require.NoError(t, err)

	list, err := trades.ListTrades(FilterCriteria{ScopeAccountName: "Funded", Asset: "EURUSD"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = trades.ListTrades(FilterCriteria{ScopeAccountName: "Funded", Asset: "GBPUSD"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddTradeImages(t *testing.T) {
	t.Parallel()
	trades, _, _ := newTradeService(t)

	created, err := trades.CreateTrade(basePayload())
	require.NoError(t, err)

	now := time.Now().UTC()
	err = trades.AddTradeImages(created.TradeID, []models.TradeImage{
		{ImagePath: "/uploads/trades/a.png", UploadedAt: now},
		{ImagePath: "/uploads/trades/b.png", UploadedAt: now},
	})
	require.NoError(t, err)

	fetched, err := trades.GetTrade(created.TradeID)
	require.NoError(t, err)
	require.Len(t, fetched.Images, 2)
	assert.Equal(t, "/uploads/trades/a.png", fetched.Images[0].ImagePath)
	assert.Equal(t, "/uploads/trades/b.png", fetched.Images[1].ImagePath)

	err = trades.AddTradeImages("trd-404", []models.TradeImage{{ImagePath: "/x.png", UploadedAt: now}})
	assert.ErrorIs(t, err, ErrNotFound)
}
