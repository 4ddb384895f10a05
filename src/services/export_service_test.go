package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/utils"
)

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	source, _, _ := newTradeService(t)
	exporter := NewExportService(source)

	payload := basePayload()
	payload.PnL = utils.Float64Ptr(25)
	payload.Tags = []string{"Breakout", "News"}
	payload.Notes = "clean retest entry"
	_, err := source.CreateTrade(payload)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportTradesCSV(&buf))
	assert.Contains(t, buf.String(), "trade_id")
	assert.Contains(t, buf.String(), "Breakout, News")

	// Import into a separate journal that already holds a trade; imported
	// rows get fresh ids instead of the exported ones.
	target, targetTags, _ := newTradeService(t)
	_, err = target.CreateTrade(basePayload())
	require.NoError(t, err)

	importer := NewExportService(target)
	imported, err := importer.ImportTradesCSV(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	list, err := target.ListTrades(FilterCriteria{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	restored, err := target.GetTrade("trd-2")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", restored.Asset)
	require.NotNil(t, restored.PnL)
	assert.Equal(t, 25.0, *restored.PnL)
	// Empty optional cells come back as absent values, not zeros.
	assert.Nil(t, restored.ExitPrice)
	assert.Nil(t, restored.LotSize)
	assert.Nil(t, restored.StopLoss)
	assert.ElementsMatch(t, []string{"Breakout", "News"}, restored.Tags)

	ids, err := targetTags.TradeIDsForTag("News")
	require.NoError(t, err)
	assert.Equal(t, []string{"trd-2"}, ids)
}

func TestImportAbortsOnFirstBadRow(t *testing.T) {
	t.Parallel()

	trades, _, _ := newTradeService(t)
	importer := NewExportService(trades)

	csv := strings.Join([]string{
		"trade_id,start_datetime,trade_type,asset,direction,timeframe,session,entry_price,tags",
		"trd-1,2025-03-10T09:30:00.000Z,Real,EURUSD,Long,M15,London,1.1,",
		"trd-2,2025-03-11T09:30:00.000Z,Real,GBPUSD,Diagonal,M15,London,1.3,",
		"trd-3,2025-03-12T09:30:00.000Z,Real,USDJPY,Short,M15,London,150,",
	}, "\n")

	imported, err := importer.ImportTradesCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "row 2")
	assert.Equal(t, 1, imported)

	// Rows after the failure were never written.
	list, err := trades.ListTrades(FilterCriteria{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestImportRejectsNonNumericCell(t *testing.T) {
	t.Parallel()

	trades, _, _ := newTradeService(t)
	importer := NewExportService(trades)

	csv := strings.Join([]string{
		"trade_id,start_datetime,trade_type,asset,direction,timeframe,session,entry_price,pnl,tags",
		"trd-1,2025-03-10T09:30:00.000Z,Real,EURUSD,Long,M15,London,1.1,lots,",
	}, "\n")

	imported, err := importer.ImportTradesCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "row 1")
	assert.Contains(t, err.Error(), "pnl")
	assert.Equal(t, 0, imported)
}

func TestExportSanitizesFormulaPrefixes(t *testing.T) {
	t.Parallel()

	trades, _, _ := newTradeService(t)
	exporter := NewExportService(trades)

	payload := basePayload()
	payload.Notes = "=SUM(A1:A9)"
	_, err := trades.CreateTrade(payload)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportTradesCSV(&buf))
	assert.NotContains(t, buf.String(), ",=SUM")
	assert.Contains(t, buf.String(), "'=SUM")
}
