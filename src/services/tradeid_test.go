package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeIDNumber(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"trd-1":      1,
		"trd-42":     42,
		"TRD-7":      7,
		"seed-trd-2": 2,
		"trade-9":    0,
		"":           0,
		"trd-":       0,
	}
	for id, want := range cases {
		assert.Equal(t, want, parseTradeIDNumber(id), "id %q", id)
	}
}

func TestNextTradeIDEmptyStore(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	next, err := nextTradeID(db)
	require.NoError(t, err)
	assert.Equal(t, "trd-1", next)
}

func TestNextTradeIDMixedLegacyIDs(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	for _, id := range []string{"trd-1", "trd-3", "TRD-7", "seed-trd-2"} {
		seedTradeRow(t, db, id, "2025-01-01T00:00:00.000Z")
	}

	next, err := nextTradeID(db)
	require.NoError(t, err)
	assert.Equal(t, "trd-8", next)
}

func TestNextTradeIDIgnoresGaps(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	seedTradeRow(t, db, "trd-5", "2025-01-01T00:00:00.000Z")

	next, err := nextTradeID(db)
	require.NoError(t, err)
	// Gaps from deleted trades are never reused backwards; the sequence only
	// moves forward from the maximum.
	assert.Equal(t, "trd-6", next)
}

func TestNextTradeIDDoesNotReserve(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	first, err := nextTradeID(db)
	require.NoError(t, err)
	second, err := nextTradeID(db)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
