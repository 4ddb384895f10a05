package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTagName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Breakout", NormalizeTagName("  Breakout  "))
	assert.Equal(t, "London Open", NormalizeTagName("London    Open"))
	assert.Equal(t, "", NormalizeTagName("   "))
}

func TestSyncTagsForTradeRoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"Breakout", "News"}))

	got, err := tags.TagsForTrade("trd-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Breakout", "News"}, got)

	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Equal(t, []string{"trd-1"}, ids)
}

func TestSyncTagsForTradeIsIdempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"Breakout"}))
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"Breakout"}))

	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Equal(t, []string{"trd-1"}, ids)
}

func TestSyncTagsRemovesDroppedMemberships(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"Breakout", "News"}))
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"News"}))

	got, err := tags.TagsForTrade("trd-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"News"}, got)

	// The emptied tag row survives; only its membership is gone.
	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Empty(t, ids)

	names, err := tags.AllTagNames()
	require.NoError(t, err)
	assert.Contains(t, names, "Breakout")
}

func TestSyncTagsFirstSeenCasingWins(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	seedTradeRow(t, db, "trd-2", "2025-01-02T00:00:00.000Z")

	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"Confident"}))
	// Different casing and stray whitespace resolve to the existing tag.
	require.NoError(t, tags.SyncTagsForTrade("trd-2", []string{"confident "}))

	names, err := tags.AllTagNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Confident"}, names)

	ids, err := tags.TradeIDsForTag("CONFIDENT")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"trd-1", "trd-2"}, ids)
}

func TestSyncTagsDedupesWithinPayload(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"News", "news", " NEWS "}))

	got, err := tags.TagsForTrade("trd-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"News"}, got)
}

func TestRemoveTradeFromAllTags(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	seedTradeRow(t, db, "trd-2", "2025-01-02T00:00:00.000Z")
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"Breakout"}))
	require.NoError(t, tags.SyncTagsForTrade("trd-2", []string{"Breakout"}))

	require.NoError(t, tags.RemoveTradeFromAllTags("trd-1"))

	ids, err := tags.TradeIDsForTag("Breakout")
	require.NoError(t, err)
	assert.Equal(t, []string{"trd-2"}, ids)
}

func TestTradeIDsForUnknownTag(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	ids, err := tags.TradeIDsForTag("never-created")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTagsForTradesKeysEveryID(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	seedTradeRow(t, db, "trd-1", "2025-01-01T00:00:00.000Z")
	require.NoError(t, tags.SyncTagsForTrade("trd-1", []string{"Breakout"}))

	byTrade, err := tags.TagsForTrades([]string{"trd-1", "trd-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Breakout"}, byTrade["trd-1"])
	// Untagged ids still get an entry so callers never nil-check.
	got, ok := byTrade["trd-2"]
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCreateTagDuplicateName(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	_, err := tags.CreateTag("Breakout")
	require.NoError(t, err)

	_, err = tags.CreateTag("breakout")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestDeleteTag(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	tags := NewTagService(db)

	tag, err := tags.CreateTag("Breakout")
	require.NoError(t, err)

	require.NoError(t, tags.DeleteTag(tag.ID))
	assert.ErrorIs(t, tags.DeleteTag(tag.ID), ErrNotFound)
}
