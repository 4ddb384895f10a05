package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/models"
)

func TestListAccountsEmbedsTrades(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	h := NewAccountHandler(env.db, env.trades, env.analytics)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"account_name": "Main"}`))
	h.HandleCreateAccount(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	payload := baseTradePayload()
	payload.AccountID = created.ID
	_, err := env.trades.CreateTrade(payload)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"account_name": "Spare"}`))
	h.HandleCreateAccount(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleListAccounts(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var accounts []models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 2)

	// Sorted by name; each row carries its trades, empty when unlinked.
	assert.Equal(t, "Main", accounts[0].AccountName)
	require.Len(t, accounts[0].Trades, 1)
	assert.Equal(t, "trd-1", accounts[0].Trades[0].TradeID)
	assert.Equal(t, "Spare", accounts[1].AccountName)
	require.NotNil(t, accounts[1].Trades)
	assert.Empty(t, accounts[1].Trades)
}
