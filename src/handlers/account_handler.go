// backend/src/handlers/account_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

const maxNameLength = 120

type AccountHandler struct {
	db               *sql.DB
	tradeService     services.TradeService
	analyticsService services.AnalyticsService
}

func NewAccountHandler(db *sql.DB, tradeService services.TradeService, analyticsService services.AnalyticsService) *AccountHandler {
	return &AccountHandler{db: db, tradeService: tradeService, analyticsService: analyticsService}
}

func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`SELECT id, account_name, account_type, account_balance, initial_balance, custom_fields, created_at, updated_at
		FROM accounts ORDER BY account_name COLLATE NOCASE ASC`)
	if err != nil {
		logger.L.Error("Failed to list accounts", "error", err)
		utils.SendJSONError(w, "Failed to retrieve accounts", http.StatusInternalServerError)
		return
	}
	accounts := []models.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			logger.L.Error("Account row scan error", "error", err)
			continue
		}
		accounts = append(accounts, *acct)
	}
	// Release the connection before the per-account trade queries; the sqlite
	// pool holds a single connection.
	rows.Close()

	for i := range accounts {
		trades, err := h.tradeService.ListTrades(services.FilterCriteria{AccountID: accounts[i].ID})
		if err != nil {
			logger.L.Error("Failed to fetch account trades", "accountID", accounts[i].ID, "error", err)
			utils.SendJSONError(w, "Failed to retrieve accounts", http.StatusInternalServerError)
			return
		}
		accounts[i].Trades = trades
	}
	utils.SendJSON(w, accounts, http.StatusOK)
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	row := h.db.QueryRow(`SELECT id, account_name, account_type, account_balance, initial_balance, custom_fields, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	acct, err := scanAccount(row)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "Account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to fetch account", "accountID", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve account", http.StatusInternalServerError)
		return
	}

	trades, err := h.tradeService.ListTrades(services.FilterCriteria{AccountID: id})
	if err != nil {
		logger.L.Error("Failed to fetch account trades", "accountID", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve account trades", http.StatusInternalServerError)
		return
	}
	acct.Trades = trades

	utils.SendJSON(w, acct, http.StatusOK)
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeAccountPayload(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	acct := models.Account{
		ID:             uuid.NewString(),
		AccountName:    payload.AccountName,
		AccountType:    payload.AccountType,
		AccountBalance: payload.AccountBalance,
		InitialBalance: payload.InitialBalance,
		CustomFields:   payload.CustomFields,
		Trades:         []models.Trade{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := h.db.Exec(`INSERT INTO accounts (id, account_name, account_type, account_balance, initial_balance, custom_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.AccountName, acct.AccountType, acct.AccountBalance, acct.InitialBalance,
		encodeCustomFieldsJSON(acct.CustomFields), services.FormatDBTime(now), services.FormatDBTime(now))
	if err != nil {
		if isUniqueConstraint(err) {
			utils.SendJSONError(w, "An account with this name already exists. Please choose a different name", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create account", "error", err)
		utils.SendJSONError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, acct, http.StatusCreated)
}

func (h *AccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	payload, ok := decodeAccountPayload(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	res, err := h.db.Exec(`UPDATE accounts SET account_name = ?, account_type = ?, account_balance = ?, initial_balance = ?, custom_fields = ?, updated_at = ?
		WHERE id = ?`,
		payload.AccountName, payload.AccountType, payload.AccountBalance, payload.InitialBalance,
		encodeCustomFieldsJSON(payload.CustomFields), services.FormatDBTime(now), id)
	if err != nil {
		if isUniqueConstraint(err) {
			utils.SendJSONError(w, "An account with this name already exists. Please choose a different name", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to update account", "accountID", id, "error", err)
		utils.SendJSONError(w, "Failed to update account", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		utils.SendJSONError(w, "Account not found", http.StatusNotFound)
		return
	}

	h.analyticsService.InvalidateCache()
	h.HandleGetAccount(w, r)
}

func (h *AccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Idempotent: deleting an id that is already gone still reports ok.
	if _, err := h.db.Exec(`DELETE FROM accounts WHERE id = ?`, id); err != nil {
		logger.L.Error("Failed to delete account", "accountID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}

	// Linked trades keep their denormalized account_name snapshot; the live
	// reference simply stops resolving.
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func decodeAccountPayload(w http.ResponseWriter, r *http.Request) (models.AccountPayload, bool) {
	var payload models.AccountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return payload, false
	}
	payload.AccountName = validation.SanitizeText(strings.TrimSpace(payload.AccountName))
	payload.AccountType = validation.SanitizeText(strings.TrimSpace(payload.AccountType))
	if err := validation.ValidateStringNotEmpty(payload.AccountName, "account_name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return payload, false
	}
	if err := validation.ValidateStringMaxLength(payload.AccountName, maxNameLength, "account_name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return payload, false
	}
	if payload.AccountType == "" {
		payload.AccountType = "Live"
	}
	return payload, true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		acct             models.Account
		customFieldsJSON sql.NullString
		createdAt        string
		updatedAt        string
	)
	if err := row.Scan(&acct.ID, &acct.AccountName, &acct.AccountType, &acct.AccountBalance,
		&acct.InitialBalance, &customFieldsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if customFieldsJSON.Valid && customFieldsJSON.String != "" {
		if err := json.Unmarshal([]byte(customFieldsJSON.String), &acct.CustomFields); err != nil {
			logger.L.Warn("Ignoring malformed custom_fields on account", "accountID", acct.ID, "error", err)
		}
	}
	acct.Trades = []models.Trade{}
	acct.CreatedAt = services.ParseDBTime(createdAt)
	acct.UpdatedAt = services.ParseDBTime(updatedAt)
	return &acct, nil
}

func encodeCustomFieldsJSON(fields models.CustomFields) string {
	if len(fields) == 0 {
		return "{}"
	}
	b, err := json.Marshal(fields)
	if err != nil {
		logger.L.Warn("Failed to encode custom fields", "error", err)
		return "{}"
	}
	return string(b)
}

func isUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
