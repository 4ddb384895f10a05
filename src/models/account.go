package models

import "time"

// Account is a trading account trades are journaled against. Names are unique
// case-insensitively. account_type is a free-form label ("Live", "Demo",
// "Funded", ...).
type Account struct {
	ID             string       `json:"id"`
	AccountName    string       `json:"account_name"`
	AccountType    string       `json:"account_type"`
	AccountBalance *float64     `json:"account_balance"`
	InitialBalance *float64     `json:"initial_balance"`
	CustomFields   CustomFields `json:"custom_fields"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	// Trades linked to this account by id, populated on reads.
	Trades []Trade `json:"trades"`
}

// AccountPayload is the client-supplied body for account create/update.
type AccountPayload struct {
	AccountName    string       `json:"account_name"`
	AccountType    string       `json:"account_type"`
	AccountBalance *float64     `json:"account_balance"`
	InitialBalance *float64     `json:"initial_balance"`
	CustomFields   CustomFields `json:"custom_fields"`
}
