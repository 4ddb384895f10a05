package models

import "time"

// Strategy is a named trading setup. Names are unique case-insensitively.
type Strategy struct {
	ID            string       `json:"id"`
	StrategyName  string       `json:"strategy_name"`
	StrategyNotes *string      `json:"strategy_notes"`
	CustomFields  CustomFields `json:"custom_fields"`
	Images        []TradeImage `json:"images"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// Trades linked to this strategy by id, populated on reads.
	Trades []Trade `json:"trades"`
}

// StrategyPayload is the client-supplied body for strategy create/update.
type StrategyPayload struct {
	StrategyName  string       `json:"strategy_name"`
	StrategyNotes string       `json:"strategy_notes"`
	CustomFields  CustomFields `json:"custom_fields"`
}
