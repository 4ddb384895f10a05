package services

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
)

// tradeIDPattern matches the numeric suffix of a trade identifier anywhere in
// the string, case-insensitively, so legacy ids like "TRD-42" or
// "seed-trd-7" still count toward the sequence after bulk seeding.
var tradeIDPattern = regexp.MustCompile(`(?i)trd-(\d+)`)

// parseTradeIDNumber extracts the numeric part of a trade id.
// Identifiers that do not match the pattern contribute 0.
func parseTradeIDNumber(tradeID string) int {
	m := tradeIDPattern.FindStringSubmatch(tradeID)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// nextTradeID scans all existing trade ids and returns trd-<max+1>, or trd-1
// for an empty store. There is no reservation step: two callers can compute
// the same id before either insert commits, and the UNIQUE constraint on
// trades.trade_id decides the race (see ErrDuplicateTradeID).
func nextTradeID(db *sql.DB) (string, error) {
	rows, err := db.Query(`SELECT trade_id FROM trades`)
	if err != nil {
		return "", fmt.Errorf("scanning trade ids: %w", err)
	}
	defer rows.Close()

	max := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		if n := parseTradeIDNumber(id); n > max {
			max = n
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("trd-%d", max+1), nil
}
