package models

import "time"

// Tag is a label with a reverse index of member trade ids. The trade_ids list
// is the single source of truth for tag membership: trades do not store their
// tags, they are derived from this index at read time. A tag with no members
// is kept until the user deletes it.
type Tag struct {
	ID        string    `json:"id"`
	TagName   string    `json:"tag_name"`
	TradeIDs  []string  `json:"trade_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
