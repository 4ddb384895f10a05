// backend/src/services/interfaces.go
package services

import (
	"errors"
	"mime/multipart"
	"time"

	"github.com/username/tradejournal/backend/src/models"
)

// Common service errors. Handlers translate these into HTTP statuses;
// services themselves never swallow persistence failures.
var (
	// ErrNotFound: the addressed trade/account/strategy/tag no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrValidation: a required field is missing or malformed; nothing was
	// written.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateName: account/strategy/tag name collision (case-insensitive).
	ErrDuplicateName = errors.New("duplicate name")
	// ErrDuplicateTradeID: two concurrent creates computed the same next id
	// and the UNIQUE constraint rejected the loser. The client re-fetches
	// the next id and retries.
	ErrDuplicateTradeID = errors.New("duplicate trade id")
)

// FilterCriteria is the full set of UI filter selections. Zero values impose
// no constraint; populated criteria are AND-combined. The Scope* fields are
// the per-dashboard-card pickers and compose with the global filters by
// intersection.
type FilterCriteria struct {
	Asset      string
	Session    string
	StrategyID string
	AccountID  string
	Direction  string
	Tag        string
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time

	ScopeAccountName  string
	ScopeStrategyName string
}

// IsZero reports whether no criterion is set at all.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// TradeService owns the trade record store: id allocation, derived-field
// computation, persistence, and keeping the tag index in sync on every write.
type TradeService interface {
	ListTrades(criteria FilterCriteria) ([]models.Trade, error)
	GetTrade(tradeID string) (*models.Trade, error)
	CreateTrade(payload models.TradePayload) (*models.Trade, error)
	UpdateTrade(tradeID string, payload models.TradePayload) (*models.Trade, error)
	DeleteTrade(tradeID string) error
	DeleteAllTrades() (int64, error)

	// NextTradeID previews the next sequential id without reserving it.
	NextTradeID() (string, error)

	AddTradeImages(tradeID string, images []models.TradeImage) error
}

// TagService is the tag index: a reverse mapping from tag name to the set of
// member trade ids, re-synchronized on every trade write.
type TagService interface {
	SyncTagsForTrade(tradeID string, tagNames []string) error
	RemoveTradeFromAllTags(tradeID string) error
	TagsForTrade(tradeID string) ([]string, error)
	TagsForTrades(tradeIDs []string) (map[string][]string, error)
	AllTagNames() ([]string, error)

	// TradeIDsForTag resolves a tag name to its membership. Unknown tags
	// resolve to an empty set, letting filters short-circuit.
	TradeIDsForTag(name string) ([]string, error)

	ListTags() ([]models.Tag, error)
	CreateTag(name string) (*models.Tag, error)
	DeleteTag(id string) error
}

// AnalyticsService computes dashboard statistics over filtered trade sets.
// Results are cached; any write through TradeService or TagService must
// invalidate the cache.
type AnalyticsService interface {
	Overview(criteria FilterCriteria) (*models.OverviewResult, error)
	SessionBreakdown(criteria FilterCriteria) (map[string]models.DimensionStat, error)
	AssetBreakdown(criteria FilterCriteria) (map[string]models.DimensionStat, error)
	Calendar(year int, month time.Month, criteria FilterCriteria) (*models.CalendarResult, error)
	PeriodDelta(criteria FilterCriteria) (*models.PeriodDeltaResult, error)
	FilterOptions() (*models.FilterOptions, error)
	InvalidateCache()
}

// UploadService stores attached images and returns stable path strings.
type UploadService interface {
	SaveImages(kind string, files []*multipart.FileHeader) ([]models.TradeImage, error)
}
