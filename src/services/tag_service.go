package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeTagName trims and collapses internal whitespace to single spaces.
// Uniqueness of tag names is case-insensitive over this normalized form.
func NormalizeTagName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(name), " ")
}

type tagServiceImpl struct {
	db *sql.DB
}

// NewTagService returns the tag index backed by the tags table. Membership is
// stored as a JSON array of trade ids on each tag row rather than a join
// table; every mutation goes through the remove-then-add sync so the index
// stays the single source of truth.
func NewTagService(db *sql.DB) TagService {
	return &tagServiceImpl{db: db}
}

func (s *tagServiceImpl) readTag(row interface{ Scan(...any) error }) (*models.Tag, error) {
	var (
		t               models.Tag
		tradeIDsJSON    string
		created, update string
	)
	if err := row.Scan(&t.ID, &t.TagName, &tradeIDsJSON, &created, &update); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tradeIDsJSON), &t.TradeIDs); err != nil {
		return nil, fmt.Errorf("tag %s has corrupt trade_ids: %w", t.ID, err)
	}
	if t.TradeIDs == nil {
		t.TradeIDs = []string{}
	}
	t.CreatedAt = parseDBTime(created)
	t.UpdatedAt = parseDBTime(update)
	return &t, nil
}

func (s *tagServiceImpl) loadAll() ([]models.Tag, error) {
	rows, err := s.db.Query(`SELECT id, tag_name, trade_ids, created_at, updated_at FROM tags ORDER BY tag_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		t, err := s.readTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

func (s *tagServiceImpl) writeMembership(tagID string, tradeIDs []string) error {
	if tradeIDs == nil {
		tradeIDs = []string{}
	}
	encoded, err := json.Marshal(tradeIDs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE tags SET trade_ids = ?, updated_at = ? WHERE id = ?`,
		string(encoded), formatDBTime(time.Now()), tagID)
	return err
}

// SyncTagsForTrade makes the index agree with the given tag list for one
// trade: normalize, de-duplicate (first-seen casing wins), strip the trade
// from every tag, then add it to exactly the listed tags, creating any that
// do not exist yet. Calling twice with the same list is a no-op the second
// time.
func (s *tagServiceImpl) SyncTagsForTrade(tradeID string, tagNames []string) error {
	seen := map[string]bool{}
	var wanted []string
	for _, raw := range tagNames {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		wanted = append(wanted, name)
	}

	if err := s.RemoveTradeFromAllTags(tradeID); err != nil {
		return err
	}

	for _, name := range wanted {
		tag, err := s.findByName(name)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == sql.ErrNoRows {
			now := formatDBTime(time.Now())
			membership, _ := json.Marshal([]string{tradeID})
			_, err := s.db.Exec(
				`INSERT INTO tags (id, tag_name, trade_ids, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
				uuid.New().String(), name, string(membership), now, now)
			if err != nil {
				return fmt.Errorf("creating tag %q: %w", name, err)
			}
			continue
		}

		if !containsString(tag.TradeIDs, tradeID) {
			if err := s.writeMembership(tag.ID, append(tag.TradeIDs, tradeID)); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveTradeFromAllTags strips the trade from every tag's membership.
// The tags themselves are kept even when their membership becomes empty.
func (s *tagServiceImpl) RemoveTradeFromAllTags(tradeID string) error {
	tags, err := s.loadAll()
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if !containsString(tag.TradeIDs, tradeID) {
			continue
		}
		remaining := make([]string, 0, len(tag.TradeIDs)-1)
		for _, id := range tag.TradeIDs {
			if id != tradeID {
				remaining = append(remaining, id)
			}
		}
		if err := s.writeMembership(tag.ID, remaining); err != nil {
			return err
		}
	}
	return nil
}

// TagsForTrade returns the names of every tag containing the trade id.
func (s *tagServiceImpl) TagsForTrade(tradeID string) ([]string, error) {
	byTrade, err := s.TagsForTrades([]string{tradeID})
	if err != nil {
		return nil, err
	}
	return byTrade[tradeID], nil
}

// TagsForTrades is the batched lookup. Every requested id appears as a key,
// with an empty list when the trade has no tags.
func (s *tagServiceImpl) TagsForTrades(tradeIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(tradeIDs))
	for _, id := range tradeIDs {
		result[id] = []string{}
	}
	if len(tradeIDs) == 0 {
		return result, nil
	}

	tags, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		for _, id := range tag.TradeIDs {
			if names, ok := result[id]; ok {
				result[id] = append(names, tag.TagName)
			}
		}
	}
	return result, nil
}

// AllTagNames returns the distinct tag names, sorted, for filter pickers.
func (s *tagServiceImpl) AllTagNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT tag_name FROM tags ORDER BY tag_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TradeIDsForTag resolves a tag name (case-insensitive over the normalized
// form) to its member trade ids. An unknown tag yields an empty set.
func (s *tagServiceImpl) TradeIDsForTag(name string) ([]string, error) {
	tag, err := s.findByName(NormalizeTagName(name))
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return tag.TradeIDs, nil
}

func (s *tagServiceImpl) ListTags() ([]models.Tag, error) {
	tags, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

// CreateTag pre-declares a tag with no members.
func (s *tagServiceImpl) CreateTag(name string) (*models.Tag, error) {
	normalized := NormalizeTagName(name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: tag name is required", ErrValidation)
	}
	if _, err := s.findByName(normalized); err == nil {
		return nil, fmt.Errorf("%w: a tag with this name already exists", ErrDuplicateName)
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now()
	tag := &models.Tag{
		ID:        uuid.New().String(),
		TagName:   normalized,
		TradeIDs:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(
		`INSERT INTO tags (id, tag_name, trade_ids, created_at, updated_at) VALUES (?, ?, '[]', ?, ?)`,
		tag.ID, tag.TagName, formatDBTime(now), formatDBTime(now))
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	logger.L.Info("Tag created", "tagID", tag.ID, "tagName", tag.TagName)
	return tag, nil
}

func (s *tagServiceImpl) DeleteTag(id string) error {
	res, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%w: tag %s", ErrNotFound, id)
	}
	return nil
}

func (s *tagServiceImpl) findByName(name string) (*models.Tag, error) {
	row := s.db.QueryRow(
		`SELECT id, tag_name, trade_ids, created_at, updated_at FROM tags WHERE tag_name = ? COLLATE NOCASE`, name)
	return s.readTag(row)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
