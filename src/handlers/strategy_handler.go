// backend/src/handlers/strategy_handler.go
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

type StrategyHandler struct {
	db               *sql.DB
	tradeService     services.TradeService
	uploadService    services.UploadService
	analyticsService services.AnalyticsService
	maxImages        int
}

func NewStrategyHandler(db *sql.DB, tradeService services.TradeService, uploadService services.UploadService, analyticsService services.AnalyticsService, maxImages int) *StrategyHandler {
	return &StrategyHandler{
		db:               db,
		tradeService:     tradeService,
		uploadService:    uploadService,
		analyticsService: analyticsService,
		maxImages:        maxImages,
	}
}

func (h *StrategyHandler) HandleListStrategies(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`SELECT id, strategy_name, strategy_notes, custom_fields, created_at, updated_at
		FROM strategies ORDER BY strategy_name COLLATE NOCASE ASC`)
	if err != nil {
		logger.L.Error("Failed to list strategies", "error", err)
		utils.SendJSONError(w, "Failed to retrieve strategies", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	strategies := []models.Strategy{}
	for rows.Next() {
		strat, err := scanStrategy(rows)
		if err != nil {
			logger.L.Error("Strategy row scan error", "error", err)
			continue
		}
		strategies = append(strategies, *strat)
	}

	for i := range strategies {
		images, err := h.strategyImages(strategies[i].ID)
		if err != nil {
			logger.L.Error("Failed to load strategy images", "strategyID", strategies[i].ID, "error", err)
			continue
		}
		strategies[i].Images = images

		trades, err := h.tradeService.ListTrades(services.FilterCriteria{StrategyID: strategies[i].ID})
		if err != nil {
			logger.L.Error("Failed to fetch strategy trades", "strategyID", strategies[i].ID, "error", err)
			utils.SendJSONError(w, "Failed to retrieve strategies", http.StatusInternalServerError)
			return
		}
		strategies[i].Trades = trades
	}

	utils.SendJSON(w, strategies, http.StatusOK)
}

func (h *StrategyHandler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	row := h.db.QueryRow(`SELECT id, strategy_name, strategy_notes, custom_fields, created_at, updated_at
		FROM strategies WHERE id = ?`, id)
	strat, err := scanStrategy(row)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "Strategy not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to fetch strategy", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve strategy", http.StatusInternalServerError)
		return
	}

	if strat.Images, err = h.strategyImages(id); err != nil {
		logger.L.Error("Failed to load strategy images", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve strategy images", http.StatusInternalServerError)
		return
	}

	trades, err := h.tradeService.ListTrades(services.FilterCriteria{StrategyID: id})
	if err != nil {
		logger.L.Error("Failed to fetch strategy trades", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve strategy trades", http.StatusInternalServerError)
		return
	}
	strat.Trades = trades

	utils.SendJSON(w, strat, http.StatusOK)
}

func (h *StrategyHandler) HandleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeStrategyPayload(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	strat := models.Strategy{
		ID:           uuid.NewString(),
		StrategyName: payload.StrategyName,
		CustomFields: payload.CustomFields,
		Images:       []models.TradeImage{},
		Trades:       []models.Trade{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if payload.StrategyNotes != "" {
		strat.StrategyNotes = &payload.StrategyNotes
	}

	_, err := h.db.Exec(`INSERT INTO strategies (id, strategy_name, strategy_notes, custom_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		strat.ID, strat.StrategyName, strat.StrategyNotes,
		encodeCustomFieldsJSON(strat.CustomFields), services.FormatDBTime(now), services.FormatDBTime(now))
	if err != nil {
		if isUniqueConstraint(err) {
			utils.SendJSONError(w, "A strategy with this name already exists. Please choose a different name", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create strategy", "error", err)
		utils.SendJSONError(w, "Failed to create strategy", http.StatusInternalServerError)
		return
	}

	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, strat, http.StatusCreated)
}

func (h *StrategyHandler) HandleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	payload, ok := decodeStrategyPayload(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	var notes *string
	if payload.StrategyNotes != "" {
		notes = &payload.StrategyNotes
	}
	res, err := h.db.Exec(`UPDATE strategies SET strategy_name = ?, strategy_notes = ?, custom_fields = ?, updated_at = ?
		WHERE id = ?`,
		payload.StrategyName, notes, encodeCustomFieldsJSON(payload.CustomFields), services.FormatDBTime(now), id)
	if err != nil {
		if isUniqueConstraint(err) {
			utils.SendJSONError(w, "A strategy with this name already exists. Please choose a different name", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to update strategy", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to update strategy", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		utils.SendJSONError(w, "Strategy not found", http.StatusNotFound)
		return
	}

	h.analyticsService.InvalidateCache()
	h.HandleGetStrategy(w, r)
}

func (h *StrategyHandler) HandleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Idempotent: deleting an id that is already gone still reports ok.
	if _, err := h.db.Exec(`DELETE FROM strategies WHERE id = ?`, id); err != nil {
		logger.L.Error("Failed to delete strategy", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete strategy", http.StatusInternalServerError)
		return
	}

	// Linked trades keep their denormalized strategy_name snapshot; the live
	// reference simply stops resolving.
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func (h *StrategyHandler) HandleUploadStrategyImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var exists bool
	if err := h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM strategies WHERE id = ?)`, id).Scan(&exists); err != nil {
		logger.L.Error("Failed to check strategy", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to store images", http.StatusInternalServerError)
		return
	}
	if !exists {
		utils.SendJSONError(w, "Strategy not found", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.SendJSONError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.SendJSONError(w, "No images provided", http.StatusBadRequest)
		return
	}
	if len(files) > h.maxImages {
		files = files[:h.maxImages]
	}

	images, err := h.uploadService.SaveImages(services.UploadKindStrategies, files)
	if err != nil {
		handleServiceError(w, r, err, "Failed to store images")
		return
	}

	var pos int
	if err := h.db.QueryRow(`SELECT COALESCE(MAX(position), -1) + 1 FROM strategy_images WHERE strategy_id = ?`, id).Scan(&pos); err != nil {
		logger.L.Error("Failed to compute image position", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to attach images", http.StatusInternalServerError)
		return
	}
	for _, img := range images {
		if _, err := h.db.Exec(`INSERT INTO strategy_images (strategy_id, image_path, uploaded_at, position) VALUES (?, ?, ?, ?)`,
			id, img.ImagePath, services.FormatDBTime(img.UploadedAt), pos); err != nil {
			logger.L.Error("Failed to attach strategy image", "strategyID", id, "error", err)
			utils.SendJSONError(w, "Failed to attach images", http.StatusInternalServerError)
			return
		}
		pos++
	}

	utils.SendJSON(w, map[string]int{"count": len(images)}, http.StatusCreated)
}

func (h *StrategyHandler) strategyImages(strategyID string) ([]models.TradeImage, error) {
	rows, err := h.db.Query(`SELECT image_path, uploaded_at FROM strategy_images WHERE strategy_id = ? ORDER BY position ASC, id ASC`, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.TradeImage{}
	for rows.Next() {
		var (
			img        models.TradeImage
			uploadedAt string
		)
		if err := rows.Scan(&img.ImagePath, &uploadedAt); err != nil {
			return nil, err
		}
		img.UploadedAt = services.ParseDBTime(uploadedAt)
		images = append(images, img)
	}
	return images, rows.Err()
}

func decodeStrategyPayload(w http.ResponseWriter, r *http.Request) (models.StrategyPayload, bool) {
	var payload models.StrategyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return payload, false
	}
	payload.StrategyName = validation.SanitizeText(strings.TrimSpace(payload.StrategyName))
	payload.StrategyNotes = validation.SanitizeText(payload.StrategyNotes)
	if err := validation.ValidateStringNotEmpty(payload.StrategyName, "strategy_name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return payload, false
	}
	if err := validation.ValidateStringMaxLength(payload.StrategyName, maxNameLength, "strategy_name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return payload, false
	}
	return payload, true
}

func scanStrategy(row rowScanner) (*models.Strategy, error) {
	var (
		strat            models.Strategy
		notes            sql.NullString
		customFieldsJSON sql.NullString
		createdAt        string
		updatedAt        string
	)
	if err := row.Scan(&strat.ID, &strat.StrategyName, &notes, &customFieldsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if notes.Valid {
		strat.StrategyNotes = &notes.String
	}
	if customFieldsJSON.Valid && customFieldsJSON.String != "" {
		if err := json.Unmarshal([]byte(customFieldsJSON.String), &strat.CustomFields); err != nil {
			logger.L.Warn("Ignoring malformed custom_fields on strategy", "strategyID", strat.ID, "error", err)
		}
	}
	strat.Images = []models.TradeImage{}
	strat.Trades = []models.Trade{}
	strat.CreatedAt = services.ParseDBTime(createdAt)
	strat.UpdatedAt = services.ParseDBTime(updatedAt)
	return &strat, nil
}
