// backend/src/handlers/chart_handler.go
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

// ChartHandler manages saved dashboard card configurations.
type ChartHandler struct {
	db *sql.DB
}

func NewChartHandler(db *sql.DB) *ChartHandler {
	return &ChartHandler{db: db}
}

func (h *ChartHandler) HandleListCharts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`SELECT id, name, chart_type, features, visible, sort_order, created_at, updated_at
		FROM dashboard_charts ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		logger.L.Error("Failed to list dashboard charts", "error", err)
		utils.SendJSONError(w, "Failed to retrieve charts", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	charts := []models.DashboardChart{}
	for rows.Next() {
		chart, err := scanChart(rows)
		if err != nil {
			logger.L.Error("Chart row scan error", "error", err)
			continue
		}
		charts = append(charts, *chart)
	}
	utils.SendJSON(w, charts, http.StatusOK)
}

func (h *ChartHandler) HandleCreateChart(w http.ResponseWriter, r *http.Request) {
	var payload models.DashboardChartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	chart := models.DashboardChart{
		ID:        uuid.NewString(),
		Visible:   true,
		Features:  []string{},
		CreatedAt: time.Now().UTC(),
	}
	chart.UpdatedAt = chart.CreatedAt
	if payload.Name != nil {
		chart.Name = validation.SanitizeText(strings.TrimSpace(*payload.Name))
	}
	if payload.ChartType != nil {
		chart.ChartType = *payload.ChartType
	}
	if payload.Features != nil {
		chart.Features = *payload.Features
	}
	if payload.Visible != nil {
		chart.Visible = *payload.Visible
	}
	if payload.Order != nil {
		chart.Order = *payload.Order
	}

	if chart.Name == "" {
		utils.SendJSONError(w, "Chart name is required", http.StatusBadRequest)
		return
	}
	if !models.IsValidChartType(chart.ChartType) {
		utils.SendJSONError(w, "Unknown chart type", http.StatusBadRequest)
		return
	}

	features, err := json.Marshal(chart.Features)
	if err != nil {
		utils.SendJSONError(w, "Invalid features list", http.StatusBadRequest)
		return
	}
	_, err = h.db.Exec(`INSERT INTO dashboard_charts (id, name, chart_type, features, visible, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		chart.ID, chart.Name, chart.ChartType, string(features), chart.Visible, chart.Order,
		services.FormatDBTime(chart.CreatedAt), services.FormatDBTime(chart.UpdatedAt))
	if err != nil {
		logger.L.Error("Failed to create dashboard chart", "error", err)
		utils.SendJSONError(w, "Failed to create chart", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, chart, http.StatusCreated)
}

// HandleUpdateChart applies a partial update: only fields present in the body
// change.
func (h *ChartHandler) HandleUpdateChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload models.DashboardChartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	row := h.db.QueryRow(`SELECT id, name, chart_type, features, visible, sort_order, created_at, updated_at
		FROM dashboard_charts WHERE id = ?`, id)
	chart, err := scanChart(row)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "Chart not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to fetch dashboard chart", "chartID", id, "error", err)
		utils.SendJSONError(w, "Failed to update chart", http.StatusInternalServerError)
		return
	}

	if payload.Name != nil {
		name := validation.SanitizeText(strings.TrimSpace(*payload.Name))
		if name == "" {
			utils.SendJSONError(w, "Chart name is required", http.StatusBadRequest)
			return
		}
		chart.Name = name
	}
	if payload.ChartType != nil {
		if !models.IsValidChartType(*payload.ChartType) {
			utils.SendJSONError(w, "Unknown chart type", http.StatusBadRequest)
			return
		}
		chart.ChartType = *payload.ChartType
	}
	if payload.Features != nil {
		chart.Features = *payload.Features
	}
	if payload.Visible != nil {
		chart.Visible = *payload.Visible
	}
	if payload.Order != nil {
		chart.Order = *payload.Order
	}
	chart.UpdatedAt = time.Now().UTC()

	features, err := json.Marshal(chart.Features)
	if err != nil {
		utils.SendJSONError(w, "Invalid features list", http.StatusBadRequest)
		return
	}
	_, err = h.db.Exec(`UPDATE dashboard_charts SET name = ?, chart_type = ?, features = ?, visible = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		chart.Name, chart.ChartType, string(features), chart.Visible, chart.Order,
		services.FormatDBTime(chart.UpdatedAt), id)
	if err != nil {
		logger.L.Error("Failed to update dashboard chart", "chartID", id, "error", err)
		utils.SendJSONError(w, "Failed to update chart", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, chart, http.StatusOK)
}

func (h *ChartHandler) HandleDeleteChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.db.Exec(`DELETE FROM dashboard_charts WHERE id = ?`, id)
	if err != nil {
		logger.L.Error("Failed to delete dashboard chart", "chartID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete chart", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		utils.SendJSONError(w, "Chart not found", http.StatusNotFound)
		return
	}
	utils.SendJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func scanChart(row rowScanner) (*models.DashboardChart, error) {
	var (
		chart        models.DashboardChart
		featuresJSON string
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(&chart.ID, &chart.Name, &chart.ChartType, &featuresJSON,
		&chart.Visible, &chart.Order, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(featuresJSON), &chart.Features); err != nil {
		chart.Features = []string{}
	}
	if chart.Features == nil {
		chart.Features = []string{}
	}
	chart.CreatedAt = services.ParseDBTime(createdAt)
	chart.UpdatedAt = services.ParseDBTime(updatedAt)
	return &chart, nil
}
