// backend/src/handlers/analytics_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.Overview(parseFilterCriteria(r))
	if err != nil {
		handleServiceError(w, r, err, "Failed to compute overview")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *AnalyticsHandler) HandleSessionBreakdown(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.SessionBreakdown(parseFilterCriteria(r))
	if err != nil {
		handleServiceError(w, r, err, "Failed to compute session breakdown")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *AnalyticsHandler) HandleAssetBreakdown(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.AssetBreakdown(parseFilterCriteria(r))
	if err != nil {
		handleServiceError(w, r, err, "Failed to compute asset breakdown")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

// HandleCalendar returns the per-day and per-ISO-week PnL rollup for the
// requested month. Defaults to the current month when year/month are absent.
func (h *AnalyticsHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year := now.Year()
	month := now.Month()

	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1970 || parsed > 9999 {
			utils.SendJSONError(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			utils.SendJSONError(w, "Invalid month", http.StatusBadRequest)
			return
		}
		month = time.Month(parsed)
	}

	result, err := h.analyticsService.Calendar(year, month, parseFilterCriteria(r))
	if err != nil {
		handleServiceError(w, r, err, "Failed to compute calendar")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *AnalyticsHandler) HandlePeriodDelta(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.PeriodDelta(parseFilterCriteria(r))
	if err != nil {
		handleServiceError(w, r, err, "Failed to compute period comparison")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *AnalyticsHandler) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.FilterOptions()
	if err != nil {
		handleServiceError(w, r, err, "Failed to load filter options")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}
