// backend/src/handlers/importexport_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type ImportExportHandler struct {
	exportService    services.ExportService
	analyticsService services.AnalyticsService
}

func NewImportExportHandler(exportService services.ExportService, analyticsService services.AnalyticsService) *ImportExportHandler {
	return &ImportExportHandler{exportService: exportService, analyticsService: analyticsService}
}

// HandleExportTrades streams every trade as a download. The format query
// parameter picks csv (default) or json.
func (h *ImportExportHandler) HandleExportTrades(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	stamp := time.Now().UTC().Format("2006-01-02")

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "trades-"+stamp+".csv"))
		if err := h.exportService.ExportTradesCSV(w); err != nil {
			// Headers are already out; all we can do is log.
			logger.FromContext(r.Context()).Error("CSV export failed mid-stream", "error", err)
		}
	case "json":
		trades, err := h.exportService.ExportTrades()
		if err != nil {
			handleServiceError(w, r, err, "Failed to export trades")
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "trades-"+stamp+".json"))
		utils.SendJSON(w, trades, http.StatusOK)
	default:
		utils.SendJSONError(w, "Unsupported export format", http.StatusBadRequest)
	}
}

// HandleImportCSV ingests a multipart "file" CSV upload. Each row becomes a
// new trade with a freshly allocated id; the first bad row aborts the import.
func (h *ImportExportHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.SendJSONError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, "CSV file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	imported, err := h.exportService.ImportTradesCSV(file)
	// Rows before a failing one are already committed, so the cache is stale
	// as soon as anything was imported.
	if imported > 0 {
		h.analyticsService.InvalidateCache()
	}
	if err != nil {
		handleServiceError(w, r, err, "Failed to import trades")
		return
	}
	logger.FromContext(r.Context()).Info("CSV import finished", "imported", imported)
	utils.SendJSON(w, map[string]int{"imported": imported}, http.StatusCreated)
}
