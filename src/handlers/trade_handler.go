// backend/src/handlers/trade_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type TradeHandler struct {
	tradeService     services.TradeService
	uploadService    services.UploadService
	analyticsService services.AnalyticsService
	maxImages        int
}

func NewTradeHandler(tradeService services.TradeService, uploadService services.UploadService, analyticsService services.AnalyticsService, maxImages int) *TradeHandler {
	return &TradeHandler{
		tradeService:     tradeService,
		uploadService:    uploadService,
		analyticsService: analyticsService,
		maxImages:        maxImages,
	}
}

func (h *TradeHandler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.tradeService.ListTrades(parseFilterCriteria(r))
	if err != nil {
		handleServiceError(w, r, err, "Failed to list trades")
		return
	}
	utils.SendJSON(w, trades, http.StatusOK)
}

func (h *TradeHandler) HandleNextTradeID(w http.ResponseWriter, r *http.Request) {
	next, err := h.tradeService.NextTradeID()
	if err != nil {
		handleServiceError(w, r, err, "Failed to compute next trade id")
		return
	}
	utils.SendJSON(w, map[string]string{"next_id": next}, http.StatusOK)
}

func (h *TradeHandler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := h.tradeService.GetTrade(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, "Failed to fetch trade")
		return
	}
	utils.SendJSON(w, trade, http.StatusOK)
}

func (h *TradeHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var payload models.TradePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trade, err := h.tradeService.CreateTrade(payload)
	if err != nil {
		handleServiceError(w, r, err, "Failed to create trade")
		return
	}
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, trade, http.StatusCreated)
}

func (h *TradeHandler) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	var payload models.TradePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trade, err := h.tradeService.UpdateTrade(chi.URLParam(r, "id"), payload)
	if err != nil {
		handleServiceError(w, r, err, "Failed to update trade")
		return
	}
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, trade, http.StatusOK)
}

func (h *TradeHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.tradeService.DeleteTrade(chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err, "Failed to delete trade")
		return
	}
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func (h *TradeHandler) HandleDeleteAllTrades(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.tradeService.DeleteAllTrades()
	if err != nil {
		handleServiceError(w, r, err, "Failed to delete trades")
		return
	}
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, map[string]any{"status": "deleted", "deletedCount": deleted}, http.StatusOK)
}

// HandleUploadTradeImages accepts multipart "images" files and appends them
// to the trade's attachment list in upload order.
func (h *TradeHandler) HandleUploadTradeImages(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "id")

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

	images, err := h.uploadService.SaveImages(services.UploadKindTrades, files)
	if err != nil {
		handleServiceError(w, r, err, "Failed to store images")
		return
	}
	if err := h.tradeService.AddTradeImages(tradeID, images); err != nil {
		handleServiceError(w, r, err, "Failed to attach images")
		return
	}

	logger.FromContext(r.Context()).Info("Trade images uploaded", "tradeID", tradeID, "count", len(images))
	utils.SendJSON(w, map[string]int{"count": len(images)}, http.StatusCreated)
}
