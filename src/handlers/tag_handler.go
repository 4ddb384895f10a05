// backend/src/handlers/tag_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type TagHandler struct {
	tagService       services.TagService
	analyticsService services.AnalyticsService
}

func NewTagHandler(tagService services.TagService, analyticsService services.AnalyticsService) *TagHandler {
	return &TagHandler{tagService: tagService, analyticsService: analyticsService}
}

func (h *TagHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.ListTags()
	if err != nil {
		handleServiceError(w, r, err, "Failed to list tags")
		return
	}
	utils.SendJSON(w, tags, http.StatusOK)
}

func (h *TagHandler) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tag, err := h.tagService.CreateTag(payload.TagName)
	if err != nil {
		handleServiceError(w, r, err, "Failed to create tag")
		return
	}
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, tag, http.StatusCreated)
}

func (h *TagHandler) HandleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.tagService.DeleteTag(chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err, "Failed to delete tag")
		return
	}
	h.analyticsService.InvalidateCache()
	utils.SendJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}
