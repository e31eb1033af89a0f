package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/apperrors"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
	"github.com/raidscribe/raidscribe-engine/pkg/repositories"
	"github.com/raidscribe/raidscribe-engine/pkg/roster"
	"github.com/raidscribe/raidscribe-engine/pkg/services"
)

// ExtractRequest for POST /api/projects/{pid}/extractions
type ExtractRequest struct {
	Transcript string `json:"transcript"`
	RosterID   string `json:"roster_id"`
	CalendarID string `json:"calendar_id,omitempty"`
	EventID    string `json:"event_id,omitempty"`
}

// RAIDItemListResponse for GET /api/projects/{pid}/raid-items
type RAIDItemListResponse struct {
	Items []*models.RAIDItem `json:"items"`
	Total int                `json:"total"`
}

// UpdateItemStatusRequest for PUT /api/projects/{pid}/raid-items/{iid}/status
type UpdateItemStatusRequest struct {
	Status string `json:"status"`
}

// ExtractionHandler handles transcript extraction and RAID item HTTP requests.
type ExtractionHandler struct {
	extraction   services.RAIDExtractionService
	raidRepo     repositories.RAIDItemRepository
	rosterSource roster.Source
	logger       *zap.Logger
}

// NewExtractionHandler creates a new extraction handler.
func NewExtractionHandler(
	extraction services.RAIDExtractionService,
	raidRepo repositories.RAIDItemRepository,
	rosterSource roster.Source,
	logger *zap.Logger,
) *ExtractionHandler {
	return &ExtractionHandler{
		extraction:   extraction,
		raidRepo:     raidRepo,
		rosterSource: rosterSource,
		logger:       logger,
	}
}

// RegisterRoutes registers the extraction handler's routes on the given mux.
func (h *ExtractionHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/projects/{pid}"

	mux.HandleFunc("POST "+base+"/extractions", h.Extract)
	mux.HandleFunc("GET "+base+"/raid-items", h.ListItems)
	mux.HandleFunc("PUT "+base+"/raid-items/{iid}/status", h.UpdateItemStatus)
	mux.HandleFunc("DELETE "+base+"/raid-items/{iid}", h.DeleteItem)
}

// Extract handles POST /api/projects/{pid}/extractions
func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	if h.extraction == nil {
		h.writeError(w, http.StatusServiceUnavailable, "extraction_unavailable", "No AI endpoint is configured")
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		h.writeError(w, http.StatusBadRequest, "missing_transcript", "transcript is required")
		return
	}
	if req.RosterID == "" {
		h.writeError(w, http.StatusBadRequest, "missing_roster_id", "roster_id is required")
		return
	}

	entries, err := h.rosterSource.Load(r.Context(), req.RosterID)
	if err != nil {
		h.logger.Error("Failed to load roster",
			zap.String("roster_id", req.RosterID),
			zap.Error(err))
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrMissingColumns) {
			h.writeError(w, http.StatusBadRequest, "invalid_roster", err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "roster_load_failed", err.Error())
		return
	}

	var opts *services.ResolveOptions
	if req.CalendarID != "" || req.EventID != "" {
		opts = &services.ResolveOptions{CalendarID: req.CalendarID, EventID: req.EventID}
	}

	result, err := h.extraction.ExtractFromTranscript(r.Context(), projectID, req.Transcript, entries, opts)
	if err != nil {
		h.logger.Error("Transcript extraction failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "extraction_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListItems handles GET /api/projects/{pid}/raid-items
// An optional ?type= query parameter filters by item type.
func (h *ExtractionHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var items []*models.RAIDItem
	var err error

	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		itemType := models.RAIDType(strings.ToLower(typeParam))
		if !itemType.Valid() {
			h.writeError(w, http.StatusBadRequest, "invalid_type", "Unknown item type")
			return
		}
		items, err = h.raidRepo.GetByType(r.Context(), projectID, itemType)
	} else {
		items, err = h.raidRepo.GetByProject(r.Context(), projectID)
	}
	if err != nil {
		h.logger.Error("Failed to list raid items",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_items_failed", err.Error())
		return
	}

	response := RAIDItemListResponse{Items: items, Total: len(items)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateItemStatus handles PUT /api/projects/{pid}/raid-items/{iid}/status
func (h *ExtractionHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := ParseProjectID(w, r, h.logger); !ok {
		return
	}
	itemID, ok := ParseItemID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateItemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	status := models.RAIDStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		h.writeError(w, http.StatusBadRequest, "invalid_status", "Unknown item status")
		return
	}

	if err := h.raidRepo.UpdateStatus(r.Context(), itemID, status); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "item_not_found", "No item exists with that ID")
			return
		}
		h.logger.Error("Failed to update item status",
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "update_status_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "status updated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteItem handles DELETE /api/projects/{pid}/raid-items/{iid}
func (h *ExtractionHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := ParseProjectID(w, r, h.logger); !ok {
		return
	}
	itemID, ok := ParseItemID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.raidRepo.Delete(r.Context(), itemID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "item_not_found", "No item exists with that ID")
			return
		}
		h.logger.Error("Failed to delete item",
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "delete_item_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "item deleted"}); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *ExtractionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
