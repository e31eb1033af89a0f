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

// ResolveRequest for POST /api/projects/{pid}/resolutions
type ResolveRequest struct {
	Names      []string `json:"names"`
	RosterID   string   `json:"roster_id"`
	CalendarID string   `json:"calendar_id,omitempty"`
	EventID    string   `json:"event_id,omitempty"`
}

// ResolveResponse for POST /api/projects/{pid}/resolutions
type ResolveResponse struct {
	Results []*models.ResolutionResult `json:"results"`
	Total   int                        `json:"total"`
}

// ConfirmMappingRequest for POST /api/projects/{pid}/mappings
type ConfirmMappingRequest struct {
	TranscriptName string `json:"transcript_name"`
	Email          string `json:"email"`
	CanonicalName  string `json:"canonical_name"`
	CreatedBy      string `json:"created_by,omitempty"`
}

// MappingListResponse for GET /api/projects/{pid}/mappings
type MappingListResponse struct {
	Mappings []*models.NameMapping `json:"mappings"`
	Total    int                   `json:"total"`
}

// ResolutionHandler handles identity-resolution HTTP requests.
type ResolutionHandler struct {
	resolver     services.IdentityResolverService
	mappingRepo  repositories.NameMappingRepository
	rosterSource roster.Source
	logger       *zap.Logger
}

// NewResolutionHandler creates a new resolution handler.
func NewResolutionHandler(
	resolver services.IdentityResolverService,
	mappingRepo repositories.NameMappingRepository,
	rosterSource roster.Source,
	logger *zap.Logger,
) *ResolutionHandler {
	return &ResolutionHandler{
		resolver:     resolver,
		mappingRepo:  mappingRepo,
		rosterSource: rosterSource,
		logger:       logger,
	}
}

// RegisterRoutes registers the resolution handler's routes on the given mux.
func (h *ResolutionHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/projects/{pid}"

	mux.HandleFunc("POST "+base+"/resolutions", h.Resolve)
	mux.HandleFunc("POST "+base+"/mappings", h.ConfirmMapping)
	mux.HandleFunc("GET "+base+"/mappings", h.ListMappings)
	mux.HandleFunc("DELETE "+base+"/mappings/{name}", h.DeleteMapping)
}

// Resolve handles POST /api/projects/{pid}/resolutions
func (h *ResolutionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(req.Names) == 0 {
		h.writeError(w, http.StatusBadRequest, "missing_names", "At least one name is required")
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

	results, err := h.resolver.ResolveAll(r.Context(), projectID, req.Names, entries, opts)
	if err != nil {
		h.logger.Error("Resolution batch failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "resolution_failed", err.Error())
		return
	}

	response := ResolveResponse{Results: results, Total: len(results)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ConfirmMapping handles POST /api/projects/{pid}/mappings
func (h *ResolutionHandler) ConfirmMapping(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req ConfirmMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	req.TranscriptName = strings.TrimSpace(req.TranscriptName)
	req.Email = strings.TrimSpace(req.Email)
	req.CanonicalName = strings.TrimSpace(req.CanonicalName)
	if req.TranscriptName == "" || req.Email == "" || req.CanonicalName == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_mapping", "transcript_name, email and canonical_name are required")
		return
	}

	var createdBy *string
	if req.CreatedBy != "" {
		createdBy = &req.CreatedBy
	}

	if err := h.resolver.LearnMapping(r.Context(), projectID, req.TranscriptName, req.Email, req.CanonicalName, createdBy); err != nil {
		h.logger.Error("Failed to learn mapping",
			zap.String("project_id", projectID.String()),
			zap.String("transcript_name", req.TranscriptName),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "learn_mapping_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "mapping saved"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListMappings handles GET /api/projects/{pid}/mappings
func (h *ResolutionHandler) ListMappings(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	mappings, err := h.mappingRepo.GetByProject(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to list mappings",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_mappings_failed", err.Error())
		return
	}

	response := MappingListResponse{Mappings: mappings, Total: len(mappings)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteMapping handles DELETE /api/projects/{pid}/mappings/{name}
func (h *ResolutionHandler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	name := r.PathValue("name")
	if strings.TrimSpace(name) == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_name", "Mapping name is required")
		return
	}

	deleted, err := h.mappingRepo.Delete(r.Context(), projectID, name)
	if err != nil {
		h.logger.Error("Failed to delete mapping",
			zap.String("project_id", projectID.String()),
			zap.String("transcript_name", name),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "delete_mapping_failed", err.Error())
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "mapping_not_found", "No mapping exists for that name")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "mapping deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ResolutionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
