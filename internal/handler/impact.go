package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

// ImpactHandler manages impact stories, research highlights and policy
// impacts. Highlights and policies are only created and deleted.
type ImpactHandler struct {
	store   *store.ImpactStore
	changes *Changes
	logger  *slog.Logger
}

func NewImpactHandler(is *store.ImpactStore, changes *Changes, logger *slog.Logger) *ImpactHandler {
	return &ImpactHandler{store: is, changes: changes, logger: logger.With("component", "impact")}
}

type impactStoryRequest struct {
	Title         string `json:"title"          validate:"required,max=200"`
	Category      string `json:"category"       validate:"required,max=100"`
	Description   string `json:"description"    validate:"required"`
	ImpactMetrics string `json:"impact_metrics" validate:"max=200"`
	Image         string `json:"image"`
	SortOrder     int    `json:"sort_order"`
	IsActive      *bool  `json:"is_active"`
}

func (req *impactStoryRequest) story() *model.ImpactStory {
	return &model.ImpactStory{
		Title:         strings.TrimSpace(req.Title),
		Category:      strings.TrimSpace(req.Category),
		Description:   req.Description,
		ImpactMetrics: req.ImpactMetrics,
		Image:         req.Image,
		SortOrder:     req.SortOrder,
		IsActive:      isActive(req.IsActive),
	}
}

type highlightRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Icon        string `json:"icon"        validate:"omitempty,oneof=globe trending award check"`
	Description string `json:"description" validate:"required"`
	Link        string `json:"link"        validate:"max=200"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

type policyRequest struct {
	Year         int    `json:"year"         validate:"required,min=1900,max=2100"`
	Title        string `json:"title"        validate:"required,max=300"`
	Organization string `json:"organization" validate:"max=200"`
	Description  string `json:"description"`
	SortOrder    int    `json:"sort_order"`
	IsActive     *bool  `json:"is_active"`
}

func (h *ImpactHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.store.ListStories(false)
	if err != nil {
		h.logger.Error("failed to list impact stories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list impact stories")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(stories))
}

func (h *ImpactHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	var req impactStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := h.store.CreateStory(req.story())
	if err != nil {
		h.logger.Error("failed to create impact story", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create impact story")
		return
	}

	h.changes.record(r, "impact_story", websocket.ActionCreated, st.ID)
	writeJSON(w, http.StatusCreated, st)
}

func (h *ImpactHandler) UpdateStory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetStory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get impact story")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "impact story not found")
		return
	}

	var req impactStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := h.store.UpdateStory(id, req.story())
	if err != nil {
		h.logger.Error("failed to update impact story", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update impact story")
		return
	}

	h.changes.record(r, "impact_story", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, st)
}

func (h *ImpactHandler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetStory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get impact story")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "impact story not found")
		return
	}

	if err := h.store.DeleteStory(id); err != nil {
		h.logger.Error("failed to delete impact story", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete impact story")
		return
	}

	h.changes.record(r, "impact_story", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ImpactHandler) ListHighlights(w http.ResponseWriter, r *http.Request) {
	highlights, err := h.store.ListHighlights(false)
	if err != nil {
		h.logger.Error("failed to list highlights", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list highlights")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(highlights))
}

func (h *ImpactHandler) CreateHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Icon == "" {
		req.Icon = "globe"
	}

	hl, err := h.store.CreateHighlight(&model.ResearchHighlight{
		Title:       strings.TrimSpace(req.Title),
		Icon:        req.Icon,
		Description: req.Description,
		Link:        req.Link,
		SortOrder:   req.SortOrder,
		IsActive:    isActive(req.IsActive),
	})
	if err != nil {
		h.logger.Error("failed to create highlight", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create highlight")
		return
	}

	h.changes.record(r, "research_highlight", websocket.ActionCreated, hl.ID)
	writeJSON(w, http.StatusCreated, hl)
}

func (h *ImpactHandler) DeleteHighlight(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.store.DeleteHighlight(id); err != nil {
		h.logger.Error("failed to delete highlight", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete highlight")
		return
	}

	h.changes.record(r, "research_highlight", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ImpactHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.store.ListPolicies(false)
	if err != nil {
		h.logger.Error("failed to list policy impacts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list policy impacts")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(policies))
}

func (h *ImpactHandler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.CreatePolicy(&model.PolicyImpact{
		Year:         req.Year,
		Title:        strings.TrimSpace(req.Title),
		Organization: req.Organization,
		Description:  req.Description,
		SortOrder:    req.SortOrder,
		IsActive:     isActive(req.IsActive),
	})
	if err != nil {
		h.logger.Error("failed to create policy impact", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create policy impact")
		return
	}

	h.changes.record(r, "policy_impact", websocket.ActionCreated, p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (h *ImpactHandler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.store.DeletePolicy(id); err != nil {
		h.logger.Error("failed to delete policy impact", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete policy impact")
		return
	}

	h.changes.record(r, "policy_impact", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
