package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

type TeamHandler struct {
	store   *store.TeamStore
	changes *Changes
	logger  *slog.Logger
}

func NewTeamHandler(ts *store.TeamStore, changes *Changes, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{store: ts, changes: changes, logger: logger.With("component", "team")}
}

type teamMemberRequest struct {
	Name             string `json:"name"               validate:"required,max=200"`
	Role             string `json:"role"               validate:"required,max=200"`
	Photo            string `json:"photo"`
	Email            string `json:"email"              validate:"omitempty,email"`
	LinkedInURL      string `json:"linkedin_url"       validate:"omitempty,url"`
	GoogleScholarURL string `json:"google_scholar_url" validate:"omitempty,url"`
	SortOrder        int    `json:"sort_order"`
	IsActive         *bool  `json:"is_active"`
}

func (req *teamMemberRequest) member() *model.TeamMember {
	return &model.TeamMember{
		Name:             strings.TrimSpace(req.Name),
		Role:             strings.TrimSpace(req.Role),
		Photo:            req.Photo,
		Email:            req.Email,
		LinkedInURL:      req.LinkedInURL,
		GoogleScholarURL: req.GoogleScholarURL,
		SortOrder:        req.SortOrder,
		IsActive:         isActive(req.IsActive),
	}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.List(r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("failed to list team", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list team members")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(members))
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req teamMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.store.Create(req.member())
	if err != nil {
		h.logger.Error("failed to create team member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create team member")
		return
	}

	h.changes.record(r, "team_member", websocket.ActionCreated, m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get team member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "team member not found")
		return
	}

	var req teamMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.store.Update(id, req.member())
	if err != nil {
		h.logger.Error("failed to update team member", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update team member")
		return
	}

	h.changes.record(r, "team_member", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, m)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get team member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "team member not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("failed to delete team member", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete team member")
		return
	}

	h.changes.record(r, "team_member", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
