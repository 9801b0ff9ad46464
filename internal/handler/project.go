package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

type ProjectHandler struct {
	store   *store.ProjectStore
	changes *Changes
	logger  *slog.Logger
}

func NewProjectHandler(ps *store.ProjectStore, changes *Changes, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{store: ps, changes: changes, logger: logger.With("component", "projects")}
}

type projectRequest struct {
	Type                string      `json:"project_type"         validate:"required,oneof=research consultancy"`
	Title               string      `json:"title"                validate:"required,max=300"`
	Description         string      `json:"description"`
	Status              string      `json:"status"               validate:"required,oneof=ongoing completed planned"`
	FundingAgency       string      `json:"funding_agency"       validate:"max=200"`
	GrantAmount         string      `json:"grant_amount"         validate:"max=100"`
	Image               string      `json:"image"`
	ExternalLink        string      `json:"external_link"        validate:"omitempty,url"`
	Role                string      `json:"role"                 validate:"omitempty,oneof=pi co-pi team_member"`
	Collaborators       string      `json:"collaborators"`
	PartnerInstitutions string      `json:"partner_institutions"`
	StartDate           *model.Date `json:"start_date"`
	EndDate             *model.Date `json:"end_date"`
	IsActive            *bool       `json:"is_active"`
}

func (req *projectRequest) project() *model.Project {
	return &model.Project{
		Type:                req.Type,
		Title:               strings.TrimSpace(req.Title),
		Description:         req.Description,
		Status:              req.Status,
		FundingAgency:       req.FundingAgency,
		GrantAmount:         req.GrantAmount,
		Image:               req.Image,
		ExternalLink:        req.ExternalLink,
		Role:                req.Role,
		Collaborators:       req.Collaborators,
		PartnerInstitutions: req.PartnerInstitutions,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		IsActive:            isActive(req.IsActive),
	}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.List(r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.Create(req.project())
	if err != nil {
		h.logger.Error("failed to create project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	h.changes.record(r, "project", websocket.ActionCreated, p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.Update(id, req.project())
	if err != nil {
		h.logger.Error("failed to update project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update project")
		return
	}

	h.changes.record(r, "project", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("failed to delete project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	h.changes.record(r, "project", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
