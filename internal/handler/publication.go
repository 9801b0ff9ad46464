package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

type PublicationHandler struct {
	store   *store.PublicationStore
	changes *Changes
	logger  *slog.Logger
}

func NewPublicationHandler(ps *store.PublicationStore, changes *Changes, logger *slog.Logger) *PublicationHandler {
	return &PublicationHandler{store: ps, changes: changes, logger: logger.With("component", "publications")}
}

type publicationRequest struct {
	Title           string      `json:"title"            validate:"required,max=500"`
	PublicationDate *model.Date `json:"publication_date"`
	Citation        string      `json:"citation"`
	ExternalLink    string      `json:"external_link"    validate:"omitempty,url"`
	Authors         string      `json:"authors"`
	Journal         string      `json:"journal"          validate:"max=300"`
	Volume          string      `json:"volume"           validate:"max=50"`
	Issue           string      `json:"issue"            validate:"max=50"`
	Pages           string      `json:"pages"            validate:"max=50"`
	DOI             string      `json:"doi"              validate:"max=200"`
	Abstract        string      `json:"abstract"`
	Category        string      `json:"category"         validate:"required,oneof=journal conference book thesis report guideline other"`
	Scope           string      `json:"scope"            validate:"omitempty,oneof=national international"`
	CoverImage      string      `json:"cover_image"`
	PDFFile         string      `json:"pdf_file"`
	IsFeatured      bool        `json:"is_featured"`
	IsActive        *bool       `json:"is_active"`
}

func (req *publicationRequest) publication() *model.Publication {
	return &model.Publication{
		Title:           strings.TrimSpace(req.Title),
		PublicationDate: req.PublicationDate,
		Citation:        req.Citation,
		ExternalLink:    req.ExternalLink,
		Authors:         req.Authors,
		Journal:         req.Journal,
		Volume:          req.Volume,
		Issue:           req.Issue,
		Pages:           req.Pages,
		DOI:             strings.TrimSpace(req.DOI),
		Abstract:        req.Abstract,
		Category:        req.Category,
		Scope:           req.Scope,
		CoverImage:      req.CoverImage,
		PDFFile:         req.PDFFile,
		IsFeatured:      req.IsFeatured,
		IsActive:        isActive(req.IsActive),
	}
}

func (h *PublicationHandler) List(w http.ResponseWriter, r *http.Request) {
	pubs, err := h.store.List(r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("failed to list publications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list publications")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(pubs))
}

func (h *PublicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get publication")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "publication not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PublicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req publicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.Create(req.publication())
	if err != nil {
		h.logger.Error("failed to create publication", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create publication")
		return
	}

	h.changes.record(r, "publication", websocket.ActionCreated, p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (h *PublicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get publication")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "publication not found")
		return
	}

	var req publicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.Update(id, req.publication())
	if err != nil {
		h.logger.Error("failed to update publication", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update publication")
		return
	}

	h.changes.record(r, "publication", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, p)
}

func (h *PublicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get publication")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "publication not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("failed to delete publication", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete publication")
		return
	}

	h.changes.record(r, "publication", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
