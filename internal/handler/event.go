package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

type WorkshopHandler struct {
	store   *store.WorkshopStore
	changes *Changes
	logger  *slog.Logger
}

func NewWorkshopHandler(ws *store.WorkshopStore, changes *Changes, logger *slog.Logger) *WorkshopHandler {
	return &WorkshopHandler{store: ws, changes: changes, logger: logger.With("component", "workshops")}
}

type workshopRequest struct {
	Title       string      `json:"title"       validate:"required,max=300"`
	Description string      `json:"description"`
	EventDate   *model.Date `json:"event_date"`
	Link        string      `json:"link"        validate:"omitempty,url"`
	IsActive    *bool       `json:"is_active"`
}

func (req *workshopRequest) workshop() *model.Workshop {
	return &model.Workshop{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		EventDate:   req.EventDate,
		Link:        req.Link,
		IsActive:    isActive(req.IsActive),
	}
}

func (h *WorkshopHandler) List(w http.ResponseWriter, r *http.Request) {
	workshops, err := h.store.List(r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("failed to list workshops", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list workshops")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(workshops))
}

func (h *WorkshopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req workshopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ws, err := h.store.Create(req.workshop())
	if err != nil {
		h.logger.Error("failed to create workshop", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create workshop")
		return
	}

	h.changes.record(r, "workshop", websocket.ActionCreated, ws.ID)
	writeJSON(w, http.StatusCreated, ws)
}

func (h *WorkshopHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get workshop")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "workshop not found")
		return
	}

	var req workshopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ws, err := h.store.Update(id, req.workshop())
	if err != nil {
		h.logger.Error("failed to update workshop", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update workshop")
		return
	}

	h.changes.record(r, "workshop", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, ws)
}

func (h *WorkshopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get workshop")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "workshop not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("failed to delete workshop", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete workshop")
		return
	}

	h.changes.record(r, "workshop", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// NoticeHandler manages research and technology notices.
type NoticeHandler struct {
	store   *store.NoticeStore
	changes *Changes
	logger  *slog.Logger
}

func NewNoticeHandler(ns *store.NoticeStore, changes *Changes, logger *slog.Logger) *NoticeHandler {
	return &NoticeHandler{store: ns, changes: changes, logger: logger.With("component", "notices")}
}

type noticeRequest struct {
	Kind        string      `json:"kind"        validate:"required,oneof=research technology"`
	Title       string      `json:"title"       validate:"required,max=300"`
	Description string      `json:"description"`
	EventDate   *model.Date `json:"event_date"`
	Link        string      `json:"link"        validate:"omitempty,url"`
	IsActive    *bool       `json:"is_active"`
}

func (req *noticeRequest) notice() *model.Notice {
	return &model.Notice{
		Kind:        req.Kind,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		EventDate:   req.EventDate,
		Link:        req.Link,
		IsActive:    isActive(req.IsActive),
	}
}

// List accepts ?kind=research|technology to narrow the list.
func (h *NoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("kind")
	if kind != "" && kind != model.NoticeResearch && kind != model.NoticeTechnology {
		writeError(w, http.StatusBadRequest, "kind must be research or technology")
		return
	}
	notices, err := h.store.List(kind, q.Get("q"))
	if err != nil {
		h.logger.Error("failed to list notices", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notices")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notices))
}

func (h *NoticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noticeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.store.Create(req.notice())
	if err != nil {
		h.logger.Error("failed to create notice", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create notice")
		return
	}

	h.changes.record(r, "notice", websocket.ActionCreated, n.ID)
	writeJSON(w, http.StatusCreated, n)
}

func (h *NoticeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get notice")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "notice not found")
		return
	}

	var req noticeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.store.Update(id, req.notice())
	if err != nil {
		h.logger.Error("failed to update notice", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update notice")
		return
	}

	h.changes.record(r, "notice", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, n)
}

func (h *NoticeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get notice")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "notice not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("failed to delete notice", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete notice")
		return
	}

	h.changes.record(r, "notice", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
