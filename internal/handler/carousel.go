package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

type CarouselHandler struct {
	store   *store.CarouselStore
	changes *Changes
	logger  *slog.Logger
}

func NewCarouselHandler(cs *store.CarouselStore, changes *Changes, logger *slog.Logger) *CarouselHandler {
	return &CarouselHandler{store: cs, changes: changes, logger: logger.With("component", "carousel")}
}

type carouselRequest struct {
	Title     string `json:"title"      validate:"max=200"`
	Image     string `json:"image"      validate:"required"`
	AltText   string `json:"alt_text"   validate:"max=200"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

func (req *carouselRequest) image() *model.CarouselImage {
	return &model.CarouselImage{
		Title:     strings.TrimSpace(req.Title),
		Image:     req.Image,
		AltText:   req.AltText,
		SortOrder: req.SortOrder,
		IsActive:  isActive(req.IsActive),
	}
}

func (h *CarouselHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.store.List()
	if err != nil {
		h.logger.Error("failed to list carousel images", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list carousel images")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(images))
}

func (h *CarouselHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req carouselRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.store.Create(req.image())
	if err != nil {
		h.logger.Error("failed to create carousel image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create carousel image")
		return
	}

	h.changes.record(r, "carousel_image", websocket.ActionCreated, c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (h *CarouselHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get carousel image")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "carousel image not found")
		return
	}

	var req carouselRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.store.Update(id, req.image())
	if err != nil {
		h.logger.Error("failed to update carousel image", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update carousel image")
		return
	}

	h.changes.record(r, "carousel_image", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, c)
}

func (h *CarouselHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get carousel image")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "carousel image not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("failed to delete carousel image", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete carousel image")
		return
	}

	h.changes.record(r, "carousel_image", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
