package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

type TutorialHandler struct {
	store   *store.TutorialStore
	changes *Changes
	logger  *slog.Logger
}

func NewTutorialHandler(ts *store.TutorialStore, changes *Changes, logger *slog.Logger) *TutorialHandler {
	return &TutorialHandler{store: ts, changes: changes, logger: logger.With("component", "tutorials")}
}

type tutorialRequest struct {
	Title         string  `json:"title"          validate:"required,max=300"`
	ExternalLink  string  `json:"external_link"  validate:"required,url"`
	ThumbnailURL  string  `json:"thumbnail_url"  validate:"omitempty,url"`
	SortOrder     int     `json:"sort_order"`
	PlaylistID    *string `json:"playlist_id"    validate:"omitempty,max=100"`
	IsPlaylist    bool    `json:"is_playlist"`
	LectureNumber *int    `json:"lecture_number" validate:"omitempty,min=1"`
	IsActive      *bool   `json:"is_active"`
}

func (req *tutorialRequest) tutorial() *model.Tutorial {
	t := &model.Tutorial{
		Title:         strings.TrimSpace(req.Title),
		ExternalLink:  strings.TrimSpace(req.ExternalLink),
		ThumbnailURL:  req.ThumbnailURL,
		SortOrder:     req.SortOrder,
		IsPlaylist:    req.IsPlaylist,
		LectureNumber: req.LectureNumber,
		IsActive:      isActive(req.IsActive),
	}
	if req.PlaylistID != nil {
		if id := strings.TrimSpace(*req.PlaylistID); id != "" {
			t.PlaylistID = &id
		}
	}
	return t
}

func (h *TutorialHandler) List(w http.ResponseWriter, r *http.Request) {
	tutorials, err := h.store.List(r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("failed to list tutorials", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tutorials")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tutorials))
}

// Orphans lists active lectures whose playlist has no header entry.
func (h *TutorialHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.store.Orphans()
	if err != nil {
		h.logger.Error("failed to list orphaned tutorials", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list orphaned tutorials")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orphans))
}

func (h *TutorialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tutorialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.store.Create(req.tutorial())
	if err != nil {
		h.logger.Error("failed to create tutorial", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create tutorial")
		return
	}

	h.changes.record(r, "tutorial", websocket.ActionCreated, t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (h *TutorialHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get tutorial")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "tutorial not found")
		return
	}

	var req tutorialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.store.Update(id, req.tutorial())
	if err != nil {
		h.logger.Error("failed to update tutorial", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update tutorial")
		return
	}

	h.changes.record(r, "tutorial", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, t)
}

func (h *TutorialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get tutorial")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "tutorial not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("failed to delete tutorial", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete tutorial")
		return
	}

	h.changes.record(r, "tutorial", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
