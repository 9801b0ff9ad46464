package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/auth"
	"github.com/climatologylab/labsite/internal/media"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/internal/websocket"
)

// maxUploadBytes caps media uploads.
const maxUploadBytes = 20 << 20

var uploadFolders = map[string]bool{
	"projects":     true,
	"publications": true,
	"team":         true,
	"carousel":     true,
	"impact":       true,
	"tutorials":    true,
}

type DashboardHandler struct {
	counts    *store.CountStore
	tutorials *store.TutorialStore
	stats     *store.StatsStore
	contacts  *store.ContactStore
	storage   media.Storage
	changes   *Changes
	render    *Renderer
	logger    *slog.Logger
}

func NewDashboardHandler(counts *store.CountStore, ts *store.TutorialStore, ss *store.StatsStore, cs *store.ContactStore, storage media.Storage, changes *Changes, render *Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		counts:    counts,
		tutorials: ts,
		stats:     ss,
		contacts:  cs,
		storage:   storage,
		changes:   changes,
		render:    render,
		logger:    logger.With("component", "dashboard"),
	}
}

func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	counts, err := h.counts.Dashboard()
	if err != nil {
		h.logger.Error("failed to count content", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	orphans, err := h.tutorials.Orphans()
	if err != nil {
		h.logger.Error("failed to list orphaned tutorials", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	staff, _ := auth.FromContext(r.Context())
	h.render.Render(w, r, "dashboard.html", map[string]any{
		"Counts":    counts,
		"Orphans":   orphans,
		"Staff":     staff,
		"CanDelete": auth.CanDelete(r.Context()),
	})
}

func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.stats.Get()
	if err != nil {
		h.logger.Error("failed to get home stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type statsRequest struct {
	PublicationsCount     int `json:"publications_count"      validate:"min=0"`
	ProjectsCount         int `json:"projects_count"          validate:"min=0"`
	OutreachProgramsCount int `json:"outreach_programs_count" validate:"min=0"`
	YearsOfResearch       int `json:"years_of_research"       validate:"min=0"`
}

func (h *DashboardHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := h.stats.Update(&model.HomeStats{
		PublicationsCount:     req.PublicationsCount,
		ProjectsCount:         req.ProjectsCount,
		OutreachProgramsCount: req.OutreachProgramsCount,
		YearsOfResearch:       req.YearsOfResearch,
	})
	if err != nil {
		h.logger.Error("failed to update home stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update stats")
		return
	}

	h.changes.record(r, "home_stats", websocket.ActionUpdated, 1)
	writeJSON(w, http.StatusOK, st)
}

func (h *DashboardHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	subs, err := h.contacts.List()
	if err != nil {
		h.logger.Error("failed to list contact submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list contact submissions")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(subs))
}

type markReadRequest struct {
	AdminNotes string `json:"admin_notes"`
}

func (h *DashboardHandler) MarkContactRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.contacts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get contact submission")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "contact submission not found")
		return
	}

	var req markReadRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.contacts.MarkRead(id, req.AdminNotes)
	if err != nil {
		h.logger.Error("failed to mark contact submission read", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update contact submission")
		return
	}

	h.changes.record(r, "contact", websocket.ActionUpdated, id)
	writeJSON(w, http.StatusOK, sub)
}

func (h *DashboardHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.contacts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get contact submission")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "contact submission not found")
		return
	}

	if err := h.contacts.Delete(id); err != nil {
		h.logger.Error("failed to delete contact submission", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete contact submission")
		return
	}

	h.changes.record(r, "contact", websocket.ActionDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

// Upload stores the multipart "file" field under the "folder" field and
// returns the stored name and its public URL.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	folder := strings.TrimSpace(r.FormValue("folder"))
	if !uploadFolders[folder] {
		writeError(w, http.StatusBadRequest, "unknown upload folder")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType, ok := media.ContentType(folder, header.Filename)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported file type for "+folder)
		return
	}

	name, err := h.storage.Save(r.Context(), media.ObjectName(folder, header.Filename), file, header.Size, contentType)
	if err != nil {
		h.logger.Error("failed to store upload", "folder", folder, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	h.logger.Info("media uploaded", "name", name, "size", header.Size)
	writeJSON(w, http.StatusCreated, map[string]string{
		"name": name,
		"url":  h.storage.URL(name),
	})
}
