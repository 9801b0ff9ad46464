package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/climatologylab/labsite/internal/media"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/tutorial"
)

// Renderer executes page templates inside the shared layout. Each page is
// parsed together with the layout and partials so pages can define their own
// "title" and "content" blocks.
type Renderer struct {
	pages    map[string]*template.Template
	sessions *session.Manager
	siteName string
	logger   *slog.Logger
}

var sharedTemplates = []string{"templates/layout.html", "templates/list_controls.html"}

func NewRenderer(fsys fs.FS, sm *session.Manager, storage media.Storage, siteName string, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"media":     storage.URL,
		"date":      formatDate,
		"thumbnail": tutorial.Thumbnail,
		"embed":     tutorial.EmbedURL,
		"countdown": countdown,
	}

	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	shared := make(map[string]bool, len(sharedTemplates))
	for _, s := range sharedTemplates {
		shared[s] = true
	}

	pages := make(map[string]*template.Template)
	for _, f := range files {
		if shared[f] {
			continue
		}
		// The layout goes first so the page's blocks override its defaults.
		patterns := append(append([]string{}, sharedTemplates...), f)
		t, err := template.New(path.Base(f)).Funcs(funcs).ParseFS(fsys, patterns...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", f, err)
		}
		pages[path.Base(f)] = t
	}

	return &Renderer{
		pages:    pages,
		sessions: sm,
		siteName: siteName,
		logger:   logger,
	}, nil
}

// Render writes page with status 200.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	rd.RenderStatus(w, r, http.StatusOK, page, data)
}

// RenderStatus writes page with the given status. Pending flash messages are
// consumed from the session.
func (rd *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	t, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown template", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	sess := rd.sessions.Get(r)
	flashes := session.Flashes(sess)
	data["Flashes"] = flashes
	data["SiteName"] = rd.siteName
	data["LoggedIn"] = session.UserID(sess) != 0
	data["Year"] = time.Now().Year()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error("render template", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(flashes) > 0 {
		if err := rd.sessions.Save(w, r, sess); err != nil {
			rd.logger.Error("save session", "error", err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Flash queues a message for the next rendered page and saves the session.
func (rd *Renderer) Flash(w http.ResponseWriter, r *http.Request, level, msg string) {
	sess := rd.sessions.Get(r)
	session.AddFlash(sess, level, msg)
	if err := rd.sessions.Save(w, r, sess); err != nil {
		rd.logger.Error("save session", "error", err)
	}
}

func formatDate(d *model.Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

func countdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
