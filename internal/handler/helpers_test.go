package handler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/climatologylab/labsite/internal/auth"
	"github.com/climatologylab/labsite/internal/database"
	"github.com/climatologylab/labsite/internal/mail"
	"github.com/climatologylab/labsite/internal/media"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/store"
	"github.com/climatologylab/labsite/web"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeSender) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.sent...)
}

type testEnv struct {
	db      *sql.DB
	users   *store.UserStore
	sm      *session.Manager
	storage *media.LocalStorage
	render  *Renderer
	sender  *fakeSender
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sm := session.NewManager(session.NewStore(store.NewSessionStore(db), time.Hour, testKey))
	storage, err := media.NewLocalStorage(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	render, err := NewRenderer(web.FS, sm, storage, "Climatology Lab", discard)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return &testEnv{
		db:      db,
		users:   store.NewUserStore(db),
		sm:      sm,
		storage: storage,
		render:  render,
		sender:  &fakeSender{},
	}
}

// client carries the session cookie between requests.
type client struct {
	t      *testing.T
	cookie *http.Cookie
}

func (c *client) do(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asStaff attaches a signed-in staff user to req, as RequireStaff would.
func asStaff(req *http.Request, role string) *http.Request {
	sc := auth.StaffContext{UserID: 1, Username: "maya", Role: role}
	return req.WithContext(auth.WithStaff(req.Context(), sc))
}

func createStaff(t *testing.T, users *store.UserStore, email, password string) *model.User {
	t.Helper()
	u, err := users.Create(email, "maya", password, model.RoleFaculty)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
