package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/climatologylab/labsite/internal/auth"
	"github.com/climatologylab/labsite/internal/database"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/store"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func setupAuthMiddleware(t *testing.T) (*session.Manager, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sm := session.NewManager(session.NewStore(store.NewSessionStore(db), time.Hour, testKey))
	return sm, store.NewUserStore(db)
}

// loginCookie returns a session cookie for userID whose last activity was at
// lastActive.
func loginCookie(t *testing.T, sm *session.Manager, userID int64, lastActive time.Time) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest("POST", "/accounts/login/", nil)
	rec := httptest.NewRecorder()
	if err := sm.Login(rec, req, sm.Get(req), userID, lastActive); err != nil {
		t.Fatalf("login: %v", err)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie set")
	}
	return cookie
}

func TestRequireStaffNoSession(t *testing.T) {
	sm, users := setupAuthMiddleware(t)

	handler := RequireStaff(sm, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/dashboard/projects/?q=flood", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	want := "/accounts/login/?next=%2Fdashboard%2Fprojects%2F%3Fq%3Dflood"
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestRequireStaffAPIUnauthorized(t *testing.T) {
	sm, users := setupAuthMiddleware(t)

	handler := RequireStaff(sm, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/dashboard/api/projects", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireStaffValidSession(t *testing.T) {
	sm, users := setupAuthMiddleware(t)
	u, err := users.Create("lab@example.edu", "labadmin", "secret", model.RoleEditor)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	cookie := loginCookie(t, sm, u.ID, time.Now())

	var got auth.StaffContext
	handler := RequireStaff(sm, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected StaffContext in request context")
		}
		got = sc
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.UserID != u.ID || got.Username != "labadmin" || got.Role != model.RoleEditor {
		t.Errorf("staff = %+v", got)
	}
}

func TestRequireFaculty(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleFaculty, http.StatusOK},
		{model.RoleEditor, http.StatusForbidden},
	}
	for _, tt := range tests {
		ctx := auth.WithStaff(context.Background(), auth.StaffContext{UserID: 1, Role: tt.role})
		req := httptest.NewRequest("DELETE", "/dashboard/api/projects/1", nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		RequireFaculty(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Errorf("role %s: status = %d, want %d", tt.role, rec.Code, tt.want)
		}
	}
}

func TestIdleTimeoutLogsOut(t *testing.T) {
	sm, _ := setupAuthMiddleware(t)
	cookie := loginCookie(t, sm, 7, time.Now().Add(-2*time.Hour))

	handler := IdleTimeout(sm, time.Hour, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/accounts/login/?next=%2Fdashboard%2F" {
		t.Errorf("Location = %q", loc)
	}

	// The stored session no longer carries a user.
	req = httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(cookie)
	if id := session.UserID(sm.Get(req)); id != 0 {
		t.Errorf("user id after timeout = %d, want 0", id)
	}
}

func TestIdleTimeoutTouchesActiveSession(t *testing.T) {
	sm, _ := setupAuthMiddleware(t)
	start := time.Now().Add(-10 * time.Minute)
	cookie := loginCookie(t, sm, 7, start)

	reached := false
	handler := IdleTimeout(sm, time.Hour, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Fatal("expected handler to run")
	}

	req = httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(cookie)
	last, ok := session.LastActivity(sm.Get(req))
	if !ok || !last.After(start) {
		t.Errorf("last activity = %v, want after %v", last, start)
	}
}

func TestIdleTimeoutIgnoresAnonymous(t *testing.T) {
	sm, _ := setupAuthMiddleware(t)

	reached := false
	handler := IdleTimeout(sm, time.Hour, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/dashboard/password-reset/", nil))

	if !reached {
		t.Error("expected anonymous request to pass through")
	}
}

func TestRequireStaffSessionStoreDown(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sm := session.NewManager(session.NewStore(store.NewSessionStore(db), time.Hour, testKey))
	users := store.NewUserStore(db)
	cookie := loginCookie(t, sm, 1, time.Now())
	db.Close()

	handler := RequireStaff(sm, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no cookie to be set")
	}
}
