package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/climatologylab/labsite/internal/auth"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/store"
)

// LoginPath is where unauthenticated dashboard requests are sent.
const LoginPath = "/accounts/login/"

// RequireStaff loads the session's user and populates StaffContext. Requests
// without a staff user are redirected to the login page, or get a 401 when
// they target the JSON API.
func RequireStaff(sm *session.Manager, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sm.Get(r)
			if session.Unavailable(sess) {
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}
			id := session.UserID(sess)
			if id == 0 {
				redirectToLogin(w, r)
				return
			}

			u, err := users.GetByID(id)
			if err != nil || u == nil || !u.IsStaff {
				redirectToLogin(w, r)
				return
			}

			sc := auth.StaffContext{
				UserID:   u.ID,
				Username: u.Username,
				Role:     u.Role,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithStaff(r.Context(), sc)))
		})
	}
}

// RequireFaculty rejects users that may not delete content.
func RequireFaculty(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.CanDelete(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL returns the login page URL that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/dashboard/api/") || r.URL.Path == "/dashboard/ws" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
}
