package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/climatologylab/labsite/internal/auth"
	"github.com/climatologylab/labsite/internal/metrics"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/store"
)

const (
	dashboardPath = "/dashboard/"

	minPasswordLength = 8
)

type AccountHandler struct {
	users    *store.UserStore
	sessions *session.Manager
	metrics  *metrics.App
	render   *Renderer
	logger   *slog.Logger
}

func NewAccountHandler(us *store.UserStore, sm *session.Manager, m *metrics.App, render *Renderer, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		users:    us,
		sessions: sm,
		metrics:  m,
		render:   render,
		logger:   logger.With("component", "account"),
	}
}

func (h *AccountHandler) countLogin(status string) {
	if h.metrics != nil {
		h.metrics.LoginAttempts.WithLabelValues(status).Inc()
	}
}

func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	next := safeNext(r.URL.Query().Get("next"), dashboardPath)
	if session.UserID(sess) != 0 {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, "login.html", map[string]any{"Next": next})
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := safeNext(r.PostFormValue("next"), dashboardPath)

	u, err := h.users.Authenticate(login, password)
	if err != nil {
		h.logger.Error("failed to authenticate", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if u == nil {
		h.countLogin("failed")
		h.logger.Warn("login failed", "login", login)
		h.render.RenderStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Error":    "Please enter a correct username and password.",
			"Next":     next,
			"Username": login,
		})
		return
	}

	sess := h.sessions.Get(r)
	if err := h.sessions.Login(w, r, sess, u.ID, time.Now()); err != nil {
		h.logger.Error("failed to start session", "user_id", u.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.countLogin("success")
	h.logger.Info("staff logged in", "user_id", u.ID)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	if err := h.sessions.Destroy(w, r, sess); err != nil {
		h.logger.Error("failed to destroy session", "error", err)
	}
	http.Redirect(w, r, safeNext(r.URL.Query().Get("next"), "/"), http.StatusSeeOther)
}

func (h *AccountHandler) PasswordChangePage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "password_change.html", nil)
}

// PasswordChange replaces the signed-in user's password. The session stays
// authenticated.
func (h *AccountHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil || u == nil {
		h.logger.Error("failed to load user", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	oldPassword := r.PostFormValue("old_password")
	p1 := r.PostFormValue("new_password1")
	p2 := r.PostFormValue("new_password2")

	var errs []string
	if !store.CheckPassword(u, oldPassword) {
		errs = append(errs, "Your old password was entered incorrectly. Please enter it again.")
	}
	if p1 != p2 {
		errs = append(errs, "The two password fields didn't match.")
	} else if len(p1) < minPasswordLength {
		errs = append(errs, "This password is too short. It must contain at least 8 characters.")
	}
	if len(errs) > 0 {
		h.render.RenderStatus(w, r, http.StatusBadRequest, "password_change.html", map[string]any{"Errors": errs})
		return
	}

	if err := h.users.SetPassword(u.ID, p1); err != nil {
		h.logger.Error("failed to set password", "user_id", u.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("password changed", "user_id", u.ID)
	h.render.Flash(w, r, session.LevelSuccess, "Your password has been changed successfully!")
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}
