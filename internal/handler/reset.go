package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/climatologylab/labsite/internal/metrics"
	"github.com/climatologylab/labsite/internal/reset"
	"github.com/climatologylab/labsite/internal/session"
)

const (
	resetRequestPath  = "/dashboard/password-reset/"
	resetVerifyPath   = "/dashboard/password-reset/verify/"
	resetPasswordPath = "/dashboard/password-reset/set-password/"
	resetCompletePath = "/dashboard/password-reset-complete/"
)

// ResetHandler serves the three password reset steps and the completion page.
type ResetHandler struct {
	flow     *reset.Flow
	sessions *session.Manager
	metrics  *metrics.App
	render   *Renderer
	logger   *slog.Logger
}

func NewResetHandler(flow *reset.Flow, sm *session.Manager, m *metrics.App, render *Renderer, logger *slog.Logger) *ResetHandler {
	return &ResetHandler{
		flow:     flow,
		sessions: sm,
		metrics:  m,
		render:   render,
		logger:   logger.With("component", "reset"),
	}
}

func (h *ResetHandler) count(result string) {
	if h.metrics != nil {
		h.metrics.ResetCodes.WithLabelValues(result).Inc()
	}
}

func (h *ResetHandler) save(w http.ResponseWriter, r *http.Request, sess *sessions.Session) {
	if err := h.sessions.Save(w, r, sess); err != nil {
		h.logger.Error("failed to save session", "error", err)
	}
}

// redirect queues msg and sends the visitor to path.
func (h *ResetHandler) redirect(w http.ResponseWriter, r *http.Request, sess *sessions.Session, level, msg, path string) {
	session.AddFlash(sess, level, msg)
	h.save(w, r, sess)
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (h *ResetHandler) RequestPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "reset_request.html", nil)
}

func (h *ResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	sess := h.sessions.Get(r)

	err := h.flow.RequestCode(r.Context(), session.NewValues(sess), email)
	switch {
	case err == nil:
		h.count("sent")
		h.redirect(w, r, sess, session.LevelInfo, "A 6-digit OTP has been sent to "+email+".", resetVerifyPath)
	case errors.Is(err, reset.ErrEmailNotAllowed):
		h.count("rejected")
		h.render.RenderStatus(w, r, http.StatusBadRequest, "reset_request.html", map[string]any{
			"Email": email,
			"Error": "Password reset is only allowed for the official lab email.",
		})
	case errors.Is(err, reset.ErrSendFailed):
		h.count("send_failed")
		// The code is already in the session; keep it.
		h.save(w, r, sess)
		h.render.Render(w, r, "reset_request.html", map[string]any{
			"Email": email,
			"Error": "Unable to send email at this time. The mail server is unreachable. Please contact the administrator.",
		})
	default:
		h.logger.Error("failed to issue reset code", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// pending enforces the step two preconditions. It reports false after
// redirecting back to step one.
func (h *ResetHandler) pending(w http.ResponseWriter, r *http.Request, sess *sessions.Session) (reset.Pending, bool) {
	p, err := h.flow.Status(session.NewValues(sess))
	switch {
	case err == nil:
		return p, true
	case errors.Is(err, reset.ErrCodeExpired):
		h.count("expired")
		h.redirect(w, r, sess, session.LevelError, "OTP has expired. Please request a new one.", resetRequestPath)
	default:
		h.redirect(w, r, sess, session.LevelError, "Please request an OTP first.", resetRequestPath)
	}
	return reset.Pending{}, false
}

func (h *ResetHandler) verifyPage(w http.ResponseWriter, r *http.Request, status int, p reset.Pending, errMsg string) {
	h.render.RenderStatus(w, r, status, "reset_verify.html", map[string]any{
		"Email":            p.Email,
		"RemainingSeconds": int(p.Remaining.Seconds()),
		"Error":            errMsg,
	})
}

func (h *ResetHandler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	p, ok := h.pending(w, r, sess)
	if !ok {
		return
	}
	h.verifyPage(w, r, http.StatusOK, p, "")
}

func (h *ResetHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	p, ok := h.pending(w, r, sess)
	if !ok {
		return
	}

	code := strings.TrimSpace(r.PostFormValue("otp"))
	err := h.flow.VerifyCode(session.NewValues(sess), code)
	switch {
	case err == nil:
		h.count("verified")
		h.redirect(w, r, sess, session.LevelSuccess, "OTP verified! Please set your new password.", resetPasswordPath)
	case errors.Is(err, reset.ErrCodeFormat):
		h.verifyPage(w, r, http.StatusBadRequest, p, "Please enter the 6-digit OTP.")
	case errors.Is(err, reset.ErrInvalidCode):
		h.count("invalid")
		h.verifyPage(w, r, http.StatusBadRequest, p, "Invalid OTP. Please try again.")
	default:
		// Expired between the two checks.
		h.pending(w, r, sess)
	}
}

// account enforces the step three preconditions. It reports false after
// redirecting back to step one.
func (h *ResetHandler) account(w http.ResponseWriter, r *http.Request, sess *sessions.Session) bool {
	_, err := h.flow.Account(session.NewValues(sess))
	switch {
	case err == nil:
		return true
	case errors.Is(err, reset.ErrNotVerified):
		h.redirect(w, r, sess, session.LevelError, "Please verify your OTP first.", resetRequestPath)
	case errors.Is(err, reset.ErrSessionMissingEmail):
		h.redirect(w, r, sess, session.LevelError, "Session expired. Please start over.", resetRequestPath)
	case errors.Is(err, reset.ErrAccountNotFound):
		h.redirect(w, r, sess, session.LevelError, "No account found with this email.", resetRequestPath)
	default:
		h.logger.Error("failed to find reset account", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return false
}

func (h *ResetHandler) SetPasswordPage(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	if !h.account(w, r, sess) {
		return
	}
	h.render.Render(w, r, "reset_set_password.html", nil)
}

func (h *ResetHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	if !h.account(w, r, sess) {
		return
	}

	p1 := r.PostFormValue("new_password1")
	p2 := r.PostFormValue("new_password2")
	err := h.flow.SetNewPassword(session.NewValues(sess), p1, p2)
	switch {
	case err == nil:
		h.redirect(w, r, sess, session.LevelSuccess, "Password reset successful! Please login with your new password.", resetCompletePath)
	case errors.Is(err, reset.ErrPasswordRequired):
		h.render.RenderStatus(w, r, http.StatusBadRequest, "reset_set_password.html", map[string]any{
			"Error": "Both password fields are required.",
		})
	case errors.Is(err, reset.ErrPasswordMismatch):
		h.render.RenderStatus(w, r, http.StatusBadRequest, "reset_set_password.html", map[string]any{
			"Error": "Passwords do not match.",
		})
	default:
		h.logger.Error("failed to reset password", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *ResetHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "reset_complete.html", nil)
}
