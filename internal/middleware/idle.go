package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/climatologylab/labsite/internal/session"
)

// IdleTimeout logs out authenticated sessions that have been inactive for
// longer than timeout. Active sessions have their last activity refreshed.
func IdleTimeout(sm *session.Manager, timeout time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sm.Get(r)
			if session.UserID(sess) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			if last, ok := session.LastActivity(sess); ok && now.Sub(last) > timeout {
				logger.Info("session idle timeout", "user_id", session.UserID(sess), "idle", now.Sub(last).Round(time.Second))
				session.Logout(sess)
				session.AddFlash(sess, session.LevelInfo, "Your session expired due to inactivity. Please log in again.")
				if err := sm.Save(w, r, sess); err != nil {
					logger.Error("save session", "error", err)
				}
				redirectToLogin(w, r)
				return
			}

			session.Touch(sess, now)
			if err := sm.Save(w, r, sess); err != nil {
				logger.Error("save session", "error", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}
