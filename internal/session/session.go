package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// CookieName is the browser cookie carrying the session token.
const CookieName = "labsite_session"

const (
	keyUserID       = "user_id"
	keyLastActivity = "last_activity"
	keyUnavailable  = "_unavailable"
)

// Flash levels, matching the alert styles in the templates.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

// Manager loads and saves the request's session.
type Manager struct {
	store sessions.Store
}

func NewManager(store sessions.Store) *Manager {
	return &Manager{store: store}
}

// Get returns the request's session. When the row cannot be loaded the
// session keeps the cookie's token and reports Unavailable, and saving it
// fails instead of replacing the stored session.
func (m *Manager) Get(r *http.Request) *sessions.Session {
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		slog.Warn("session load failed", "error", err)
	}
	if sess == nil {
		sess = sessions.NewSession(m.store, CookieName)
		sess.IsNew = true
		sess.Options = &sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
	}
	return sess
}

// Unavailable reports whether the session's stored row failed to load.
func Unavailable(sess *sessions.Session) bool {
	v, _ := sess.Values[keyUnavailable].(bool)
	return v
}

func (m *Manager) Save(w http.ResponseWriter, r *http.Request, sess *sessions.Session) error {
	return sess.Save(r, w)
}

// Destroy deletes the session and clears its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, sess *sessions.Session) error {
	sess.Options.MaxAge = -1
	sess.Values = make(map[interface{}]interface{})
	return sess.Save(r, w)
}

// Login starts an authenticated session for userID under a fresh token.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, sess *sessions.Session, userID int64, now time.Time) error {
	if sess.ID != "" {
		old := *sess.Options
		sess.Options.MaxAge = -1
		if err := sess.Save(r, w); err != nil {
			return err
		}
		sess.Options = &old
		sess.ID = ""
	}
	for k := range sess.Values {
		if k != "_flash" {
			delete(sess.Values, k)
		}
	}
	sess.Values[keyUserID] = userID
	sess.Values[keyLastActivity] = now.Unix()
	return sess.Save(r, w)
}

// UserID returns the authenticated user's id, or 0.
func UserID(sess *sessions.Session) int64 {
	id, _ := sess.Values[keyUserID].(int64)
	return id
}

// LastActivity returns the time of the last dashboard request. ok is false
// when none was recorded.
func LastActivity(sess *sessions.Session) (t time.Time, ok bool) {
	ts, ok := sess.Values[keyLastActivity].(int64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

// Touch records now as the last dashboard activity.
func Touch(sess *sessions.Session, now time.Time) {
	sess.Values[keyLastActivity] = now.Unix()
}

// Logout removes the authentication keys but keeps the session.
func Logout(sess *sessions.Session) {
	delete(sess.Values, keyUserID)
	delete(sess.Values, keyLastActivity)
}

func AddFlash(sess *sessions.Session, level, message string) {
	sess.AddFlash(Flash{Level: level, Message: message})
}

// Flashes pops the pending flash messages.
func Flashes(sess *sessions.Session) []Flash {
	var out []Flash
	for _, f := range sess.Flashes() {
		if fl, ok := f.(Flash); ok {
			out = append(out, fl)
		}
	}
	return out
}

// Values adapts a gorilla session to a plain key/value view.
type Values struct {
	sess *sessions.Session
}

func NewValues(sess *sessions.Session) Values {
	return Values{sess: sess}
}

func (v Values) Get(key string) (any, bool) {
	val, ok := v.sess.Values[key]
	return val, ok
}

func (v Values) Set(key string, val any) {
	v.sess.Values[key] = val
}

func (v Values) Delete(key string) {
	delete(v.sess.Values, key)
}
