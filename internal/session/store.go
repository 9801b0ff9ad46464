// Package session keeps browser sessions server-side in SQLite behind the
// gorilla/sessions Store interface. The cookie only carries a signed token.
package session

import (
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/climatologylab/labsite/internal/store"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// ErrUnavailable is returned when saving a session whose row could not be
// loaded. Saving it would overwrite the stored values with an empty set.
var ErrUnavailable = errors.New("session store unavailable")

func init() {
	gob.Register([]interface{}{})
	gob.Register(Flash{})
}

// Store implements sessions.Store on top of store.SessionStore.
type Store struct {
	rows    *store.SessionStore
	codecs  []securecookie.Codec
	ttl     time.Duration
	Options *sessions.Options
}

// NewStore returns a Store whose rows live for ttl after their last save.
// keyPairs are passed to securecookie as hash/block key pairs.
func NewStore(rows *store.SessionStore, ttl time.Duration, keyPairs ...[]byte) *Store {
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxLength(0)
			sc.MaxAge(int(ttl.Seconds()))
		}
	}
	return &Store{
		rows:   rows,
		codecs: codecs,
		ttl:    ttl,
		Options: &sessions.Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the cached session for the request, loading it on first use.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired cookie yields a fresh session and no error.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}
	var token string
	if err := securecookie.DecodeMulti(name, c.Value, &token, s.codecs...); err != nil {
		return sess, nil
	}

	row, err := s.rows.GetByToken(token)
	if err != nil {
		// Keep the token so the visitor's row and cookie survive the outage.
		sess.ID = token
		sess.IsNew = false
		sess.Values[keyUnavailable] = true
		return sess, fmt.Errorf("load session: %w", err)
	}
	if row == nil {
		return sess, nil
	}
	if err := securecookie.DecodeMulti(name, string(row.Data), &sess.Values, s.codecs...); err != nil {
		return sess, nil
	}
	sess.ID = token
	sess.IsNew = false
	return sess, nil
}

// Save writes the session row and refreshes the cookie. A negative MaxAge
// deletes the row and clears the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if Unavailable(sess) {
		return ErrUnavailable
	}
	if sess.Options != nil && sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.rows.DeleteByToken(sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		token, err := store.NewToken()
		if err != nil {
			return err
		}
		sess.ID = token
	}

	data, err := securecookie.EncodeMulti(sess.Name(), sess.Values, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rows.Save(sess.ID, []byte(data), time.Now().Add(s.ttl)); err != nil {
		return err
	}

	cookie, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), cookie, sess.Options))
	return nil
}
