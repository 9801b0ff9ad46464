// Package reset implements the emailed one-time-code password reset.
//
// A reset moves through three steps held entirely in the caller's session:
// a code is requested for an allowed address, the code is verified, and a new
// password is set. The session keys are cleared together when the code
// expires or the password is replaced.
package reset

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/climatologylab/labsite/internal/mail"
	"github.com/climatologylab/labsite/internal/model"
)

// Session keys.
const (
	KeyCode     = "reset_otp"
	KeyEmail    = "reset_otp_email"
	KeyIssuedAt = "reset_otp_time"
	KeyVerified = "reset_otp_verified"
)

const CodeLength = 6

var keys = []string{KeyCode, KeyEmail, KeyIssuedAt, KeyVerified}

var (
	ErrEmailNotAllowed     = errors.New("password reset is only allowed for the official lab email")
	ErrNoPendingCode       = errors.New("no reset code requested")
	ErrCodeExpired         = errors.New("reset code expired")
	ErrCodeFormat          = errors.New("reset code must be 6 digits")
	ErrInvalidCode         = errors.New("invalid reset code")
	ErrNotVerified         = errors.New("reset code not verified")
	ErrSessionMissingEmail = errors.New("reset session has no email")
	ErrAccountNotFound     = errors.New("no account for reset email")
	ErrPasswordRequired    = errors.New("password required")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrSendFailed          = errors.New("send reset code")
)

// Session is the subset of a browser session the flow reads and writes.
type Session interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
}

// CredentialStore finds and updates the account being reset. GetByEmail
// returns (nil, nil) when no account matches.
type CredentialStore interface {
	GetByEmail(email string) (*model.User, error)
	SetPassword(id int64, password string) error
}

// Pending describes an unexpired code held in a session.
type Pending struct {
	Email     string
	IssuedAt  time.Time
	Remaining time.Duration
	Verified  bool
}

type Flow struct {
	users    CredentialStore
	sender   mail.Sender
	allowed  func(email string) bool
	siteName string
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
	logger   *slog.Logger
}

type Option func(*Flow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(f *Flow) {
		f.generate = gen
	}
}

// NewFlow creates a reset flow. allowed decides which addresses may request
// a code; siteName prefixes the email subject.
func NewFlow(users CredentialStore, sender mail.Sender, allowed func(string) bool, siteName string, ttl time.Duration, logger *slog.Logger, opts ...Option) *Flow {
	f := &Flow{
		users:    users,
		sender:   sender,
		allowed:  allowed,
		siteName: siteName,
		ttl:      ttl,
		now:      time.Now,
		generate: GenerateCode,
		logger:   logger.With("component", "reset"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestCode issues a new code for email and mails it. Any previous reset
// in the session is replaced. The session is written before the send, so a
// send failure still leaves a pending code behind; the error then wraps
// ErrSendFailed.
func (f *Flow) RequestCode(ctx context.Context, s Session, email string) error {
	if !f.allowed(email) {
		return ErrEmailNotAllowed
	}

	code, err := f.generate()
	if err != nil {
		return err
	}

	s.Set(KeyCode, code)
	s.Set(KeyEmail, email)
	s.Set(KeyIssuedAt, f.now().UnixNano())
	s.Set(KeyVerified, false)

	err = f.sender.Send(ctx, mail.Message{
		To:      []string{email},
		Subject: f.siteName + " - Password Reset OTP",
		Body:    codeBody(code, f.ttl),
	})
	if err != nil {
		f.logger.Error("reset code not delivered", "email", email, "error", err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	f.logger.Info("reset code sent", "email", email)
	return nil
}

func codeBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your OTP for password reset is: %s\n\nThis code expires in %d minutes.\n\n"+
		"If you did not request this, please ignore this email.", code, int(ttl.Minutes()))
}

// Status reports the pending code in s. It returns ErrNoPendingCode when no
// code was requested, and ErrCodeExpired after clearing s when the code
// is older than the TTL.
func (f *Flow) Status(s Session) (Pending, error) {
	code := stringValue(s, KeyCode)
	issued, ok := int64Value(s, KeyIssuedAt)
	if code == "" || !ok {
		return Pending{}, ErrNoPendingCode
	}

	issuedAt := time.Unix(0, issued)
	elapsed := f.now().Sub(issuedAt)
	if elapsed > f.ttl {
		Clear(s)
		return Pending{}, ErrCodeExpired
	}

	return Pending{
		Email:     stringValue(s, KeyEmail),
		IssuedAt:  issuedAt,
		Remaining: f.ttl - elapsed,
		Verified:  boolValue(s, KeyVerified),
	}, nil
}

// VerifyCode checks a submitted code against the pending one. A mismatch
// leaves the session untouched so the code can be retried until it expires.
func (f *Flow) VerifyCode(s Session, code string) error {
	if _, err := f.Status(s); err != nil {
		return err
	}
	if len(code) != CodeLength {
		return ErrCodeFormat
	}
	if code != stringValue(s, KeyCode) {
		return ErrInvalidCode
	}
	s.Set(KeyVerified, true)
	f.logger.Info("reset code verified", "email", stringValue(s, KeyEmail))
	return nil
}

// Account returns the account a verified session may reset.
func (f *Flow) Account(s Session) (*model.User, error) {
	if !boolValue(s, KeyVerified) {
		return nil, ErrNotVerified
	}
	email := stringValue(s, KeyEmail)
	if email == "" {
		return nil, ErrSessionMissingEmail
	}
	u, err := f.users.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("find reset account: %w", err)
	}
	if u == nil {
		return nil, ErrAccountNotFound
	}
	return u, nil
}

// SetNewPassword replaces the verified account's password and clears the
// reset from the session.
func (f *Flow) SetNewPassword(s Session, password, confirm string) error {
	u, err := f.Account(s)
	if err != nil {
		return err
	}
	if password == "" || confirm == "" {
		return ErrPasswordRequired
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if err := f.users.SetPassword(u.ID, password); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	Clear(s)
	f.logger.Info("password reset", "user_id", u.ID)
	return nil
}

// Clear removes every reset key from s.
func Clear(s Session) {
	for _, k := range keys {
		s.Delete(k)
	}
}

func stringValue(s Session, key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func int64Value(s Session, key string) (int64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func boolValue(s Session, key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}
