package model

import "time"

// Session is a server-side browser session. Data holds the encoded values.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	Data      []byte    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
