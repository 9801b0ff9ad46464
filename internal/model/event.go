package model

import "time"

type Workshop struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   *Date     `json:"event_date"`
	Link        string    `json:"link"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	NoticeResearch   = "research"
	NoticeTechnology = "technology"
)

// Notice is a research or technology announcement.
type Notice struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   *Date     `json:"event_date"`
	Link        string    `json:"link"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
