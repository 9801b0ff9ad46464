package model

import "time"

type TeamMember struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	Photo            string    `json:"photo"`
	Email            string    `json:"email"`
	LinkedInURL      string    `json:"linkedin_url"`
	GoogleScholarURL string    `json:"google_scholar_url"`
	SortOrder        int       `json:"sort_order"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
