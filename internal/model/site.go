package model

import "time"

type CarouselImage struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	AltText   string    `json:"alt_text"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type ImpactStory struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	ImpactMetrics string    `json:"impact_metrics"`
	Image         string    `json:"image"`
	SortOrder     int       `json:"sort_order"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

type ResearchHighlight struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Link        string `json:"link"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

type PolicyImpact struct {
	ID           int64  `json:"id"`
	Year         int    `json:"year"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Description  string `json:"description"`
	SortOrder    int    `json:"sort_order"`
	IsActive     bool   `json:"is_active"`
}

// HomeStats holds the headline numbers shown on the home page.
type HomeStats struct {
	PublicationsCount     int       `json:"publications_count"`
	ProjectsCount         int       `json:"projects_count"`
	OutreachProgramsCount int       `json:"outreach_programs_count"`
	YearsOfResearch       int       `json:"years_of_research"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type ContactSubmission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Query       string    `json:"query"`
	IsRead      bool      `json:"is_read"`
	AdminNotes  string    `json:"admin_notes"`
	SubmittedAt time.Time `json:"submitted_at"`
}
