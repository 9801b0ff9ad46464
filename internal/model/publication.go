package model

import "time"

const (
	CategoryJournal    = "journal"
	CategoryConference = "conference"
	CategoryBook       = "book"
	CategoryThesis     = "thesis"
	CategoryReport     = "report"
	CategoryGuideline  = "guideline"
	CategoryOther      = "other"

	ScopeNational      = "national"
	ScopeInternational = "international"
)

type Publication struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	PublicationDate *Date     `json:"publication_date"`
	Citation        string    `json:"citation"`
	ExternalLink    string    `json:"external_link"`
	Authors         string    `json:"authors"`
	Journal         string    `json:"journal"`
	Volume          string    `json:"volume"`
	Issue           string    `json:"issue"`
	Pages           string    `json:"pages"`
	DOI             string    `json:"doi"`
	Abstract        string    `json:"abstract"`
	Category        string    `json:"category"`
	Scope           string    `json:"scope"`
	CoverImage      string    `json:"cover_image"`
	PDFFile         string    `json:"pdf_file"`
	IsFeatured      bool      `json:"is_featured"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DOIURL returns the resolver link for the publication's DOI, if any.
func (p *Publication) DOIURL() string {
	if p.DOI == "" {
		return ""
	}
	return "https://doi.org/" + p.DOI
}
