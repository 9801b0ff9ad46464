package model

import "time"

const (
	ProjectTypeResearch    = "research"
	ProjectTypeConsultancy = "consultancy"
)

type Project struct {
	ID                  int64     `json:"id"`
	Type                string    `json:"project_type"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Status              string    `json:"status"`
	FundingAgency       string    `json:"funding_agency"`
	GrantAmount         string    `json:"grant_amount"`
	Image               string    `json:"image"`
	ExternalLink        string    `json:"external_link"`
	Role                string    `json:"role"`
	Collaborators       string    `json:"collaborators"`
	PartnerInstitutions string    `json:"partner_institutions"`
	StartDate           *Date     `json:"start_date"`
	EndDate             *Date     `json:"end_date"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// RoleLabel returns the display label for the lab's role on the project.
func (p *Project) RoleLabel() string {
	switch p.Role {
	case "pi":
		return "Principal Investigator"
	case "co-pi":
		return "Co-Principal Investigator"
	case "team_member":
		return "Team Member"
	default:
		return ""
	}
}
