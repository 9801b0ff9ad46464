package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
)

// ProjectListing searches and sorts the public project lists.
var ProjectListing = listing.View{
	SearchColumns: []string{"title", "description", "funding_agency", "collaborators"},
	DateColumn:    "start_date",
	TitleColumn:   "title",
}

type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func scanProject(s scanner) (*model.Project, error) {
	var p model.Project
	var start, end sql.NullString
	var active int
	err := s.Scan(
		&p.ID, &p.Type, &p.Title, &p.Description, &p.Status, &p.FundingAgency,
		&p.GrantAmount, &p.Image, &p.ExternalLink, &p.Role, &p.Collaborators,
		&p.PartnerInstitutions, &start, &end, &active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.StartDate = scanDate(start)
	p.EndDate = scanDate(end)
	p.IsActive = active != 0
	return &p, nil
}

const projectCols = `id, project_type, title, description, status, funding_agency, grant_amount, image,
	external_link, role, collaborators, partner_institutions, start_date, end_date, is_active, created_at, updated_at`

func (s *ProjectStore) Create(p *model.Project) (*model.Project, error) {
	result, err := s.db.Exec(
		`INSERT INTO projects (project_type, title, description, status, funding_agency, grant_amount, image,
		 external_link, role, collaborators, partner_institutions, start_date, end_date, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Type, p.Title, p.Description, p.Status, p.FundingAgency, p.GrantAmount, p.Image,
		p.ExternalLink, p.Role, p.Collaborators, p.PartnerInstitutions,
		dateArg(p.StartDate), dateArg(p.EndDate), boolInt(p.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProjectStore) GetByID(id int64) (*model.Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) Update(id int64, p *model.Project) (*model.Project, error) {
	_, err := s.db.Exec(
		`UPDATE projects SET project_type = ?, title = ?, description = ?, status = ?, funding_agency = ?,
		 grant_amount = ?, image = ?, external_link = ?, role = ?, collaborators = ?, partner_institutions = ?,
		 start_date = ?, end_date = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.Type, p.Title, p.Description, p.Status, p.FundingAgency, p.GrantAmount, p.Image,
		p.ExternalLink, p.Role, p.Collaborators, p.PartnerInstitutions,
		dateArg(p.StartDate), dateArg(p.EndDate), boolInt(p.IsActive), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProjectStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// ListPublic returns active projects of one type, searched and sorted by p.
func (s *ProjectStore) ListPublic(projectType string, p listing.Params) ([]model.Project, error) {
	b := listing.Select(`SELECT `+projectCols+` FROM projects`).
		Where("is_active = 1").
		Where("project_type = ?", projectType)
	query, args := ProjectListing.Apply(b, p).Build()

	projects, err := queryAll(s.db, scanProject, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// List returns every project for the dashboard, newest first.
func (s *ProjectStore) List(search string) ([]model.Project, error) {
	b := listing.Select(`SELECT ` + projectCols + ` FROM projects`)
	query, args := ProjectListing.Apply(b, listing.Params{Search: search}).Build()

	projects, err := queryAll(s.db, scanProject, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectStore) CountActive() (int, error) {
	n, err := count(s.db, `SELECT COUNT(*) FROM projects WHERE is_active = 1`)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}
