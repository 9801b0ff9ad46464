package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
)

type TeamStore struct {
	db *sql.DB
}

func NewTeamStore(db *sql.DB) *TeamStore {
	return &TeamStore{db: db}
}

func scanTeamMember(s scanner) (*model.TeamMember, error) {
	var m model.TeamMember
	var active int
	err := s.Scan(
		&m.ID, &m.Name, &m.Role, &m.Photo, &m.Email, &m.LinkedInURL, &m.GoogleScholarURL,
		&m.SortOrder, &active, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.IsActive = active != 0
	return &m, nil
}

const teamCols = `id, name, role, photo, email, linkedin_url, google_scholar_url, sort_order, is_active, created_at, updated_at`

func (s *TeamStore) Create(m *model.TeamMember) (*model.TeamMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO team_members (name, role, photo, email, linkedin_url, google_scholar_url, sort_order, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Role, m.Photo, m.Email, m.LinkedInURL, m.GoogleScholarURL, m.SortOrder, boolInt(m.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert team member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TeamStore) GetByID(id int64) (*model.TeamMember, error) {
	m, err := scanTeamMember(s.db.QueryRow(`SELECT `+teamCols+` FROM team_members WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team member: %w", err)
	}
	return m, nil
}

func (s *TeamStore) Update(id int64, m *model.TeamMember) (*model.TeamMember, error) {
	_, err := s.db.Exec(
		`UPDATE team_members SET name = ?, role = ?, photo = ?, email = ?, linkedin_url = ?,
		 google_scholar_url = ?, sort_order = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		m.Name, m.Role, m.Photo, m.Email, m.LinkedInURL, m.GoogleScholarURL, m.SortOrder, boolInt(m.IsActive), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update team member: %w", err)
	}
	return s.GetByID(id)
}

func (s *TeamStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM team_members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	return nil
}

// ListActive returns active members by display order, then name.
func (s *TeamStore) ListActive() ([]model.TeamMember, error) {
	members, err := queryAll(s.db, scanTeamMember,
		`SELECT `+teamCols+` FROM team_members WHERE is_active = 1 ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

func (s *TeamStore) List(search string) ([]model.TeamMember, error) {
	query, args := listing.Select(`SELECT `+teamCols+` FROM team_members`).
		Search([]string{"name", "role", "email"}, search).
		OrderBy("sort_order, name").
		Build()
	members, err := queryAll(s.db, scanTeamMember, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

func (s *TeamStore) CountActive() (int, error) {
	n, err := count(s.db, `SELECT COUNT(*) FROM team_members WHERE is_active = 1`)
	if err != nil {
		return 0, fmt.Errorf("count team members: %w", err)
	}
	return n, nil
}
