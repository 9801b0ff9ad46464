package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/model"
)

// ImpactStore holds impact stories, research highlights and policy impacts.
type ImpactStore struct {
	db *sql.DB
}

func NewImpactStore(db *sql.DB) *ImpactStore {
	return &ImpactStore{db: db}
}

func scanImpactStory(s scanner) (*model.ImpactStory, error) {
	var st model.ImpactStory
	var active int
	err := s.Scan(&st.ID, &st.Title, &st.Category, &st.Description, &st.ImpactMetrics, &st.Image,
		&st.SortOrder, &active, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	st.IsActive = active != 0
	return &st, nil
}

const storyCols = `id, title, category, description, impact_metrics, image, sort_order, is_active, created_at`

func (s *ImpactStore) CreateStory(st *model.ImpactStory) (*model.ImpactStory, error) {
	result, err := s.db.Exec(
		`INSERT INTO impact_stories (title, category, description, impact_metrics, image, sort_order, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.Title, st.Category, st.Description, st.ImpactMetrics, st.Image, st.SortOrder, boolInt(st.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert impact story: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetStory(id)
}

func (s *ImpactStore) GetStory(id int64) (*model.ImpactStory, error) {
	st, err := scanImpactStory(s.db.QueryRow(`SELECT `+storyCols+` FROM impact_stories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get impact story: %w", err)
	}
	return st, nil
}

func (s *ImpactStore) UpdateStory(id int64, st *model.ImpactStory) (*model.ImpactStory, error) {
	_, err := s.db.Exec(
		`UPDATE impact_stories SET title = ?, category = ?, description = ?, impact_metrics = ?, image = ?,
		 sort_order = ?, is_active = ? WHERE id = ?`,
		st.Title, st.Category, st.Description, st.ImpactMetrics, st.Image, st.SortOrder, boolInt(st.IsActive), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update impact story: %w", err)
	}
	return s.GetStory(id)
}

func (s *ImpactStore) DeleteStory(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM impact_stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete impact story: %w", err)
	}
	return nil
}

// ListStories returns stories by display order. activeOnly hides drafts.
func (s *ImpactStore) ListStories(activeOnly bool) ([]model.ImpactStory, error) {
	query := `SELECT ` + storyCols + ` FROM impact_stories`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	stories, err := queryAll(s.db, scanImpactStory, query+` ORDER BY sort_order, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list impact stories: %w", err)
	}
	return stories, nil
}

func scanHighlight(s scanner) (*model.ResearchHighlight, error) {
	var h model.ResearchHighlight
	var active int
	if err := s.Scan(&h.ID, &h.Title, &h.Icon, &h.Description, &h.Link, &h.SortOrder, &active); err != nil {
		return nil, err
	}
	h.IsActive = active != 0
	return &h, nil
}

const highlightCols = `id, title, icon, description, link, sort_order, is_active`

func (s *ImpactStore) CreateHighlight(h *model.ResearchHighlight) (*model.ResearchHighlight, error) {
	result, err := s.db.Exec(
		`INSERT INTO research_highlights (title, icon, description, link, sort_order, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		h.Title, h.Icon, h.Description, h.Link, h.SortOrder, boolInt(h.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert research highlight: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+highlightCols+` FROM research_highlights WHERE id = ?`, id)
	return scanHighlight(row)
}

func (s *ImpactStore) DeleteHighlight(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM research_highlights WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete research highlight: %w", err)
	}
	return nil
}

func (s *ImpactStore) ListHighlights(activeOnly bool) ([]model.ResearchHighlight, error) {
	query := `SELECT ` + highlightCols + ` FROM research_highlights`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	highlights, err := queryAll(s.db, scanHighlight, query+` ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list research highlights: %w", err)
	}
	return highlights, nil
}

func scanPolicy(s scanner) (*model.PolicyImpact, error) {
	var p model.PolicyImpact
	var active int
	if err := s.Scan(&p.ID, &p.Year, &p.Title, &p.Organization, &p.Description, &p.SortOrder, &active); err != nil {
		return nil, err
	}
	p.IsActive = active != 0
	return &p, nil
}

const policyCols = `id, year, title, organization, description, sort_order, is_active`

func (s *ImpactStore) CreatePolicy(p *model.PolicyImpact) (*model.PolicyImpact, error) {
	result, err := s.db.Exec(
		`INSERT INTO policy_impacts (year, title, organization, description, sort_order, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Year, p.Title, p.Organization, p.Description, p.SortOrder, boolInt(p.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert policy impact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+policyCols+` FROM policy_impacts WHERE id = ?`, id)
	return scanPolicy(row)
}

func (s *ImpactStore) DeletePolicy(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM policy_impacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete policy impact: %w", err)
	}
	return nil
}

// ListPolicies returns policy impacts, most recent year first.
func (s *ImpactStore) ListPolicies(activeOnly bool) ([]model.PolicyImpact, error) {
	query := `SELECT ` + policyCols + ` FROM policy_impacts`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	policies, err := queryAll(s.db, scanPolicy, query+` ORDER BY year DESC, sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list policy impacts: %w", err)
	}
	return policies, nil
}
