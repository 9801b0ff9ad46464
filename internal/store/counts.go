package store

import (
	"database/sql"
	"fmt"
)

// DashboardCounts are the row totals shown on the dashboard home page,
// including inactive rows.
type DashboardCounts struct {
	Projects       int `json:"projects"`
	Publications   int `json:"publications"`
	Team           int `json:"team"`
	Workshops      int `json:"workshops"`
	Notices        int `json:"notices"`
	Tutorials      int `json:"tutorials"`
	Carousel       int `json:"carousel"`
	ImpactStories  int `json:"impact_stories"`
	UnreadContacts int `json:"unread_contacts"`
}

type CountStore struct {
	db *sql.DB
}

func NewCountStore(db *sql.DB) *CountStore {
	return &CountStore{db: db}
}

func (s *CountStore) Dashboard() (*DashboardCounts, error) {
	var c DashboardCounts
	err := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM projects),
		(SELECT COUNT(*) FROM publications),
		(SELECT COUNT(*) FROM team_members),
		(SELECT COUNT(*) FROM workshops),
		(SELECT COUNT(*) FROM notices),
		(SELECT COUNT(*) FROM tutorials),
		(SELECT COUNT(*) FROM carousel_images),
		(SELECT COUNT(*) FROM impact_stories),
		(SELECT COUNT(*) FROM contact_submissions WHERE is_read = 0)`,
	).Scan(&c.Projects, &c.Publications, &c.Team, &c.Workshops, &c.Notices,
		&c.Tutorials, &c.Carousel, &c.ImpactStories, &c.UnreadContacts)
	if err != nil {
		return nil, fmt.Errorf("count dashboard rows: %w", err)
	}
	return &c, nil
}
