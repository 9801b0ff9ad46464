package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/model"
)

type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// Get returns the home page stats, creating the row with defaults on first use.
func (s *StatsStore) Get() (*model.HomeStats, error) {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO home_stats (id) VALUES (1)`); err != nil {
		return nil, fmt.Errorf("init home stats: %w", err)
	}
	var st model.HomeStats
	err := s.db.QueryRow(
		`SELECT publications_count, projects_count, outreach_programs_count, years_of_research, updated_at
		 FROM home_stats WHERE id = 1`,
	).Scan(&st.PublicationsCount, &st.ProjectsCount, &st.OutreachProgramsCount, &st.YearsOfResearch, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get home stats: %w", err)
	}
	return &st, nil
}

func (s *StatsStore) Update(st *model.HomeStats) (*model.HomeStats, error) {
	_, err := s.db.Exec(
		`INSERT INTO home_stats (id, publications_count, projects_count, outreach_programs_count, years_of_research)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET publications_count = excluded.publications_count,
		   projects_count = excluded.projects_count, outreach_programs_count = excluded.outreach_programs_count,
		   years_of_research = excluded.years_of_research, updated_at = CURRENT_TIMESTAMP`,
		st.PublicationsCount, st.ProjectsCount, st.OutreachProgramsCount, st.YearsOfResearch,
	)
	if err != nil {
		return nil, fmt.Errorf("update home stats: %w", err)
	}
	return s.Get()
}
