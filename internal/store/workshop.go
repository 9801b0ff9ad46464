package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
)

var WorkshopListing = listing.View{
	SearchColumns: []string{"title", "description"},
	DateColumn:    "event_date",
	TitleColumn:   "title",
}

type WorkshopStore struct {
	db *sql.DB
}

func NewWorkshopStore(db *sql.DB) *WorkshopStore {
	return &WorkshopStore{db: db}
}

func scanWorkshop(s scanner) (*model.Workshop, error) {
	var w model.Workshop
	var eventDate sql.NullString
	var active int
	err := s.Scan(&w.ID, &w.Title, &w.Description, &eventDate, &w.Link, &active, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.EventDate = scanDate(eventDate)
	w.IsActive = active != 0
	return &w, nil
}

const workshopCols = `id, title, description, event_date, link, is_active, created_at, updated_at`

func (s *WorkshopStore) Create(w *model.Workshop) (*model.Workshop, error) {
	result, err := s.db.Exec(
		`INSERT INTO workshops (title, description, event_date, link, is_active) VALUES (?, ?, ?, ?, ?)`,
		w.Title, w.Description, dateArg(w.EventDate), w.Link, boolInt(w.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert workshop: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *WorkshopStore) GetByID(id int64) (*model.Workshop, error) {
	w, err := scanWorkshop(s.db.QueryRow(`SELECT `+workshopCols+` FROM workshops WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	return w, nil
}

func (s *WorkshopStore) Update(id int64, w *model.Workshop) (*model.Workshop, error) {
	_, err := s.db.Exec(
		`UPDATE workshops SET title = ?, description = ?, event_date = ?, link = ?, is_active = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		w.Title, w.Description, dateArg(w.EventDate), w.Link, boolInt(w.IsActive), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update workshop: %w", err)
	}
	return s.GetByID(id)
}

func (s *WorkshopStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM workshops WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete workshop: %w", err)
	}
	return nil
}

func (s *WorkshopStore) ListPublic(p listing.Params) ([]model.Workshop, error) {
	b := listing.Select(`SELECT ` + workshopCols + ` FROM workshops`).Where("is_active = 1")
	query, args := WorkshopListing.Apply(b, p).Build()

	workshops, err := queryAll(s.db, scanWorkshop, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	return workshops, nil
}

func (s *WorkshopStore) List(search string) ([]model.Workshop, error) {
	b := listing.Select(`SELECT ` + workshopCols + ` FROM workshops`)
	query, args := WorkshopListing.Apply(b, listing.Params{Search: search}).Build()

	workshops, err := queryAll(s.db, scanWorkshop, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	return workshops, nil
}

// Latest returns up to limit active workshops by event date, newest first.
func (s *WorkshopStore) Latest(limit int) ([]model.Workshop, error) {
	workshops, err := queryAll(s.db, scanWorkshop,
		`SELECT `+workshopCols+` FROM workshops WHERE is_active = 1 ORDER BY event_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest workshops: %w", err)
	}
	return workshops, nil
}
