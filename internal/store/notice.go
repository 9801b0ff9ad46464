package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
)

var NoticeListing = listing.View{
	SearchColumns: []string{"title", "description"},
	DateColumn:    "event_date",
	TitleColumn:   "title",
}

type NoticeStore struct {
	db *sql.DB
}

func NewNoticeStore(db *sql.DB) *NoticeStore {
	return &NoticeStore{db: db}
}

func scanNotice(s scanner) (*model.Notice, error) {
	var n model.Notice
	var eventDate sql.NullString
	var active int
	err := s.Scan(&n.ID, &n.Kind, &n.Title, &n.Description, &eventDate, &n.Link, &active, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.EventDate = scanDate(eventDate)
	n.IsActive = active != 0
	return &n, nil
}

const noticeCols = `id, kind, title, description, event_date, link, is_active, created_at, updated_at`

func (s *NoticeStore) Create(n *model.Notice) (*model.Notice, error) {
	result, err := s.db.Exec(
		`INSERT INTO notices (kind, title, description, event_date, link, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		n.Kind, n.Title, n.Description, dateArg(n.EventDate), n.Link, boolInt(n.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notice: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *NoticeStore) GetByID(id int64) (*model.Notice, error) {
	n, err := scanNotice(s.db.QueryRow(`SELECT `+noticeCols+` FROM notices WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notice: %w", err)
	}
	return n, nil
}

func (s *NoticeStore) Update(id int64, n *model.Notice) (*model.Notice, error) {
	_, err := s.db.Exec(
		`UPDATE notices SET kind = ?, title = ?, description = ?, event_date = ?, link = ?, is_active = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		n.Kind, n.Title, n.Description, dateArg(n.EventDate), n.Link, boolInt(n.IsActive), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update notice: %w", err)
	}
	return s.GetByID(id)
}

func (s *NoticeStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM notices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return nil
}

// ListPublic returns active notices of both kinds, searched and sorted by p.
func (s *NoticeStore) ListPublic(p listing.Params) ([]model.Notice, error) {
	b := listing.Select(`SELECT ` + noticeCols + ` FROM notices`).Where("is_active = 1")
	query, args := NoticeListing.Apply(b, p).Build()

	notices, err := queryAll(s.db, scanNotice, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// List returns notices for the dashboard. An empty kind lists both kinds.
func (s *NoticeStore) List(kind, search string) ([]model.Notice, error) {
	b := listing.Select(`SELECT ` + noticeCols + ` FROM notices`)
	if kind != "" {
		b.Where("kind = ?", kind)
	}
	query, args := NoticeListing.Apply(b, listing.Params{Search: search}).Build()

	notices, err := queryAll(s.db, scanNotice, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// Latest returns up to limit active notices, newest first. An empty kind
// considers both kinds together.
func (s *NoticeStore) Latest(kind string, limit int) ([]model.Notice, error) {
	b := listing.Select(`SELECT ` + noticeCols + ` FROM notices`).Where("is_active = 1")
	if kind != "" {
		b.Where("kind = ?", kind)
	}
	query, args := b.OrderBy("event_date DESC, id DESC").Limit(limit).Build()

	notices, err := queryAll(s.db, scanNotice, query, args...)
	if err != nil {
		return nil, fmt.Errorf("latest notices: %w", err)
	}
	return notices, nil
}
