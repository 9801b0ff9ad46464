package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/model"
)

type ContactStore struct {
	db *sql.DB
}

func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

func scanContact(s scanner) (*model.ContactSubmission, error) {
	var c model.ContactSubmission
	var read int
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Query, &read, &c.AdminNotes, &c.SubmittedAt)
	if err != nil {
		return nil, err
	}
	c.IsRead = read != 0
	return &c, nil
}

const contactCols = `id, name, email, phone, query, is_read, admin_notes, submitted_at`

func (s *ContactStore) Create(name, email, phone, query string) (*model.ContactSubmission, error) {
	result, err := s.db.Exec(
		`INSERT INTO contact_submissions (name, email, phone, query) VALUES (?, ?, ?, ?)`,
		name, email, phone, query,
	)
	if err != nil {
		return nil, fmt.Errorf("insert contact submission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ContactStore) GetByID(id int64) (*model.ContactSubmission, error) {
	c, err := scanContact(s.db.QueryRow(`SELECT `+contactCols+` FROM contact_submissions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact submission: %w", err)
	}
	return c, nil
}

// List returns submissions, unread first and then newest first.
func (s *ContactStore) List() ([]model.ContactSubmission, error) {
	subs, err := queryAll(s.db, scanContact,
		`SELECT `+contactCols+` FROM contact_submissions ORDER BY is_read, submitted_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contact submissions: %w", err)
	}
	return subs, nil
}

// MarkRead flags a submission as handled and stores the admin's notes.
func (s *ContactStore) MarkRead(id int64, notes string) (*model.ContactSubmission, error) {
	_, err := s.db.Exec(`UPDATE contact_submissions SET is_read = 1, admin_notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return nil, fmt.Errorf("mark contact submission read: %w", err)
	}
	return s.GetByID(id)
}

func (s *ContactStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM contact_submissions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete contact submission: %w", err)
	}
	return nil
}

func (s *ContactStore) CountUnread() (int, error) {
	n, err := count(s.db, `SELECT COUNT(*) FROM contact_submissions WHERE is_read = 0`)
	if err != nil {
		return 0, fmt.Errorf("count unread submissions: %w", err)
	}
	return n, nil
}
