package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
)

var PublicationListing = listing.View{
	SearchColumns: []string{"title", "abstract", "authors", "journal"},
	DateColumn:    "publication_date",
	TitleColumn:   "title",
}

// PublicationFilter narrows the public list. Empty fields match everything.
type PublicationFilter struct {
	Category string
	Scope    string
}

type PublicationStore struct {
	db *sql.DB
}

func NewPublicationStore(db *sql.DB) *PublicationStore {
	return &PublicationStore{db: db}
}

func scanPublication(s scanner) (*model.Publication, error) {
	var p model.Publication
	var pubDate sql.NullString
	var featured, active int
	err := s.Scan(
		&p.ID, &p.Title, &pubDate, &p.Citation, &p.ExternalLink, &p.Authors, &p.Journal,
		&p.Volume, &p.Issue, &p.Pages, &p.DOI, &p.Abstract, &p.Category, &p.Scope,
		&p.CoverImage, &p.PDFFile, &featured, &active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PublicationDate = scanDate(pubDate)
	p.IsFeatured = featured != 0
	p.IsActive = active != 0
	return &p, nil
}

const publicationCols = `id, title, publication_date, citation, external_link, authors, journal, volume, issue,
	pages, doi, abstract, category, scope, cover_image, pdf_file, is_featured, is_active, created_at, updated_at`

func (s *PublicationStore) Create(p *model.Publication) (*model.Publication, error) {
	result, err := s.db.Exec(
		`INSERT INTO publications (title, publication_date, citation, external_link, authors, journal, volume,
		 issue, pages, doi, abstract, category, scope, cover_image, pdf_file, is_featured, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, dateArg(p.PublicationDate), p.Citation, p.ExternalLink, p.Authors, p.Journal, p.Volume,
		p.Issue, p.Pages, p.DOI, p.Abstract, p.Category, p.Scope, p.CoverImage, p.PDFFile,
		boolInt(p.IsFeatured), boolInt(p.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert publication: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PublicationStore) GetByID(id int64) (*model.Publication, error) {
	p, err := scanPublication(s.db.QueryRow(`SELECT `+publicationCols+` FROM publications WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publication: %w", err)
	}
	return p, nil
}

func (s *PublicationStore) Update(id int64, p *model.Publication) (*model.Publication, error) {
	_, err := s.db.Exec(
		`UPDATE publications SET title = ?, publication_date = ?, citation = ?, external_link = ?, authors = ?,
		 journal = ?, volume = ?, issue = ?, pages = ?, doi = ?, abstract = ?, category = ?, scope = ?,
		 cover_image = ?, pdf_file = ?, is_featured = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Title, dateArg(p.PublicationDate), p.Citation, p.ExternalLink, p.Authors, p.Journal, p.Volume,
		p.Issue, p.Pages, p.DOI, p.Abstract, p.Category, p.Scope, p.CoverImage, p.PDFFile,
		boolInt(p.IsFeatured), boolInt(p.IsActive), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update publication: %w", err)
	}
	return s.GetByID(id)
}

func (s *PublicationStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM publications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete publication: %w", err)
	}
	return nil
}

// ListPublic returns active publications matching f, searched and sorted by p.
func (s *PublicationStore) ListPublic(f PublicationFilter, p listing.Params) ([]model.Publication, error) {
	b := listing.Select(`SELECT ` + publicationCols + ` FROM publications`).Where("is_active = 1")
	if f.Category != "" {
		b.Where("category = ?", f.Category)
	}
	if f.Scope != "" {
		b.Where("scope = ?", f.Scope)
	}
	query, args := PublicationListing.Apply(b, p).Build()

	pubs, err := queryAll(s.db, scanPublication, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	return pubs, nil
}

func (s *PublicationStore) List(search string) ([]model.Publication, error) {
	b := listing.Select(`SELECT ` + publicationCols + ` FROM publications`)
	query, args := PublicationListing.Apply(b, listing.Params{Search: search}).Build()

	pubs, err := queryAll(s.db, scanPublication, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	return pubs, nil
}

// Featured returns up to limit active featured publications, newest first.
func (s *PublicationStore) Featured(limit int) ([]model.Publication, error) {
	pubs, err := queryAll(s.db, scanPublication,
		`SELECT `+publicationCols+` FROM publications WHERE is_active = 1 AND is_featured = 1
		 ORDER BY publication_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured publications: %w", err)
	}
	return pubs, nil
}

func (s *PublicationStore) CountActive() (int, error) {
	n, err := count(s.db, `SELECT COUNT(*) FROM publications WHERE is_active = 1`)
	if err != nil {
		return 0, fmt.Errorf("count publications: %w", err)
	}
	return n, nil
}

// CountAll counts every publication, including inactive ones.
func (s *PublicationStore) CountAll() (int, error) {
	n, err := count(s.db, `SELECT COUNT(*) FROM publications`)
	if err != nil {
		return 0, fmt.Errorf("count all publications: %w", err)
	}
	return n, nil
}
