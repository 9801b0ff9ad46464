package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/model"
)

type CarouselStore struct {
	db *sql.DB
}

func NewCarouselStore(db *sql.DB) *CarouselStore {
	return &CarouselStore{db: db}
}

func scanCarouselImage(s scanner) (*model.CarouselImage, error) {
	var c model.CarouselImage
	var active int
	if err := s.Scan(&c.ID, &c.Title, &c.Image, &c.AltText, &c.SortOrder, &active, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.IsActive = active != 0
	return &c, nil
}

const carouselCols = `id, title, image, alt_text, sort_order, is_active, created_at`

func (s *CarouselStore) Create(c *model.CarouselImage) (*model.CarouselImage, error) {
	result, err := s.db.Exec(
		`INSERT INTO carousel_images (title, image, alt_text, sort_order, is_active) VALUES (?, ?, ?, ?, ?)`,
		c.Title, c.Image, c.AltText, c.SortOrder, boolInt(c.IsActive),
	)
	if err != nil {
		return nil, fmt.Errorf("insert carousel image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CarouselStore) GetByID(id int64) (*model.CarouselImage, error) {
	c, err := scanCarouselImage(s.db.QueryRow(`SELECT `+carouselCols+` FROM carousel_images WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get carousel image: %w", err)
	}
	return c, nil
}

func (s *CarouselStore) Update(id int64, c *model.CarouselImage) (*model.CarouselImage, error) {
	_, err := s.db.Exec(
		`UPDATE carousel_images SET title = ?, image = ?, alt_text = ?, sort_order = ?, is_active = ? WHERE id = ?`,
		c.Title, c.Image, c.AltText, c.SortOrder, boolInt(c.IsActive), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update carousel image: %w", err)
	}
	return s.GetByID(id)
}

func (s *CarouselStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM carousel_images WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete carousel image: %w", err)
	}
	return nil
}

func (s *CarouselStore) ListActive() ([]model.CarouselImage, error) {
	images, err := queryAll(s.db, scanCarouselImage,
		`SELECT `+carouselCols+` FROM carousel_images WHERE is_active = 1 ORDER BY sort_order, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list carousel images: %w", err)
	}
	return images, nil
}

func (s *CarouselStore) List() ([]model.CarouselImage, error) {
	images, err := queryAll(s.db, scanCarouselImage,
		`SELECT `+carouselCols+` FROM carousel_images ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list carousel images: %w", err)
	}
	return images, nil
}
