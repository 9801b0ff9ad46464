package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/tutorial"
)

var TutorialListing = listing.View{
	SearchColumns: []string{"title"},
	DateColumn:    "created_at",
	TitleColumn:   "title",
}

type TutorialStore struct {
	db *sql.DB
}

func NewTutorialStore(db *sql.DB) *TutorialStore {
	return &TutorialStore{db: db}
}

func scanTutorial(s scanner) (*model.Tutorial, error) {
	var t model.Tutorial
	var playlistID sql.NullString
	var lectureNumber sql.NullInt64
	var active, isPlaylist int
	err := s.Scan(
		&t.ID, &t.Title, &t.ExternalLink, &t.ThumbnailURL, &t.SortOrder, &active,
		&playlistID, &isPlaylist, &lectureNumber, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.IsActive = active != 0
	t.IsPlaylist = isPlaylist != 0
	if playlistID.Valid {
		t.PlaylistID = &playlistID.String
	}
	if lectureNumber.Valid {
		n := int(lectureNumber.Int64)
		t.LectureNumber = &n
	}
	return &t, nil
}

const tutorialCols = `id, title, external_link, thumbnail_url, sort_order, is_active, playlist_id, is_playlist,
	lecture_number, created_at, updated_at`

func tutorialArgs(t *model.Tutorial) []any {
	var playlistID sql.NullString
	if t.PlaylistID != nil {
		playlistID = sql.NullString{String: *t.PlaylistID, Valid: true}
	}
	var lectureNumber sql.NullInt64
	if t.LectureNumber != nil {
		lectureNumber = sql.NullInt64{Int64: int64(*t.LectureNumber), Valid: true}
	}
	thumb := t.ThumbnailURL
	if thumb == "" {
		thumb = tutorial.DefaultThumbnail(t.ExternalLink)
	}
	return []any{
		t.Title, t.ExternalLink, thumb, t.SortOrder, boolInt(t.IsActive),
		playlistID, boolInt(t.IsPlaylist), lectureNumber,
	}
}

// Create stores a tutorial. A YouTube thumbnail is filled in when none is set.
func (s *TutorialStore) Create(t *model.Tutorial) (*model.Tutorial, error) {
	result, err := s.db.Exec(
		`INSERT INTO tutorials (title, external_link, thumbnail_url, sort_order, is_active, playlist_id,
		 is_playlist, lecture_number) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tutorialArgs(t)...,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tutorial: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TutorialStore) GetByID(id int64) (*model.Tutorial, error) {
	t, err := scanTutorial(s.db.QueryRow(`SELECT `+tutorialCols+` FROM tutorials WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tutorial: %w", err)
	}
	return t, nil
}

func (s *TutorialStore) Update(id int64, t *model.Tutorial) (*model.Tutorial, error) {
	args := append(tutorialArgs(t), id)
	_, err := s.db.Exec(
		`UPDATE tutorials SET title = ?, external_link = ?, thumbnail_url = ?, sort_order = ?, is_active = ?,
		 playlist_id = ?, is_playlist = ?, lecture_number = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update tutorial: %w", err)
	}
	return s.GetByID(id)
}

func (s *TutorialStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM tutorials WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tutorial: %w", err)
	}
	return nil
}

// ListPlaylists returns active playlist headers, searched and sorted by p.
func (s *TutorialStore) ListPlaylists(p listing.Params) ([]model.Tutorial, error) {
	b := listing.Select(`SELECT ` + tutorialCols + ` FROM tutorials`).
		Where("is_active = 1").
		Where("is_playlist = 1")
	return s.list(TutorialListing.Apply(b, p))
}

// ListStandalone returns active lectures without a playlist id.
func (s *TutorialStore) ListStandalone(p listing.Params) ([]model.Tutorial, error) {
	b := listing.Select(`SELECT ` + tutorialCols + ` FROM tutorials`).
		Where("is_active = 1").
		Where("is_playlist = 0").
		Where("(playlist_id IS NULL OR playlist_id = '')")
	return s.list(TutorialListing.Apply(b, p))
}

// ListLectures returns every active lecture that carries a playlist id.
func (s *TutorialStore) ListLectures() ([]model.Tutorial, error) {
	b := listing.Select(`SELECT `+tutorialCols+` FROM tutorials`).
		Where("is_active = 1").
		Where("is_playlist = 0").
		Where("playlist_id IS NOT NULL AND playlist_id <> ''").
		OrderBy("playlist_id, id")
	return s.list(b)
}

// Playlists returns the public playlist groups for p.
func (s *TutorialStore) Playlists(p listing.Params) ([]tutorial.PlaylistGroup, error) {
	headers, err := s.ListPlaylists(p)
	if err != nil {
		return nil, err
	}
	lectures, err := s.ListLectures()
	if err != nil {
		return nil, err
	}
	return tutorial.Group(headers, lectures), nil
}

// Orphans returns active lectures whose playlist has no active header.
func (s *TutorialStore) Orphans() ([]model.Tutorial, error) {
	headers, err := s.ListPlaylists(listing.Params{})
	if err != nil {
		return nil, err
	}
	lectures, err := s.ListLectures()
	if err != nil {
		return nil, err
	}
	return tutorial.Orphans(headers, lectures), nil
}

func (s *TutorialStore) List(search string) ([]model.Tutorial, error) {
	query, args := listing.Select(`SELECT `+tutorialCols+` FROM tutorials`).
		Search(TutorialListing.SearchColumns, search).
		OrderBy("sort_order, id").
		Build()
	tutorials, err := queryAll(s.db, scanTutorial, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tutorials: %w", err)
	}
	return tutorials, nil
}

func (s *TutorialStore) list(b *listing.Builder) ([]model.Tutorial, error) {
	query, args := b.Build()
	tutorials, err := queryAll(s.db, scanTutorial, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tutorials: %w", err)
	}
	return tutorials, nil
}
