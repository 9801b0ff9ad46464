package model

import "time"

// Tutorial is a video lecture, or a playlist header when IsPlaylist is set.
// Lectures belong to a playlist by sharing its PlaylistID.
type Tutorial struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	ExternalLink  string    `json:"external_link"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	SortOrder     int       `json:"sort_order"`
	IsActive      bool      `json:"is_active"`
	PlaylistID    *string   `json:"playlist_id"`
	IsPlaylist    bool      `json:"is_playlist"`
	LectureNumber *int      `json:"lecture_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
