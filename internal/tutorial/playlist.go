// Package tutorial groups video lectures under their playlist headers.
package tutorial

import (
	"sort"

	"github.com/climatologylab/labsite/internal/model"
)

// PlaylistGroup is a playlist header with its ordered lectures.
type PlaylistGroup struct {
	Playlist     model.Tutorial
	Lectures     []model.Tutorial
	LectureCount int
}

// Group attaches lectures to headers by playlist id. Header order is kept.
// Only active, non-header lectures are attached, ordered by lecture number
// (unnumbered last) and then id.
func Group(headers, lectures []model.Tutorial) []PlaylistGroup {
	byPlaylist := make(map[string][]model.Tutorial)
	for _, l := range lectures {
		if !l.IsActive || l.IsPlaylist {
			continue
		}
		key := playlistKey(l)
		if key == "" {
			continue
		}
		byPlaylist[key] = append(byPlaylist[key], l)
	}

	groups := make([]PlaylistGroup, 0, len(headers))
	for _, h := range headers {
		var ls []model.Tutorial
		if key := playlistKey(h); key != "" {
			ls = append(ls, byPlaylist[key]...)
		}
		SortLectures(ls)
		groups = append(groups, PlaylistGroup{
			Playlist:     h,
			Lectures:     ls,
			LectureCount: len(ls),
		})
	}
	return groups
}

// SortLectures orders lectures by lecture number, unnumbered last, then id.
func SortLectures(ls []model.Tutorial) {
	sort.SliceStable(ls, func(i, j int) bool {
		a, b := ls[i].LectureNumber, ls[j].LectureNumber
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return ls[i].ID < ls[j].ID
	})
}

// IsStandalone reports whether t is a lecture outside any playlist.
func IsStandalone(t model.Tutorial) bool {
	return !t.IsPlaylist && playlistKey(t) == ""
}

// Orphans returns active lectures whose playlist id has no header. They are
// not shown on the public page.
func Orphans(headers, lectures []model.Tutorial) []model.Tutorial {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		if key := playlistKey(h); key != "" {
			known[key] = true
		}
	}
	var out []model.Tutorial
	for _, l := range lectures {
		if l.IsPlaylist || !l.IsActive {
			continue
		}
		if key := playlistKey(l); key != "" && !known[key] {
			out = append(out, l)
		}
	}
	return out
}

func playlistKey(t model.Tutorial) string {
	if t.PlaylistID == nil {
		return ""
	}
	return *t.PlaylistID
}
