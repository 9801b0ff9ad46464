package store

import (
	"testing"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestTutorialCreateFillsThumbnail(t *testing.T) {
	ts := NewTutorialStore(setupTestDB(t))

	tut, err := ts.Create(&model.Tutorial{Title: "Intro", ExternalLink: "https://youtu.be/abc123", IsActive: true})
	if err != nil {
		t.Fatalf("create tutorial: %v", err)
	}
	if want := "https://img.youtube.com/vi/abc123/maxresdefault.jpg"; tut.ThumbnailURL != want {
		t.Errorf("thumbnail = %q, want %q", tut.ThumbnailURL, want)
	}
	if tut.PlaylistID != nil || tut.LectureNumber != nil {
		t.Errorf("expected nil playlist fields, got %v %v", tut.PlaylistID, tut.LectureNumber)
	}
}

func TestTutorialPlaylistsAndStandalone(t *testing.T) {
	ts := NewTutorialStore(setupTestDB(t))

	seed := []model.Tutorial{
		{Title: "GIS Course", IsPlaylist: true, PlaylistID: strPtr("P1")},
		{Title: "Lecture three", PlaylistID: strPtr("P1"), LectureNumber: intPtr(3)},
		{Title: "Lecture one", PlaylistID: strPtr("P1"), LectureNumber: intPtr(1)},
		{Title: "Bonus", PlaylistID: strPtr("P1")},
		{Title: "Orphan", PlaylistID: strPtr("P9"), LectureNumber: intPtr(1)},
		{Title: "Standalone nil"},
		{Title: "Standalone empty", PlaylistID: strPtr("")},
	}
	for i := range seed {
		seed[i].IsActive = true
		if _, err := ts.Create(&seed[i]); err != nil {
			t.Fatalf("create tutorial: %v", err)
		}
	}
	ts.Create(&model.Tutorial{Title: "Hidden lecture", PlaylistID: strPtr("P1"), LectureNumber: intPtr(2), IsActive: false})

	groups, err := ts.Playlists(listing.Params{})
	if err != nil {
		t.Fatalf("playlists: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	g := groups[0]
	if g.Playlist.Title != "GIS Course" || g.LectureCount != 3 {
		t.Fatalf("group = %q with %d lectures", g.Playlist.Title, g.LectureCount)
	}
	want := []string{"Lecture one", "Lecture three", "Bonus"}
	for i, l := range g.Lectures {
		if l.Title != want[i] {
			t.Errorf("lecture %d = %q, want %q", i, l.Title, want[i])
		}
	}

	standalone, err := ts.ListStandalone(listing.Params{Sort: listing.SortAZ})
	if err != nil {
		t.Fatalf("standalone: %v", err)
	}
	if len(standalone) != 2 || standalone[0].Title != "Standalone empty" || standalone[1].Title != "Standalone nil" {
		t.Errorf("standalone = %+v", standalone)
	}

	orphans, err := ts.Orphans()
	if err != nil {
		t.Fatalf("orphans: %v", err)
	}
	if len(orphans) != 1 || orphans[0].Title != "Orphan" {
		t.Errorf("orphans = %+v", orphans)
	}
}

func TestTutorialPlaylistSearchFiltersHeaders(t *testing.T) {
	ts := NewTutorialStore(setupTestDB(t))

	ts.Create(&model.Tutorial{Title: "Remote Sensing", IsPlaylist: true, PlaylistID: strPtr("RS"), IsActive: true})
	ts.Create(&model.Tutorial{Title: "Climate Models", IsPlaylist: true, PlaylistID: strPtr("CM"), IsActive: true})
	ts.Create(&model.Tutorial{Title: "Part 1", PlaylistID: strPtr("CM"), LectureNumber: intPtr(1), IsActive: true})

	groups, err := ts.Playlists(listing.Params{Search: "climate"})
	if err != nil {
		t.Fatalf("playlists: %v", err)
	}
	if len(groups) != 1 || groups[0].Playlist.Title != "Climate Models" || groups[0].LectureCount != 1 {
		t.Errorf("groups = %+v", groups)
	}
}
