package tutorial

import (
	"regexp"

	"github.com/climatologylab/labsite/internal/model"
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([^&]+)`),
	regexp.MustCompile(`youtu\.be/([^?]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^?]+)`),
}

// YouTubeID extracts the video id from a watch, short or embed URL.
func YouTubeID(link string) string {
	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}

// Thumbnail returns the tutorial's thumbnail, falling back to the YouTube
// preview image for its link.
func Thumbnail(t model.Tutorial) string {
	if t.ThumbnailURL != "" {
		return t.ThumbnailURL
	}
	if id := YouTubeID(t.ExternalLink); id != "" {
		return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
	}
	return ""
}

// DefaultThumbnail is the thumbnail stored for a new tutorial without one.
func DefaultThumbnail(link string) string {
	if id := YouTubeID(link); id != "" {
		return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
	}
	return ""
}

// EmbedURL returns the embeddable player URL for a YouTube link.
func EmbedURL(link string) string {
	if id := YouTubeID(link); id != "" {
		return "https://www.youtube.com/embed/" + id
	}
	return link
}
