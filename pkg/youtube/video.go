// Package youtube resolves video URLs and fetches caption transcripts.
package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"mediarag/internal/models"
)

// ErrInvalidURL is returned for URLs that do not point at a YouTube video.
var ErrInvalidURL = errors.New("invalid youtube url")

// ExtractVideoID pulls the video identifier out of a YouTube URL. Both the
// long form (youtube.com/watch?v=XYZ) and the short form (youtu.be/XYZ) are
// accepted.
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	switch u.Hostname() {
	case "www.youtube.com", "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: could not extract video id from %q", ErrInvalidURL, rawURL)
}

// SourceName derives the stored source identifier for a video. The
// "video_<id>.txt" shape is how the rest of the system tells transcripts
// apart from documents, so it must stay stable.
func SourceName(videoID string) string {
	return models.VideoSourcePrefix + videoID + ".txt"
}

// VideoIDFromSource is the inverse of SourceName.
func VideoIDFromSource(source string) string {
	id := strings.TrimPrefix(source, models.VideoSourcePrefix)
	return strings.TrimSuffix(id, ".txt")
}

// IsVideoSource reports whether a source identifier names a transcript.
func IsVideoSource(source string) bool {
	return strings.HasPrefix(source, models.VideoSourcePrefix)
}

// WatchURL rebuilds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
