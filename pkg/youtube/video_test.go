package youtube_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediarag/pkg/youtube"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare host", "https://youtube.com/watch?v=abc123", "abc123"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile host", "https://m.youtube.com/watch?v=xyz", "xyz"},
		{"watch url with extra params", "https://www.youtube.com/watch?v=XYZ&t=42s", "XYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := youtube.ExtractVideoID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestExtractVideoID_Invalid(t *testing.T) {
	tests := []string{
		"https://vimeo.com/12345",
		"https://www.youtube.com/watch",
		"https://youtu.be/",
		"not a url at all",
	}

	for _, url := range tests {
		_, err := youtube.ExtractVideoID(url)
		assert.ErrorIs(t, err, youtube.ErrInvalidURL, "url: %s", url)
	}
}

func TestSourceNameRoundTrip(t *testing.T) {
	source := youtube.SourceName("dQw4w9WgXcQ")

	assert.Equal(t, "video_dQw4w9WgXcQ.txt", source)
	assert.True(t, youtube.IsVideoSource(source))
	assert.False(t, youtube.IsVideoSource("handbook.pdf"))
	assert.Equal(t, "dQw4w9WgXcQ", youtube.VideoIDFromSource(source))
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", youtube.WatchURL("abc"))
}
