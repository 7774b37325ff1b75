package youtube_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediarag/pkg/youtube"
)

const timedTextBody = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.1">never gonna give</text>
  <text start="2.1" dur="1.9">you &amp;up</text>
</transcript>`

func TestTranscriptClient_Fetch(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprintf(w, `<html><head><title>Test Video - YouTube</title></head>
<body><script>{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"%s/api/timedtext","languageCode":"en"}]}}}</script></body></html>`,
				srv.URL)
		case "/api/timedtext":
			fmt.Fprint(w, timedTextBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := youtube.NewTranscriptClient(youtube.TranscriptConfig{
		BaseURL:   srv.URL,
		RateLimit: 100,
	})

	transcript, err := client.Fetch(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", transcript.VideoID)
	assert.Equal(t, "Test Video", transcript.Title)
	assert.Equal(t, "never gonna give you &up", transcript.Text)
}

func TestTranscriptClient_NoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Blocked</title></head><body>nothing here</body></html>`)
	}))
	defer srv.Close()

	client := youtube.NewTranscriptClient(youtube.TranscriptConfig{
		BaseURL:   srv.URL,
		RateLimit: 100,
	})

	_, err := client.Fetch(context.Background(), "abc")
	assert.ErrorIs(t, err, youtube.ErrTranscriptUnavailable)
}

func TestTranscriptClient_AllTracksFail(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprintf(w, `<html><head><title>t</title></head><body>
"captionTracks":[{"baseUrl":"%s/api/timedtext","languageCode":"de"}]
</body></html>`, srv.URL)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	client := youtube.NewTranscriptClient(youtube.TranscriptConfig{
		BaseURL:   srv.URL,
		RateLimit: 100,
	})

	_, err := client.Fetch(context.Background(), "abc")
	assert.ErrorIs(t, err, youtube.ErrTranscriptUnavailable)
}
