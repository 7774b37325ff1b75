package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// ErrTranscriptUnavailable is returned once every fallback has been tried.
var ErrTranscriptUnavailable = errors.New("transcript unavailable")

// captionTracksPattern locates the caption track list embedded in the watch
// page's player response JSON.
var captionTracksPattern = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

type TranscriptConfig struct {
	Timeout   time.Duration
	RateLimit float64  // requests per second against youtube.com
	Languages []string // preferred language codes for the restricted fallback
	UserAgent string
	BaseURL   string // overridable for tests
}

// TranscriptClient fetches caption transcripts from YouTube's public watch
// pages. Retrieval is best-effort: cloud provider IPs are frequently blocked,
// which is why callers can always supply a manual transcript instead.
type TranscriptClient struct {
	config  TranscriptConfig
	client  *http.Client
	limiter *rate.Limiter
}

// Transcript is the text pulled from one video's captions.
type Transcript struct {
	VideoID string
	Title   string
	Text    string
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func NewTranscriptClient(config TranscriptConfig) *TranscriptClient {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if len(config.Languages) == 0 {
		config.Languages = []string{"en", "en-US", "en-GB"}
	}
	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://www.youtube.com"
	}

	return &TranscriptClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Fetch retrieves the transcript for a video, trying in order:
//
//  1. the video's default caption track
//  2. tracks restricted to the configured preferred languages
//  3. every remaining available track
//
// The ordering matters: it mirrors how a viewer would pick captions, and
// only when the whole chain is exhausted does the caller get
// ErrTranscriptUnavailable with remediation hints.
func (c *TranscriptClient) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	tracks, title, err := c.captionTracks(ctx, videoID)
	if err != nil {
		return nil, c.unavailable(videoID, err)
	}
	if len(tracks) == 0 {
		return nil, c.unavailable(videoID, errors.New("video has no caption tracks"))
	}

	// Primary: the default track.
	if text, err := c.fetchTrack(ctx, tracks[0].BaseURL); err == nil && text != "" {
		return &Transcript{VideoID: videoID, Title: title, Text: text}, nil
	}

	// Fallback 1: preferred languages only.
	for _, lang := range c.config.Languages {
		for _, track := range tracks {
			if track.LanguageCode != lang {
				continue
			}
			if text, err := c.fetchTrack(ctx, track.BaseURL); err == nil && text != "" {
				return &Transcript{VideoID: videoID, Title: title, Text: text}, nil
			}
		}
	}

	// Fallback 2: anything that works.
	var lastErr error
	for _, track := range tracks {
		text, err := c.fetchTrack(ctx, track.BaseURL)
		if err != nil {
			lastErr = err
			continue
		}
		if text != "" {
			return &Transcript{VideoID: videoID, Title: title, Text: text}, nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no accessible transcripts found")
	}
	return nil, c.unavailable(videoID, lastErr)
}

// FetchDirect tries only the video's default caption track, with no language
// or track fallbacks.
func (c *TranscriptClient) FetchDirect(ctx context.Context, videoID string) (*Transcript, error) {
	tracks, title, err := c.captionTracks(ctx, videoID)
	if err != nil {
		return nil, c.unavailable(videoID, err)
	}
	if len(tracks) == 0 {
		return nil, c.unavailable(videoID, errors.New("video has no caption tracks"))
	}

	text, err := c.fetchTrack(ctx, tracks[0].BaseURL)
	if err != nil {
		return nil, c.unavailable(videoID, err)
	}
	if text == "" {
		return nil, c.unavailable(videoID, errors.New("default caption track is empty"))
	}
	return &Transcript{VideoID: videoID, Title: title, Text: text}, nil
}

// unavailable wraps the terminal failure with the remediation guidance the
// API surfaces to callers.
func (c *TranscriptClient) unavailable(videoID string, cause error) error {
	return fmt.Errorf("%w: transcript retrieval failed for video %s: %v. "+
		"This usually means YouTube is blocking the server's IP (common on cloud providers), "+
		"the video has no captions, or the video is private or region restricted. "+
		"Provide a manual transcript, use a proxy, or process the video locally",
		ErrTranscriptUnavailable, videoID, cause)
}

// captionTracks fetches the watch page and extracts its caption track list
// plus the page title.
func (c *TranscriptClient) captionTracks(ctx context.Context, videoID string) ([]captionTrack, string, error) {
	body, err := c.get(ctx, c.config.BaseURL+"/watch?v="+videoID)
	if err != nil {
		return nil, "", err
	}

	page := string(body)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	title := ""
	if err == nil {
		title = strings.TrimSuffix(strings.TrimSpace(doc.Find("title").Text()), " - YouTube")
	}

	match := captionTracksPattern.FindStringSubmatch(page)
	if match == nil {
		return nil, title, errors.New("no caption metadata in watch page")
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
		return nil, title, fmt.Errorf("failed to parse caption tracks: %w", err)
	}
	return tracks, title, nil
}

// fetchTrack downloads one timedtext document and flattens it to plain text.
func (c *TranscriptClient) fetchTrack(ctx context.Context, baseURL string) (string, error) {
	body, err := c.get(ctx, baseURL)
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("failed to parse timedtext: %w", err)
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, entry := range tt.Texts {
		line := strings.TrimSpace(html.UnescapeString(entry.Value))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " "), nil
}

func (c *TranscriptClient) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
