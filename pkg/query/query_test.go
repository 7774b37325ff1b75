package query_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediarag/internal/models"
	"mediarag/pkg/chunker"
	"mediarag/pkg/ingest"
	"mediarag/pkg/query"
	"mediarag/pkg/store"
	"mediarag/pkg/youtube"
)

// wordEmbedder maps text to a letter-frequency vector so that identical text
// embeds identically and related text lands nearby. Deterministic, no
// network.
type wordEmbedder struct{}

func (wordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = embedText(t)
	}
	return vecs, nil
}

func (wordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return embedText(text), nil
}

func embedText(text string) []float32 {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec
}

// echoSynthesizer answers with a fixed marker plus the chunk count, so tests
// can assert what was fed to it without a live model.
type echoSynthesizer struct {
	lastChunks []models.Chunk
	err        error
}

func (s *echoSynthesizer) Answer(_ context.Context, _ string, chunks []models.Chunk) (string, error) {
	s.lastChunks = chunks
	if s.err != nil {
		return "", s.err
	}
	return "answered", nil
}

type stubTranscripts struct {
	text string
	err  error
}

func (s *stubTranscripts) Fetch(_ context.Context, videoID string) (*youtube.Transcript, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &youtube.Transcript{VideoID: videoID, Text: s.text}, nil
}

func (s *stubTranscripts) FetchDirect(ctx context.Context, videoID string) (*youtube.Transcript, error) {
	return s.Fetch(ctx, videoID)
}

type fixture struct {
	engine      *query.Engine
	store       store.VectorStore
	pipeline    *ingest.Pipeline
	synthesizer *echoSynthesizer
	transcripts *stubTranscripts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore(wordEmbedder{})
	c := chunker.New()
	pipeline := ingest.NewPipeline(c, s)
	synthesizer := &echoSynthesizer{}
	transcripts := &stubTranscripts{}
	return &fixture{
		engine:      query.NewEngine(s, synthesizer, c, pipeline, transcripts),
		store:       s,
		pipeline:    pipeline,
		synthesizer: synthesizer,
		transcripts: transcripts,
	}
}

func (f *fixture) seed(t *testing.T, source, text string) {
	t.Helper()
	var err error
	if models.TypeOfSource(source) == models.SourceTypeVideo {
		_, err = f.pipeline.IngestTranscript(context.Background(), text, source)
	} else {
		chunks := chunker.New().Split(text, source, models.SourceTypePDF)
		err = f.store.Store(context.Background(), chunks)
	}
	require.NoError(t, err)
}

func TestAsk(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "handbook.pdf", "employees accrue vacation monthly")

	answer, err := f.engine.Ask(context.Background(), "vacation accrual", 3)
	require.NoError(t, err)
	assert.Equal(t, "answered", answer)
	require.Len(t, f.synthesizer.lastChunks, 1)
	assert.Equal(t, "handbook.pdf", f.synthesizer.lastChunks[0].Source)
}

func TestAskDocument_FiltersToNamedSource(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "handbook.pdf", "employees accrue vacation monthly")
	f.seed(t, "policy.pdf", "vacation requests need manager approval")

	result, err := f.engine.AskDocument(context.Background(), "vacation", "policy.pdf", 3)
	require.NoError(t, err)
	assert.Equal(t, "answered", result.Answer)
	assert.Equal(t, 1, result.ChunksFound)
	for _, c := range f.synthesizer.lastChunks {
		assert.Equal(t, "policy.pdf", c.Source)
	}
}

func TestAskDocument_UnknownSource(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "handbook.pdf", "employees accrue vacation monthly")

	result, err := f.engine.AskDocument(context.Background(), "vacation", "missing.pdf", 3)
	require.NoError(t, err)
	assert.Empty(t, result.Answer)
	assert.Zero(t, result.ChunksFound)
}

func TestAskSmart_EmptyStore(t *testing.T) {
	f := newFixture(t)

	result, err := f.engine.AskSmart(context.Background(), "anything", 3, "best_match")
	require.NoError(t, err)
	assert.Empty(t, result.Answer)
	assert.Empty(t, result.Retrieval.Chunks)
	assert.Equal(t, "best_match", result.Retrieval.StrategyUsed)
}

func TestAskSmart_SynthesisErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "handbook.pdf", "employees accrue vacation monthly")
	f.synthesizer.err = errors.New("model unavailable")

	_, err := f.engine.AskSmart(context.Background(), "vacation", 3, "single_source")
	require.Error(t, err)
	assert.ErrorIs(t, err, f.synthesizer.err)
}

func TestAskAll_NoContentShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "handbook.pdf", "employees accrue vacation monthly")

	_, err := f.engine.AskAll(context.Background(), "vacation", 3, "best_match", "video")
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrNoContent)
	assert.Nil(t, f.synthesizer.lastChunks)
}

func TestAskAll_MatchingType(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "video_dQw4w9WgXcQ.txt", "never gonna give you up")

	result, err := f.engine.AskAll(context.Background(), "give you up", 3, "best_match", "video")
	require.NoError(t, err)
	assert.Equal(t, "answered", result.Answer)
	assert.Equal(t, "video_dQw4w9WgXcQ.txt", result.Retrieval.PrimarySource)
}

func TestAskVideo_PrefersStoredChunks(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "video_dQw4w9WgXcQ.txt", "never gonna give you up")

	result, err := f.engine.AskVideo(context.Background(),
		"give you up", "https://youtu.be/dQw4w9WgXcQ", 3, "")
	require.NoError(t, err)
	assert.Equal(t, "database", result.Origin)
	assert.Equal(t, "dQw4w9WgXcQ", result.VideoID)
	assert.Equal(t, 1, result.ChunksUsed)
}

func TestAskVideo_FallsBackToLiveTranscript(t *testing.T) {
	f := newFixture(t)
	f.transcripts.text = "never gonna let you down"

	result, err := f.engine.AskVideo(context.Background(),
		"let you down", "https://youtu.be/dQw4w9WgXcQ", 3, "")
	require.NoError(t, err)
	assert.Equal(t, "direct_transcript_automatic", result.Origin)
	assert.Equal(t, 1, result.ChunksUsed)

	// On-the-fly answers must not persist anything.
	sources, err := f.store.ListSources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestAskVideo_ManualTranscript(t *testing.T) {
	f := newFixture(t)
	f.transcripts.err = youtube.ErrTranscriptUnavailable

	result, err := f.engine.AskVideo(context.Background(),
		"desert you", "https://youtu.be/dQw4w9WgXcQ", 3, "never gonna run around and desert you")
	require.NoError(t, err)
	assert.Equal(t, "direct_transcript_manual", result.Origin)
}

func TestAskVideo_InvalidURL(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.AskVideo(context.Background(), "q", "https://example.com/watch?v=abc", 3, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, youtube.ErrInvalidURL)
}

func TestUploadVideo(t *testing.T) {
	f := newFixture(t)
	f.transcripts.text = "never gonna give you up"

	result, err := f.engine.UploadVideo(context.Background(),
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "", true)
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", result.VideoID)
	assert.Equal(t, "video_dQw4w9WgXcQ.txt", result.Source)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, "automatic", result.TranscriptMethod)
	assert.Equal(t, len(f.transcripts.text), result.TranscriptLength)

	sources, err := f.store.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"video_dQw4w9WgXcQ.txt"}, sources)
}

func TestUploadVideo_TranscriptUnavailable(t *testing.T) {
	f := newFixture(t)
	f.transcripts.err = youtube.ErrTranscriptUnavailable

	_, err := f.engine.UploadVideo(context.Background(),
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, youtube.ErrTranscriptUnavailable)
}

func TestVideos(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "handbook.pdf", "employees accrue vacation monthly")
	f.seed(t, "video_dQw4w9WgXcQ.txt", "never gonna give you up")

	videos, err := f.engine.Videos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "dQw4w9WgXcQ", videos[0].VideoID)
	assert.Equal(t, "video_dQw4w9WgXcQ.txt", videos[0].SourceName)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", videos[0].YouTubeURL)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "handbook.pdf", "employees accrue vacation monthly")
	f.seed(t, "video_dQw4w9WgXcQ.txt", "never gonna give you up")

	summary, err := f.engine.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDocuments)
	assert.Equal(t, 1, summary.Videos.Count)
	assert.Equal(t, []string{"video_dQw4w9WgXcQ.txt"}, summary.Videos.Sources)
	assert.Equal(t, 1, summary.PDFs.Count)
	assert.Equal(t, []string{"handbook.pdf"}, summary.PDFs.Sources)
}

func TestSplitByType(t *testing.T) {
	videos, pdfs := query.SplitByType([]string{"video_abc.txt", "handbook.pdf"})
	assert.Equal(t, []string{"video_abc.txt"}, videos)
	assert.Equal(t, []string{"handbook.pdf"}, pdfs)
}
