package ingest_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediarag/internal/models"
	"mediarag/pkg/chunker"
	"mediarag/pkg/ingest"
	"mediarag/pkg/store"
)

type fixedEmbedder struct{}

func (fixedEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, 0, 0}
	}
	return vecs, nil
}

func (fixedEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func newPipeline(t *testing.T) (*ingest.Pipeline, store.VectorStore) {
	t.Helper()
	s := store.NewMemoryStore(fixedEmbedder{})
	return ingest.NewPipeline(chunker.New(), s), s
}

func TestIngestTranscript(t *testing.T) {
	pipeline, s := newPipeline(t)

	summary, err := pipeline.IngestTranscript(context.Background(),
		"never gonna give you up never gonna let you down", "video_dQw4w9WgXcQ.txt")
	require.NoError(t, err)

	assert.Equal(t, "video_dQw4w9WgXcQ.txt", summary.Source)
	assert.Equal(t, 1, summary.ChunkCount)

	sources, err := s.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"video_dQw4w9WgXcQ.txt"}, sources)
}

func TestIngestTranscript_Empty(t *testing.T) {
	pipeline, _ := newPipeline(t)

	_, err := pipeline.IngestTranscript(context.Background(), "   \n\t ", "video_abc12345678.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrEmptyTranscript)
}

func TestIngestTranscript_ReingestAccumulates(t *testing.T) {
	pipeline, s := newPipeline(t)
	ctx := context.Background()

	_, err := pipeline.IngestTranscript(ctx, "some transcript text", "video_abc12345678.txt")
	require.NoError(t, err)
	_, err = pipeline.IngestTranscript(ctx, "some transcript text", "video_abc12345678.txt")
	require.NoError(t, err)

	results, err := s.Search(ctx, "transcript", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIngestTranscript_ChunkType(t *testing.T) {
	pipeline, s := newPipeline(t)
	ctx := context.Background()

	_, err := pipeline.IngestTranscript(ctx, "a transcript", "video_abc12345678.txt")
	require.NoError(t, err)

	results, err := s.Search(ctx, "a transcript", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.SourceTypeVideo, results[0].Type)
}

func TestIngestPDF_NotAPDF(t *testing.T) {
	pipeline, _ := newPipeline(t)

	junk := []byte("this is not a pdf")
	_, err := pipeline.IngestPDF(context.Background(), bytes.NewReader(junk), int64(len(junk)), "junk.pdf")
	assert.Error(t, err)
}
