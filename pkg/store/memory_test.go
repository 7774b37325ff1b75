package store_test

import (
	"context"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediarag/internal/models"
	"mediarag/pkg/store"
)

// letterEmbedder is a deterministic embedder for tests: letter frequencies
// as a 26-dim vector, so identical text always embeds identically.
type letterEmbedder struct{}

func (letterEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 26)
		for _, r := range text {
			r = unicode.ToLower(r)
			if r >= 'a' && r <= 'z' {
				vec[r-'a']++
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (e letterEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := store.NewMemoryStore(letterEmbedder{})
	ctx := context.Background()

	chunks := []models.Chunk{
		{Content: "employees accrue vacation days monthly", Source: "handbook.pdf", Type: models.SourceTypePDF},
		{Content: "the quarterly budget is reviewed in march", Source: "finance.pdf", Type: models.SourceTypePDF},
		{Content: "welcome to this tutorial about go", Source: "video_abc.txt", Type: models.SourceTypeVideo},
	}
	require.NoError(t, s.Store(ctx, chunks))

	// Searching for exact chunk text returns that chunk first with the
	// lowest distance.
	results, err := s.Search(ctx, "employees accrue vacation days monthly", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "handbook.pdf", results[0].Source)
	assert.InDelta(t, 0, results[0].Score, 1e-6)

	// Scores are ascending.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestMemoryStore_SearchLimit(t *testing.T) {
	s := store.NewMemoryStore(letterEmbedder{})
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, []models.Chunk{
		{Content: "alpha", Source: "a.pdf"},
		{Content: "bravo", Source: "a.pdf"},
		{Content: "charlie", Source: "a.pdf"},
	}))

	results, err := s.Search(ctx, "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryStore_ListSources(t *testing.T) {
	s := store.NewMemoryStore(letterEmbedder{})
	ctx := context.Background()

	sources, err := s.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	require.NoError(t, s.Store(ctx, []models.Chunk{
		{Content: "one", Source: "b.pdf"},
		{Content: "two", Source: "a.pdf"},
		{Content: "three", Source: "b.pdf"},
	}))

	sources, err = s.ListSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sources)
}

func TestNew_Providers(t *testing.T) {
	s, err := store.New(store.Config{Provider: "memory"}, letterEmbedder{})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = store.New(store.Config{Provider: "sqlite"}, letterEmbedder{})
	assert.ErrorIs(t, err, store.ErrInvalidConfig)
}
