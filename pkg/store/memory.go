package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"mediarag/internal/models"
)

// MemoryStore is an in-process VectorStore for local development and tests.
// Everything lives in memory and is lost on restart.
type MemoryStore struct {
	embedder Embedder

	mu     sync.RWMutex
	chunks []models.Chunk
	vecs   [][]float32
}

func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

func (s *MemoryStore) Store(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	s.vecs = append(s.vecs, embeddings...)
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query string, limit int) ([]models.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.ScoredChunk, 0, len(s.chunks))
	for i, chunk := range s.chunks {
		results = append(results, models.ScoredChunk{
			Chunk: chunk,
			Score: cosineDistance(vector, s.vecs[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) ListSources(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]models.ScoredChunk, len(s.chunks))
	for i, chunk := range s.chunks {
		scored[i] = models.ScoredChunk{Chunk: chunk}
	}
	return dedupeSources(scored), nil
}

func (s *MemoryStore) Close() {}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.MaxFloat64
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
