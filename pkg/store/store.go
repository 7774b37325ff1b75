// Package store provides vector storage backends for embedded text chunks.
package store

import (
	"context"
	"errors"
	"sort"

	"mediarag/internal/models"
)

// Sentinel errors for vector store operations.
var (
	// ErrExternalService indicates the backing store or the embedding
	// service failed.
	ErrExternalService = errors.New("vector store operation failed")

	// ErrInvalidConfig indicates invalid backend configuration.
	ErrInvalidConfig = errors.New("invalid store configuration")
)

// Embedder turns text into embedding vectors. Satisfied by llm.Client.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists chunk embeddings and answers similarity searches.
//
// Search results come back ordered by ascending distance (best match first).
// ListSources enumerates distinct source identifiers; for backends without a
// native distinct primitive this is an over-fetch approximation and may miss
// sources whose chunks rank outside the fetch window.
type VectorStore interface {
	Store(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]models.ScoredChunk, error)
	ListSources(ctx context.Context) ([]string, error)
	Close()
}

// listSourcesFetchLimit bounds the broad search used to enumerate sources on
// backends without native distinct support.
const listSourcesFetchLimit = 1000

// listSourcesProbe is the neutral query embedded for the broad search. The
// embedding API rejects empty input, so a short generic phrase stands in.
const listSourcesProbe = "summary of the document"

// dedupeSources extracts the distinct source identifiers from search
// results, sorted for stable listing output.
func dedupeSources(results []models.ScoredChunk) []string {
	seen := make(map[string]bool)
	sources := make([]string, 0)
	for _, r := range results {
		if r.Source != "" && !seen[r.Source] {
			seen[r.Source] = true
			sources = append(sources, r.Source)
		}
	}
	sort.Strings(sources)
	return sources
}
