package store

import "fmt"

// Config selects and configures a vector store backend.
type Config struct {
	Provider string // "qdrant" (default), "pgvector" or "memory"
	Qdrant   QdrantConfig
	PgVector PgVectorConfig
}

// New builds the VectorStore named by config.Provider.
func New(config Config, embedder Embedder) (VectorStore, error) {
	switch config.Provider {
	case "", "qdrant":
		return NewQdrantStore(config.Qdrant, embedder)
	case "pgvector":
		return NewPgVectorStore(config.PgVector, embedder)
	case "memory":
		return NewMemoryStore(embedder), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, config.Provider)
	}
}
