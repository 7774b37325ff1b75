package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"mediarag/internal/models"
)

type PgVectorConfig struct {
	ConnString string
	TableName  string
	VectorSize int
	Timeout    time.Duration
}

// PgVectorStore keeps chunk embeddings in PostgreSQL with the pgvector
// extension. Useful when a Postgres instance is already around and a managed
// vector database is not.
type PgVectorStore struct {
	config   PgVectorConfig
	embedder Embedder
	pool     *pgxpool.Pool
}

func NewPgVectorStore(config PgVectorConfig, embedder Embedder) (*PgVectorStore, error) {
	if config.TableName == "" {
		config.TableName = "media_chunks"
	}
	if config.VectorSize == 0 {
		config.VectorSize = 1536
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.ConnString == "" {
		return nil, fmt.Errorf("%w: postgres connection string required", ErrInvalidConfig)
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PgVectorStore{
		config:   config,
		embedder: embedder,
		pool:     pool,
	}

	if err := s.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PgVectorStore) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT NOT NULL,
			source_type TEXT NOT NULL,
			embedding vector(%d)
		)`, s.config.TableName, s.config.VectorSize)

	if _, err = s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		s.config.TableName, s.config.TableName)

	if _, err = s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

func (s *PgVectorStore) Store(ctx context.Context, chunks []models.Chunk) error {
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

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrExternalService, err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (content, source, source_type, embedding)
		VALUES ($1, $2, $3, $4)`, s.config.TableName)

	for i, chunk := range chunks {
		_, err = tx.Exec(ctx, stmt,
			chunk.Content,
			chunk.Source,
			string(chunk.Type),
			pgvector.NewVector(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert chunk: %v", ErrExternalService, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrExternalService, err)
	}

	return nil
}

func (s *PgVectorStore) Search(ctx context.Context, query string, limit int) ([]models.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	// <=> is cosine distance, so ordering ascending puts best matches first
	// and the score already follows the lower-is-better convention.
	stmt := fmt.Sprintf(`
		SELECT content, source, source_type, embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance
		LIMIT $2`, s.config.TableName)

	rows, err := s.pool.Query(ctx, stmt, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query chunks: %v", ErrExternalService, err)
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var chunk models.Chunk
		var sourceType string
		var distance float64
		if err := rows.Scan(&chunk.Content, &chunk.Source, &sourceType, &distance); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", ErrExternalService, err)
		}
		chunk.Type = models.SourceType(sourceType)
		results = append(results, models.ScoredChunk{Chunk: chunk, Score: distance})
	}
	return results, rows.Err()
}

// ListSources uses a real DISTINCT query; unlike the qdrant backend this
// enumeration is complete.
func (s *PgVectorStore) ListSources(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	stmt := fmt.Sprintf("SELECT DISTINCT source FROM %s ORDER BY source", s.config.TableName)
	rows, err := s.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sources: %v", ErrExternalService, err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("%w: failed to scan source: %v", ErrExternalService, err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (s *PgVectorStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
