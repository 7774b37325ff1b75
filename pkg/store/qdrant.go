package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"mediarag/internal/models"
)

type QdrantConfig struct {
	// URL is the Qdrant endpoint, e.g. https://xyz.cloud.qdrant.io or
	// http://localhost:6334. The gRPC port is used, not the REST one.
	URL        string
	APIKey     string
	Collection string
	VectorSize int
	Timeout    time.Duration
}

// QdrantStore stores chunk embeddings in a Qdrant collection over gRPC.
type QdrantStore struct {
	client   *qdrant.Client
	embedder Embedder
	config   QdrantConfig
}

func NewQdrantStore(config QdrantConfig, embedder Embedder) (*QdrantStore, error) {
	if config.Collection == "" {
		config.Collection = "media_chunks"
	}
	if config.VectorSize == 0 {
		config.VectorSize = 1536
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.URL == "" {
		return nil, fmt.Errorf("%w: qdrant URL required", ErrInvalidConfig)
	}

	host, port, useTLS, err := parseQdrantURL(config.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: config.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	s := &QdrantStore{
		client:   client,
		embedder: embedder,
		config:   config,
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

func parseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", 0, false, fmt.Errorf("%w: invalid qdrant URL %q", ErrInvalidConfig, raw)
	}

	useTLS = u.Scheme == "https"
	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("%w: invalid qdrant port %q", ErrInvalidConfig, p)
		}
	}
	return u.Hostname(), port, useTLS, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.config.Collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", ErrExternalService, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.config.VectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", ErrExternalService, s.config.Collection, err)
	}
	return nil
}

// Store embeds each chunk and upserts it into the collection. Chunks are
// stored under fresh point ids, so re-ingesting a source accumulates rather
// than replaces.
func (s *QdrantStore) Store(ctx context.Context, chunks []models.Chunk) error {
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

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.New().String()),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: map[string]*qdrant.Value{
				"content":     {Kind: &qdrant.Value_StringValue{StringValue: chunk.Content}},
				"source":      {Kind: &qdrant.Value_StringValue{StringValue: chunk.Source}},
				"source_type": {Kind: &qdrant.Value_StringValue{StringValue: string(chunk.Type)}},
			},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.config.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", ErrExternalService, len(points), err)
	}
	return nil
}

// Search embeds the query and returns up to limit chunks ordered by
// ascending distance. Qdrant reports cosine similarity (higher is better);
// it is converted to a distance here so every caller sees one convention.
func (s *QdrantStore) Search(ctx context.Context, query string, limit int) ([]models.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: searching collection %s: %v", ErrExternalService, s.config.Collection, err)
	}

	results := make([]models.ScoredChunk, 0, len(points))
	for _, point := range points {
		chunk := models.Chunk{}
		if v, ok := point.Payload["content"]; ok {
			chunk.Content = v.GetStringValue()
		}
		if v, ok := point.Payload["source"]; ok {
			chunk.Source = v.GetStringValue()
		}
		if v, ok := point.Payload["source_type"]; ok {
			chunk.Type = models.SourceType(v.GetStringValue())
		}
		if chunk.Type == "" {
			chunk.Type = models.TypeOfSource(chunk.Source)
		}
		results = append(results, models.ScoredChunk{
			Chunk: chunk,
			Score: 1 - float64(point.Score),
		})
	}
	return results, nil
}

// ListSources enumerates distinct sources via an over-fetched broad search.
// Qdrant has no distinct-payload primitive, so sources whose chunks all rank
// outside the fetch window are missed.
func (s *QdrantStore) ListSources(ctx context.Context) ([]string, error) {
	results, err := s.Search(ctx, listSourcesProbe, listSourcesFetchLimit)
	if err != nil {
		return nil, err
	}
	return dedupeSources(results), nil
}

func (s *QdrantStore) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
