// Package llm wraps the hosted embedding and chat-completion models.
//
// A single client is built at startup and shared across requests; per-request
// construction would leak connections under load.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

type ClientConfig struct {
	Provider       string // "openai" (default) or "azure"
	APIKey         string
	Endpoint       string // Azure resource endpoint or custom base URL
	Model          string // chat model, or the Azure deployment name
	EmbeddingModel string
	APIVersion     string // Azure API version
	MaxTokens      int
	Temperature    float64
	SystemTemplate string
}

// Client is the process-wide handle on the completion service.
type Client struct {
	config ClientConfig
	llm    *openai.LLM
}

func NewClient(config ClientConfig) (*Client, error) {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-3-small"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1000
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a helpful assistant that answers questions based on the provided context. Be accurate and concise."
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}

	if config.Provider == "azure" {
		opts = append(opts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithBaseURL(config.Endpoint),
			openai.WithAPIVersion(config.APIVersion),
		)
	} else if config.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(config.Endpoint))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	return &Client{
		config: config,
		llm:    llm,
	}, nil
}

// EmbedDocuments generates one embedding per input text.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := c.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(embeddings), len(texts))
	}
	return embeddings, nil
}

// EmbedQuery generates the embedding for a single search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}
