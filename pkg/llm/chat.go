package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"mediarag/internal/models"
)

// Answer generates a response to the query grounded in the given chunks.
// Chunk contents are joined into a context block in the order supplied, so
// callers control relevance ordering. Failures of the completion call come
// back as errors, never as error-shaped answer text.
func (c *Client) Answer(ctx context.Context, query string, chunks []models.Chunk) (string, error) {
	var contextBuilder strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			contextBuilder.WriteString("\n\n")
		}
		contextBuilder.WriteString(chunk.Content)
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", contextBuilder.String(), query)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, c.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := c.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithTemperature(c.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat error: empty response from model")
	}

	return response.Choices[0].Content, nil
}

// Ping sends a trivial completion request to verify connectivity and
// credentials. Used by the diagnostics endpoint.
func (c *Client) Ping(ctx context.Context) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "Reply with the single word: ok"),
	}

	response, err := c.llm.GenerateContent(ctx, content, llms.WithMaxTokens(10))
	if err != nil {
		return "", fmt.Errorf("completion service unreachable: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion service returned no choices")
	}
	return response.Choices[0].Content, nil
}
