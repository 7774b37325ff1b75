package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	// Validate LLM config
	switch c.LLM.Provider {
	case "openai", "azure":
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "API key is required",
		})
	}

	if c.LLM.Provider == "azure" && c.LLM.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.endpoint",
			Message: "endpoint is required for the azure provider",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	// Validate store config
	switch c.Store.Provider {
	case "qdrant":
		if c.Store.Qdrant.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "store.qdrant.url",
				Message: "Qdrant URL is required",
			})
		} else if _, err := url.Parse(c.Store.Qdrant.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.qdrant.url",
				Message: "invalid Qdrant URL",
			})
		}
		if c.Store.Qdrant.VectorSize < 1 {
			errors = append(errors, ValidationError{
				Field:   "store.qdrant.vector_size",
				Message: "vector_size must be positive",
			})
		}
	case "pgvector":
		if c.Store.Database.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "store.database.url",
				Message: "database URL is required",
			})
		}
	case "memory":
	default:
		errors = append(errors, ValidationError{
			Field:   "store.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.Store.Provider),
		})
	}

	// Validate chunker config
	if c.Chunker.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate YouTube config
	if c.YouTube.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "youtube.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	return errors
}
