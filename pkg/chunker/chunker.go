package chunker

import (
	"strings"
	"unicode"

	"mediarag/internal/models"
)

type ChunkerConfig struct {
	ChunkSize    int // target chunk length in runes
	ChunkOverlap int // runes shared between consecutive chunks
}

type Chunker struct {
	config ChunkerConfig
}

func NewWithConfig(config ChunkerConfig) Chunker {
	if config.ChunkSize == 0 {
		config.ChunkSize = 500
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 50
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 10
	}

	return Chunker{
		config: config,
	}
}

func New() Chunker {
	return NewWithConfig(ChunkerConfig{})
}

// Split cuts text into overlapping chunks of roughly ChunkSize runes, each
// tagged with the source identifier. Reading order is preserved: consecutive
// chunks share ChunkOverlap runes and together cover the whole input. Text
// shorter than the chunk size comes back as a single chunk. Blank input
// produces no chunks.
func (c Chunker) Split(text, source string, sourceType models.SourceType) []models.Chunk {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []models.Chunk
	start := 0

	for start < len(runes) {
		end := start + c.config.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Prefer breaking at whitespace so words stay intact. Only look
			// back as far as the overlap window; past that, cut mid-word.
			for i := end; i > end-c.config.ChunkOverlap && i > start+1; i-- {
				if unicode.IsSpace(runes[i-1]) {
					end = i
					break
				}
			}
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, models.Chunk{
				Content: content,
				Source:  source,
				Type:    sourceType,
			})
		}

		if end == len(runes) {
			break
		}

		next := end - c.config.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
