// Package ingest turns raw source material into stored, embedded chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mediarag/internal/models"
	"mediarag/pkg/chunker"
	"mediarag/pkg/pdf"
	"mediarag/pkg/store"
)

// ErrEmptyTranscript reports transcript text with no usable content.
var ErrEmptyTranscript = errors.New("transcript contains no text")

// Pipeline chunks extracted text and writes it to the vector store.
// Ingesting the same source twice accumulates chunks; there is no upsert by
// source name.
type Pipeline struct {
	chunker chunker.Chunker
	store   store.VectorStore
}

func NewPipeline(c chunker.Chunker, s store.VectorStore) *Pipeline {
	return &Pipeline{chunker: c, store: s}
}

// IngestPDF extracts the text layer of a PDF and stores its chunks under
// filename. PDFs without a text layer fail with pdf.ErrNoText.
func (p *Pipeline) IngestPDF(ctx context.Context, r io.ReaderAt, size int64, filename string) (*models.IngestSummary, error) {
	text, err := pdf.ExtractText(r, size)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", filename, err)
	}
	return p.ingest(ctx, text, filename, models.SourceTypePDF)
}

// IngestTranscript stores transcript text under the given source name,
// conventionally youtube.SourceName(videoID).
func (p *Pipeline) IngestTranscript(ctx context.Context, text, source string) (*models.IngestSummary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("ingest %s: %w", source, ErrEmptyTranscript)
	}
	return p.ingest(ctx, text, source, models.SourceTypeVideo)
}

func (p *Pipeline) ingest(ctx context.Context, text, source string, sourceType models.SourceType) (*models.IngestSummary, error) {
	chunks := p.chunker.Split(text, source, sourceType)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ingest %s: %w", source, ErrEmptyTranscript)
	}
	if err := p.store.Store(ctx, chunks); err != nil {
		return nil, fmt.Errorf("ingest %s: %w", source, err)
	}
	return &models.IngestSummary{Source: source, ChunkCount: len(chunks)}, nil
}
