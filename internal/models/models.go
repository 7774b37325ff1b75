package models

import "strings"

// SourceType classifies where a chunk's source came from.
type SourceType string

const (
	SourceTypePDF   SourceType = "pdf"
	SourceTypeVideo SourceType = "video"
)

// VideoSourcePrefix tags transcript sources. A video ingested from
// https://www.youtube.com/watch?v=XYZ is stored under "video_XYZ.txt".
// Several callers key off this prefix, so it must not change.
const VideoSourcePrefix = "video_"

// Chunk is a contiguous span of source text. Chunks are created once by the
// chunker and never mutated afterwards.
type Chunk struct {
	Content string
	Source  string
	Type    SourceType
}

// ScoredChunk pairs a chunk with the distance score from a similarity search.
// Lower scores mean closer matches everywhere in this codebase.
type ScoredChunk struct {
	Chunk
	Score float64
}

// RetrievalResult is the output of the retrieval strategy engine.
type RetrievalResult struct {
	// Chunks are ordered most relevant first under the applied strategy.
	Chunks []Chunk

	// StrategyUsed echoes the strategy that actually ran, which may differ
	// from the requested one when an unknown name falls back to the default.
	StrategyUsed string

	// PrimarySource is set by strategies that pick one dominant source.
	PrimarySource string

	// SourcesUsed is set by multi-source strategies, in contribution order.
	SourcesUsed []string

	// SourceScores maps every observed source to its mean distance, set when
	// per-source aggregation was computed.
	SourceScores map[string]float64
}

// IngestSummary reports what one ingestion call stored.
type IngestSummary struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"num_chunks"`
}

// VideoInfo describes one ingested transcript for listing endpoints.
type VideoInfo struct {
	VideoID    string `json:"video_id"`
	SourceName string `json:"source_name"`
	YouTubeURL string `json:"youtube_url"`
}

// TypeOfSource infers the content type of a source identifier from the
// naming convention.
func TypeOfSource(source string) SourceType {
	if strings.HasPrefix(source, VideoSourcePrefix) {
		return SourceTypeVideo
	}
	return SourceTypePDF
}
