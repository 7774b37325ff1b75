// Package query composes retrieval and answer synthesis for each endpoint,
// and owns the cross-cutting source plumbing (content-type filtering, video
// source naming, transcript fallback to live fetching).
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediarag/internal/models"
	"mediarag/pkg/chunker"
	"mediarag/pkg/ingest"
	"mediarag/pkg/retrieval"
	"mediarag/pkg/store"
	"mediarag/pkg/youtube"
)

// ErrNoContent reports that no stored source matched the requested content
// type, so retrieval was never attempted.
var ErrNoContent = errors.New("no matching content")

// documentSearchOverFetch widens per-document searches so that enough of the
// global neighbor set survives the source filter.
const documentSearchOverFetch = 10

// Synthesizer turns a query plus supporting chunks into an answer.
// Satisfied by llm.Client.
type Synthesizer interface {
	Answer(ctx context.Context, query string, chunks []models.Chunk) (string, error)
}

// TranscriptFetcher retrieves a video's caption transcript. Satisfied by
// youtube.TranscriptClient.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (*youtube.Transcript, error)
	FetchDirect(ctx context.Context, videoID string) (*youtube.Transcript, error)
}

// Engine answers questions over the ingested corpus.
type Engine struct {
	store       store.VectorStore
	retriever   *retrieval.Engine
	synthesizer Synthesizer
	chunker     chunker.Chunker
	pipeline    *ingest.Pipeline
	transcripts TranscriptFetcher
}

func NewEngine(s store.VectorStore, synthesizer Synthesizer, c chunker.Chunker, pipeline *ingest.Pipeline, transcripts TranscriptFetcher) *Engine {
	return &Engine{
		store:       s,
		retriever:   retrieval.NewEngine(s),
		synthesizer: synthesizer,
		chunker:     c,
		pipeline:    pipeline,
		transcripts: transcripts,
	}
}

// Ask answers a query over everything in the store.
func (e *Engine) Ask(ctx context.Context, query string, k int) (string, error) {
	results, err := e.store.Search(ctx, query, normalizeK(k))
	if err != nil {
		return "", fmt.Errorf("query search: %w", err)
	}
	chunks := make([]models.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return e.synthesizer.Answer(ctx, query, chunks)
}

// DocumentAnswer is the result of a query scoped to one source.
type DocumentAnswer struct {
	Answer      string
	ChunksFound int
}

// AskDocument answers a query using only chunks from the named source.
// ChunksFound of zero means the source had no relevant chunks; that is not
// an error.
func (e *Engine) AskDocument(ctx context.Context, query, documentName string, k int) (*DocumentAnswer, error) {
	chunks, err := e.searchDocument(ctx, query, documentName, normalizeK(k))
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return &DocumentAnswer{}, nil
	}

	answer, err := e.synthesizer.Answer(ctx, query, chunks)
	if err != nil {
		return nil, err
	}
	return &DocumentAnswer{Answer: answer, ChunksFound: len(chunks)}, nil
}

// searchDocument over-fetches a global search and keeps only the named
// source's chunks, up to k.
func (e *Engine) searchDocument(ctx context.Context, query, documentName string, k int) ([]models.Chunk, error) {
	results, err := e.store.Search(ctx, query, k*documentSearchOverFetch)
	if err != nil {
		return nil, fmt.Errorf("document search: %w", err)
	}

	var chunks []models.Chunk
	for _, r := range results {
		if r.Source != documentName {
			continue
		}
		chunks = append(chunks, r.Chunk)
		if len(chunks) == k {
			break
		}
	}
	return chunks, nil
}

// SmartAnswer is the result of a strategy-driven query.
type SmartAnswer struct {
	Answer    string
	Retrieval *models.RetrievalResult
}

// AskSmart retrieves with the named strategy and synthesizes an answer.
// When retrieval comes back empty, Answer is empty and Retrieval carries the
// strategy that ran; callers shape the no-result message.
func (e *Engine) AskSmart(ctx context.Context, query string, k int, strategy string) (*SmartAnswer, error) {
	result, err := e.retriever.Retrieve(ctx, query, normalizeK(k), strategy)
	if err != nil {
		return nil, err
	}
	if len(result.Chunks) == 0 {
		return &SmartAnswer{Retrieval: result}, nil
	}

	answer, err := e.synthesizer.Answer(ctx, query, result.Chunks)
	if err != nil {
		return nil, err
	}
	return &SmartAnswer{Answer: answer, Retrieval: result}, nil
}

// AskAll is AskSmart gated by a content-type check: when the caller scopes
// the query to "pdf" or "video" and the store holds no source of that type,
// it short-circuits with ErrNoContent before any retrieval or synthesis.
func (e *Engine) AskAll(ctx context.Context, query string, k int, strategy, contentType string) (*SmartAnswer, error) {
	sources, err := e.store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	videos, pdfs := SplitByType(sources)
	switch contentType {
	case "pdf":
		if len(pdfs) == 0 {
			return nil, fmt.Errorf("%w: no pdf sources stored", ErrNoContent)
		}
	case "video":
		if len(videos) == 0 {
			return nil, fmt.Errorf("%w: no video sources stored", ErrNoContent)
		}
	default:
		if len(sources) == 0 {
			return nil, fmt.Errorf("%w: store is empty", ErrNoContent)
		}
	}

	return e.AskSmart(ctx, query, k, strategy)
}

// VideoAnswer is the result of a query against one video's transcript.
type VideoAnswer struct {
	Answer  string
	VideoID string

	// Origin reports where the transcript text came from: "database" when
	// the video was previously ingested, otherwise
	// "direct_transcript_automatic" or "direct_transcript_manual".
	Origin string

	ChunksUsed int
}

// AskVideo answers a query about one video. It prefers previously ingested
// chunks; when the video is not in the store it falls back to fetching the
// transcript on the fly (or using manualTranscript), chunking it, and
// answering from the first k chunks without persisting anything.
func (e *Engine) AskVideo(ctx context.Context, query, videoURL string, k int, manualTranscript string) (*VideoAnswer, error) {
	videoID, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}
	source := youtube.SourceName(videoID)
	k = normalizeK(k)

	if chunks, err := e.searchDocument(ctx, query, source, k); err == nil && len(chunks) > 0 {
		answer, err := e.synthesizer.Answer(ctx, query, chunks)
		if err != nil {
			return nil, err
		}
		return &VideoAnswer{
			Answer:     answer,
			VideoID:    videoID,
			Origin:     "database",
			ChunksUsed: len(chunks),
		}, nil
	}

	text, method, err := e.transcriptText(ctx, videoID, manualTranscript, true)
	if err != nil {
		return nil, err
	}

	chunks := e.chunker.Split(text, source, models.SourceTypeVideo)
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	answer, err := e.synthesizer.Answer(ctx, query, chunks)
	if err != nil {
		return nil, err
	}
	return &VideoAnswer{
		Answer:     answer,
		VideoID:    videoID,
		Origin:     "direct_transcript_" + method,
		ChunksUsed: len(chunks),
	}, nil
}

// VideoIngest reports one processed video.
type VideoIngest struct {
	VideoID          string
	Source           string
	ChunkCount       int
	TranscriptMethod string
	TranscriptLength int
}

// UploadVideo fetches (or accepts) a video's transcript and ingests it under
// the video's source name. useFallback extends automatic retrieval with the
// language and any-track fallbacks.
func (e *Engine) UploadVideo(ctx context.Context, videoURL, manualTranscript string, useFallback bool) (*VideoIngest, error) {
	videoID, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	text, method, err := e.transcriptText(ctx, videoID, manualTranscript, useFallback)
	if err != nil {
		return nil, err
	}

	summary, err := e.pipeline.IngestTranscript(ctx, text, youtube.SourceName(videoID))
	if err != nil {
		return nil, err
	}
	return &VideoIngest{
		VideoID:          videoID,
		Source:           summary.Source,
		ChunkCount:       summary.ChunkCount,
		TranscriptMethod: method,
		TranscriptLength: len(text),
	}, nil
}

// transcriptText resolves a video's transcript text, preferring a manual one.
func (e *Engine) transcriptText(ctx context.Context, videoID, manualTranscript string, useFallback bool) (text, method string, err error) {
	if strings.TrimSpace(manualTranscript) != "" {
		return strings.TrimSpace(manualTranscript), "manual", nil
	}

	var transcript *youtube.Transcript
	if useFallback {
		transcript, err = e.transcripts.Fetch(ctx, videoID)
	} else {
		transcript, err = e.transcripts.FetchDirect(ctx, videoID)
	}
	if err != nil {
		return "", "", err
	}
	return transcript.Text, "automatic", nil
}

// Documents lists every stored source identifier.
func (e *Engine) Documents(ctx context.Context) ([]string, error) {
	return e.store.ListSources(ctx)
}

// Videos lists the stored video sources with their ids and watch URLs.
func (e *Engine) Videos(ctx context.Context) ([]models.VideoInfo, error) {
	sources, err := e.store.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	videos := []models.VideoInfo{}
	for _, source := range sources {
		if !youtube.IsVideoSource(source) {
			continue
		}
		id := youtube.VideoIDFromSource(source)
		videos = append(videos, models.VideoInfo{
			VideoID:    id,
			SourceName: source,
			YouTubeURL: youtube.WatchURL(id),
		})
	}
	return videos, nil
}

// SourceGroup counts and names the sources of one content type.
type SourceGroup struct {
	Count   int      `json:"count"`
	Sources []string `json:"sources"`
}

// ContentSummary describes everything stored, split by content type.
type ContentSummary struct {
	TotalDocuments int         `json:"total_documents"`
	Videos         SourceGroup `json:"videos"`
	PDFs           SourceGroup `json:"pdfs"`
}

// Summary reports the stored corpus split into videos and pdfs.
func (e *Engine) Summary(ctx context.Context) (*ContentSummary, error) {
	sources, err := e.store.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	videos, pdfs := SplitByType(sources)
	return &ContentSummary{
		TotalDocuments: len(sources),
		Videos:         SourceGroup{Count: len(videos), Sources: videos},
		PDFs:           SourceGroup{Count: len(pdfs), Sources: pdfs},
	}, nil
}

// SplitByType partitions source identifiers into video and pdf groups by
// the video naming convention, preserving input order.
func SplitByType(sources []string) (videos, pdfs []string) {
	videos, pdfs = []string{}, []string{}
	for _, source := range sources {
		if models.TypeOfSource(source) == models.SourceTypeVideo {
			videos = append(videos, source)
		} else {
			pdfs = append(pdfs, source)
		}
	}
	return videos, pdfs
}

func normalizeK(k int) int {
	if k <= 0 {
		return 3
	}
	return k
}
