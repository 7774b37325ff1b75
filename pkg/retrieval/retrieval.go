// Package retrieval decides which stored chunks feed an answer. It layers
// source-aware selection policies on top of raw similarity search results.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"mediarag/internal/models"
)

// Strategy names. Anything else falls back to StrategySingleSource.
const (
	StrategySingleSource = "single_source"
	StrategyBestMatch    = "best_match"
	StrategyMultiDoc     = "multi_doc"
)

const (
	// bestMatchOverFetch widens the search so mean scores are computed over
	// enough chunks per source to be meaningful.
	bestMatchOverFetch = 5

	// multiDocOverFetch widens the search for cross-source grouping.
	multiDocOverFetch = 3

	// multiDocMaxSources caps how many sources contribute to a multi_doc
	// result.
	multiDocMaxSources = 3

	// multiDocChunksPerSource caps each source's contribution.
	multiDocChunksPerSource = 2
)

// Searcher is the slice of the vector store the engine needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.ScoredChunk, error)
}

// Engine applies a named retrieval strategy over similarity search results.
// Scores are distances: lower is better, and search results arrive ascending.
type Engine struct {
	searcher Searcher
}

func NewEngine(searcher Searcher) *Engine {
	return &Engine{searcher: searcher}
}

// Retrieve runs the named strategy for the query. Unknown strategy names are
// not an error; they run the default single_source policy, and StrategyUsed
// reports what actually ran. An empty search result yields an empty
// RetrievalResult, also not an error.
func (e *Engine) Retrieve(ctx context.Context, query string, limit int, strategy string) (*models.RetrievalResult, error) {
	if limit <= 0 {
		limit = 3
	}

	switch strategy {
	case StrategyBestMatch:
		return e.bestMatch(ctx, query, limit)
	case StrategyMultiDoc:
		return e.multiDoc(ctx, query, limit)
	default:
		return e.singleSource(ctx, query, limit)
	}
}

// singleSource keeps only the chunks of the source that appears most often
// among the nearest neighbors: if most of the closest chunks come from one
// document, that document is probably the relevant one. It votes by count
// and never re-ranks by score.
func (e *Engine) singleSource(ctx context.Context, query string, limit int) (*models.RetrievalResult, error) {
	results, err := e.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("single_source search: %w", err)
	}

	result := &models.RetrievalResult{
		Chunks:       []models.Chunk{},
		StrategyUsed: StrategySingleSource,
	}
	if len(results) == 0 {
		return result, nil
	}

	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Source]++
	}

	// Highest vote count wins; equal counts break lexicographically so the
	// outcome does not depend on the search backend's result ordering.
	var winner string
	for source, count := range counts {
		if winner == "" || count > counts[winner] || (count == counts[winner] && source < winner) {
			winner = source
		}
	}

	for _, r := range results {
		if r.Source == winner {
			result.Chunks = append(result.Chunks, r.Chunk)
		}
	}
	result.PrimarySource = winner
	return result, nil
}

// bestMatch over-fetches, averages the distance per source and answers from
// the source with the lowest mean. The per-source means are reported for
// ranking transparency.
func (e *Engine) bestMatch(ctx context.Context, query string, limit int) (*models.RetrievalResult, error) {
	results, err := e.searcher.Search(ctx, query, limit*bestMatchOverFetch)
	if err != nil {
		return nil, fmt.Errorf("best_match search: %w", err)
	}

	result := &models.RetrievalResult{
		Chunks:       []models.Chunk{},
		StrategyUsed: StrategyBestMatch,
	}
	if len(results) == 0 {
		return result, nil
	}

	groups, order := groupBySource(results)

	means := make(map[string]float64, len(order))
	for source, group := range groups {
		var sum float64
		for _, r := range group {
			sum += r.Score
		}
		means[source] = sum / float64(len(group))
	}

	best := order[0]
	for _, source := range order[1:] {
		if means[source] < means[best] || (means[source] == means[best] && source < best) {
			best = source
		}
	}

	// Chunks keep their relative order from the over-fetched batch; the
	// group is not re-sorted by individual score.
	for _, r := range groups[best] {
		if len(result.Chunks) == limit {
			break
		}
		result.Chunks = append(result.Chunks, r.Chunk)
	}
	result.PrimarySource = best
	result.SourceScores = means
	return result, nil
}

// multiDoc blends the strongest few sources: sources are ranked by their
// best single chunk, and each of the top three contributes its two closest
// chunks until the limit is reached.
func (e *Engine) multiDoc(ctx context.Context, query string, limit int) (*models.RetrievalResult, error) {
	results, err := e.searcher.Search(ctx, query, limit*multiDocOverFetch)
	if err != nil {
		return nil, fmt.Errorf("multi_doc search: %w", err)
	}

	result := &models.RetrievalResult{
		Chunks:       []models.Chunk{},
		StrategyUsed: StrategyMultiDoc,
	}
	if len(results) == 0 {
		return result, nil
	}

	groups, order := groupBySource(results)

	minScore := func(source string) float64 {
		best := groups[source][0].Score
		for _, r := range groups[source][1:] {
			if r.Score < best {
				best = r.Score
			}
		}
		return best
	}

	sort.SliceStable(order, func(i, j int) bool {
		si, sj := minScore(order[i]), minScore(order[j])
		if si == sj {
			return order[i] < order[j]
		}
		return si < sj
	})

	for _, source := range order {
		if len(result.SourcesUsed) == multiDocMaxSources {
			break
		}

		group := append([]models.ScoredChunk(nil), groups[source]...)
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Score < group[j].Score
		})
		if len(group) > multiDocChunksPerSource {
			group = group[:multiDocChunksPerSource]
		}

		for _, r := range group {
			result.Chunks = append(result.Chunks, r.Chunk)
		}
		result.SourcesUsed = append(result.SourcesUsed, source)
	}

	if len(result.Chunks) > limit {
		result.Chunks = result.Chunks[:limit]
	}
	return result, nil
}

// groupBySource partitions results by source, preserving both each group's
// internal order and the order in which sources were first seen.
func groupBySource(results []models.ScoredChunk) (map[string][]models.ScoredChunk, []string) {
	groups := make(map[string][]models.ScoredChunk)
	var order []string
	for _, r := range results {
		if _, seen := groups[r.Source]; !seen {
			order = append(order, r.Source)
		}
		groups[r.Source] = append(groups[r.Source], r)
	}
	return groups, order
}
