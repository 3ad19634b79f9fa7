package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driving"
	"github.com/codeatlas-ai/codeatlas/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Segment extraction parameters.
const (
	// segmentContext is the number of context lines kept on each side of a
	// matching line.
	segmentContext = 5

	// maxSegments caps how many segments are returned per record.
	maxSegments = 3

	// minTermLength filters stopword-like query tokens.
	minTermLength = 3

	// DefaultSearchLimit is used when the caller passes a non-positive limit.
	DefaultSearchLimit = 3
)

// SearchService ranks a project's records by embedding similarity and
// extracts relevant line segments from the top hits.
type SearchService struct {
	records   driven.SourceRecordStore
	embedding driven.EmbeddingService
}

// NewSearchService creates a new search service.
func NewSearchService(records driven.SourceRecordStore, embedding driven.EmbeddingService) *SearchService {
	return &SearchService{
		records:   records,
		embedding: embedding,
	}
}

// Search implements driving.SearchService.
func (s *SearchService) Search(
	ctx context.Context, projectID, query string, limit int,
) ([]domain.QueryResult, error) {
	logger.Section("Similarity Search")
	logger.Debug("Project: %s, query: %q", projectID, query)

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVec, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(queryVec) == 0 {
		// An empty vector means "embedding unavailable"; a query cannot
		// proceed without one.
		return nil, fmt.Errorf("embed query: %w", domain.ErrEmbeddingUnavailable)
	}
	logger.Debug("Query embedding: %d dimensions", len(queryVec))

	records, err := s.records.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	logger.Debug("Candidate records: %d", len(records))

	ranked := rankBySimilarity(records, queryVec, limit)
	if len(ranked) == 0 {
		return []domain.QueryResult{}, nil
	}

	terms := extractQueryTerms(query)
	for i := range ranked {
		ranked[i].Segments = relevantSegments(ranked[i].Record.Content, terms)
	}

	logger.Info("Search results: %d", len(ranked))
	return ranked, nil
}

// rankBySimilarity orders records by descending cosine similarity to the
// query vector and keeps the top limit. Records without an embedding are
// skipped.
func rankBySimilarity(records []domain.SourceRecord, queryVec []float32, limit int) []domain.QueryResult {
	results := make([]domain.QueryResult, 0, len(records))
	for i := range records {
		if len(records[i].Embedding) == 0 {
			continue
		}
		results = append(results, domain.QueryResult{
			Record:     records[i],
			Similarity: CosineSimilarity(queryVec, records[i].Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Mismatched or zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// extractQueryTerms lowercases and tokenizes the query, dropping short
// stopword-like tokens.
func extractQueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// relevantSegments scores each content line by how many query terms it
// contains and windows every scoring line with segmentContext lines on each
// side, clipped to the file bounds. Segments are ordered by score descending,
// stable on ties, and capped at maxSegments.
func relevantSegments(content string, terms []string) []domain.RelevantSegment {
	if content == "" || len(terms) == 0 {
		return nil
	}

	lines := strings.Split(content, "\n")
	var segments []domain.RelevantSegment

	for i, line := range lines {
		score := lineScore(strings.ToLower(line), terms)
		if score == 0 {
			continue
		}

		start := i - segmentContext
		if start < 0 {
			start = 0
		}
		end := i + segmentContext
		if end > len(lines)-1 {
			end = len(lines) - 1
		}

		segments = append(segments, domain.RelevantSegment{
			LineStart: start + 1, // 1-based
			LineEnd:   end + 1,
			Segment:   strings.Join(lines[start:end+1], "\n"),
			Score:     score,
		})
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Score > segments[j].Score
	})

	if len(segments) > maxSegments {
		segments = segments[:maxSegments]
	}
	return segments
}

// lineScore counts how many query terms the line contains.
func lineScore(line string, terms []string) int {
	score := 0
	for _, term := range terms {
		if strings.Contains(line, term) {
			score++
		}
	}
	return score
}
