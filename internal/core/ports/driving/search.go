package driving

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// SearchService ranks a project's records against a natural-language query.
type SearchService interface {
	// Search embeds the query, ranks the project's records by vector
	// similarity, and extracts relevant line segments from the top hits.
	// Results are ordered by descending similarity. An empty result set is
	// not an error; a failed query embedding is.
	Search(ctx context.Context, projectID, query string, limit int) ([]domain.QueryResult, error)
}
