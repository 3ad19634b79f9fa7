package driving

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// CommitService maintains a project's summarized commit feed.
type CommitService interface {
	// Pull fetches commits newer than the latest stored one, summarizes
	// their diffs, persists them, and returns the new records.
	Pull(ctx context.Context, projectID string) ([]domain.CommitRecord, error)

	// List returns the stored commit feed, newest first.
	List(ctx context.Context, projectID string) ([]domain.CommitRecord, error)
}
