package driving

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// Ingestor turns a repository into searchable records.
type Ingestor interface {
	// Register stores or updates the repository mapping for a project.
	Register(ctx context.Context, projectID, repoURL string) error

	// Initialize walks the project's repository and upserts a record per
	// eligible file. Idempotent; safe to call repeatedly. Returns
	// domain.ErrNotFound when the project is not registered.
	Initialize(ctx context.Context, projectID string) (domain.IngestReport, error)

	// Status reports whether a project is ready for querying.
	Status(ctx context.Context, projectID string) (domain.ProjectStatus, error)
}
