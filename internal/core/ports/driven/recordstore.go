package driven

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

// SourceRecordStore persists ingested file records.
type SourceRecordStore interface {
	// Upsert inserts the record or, when a record for the same project and
	// file path already exists, overwrites its content, summary, embedding,
	// and updated timestamp in place. The existing record keeps its ID, so
	// re-ingestion overwrites rows stored under a fallback ID too.
	Upsert(ctx context.Context, rec *domain.SourceRecord) error

	// Insert stores the record without conflict handling. Used by the
	// ingestor's fallback path with a freshly generated random ID.
	Insert(ctx context.Context, rec *domain.SourceRecord) error

	// Get retrieves a record by ID. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.SourceRecord, error)

	// ListByProject returns all records for a project, embeddings included.
	ListByProject(ctx context.Context, projectID string) ([]domain.SourceRecord, error)

	// CountByProject returns the number of records for a project.
	CountByProject(ctx context.Context, projectID string) (int, error)

	// DeleteByProject removes every record owned by a project.
	DeleteByProject(ctx context.Context, projectID string) error
}

// CommitStore persists summarized commits.
type CommitStore interface {
	// Save stores a commit; (ProjectID, Hash) duplicates are overwritten.
	Save(ctx context.Context, rec *domain.CommitRecord) error

	// ListByProject returns a project's commits, newest first.
	ListByProject(ctx context.Context, projectID string) ([]domain.CommitRecord, error)

	// Latest returns the most recent commit by date.
	// Returns domain.ErrNotFound when the project has no commits.
	Latest(ctx context.Context, projectID string) (*domain.CommitRecord, error)

	// ExistingHashes reports which of the given hashes are already stored
	// for the project.
	ExistingHashes(ctx context.Context, projectID string, hashes []string) (map[string]bool, error)
}

// ProjectStore persists the project-to-repository mapping.
type ProjectStore interface {
	// Save stores or updates a project.
	Save(ctx context.Context, project *domain.Project) error

	// Get retrieves a project by ID. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.Project, error)

	// Delete removes a project and, through ownership, its records.
	Delete(ctx context.Context, id string) error
}
