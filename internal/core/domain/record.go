package domain

import "time"

// MaxRecordContent caps how much raw file content is persisted per record.
// Content beyond the cap is truncated before storage.
const MaxRecordContent = 10000

// SourceRecord is a persisted unit of one ingested file: its raw content,
// the generated summary, and the embedding of that summary.
// Exactly one record exists per (project, file path); re-ingestion
// overwrites in place.
type SourceRecord struct {
	// ID is the deterministic record identifier, derived from
	// (ProjectID, FilePath). See RecordID.
	ID string

	// ProjectID links the record to the owning project.
	ProjectID string

	// FilePath is the repository-relative path of the ingested file.
	FilePath string

	// Content is the raw file content, capped at MaxRecordContent.
	Content string

	// Summary is the bounded natural-language description produced by the
	// summary generator. The embedding is computed from this, not Content.
	Summary string

	// Embedding is the fixed-dimension vector for the summary.
	Embedding []float32

	// CreatedAt is when the record was first persisted.
	CreatedAt time.Time

	// UpdatedAt is refreshed on every upsert.
	UpdatedAt time.Time
}

// CommitRecord is one summarized commit in a project's activity feed.
// Unique per (ProjectID, Hash); append-only except for backfills.
type CommitRecord struct {
	// ProjectID links the commit to the owning project.
	ProjectID string

	// Hash is the commit SHA.
	Hash string

	// AuthorName is the commit author's display name.
	AuthorName string

	// AuthorAvatar is a URL to the author's avatar image.
	AuthorAvatar string

	// Message is the original commit message.
	Message string

	// Date is the author date of the commit.
	Date time.Time

	// Summary is the generated natural-language summary of the diff.
	Summary string
}

// Project maps a project ID to the repository it was ingested from.
type Project struct {
	ID        string
	RepoURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IngestReport is the result of an ingestion run.
type IngestReport struct {
	// Success is true when the walk completed, even if individual files
	// were skipped.
	Success bool

	// NewEmbeddings is how many records the run added (records after
	// minus records before; zero on an unchanged re-run).
	NewEmbeddings int

	// EmbeddingsCount is the total record count after the run.
	EmbeddingsCount int

	// Message is a human-readable outcome description.
	Message string
}

// ProjectStatus reports whether a project is ready for querying.
// A project is initialized exactly when it has at least one record.
type ProjectStatus struct {
	Initialized     bool
	EmbeddingsCount int
}
