package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeatlas-ai/codeatlas/internal/connectors/github"
	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driving"
	"github.com/codeatlas-ai/codeatlas/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// codeExtensions is the allow-list of file types worth embedding.
var codeExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".py": true, ".rb": true, ".go": true, ".java": true,
	".php": true, ".cs": true,
}

// IngestService walks a project's repository and turns each eligible file
// into a SourceRecord with content, summary, and embedding.
type IngestService struct {
	projects  driven.ProjectStore
	records   driven.SourceRecordStore
	fetcher   driven.RepoFetcher
	embedding driven.EmbeddingService
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	projects driven.ProjectStore,
	records driven.SourceRecordStore,
	fetcher driven.RepoFetcher,
	embedding driven.EmbeddingService,
) *IngestService {
	return &IngestService{
		projects:  projects,
		records:   records,
		fetcher:   fetcher,
		embedding: embedding,
	}
}

// Register implements driving.Ingestor.
func (s *IngestService) Register(ctx context.Context, projectID, repoURL string) error {
	if projectID == "" || repoURL == "" {
		return fmt.Errorf("%w: project id and repo url are required", domain.ErrInvalidInput)
	}
	if _, err := ParseRepoURL(repoURL); err != nil {
		return err
	}
	return s.projects.Save(ctx, &domain.Project{ID: projectID, RepoURL: repoURL})
}

// Initialize implements driving.Ingestor. It walks the repository tree,
// processes every eligible file, and reports how many records the run added.
// Per-file failures are logged and skipped; only a missing project or a
// failed root listing abort the run.
func (s *IngestService) Initialize(ctx context.Context, projectID string) (domain.IngestReport, error) {
	logger.Section("Repository Ingestion")

	if s.embedding == nil {
		return domain.IngestReport{}, domain.ErrEmbeddingUnavailable
	}

	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("get project %s: %w", projectID, err)
	}

	ref, err := ParseRepoURL(project.RepoURL)
	if err != nil {
		return domain.IngestReport{}, err
	}

	before, err := s.records.CountByProject(ctx, projectID)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("count records: %w", err)
	}
	logger.Debug("Existing records: %d", before)

	if err := s.walk(ctx, ref, projectID, ""); err != nil {
		return domain.IngestReport{}, fmt.Errorf("walk %s/%s: %w", ref.Owner, ref.Name, err)
	}

	after, err := s.records.CountByProject(ctx, projectID)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("count records: %w", err)
	}

	added := after - before
	if added < 0 {
		added = 0
	}
	logger.Info("Ingestion complete: %d records (%d new)", after, added)

	return domain.IngestReport{
		Success:         true,
		NewEmbeddings:   added,
		EmbeddingsCount: after,
		Message:         "Repository initialized for querying",
	}, nil
}

// Status implements driving.Ingestor. A project is initialized exactly when
// it has at least one record; there is no separate readiness flag.
func (s *IngestService) Status(ctx context.Context, projectID string) (domain.ProjectStatus, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return domain.ProjectStatus{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	count, err := s.records.CountByProject(ctx, projectID)
	if err != nil {
		return domain.ProjectStatus{}, fmt.Errorf("count records: %w", err)
	}
	return domain.ProjectStatus{
		Initialized:     count > 0,
		EmbeddingsCount: count,
	}, nil
}

// walk recurses through the repository directory by directory. The fetcher
// paces its own listing calls, so consecutive ListDirectory calls respect
// the hosting API's rate limits without delays here.
func (s *IngestService) walk(ctx context.Context, ref driven.RepoRef, projectID, dir string) error {
	entries, err := s.fetcher.ListDirectory(ctx, ref, dir)
	if err != nil {
		if dir == "" || fatalFetchError(err) {
			// Nothing was listed at all, or every later call would fail
			// the same way; surface it.
			return err
		}
		logger.Warn("Skipping directory %s: %v", dir, err)
		return nil
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch entry.Type {
		case driven.EntryDir:
			if err := s.walk(ctx, ref, projectID, entry.Path); err != nil {
				return err
			}
		case driven.EntryFile:
			if !eligibleFile(entry.Path) {
				continue
			}
			if err := s.processFile(ctx, ref, projectID, entry.Path); err != nil {
				if fatalFetchError(err) {
					return err
				}
				// One file's failure never aborts the walk.
				logger.Warn("Skipping file %s: %v", entry.Path, err)
			}
		}
	}

	return nil
}

// processFile runs the per-file pipeline:
// fetch -> analyze -> summarize -> embed -> upsert.
func (s *IngestService) processFile(ctx context.Context, ref driven.RepoRef, projectID, path string) error {
	content, err := s.fetcher.FileContent(ctx, ref, path)
	if err != nil {
		return fmt.Errorf("fetch content: %w", err)
	}
	if content == "" {
		return nil
	}

	meta := Analyze(content, path)
	summary := Summarize(content, meta, path)

	logger.Debug("Embedding %s (complexity %s)", path, meta.Complexity)
	embedding, err := s.embedding.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(embedding) == 0 {
		// Soft failure: no embedding means nothing useful to persist.
		return domain.ErrEmbeddingUnavailable
	}

	content = truncate(content, domain.MaxRecordContent)

	now := time.Now().UTC()
	rec := &domain.SourceRecord{
		ID:        domain.RecordID(projectID, path),
		ProjectID: projectID,
		FilePath:  path,
		Content:   content,
		Summary:   summary,
		Embedding: embedding,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.records.Upsert(ctx, rec); err != nil {
		logger.Warn("Upsert failed for %s, trying fallback id: %v", path, err)
		return s.fallbackInsert(ctx, rec)
	}
	return nil
}

// fallbackInsert retries a failed upsert under a random ID so the record is
// not lost to an identity collision. If this also fails the file is dropped
// with no durable record.
func (s *IngestService) fallbackInsert(ctx context.Context, rec *domain.SourceRecord) error {
	prefix := rec.ProjectID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fallback := *rec
	fallback.ID = fmt.Sprintf("%s_%s", prefix, uuid.NewString())

	if err := s.records.Insert(ctx, &fallback); err != nil {
		return fmt.Errorf("fallback insert: %w", err)
	}
	return nil
}

// fatalFetchError reports fetch failures that would fail every subsequent
// call the same way. The walk aborts on these instead of warning once per
// directory and burning through the remaining quota.
func fatalFetchError(err error) bool {
	return github.IsUnauthorized(err) || github.IsRateLimited(err)
}

// eligibleFile checks the extension allow-list.
func eligibleFile(path string) bool {
	return codeExtensions[strings.ToLower(filepath.Ext(path))]
}

// ParseRepoURL extracts the owner and repository name from a repository URL
// such as https://github.com/owner/name (trailing slash and .git tolerated).
func ParseRepoURL(repoURL string) (driven.RepoRef, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return driven.RepoRef{}, fmt.Errorf("%w: repository url %q", domain.ErrInvalidInput, repoURL)
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" {
		return driven.RepoRef{}, fmt.Errorf("%w: repository url %q", domain.ErrInvalidInput, repoURL)
	}
	return driven.RepoRef{Owner: owner, Name: name}, nil
}
