package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driving"
	"github.com/codeatlas-ai/codeatlas/internal/logger"
)

// Ensure CommitService implements the interface.
var _ driving.CommitService = (*CommitService)(nil)

const (
	// commitFetchLimit bounds how many recent commits one Pull inspects.
	commitFetchLimit = 20

	// Summarization retry policy: attempts with doubling backoff.
	summaryAttempts     = 3
	summaryInitialDelay = time.Second

	// commitFallbackSummary is stored when every summarization attempt
	// fails; the commit itself is still persisted.
	commitFallbackSummary = "No summary available"

	summaryMaxTokens   = 512
	summaryTemperature = 0.3
)

// commitSummaryPrompt instructs the model on reading unified diff syntax.
const commitSummaryPrompt = `Summarize this git commit diff in 2-3 sentences. ` +
	`Focus on what changed and why it matters. ` +
	`Lines starting with "+" were added, lines starting with "-" were removed. ` +
	`Do not mention the diff format itself.

Commit message: %s

Diff:
%s`

// CommitService keeps a project's summarized commit feed current.
type CommitService struct {
	projects driven.ProjectStore
	commits  driven.CommitStore
	fetcher  driven.RepoFetcher
	llm      driven.LLMService

	// sleep is swappable in tests; defaults to time.Sleep semantics
	// honoring ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCommitService creates a new commit service.
func NewCommitService(
	projects driven.ProjectStore,
	commits driven.CommitStore,
	fetcher driven.RepoFetcher,
	llm driven.LLMService,
) *CommitService {
	return &CommitService{
		projects: projects,
		commits:  commits,
		fetcher:  fetcher,
		llm:      llm,
		sleep:    sleepCtx,
	}
}

// Pull implements driving.CommitService. It fetches recent commits, drops
// the ones already stored, summarizes each new diff, and persists the
// results. Commits older than the stored latest are not revisited.
func (s *CommitService) Pull(ctx context.Context, projectID string) ([]domain.CommitRecord, error) {
	logger.Section("Commit Summarization")

	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}
	ref, err := ParseRepoURL(project.RepoURL)
	if err != nil {
		return nil, err
	}

	infos, err := s.fetcher.ListCommits(ctx, ref, commitFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	if len(infos) == 0 {
		return nil, nil
	}

	fresh, err := s.filterNew(ctx, projectID, infos)
	if err != nil {
		return nil, err
	}
	logger.Info("Found %d new commits of %d fetched", len(fresh), len(infos))

	var records []domain.CommitRecord
	for _, info := range fresh {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		rec := domain.CommitRecord{
			ProjectID:    projectID,
			Hash:         info.Hash,
			AuthorName:   info.AuthorName,
			AuthorAvatar: info.AuthorAvatar,
			Message:      info.Message,
			Date:         info.Date,
			Summary:      s.summarize(ctx, ref, info),
		}

		if err := s.commits.Save(ctx, &rec); err != nil {
			return records, fmt.Errorf("save commit %s: %w", shortHash(info.Hash), err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// List implements driving.CommitService.
func (s *CommitService) List(ctx context.Context, projectID string) ([]domain.CommitRecord, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return s.commits.ListByProject(ctx, projectID)
}

// filterNew drops commits already stored, and everything at or past the
// stored latest hash when one exists.
func (s *CommitService) filterNew(
	ctx context.Context, projectID string, infos []driven.CommitInfo,
) ([]driven.CommitInfo, error) {
	latest, err := s.commits.Latest(ctx, projectID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("latest commit: %w", err)
	}

	candidates := infos
	if latest != nil {
		// infos are newest first; everything from the stored latest
		// onward is already known.
		for i, info := range infos {
			if info.Hash == latest.Hash {
				candidates = infos[:i]
				break
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	hashes := make([]string, len(candidates))
	for i, c := range candidates {
		hashes[i] = c.Hash
	}
	existing, err := s.commits.ExistingHashes(ctx, projectID, hashes)
	if err != nil {
		return nil, fmt.Errorf("existing hashes: %w", err)
	}

	fresh := make([]driven.CommitInfo, 0, len(candidates))
	for _, c := range candidates {
		if !existing[c.Hash] {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}

// summarize fetches the commit diff and asks the model for a short summary,
// retrying transient failures. It never fails the pull: on exhaustion the
// fallback text is used so the commit record is persisted regardless.
func (s *CommitService) summarize(ctx context.Context, ref driven.RepoRef, info driven.CommitInfo) string {
	if s.llm == nil {
		return commitFallbackSummary
	}

	diff, err := s.fetcher.CommitDiff(ctx, ref, info.Hash)
	if err != nil || diff == "" {
		logger.Warn("No diff for commit %s: %v", shortHash(info.Hash), err)
		return commitFallbackSummary
	}

	prompt := fmt.Sprintf(commitSummaryPrompt, info.Message, diff)
	opts := driven.GenerateOptions{
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	}

	delay := summaryInitialDelay
	for attempt := 1; attempt <= summaryAttempts; attempt++ {
		summary, err := s.llm.Generate(ctx, prompt, opts)
		if err == nil && summary != "" {
			return summary
		}
		logger.Warn("Summarize commit %s attempt %d/%d failed: %v",
			shortHash(info.Hash), attempt, summaryAttempts, err)

		if attempt == summaryAttempts {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			break
		}
		delay *= 2
	}
	return commitFallbackSummary
}

// sleepCtx waits for the duration or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
