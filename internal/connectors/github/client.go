// Package github implements the repository fetcher port on top of the
// GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.RepoFetcher = (*Fetcher)(nil)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Fetcher wraps the go-github client behind the driven.RepoFetcher port.
// All calls go through the dual-strategy rate limiter.
type Fetcher struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewFetcher creates a fetcher authenticated with the given access token.
// An empty token yields an unauthenticated client with GitHub's much lower
// anonymous quota.
func NewFetcher(ctx context.Context, token string) *Fetcher {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = DefaultTimeout

	return &Fetcher{
		gh:          gh.NewClient(httpClient),
		rateLimiter: NewRateLimiter(),
	}
}

// NewFetcherWithClient creates a fetcher with a custom http.Client,
// used in tests against a stub server.
func NewFetcherWithClient(httpClient *http.Client, baseURL string) (*Fetcher, error) {
	client, err := gh.NewClient(httpClient).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("github: configure base url: %w", err)
	}
	return &Fetcher{
		gh:          client,
		rateLimiter: NewRateLimiter(),
	}, nil
}

// ListDirectory returns the entries of one directory of the repository's
// default branch. Pass "" for the root.
func (f *Fetcher) ListDirectory(ctx context.Context, repo driven.RepoRef, path string) ([]driven.RepoEntry, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	_, contents, resp, err := f.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, nil)
	if err != nil {
		return nil, wrapError(err, "list directory")
	}
	f.updateRateLimitFromResponse(resp)

	entries := make([]driven.RepoEntry, 0, len(contents))
	for _, content := range contents {
		entries = append(entries, driven.RepoEntry{
			Path: content.GetPath(),
			Type: content.GetType(),
			Size: content.GetSize(),
		})
	}
	return entries, nil
}

// FileContent fetches the decoded content of a file.
func (f *Fetcher) FileContent(ctx context.Context, repo driven.RepoRef, path string) (string, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	content, _, resp, err := f.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, nil)
	if err != nil {
		return "", wrapError(err, "get contents")
	}
	f.updateRateLimitFromResponse(resp)

	if content == nil {
		return "", fmt.Errorf("github: %s is a directory, not a file", path)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return decoded, nil
}

// ListCommits returns up to limit recent commits on the default branch,
// newest first.
func (f *Fetcher) ListCommits(ctx context.Context, repo driven.RepoRef, limit int) ([]driven.CommitInfo, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: limit},
	}
	commits, resp, err := f.gh.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, wrapError(err, "list commits")
	}
	f.updateRateLimitFromResponse(resp)

	infos := make([]driven.CommitInfo, 0, len(commits))
	for _, commit := range commits {
		info := driven.CommitInfo{
			Hash:    commit.GetSHA(),
			Message: commit.GetCommit().GetMessage(),
		}
		if author := commit.GetCommit().GetAuthor(); author != nil {
			info.AuthorName = author.GetName()
			info.Date = author.GetDate().Time
		}
		if author := commit.GetAuthor(); author != nil {
			info.AuthorAvatar = author.GetAvatarURL()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// CommitDiff returns the unified diff of a commit, assembled from the
// per-file patches of the commit detail response.
func (f *Fetcher) CommitDiff(ctx context.Context, repo driven.RepoRef, sha string) (string, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	commit, resp, err := f.gh.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, nil)
	if err != nil {
		return "", wrapError(err, "get commit")
	}
	f.updateRateLimitFromResponse(resp)

	var diff strings.Builder
	for _, file := range commit.Files {
		if file.GetPatch() == "" {
			continue
		}
		fmt.Fprintf(&diff, "diff --git a/%s b/%s\n", file.GetFilename(), file.GetFilename())
		diff.WriteString(file.GetPatch())
		diff.WriteString("\n")
	}
	return diff.String(), nil
}

// RateLimiter returns the rate limiter for external access.
func (f *Fetcher) RateLimiter() *RateLimiter {
	return f.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (f *Fetcher) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	f.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        ghErr.Response.Request.URL.String(),
		}
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt: rateLimitErr.Rate.Reset.Time,
			Limit:   rateLimitErr.Rate.Limit,
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
