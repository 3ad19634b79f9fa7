package driven

import (
	"context"
	"time"
)

// Repository entry types as reported by the hosting API.
const (
	EntryFile = "file"
	EntryDir  = "dir"
)

// RepoRef identifies a hosted repository.
type RepoRef struct {
	Owner string
	Name  string
}

// RepoEntry is one item in a repository directory listing.
type RepoEntry struct {
	// Path is the repository-relative path.
	Path string

	// Type is EntryFile or EntryDir.
	Type string

	// Size is the file size in bytes; zero for directories.
	Size int
}

// CommitInfo is the raw commit metadata fetched from the hosting API,
// before summarization.
type CommitInfo struct {
	Hash         string
	Message      string
	AuthorName   string
	AuthorAvatar string
	Date         time.Time
}

// RepoFetcher lists and fetches repository content from a hosting provider.
// Implementations own their rate limiting; callers may issue listing calls
// back-to-back and rely on the adapter to pace them.
type RepoFetcher interface {
	// ListDirectory returns the entries of one directory. Pass "" for the
	// repository root.
	ListDirectory(ctx context.Context, repo RepoRef, path string) ([]RepoEntry, error)

	// FileContent fetches the decoded content of a file.
	FileContent(ctx context.Context, repo RepoRef, path string) (string, error)

	// ListCommits returns up to limit recent commits, newest first.
	ListCommits(ctx context.Context, repo RepoRef, limit int) ([]CommitInfo, error)

	// CommitDiff returns the unified diff of a commit across all its files.
	CommitDiff(ctx context.Context, repo RepoRef, sha string) (string, error)
}
