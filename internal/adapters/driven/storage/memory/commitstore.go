package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

// Ensure CommitStore implements the interface.
var _ driven.CommitStore = (*CommitStore)(nil)

type commitKey struct {
	projectID string
	hash      string
}

// CommitStore is an in-memory implementation of driven.CommitStore.
type CommitStore struct {
	mu      sync.RWMutex
	commits map[commitKey]domain.CommitRecord
}

// NewCommitStore creates a new in-memory commit store.
func NewCommitStore() *CommitStore {
	return &CommitStore{
		commits: make(map[commitKey]domain.CommitRecord),
	}
}

// Save stores a commit; duplicates are overwritten.
func (s *CommitStore) Save(_ context.Context, rec *domain.CommitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits[commitKey{rec.ProjectID, rec.Hash}] = *rec
	return nil
}

// ListByProject returns a project's commits, newest first.
func (s *CommitStore) ListByProject(_ context.Context, projectID string) ([]domain.CommitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.CommitRecord
	for key, rec := range s.commits {
		if key.projectID == projectID {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

// Latest returns the most recent commit by date.
func (s *CommitStore) Latest(ctx context.Context, projectID string) (*domain.CommitRecord, error) {
	commits, err := s.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, domain.ErrNotFound
	}
	return &commits[0], nil
}

// ExistingHashes reports which of the given hashes are already stored for
// the project.
func (s *CommitStore) ExistingHashes(_ context.Context, projectID string, hashes []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[string]bool, len(hashes))
	for _, hash := range hashes {
		if _, ok := s.commits[commitKey{projectID, hash}]; ok {
			existing[hash] = true
		}
	}
	return existing, nil
}
