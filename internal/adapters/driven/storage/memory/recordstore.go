package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.SourceRecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.SourceRecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.SourceRecord
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]domain.SourceRecord),
	}
}

// Upsert stores or overwrites the record for (project, file path). An
// existing record keeps its ID and creation time.
func (s *RecordStore) Upsert(_ context.Context, rec *domain.SourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range s.records {
		if existing.ProjectID == rec.ProjectID && existing.FilePath == rec.FilePath {
			updated := *rec
			updated.ID = existing.ID
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = now
			s.records[id] = updated
			return nil
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.records[rec.ID] = *rec
	return nil
}

// Insert stores a record, failing on an ID or (project, file path) collision.
func (s *RecordStore) Insert(_ context.Context, rec *domain.SourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return domain.ErrAlreadyExists
	}
	for _, existing := range s.records {
		if existing.ProjectID == rec.ProjectID && existing.FilePath == rec.FilePath {
			return domain.ErrAlreadyExists
		}
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.records[rec.ID] = *rec
	return nil
}

// Get retrieves a record by ID.
func (s *RecordStore) Get(_ context.Context, id string) (*domain.SourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListByProject returns all records for a project, ordered by file path.
func (s *RecordStore) ListByProject(_ context.Context, projectID string) ([]domain.SourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SourceRecord
	for _, rec := range s.records {
		if rec.ProjectID == projectID {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FilePath < result[j].FilePath
	})
	return result, nil
}

// CountByProject returns the number of records for a project.
func (s *RecordStore) CountByProject(_ context.Context, projectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.records {
		if rec.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

// DeleteByProject removes every record owned by a project.
func (s *RecordStore) DeleteByProject(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.records {
		if rec.ProjectID == projectID {
			delete(s.records, id)
		}
	}
	return nil
}
