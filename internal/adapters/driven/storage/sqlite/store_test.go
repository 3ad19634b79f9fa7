package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func saveProject(t *testing.T, store *Store, id string) {
	t.Helper()
	err := store.ProjectStore().Save(context.Background(), &domain.Project{
		ID:      id,
		RepoURL: "https://github.com/acme/" + id,
	})
	require.NoError(t, err)
}

func TestNewStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	saveProject(t, store, "proj")
	require.NoError(t, store.Close())

	// Migrations are idempotent across reopens; data survives.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	project, err := store.ProjectStore().Get(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/proj", project.RepoURL)
}

func TestProjectStore_SaveAndGet(t *testing.T) {
	store := testStore(t)
	projects := store.ProjectStore()

	saveProject(t, store, "proj")

	project, err := projects.Get(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, "proj", project.ID)
	assert.False(t, project.CreatedAt.IsZero())

	// Saving again updates in place.
	err = projects.Save(context.Background(), &domain.Project{
		ID:      "proj",
		RepoURL: "https://github.com/acme/renamed",
	})
	require.NoError(t, err)

	project, err = projects.Get(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/renamed", project.RepoURL)
}

func TestProjectStore_GetMissing(t *testing.T) {
	store := testStore(t)

	_, err := store.ProjectStore().Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_UpsertRoundtrip(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")
	records := store.SourceRecordStore()

	embedding := []float32{0.25, -1.5, 3.14159, 0}
	rec := &domain.SourceRecord{
		ID:        domain.RecordID("proj", "src/auth.ts"),
		ProjectID: "proj",
		FilePath:  "src/auth.ts",
		Content:   "function login() {}",
		Summary:   "auth entry point",
		Embedding: embedding,
	}
	require.NoError(t, records.Upsert(context.Background(), rec))

	got, err := records.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Content, got.Content)
	assert.Equal(t, rec.Summary, got.Summary)
	assert.Equal(t, embedding, got.Embedding)

	// A second upsert overwrites rather than duplicates.
	rec.Summary = "revised summary"
	require.NoError(t, records.Upsert(context.Background(), rec))

	count, err := records.CountByProject(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err = records.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised summary", got.Summary)
}

func TestRecordStore_UpsertOverwritesFallbackRow(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")
	records := store.SourceRecordStore()

	// A record persisted under a fallback random ID, as the ingestor does
	// when the deterministic ID collides.
	fallback := &domain.SourceRecord{
		ID:        "proj_3f0e2a8c-1111-2222-3333-444455556666",
		ProjectID: "proj",
		FilePath:  "src/auth.ts",
		Content:   "old",
	}
	require.NoError(t, records.Insert(context.Background(), fallback))

	// Re-ingestion upserts under the deterministic ID; the existing row for
	// the same (project, path) must be overwritten, not rejected.
	require.NoError(t, records.Upsert(context.Background(), &domain.SourceRecord{
		ID:        domain.RecordID("proj", "src/auth.ts"),
		ProjectID: "proj",
		FilePath:  "src/auth.ts",
		Content:   "new",
	}))

	count, err := records.CountByProject(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := records.Get(context.Background(), fallback.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
}

func TestRecordStore_ListByProject(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")
	saveProject(t, store, "other")
	records := store.SourceRecordStore()

	for _, path := range []string{"b.ts", "a.ts"} {
		require.NoError(t, records.Upsert(context.Background(), &domain.SourceRecord{
			ID:        domain.RecordID("proj", path),
			ProjectID: "proj",
			FilePath:  path,
			Content:   "x",
		}))
	}
	require.NoError(t, records.Upsert(context.Background(), &domain.SourceRecord{
		ID:        domain.RecordID("other", "z.ts"),
		ProjectID: "other",
		FilePath:  "z.ts",
		Content:   "x",
	}))

	list, err := records.ListByProject(context.Background(), "proj")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.ts", list[0].FilePath)
	assert.Equal(t, "b.ts", list[1].FilePath)
}

func TestRecordStore_InsertDuplicateFails(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")
	records := store.SourceRecordStore()

	rec := &domain.SourceRecord{
		ID:        "fixed-id",
		ProjectID: "proj",
		FilePath:  "a.ts",
		Content:   "x",
	}
	require.NoError(t, records.Insert(context.Background(), rec))
	assert.Error(t, records.Insert(context.Background(), rec))

	// Same (project, path) under a fresh ID is still a duplicate.
	assert.Error(t, records.Insert(context.Background(), &domain.SourceRecord{
		ID:        "other-id",
		ProjectID: "proj",
		FilePath:  "a.ts",
		Content:   "y",
	}))
}

func TestCommitStore_SaveAndList(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")
	commits := store.CommitStore()

	older := &domain.CommitRecord{
		ProjectID: "proj",
		Hash:      "aaa1111",
		Message:   "first",
		Date:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Summary:   "First change.",
	}
	newer := &domain.CommitRecord{
		ProjectID:  "proj",
		Hash:       "bbb2222",
		AuthorName: "dev",
		Message:    "second",
		Date:       time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC),
		Summary:    "Second change.",
	}
	require.NoError(t, commits.Save(context.Background(), older))
	require.NoError(t, commits.Save(context.Background(), newer))

	list, err := commits.ListByProject(context.Background(), "proj")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bbb2222", list[0].Hash)

	latest, err := commits.Latest(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, "bbb2222", latest.Hash)
	assert.Equal(t, "dev", latest.AuthorName)
}

func TestCommitStore_LatestEmpty(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")

	_, err := store.CommitStore().Latest(context.Background(), "proj")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommitStore_ExistingHashes(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")
	commits := store.CommitStore()

	require.NoError(t, commits.Save(context.Background(), &domain.CommitRecord{
		ProjectID: "proj",
		Hash:      "aaa1111",
		Date:      time.Now().UTC(),
	}))

	existing, err := commits.ExistingHashes(context.Background(), "proj",
		[]string{"aaa1111", "bbb2222"})
	require.NoError(t, err)
	assert.True(t, existing["aaa1111"])
	assert.False(t, existing["bbb2222"])

	empty, err := commits.ExistingHashes(context.Background(), "proj", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDelete_CascadesToRecordsAndCommits(t *testing.T) {
	store := testStore(t)
	saveProject(t, store, "proj")

	require.NoError(t, store.SourceRecordStore().Upsert(context.Background(), &domain.SourceRecord{
		ID:        domain.RecordID("proj", "a.ts"),
		ProjectID: "proj",
		FilePath:  "a.ts",
		Content:   "x",
	}))
	require.NoError(t, store.CommitStore().Save(context.Background(), &domain.CommitRecord{
		ProjectID: "proj",
		Hash:      "aaa1111",
		Date:      time.Now().UTC(),
	}))

	require.NoError(t, store.ProjectStore().Delete(context.Background(), "proj"))

	count, err := store.SourceRecordStore().CountByProject(context.Background(), "proj")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	commits, err := store.CommitStore().ListByProject(context.Background(), "proj")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestEmbeddingBlobRoundtrip(t *testing.T) {
	vec := []float32{1.5, -2.25, 0, 1e-7}
	assert.Equal(t, vec, bytesToFloat32Slice(float32SliceToBytes(vec)))

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
