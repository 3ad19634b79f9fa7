package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/codeatlas-ai/codeatlas/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// project, record, and commit store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.codeatlas/data/codeatlas.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".codeatlas", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "codeatlas.db")

	// WAL for concurrency; foreign_keys in the DSN so every pooled
	// connection enforces the cascades.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ProjectStore returns a ProjectStore interface backed by this store.
func (s *Store) ProjectStore() driven.ProjectStore {
	return &projectStore{store: s}
}

// SourceRecordStore returns a SourceRecordStore interface backed by this store.
func (s *Store) SourceRecordStore() driven.SourceRecordStore {
	return &sourceRecordStore{store: s}
}

// CommitStore returns a CommitStore interface backed by this store.
func (s *Store) CommitStore() driven.CommitStore {
	return &commitStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Project Store ====================

// projectStore implements driven.ProjectStore.
type projectStore struct {
	store *Store
}

var _ driven.ProjectStore = (*projectStore)(nil)

// Save stores or updates a project.
func (s *projectStore) Save(ctx context.Context, project *domain.Project) error {
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO projects (id, repo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repo_url = excluded.repo_url,
			updated_at = excluded.updated_at
	`, project.ID, project.RepoURL, project.CreatedAt, project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

// Get retrieves a project by ID.
func (s *projectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, repo_url, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	var project domain.Project
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&project.ID, &project.RepoURL, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	if createdAt.Valid {
		project.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		project.UpdatedAt = updatedAt.Time
	}

	return &project, nil
}

// Delete removes a project. Records and commits cascade through the
// foreign keys.
func (s *projectStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

// ==================== Source Record Store ====================

// sourceRecordStore implements driven.SourceRecordStore.
type sourceRecordStore struct {
	store *Store
}

var _ driven.SourceRecordStore = (*sourceRecordStore)(nil)

// Upsert stores or overwrites the record for (project, file path). The
// existing row keeps its ID, so a record stored under a fallback ID is still
// overwritten in place on re-ingestion.
func (s *sourceRecordStore) Upsert(ctx context.Context, rec *domain.SourceRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE source_records
		SET content = ?, summary = ?, embedding = ?, updated_at = ?
		WHERE project_id = ? AND file_path = ?
	`, rec.Content, rec.Summary, float32SliceToBytes(rec.Embedding),
		rec.UpdatedAt, rec.ProjectID, rec.FilePath)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO source_records (id, project_id, file_path, content, summary, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ProjectID, rec.FilePath, rec.Content, rec.Summary,
		float32SliceToBytes(rec.Embedding), rec.CreatedAt, rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}

// Insert stores a record without conflict handling.
func (s *sourceRecordStore) Insert(ctx context.Context, rec *domain.SourceRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO source_records (id, project_id, file_path, content, summary, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ProjectID, rec.FilePath, rec.Content, rec.Summary,
		float32SliceToBytes(rec.Embedding), rec.CreatedAt, rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *sourceRecordStore) Get(ctx context.Context, id string) (*domain.SourceRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, file_path, content, summary, embedding, created_at, updated_at
		FROM source_records WHERE id = ?
	`, id)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// ListByProject returns all records for a project, embeddings included.
func (s *sourceRecordStore) ListByProject(ctx context.Context, projectID string) ([]domain.SourceRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, file_path, content, summary, embedding, created_at, updated_at
		FROM source_records WHERE project_id = ?
		ORDER BY file_path
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.SourceRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

// CountByProject returns the number of records for a project.
func (s *sourceRecordStore) CountByProject(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM source_records WHERE project_id = ?", projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// DeleteByProject removes every record owned by a project.
func (s *sourceRecordStore) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM source_records WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

// scanRecord scans one record row via either sql.Row.Scan or sql.Rows.Scan.
func scanRecord(scan func(...any) error) (*domain.SourceRecord, error) {
	var rec domain.SourceRecord
	var embeddingBlob []byte
	var createdAt, updatedAt sql.NullTime

	if err := scan(&rec.ID, &rec.ProjectID, &rec.FilePath, &rec.Content,
		&rec.Summary, &embeddingBlob, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec.Embedding = bytesToFloat32Slice(embeddingBlob)
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}

	return &rec, nil
}

// ==================== Commit Store ====================

// commitStore implements driven.CommitStore.
type commitStore struct {
	store *Store
}

var _ driven.CommitStore = (*commitStore)(nil)

// Save stores a commit; (project_id, hash) duplicates are overwritten.
func (s *commitStore) Save(ctx context.Context, rec *domain.CommitRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO commits (project_id, hash, author_name, author_avatar, message, date, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, hash) DO UPDATE SET
			author_name = excluded.author_name,
			author_avatar = excluded.author_avatar,
			message = excluded.message,
			date = excluded.date,
			summary = excluded.summary
	`, rec.ProjectID, rec.Hash, rec.AuthorName, rec.AuthorAvatar,
		rec.Message, rec.Date, rec.Summary)

	if err != nil {
		return fmt.Errorf("saving commit: %w", err)
	}
	return nil
}

// ListByProject returns a project's commits, newest first.
func (s *commitStore) ListByProject(ctx context.Context, projectID string) ([]domain.CommitRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT project_id, hash, author_name, author_avatar, message, date, summary
		FROM commits WHERE project_id = ?
		ORDER BY date DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying commits: %w", err)
	}
	defer rows.Close()

	var commits []domain.CommitRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanCommit(rows.Scan)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commits: %w", err)
	}

	return commits, nil
}

// Latest returns the most recent commit by date.
func (s *commitStore) Latest(ctx context.Context, projectID string) (*domain.CommitRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT project_id, hash, author_name, author_avatar, message, date, summary
		FROM commits WHERE project_id = ?
		ORDER BY date DESC LIMIT 1
	`, projectID)

	rec, err := scanCommit(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// ExistingHashes reports which of the given hashes are already stored for
// the project.
func (s *commitStore) ExistingHashes(ctx context.Context, projectID string, hashes []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(hashes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(hashes)+1)
	args = append(args, projectID)
	for _, h := range hashes {
		args = append(args, h)
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT hash FROM commits WHERE project_id = ? AND hash IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("querying commit hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scanning commit hash: %w", err)
		}
		existing[hash] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commit hashes: %w", err)
	}

	return existing, nil
}

// scanCommit scans one commit row via either sql.Row.Scan or sql.Rows.Scan.
func scanCommit(scan func(...any) error) (*domain.CommitRecord, error) {
	var rec domain.CommitRecord
	var date sql.NullTime

	if err := scan(&rec.ProjectID, &rec.Hash, &rec.AuthorName, &rec.AuthorAvatar,
		&rec.Message, &date, &rec.Summary); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning commit: %w", err)
	}

	if date.Valid {
		rec.Date = date.Time
	}

	return &rec, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
