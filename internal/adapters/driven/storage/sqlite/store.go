package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// Document Registry (C11) and Configuration Store (C10) through wrapper
// types backed by a single database connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

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

// DocumentRegistry returns a driven.DocumentRegistry backed by this store.
func (s *Store) DocumentRegistry() driven.DocumentRegistry {
	return &documentRegistry{store: s}
}

// ConfigurationStore returns a driven.ConfigurationStore backed by this store.
func (s *Store) ConfigurationStore() driven.ConfigurationStore {
	return &configurationStore{store: s}
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
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Registry ====================

// documentRegistry implements driven.DocumentRegistry (C11).
type documentRegistry struct {
	store *Store
}

var _ driven.DocumentRegistry = (*documentRegistry)(nil)

// Create inserts a new document, normally in DocumentPending status.
func (r *documentRegistry) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, extension, size_bytes, storage_path, status, language, error_message, uploaded_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.Extension, doc.SizeBytes, doc.StoragePath, string(doc.Status),
		doc.Language, doc.ErrorMessage, doc.UploadedAt, nullTime(doc.ProcessedAt))
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	return r.saveChunks(ctx, doc.ID, doc.Chunks)
}

// Get retrieves a document by id.
func (r *documentRegistry) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, filename, extension, size_bytes, storage_path, status, language, error_message, uploaded_at, processed_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}

	chunks, err := r.chunkSummaries(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks
	return doc, nil
}

// List returns every registered document.
func (r *documentRegistry) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, filename, extension, size_bytes, storage_path, status, language, error_message, uploaded_at, processed_at
		FROM documents ORDER BY uploaded_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		chunks, err := r.chunkSummaries(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		doc.Chunks = chunks
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Update persists changes to an existing document (status, chunks, etc).
func (r *documentRegistry) Update(ctx context.Context, doc *domain.Document) error {
	_, err := r.store.db.ExecContext(ctx, `
		UPDATE documents SET
			filename = ?, extension = ?, size_bytes = ?, storage_path = ?,
			status = ?, language = ?, error_message = ?, uploaded_at = ?, processed_at = ?
		WHERE id = ?
	`, doc.Filename, doc.Extension, doc.SizeBytes, doc.StoragePath, string(doc.Status),
		doc.Language, doc.ErrorMessage, doc.UploadedAt, nullTime(doc.ProcessedAt), doc.ID)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return r.saveChunks(ctx, doc.ID, doc.Chunks)
}

// Delete removes a document's registry entry.
func (r *documentRegistry) Delete(ctx context.Context, id string) error {
	_, err := r.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ClearAll removes every registry entry.
func (r *documentRegistry) ClearAll(ctx context.Context) error {
	_, err := r.store.db.ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

// ChunkIDs returns the chunk ids recorded for a document, in order.
func (r *documentRegistry) ChunkIDs(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id FROM document_chunks WHERE document_id = ? ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of registered documents.
func (r *documentRegistry) Count(ctx context.Context) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// saveChunks replaces a document's chunk summaries with chunks, inside a
// transaction so the delete-then-insert is atomic.
func (r *documentRegistry) saveChunks(ctx context.Context, documentID string, chunks []domain.ChunkSummary) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (id, document_id, position, content, start_char, end_char)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, documentID, i, c.Content, c.StartChar, c.EndChar); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	return tx.Commit()
}

func (r *documentRegistry) chunkSummaries(ctx context.Context, documentID string) ([]domain.ChunkSummary, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, content, start_char, end_char FROM document_chunks
		WHERE document_id = ? ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ChunkSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.ChunkSummary
		if err := rows.Scan(&c.ID, &c.Content, &c.StartChar, &c.EndChar); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var processedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Extension, &doc.SizeBytes, &doc.StoragePath,
		&status, &doc.Language, &doc.ErrorMessage, &doc.UploadedAt, &processedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var processedAt sql.NullTime

	if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Extension, &doc.SizeBytes, &doc.StoragePath,
		&status, &doc.Language, &doc.ErrorMessage, &doc.UploadedAt, &processedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// ==================== Configuration Store ====================

// configurationStore implements driven.ConfigurationStore (C10).
type configurationStore struct {
	store *Store
}

var _ driven.ConfigurationStore = (*configurationStore)(nil)

// Create persists a new configuration snapshot.
func (s *configurationStore) Create(ctx context.Context, snap *domain.ConfigurationSnapshot) error {
	llmParams, embedParams, vectorParams, err := marshalParams(snap)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO configurations
			(id, owner, llm_provider_kind, llm_params, embedding_provider_kind, embedding_params,
			 vector_provider_kind, vector_params, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Owner, string(snap.LLMProviderKind), llmParams,
		string(snap.EmbeddingProviderKind), embedParams,
		string(snap.VectorProviderKind), vectorParams, boolToInt(snap.Active), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating configuration: %w", err)
	}
	return nil
}

// Get retrieves a configuration snapshot by id.
func (s *configurationStore) Get(ctx context.Context, id string) (*domain.ConfigurationSnapshot, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, llm_provider_kind, llm_params, embedding_provider_kind, embedding_params,
			vector_provider_kind, vector_params, active, created_at
		FROM configurations WHERE id = ?
	`, id)
	return scanConfiguration(row)
}

// List returns every configuration snapshot owned by owner.
func (s *configurationStore) List(ctx context.Context, owner string) ([]domain.ConfigurationSnapshot, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner, llm_provider_kind, llm_params, embedding_provider_kind, embedding_params,
			vector_provider_kind, vector_params, active, created_at
		FROM configurations WHERE owner = ? ORDER BY created_at
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying configurations: %w", err)
	}
	defer rows.Close()

	var snaps []domain.ConfigurationSnapshot //nolint:prealloc // size unknown from query
	for rows.Next() {
		snap, err := scanConfigurationRows(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

// Update persists changes to an existing configuration snapshot.
func (s *configurationStore) Update(ctx context.Context, snap *domain.ConfigurationSnapshot) error {
	llmParams, embedParams, vectorParams, err := marshalParams(snap)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		UPDATE configurations SET
			owner = ?, llm_provider_kind = ?, llm_params = ?,
			embedding_provider_kind = ?, embedding_params = ?,
			vector_provider_kind = ?, vector_params = ?, active = ?
		WHERE id = ?
	`, snap.Owner, string(snap.LLMProviderKind), llmParams,
		string(snap.EmbeddingProviderKind), embedParams,
		string(snap.VectorProviderKind), vectorParams, boolToInt(snap.Active), snap.ID)
	if err != nil {
		return fmt.Errorf("updating configuration: %w", err)
	}
	return nil
}

// Delete removes a configuration snapshot.
func (s *configurationStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM configurations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting configuration: %w", err)
	}
	return nil
}

// Activate atomically deactivates every other configuration owned by owner
// and sets id active (I5).
func (s *configurationStore) Activate(ctx context.Context, owner, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "UPDATE configurations SET active = 0 WHERE owner = ?", owner); err != nil {
		return fmt.Errorf("deactivating configurations: %w", err)
	}

	res, err := tx.ExecContext(ctx, "UPDATE configurations SET active = 1 WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return fmt.Errorf("activating configuration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking activation result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}

// GetActive returns the active configuration for owner.
func (s *configurationStore) GetActive(ctx context.Context, owner string) (*domain.ConfigurationSnapshot, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, llm_provider_kind, llm_params, embedding_provider_kind, embedding_params,
			vector_provider_kind, vector_params, active, created_at
		FROM configurations WHERE owner = ? AND active = 1
	`, owner)
	return scanConfiguration(row)
}

func marshalParams(snap *domain.ConfigurationSnapshot) (llm, embed, vector string, err error) {
	llmBytes, err := json.Marshal(snap.LLMParams)
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling llm params: %w", err)
	}
	embedBytes, err := json.Marshal(snap.EmbeddingParams)
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling embedding params: %w", err)
	}
	vectorBytes, err := json.Marshal(snap.VectorParams)
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling vector params: %w", err)
	}
	return string(llmBytes), string(embedBytes), string(vectorBytes), nil
}

func scanConfiguration(row *sql.Row) (*domain.ConfigurationSnapshot, error) {
	var snap domain.ConfigurationSnapshot
	var llmKind, embedKind, vectorKind string
	var llmParams, embedParams, vectorParams string
	var active int

	if err := row.Scan(&snap.ID, &snap.Owner, &llmKind, &llmParams, &embedKind, &embedParams,
		&vectorKind, &vectorParams, &active, &snap.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning configuration: %w", err)
	}
	return unmarshalConfiguration(&snap, llmKind, embedKind, vectorKind, llmParams, embedParams, vectorParams, active)
}

func scanConfigurationRows(rows *sql.Rows) (*domain.ConfigurationSnapshot, error) {
	var snap domain.ConfigurationSnapshot
	var llmKind, embedKind, vectorKind string
	var llmParams, embedParams, vectorParams string
	var active int

	if err := rows.Scan(&snap.ID, &snap.Owner, &llmKind, &llmParams, &embedKind, &embedParams,
		&vectorKind, &vectorParams, &active, &snap.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning configuration: %w", err)
	}
	return unmarshalConfiguration(&snap, llmKind, embedKind, vectorKind, llmParams, embedParams, vectorParams, active)
}

func unmarshalConfiguration(
	snap *domain.ConfigurationSnapshot,
	llmKind, embedKind, vectorKind, llmParams, embedParams, vectorParams string,
	active int,
) (*domain.ConfigurationSnapshot, error) {
	snap.LLMProviderKind = domain.LLMProviderKind(llmKind)
	snap.EmbeddingProviderKind = domain.EmbeddingProviderKind(embedKind)
	snap.VectorProviderKind = domain.VectorProviderKind(vectorKind)
	snap.Active = active != 0

	if err := json.Unmarshal([]byte(llmParams), &snap.LLMParams); err != nil {
		return nil, fmt.Errorf("unmarshalling llm params: %w", err)
	}
	if err := json.Unmarshal([]byte(embedParams), &snap.EmbeddingParams); err != nil {
		return nil, fmt.Errorf("unmarshalling embedding params: %w", err)
	}
	if err := json.Unmarshal([]byte(vectorParams), &snap.VectorParams); err != nil {
		return nil, fmt.Errorf("unmarshalling vector params: %w", err)
	}
	return snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
