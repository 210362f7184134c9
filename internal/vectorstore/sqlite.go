package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tanya/internal/models"
)

// ChunkStore persists document chunks in SQLite. The chunk ID primary key
// doubles as the dedup boundary: re-inserting an existing ID fails the
// whole transaction.
type ChunkStore struct {
	db *sql.DB
}

// NewChunkStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewChunkStore(dbPath string) (*ChunkStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &ChunkStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS document_chunks (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		tag TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON document_chunks(source);
	CREATE INDEX IF NOT EXISTS idx_chunks_tag ON document_chunks(tag);
	`
	_, err := db.Exec(schema)
	return err
}

// BatchCreateChunks inserts chunks in a single transaction. A duplicate ID
// fails the transaction, which keeps concurrent ingests of the same file
// from producing partial duplicates.
func (s *ChunkStore) BatchCreateChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO document_chunks (id, source, content, tag, chunk_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Source, chunk.Content, chunk.Tag, chunk.ChunkIndex, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ExistingIDs returns the subset of ids already present in the store.
func (s *ChunkStore) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM document_chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// GetChunks returns the chunks for the given IDs, optionally restricted to
// tags. Results come back keyed by ID; missing or filtered-out IDs are
// absent from the map.
func (s *ChunkStore) GetChunks(ctx context.Context, ids []string, tags []string) (map[string]models.DocumentChunk, error) {
	out := make(map[string]models.DocumentChunk)
	if len(ids) == 0 {
		return out, nil
	}

	idPlaceholders := strings.Repeat("?,", len(ids))
	idPlaceholders = idPlaceholders[:len(idPlaceholders)-1]
	query := `SELECT id, source, content, tag, chunk_index FROM document_chunks WHERE id IN (` + idPlaceholders + `)`
	args := make([]any, 0, len(ids)+len(tags))
	for _, id := range ids {
		args = append(args, id)
	}
	if len(tags) > 0 {
		tagPlaceholders := strings.Repeat("?,", len(tags))
		tagPlaceholders = tagPlaceholders[:len(tagPlaceholders)-1]
		query += ` AND tag IN (` + tagPlaceholders + `)`
		for _, tag := range tags {
			args = append(args, tag)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.DocumentChunk
		if err := rows.Scan(&c.ID, &c.Source, &c.Content, &c.Tag, &c.ChunkIndex); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// CountChunks returns the total number of stored chunks.
func (s *ChunkStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *ChunkStore) Close() error {
	return s.db.Close()
}
