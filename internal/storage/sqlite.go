package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteStore is the durable Store, a single SQLite database file.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and runs
// pending schema migrations.
func NewSQLiteStore(path string) (Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// modernc's driver is not safe for concurrent writers on one connection
	// pool beyond one; serialize access at the pool level.
	db.SetMaxOpenConns(1)

	s := &sqliteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

// migration is a single ordered schema change.
type migration struct {
	version int
	name    string
	up      func(*sql.DB) error
}

func (s *sqliteStore) runMigrations() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}

	migrations := []migration{
		{version: 1, name: "documents", up: migration001Documents},
	}

	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if err := m.up(s.db); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name,
		); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
	}
	return nil
}

func migration001Documents(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			updated_at TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_collection
		ON documents(collection)
	`); err != nil {
		return fmt.Errorf("creating collection index: %w", err)
	}
	return nil
}

func (s *sqliteStore) Upsert(ctx context.Context, collection, id, content string, metadata map[string]string) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s/%s: %w", collection, id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, content, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, collection, id, content, string(meta), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *sqliteStore) GetByID(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT collection, id, content, metadata, updated_at
		FROM documents WHERE collection = ? AND id = ?
	`, collection, id)

	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *sqliteStore) Query(ctx context.Context, q DocumentQuery) ([]Document, error) {
	query := `
		SELECT collection, id, content, metadata, updated_at
		FROM documents WHERE collection = ?
	`
	args := []any{q.Collection}

	if q.Contains != "" {
		query += " AND lower(content) LIKE ?"
		args = append(args, "%"+strings.ToLower(q.Contains)+"%")
	}
	for k, v := range q.Metadata {
		query += " AND json_extract(metadata, ?) = ?"
		args = append(args, "$."+k, v)
	}
	query += " ORDER BY id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", q.Collection, err)
		}
		results = append(results, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", q.Collection, err)
	}
	return results, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func scanDocument(scan func(dest ...any) error) (*Document, error) {
	var doc Document
	var meta, updated string
	if err := scan(&doc.Collection, &doc.ID, &doc.Content, &meta, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		doc.UpdatedAt = t
	}
	return &doc, nil
}
