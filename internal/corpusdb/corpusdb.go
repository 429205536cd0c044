// Package corpusdb persists corpus and crash inputs as content-addressed
// blobs on disk with a SQLite metadata index, following the rest of the
// codebase's registry-manager-plus-sqlite-DB convention.
package corpusdb

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite metadata index.
type DB struct {
	sql *sql.DB
}

// migrations are applied in order; every statement is idempotent so Open
// can run them unconditionally on every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS corpus_entries (
		digest       TEXT PRIMARY KEY,
		size_bytes   INTEGER NOT NULL,
		complexity   REAL NOT NULL,
		kind         TEXT NOT NULL,
		added_at     TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_corpus_entries_kind ON corpus_entries(kind)`,
}

// Open opens (creating if needed) the SQLite index at path and applies
// migrations.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create corpus db directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}
	db := &DB{sql: sqlDB}
	for _, stmt := range migrations {
		if _, err := db.sql.Exec(stmt); err != nil {
			db.sql.Close()
			return nil, fmt.Errorf("migrate corpus db: %w", err)
		}
	}
	return db, nil
}

// Close closes the underlying database handle.
func (db *DB) Close() error { return db.sql.Close() }

// Entry is one row of the corpus metadata index.
type Entry struct {
	Digest     string
	SizeBytes  int64
	Complexity float64
	Kind       string // "corpus" or "crash"
	AddedAt    time.Time
}

// Upsert records or refreshes an entry's metadata.
func (db *DB) Upsert(e Entry) error {
	_, err := db.sql.Exec(`
		INSERT INTO corpus_entries (digest, size_bytes, complexity, kind, added_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(digest) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			complexity = excluded.complexity,
			kind       = excluded.kind
	`, e.Digest, e.SizeBytes, e.Complexity, e.Kind)
	return err
}

// Delete removes an entry's metadata row. The blob itself is left to the
// caller (Store.Remove).
func (db *DB) Delete(digest string) error {
	_, err := db.sql.Exec(`DELETE FROM corpus_entries WHERE digest = ?`, digest)
	return err
}

// List returns every entry of the given kind, ordered by insertion.
func (db *DB) List(kind string) ([]Entry, error) {
	rows, err := db.sql.Query(`
		SELECT digest, size_bytes, complexity, kind, added_at
		FROM corpus_entries WHERE kind = ? ORDER BY added_at
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var addedAt string
		if err := rows.Scan(&e.Digest, &e.SizeBytes, &e.Complexity, &e.Kind, &addedAt); err != nil {
			return nil, err
		}
		e.AddedAt, _ = time.Parse("2006-01-02 15:04:05", addedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Store is the content-addressed blob directory backing the metadata
// index: one file per distinct input, named by its sha256 digest.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create corpus store %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Digest returns the content address of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Path returns the blob path for a digest, whether or not it currently
// exists.
func (s *Store) Path(digest string) string {
	return filepath.Join(s.dir, digest)
}

// Write stores data under its content digest and returns the digest. A
// no-op (besides the stat) if the blob already exists.
func (s *Store) Write(data []byte) (string, error) {
	digest := Digest(data)
	path := s.Path(digest)
	if _, err := os.Stat(path); err == nil {
		return digest, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", digest, err)
	}
	return digest, nil
}

// Read reads the blob for digest.
func (s *Store) Read(digest string) ([]byte, error) {
	return os.ReadFile(s.Path(digest))
}

// Remove deletes the blob for digest. A no-op if it doesn't exist.
func (s *Store) Remove(digest string) error {
	err := os.Remove(s.Path(digest))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
