package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path    TEXT PRIMARY KEY,
	hash    TEXT NOT NULL,
	mtime   INTEGER NOT NULL,
	size    INTEGER NOT NULL,
	indexed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS chunks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path  TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL,
	embedding  BLOB
);
CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);
`

// Store is the metadata/chunk store (spec.md §4.F). Write operations
// (UpsertFile, InsertChunk, MarkIndexed, DeleteFile) assume the caller
// already holds the writer mutex via Lock/Unlock for the duration of the
// whole multi-call commit; read operations (KeywordSearch, GetChunk,
// ForEachVector) acquire the reader lock for their own duration only.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open is idempotent: it creates the schema if missing and enables
// foreign-key cascades (off by default in SQLite).
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer design; avoid SQLITE_BUSY churn

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lock acquires the writer mutex for the duration of a multi-call commit
// (spec.md §5: held by the worker during per-file commit, and by the
// watcher around a standalone delete).
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the writer mutex.
func (s *Store) Unlock() { s.mu.Unlock() }

// NeedsIndexing reports whether path has no file row, or its stored hash
// differs from hash. A missing path is always dirty.
func (s *Store) NeedsIndexing(path, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stored string
	err := s.db.QueryRow(`SELECT hash FROM files WHERE path = ?`, path).Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: needs_indexing %s: %w", path, err)
	}
	return stored != hash, nil
}

// UpsertFile inserts a file row, or on path conflict updates hash,
// mtime, and size, and resets indexed to false. Caller must hold Lock.
func (s *Store) UpsertFile(path, hash string, mtime, size int64) error {
	_, err := s.db.Exec(`
		INSERT INTO files (path, hash, mtime, size, indexed) VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, mtime = excluded.mtime,
			size = excluded.size, indexed = 0
	`, path, hash, mtime, size)
	if err != nil {
		return fmt.Errorf("store: upsert_file %s: %w", path, err)
	}
	return nil
}

// MarkIndexed flips the indexed flag for path. Caller must hold Lock.
func (s *Store) MarkIndexed(path string, indexed bool) error {
	_, err := s.db.Exec(`UPDATE files SET indexed = ? WHERE path = ?`, boolToInt(indexed), path)
	if err != nil {
		return fmt.Errorf("store: mark_indexed %s: %w", path, err)
	}
	return nil
}

// DeleteFile deletes the file row; cascades to all chunk rows of that
// file. Safe to call for non-existent paths. Caller must hold Lock.
func (s *Store) DeleteFile(path string) error {
	_, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("store: delete_file %s: %w", path, err)
	}
	return nil
}

// InsertChunk looks up the file row for path; if none exists, it returns
// ErrNoSuchFile and inserts nothing. vector may be nil/empty, in which
// case a null embedding is stored. Caller must hold Lock.
func (s *Store) InsertChunk(path string, c Chunk, vector []float32) (int64, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT 1 FROM files WHERE path = ?`, path).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNoSuchFile
		}
		return 0, fmt.Errorf("store: insert_chunk lookup %s: %w", path, err)
	}

	var blob any
	if len(vector) > 0 {
		blob = encodeVector(vector)
	}

	res, err := s.db.Exec(`
		INSERT INTO chunks (file_path, content, start_line, end_line, embedding)
		VALUES (?, ?, ?, ?, ?)
	`, path, c.Content, c.Start, c.End, blob)
	if err != nil {
		return 0, fmt.Errorf("store: insert_chunk %s: %w", path, err)
	}
	return res.LastInsertId()
}

// ErrNoSuchFile is returned by InsertChunk when no file row exists for
// the given path.
var ErrNoSuchFile = fmt.Errorf("store: no file row for chunk insert")

// keywordSearchLimit is the default result cap for KeywordSearch.
const keywordSearchLimit = 5

// KeywordSearch performs a literal (escaped) substring match against
// chunk content, bounded by limit (0 selects the default of 5). Order is
// unspecified but stable within a single storage version.
func (s *Store) KeywordSearch(query string, limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = keywordSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.Query(`
		SELECT id, file_path, content, start_line, end_line, embedding
		FROM chunks WHERE content LIKE ? ESCAPE '\' LIMIT ?
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("store: keyword_search: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.FilePath, &c.Content, &c.Start, &c.End, &blob); err != nil {
			return nil, fmt.Errorf("store: keyword_search scan: %w", err)
		}
		c.Embedding = decodeVector(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// escapeLike escapes '%', '_', and the escape character itself so that
// a LIKE predicate built around the result matches only literal
// substrings (spec.md §9's open question, resolved as a requirement).
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// GetChunk returns a chunk by id, or ok=false if absent.
func (s *Store) GetChunk(id int64) (Chunk, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Chunk
	var blob []byte
	err := s.db.QueryRow(`
		SELECT id, file_path, content, start_line, end_line, embedding
		FROM chunks WHERE id = ?
	`, id).Scan(&c.ID, &c.FilePath, &c.Content, &c.Start, &c.End, &blob)
	if err == sql.ErrNoRows {
		return Chunk{}, false, nil
	}
	if err != nil {
		return Chunk{}, false, fmt.Errorf("store: get_chunk %d: %w", id, err)
	}
	c.Embedding = decodeVector(blob)
	return c, true, nil
}

// ForEachVector iterates all chunks with a non-null embedding, invoking
// fn with the chunk id and vector. Used only at startup by the
// memory-mode policy.
func (s *Store) ForEachVector(fn func(id int64, vector []float32)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, embedding FROM chunks WHERE embedding IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("store: for_each_vector: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return fmt.Errorf("store: for_each_vector scan: %w", err)
		}
		fn(id, decodeVector(blob))
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
