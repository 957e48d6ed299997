// Package index persists chunk embeddings in SQLite and serves
// nearest-neighbor lookups over them.
package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/docdex/internal/domain"
)

const dbFileName = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_id      TEXT    NOT NULL,
	chunk_index INTEGER NOT NULL,
	page        INTEGER,
	content     TEXT    NOT NULL,
	token_count INTEGER NOT NULL,
	embedding   BLOB    NOT NULL
);
`

// Store is a durable vector index backed by a SQLite file under the
// vectorstore directory. The database is opened lazily on first use so a
// never-ingested index is a valid (empty) state. A readers-writer lock allows
// concurrent searches while excluding them during a rebuild.
type Store struct {
	dir string

	openOnce sync.Once
	openErr  error
	db       *sql.DB

	mu sync.RWMutex
}

// New creates a store rooted at the given directory. Nothing is opened or
// created until the first read or write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// open lazily creates the directory, opens the database and applies the schema.
func (s *Store) open() error {
	s.openOnce.Do(func() {
		if err := os.MkdirAll(s.dir, 0o700); err != nil {
			s.openErr = fmt.Errorf("create vectorstore dir: %w", err)
			return
		}

		path := filepath.Join(s.dir, dbFileName)
		db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err != nil {
			s.openErr = fmt.Errorf("open index database: %w", err)
			return
		}
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			s.openErr = fmt.Errorf("apply index schema: %w", err)
			return
		}
		s.db = db
	})
	return s.openErr
}

// Close closes the database if it was ever opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Write replaces the persisted index with the given entries in one
// transaction (replace-on-reprocess). The embedding model identifier is
// stored alongside so a later query with a different model can be rejected.
// The write is durable once Write returns.
func (s *Store) Write(ctx context.Context, model string, entries []domain.IndexEntry) error {
	if err := s.open(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index rebuild: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear previous entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('embedding_model', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, model); err != nil {
		return fmt.Errorf("store embedding model: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (doc_id, chunk_index, page, content, token_count, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var page sql.NullInt64
		if e.Chunk.HasPage {
			page = sql.NullInt64{Int64: int64(e.Chunk.Page), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			e.Chunk.DocumentID, e.Chunk.Index, page,
			e.Chunk.Text, e.Chunk.TokenCount, vectorToBytes(e.Vector)); err != nil {
			return fmt.Errorf("insert entry %s/%d: %w", e.Chunk.DocumentID, e.Chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index rebuild: %w", err)
	}
	return nil
}

// Search returns the k entries nearest to the query vector by cosine
// similarity, descending. Ties keep insertion order, so results are
// deterministic. An empty or never-written index yields an empty result.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := s.open(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, chunk_index, page, content, token_count, embedding
		FROM entries ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		var (
			chunk domain.Chunk
			page  sql.NullInt64
			blob  []byte
		)
		if err := rows.Scan(&chunk.DocumentID, &chunk.Index, &page,
			&chunk.Text, &chunk.TokenCount, &blob); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if page.Valid {
			chunk.Page = int(page.Int64)
			chunk.HasPage = true
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(vector, bytesToVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	// Stable sort keeps insertion order between equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// IsEmpty reports whether the index holds no entries.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	if err := s.open(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return false, fmt.Errorf("count entries: %w", err)
	}
	return n == 0, nil
}

// Model returns the embedding model the index was built with, or "" when the
// index has never been written.
func (s *Store) Model(ctx context.Context) (string, error) {
	if err := s.open(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var model string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'embedding_model'`).Scan(&model)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read embedding model: %w", err)
	}
	return model, nil
}

// cosineSimilarity computes cos(a, b) with float64 accumulation. Returns 0
// for zero-norm or mismatched vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// vectorToBytes serializes a []float32 as little-endian bytes for storage.
func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToVector deserializes a stored embedding blob.
func bytesToVector(data []byte) []float32 {
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
