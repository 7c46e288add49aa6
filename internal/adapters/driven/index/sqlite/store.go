// Package sqlite provides a persistent vector index backed by SQLite.
//
// Vectors are stored as little-endian float32 blobs alongside chunk
// text and metadata. Similarity search is a brute-force cosine scan,
// which is plenty for a documentation corpus of a few thousand chunks.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/index/sqlite/migrations"
	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Meta keys stored in index_meta.
const (
	metaModelTag   = "model_tag"
	metaDimensions = "dimensions"
)

// Index is a SQLite-backed vector index.
//
// Writers are serialised by mu (single-writer discipline); reads go
// straight to the database and see the last committed state, which WAL
// mode allows concurrently with a writer.
type Index struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens (or creates) the index database in dataDir.
// If dataDir is empty, defaults to ~/.devdocs/data.
// A database that fails validation is reported as domain.ErrIndexCorrupted.
func Open(dataDir string) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".devdocs", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for concurrent reads during ingestion
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{
		db:   db,
		path: dbPath,
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := idx.validate(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// Path returns the database file path.
func (x *Index) Path() string {
	return x.path
}

// migrate runs all pending migrations.
func (x *Index) migrate(fsys embed.FS) error {
	_, err := x.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := x.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
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
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := x.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := x.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// validate checks that every stored vector matches the recorded
// dimensionality. A mismatch means the index must not serve queries.
func (x *Index) validate() error {
	dims, err := x.metaInt(metaDimensions)
	if err != nil {
		return err
	}
	if dims == 0 {
		return nil // Fresh index
	}

	var bad int
	row := x.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE LENGTH(embedding) != ?", dims*4)
	if err := row.Scan(&bad); err != nil {
		return fmt.Errorf("validating index: %w", err)
	}
	if bad > 0 {
		return fmt.Errorf("%w: %d entries with wrong vector size (expected %d dimensions)",
			domain.ErrIndexCorrupted, bad, dims)
	}
	return nil
}

// Upsert inserts or replaces the entry for chunk.ID.
func (x *Index) Upsert(ctx context.Context, chunk domain.Chunk, modelTag string) error {
	if chunk.ID == "" || chunk.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunk.ID)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.checkModel(modelTag, len(chunk.Embedding)); err != nil {
		return err
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling chunk metadata: %w", err)
	}

	_, err = x.db.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, position, heading_path, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			heading_path = excluded.heading_path,
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`, chunk.ID, chunk.DocumentID, chunk.Position, chunk.HeadingPath,
		chunk.Content, float32SliceToBytes(chunk.Embedding), string(metadataJSON))

	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// checkModel pins the index to one embedding model. The first upsert
// records the model tag and dimensionality; later upserts must match.
// Caller must hold mu.
func (x *Index) checkModel(modelTag string, dims int) error {
	storedTag, err := x.metaString(metaModelTag)
	if err != nil {
		return err
	}
	storedDims, err := x.metaInt(metaDimensions)
	if err != nil {
		return err
	}

	if storedTag == "" {
		if _, err := x.db.Exec(`
			INSERT INTO index_meta (key, value) VALUES (?, ?), (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, metaModelTag, modelTag, metaDimensions, strconv.Itoa(dims)); err != nil {
			return fmt.Errorf("recording model tag: %w", err)
		}
		return nil
	}

	if storedTag != modelTag {
		return fmt.Errorf("%w: index built with %q, got %q (re-ingest required)",
			domain.ErrModelVersionMismatch, storedTag, modelTag)
	}
	if storedDims != dims {
		return fmt.Errorf("%w: index has %d dimensions, got %d (re-ingest required)",
			domain.ErrModelVersionMismatch, storedDims, dims)
	}
	return nil
}

// DeleteByDocument removes every entry belonging to a document.
func (x *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, err := x.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := x.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return fmt.Errorf("deleting document record: %w", err)
	}
	return nil
}

// Search scans all entries and returns the k most similar, strictly
// descending by cosine similarity, ties broken by insertion order
// (SQLite rowid, which survives upserts).
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	dims, err := x.metaInt(metaDimensions)
	if err != nil {
		return nil, err
	}
	if dims > 0 && len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrModelVersionMismatch, len(query), dims)
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT id, document_id, position, heading_path, content, embedding, metadata
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
			&chunk.HeadingPath, &chunk.Content, &embeddingBlob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}

		results = append(results, domain.SearchResult{
			Chunk: chunk,
			Score: cosineSimilarity(query, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// Stable sort keeps insertion order for equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// ModelTag returns the embedding model tag the index was built with.
func (x *Index) ModelTag(_ context.Context) (string, error) {
	return x.metaString(metaModelTag)
}

// Stats returns index statistics.
func (x *Index) Stats(ctx context.Context) (driven.IndexStats, error) {
	var stats driven.IndexStats

	row := x.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT document_id), COUNT(*) FROM chunks")
	if err := row.Scan(&stats.Documents, &stats.Chunks); err != nil {
		return stats, fmt.Errorf("counting chunks: %w", err)
	}

	tag, err := x.metaString(metaModelTag)
	if err != nil {
		return stats, err
	}
	dims, err := x.metaInt(metaDimensions)
	if err != nil {
		return stats, err
	}
	stats.ModelTag = tag
	stats.Dimensions = dims
	return stats, nil
}

// DocumentHash returns the stored content hash for a document.
func (x *Index) DocumentHash(ctx context.Context, documentID string) (string, error) {
	var hash string
	row := x.db.QueryRowContext(ctx, "SELECT content_hash FROM documents WHERE id = ?", documentID)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("scanning document hash: %w", err)
	}
	return hash, nil
}

// SetDocumentHash records a document's content hash.
func (x *Index) SetDocumentHash(ctx context.Context, documentID, hash string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	_, err := x.db.ExecContext(ctx, `
		INSERT INTO documents (id, content_hash, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, documentID, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving document hash: %w", err)
	}
	return nil
}

// metaString reads a value from index_meta ("" when absent).
func (x *Index) metaString(key string) (string, error) {
	var value string
	row := x.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("reading index meta %q: %w", key, err)
	}
	return value, nil
}

// metaInt reads an integer value from index_meta (0 when absent).
func (x *Index) metaInt(key string) (int, error) {
	s, err := x.metaString(key)
	if err != nil || s == "" {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: meta %q is not a number: %v", domain.ErrIndexCorrupted, key, err)
	}
	return n, nil
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

// cosineSimilarity computes dot(a,b)/(|a||b|). Zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
