// Package memory provides an in-memory vector index.
// It mirrors the SQLite index's semantics and is used in tests and as
// a throwaway index for one-off runs.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force cosine similarity index held in memory.
type Index struct {
	mu         sync.RWMutex
	entries    []domain.Chunk // insertion order; replaced in place on upsert
	byID       map[string]int
	docHashes  map[string]string
	modelTag   string
	dimensions int
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{
		byID:      make(map[string]int),
		docHashes: make(map[string]string),
	}
}

// Upsert inserts or replaces the entry for chunk.ID.
// Replacement keeps the chunk's original insertion position, matching
// the SQLite index's rowid behaviour.
func (x *Index) Upsert(_ context.Context, chunk domain.Chunk, modelTag string) error {
	if chunk.ID == "" || chunk.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunk.ID)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.modelTag == "" {
		x.modelTag = modelTag
		x.dimensions = len(chunk.Embedding)
	} else {
		if x.modelTag != modelTag {
			return fmt.Errorf("%w: index built with %q, got %q (re-ingest required)",
				domain.ErrModelVersionMismatch, x.modelTag, modelTag)
		}
		if x.dimensions != len(chunk.Embedding) {
			return fmt.Errorf("%w: index has %d dimensions, got %d (re-ingest required)",
				domain.ErrModelVersionMismatch, x.dimensions, len(chunk.Embedding))
		}
	}

	if i, ok := x.byID[chunk.ID]; ok {
		x.entries[i] = chunk
		return nil
	}
	x.byID[chunk.ID] = len(x.entries)
	x.entries = append(x.entries, chunk)
	return nil
}

// DeleteByDocument removes every entry belonging to a document.
func (x *Index) DeleteByDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.entries[:0]
	for _, e := range x.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	x.entries = kept

	x.byID = make(map[string]int, len(x.entries))
	for i, e := range x.entries {
		x.byID[e.ID] = i
	}
	delete(x.docHashes, documentID)
	return nil
}

// Search returns the k nearest entries by cosine similarity.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.dimensions > 0 && len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrModelVersionMismatch, len(query), x.dimensions)
	}

	results := make([]domain.SearchResult, 0, len(x.entries))
	for _, e := range x.entries {
		results = append(results, domain.SearchResult{
			Chunk: e,
			Score: cosineSimilarity(query, e.Embedding),
		})
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
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.modelTag, nil
}

// Stats returns index statistics.
func (x *Index) Stats(_ context.Context) (driven.IndexStats, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	docs := make(map[string]bool)
	for _, e := range x.entries {
		docs[e.DocumentID] = true
	}
	return driven.IndexStats{
		Documents:  len(docs),
		Chunks:     len(x.entries),
		ModelTag:   x.modelTag,
		Dimensions: x.dimensions,
	}, nil
}

// DocumentHash returns the stored content hash for a document.
func (x *Index) DocumentHash(_ context.Context, documentID string) (string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	hash, ok := x.docHashes[documentID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return hash, nil
}

// SetDocumentHash records a document's content hash.
func (x *Index) SetDocumentHash(_ context.Context, documentID, hash string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docHashes[documentID] = hash
	return nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
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
