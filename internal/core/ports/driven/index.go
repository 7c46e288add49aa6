package driven

import (
	"context"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

// IndexStats summarises the contents of a vector index.
type IndexStats struct {
	// Documents is the number of distinct documents in the index.
	Documents int

	// Chunks is the number of index entries.
	Chunks int

	// ModelTag is the embedding model the index was built with.
	// Empty for a fresh index.
	ModelTag string

	// Dimensions is the stored vector dimensionality (0 for a fresh index).
	Dimensions int
}

// VectorIndex persists chunk embeddings and supports nearest-neighbour
// retrieval by cosine similarity.
//
// The index is the single shared mutable resource of an ingestion run.
// Implementations serialise writers internally; Search never mutates
// the store and may run concurrently with a recently-committed view.
//
// Every stored vector must share one dimensionality and one embedding
// model tag, fixed on the first upsert. Mixing model versions corrupts
// similarity comparisons and is rejected with
// domain.ErrModelVersionMismatch rather than silently tolerated.
type VectorIndex interface {
	// Upsert inserts or replaces the entry for chunk.ID.
	// modelTag identifies the embedding model that produced the vector.
	Upsert(ctx context.Context, chunk domain.Chunk, modelTag string) error

	// DeleteByDocument removes every entry belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Search returns the k nearest entries to the query vector, in
	// strictly descending cosine similarity. Ties break by insertion
	// order (stable). Fewer than k results are returned when the index
	// holds fewer entries; the result is never padded.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error)

	// ModelTag returns the embedding model tag the index was built with,
	// or "" if the index is empty.
	ModelTag(ctx context.Context) (string, error)

	// Stats returns index statistics.
	Stats(ctx context.Context) (IndexStats, error)

	// DocumentHash returns the stored content hash for a document, or
	// domain.ErrNotFound if the document has never been ingested.
	DocumentHash(ctx context.Context, documentID string) (string, error)

	// SetDocumentHash records a document's content hash after its
	// chunks have been written.
	SetDocumentHash(ctx context.Context, documentID, hash string) error

	// Close flushes and releases the index.
	Close() error
}
