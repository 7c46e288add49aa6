package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Document represents a single documentation file loaded from disk.
// Its ID is the path relative to the corpus root, which is stable
// across ingestion runs.
type Document struct {
	// ID is the unique identifier for the document (relative file path).
	ID string

	// Path is the absolute location on disk.
	Path string

	// Title is the human-readable title, taken from the first H1
	// heading or derived from the filename.
	Title string

	// Content is the full Markdown text.
	Content string

	// Category is derived from the top-level folder under the corpus
	// root (e.g. "guides", "troubleshooting").
	Category string

	// ModifiedAt is the file's last modification time.
	ModifiedAt time.Time
}

// ContentHash returns a stable hash of the document text, used to skip
// re-embedding documents that have not changed between ingestion runs.
func (d Document) ContentHash() string {
	sum := sha256.Sum256([]byte(d.Content))
	return hex.EncodeToString(sum[:])
}

// Chunk represents an embeddable unit within a document.
// Documents are split into overlapping chunks for granular retrieval.
// Chunks are never mutated after creation; re-ingesting a document
// discards and regenerates all of its chunks.
type Chunk struct {
	// ID is the unique identifier for the chunk. It is derived
	// deterministically from the document ID and position so that
	// re-ingesting an unchanged document reproduces identical chunks.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	// Index ordering within a document always follows Position.
	Position int

	// HeadingPath is the path of section headings enclosing the start
	// of the chunk (e.g. "Installation > Prerequisites").
	HeadingPath string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ChunkID builds the deterministic chunk identifier for a document
// position. All chunk creation goes through this so IDs stay stable.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s#%04d", documentID, position)
}

// SearchResult represents a single similarity search hit.
type SearchResult struct {
	// Chunk is the matched chunk, including its stored text.
	Chunk Chunk

	// Score is the cosine similarity to the query vector (-1..1).
	Score float64
}
