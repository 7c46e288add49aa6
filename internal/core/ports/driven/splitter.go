package driven

import "github.com/helion-labs/devdocs-cli/internal/core/domain"

// Splitter divides a document into embeddable chunks.
//
// Splitting is pure and deterministic: the same document always yields
// the same chunks with the same IDs, which is what makes re-ingestion
// idempotent.
type Splitter interface {
	Split(doc domain.Document) []domain.Chunk
}
