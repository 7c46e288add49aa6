package driving

import (
	"context"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

// IngestOptions tunes a single ingestion run.
type IngestOptions struct {
	// Force re-embeds documents even when their content is unchanged.
	Force bool
}

// Ingestor runs the batch pipeline: load documents, chunk, embed,
// and write index entries.
type Ingestor interface {
	// Ingest runs a full ingestion over the configured corpus roots.
	// Per-file and per-chunk failures are collected in the report;
	// a non-nil error means the run itself aborted (strict mode,
	// cancellation, or an index write failure).
	Ingest(ctx context.Context, roots []string, opts IngestOptions) (*domain.IngestReport, error)

	// IngestDocument (re)ingests a single document, replacing any prior
	// entries for the same document ID. Used by the watch loop.
	IngestDocument(ctx context.Context, doc domain.Document) (int, error)
}
