package domain

import "time"

// FileError records a per-file or per-chunk failure during ingestion.
// Batch errors are collected and reported at the end of the run rather
// than aborting it.
type FileError struct {
	// Path is the offending file (or chunk ID for embedding failures).
	Path string

	// Err is the underlying failure.
	Err error
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// DocumentsLoaded is the number of documents read from disk.
	DocumentsLoaded int

	// DocumentsSkipped is the number of unchanged documents that were
	// not re-embedded.
	DocumentsSkipped int

	// ChunksIndexed is the number of chunks written to the index.
	ChunksIndexed int

	// ReadErrors are files that could not be read (skipped).
	ReadErrors []FileError

	// EmbeddingErrors are chunks whose embedding failed after retries
	// (skipped in lenient mode).
	EmbeddingErrors []FileError

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether the run recorded any errors.
func (r IngestReport) Failed() bool {
	return len(r.ReadErrors) > 0 || len(r.EmbeddingErrors) > 0
}
