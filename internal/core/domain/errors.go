package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrReadFailed indicates a source file could not be read.
	// Ingestion skips the file and records the failure in the run report.
	ErrReadFailed = errors.New("read failed")

	// ErrEmbeddingFailed indicates the embedding service failed after
	// retries were exhausted. In lenient mode the chunk is skipped; in
	// strict mode the whole ingestion run aborts.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrIndexCorrupted indicates the persisted index failed to load or
	// validate. Fatal - the index must never silently serve partial results.
	ErrIndexCorrupted = errors.New("index corrupted")

	// ErrModelVersionMismatch indicates the embedding model at query or
	// upsert time differs from the one the index was built with. Fatal;
	// the corpus must be re-ingested, never silently re-embedded.
	ErrModelVersionMismatch = errors.New("embedding model version mismatch")

	// ErrNoResults indicates the index is empty or no chunk scored above
	// the relevance floor. Callers receive this instead of a fabricated answer.
	ErrNoResults = errors.New("no results")

	// ErrTimeout indicates an embedding or language model call exceeded
	// the caller's deadline.
	ErrTimeout = errors.New("timed out")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or cannot be reached at all.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the language model call failed or the
	// service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
