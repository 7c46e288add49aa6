package domain

import "fmt"

// Default configuration values.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultTopK         = 5
	DefaultConcurrency  = 4
	DefaultMinScore     = 0.0
)

// Config enumerates every recognised option. There is no dynamic
// settings bag; unknown keys in the config file are ignored.
type Config struct {
	// Roots are the corpus directories to ingest.
	Roots []string

	// DataDir is where the index database lives.
	// Empty means ~/.devdocs/data.
	DataDir string

	// ChunkSize is the maximum chunk length in characters (L).
	ChunkSize int

	// ChunkOverlap is the overlap between neighbouring chunks in
	// characters (O). Must be smaller than ChunkSize.
	ChunkOverlap int

	// TopK is the default number of chunks retrieved per question.
	TopK int

	// Concurrency bounds the number of in-flight embedding requests
	// during ingestion.
	Concurrency int

	// StrictEmbedding aborts the whole ingestion run on the first
	// embedding failure instead of skipping the chunk.
	StrictEmbedding bool

	// MinScore is the relevance floor for retrieval. Results scoring
	// below it are dropped before truncation to TopK. Zero disables it.
	MinScore float64

	// EmbeddingProvider selects the embedding adapter ("openai", "ollama").
	EmbeddingProvider string

	// EmbeddingModel overrides the provider's default embedding model.
	EmbeddingModel string

	// LLMProvider selects the answer-generation adapter ("openai", "ollama").
	LLMProvider string

	// LLMModel overrides the provider's default chat model.
	LLMModel string
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         DefaultChunkSize,
		ChunkOverlap:      DefaultChunkOverlap,
		TopK:              DefaultTopK,
		Concurrency:       DefaultConcurrency,
		MinScore:          DefaultMinScore,
		EmbeddingProvider: "openai",
		LLMProvider:       "openai",
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidInput)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive", ErrInvalidInput)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidInput)
	}
	if c.MinScore < -1 || c.MinScore > 1 {
		return fmt.Errorf("%w: min score must be within [-1, 1]", ErrInvalidInput)
	}
	return nil
}
