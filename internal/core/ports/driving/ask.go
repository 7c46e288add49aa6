package driving

import (
	"context"
	"time"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

// AskOptions tunes a single question.
type AskOptions struct {
	// TopK is the number of chunks to retrieve (0 = configured default).
	TopK int

	// MinScore drops results below this similarity before truncation.
	// Negative means "use the configured floor".
	MinScore float64

	// Timeout bounds the language model call. Zero means no explicit
	// bound beyond the caller's context.
	Timeout time.Duration
}

// Answerer answers natural-language questions against the index.
type Answerer interface {
	// Answer embeds the question, retrieves the top-K most similar
	// chunks and asks the language model to compose an answer from
	// them. Returns domain.ErrNoResults when the index is empty or no
	// chunk clears the relevance floor, and domain.ErrTimeout when the
	// model call exceeds its bound.
	Answer(ctx context.Context, question string, opts AskOptions) (*domain.Answer, error)
}
