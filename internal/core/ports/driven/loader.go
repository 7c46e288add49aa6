package driven

import (
	"context"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

// CorpusLoader streams documents from one or more corpus roots.
//
// Loading is finite and restartable: re-running over unchanged source
// files produces the same documents in the same order. Unreadable files
// are reported on the error channel (wrapped in domain.ErrReadFailed)
// and skipped; they never abort the walk.
type CorpusLoader interface {
	// Load walks the given roots and emits documents.
	// Both channels are closed when the walk finishes or ctx is cancelled.
	Load(ctx context.Context, roots []string) (<-chan domain.Document, <-chan error)
}
