package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
	"github.com/helion-labs/devdocs-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs the batch pipeline: load, chunk, embed, index.
//
// Documents are processed one at a time in loader order. Within a
// document, embedding requests run concurrently up to the configured
// bound, but all index writes happen on the coordinating goroutine so
// the index only ever sees a single writer.
type IngestService struct {
	loader   driven.CorpusLoader
	splitter driven.Splitter
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	cfg      domain.Config
}

// NewIngestService creates the ingestion service.
func NewIngestService(
	loader driven.CorpusLoader,
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg domain.Config,
) *IngestService {
	return &IngestService{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
	}
}

// Ingest runs a full ingestion over the given corpus roots.
func (s *IngestService) Ingest(
	ctx context.Context,
	roots []string,
	opts driving.IngestOptions,
) (*domain.IngestReport, error) {
	report := &domain.IngestReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	logger.Info("Starting ingestion run %s over %d root(s)", report.RunID, len(roots))

	// A derived context releases the loader goroutine if the run aborts
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	docsCh, errsCh := s.loader.Load(ctx, roots)

	for {
		select {
		case <-ctx.Done():
			report.FinishedAt = time.Now().UTC()
			return report, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			// Unreadable files are reported and skipped, never fatal
			logger.Warn("Read failure: %v", err)
			report.ReadErrors = append(report.ReadErrors, domain.FileError{Err: err})

		case doc, ok := <-docsCh:
			if !ok {
				// Drain any trailing read errors before finishing
				if errsCh != nil {
					for err := range errsCh {
						logger.Warn("Read failure: %v", err)
						report.ReadErrors = append(report.ReadErrors, domain.FileError{Err: err})
					}
				}
				report.FinishedAt = time.Now().UTC()
				logger.Info("Ingestion run %s complete: %d loaded, %d skipped, %d chunks, %d errors",
					report.RunID, report.DocumentsLoaded, report.DocumentsSkipped,
					report.ChunksIndexed, len(report.ReadErrors)+len(report.EmbeddingErrors))
				return report, nil
			}

			report.DocumentsLoaded++
			if err := s.ingestOne(ctx, doc, opts.Force, report); err != nil {
				report.FinishedAt = time.Now().UTC()
				return report, fmt.Errorf("ingest %s: %w", doc.ID, err)
			}
		}
	}
}

// IngestDocument (re)ingests a single document, replacing any prior
// entries for the same document ID. Used by the watch loop.
func (s *IngestService) IngestDocument(ctx context.Context, doc domain.Document) (int, error) {
	report := &domain.IngestReport{}
	if err := s.ingestOne(ctx, doc, true, report); err != nil {
		return 0, fmt.Errorf("ingest %s: %w", doc.ID, err)
	}
	for _, fe := range report.EmbeddingErrors {
		logger.Warn("Skipped chunk %s: %v", fe.Path, fe.Err)
	}
	return report.ChunksIndexed, nil
}

// ingestOne runs the chunk/embed/index pipeline for one document.
// Returns a non-nil error only for run-aborting failures: cancellation,
// a strict-mode embedding failure, or an index write failure.
func (s *IngestService) ingestOne(
	ctx context.Context,
	doc domain.Document,
	force bool,
	report *domain.IngestReport,
) error {
	hash := doc.ContentHash()

	if !force {
		stored, err := s.index.DocumentHash(ctx, doc.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document hash: %w", err)
		}
		if err == nil && stored == hash {
			logger.Debug("Unchanged, skipping %s", doc.ID)
			report.DocumentsSkipped++
			return nil
		}
	}

	chunks := s.splitter.Split(doc)
	logger.Debug("Processing %s: %d chunk(s)", doc.ID, len(chunks))

	failed, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}
	report.EmbeddingErrors = append(report.EmbeddingErrors, failed...)

	// Replace the document wholesale so stale chunks from a previous,
	// longer version cannot survive
	if err := s.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete previous chunks: %w", err)
	}

	modelTag := s.embedder.ModelTag()
	for _, chunk := range chunks {
		if chunk.Embedding == nil {
			continue // embedding failed, recorded above
		}
		if err := s.index.Upsert(ctx, chunk, modelTag); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
		}
		report.ChunksIndexed++
	}

	if err := s.index.SetDocumentHash(ctx, doc.ID, hash); err != nil {
		return fmt.Errorf("record document hash: %w", err)
	}
	return nil
}

// embedChunks fills in chunk embeddings concurrently, bounded by the
// configured concurrency. In lenient mode failed chunks are returned
// for the report and left without an embedding; in strict mode (or on
// cancellation) the first failure aborts the group.
func (s *IngestService) embedChunks(
	ctx context.Context,
	chunks []domain.Chunk,
) ([]domain.FileError, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	var mu sync.Mutex
	var failed []domain.FileError

	for i := range chunks {
		i := i
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, chunks[i].Content)
			if err != nil {
				// Cancellation always aborts, regardless of mode
				if s.cfg.StrictEmbedding || gctx.Err() != nil || errors.Is(err, domain.ErrTimeout) {
					return fmt.Errorf("embed chunk %s: %w", chunks[i].ID, err)
				}
				logger.Warn("Embedding failed for %s: %v", chunks[i].ID, err)
				mu.Lock()
				failed = append(failed, domain.FileError{Path: chunks[i].ID, Err: err})
				mu.Unlock()
				return nil
			}
			chunks[i].Embedding = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return failed, nil
}
