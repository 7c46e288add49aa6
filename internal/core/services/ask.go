package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
	"github.com/helion-labs/devdocs-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.Answerer = (*AskService)(nil)

// Prompt composition bounds.
const (
	// maxContextChars caps the total excerpt text placed in the prompt.
	maxContextChars = 8000

	// defaultAnswerTokens bounds the generated answer length.
	defaultAnswerTokens = 1024
)

// AskService answers natural-language questions against the index.
type AskService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	cfg      domain.Config
}

// NewAskService creates the question-answering service.
func NewAskService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	cfg domain.Config,
) *AskService {
	return &AskService{
		embedder: embedder,
		index:    index,
		llm:      llm,
		cfg:      cfg,
	}
}

// Answer implements driving.Answerer.
func (s *AskService) Answer(
	ctx context.Context,
	question string,
	opts driving.AskOptions,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	minScore := opts.MinScore
	if minScore < 0 {
		minScore = s.cfg.MinScore
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// The question must be embedded with the same model the index was
	// built with, or similarity scores are meaningless
	indexTag, err := s.index.ModelTag(ctx)
	if err != nil {
		return nil, fmt.Errorf("index model tag: %w", err)
	}
	if indexTag != "" && indexTag != s.embedder.ModelTag() {
		return nil, fmt.Errorf("%w: index built with %q, configured model is %q (re-run ingest)",
			domain.ErrModelVersionMismatch, indexTag, s.embedder.ModelTag())
	}

	qvec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := s.index.Search(ctx, qvec, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	results = applyFloor(results, minScore)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no indexed content matches the question", domain.ErrNoResults)
	}

	logger.Debug("Retrieved %d chunk(s), best score %.4f", len(results), results[0].Score)

	prompt := composePrompt(question, results)
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens: defaultAnswerTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: answer generation exceeded its bound: %w", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	answer := &domain.Answer{
		Text:    strings.TrimSpace(text),
		Model:   s.llm.ModelName(),
		Sources: make([]domain.SourceRef, 0, len(results)),
	}
	for _, r := range results {
		answer.Sources = append(answer.Sources, domain.SourceRef{
			ChunkID:     r.Chunk.ID,
			DocumentID:  r.Chunk.DocumentID,
			HeadingPath: r.Chunk.HeadingPath,
			Score:       r.Score,
		})
	}
	return answer, nil
}

// applyFloor drops results scoring below the relevance floor.
// Results arrive sorted, so the cut is a prefix.
func applyFloor(results []domain.SearchResult, minScore float64) []domain.SearchResult {
	if minScore == 0 {
		return results
	}
	kept := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}

// composePrompt builds the grounded question prompt from retrieved
// excerpts, capped at maxContextChars of context.
func composePrompt(question string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("You are a documentation assistant. Answer the question using only the excerpts below.\n")
	b.WriteString("If the excerpts do not contain the answer, say so. Cite excerpt numbers in your answer.\n\n")

	used := 0
	for i, r := range results {
		excerpt := r.Chunk.Content
		if used+len(excerpt) > maxContextChars {
			remaining := maxContextChars - used
			if remaining <= 0 {
				break
			}
			excerpt = excerpt[:remaining]
		}
		used += len(excerpt)

		fmt.Fprintf(&b, "--- Excerpt %d (from %s", i+1, r.Chunk.DocumentID)
		if r.Chunk.HeadingPath != "" {
			fmt.Fprintf(&b, ", section %q", r.Chunk.HeadingPath)
		}
		b.WriteString(") ---\n")
		b.WriteString(excerpt)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}
