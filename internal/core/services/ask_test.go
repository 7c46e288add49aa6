package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/index/memory"
	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
)

// vecEmbedder returns canned vectors per input text.
type vecEmbedder struct {
	tag      string
	vecs     map[string][]float32
	fallback []float32
}

func (e *vecEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vecs[text]; ok {
		return v, nil
	}
	return e.fallback, nil
}

func (e *vecEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *vecEmbedder) Dimensions() int { return 3 }
func (e *vecEmbedder) ModelTag() string { return e.tag }
func (e *vecEmbedder) Close() error { return nil }

// captureLLM records the prompt and replies with canned text.
type captureLLM struct {
	prompt string
	reply  string
	err    error
}

func (l *captureLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	l.prompt = prompt
	return l.reply, nil
}

func (l *captureLLM) ModelName() string { return "test-llm" }
func (l *captureLLM) Close() error { return nil }

// blockingLLM waits until the context expires.
type blockingLLM struct{}

func (l *blockingLLM) Generate(ctx context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (l *blockingLLM) ModelName() string { return "blocking-llm" }
func (l *blockingLLM) Close() error { return nil }

// seedIndex loads two chunks with orthogonal embeddings.
func seedIndex(t *testing.T, tag string) *memory.Index {
	t.Helper()
	idx := memory.New()

	chunks := []domain.Chunk{
		{
			ID:          domain.ChunkID("guides/install.md", 0),
			DocumentID:  "guides/install.md",
			Content:     "Run the installer with --prefix to choose the target directory.",
			Position:    0,
			HeadingPath: "Installation > Prerequisites",
			Embedding:   []float32{1, 0, 0},
		},
		{
			ID:         domain.ChunkID("guides/upgrade.md", 0),
			DocumentID: "guides/upgrade.md",
			Content:    "Back up the data directory before upgrading across major versions.",
			Position:   0,
			Embedding:  []float32{0, 1, 0},
		},
	}
	for _, c := range chunks {
		require.NoError(t, idx.Upsert(context.Background(), c, tag))
	}
	return idx
}

func newAskService(idx *memory.Index, emb driven.EmbeddingService, llm driven.LLMService) *AskService {
	cfg := domain.DefaultConfig()
	cfg.TopK = 2
	return NewAskService(emb, idx, llm, cfg)
}

func TestAnswer_GroundedAnswerWithSources(t *testing.T) {
	emb := &vecEmbedder{
		tag:      "stub/v1",
		vecs:     map[string][]float32{"how do I install?": {1, 0.1, 0}},
		fallback: []float32{0, 0, 1},
	}
	idx := seedIndex(t, "stub/v1")
	llm := &captureLLM{reply: "Use the --prefix flag."}
	svc := newAskService(idx, emb, llm)

	answer, err := svc.Answer(context.Background(), "how do I install?", driving.AskOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Use the --prefix flag.", answer.Text)
	assert.Equal(t, "test-llm", answer.Model)
	require.Len(t, answer.Sources, 2)

	// Most similar chunk first
	assert.Equal(t, "guides/install.md#0000", answer.Sources[0].ChunkID)
	assert.Equal(t, "guides/install.md", answer.Sources[0].DocumentID)
	assert.Equal(t, "Installation > Prerequisites", answer.Sources[0].HeadingPath)
	assert.Greater(t, answer.Sources[0].Score, answer.Sources[1].Score)

	// The prompt grounds the model in the retrieved excerpts
	assert.Contains(t, llm.prompt, "Run the installer with --prefix")
	assert.Contains(t, llm.prompt, "guides/install.md")
	assert.Contains(t, llm.prompt, "Installation > Prerequisites")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(llm.prompt), "Question: how do I install?"))
}

func TestAnswer_EmptyIndexReturnsNoResults(t *testing.T) {
	emb := &vecEmbedder{tag: "stub/v1", fallback: []float32{1, 0, 0}}
	svc := newAskService(memory.New(), emb, &captureLLM{reply: "x"})

	_, err := svc.Answer(context.Background(), "anything", driving.AskOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestAnswer_RelevanceFloor(t *testing.T) {
	emb := &vecEmbedder{
		tag:      "stub/v1",
		vecs:     map[string][]float32{"install": {1, 0.1, 0}},
		fallback: []float32{0, 0, 1},
	}
	idx := seedIndex(t, "stub/v1")

	t.Run("floor keeps only close matches", func(t *testing.T) {
		llm := &captureLLM{reply: "ok"}
		svc := newAskService(idx, emb, llm)

		answer, err := svc.Answer(context.Background(), "install", driving.AskOptions{MinScore: 0.5})
		require.NoError(t, err)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, "guides/install.md", answer.Sources[0].DocumentID)
	})

	t.Run("floor above every score yields no results", func(t *testing.T) {
		svc := newAskService(idx, emb, &captureLLM{reply: "ok"})

		_, err := svc.Answer(context.Background(), "install", driving.AskOptions{MinScore: 0.9999})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoResults)
	})
}

func TestAnswer_ModelVersionMismatch(t *testing.T) {
	emb := &vecEmbedder{tag: "stub/v2", fallback: []float32{1, 0, 0}}
	idx := seedIndex(t, "stub/v1")
	svc := newAskService(idx, emb, &captureLLM{reply: "x"})

	_, err := svc.Answer(context.Background(), "anything", driving.AskOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelVersionMismatch)
}

func TestAnswer_EmptyQuestionRejected(t *testing.T) {
	emb := &vecEmbedder{tag: "stub/v1", fallback: []float32{1, 0, 0}}
	svc := newAskService(memory.New(), emb, &captureLLM{reply: "x"})

	_, err := svc.Answer(context.Background(), "   ", driving.AskOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_TimeoutMapsToDomainError(t *testing.T) {
	emb := &vecEmbedder{tag: "stub/v1", fallback: []float32{1, 0, 0}}
	idx := seedIndex(t, "stub/v1")
	svc := newAskService(idx, emb, &blockingLLM{})

	_, err := svc.Answer(context.Background(), "anything", driving.AskOptions{
		Timeout: 10 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestAnswer_LLMFailure(t *testing.T) {
	emb := &vecEmbedder{tag: "stub/v1", fallback: []float32{1, 0, 0}}
	idx := seedIndex(t, "stub/v1")
	svc := newAskService(idx, emb, &captureLLM{err: errors.New("connection refused")})

	_, err := svc.Answer(context.Background(), "anything", driving.AskOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAnswer_TopKOverride(t *testing.T) {
	emb := &vecEmbedder{tag: "stub/v1", fallback: []float32{1, 0.5, 0}}
	idx := seedIndex(t, "stub/v1")
	llm := &captureLLM{reply: "ok"}
	svc := newAskService(idx, emb, llm)

	answer, err := svc.Answer(context.Background(), "anything", driving.AskOptions{TopK: 1})
	require.NoError(t, err)
	assert.Len(t, answer.Sources, 1)
}
