package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

// flakyService fails a fixed number of times before succeeding.
type flakyService struct {
	failures int
	calls    int
}

func (f *flakyService) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("upstream 503")
	}
	return []float32{1, 0}, nil
}

func (f *flakyService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, "")
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *flakyService) Dimensions() int { return 2 }
func (f *flakyService) ModelTag() string { return "flaky/v1" }
func (f *flakyService) Close() error { return nil }

func fastConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		RequestsPerSec:  1000,
	}
}

func TestEmbed_RetriesTransientFailures(t *testing.T) {
	inner := &flakyService{failures: 2}
	r := NewResilient(inner, fastConfig())

	vec, err := r.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 3, inner.calls)
}

func TestEmbed_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyService{failures: 100}
	r := NewResilient(inner, fastConfig())

	_, err := r.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	// 1 initial attempt + 3 retries
	assert.Equal(t, 4, inner.calls)
}

func TestEmbed_CancellationIsNotRetried(t *testing.T) {
	inner := &flakyService{failures: 100}
	r := NewResilient(inner, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Embed(ctx, "hello")
	require.Error(t, err)
	assert.LessOrEqual(t, inner.calls, 1)
}

func TestEmbed_DeadlineMapsToTimeout(t *testing.T) {
	inner := &flakyService{failures: 100}
	r := NewResilient(inner, fastConfig())

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := r.Embed(ctx, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestPassthroughs(t *testing.T) {
	r := NewResilient(&flakyService{}, ResilienceConfig{})
	assert.Equal(t, 2, r.Dimensions())
	assert.Equal(t, "flaky/v1", r.ModelTag())
	assert.NoError(t, r.Close())
}

func TestEmbedBatch_Succeeds(t *testing.T) {
	inner := &flakyService{}
	r := NewResilient(inner, fastConfig())

	vecs, err := r.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}
