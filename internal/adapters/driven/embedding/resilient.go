// Package embedding provides shared wrappers for embedding service adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/logger"
)

// Ensure Resilient implements the interface.
var _ driven.EmbeddingService = (*Resilient)(nil)

// Default resilience parameters.
const (
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 10 * time.Second
	DefaultRequestsPerSec  = 5
)

// ResilienceConfig tunes the retry and throttle behaviour.
type ResilienceConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay.
	MaxInterval time.Duration

	// RequestsPerSec throttles outbound embedding requests to respect
	// the provider's rate limit. Zero means DefaultRequestsPerSec.
	RequestsPerSec float64
}

// Resilient decorates an EmbeddingService with proactive rate limiting
// and bounded exponential-backoff retries. Failures that survive the
// retries are wrapped in domain.ErrEmbeddingFailed; deadline overruns
// are wrapped in domain.ErrTimeout.
type Resilient struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
	cfg     ResilienceConfig
}

// NewResilient wraps an embedding service.
func NewResilient(inner driven.EmbeddingService, cfg ResilienceConfig) *Resilient {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = DefaultRequestsPerSec
	}

	return &Resilient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		cfg:     cfg,
	}
}

// Embed generates an embedding with throttling and retries.
func (r *Resilient) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := r.do(ctx, func() error {
		var err error
		result, err = r.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EmbedBatch generates embeddings with throttling and retries.
// The whole batch is retried as a unit.
func (r *Resilient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := r.do(ctx, func() error {
		var err error
		result, err = r.inner.EmbedBatch(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// do runs op behind the rate limiter with exponential backoff.
func (r *Resilient) do(ctx context.Context, op func() error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return wrapCtxErr(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.cfg.InitialInterval
	policy.MaxInterval = r.cfg.MaxInterval

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		// Cancellation is permanent, not a service hiccup
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		logger.Warn("Embedding attempt %d failed: %v", attempt, err)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.cfg.MaxRetries), ctx))

	if err != nil {
		if ctxErr := wrapCtxErr(err); ctxErr != err {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}
	return nil
}

// wrapCtxErr maps context errors onto the domain taxonomy.
func wrapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

// Dimensions returns the inner service's vector size.
func (r *Resilient) Dimensions() int {
	return r.inner.Dimensions()
}

// ModelTag returns the inner service's model tag.
func (r *Resilient) ModelTag() string {
	return r.inner.ModelTag()
}

// Close releases the inner service.
func (r *Resilient) Close() error {
	return r.inner.Close()
}
