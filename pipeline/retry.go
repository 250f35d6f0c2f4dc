package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/docshelf"
)

var _ docshelf.Embedder = (*RetryEmbedder)(nil)

// DefaultRetryDelays returns the backoff delays between embedding
// attempts: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryEmbedder retries failed embedding calls with backoff. It makes
// len(Delays)+1 attempts in total. Cancellation and invalid input are
// never retried.
type RetryEmbedder struct {
	Embedder docshelf.Embedder
	Delays   []time.Duration
	Logger   *slog.Logger
}

// NewRetryEmbedder wraps embedder with the default delays.
func NewRetryEmbedder(embedder docshelf.Embedder, logger *slog.Logger) *RetryEmbedder {
	return &RetryEmbedder{
		Embedder: embedder,
		Delays:   DefaultRetryDelays(),
		Logger:   logger,
	}
}

// Embed delegates, retrying transient failures.
func (e *RetryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	attempts := len(e.Delays) + 1

	var lastErr error
	for attempt := range attempts {
		vecs, err := e.Embedder.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err

		if attempt == attempts-1 || !retryable(err) {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if e.Logger != nil {
			e.Logger.Warn("embed retry", "texts", len(texts), "attempt", attempt+2, "err", err)
		}

		timer := time.NewTimer(e.Delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return docshelf.ErrorCode(err) != docshelf.EINVALID
}
