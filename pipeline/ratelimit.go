package pipeline

import (
	"context"

	"github.com/fwojciec/docshelf"
	"golang.org/x/time/rate"
)

var _ docshelf.Embedder = (*LimitedEmbedder)(nil)

// LimitedEmbedder paces calls to an embedding provider with a token
// bucket, one token per request.
type LimitedEmbedder struct {
	Embedder docshelf.Embedder
	limiter  *rate.Limiter
}

// NewLimitedEmbedder allows rps requests per second with the given burst.
// A non-positive rps disables pacing.
func NewLimitedEmbedder(embedder docshelf.Embedder, rps float64, burst int) *LimitedEmbedder {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &LimitedEmbedder{
		Embedder: embedder,
		limiter:  rate.NewLimiter(limit, max(burst, 1)),
	}
}

// Embed waits for a token, then delegates.
func (e *LimitedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.Embedder.Embed(ctx, texts)
}
