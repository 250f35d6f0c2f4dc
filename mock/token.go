package mock

import "github.com/fwojciec/docshelf"

var _ docshelf.TokenEstimator = (*TokenEstimator)(nil)

// TokenEstimator is a mock implementation of docshelf.TokenEstimator.
type TokenEstimator struct {
	EstimateTokensFn func(text string) int
}

func (e *TokenEstimator) EstimateTokens(text string) int {
	return e.EstimateTokensFn(text)
}
