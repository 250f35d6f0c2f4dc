package docshelf

// CharsPerToken is the divisor of the heuristic token estimate.
const CharsPerToken = 4

// TokenEstimator estimates the embedding cost of a piece of text.
// Estimates only need to be stable and cheap, not exact.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// TokenEstimatorFunc adapts a function to TokenEstimator.
type TokenEstimatorFunc func(text string) int

// EstimateTokens calls f(text).
func (f TokenEstimatorFunc) EstimateTokens(text string) int {
	return f(text)
}

// HeuristicEstimator estimates tokens as the byte length divided by
// CharsPerToken, rounded up.
var HeuristicEstimator TokenEstimator = TokenEstimatorFunc(EstimateTokens)

// EstimateTokens returns ceil(len(text) / CharsPerToken).
func EstimateTokens(text string) int {
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}
