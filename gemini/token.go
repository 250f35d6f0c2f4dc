package gemini

import (
	"github.com/fwojciec/docshelf"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// DefaultTokenizerModel is the model whose vocabulary is used for counting.
const DefaultTokenizerModel = "gemini-2.0-flash"

var _ docshelf.TokenEstimator = (*TokenEstimator)(nil)

// TokenEstimator counts tokens with the local Gemini tokenizer. Text the
// tokenizer rejects falls back to the character heuristic.
type TokenEstimator struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenEstimator creates a TokenEstimator for the given model. The
// tokenizer vocabulary is downloaded on first use and cached.
func NewTokenEstimator(model string) (*TokenEstimator, error) {
	if model == "" {
		model = DefaultTokenizerModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, err
	}
	return &TokenEstimator{tok: tok}, nil
}

// EstimateTokens returns the number of tokens in text.
func (e *TokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	result, err := e.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, "user")}, nil)
	if err != nil {
		return docshelf.EstimateTokens(text)
	}
	return int(result.TotalTokens)
}
