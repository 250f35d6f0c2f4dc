// Package gemini implements docshelf embedding and token estimation with
// the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/docshelf"
	"google.golang.org/genai"
)

// DefaultEmbeddingModel is the embedding model used when none is configured.
const DefaultEmbeddingModel = "gemini-embedding-001"

// MaxBatchSize is the most texts sent in one EmbedContent request.
const MaxBatchSize = 100

// Ensure Embedder implements docshelf.Embedder at compile time.
var _ docshelf.Embedder = (*Embedder)(nil)

// Embedder implements docshelf.Embedder using Gemini embeddings.
type Embedder struct {
	client *genai.Client
	model  string

	// Dimensions truncates vectors to this size when positive.
	Dimensions int32
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *genai.Client, model string) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: model}
}

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, "user"))
		}

		result, err := e.client.Models.EmbedContent(ctx, e.model, contents, e.config())
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings: %w", err)
		}
		if result == nil || len(result.Embeddings) != end-start {
			got := 0
			if result != nil {
				got = len(result.Embeddings)
			}
			return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d texts", got, end-start)
		}

		for _, emb := range result.Embeddings {
			vectors = append(vectors, emb.Values)
		}
	}

	return vectors, nil
}

func (e *Embedder) config() *genai.EmbedContentConfig {
	config := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	if e.Dimensions > 0 {
		dims := e.Dimensions
		config.OutputDimensionality = &dims
	}
	return config
}
