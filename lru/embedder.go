// Package lru caches embedding vectors in memory.
package lru

import (
	"context"

	"github.com/fwojciec/docshelf"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of vectors kept by default.
const DefaultSize = 256

// Ensure CachedEmbedder implements docshelf.Embedder at compile time.
var _ docshelf.Embedder = (*CachedEmbedder)(nil)

// CachedEmbedder wraps an Embedder with an LRU cache keyed by text, so
// repeated search queries skip the provider round trip.
type CachedEmbedder struct {
	inner docshelf.Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder caches up to size vectors from inner.
func NewCachedEmbedder(inner docshelf.Embedder, size int) *CachedEmbedder {
	if size <= 0 {
		size = DefaultSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &CachedEmbedder{inner: inner, cache: cache}
}

// Embed serves cached vectors and sends only the misses to the inner
// embedder, in one call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if vec, ok := c.cache.Get(text); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, docshelf.Errorf(docshelf.EINTERNAL, "embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
	}

	for j, i := range missIdx {
		results[i] = vectors[j]
		c.cache.Add(texts[i], vectors[j])
	}
	return results, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
