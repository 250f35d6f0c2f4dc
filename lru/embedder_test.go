package lru_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/docshelf/lru"
	"github.com/fwojciec/docshelf/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder returns [len(text)] vectors and records each call's input.
func countingEmbedder(calls *[][]string) *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			*calls = append(*calls, texts)
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = []float32{float32(len(text))}
			}
			return out, nil
		},
	}
}

func TestCachedEmbedder_Embed(t *testing.T) {
	t.Parallel()

	t.Run("serves repeated texts from the cache", func(t *testing.T) {
		t.Parallel()

		var calls [][]string
		e := lru.NewCachedEmbedder(countingEmbedder(&calls), 10)
		ctx := context.Background()

		first, err := e.Embed(ctx, []string{"react hooks"})
		require.NoError(t, err)
		second, err := e.Embed(ctx, []string{"react hooks"})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, calls, 1)
	})

	t.Run("sends only misses to the inner embedder", func(t *testing.T) {
		t.Parallel()

		var calls [][]string
		e := lru.NewCachedEmbedder(countingEmbedder(&calls), 10)
		ctx := context.Background()

		_, err := e.Embed(ctx, []string{"a"})
		require.NoError(t, err)

		vectors, err := e.Embed(ctx, []string{"bb", "a", "ccc"})
		require.NoError(t, err)

		assert.Equal(t, [][]float32{{2}, {1}, {3}}, vectors)
		assert.Equal(t, [][]string{{"a"}, {"bb", "ccc"}}, calls)
	})

	t.Run("evicts the least recently used entry", func(t *testing.T) {
		t.Parallel()

		var calls [][]string
		e := lru.NewCachedEmbedder(countingEmbedder(&calls), 2)
		ctx := context.Background()

		for _, text := range []string{"a", "b", "c", "a"} {
			_, err := e.Embed(ctx, []string{text})
			require.NoError(t, err)
		}

		assert.Len(t, calls, 4)
		assert.Equal(t, 2, e.Len())
	})

	t.Run("does not cache failures", func(t *testing.T) {
		t.Parallel()

		e := lru.NewCachedEmbedder(&mock.Embedder{
			EmbedFn: func(context.Context, []string) ([][]float32, error) {
				return nil, errors.New("provider down")
			},
		}, 10)

		_, err := e.Embed(context.Background(), []string{"a"})
		require.Error(t, err)
		assert.Zero(t, e.Len())
	})
}
