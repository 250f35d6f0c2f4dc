package sqlite_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/fwojciec/docshelf"
	"github.com/fwojciec/docshelf/mock"
	"github.com/fwojciec/docshelf/sqlite"
	"github.com/stretchr/testify/require"
)

const benchDimensions = 256

// BenchmarkCreateChunks compares one transaction per chunk with one
// transaction per embedding batch.
func BenchmarkCreateChunks(b *testing.B) {
	const chunksPerSource = 100

	b.Run("per_chunk", func(b *testing.B) {
		benchmarkCreateChunks(b, chunksPerSource, 1)
	})

	b.Run("per_batch", func(b *testing.B) {
		benchmarkCreateChunks(b, chunksPerSource, chunksPerSource)
	})
}

func benchmarkCreateChunks(b *testing.B, total, batchSize int) {
	b.Helper()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		db := openBenchDB(b)
		svc := sqlite.NewChunkService(db)
		chunks := benchChunks("bench", total, rand.New(rand.NewPCG(1, uint64(i))))
		ctx := context.Background()
		b.StartTimer()

		for start := 0; start < len(chunks); start += batchSize {
			end := min(start+batchSize, len(chunks))
			if err := svc.CreateChunks(ctx, chunks[start:end]); err != nil {
				b.Fatal(err)
			}
		}

		b.StopTimer()
		db.Close()
	}
}

// BenchmarkSearch measures ranking by cosine_similarity over a full scan.
func BenchmarkSearch(b *testing.B) {
	for _, n := range []int{1_000, 10_000} {
		b.Run(fmt.Sprintf("chunks_%d", n), func(b *testing.B) {
			db := openBenchDB(b)
			defer db.Close()

			rng := rand.New(rand.NewPCG(1, 2))
			require.NoError(b, sqlite.NewChunkService(db).CreateChunks(context.Background(), benchChunks("bench", n, rng)))

			query := randomVector(rng)
			embedder := &mock.Embedder{
				EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
					return [][]float32{query}, nil
				},
			}
			svc := sqlite.NewSearchService(db, embedder)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := svc.Search(context.Background(), "query", docshelf.SearchOptions{Limit: 10}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkGrep measures case-insensitive substring search.
func BenchmarkGrep(b *testing.B) {
	db := openBenchDB(b)
	defer db.Close()

	rng := rand.New(rand.NewPCG(3, 4))
	require.NoError(b, sqlite.NewChunkService(db).CreateChunks(context.Background(), benchChunks("bench", 10_000, rng)))
	svc := sqlite.NewSearchService(db, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Grep(context.Background(), "PAGE 9999", docshelf.GrepOptions{Limit: 20}); err != nil {
			b.Fatal(err)
		}
	}
}

func openBenchDB(b *testing.B) *sqlite.DB {
	b.Helper()
	db := sqlite.NewDB(filepath.Join(b.TempDir(), "bench.db"))
	require.NoError(b, db.Open())
	return db
}

func benchChunks(source string, n int, rng *rand.Rand) []*docshelf.Chunk {
	chunks := make([]*docshelf.Chunk, n)
	for i := range chunks {
		content := fmt.Sprintf("# Page %d\n\nContent for page %d. Lorem ipsum dolor sit amet, consectetur adipiscing elit.", i, i)
		chunks[i] = newChunk(source, fmt.Sprintf("page%d.md", i/10), i%10, content, randomVector(rng)...)
	}
	return chunks
}

func randomVector(rng *rand.Rand) []float32 {
	v := make([]float32, benchDimensions)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}
