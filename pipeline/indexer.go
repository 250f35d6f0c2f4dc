package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fwojciec/docshelf"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of files read and chunked in parallel.
const DefaultConcurrency = 8

// Ensure Indexer implements docshelf.Indexer at compile time.
var _ docshelf.Indexer = (*Indexer)(nil)

// Indexer replaces all stored chunks of a source with freshly embedded ones.
type Indexer struct {
	Chunks   docshelf.ChunkService
	Embedder docshelf.Embedder
	Chunker  *docshelf.Chunker

	MaxBatchTokens int
	MaxBatchCount  int
	Concurrency    int

	Logger *slog.Logger
}

// NewIndexer creates an Indexer with default chunking and batching limits.
func NewIndexer(chunks docshelf.ChunkService, embedder docshelf.Embedder) *Indexer {
	return &Indexer{
		Chunks:         chunks,
		Embedder:       embedder,
		Chunker:        docshelf.NewChunker(),
		MaxBatchTokens: docshelf.DefaultMaxBatchTokens,
		MaxBatchCount:  docshelf.DefaultMaxBatchCount,
		Concurrency:    DefaultConcurrency,
		Logger:         slog.New(slog.DiscardHandler),
	}
}

// Reindex deletes the stored chunks of source, then chunks the files,
// plans batches and embeds and stores each batch in its own transaction.
// A failing batch stops the run; batches before it stay committed.
func (ix *Indexer) Reindex(ctx context.Context, source, dir string, files []string) (*docshelf.IndexResult, error) {
	begin := time.Now()

	deleted, err := ix.Chunks.DeleteChunksBySource(ctx, source)
	if err != nil {
		return nil, &docshelf.IndexError{Source: source, Batch: -1, Err: fmt.Errorf("delete previous chunks: %w", err)}
	}

	chunks, err := ix.chunkFiles(ctx, source, dir, files)
	if err != nil {
		return nil, &docshelf.IndexError{Source: source, Batch: -1, Err: err}
	}

	batches := docshelf.PlanBatches(chunks, ix.MaxBatchTokens, ix.MaxBatchCount)
	result := &docshelf.IndexResult{Files: len(files), Batches: len(batches), Deleted: deleted}

	for i, batch := range batches {
		if err := ix.storeBatch(ctx, batch); err != nil {
			return result, &docshelf.IndexError{
				Source:    source,
				Batch:     i,
				Batches:   len(batches),
				Committed: result.Chunks,
				Err:       err,
			}
		}
		result.Chunks += len(batch)
		ix.logger().Info("indexed batch",
			"source", source,
			"batch", i+1,
			"batches", len(batches),
			"chunks", len(batch),
		)
	}

	ix.logger().Info("reindexed source",
		"source", source,
		"files", result.Files,
		"chunks", result.Chunks,
		"deleted", result.Deleted,
		"duration", time.Since(begin),
	)
	return result, nil
}

// chunkFiles reads and chunks files in parallel. Results are gathered in
// per-file slots and flattened in the order of files.
func (ix *Indexer) chunkFiles(ctx context.Context, source, dir string, files []string) ([]*docshelf.Chunk, error) {
	files = slices.Clone(files)
	slices.Sort(files)

	slots := make([][]*docshelf.Chunk, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency())

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(file)))
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			slots[i] = ix.chunker().Chunk(source, file, string(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []*docshelf.Chunk
	for _, slot := range slots {
		chunks = append(chunks, slot...)
	}
	return chunks, nil
}

// storeBatch embeds a batch and writes it atomically.
func (ix *Indexer) storeBatch(ctx context.Context, batch []*docshelf.Chunk) error {
	vectors, err := ix.Embedder.Embed(ctx, docshelf.BatchTexts(batch))
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embed: got %d vectors for %d chunks", len(vectors), len(batch))
	}
	for i, c := range batch {
		c.Embedding = vectors[i]
	}
	if err := ix.Chunks.CreateChunks(ctx, batch); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (ix *Indexer) chunker() *docshelf.Chunker {
	if ix.Chunker != nil {
		return ix.Chunker
	}
	return docshelf.NewChunker()
}

func (ix *Indexer) concurrency() int {
	if ix.Concurrency > 0 {
		return ix.Concurrency
	}
	return DefaultConcurrency
}

func (ix *Indexer) logger() *slog.Logger {
	if ix.Logger != nil {
		return ix.Logger
	}
	return slog.New(slog.DiscardHandler)
}
