package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/docshelf"
)

// Compile-time interface verification.
var _ docshelf.SearchService = (*SearchService)(nil)

// SearchService implements docshelf.SearchService over the chunks table.
// Semantic search requires an Embedder; Grep works without one.
type SearchService struct {
	db       *DB
	embedder docshelf.Embedder
}

// NewSearchService creates a new SearchService. embedder may be nil, in
// which case Search returns EUNAVAILABLE.
func NewSearchService(db *DB, embedder docshelf.Embedder) *SearchService {
	return &SearchService{db: db, embedder: embedder}
}

// Search ranks stored chunks by cosine similarity to the embedded query.
func (s *SearchService) Search(ctx context.Context, query string, opts docshelf.SearchOptions) ([]*docshelf.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, docshelf.Errorf(docshelf.EINVALID, "query required")
	}
	if s.embedder == nil {
		return nil, docshelf.Errorf(docshelf.EUNAVAILABLE, "semantic search requires an embedding provider")
	}
	opts = opts.Normalize()

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vectors))
	}

	if len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedder returned an empty query vector")
	}

	var q strings.Builder
	args := []any{encodeVector(vectors[0])}

	// Rows whose stored vector cannot be compared score NULL and are skipped.
	q.WriteString("SELECT " + chunkColumns + ", similarity FROM (")
	q.WriteString("SELECT " + chunkColumns + ", cosine_similarity(embedding, ?) AS similarity")
	q.WriteString(" FROM chunks WHERE embedding IS NOT NULL")
	if opts.Source != "" {
		q.WriteString(" AND source = ?")
		args = append(args, opts.Source)
	}
	q.WriteString(") WHERE similarity IS NOT NULL")
	q.WriteString(" ORDER BY similarity DESC, source, file_path, chunk_index LIMIT ?")
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*docshelf.SearchResult{}
	for rows.Next() {
		var sim float64
		c, err := scanChunk(rows, &sim)
		if err != nil {
			return nil, err
		}
		// The threshold filters the top-K; it never pulls in lower-ranked rows.
		if sim < opts.MinSimilarity {
			continue
		}
		results = append(results, &docshelf.SearchResult{Chunk: c, Similarity: sim})
	}
	return results, rows.Err()
}

// Grep returns chunks whose content contains pattern, ignoring case.
func (s *SearchService) Grep(ctx context.Context, pattern string, opts docshelf.GrepOptions) ([]*docshelf.GrepResult, error) {
	if pattern == "" {
		return nil, docshelf.Errorf(docshelf.EINVALID, "pattern required")
	}
	opts = opts.Normalize()

	var q strings.Builder
	args := []any{pattern}

	q.WriteString("SELECT " + chunkColumns + " FROM chunks WHERE instr(unicode_lower(content), unicode_lower(?)) > 0")
	if opts.Source != "" {
		q.WriteString(" AND source = ?")
		args = append(args, opts.Source)
	}
	q.WriteString(" ORDER BY source, file_path, chunk_index LIMIT ?")
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*docshelf.GrepResult{}
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, &docshelf.GrepResult{
			Chunk: c,
			Lines: docshelf.MatchingLines(c.Content, pattern, docshelf.MaxGrepLines),
		})
	}
	return results, rows.Err()
}
