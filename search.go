package docshelf

import (
	"context"
	"strings"
)

// Search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
	DefaultGrepLimit   = 10
	MaxGrepLimit       = 20

	// MaxGrepLines caps the matching lines surfaced per grep result.
	MaxGrepLines = 3
)

// SearchService provides semantic and exact search over stored chunks.
type SearchService interface {
	// Search embeds the query and returns the top chunks by cosine
	// similarity, descending. MinSimilarity is applied after the limit,
	// so fewer than Limit results may be returned even when more exist.
	Search(ctx context.Context, query string, opts SearchOptions) ([]*SearchResult, error)

	// Grep returns chunks containing pattern, case-insensitively.
	Grep(ctx context.Context, pattern string, opts GrepOptions) ([]*GrepResult, error)
}

// SearchOptions configures semantic search.
type SearchOptions struct {
	// Restrict results to one source. Empty means all sources.
	Source string `json:"source,omitempty"`

	// Maximum number of results to return. Clamped to MaxSearchLimit.
	Limit int `json:"limit,omitempty"`

	// Minimum similarity score (0-1), applied after ranking.
	MinSimilarity float64 `json:"minSimilarity,omitempty"`
}

// Normalize applies defaults and clamps the limit.
func (o SearchOptions) Normalize() SearchOptions {
	o.Limit = clampLimit(o.Limit, DefaultSearchLimit, MaxSearchLimit)
	return o
}

// GrepOptions configures exact search.
type GrepOptions struct {
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Normalize applies defaults and clamps the limit.
func (o GrepOptions) Normalize() GrepOptions {
	o.Limit = clampLimit(o.Limit, DefaultGrepLimit, MaxGrepLimit)
	return o
}

func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, ceiling)
}

// SearchResult represents a semantic search match.
type SearchResult struct {
	Chunk      *Chunk  `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// GrepResult represents an exact search match.
type GrepResult struct {
	Chunk *Chunk `json:"chunk"`

	// Up to MaxGrepLines lines of the chunk that contain the pattern.
	Lines []string `json:"lines"`
}

// MatchingLines returns up to limit lines of content that contain pattern,
// compared case-insensitively.
func MatchingLines(content, pattern string, limit int) []string {
	needle := strings.ToLower(pattern)
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if len(lines) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(line), needle) {
			lines = append(lines, line)
		}
	}
	return lines
}
