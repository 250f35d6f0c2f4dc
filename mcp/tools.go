package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/docshelf"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EnsureInput is the input schema for the ensure_docs tool.
type EnsureInput struct {
	Source string `json:"source" jsonschema:"registered source name or a documentation URL"`
	Force  bool   `json:"force,omitempty" jsonschema:"refetch even if the local copy is fresh"`
	Index  *bool  `json:"index,omitempty" jsonschema:"make the fetched files searchable (default true)"`
}

// EnsureOutput is the output schema for the ensure_docs tool.
type EnsureOutput struct {
	Source    string `json:"source"`
	Fetched   bool   `json:"fetched"`
	FileCount int    `json:"fileCount"`
	Indexed   bool   `json:"indexed"`
}

// ListSourcesInput is the input schema for the list_sources tool.
type ListSourcesInput struct {
	Category string `json:"category,omitempty" jsonschema:"only list sources in this category"`
}

// ListSourcesOutput is the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
	Count   int            `json:"count"`
}

// SourceOutput is one registered source.
type SourceOutput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	Fetching    bool   `json:"fetching,omitempty"`
}

// SearchInput is the input schema for the search_docs tool.
type SearchInput struct {
	Query         string  `json:"query" jsonschema:"natural language question or topic"`
	Source        string  `json:"source,omitempty" jsonschema:"restrict results to one source"`
	Limit         int     `json:"limit,omitempty" jsonschema:"maximum number of results (default 10, max 50)"`
	MinSimilarity float64 `json:"minSimilarity,omitempty" jsonschema:"drop results below this cosine similarity"`
}

// GrepInput is the input schema for the grep_docs tool.
type GrepInput struct {
	Pattern string `json:"pattern" jsonschema:"literal text to find, case-insensitive"`
	Source  string `json:"source,omitempty" jsonschema:"restrict results to one source"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of chunks (default 10, max 20)"`
}

// ReadChunksInput is the input schema for the read_chunks tool.
type ReadChunksInput struct {
	Source   string `json:"source" jsonschema:"source the file belongs to"`
	FilePath string `json:"filePath" jsonschema:"file path as returned by search_docs or grep_docs"`
	Offset   int    `json:"offset,omitempty" jsonschema:"index of the first chunk to return"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of chunks (default 20, max 100)"`
}

// Read limits.
const (
	DefaultReadLimit = 20
	MaxReadLimit     = 100
)

// ChunksOutput is the output schema for search_docs, grep_docs and read_chunks.
type ChunksOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput is one matching chunk.
type ChunkOutput struct {
	Source     string   `json:"source"`
	FilePath   string   `json:"filePath"`
	ChunkIndex int      `json:"chunkIndex"`
	Heading    string   `json:"heading,omitempty"`
	Content    string   `json:"content,omitempty"`
	Similarity float64  `json:"similarity,omitempty"`
	Lines      []string `json:"lines,omitempty"`
}

// ListIndexedInput is the input schema for the list_indexed tool.
type ListIndexedInput struct{}

// ListIndexedOutput is the output schema for the list_indexed tool.
type ListIndexedOutput struct {
	Sources []IndexedOutput `json:"sources"`
	Count   int             `json:"count"`
}

// IndexedOutput is the chunk count of one indexed source.
type IndexedOutput struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"chunkCount"`
}

func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        "ensure_docs",
		Description: "Download documentation for a source if it is missing or older than 7 days, then index it for search. Accepts a registered source name or a documentation URL.",
	}, s.handleEnsure)
	addTool(s, &mcp.Tool{
		Name:        "list_sources",
		Description: "List registered documentation sources and whether each is fetched, stale or indexed.",
	}, s.handleListSources)

	if s.Caps.CanIndex() {
		addTool(s, &mcp.Tool{
			Name:        "search_docs",
			Description: "Semantic search over indexed documentation. Returns the chunks closest in meaning to the query.",
		}, s.handleSearch)
	}
	if s.Caps.Storage {
		addTool(s, &mcp.Tool{
			Name:        "grep_docs",
			Description: "Case-insensitive text search over indexed documentation. Use for exact identifiers, flags and error messages.",
		}, s.handleGrep)
		addTool(s, &mcp.Tool{
			Name:        "list_indexed",
			Description: "List indexed sources with their chunk counts.",
		}, s.handleListIndexed)
		addTool(s, &mcp.Tool{
			Name:        "read_chunks",
			Description: "Read the indexed chunks of one file in order. Use after a search to see the text around a match.",
		}, s.handleReadChunks)
	}
}

func addTool[In, Out any](s *Server, t *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) {
	mcp.AddTool(s.server, t, h)
	s.tools = append(s.tools, t.Name)
}

func (s *Server) handleEnsure(ctx context.Context, _ *mcp.CallToolRequest, input EnsureInput) (*mcp.CallToolResult, EnsureOutput, error) {
	if input.Source == "" {
		return errorResult("source is required"), EnsureOutput{}, nil
	}

	opts := docshelf.EnsureOptions{
		Force: input.Force,
		Index: s.Caps.CanIndex() && (input.Index == nil || *input.Index),
	}
	res, err := s.Docs.Ensure(ctx, input.Source, opts)

	var out EnsureOutput
	if res != nil {
		out = EnsureOutput{
			Source:    res.Source,
			Fetched:   res.Fetched,
			FileCount: res.FileCount,
			Indexed:   res.Indexed,
		}
	}
	if err != nil {
		return errorResult(describeError(err)), out, nil
	}
	return nil, out, nil
}

func (s *Server) handleListSources(ctx context.Context, _ *mcp.CallToolRequest, input ListSourcesInput) (*mcp.CallToolResult, ListSourcesOutput, error) {
	statuses, err := s.Docs.ListSources(ctx, input.Category)
	if err != nil {
		return errorResult(describeError(err)), ListSourcesOutput{}, nil
	}

	out := ListSourcesOutput{
		Sources: make([]SourceOutput, len(statuses)),
		Count:   len(statuses),
	}
	for i, st := range statuses {
		out.Sources[i] = SourceOutput{
			Name:        st.Name,
			Description: st.Description,
			Category:    st.Category,
			Status:      st.Status,
			Fetching:    st.Fetching,
		}
	}
	return nil, out, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, ChunksOutput, error) {
	if input.Query == "" {
		return errorResult("query is required"), ChunksOutput{}, nil
	}

	results, err := s.Search.Search(ctx, input.Query, docshelf.SearchOptions{
		Source:        input.Source,
		Limit:         input.Limit,
		MinSimilarity: input.MinSimilarity,
	})
	if err != nil {
		return errorResult(describeError(err)), ChunksOutput{}, nil
	}

	out := ChunksOutput{
		Results: make([]ChunkOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		out.Results[i] = chunkOutput(r.Chunk)
		out.Results[i].Content = r.Chunk.Content
		out.Results[i].Similarity = r.Similarity
	}
	return nil, out, nil
}

func (s *Server) handleGrep(ctx context.Context, _ *mcp.CallToolRequest, input GrepInput) (*mcp.CallToolResult, ChunksOutput, error) {
	if input.Pattern == "" {
		return errorResult("pattern is required"), ChunksOutput{}, nil
	}

	results, err := s.Search.Grep(ctx, input.Pattern, docshelf.GrepOptions{
		Source: input.Source,
		Limit:  input.Limit,
	})
	if err != nil {
		return errorResult(describeError(err)), ChunksOutput{}, nil
	}

	out := ChunksOutput{
		Results: make([]ChunkOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		out.Results[i] = chunkOutput(r.Chunk)
		out.Results[i].Lines = r.Lines
	}
	return nil, out, nil
}

func (s *Server) handleListIndexed(ctx context.Context, _ *mcp.CallToolRequest, _ ListIndexedInput) (*mcp.CallToolResult, ListIndexedOutput, error) {
	counts, err := s.Chunks.CountChunksBySource(ctx)
	if err != nil {
		return errorResult(describeError(err)), ListIndexedOutput{}, nil
	}

	out := ListIndexedOutput{
		Sources: make([]IndexedOutput, len(counts)),
		Count:   len(counts),
	}
	for i, c := range counts {
		out.Sources[i] = IndexedOutput{Source: c.Source, ChunkCount: c.ChunkCount}
	}
	return nil, out, nil
}

func (s *Server) handleReadChunks(ctx context.Context, _ *mcp.CallToolRequest, input ReadChunksInput) (*mcp.CallToolResult, ChunksOutput, error) {
	if input.Source == "" || input.FilePath == "" {
		return errorResult("source and filePath are required"), ChunksOutput{}, nil
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = DefaultReadLimit
	case limit > MaxReadLimit:
		limit = MaxReadLimit
	}

	chunks, err := s.Chunks.FindChunks(ctx, docshelf.ChunkFilter{
		Source:   &input.Source,
		FilePath: &input.FilePath,
		Offset:   max(input.Offset, 0),
		Limit:    limit,
	})
	if err != nil {
		return errorResult(describeError(err)), ChunksOutput{}, nil
	}
	if len(chunks) == 0 && input.Offset <= 0 {
		return errorResult(fmt.Sprintf("no indexed chunks for %s in %s", input.FilePath, input.Source)), ChunksOutput{}, nil
	}

	out := ChunksOutput{
		Results: make([]ChunkOutput, len(chunks)),
		Count:   len(chunks),
	}
	for i, c := range chunks {
		out.Results[i] = chunkOutput(c)
		out.Results[i].Content = c.Content
	}
	return nil, out, nil
}

func chunkOutput(c *docshelf.Chunk) ChunkOutput {
	return ChunkOutput{
		Source:     c.Source,
		FilePath:   c.FilePath,
		ChunkIndex: c.ChunkIndex,
		Heading:    c.Metadata.Heading,
	}
}

// describeError turns a service error into text for a tool error result.
// Index failures are reported as fetched but not searchable, fetch
// failures as not fetched.
func describeError(err error) string {
	var indexErr *docshelf.IndexError
	var fetchErr *docshelf.FetchError
	switch {
	case errors.As(err, &indexErr):
		return fmt.Sprintf("fetched but not searchable: %v", indexErr)
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("not fetched: %v", fetchErr)
	case docshelf.ErrorCode(err) != docshelf.EINTERNAL:
		return docshelf.ErrorMessage(err)
	default:
		return err.Error()
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
