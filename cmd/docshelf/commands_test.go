package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/docshelf"
	main "github.com/fwojciec/docshelf/cmd/docshelf"
	"github.com/fwojciec/docshelf/mcp"
	"github.com/fwojciec/docshelf/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(stdout, stderr *bytes.Buffer) *main.Dependencies {
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
		Caps:   mcp.Capabilities{Storage: true, Semantic: true},
	}
}

func TestEnsureCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints fetched source", func(t *testing.T) {
		t.Parallel()

		var gotOpts docshelf.EnsureOptions
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			EnsureFn: func(ctx context.Context, source string, opts docshelf.EnsureOptions) (*docshelf.EnsureResult, error) {
				gotOpts = opts
				return &docshelf.EnsureResult{Source: source, Fetched: true, FileCount: 12, Indexed: true}, nil
			},
		}

		err := (&main.EnsureCmd{Source: "react", Force: true}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "react: fetched 12 files, indexed\n", stdout.String())
		assert.Equal(t, docshelf.EnsureOptions{Force: true, Index: true}, gotOpts)
	})

	t.Run("prints fresh source", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			EnsureFn: func(ctx context.Context, source string, opts docshelf.EnsureOptions) (*docshelf.EnsureResult, error) {
				assert.False(t, opts.Index)
				return &docshelf.EnsureResult{Source: source, FileCount: 5}, nil
			},
		}

		err := (&main.EnsureCmd{Source: "react", NoIndex: true}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "react: up to date (5 files)\n", stdout.String())
	})

	t.Run("reports index failure after fetch", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			EnsureFn: func(ctx context.Context, source string, opts docshelf.EnsureOptions) (*docshelf.EnsureResult, error) {
				return &docshelf.EnsureResult{Source: source, Fetched: true, FileCount: 5},
					&docshelf.IndexError{Source: source, Batch: -1, Err: errors.New("quota exceeded")}
			},
		}

		err := (&main.EnsureCmd{Source: "react"}).Run(deps)

		var indexErr *docshelf.IndexError
		require.ErrorAs(t, err, &indexErr)
		assert.Equal(t, "react: fetched 5 files\n", stdout.String())
		assert.Contains(t, stderr.String(), "fetched but not searchable")
		assert.Contains(t, stderr.String(), "quota exceeded")
	})

	t.Run("hints at fetch command when launch fails", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			EnsureFn: func(ctx context.Context, source string, opts docshelf.EnsureOptions) (*docshelf.EnsureResult, error) {
				return nil, &docshelf.FetchError{Source: source, Kind: docshelf.FetchLaunch, Err: errors.New("executable file not found")}
			},
		}

		err := (&main.EnsureCmd{Source: "react"}).Run(deps)

		require.Error(t, err)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "not fetched")
		assert.Contains(t, stderr.String(), "DOCSHELF_FETCH_CMD")
	})
}

func TestSourcesCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints one row per source", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			ListSourcesFn: func(ctx context.Context, category string) ([]*docshelf.SourceStatus, error) {
				return []*docshelf.SourceStatus{
					{Name: "react", Category: "frontend", Status: "40 files, indexed", Description: "React UI library"},
					{Name: "tailwind", Category: "frontend", Status: "stale", Description: "Tailwind CSS", Fetching: true},
				}, nil
			},
		}

		err := (&main.SourcesCmd{}).Run(deps)

		require.NoError(t, err)
		lines := bytes.Split(bytes.TrimSpace(stdout.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)
		assert.Contains(t, string(lines[0]), "40 files, indexed")
		assert.Contains(t, string(lines[1]), "stale (fetching)")
		assert.NotContains(t, string(lines[0]), "fetching")
	})

	t.Run("returns registry error", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			ListSourcesFn: func(ctx context.Context, category string) ([]*docshelf.SourceStatus, error) {
				return nil, docshelf.Errorf(docshelf.EINVALID, "sources.yaml: duplicate source %q", "react")
			},
		}

		err := (&main.SourcesCmd{}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "duplicate source")
	})
}

func TestSearchCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints ranked results with snippets", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Search = &mock.SearchService{
			SearchFn: func(ctx context.Context, query string, opts docshelf.SearchOptions) ([]*docshelf.SearchResult, error) {
				assert.Equal(t, docshelf.SearchOptions{Source: "react", Limit: 5, MinSimilarity: 0.2}, opts)
				return []*docshelf.SearchResult{
					{
						Chunk: &docshelf.Chunk{
							Source:     "react",
							FilePath:   "hooks/useState.md",
							ChunkIndex: 1,
							Content:    "useState is a React Hook\n\nthat lets you add state\nto components\nand more",
							Metadata:   docshelf.ChunkMetadata{Heading: "useState"},
						},
						Similarity: 0.8123,
					},
				}, nil
			},
		}

		err := (&main.SearchCmd{Query: "state", Source: "react", Limit: 5, MinSimilarity: 0.2}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "1. react/hooks/useState.md#1 useState (0.812)\n"+
			"   useState is a React Hook\n"+
			"   that lets you add state\n"+
			"   to components\n", stdout.String())
	})

	t.Run("prints hint when nothing matches", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Search = &mock.SearchService{
			SearchFn: func(ctx context.Context, query string, opts docshelf.SearchOptions) ([]*docshelf.SearchResult, error) {
				return nil, nil
			},
		}

		err := (&main.SearchCmd{Query: "state"}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No results")
	})
}

func TestGrepCmd_Run(t *testing.T) {
	t.Parallel()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps := newDeps(stdout, stderr)
	deps.Caps.Semantic = false
	deps.Search = &mock.SearchService{
		GrepFn: func(ctx context.Context, pattern string, opts docshelf.GrepOptions) ([]*docshelf.GrepResult, error) {
			return []*docshelf.GrepResult{
				{
					Chunk: &docshelf.Chunk{Source: "go", FilePath: "effective_go.md", ChunkIndex: 7},
					Lines: []string{"Use defer to close files.", "defer runs last."},
				},
			}, nil
		},
	}

	err := (&main.GrepCmd{Pattern: "defer"}).Run(deps)

	require.NoError(t, err)
	assert.Equal(t, "go/effective_go.md#7\n   Use defer to close files.\n   defer runs last.\n", stdout.String())
}

func TestIndexedCmd_Run(t *testing.T) {
	t.Parallel()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps := newDeps(stdout, stderr)
	deps.Chunks = &mock.ChunkService{
		CountChunksBySourceFn: func(ctx context.Context) ([]docshelf.SourceCount, error) {
			return []docshelf.SourceCount{{Source: "go", ChunkCount: 310}}, nil
		},
	}

	err := (&main.IndexedCmd{}).Run(deps)

	require.NoError(t, err)
	assert.Equal(t, "go  310 chunks\n", stdout.String())
}
