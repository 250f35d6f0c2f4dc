package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/docshelf"
)

// snippetLines is the number of content lines printed per search result.
const snippetLines = 3

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	if !deps.Caps.Storage {
		return errStorageDisabled(deps)
	}
	if !deps.Caps.Semantic {
		fmt.Fprintln(deps.Stderr, "Hint: Set OPENAI_API_KEY or GEMINI_API_KEY to enable semantic search, or use 'docshelf grep'")
		return docshelf.Errorf(docshelf.EUNAVAILABLE, "semantic search requires an embedding provider")
	}

	results, err := deps.Search.Search(deps.Ctx, c.Query, docshelf.SearchOptions{
		Source:        c.Source,
		Limit:         c.Limit,
		MinSimilarity: c.MinSimilarity,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", describe(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results. Use 'docshelf indexed' to see which sources are searchable.")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(deps.Stdout, "%d. %s (%.3f)\n", i+1, location(r.Chunk), r.Similarity)
		for _, line := range snippet(r.Chunk.Content, snippetLines) {
			fmt.Fprintf(deps.Stdout, "   %s\n", line)
		}
	}
	return nil
}

// Run executes the grep command.
func (c *GrepCmd) Run(deps *Dependencies) error {
	if !deps.Caps.Storage {
		return errStorageDisabled(deps)
	}

	results, err := deps.Search.Grep(deps.Ctx, c.Pattern, docshelf.GrepOptions{
		Source: c.Source,
		Limit:  c.Limit,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", describe(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No chunks contain %q.\n", c.Pattern)
		return nil
	}

	for _, r := range results {
		fmt.Fprintln(deps.Stdout, location(r.Chunk))
		for _, line := range r.Lines {
			fmt.Fprintf(deps.Stdout, "   %s\n", line)
		}
	}
	return nil
}

func location(c *docshelf.Chunk) string {
	loc := fmt.Sprintf("%s/%s#%d", c.Source, c.FilePath, c.ChunkIndex)
	if c.Metadata.Heading != "" {
		loc += " " + c.Metadata.Heading
	}
	return loc
}

// snippet returns the first n non-blank lines of content.
func snippet(content string, n int) []string {
	var lines []string
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}

func describe(err error) string {
	if docshelf.ErrorCode(err) != docshelf.EINTERNAL {
		return docshelf.ErrorMessage(err)
	}
	return err.Error()
}

func errStorageDisabled(deps *Dependencies) error {
	fmt.Fprintln(deps.Stderr, "Hint: Set DOCSHELF_DB to a database path to enable search")
	return docshelf.Errorf(docshelf.EUNAVAILABLE, "storage is disabled")
}
