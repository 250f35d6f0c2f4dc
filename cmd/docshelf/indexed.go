package main

import (
	"fmt"

	"github.com/fwojciec/docshelf"
)

// Run executes the indexed command.
func (c *IndexedCmd) Run(deps *Dependencies) error {
	if !deps.Caps.Storage {
		return errStorageDisabled(deps)
	}

	counts, err := deps.Chunks.CountChunksBySource(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docshelf.ErrorMessage(err))
		return err
	}

	if len(counts) == 0 {
		fmt.Fprintln(deps.Stdout, "No sources indexed. Use 'docshelf ensure <source>' to add one.")
		return nil
	}

	for _, sc := range counts {
		fmt.Fprintf(deps.Stdout, "%s  %d chunks\n", sc.Source, sc.ChunkCount)
	}
	return nil
}
