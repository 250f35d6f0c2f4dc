package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/docshelf"
)

// Run executes the ensure command.
func (c *EnsureCmd) Run(deps *Dependencies) error {
	res, err := deps.Docs.Ensure(deps.Ctx, c.Source, docshelf.EnsureOptions{
		Force: c.Force,
		Index: !c.NoIndex,
	})
	if res != nil {
		fmt.Fprintln(deps.Stdout, formatEnsure(res))
	}
	if err != nil {
		var indexErr *docshelf.IndexError
		var fetchErr *docshelf.FetchError
		switch {
		case errors.As(err, &indexErr):
			fmt.Fprintf(deps.Stderr, "error: fetched but not searchable: %v\n", indexErr)
		case errors.As(err, &fetchErr):
			fmt.Fprintf(deps.Stderr, "error: not fetched: %v\n", fetchErr)
			if fetchErr.Kind == docshelf.FetchLaunch {
				fmt.Fprintln(deps.Stderr, "Hint: Set DOCSHELF_FETCH_CMD to the documentation downloader")
			}
		case docshelf.ErrorCode(err) == docshelf.ENOTFOUND:
			fmt.Fprintf(deps.Stderr, "error: %s. Use 'docshelf sources' to see available sources.\n", docshelf.ErrorMessage(err))
		default:
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		}
		return err
	}
	return nil
}

func formatEnsure(res *docshelf.EnsureResult) string {
	status := fmt.Sprintf("%d files", res.FileCount)
	if res.Indexed {
		status += ", indexed"
	}
	if res.Fetched {
		return fmt.Sprintf("%s: fetched %s", res.Source, status)
	}
	return fmt.Sprintf("%s: up to date (%s)", res.Source, status)
}
