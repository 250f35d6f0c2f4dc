package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fwojciec/docshelf"
)

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	statuses, err := deps.Docs.ListSources(deps.Ctx, c.Category)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docshelf.ErrorMessage(err))
		return err
	}

	if len(statuses) == 0 {
		fmt.Fprintf(deps.Stdout, "No sources in category %q.\n", c.Category)
		return nil
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, s := range statuses {
		status := s.Status
		if s.Fetching {
			status += " (fetching)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Category, status, s.Description)
	}
	return w.Flush()
}
