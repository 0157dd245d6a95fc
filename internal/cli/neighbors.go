package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/edgelist"
	"github.com/roach88/bmgraph/internal/query"
)

// NeighborsOptions holds flags for the neighbors command.
type NeighborsOptions struct {
	*RootOptions
	Database string
}

// NewNeighborsCommand creates the neighbors command.
func NewNeighborsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NeighborsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "neighbors <accession>",
		Short: "List the edges touching a node",
		Long: `List every edge touching the node with the given accession, in either
direction, with its attributes. Text output is in edge-list format.

Example:
  bmgraph neighbors --db terms.db cat`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNeighbors(opts, args[0], cmd)
		},
	}

	addDBFlag(cmd, &opts.Database)

	return cmd
}

func runNeighbors(opts *NeighborsOptions, accession string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	engine := query.New(st, query.WithOptions(cfg.Query))
	edges, err := engine.Neighbors(context.Background(), accession)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "failed to query neighbors", err)
	}

	if formatter.Format == "json" {
		views := make([]EdgeView, 0, len(edges))
		for _, e := range edges {
			views = append(views, edgeView(e))
		}
		return formatter.Success(views)
	}

	if len(edges) == 0 {
		fmt.Fprintf(formatter.Writer, "No neighbors found for: %s\n", accession)
		return nil
	}
	for _, e := range edges {
		fmt.Fprintln(formatter.Writer, edgelist.FormatEdge(
			edgelist.NodeRef{Type: e.N1.Type, Accession: e.N1.Accession},
			edgelist.NodeRef{Type: e.N2.Type, Accession: e.N2.Accession},
			e.Type,
			e.Attributes.Cached(),
		))
	}
	return nil
}
