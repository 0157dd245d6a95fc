package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show graph store row counts",
		Long: `Show how many nodes, edges and attribute rows the graph store holds.

Example:
  bmgraph stats --db terms.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	addDBFlag(cmd, &opts.Database)

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, _, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	stats, err := st.Stats(context.Background())
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "failed to read stats", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(stats)
	}
	fmt.Fprintf(formatter.Writer, "Nodes:           %d\n", stats.Nodes)
	fmt.Fprintf(formatter.Writer, "Edges:           %d\n", stats.Edges)
	fmt.Fprintf(formatter.Writer, "Node attributes: %d\n", stats.NodeAttributes)
	fmt.Fprintf(formatter.Writer, "Edge attributes: %d\n", stats.EdgeAttributes)
	return nil
}
