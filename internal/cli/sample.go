package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/graph"
	"github.com/roach88/bmgraph/internal/query"
	"github.com/roach88/bmgraph/internal/store"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Database   string
	Where      []string
	Seed       uint64
	Attributes bool
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <count>",
		Short: "Draw distinct random nodes",
		Long: `Draw count distinct nodes at random, optionally restricted to nodes whose
text attributes equal the given values. When count covers every matching node,
all of them are returned.

Examples:
  bmgraph sample --db terms.db 5
  bmgraph sample --db terms.db 3 --where pos=noun --seed 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, args[0], cmd)
		},
	}

	addDBFlag(cmd, &opts.Database)
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "attribute constraint name=value (repeatable)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed for reproducible draws")
	cmd.Flags().BoolVar(&opts.Attributes, "attributes", false, "include node attributes in the output")

	return cmd
}

func runSample(opts *SampleOptions, countArg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	count, err := strconv.Atoi(countArg)
	if err != nil || count < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("invalid count %q", countArg), err)
	}
	pairs, err := parsePairs("where", opts.Where)
	if err != nil {
		return err
	}
	constraints := make([]store.Constraint, 0, len(pairs))
	for _, p := range pairs {
		constraints = append(constraints, store.Constraint{Name: p[0], Value: p[1]})
	}

	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	engine := query.New(st, queryOptions(cmd, cfg.Query, opts.Seed)...)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	nodes, err := engine.Sample(ctx, count, constraints)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "failed to sample nodes", err)
	}
	if formatter.Format == "json" {
		views := make([]NodeView, 0, len(nodes))
		for _, n := range nodes {
			view := nodeView(n)
			if opts.Attributes {
				attrs, err := n.Attributes.Snapshot(ctx)
				if err != nil {
					return formatter.Fail(ExitFailure, ErrCodeStore, "failed to load attributes", err)
				}
				view.Attributes = attributeMap(attrs)
			}
			views = append(views, view)
		}
		return formatter.Success(views)
	}
	for _, n := range nodes {
		fmt.Fprintln(formatter.Writer, n.TypedName())
		if !opts.Attributes {
			continue
		}
		if err := writeNodeAttributes(ctx, formatter, n); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeStore, "failed to load attributes", err)
		}
	}
	return nil
}

// writeNodeAttributes prints one indented name=value line per value.
func writeNodeAttributes(ctx context.Context, formatter *OutputFormatter, n *graph.Node) error {
	names, err := n.Attributes.Keys(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		values, err := n.Attributes.Get(ctx, name)
		if err != nil {
			return err
		}
		for _, v := range values {
			fmt.Fprintf(formatter.Writer, "  %s=%s\n", name, v)
		}
	}
	return nil
}

// queryOptions builds engine options from the config, seeding the random
// source when --seed was given.
func queryOptions(cmd *cobra.Command, qo query.Options, seed uint64) []query.Option {
	opts := []query.Option{query.WithOptions(qo)}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, query.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	return opts
}
