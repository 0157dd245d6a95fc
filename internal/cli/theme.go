package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/edgelist"
	"github.com/roach88/bmgraph/internal/query"
)

// ThemeOptions holds flags for the theme command.
type ThemeOptions struct {
	*RootOptions
	Database string
	MinWords int
	Seed     uint64
}

// ThemeView is the JSON rendering of a theme.
type ThemeView struct {
	Seed  string      `json:"seed"`
	Theme query.Theme `json:"theme"`
}

// NewThemeCommand creates the theme command.
func NewThemeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ThemeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "theme [seed]",
		Short: "Expand a seed term into a theme of related terms",
		Long: `Grow a set of terms related to the seed by repeatedly merging in the
neighbors of randomly chosen collected terms, until at least --min-words terms
are collected or expansion stops making progress.

Without a seed, a random node is chosen.

Examples:
  bmgraph theme --db terms.db cat
  bmgraph theme --db terms.db --min-words 25 --seed 7`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := ""
			if len(args) == 1 {
				seed = args[0]
			}
			return runTheme(opts, seed, cmd)
		},
	}

	addDBFlag(cmd, &opts.Database)
	cmd.Flags().IntVarP(&opts.MinWords, "min-words", "n", 10, "minimum number of terms to collect")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed for reproducible expansion")

	return cmd
}

func runTheme(opts *ThemeOptions, seed string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.MinWords < 1 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "--min-words must be at least 1", nil)
	}

	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	engine := query.New(st, queryOptions(cmd, cfg.Query, opts.Seed)...)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if seed == "" {
		seed, err = engine.RandomTheme(ctx)
		if errors.Is(err, query.ErrEmptyGraph) {
			return formatter.Fail(ExitFailure, ErrCodeNotFound, "graph is empty", err)
		}
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeStore, "failed to pick a random seed", err)
		}
		formatter.VerboseLog("Random seed term: %s", seed)
	}

	theme, err := engine.ThemeExpand(ctx, seed, opts.MinWords)
	if errors.Is(err, query.ErrNoNeighbors) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no neighbors found for: %s", seed), err)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "theme expansion failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ThemeView{Seed: seed, Theme: theme})
	}

	fmt.Fprintf(formatter.Writer, "Theme: %s (%d term(s))\n", seed, len(theme.Terms))
	for _, g := range theme.Goodness {
		weight := "seed"
		if g.Weight != query.SeedGoodness {
			weight = edgelist.FormatWeight(g.Weight)
		}
		fmt.Fprintf(formatter.Writer, "  %-24s %s\n", g.Term, weight)
	}
	if extra := len(theme.Terms) - len(theme.Goodness); extra > 0 {
		fmt.Fprintf(formatter.Writer, "  ... and %d more\n", extra)
	}
	return nil
}
