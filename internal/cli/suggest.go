package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/query"
)

// SuggestOptions holds flags for the suggest command.
type SuggestOptions struct {
	*RootOptions
	Database string
	Fields   []string
	Limit    int
}

// SuggestionView is the JSON rendering of a suggestion.
type SuggestionView struct {
	Accession string `json:"accession"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	Distance  int    `json:"distance"`
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuggestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suggest <pattern>",
		Short: "Find nodes matching a partial name",
		Long: `Find nodes whose text attributes contain the pattern, falling back to
accessions when no attribute matches. Results are ranked by edit distance.

Examples:
  bmgraph suggest --db terms.db cat
  bmgraph suggest --db terms.db --field label --field synonym feline`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(opts, args[0], cmd)
		},
	}

	addDBFlag(cmd, &opts.Database)
	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "attribute name to search (repeatable)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum results (0 = all)")

	return cmd
}

func runSuggest(opts *SuggestOptions, pattern string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, cfg, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	engine := query.New(st, query.WithOptions(cfg.Query))
	suggestions, err := engine.Suggest(context.Background(), pattern, opts.Fields)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "failed to query suggestions", err)
	}
	if opts.Limit > 0 && len(suggestions) > opts.Limit {
		suggestions = suggestions[:opts.Limit]
	}

	if formatter.Format == "json" {
		views := make([]SuggestionView, 0, len(suggestions))
		for _, s := range suggestions {
			views = append(views, SuggestionView{
				Accession: s.Node.Accession,
				Type:      s.Node.Type,
				Key:       s.Key,
				Distance:  s.Distance,
			})
		}
		return formatter.Success(views)
	}

	if len(suggestions) == 0 {
		fmt.Fprintf(formatter.Writer, "No matches for: %s\n", pattern)
		return nil
	}
	for _, s := range suggestions {
		fmt.Fprintf(formatter.Writer, "%d\t%s\t%s\n", s.Distance, s.Node.TypedName(), s.Key)
	}
	return nil
}
