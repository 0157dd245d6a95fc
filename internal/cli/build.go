package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/cooccur"
	"github.com/roach88/bmgraph/internal/edgelist"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output    string
	Raw       bool
	Delimiter string
	MinLength int
	MaxTokens int
	MinWeight float64
	Lowercase bool
}

// BuildSummary is the result of a build.
type BuildSummary struct {
	Sentences int    `json:"sentences"`
	Terms     int    `json:"terms"`
	Pairs     int    `json:"pairs"`
	Written   int    `json:"written"`
	Output    string `json:"output"`
	Raw       bool   `json:"raw"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <corpus-file|->",
		Short: "Build a co-occurrence edge list from a text corpus",
		Long: `Split a corpus into sentences, count which terms co-occur, and score every
co-occurring pair with the log-likelihood ratio (G2).

The result is written as an edge list ready for "bmgraph ingest", or with
--raw as tab-separated "term_a term_b ll_sen" rows for "bmgraph convert".
Pairs scoring below --min-weight are pruned from either output.

Examples:
  bmgraph build corpus.txt -o terms.bmg
  cat corpus.txt | bmgraph build - --min-length 4 > terms.bmg
  bmgraph build corpus.txt --min-weight 14 --lowercase -o terms.bmg
  bmgraph build corpus.txt --raw -o pairs.tsv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "write raw tab-separated pairs instead of an edge list")
	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", cooccur.DefaultDelimiter, "sentence delimiter")
	cmd.Flags().IntVar(&opts.MinLength, "min-length", cooccur.DefaultMinTokenLength, "minimum token length in runes")
	cmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", 0, "maximum tokens per sentence (0 = unlimited)")
	cmd.Flags().Float64Var(&opts.MinWeight, "min-weight", 0, "prune pairs scoring below this weight (0 = keep all)")
	cmd.Flags().BoolVar(&opts.Lowercase, "lowercase", false, "lower-case term accessions")

	return cmd
}

func runBuild(opts *BuildOptions, corpus string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	builderOpts := cfg.Builder
	if cmd.Flags().Changed("delimiter") {
		builderOpts.Delimiter = opts.Delimiter
	}
	if cmd.Flags().Changed("min-length") {
		builderOpts.MinTokenLength = opts.MinLength
	}
	if cmd.Flags().Changed("max-tokens") {
		builderOpts.MaxTokensPerSentence = opts.MaxTokens
	}
	format := cfg.Edgelist.Format
	if cmd.Flags().Changed("min-weight") {
		format.MinWeight = opts.MinWeight
	}
	if cmd.Flags().Changed("lowercase") {
		format.Lowercase = opts.Lowercase
	}
	if builderOpts.Delimiter == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "delimiter must not be empty", nil)
	}

	in := cmd.InOrStdin()
	if corpus != "-" {
		f, err := os.Open(corpus)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to open corpus", err)
		}
		defer f.Close()
		in = f
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	formatter.VerboseLog("Building co-occurrence graph from %s", corpus)
	result, err := cooccur.NewBuilder(builderOpts, slog.Default()).Build(ctx, in)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "build failed", err)
	}

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}
	written, err := writePairs(out, result.Pairs, format, opts.Raw)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeWriteFailed, "failed to write pairs", err)
	}

	summary := BuildSummary{
		Sentences: result.Stats.Sentences,
		Terms:     result.Stats.Terms,
		Pairs:     result.Stats.Pairs,
		Written:   written,
		Output:    opts.Output,
		Raw:       opts.Raw,
	}
	slog.Info("build complete",
		"sentences", summary.Sentences,
		"terms", summary.Terms,
		"pairs", summary.Pairs,
		"written", summary.Written,
	)

	// Pairs already went to stdout; a summary would corrupt them.
	if opts.Output == "" {
		return nil
	}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	fmt.Fprintf(formatter.Writer, "✓ Built %d pair(s) from %d sentence(s), %d term(s)\n",
		summary.Pairs, summary.Sentences, summary.Terms)
	fmt.Fprintf(formatter.Writer, "Wrote %d pair(s) to %s\n", summary.Written, summary.Output)
	return nil
}

// writePairs writes the pairs format keeps and returns how many it wrote.
func writePairs(w io.Writer, pairs []cooccur.Pair, format edgelist.Format, raw bool) (int, error) {
	kept := format.Filter(pairs)
	if raw {
		return len(kept), edgelist.WriteRawPairs(w, kept)
	}
	ew := edgelist.NewWriter(w, format)
	if err := ew.WriteHeader(); err != nil {
		return 0, err
	}
	if err := ew.WritePairs(kept); err != nil {
		return 0, err
	}
	return len(kept), ew.Flush()
}
