package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/edgelist"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Output      string
	NodeAField  int
	NodeBField  int
	WeightField int
	NotFound    string
	Comment     string
	NodeType    string
	EdgeType    string
	Weight      string
	Color       string
	MinWeight   float64
	Lowercase   bool
}

// ConvertSummary is the result of a conversion.
type ConvertSummary struct {
	Written int    `json:"written"`
	Skipped int    `json:"skipped"`
	Pruned  int    `json:"pruned"`
	Output  string `json:"output"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}
	defaults := edgelist.DefaultConvertOptions()

	cmd := &cobra.Command{
		Use:   "convert <pairs-file>",
		Short: "Convert weighted pairs into an edge list",
		Long: `Convert a whitespace-separated file of weighted node pairs into an edge list.

Field numbers are 1-based. Lines containing the comment marker are ignored,
as are lines with too few fields. Rows whose weight contains the not-found
marker, or is not a number, are skipped and counted. Rows weighing less than
--min-weight are pruned.

Examples:
  bmgraph convert pairs.tsv -o terms.bmg
  bmgraph convert pairs.tsv --min-weight 14 --lowercase -o terms.bmg
  bmgraph convert scores.txt --node-a 2 --node-b 3 --weight-field 1 --edge-type co_occurs`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&opts.NodeAField, "node-a", defaults.NodeAField, "field holding the first node")
	cmd.Flags().IntVar(&opts.NodeBField, "node-b", defaults.NodeBField, "field holding the second node")
	cmd.Flags().IntVar(&opts.WeightField, "weight-field", defaults.WeightField, "field holding the edge weight")
	cmd.Flags().StringVar(&opts.NotFound, "not-found", defaults.NotFound, "weight marker for rows to skip")
	cmd.Flags().StringVar(&opts.Comment, "comment", defaults.Comment, "comment marker")
	cmd.Flags().StringVar(&opts.NodeType, "node-type", defaults.Format.NodeType, "node type prefix")
	cmd.Flags().StringVar(&opts.EdgeType, "edge-type", defaults.Format.EdgeType, "edge type")
	cmd.Flags().StringVar(&opts.Weight, "weight-attribute", defaults.Format.WeightAttribute, "edge attribute holding the weight")
	cmd.Flags().StringVar(&opts.Color, "color", defaults.Format.EdgeColor, "edge fill colour")
	cmd.Flags().Float64Var(&opts.MinWeight, "min-weight", defaults.Format.MinWeight, "prune rows weighing below this (0 = keep all)")
	cmd.Flags().BoolVar(&opts.Lowercase, "lowercase", defaults.Format.Lowercase, "lower-case node accessions")

	return cmd
}

func runConvert(opts *ConvertOptions, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	co := cfg.Edgelist
	flags := cmd.Flags()
	if flags.Changed("node-a") {
		co.NodeAField = opts.NodeAField
	}
	if flags.Changed("node-b") {
		co.NodeBField = opts.NodeBField
	}
	if flags.Changed("weight-field") {
		co.WeightField = opts.WeightField
	}
	if flags.Changed("not-found") {
		co.NotFound = opts.NotFound
	}
	if flags.Changed("comment") {
		co.Comment = opts.Comment
	}
	if flags.Changed("node-type") {
		co.Format.NodeType = opts.NodeType
	}
	if flags.Changed("edge-type") {
		co.Format.EdgeType = opts.EdgeType
	}
	if flags.Changed("weight-attribute") {
		co.Format.WeightAttribute = opts.Weight
	}
	if flags.Changed("color") {
		co.Format.EdgeColor = opts.Color
	}
	if flags.Changed("min-weight") {
		co.Format.MinWeight = opts.MinWeight
	}
	if flags.Changed("lowercase") {
		co.Format.Lowercase = opts.Lowercase
	}

	f, err := os.Open(input)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to open input", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		of, err := os.Create(opts.Output)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to create output file", err)
		}
		defer of.Close()
		out = of
	}

	stats, err := edgelist.Convert(f, out, co)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "conversion failed", err)
	}

	if opts.Output == "" {
		return nil
	}
	summary := ConvertSummary{Written: stats.Written, Skipped: stats.Skipped, Pruned: stats.Pruned, Output: opts.Output}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	fmt.Fprintf(formatter.Writer, "✓ Converted %d row(s), skipped %d, pruned %d\n", summary.Written, summary.Skipped, summary.Pruned)
	fmt.Fprintf(formatter.Writer, "Wrote %s\n", summary.Output)
	return nil
}
