package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/edgelist"
	"github.com/roach88/bmgraph/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Database string
}

// IngestResult is the outcome of ingesting one file.
type IngestResult struct {
	File   string             `json:"file"`
	Report store.IngestReport `json:"report"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <edge-list>...",
		Short: "Load edge lists into the graph store",
		Long: `Load one or more edge-list files into the SQLite graph store.

Each file is ingested in its own transaction. Malformed rows are skipped and
counted; a malformed header or a database error rolls the file back.

Examples:
  bmgraph ingest --db terms.db terms.bmg
  bmgraph ingest --db terms.db part1.bmg part2.bmg --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args, cmd)
		},
	}

	addDBFlag(cmd, &opts.Database)

	return cmd
}

func runIngest(opts *IngestOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, _, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	results := make([]IngestResult, 0, len(files))
	for _, file := range files {
		formatter.VerboseLog("Ingesting %s", file)
		report, err := st.IngestFile(ctx, file)
		if err != nil {
			switch {
			case errors.Is(err, os.ErrNotExist):
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("failed to ingest %s", file), err)
			case errors.Is(err, edgelist.ErrMalformedHeader):
				return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("failed to ingest %s", file), err)
			default:
				return formatter.Fail(ExitFailure, ErrCodeStore, fmt.Sprintf("failed to ingest %s", file), err)
			}
		}
		results = append(results, IngestResult{File: file, Report: report})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "✓ Ingested %s: %d edge(s), %d node(s) created, %d attribute(s), %d skipped\n",
			r.File, r.Report.Edges, r.Report.NodesCreated,
			r.Report.EdgeAttributes+r.Report.NodeAttributes, r.Report.Skipped)
	}
	return nil
}
