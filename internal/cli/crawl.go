package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bmgraph/internal/crawler"
)

// CrawlOptions holds flags for the crawl command.
type CrawlOptions struct {
	*RootOptions
	GraphFile  string
	OutFile    string
	WorkDir    string
	Params     []string
	Executable string
}

// NewCrawlCommand creates the crawl command.
func NewCrawlCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CrawlOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "crawl <query-node>...",
		Short: "Run the external crawler on a graph file",
		Long: `Run the external crawler executable in a working directory, passing the
graph file, output file and crawl parameters as flags and the query nodes on
standard input. The crawler's stderr is appended to its log file.

The command exits with the crawler's own status when it fails.

Examples:
  bmgraph crawl --graph in.bmg --out out.bmg Term_cat Term_dog
  bmgraph crawl --graph in.bmg --out out.bmg --workdir /tmp/run --param max_query_time=30 Term_cat`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.GraphFile, "graph", "", "input graph file (required)")
	cmd.Flags().StringVar(&opts.OutFile, "out", "", "output graph file (required)")
	cmd.Flags().StringVar(&opts.WorkDir, "workdir", ".", "working directory for the crawler")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "crawler parameter name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Executable, "executable", "", "crawler executable (default: config, $BMGRAPH_CRAWLER, or crawler)")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runCrawl(opts *CrawlOptions, nodes []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pairs, err := parsePairs("param", opts.Params)
	if err != nil {
		return err
	}
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		params[p[0]] = p[1]
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	crawlCfg := cfg.Crawler
	if opts.Executable != "" {
		crawlCfg.Executable = opts.Executable
	}
	crawlCfg.Logger = slog.Default()
	adapter := crawler.New(crawlCfg)

	// Keep stdout parseable in JSON mode.
	var stdout io.Writer = cmd.OutOrStdout()
	if formatter.Format == "json" {
		stdout = formatter.GetErrWriter()
	}
	for _, k := range sortedKeys(params) {
		formatter.VerboseLog("Parameter %s=%s", k, params[k])
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := adapter.Run(ctx, crawler.Request{
		GraphFile:  opts.GraphFile,
		OutFile:    opts.OutFile,
		WorkDir:    opts.WorkDir,
		QueryNodes: nodes,
		Params:     params,
		Stdout:     stdout,
	})
	if err != nil {
		var procErr *crawler.ProcessError
		switch {
		case errors.As(err, &procErr):
			if formatter.Format == "json" {
				_ = formatter.Error(ErrCodeProcess, "crawler failed", procErr.Error())
			}
			return WrapExitError(procErr.ExitCode, "crawler failed", err)
		case errors.Is(err, crawler.ErrWorkDirMissing), errors.Is(err, crawler.ErrNoQueryNodes):
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid crawl request", err)
		default:
			return formatter.Fail(ExitFailure, ErrCodeProcess, "crawler failed", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Crawl %s finished\n", result.RunID)
	fmt.Fprintf(formatter.Writer, "Log: %s\n", result.LogPath)
	return nil
}
