// Package crawler runs an external graph-traversal executable over a graph
// file.
//
// The executable is opaque. It receives the graph and output paths and its
// parameters as flags, reads the query nodes from stdin, and reports its
// diagnostics on stderr. The adapter validates the request, runs the
// process to completion and returns the exit status unchanged. It never
// retries.
//
// Two files in the working directory receive diagnostics. The crawler writes
// its own log to LogFile, which it is given with -logfile. The adapter
// appends a header and the captured stderr of every run to CaptureFile.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Defaults.
const (
	DefaultExecutable  = "crawler"
	DefaultLogFile     = "log.txt"
	DefaultCaptureFile = "crawl.log"
)

var (
	// ErrWorkDirMissing is returned when the working directory does not exist.
	ErrWorkDirMissing = errors.New("work directory does not exist")

	// ErrNoQueryNodes is returned when a request names no query nodes.
	ErrNoQueryNodes = errors.New("no query nodes defined")

	// ErrNoExecutable is returned when no executable is configured.
	ErrNoExecutable = errors.New("no crawler executable configured")

	// ErrCaptureCollision is returned when the capture file and the
	// crawler's own log file are the same.
	ErrCaptureCollision = errors.New("capture file must differ from the crawler log file")
)

// KnownParams lists the parameters the crawler executable understands.
// Other names are passed through with a warning.
var KnownParams = []string{
	"adjust_goodness_pairwise",
	"all_best_paths",
	"best_paths_only",
	"boost_trivial_links",
	"do_not_eliminate_spurious_paths",
	"do_not_output_degrees",
	"eliminate_redundant_links",
	"eliminate_spurious_paths",
	"initial_min_goodness",
	"max_nodes",
	"max_nodes_post",
	"max_query_time",
	"max_st_nodes",
	"max_st_pairs",
	"maxdepth",
	"maxnodedegree",
	"min_nodes",
	"min_st_nodes",
	"mingoodness",
	"mode",
	"no_acyclic_filter",
	"node_exclude_file",
	"node_include_file",
	"output_degrees",
	"prune_by_gub",
	"single_connected_component",
}

// DefaultParams returns the parameters applied when a request does not set
// them.
func DefaultParams() map[string]string {
	return map[string]string{"max_query_time": "5"}
}

// Config configures an Adapter.
type Config struct {
	Executable string `yaml:"executable"`
	// LogFile is passed to the crawler as -logfile.
	LogFile string `yaml:"log_file"`
	// CaptureFile receives run headers and stderr.
	CaptureFile string            `yaml:"capture_file"`
	Defaults    map[string]string `yaml:"defaults"`

	Logger *slog.Logger   `yaml:"-"`
	RunIDs RunIDGenerator `yaml:"-"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Executable:  DefaultExecutable,
		LogFile:     DefaultLogFile,
		CaptureFile: DefaultCaptureFile,
		Defaults:    DefaultParams(),
	}
}

// Request describes one crawl.
type Request struct {
	GraphFile  string
	OutFile    string
	WorkDir    string
	QueryNodes []string
	// Params override Config.Defaults key by key.
	Params map[string]string
	// Stdout receives the process's standard output. Nil discards it.
	Stdout io.Writer
}

// Result describes a finished crawl.
type Result struct {
	RunID    string   `json:"run_id"`
	ExitCode int      `json:"exit_code"`
	Args     []string `json:"args"`
	LogPath  string   `json:"log_path"`
}

// ProcessError reports a crawl that exited with a non-zero status.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("crawler exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("crawler exited with status %d: %s", e.ExitCode, msg)
}

// Adapter runs the crawler executable.
type Adapter struct {
	cfg Config
}

// New creates an Adapter. Empty Config fields take their defaults.
func New(cfg Config) *Adapter {
	if cfg.Executable == "" {
		cfg.Executable = DefaultExecutable
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
	if cfg.CaptureFile == "" {
		cfg.CaptureFile = DefaultCaptureFile
	}
	if cfg.Defaults == nil {
		cfg.Defaults = DefaultParams()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RunIDs == nil {
		cfg.RunIDs = UUIDv7Generator{}
	}
	return &Adapter{cfg: cfg}
}

// Args returns the command-line arguments for req, without the executable.
// Parameters follow the fixed flags, sorted by name.
func (a *Adapter) Args(req Request) []string {
	params := make(map[string]string, len(a.cfg.Defaults)+len(req.Params))
	for k, v := range a.cfg.Defaults {
		params[k] = v
	}
	for k, v := range req.Params {
		params[k] = v
	}

	args := []string{
		"-logfile", a.cfg.LogFile,
		"-graphfile", req.GraphFile,
		"-outfile", req.OutFile,
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		args = append(args, "-"+k, params[k])
	}
	return args
}

// Validate checks req without starting a process.
func (a *Adapter) Validate(req Request) error {
	info, err := os.Stat(req.WorkDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrWorkDirMissing, req.WorkDir)
	}
	if len(req.QueryNodes) == 0 {
		return ErrNoQueryNodes
	}
	if a.cfg.Executable == "" {
		return ErrNoExecutable
	}
	if filepath.Clean(a.cfg.CaptureFile) == filepath.Clean(a.cfg.LogFile) {
		return fmt.Errorf("%w: %s", ErrCaptureCollision, a.cfg.CaptureFile)
	}
	return nil
}

// Run starts the crawler for req and waits for it to exit.
//
// A non-zero exit status is reported both in Result.ExitCode and as a
// *ProcessError carrying the captured stderr.
func (a *Adapter) Run(ctx context.Context, req Request) (Result, error) {
	if err := a.Validate(req); err != nil {
		return Result{}, err
	}
	for k := range req.Params {
		if !slices.Contains(KnownParams, k) {
			a.cfg.Logger.Warn("unknown crawler parameter", "name", k)
		}
	}

	args := a.Args(req)
	result := Result{
		RunID:   a.cfg.RunIDs.Generate(),
		Args:    args,
		LogPath: filepath.Join(req.WorkDir, a.cfg.CaptureFile),
	}

	logFile, err := os.OpenFile(result.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return result, fmt.Errorf("open crawl log: %w", err)
	}
	defer logFile.Close()

	invocation := strings.Join(append([]string{a.cfg.Executable}, args...), " ")
	if _, err := fmt.Fprintf(logFile, "# Run %s\n# Working in %s\n# Executing: %s\n", result.RunID, req.WorkDir, invocation); err != nil {
		return result, fmt.Errorf("write crawl log header: %w", err)
	}

	cmd := exec.CommandContext(ctx, a.cfg.Executable, args...)
	cmd.Dir = req.WorkDir
	cmd.Stdout = req.Stdout

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return result, fmt.Errorf("crawler stdin: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return result, fmt.Errorf("crawler stderr: %w", err)
	}

	a.cfg.Logger.Debug("starting crawler",
		"run_id", result.RunID,
		"work_dir", req.WorkDir,
		"command", invocation,
		"query_nodes", len(req.QueryNodes),
	)
	if err := cmd.Start(); err != nil {
		return result, fmt.Errorf("start crawler: %w", err)
	}

	var captured bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		if _, err := io.WriteString(stdin, strings.Join(req.QueryNodes, " ")); err != nil {
			return fmt.Errorf("write query nodes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := io.Copy(io.MultiWriter(logFile, &captured), stderr); err != nil {
			return fmt.Errorf("read crawler stderr: %w", err)
		}
		return nil
	})
	pumpErr := g.Wait()
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		return result, fmt.Errorf("crawl: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		a.cfg.Logger.Warn("crawler failed", "run_id", result.RunID, "exit_code", result.ExitCode)
		return result, &ProcessError{ExitCode: result.ExitCode, Stderr: captured.String()}
	}
	if waitErr != nil {
		return result, fmt.Errorf("wait for crawler: %w", waitErr)
	}
	if pumpErr != nil {
		return result, pumpErr
	}

	a.cfg.Logger.Info("crawl complete", "run_id", result.RunID, "log", result.LogPath)
	return result, nil
}
