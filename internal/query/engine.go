package query

import (
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/bmgraph/internal/store"
)

// Defaults for theme expansion.
const (
	DefaultMaxFailures     = 10
	DefaultGoodnessLimit   = 200
	DefaultWeightAttribute = "llr"
)

var (
	// ErrNoNeighbors is returned by ThemeExpand when the seed term has no
	// neighbors in the graph.
	ErrNoNeighbors = errors.New("seed term has no neighbors")

	// ErrEmptyGraph is returned by RandomTheme when there is no node to draw.
	ErrEmptyGraph = errors.New("graph has no nodes")
)

// Options tunes theme expansion.
type Options struct {
	// MaxFailures is the number of expansion attempts that add no new term
	// before ThemeExpand gives up.
	MaxFailures int `yaml:"max_failures"`

	// GoodnessLimit caps both the neighbors taken per fetch and the length
	// of the goodness ranking.
	GoodnessLimit int `yaml:"goodness_limit"`

	// WeightAttribute names the edge attribute read as the edge weight.
	WeightAttribute string `yaml:"weight_attribute"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxFailures:     DefaultMaxFailures,
		GoodnessLimit:   DefaultGoodnessLimit,
		WeightAttribute: DefaultWeightAttribute,
	}
}

// Engine runs queries against a Store.
type Engine struct {
	store  *store.Store
	rng    *rand.Rand
	logger *slog.Logger
	opts   Options
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used by Sample, ThemeExpand and RandomTheme.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithOptions replaces the expansion options. Zero fields keep their
// defaults.
func WithOptions(o Options) Option {
	return func(e *Engine) {
		if o.MaxFailures > 0 {
			e.opts.MaxFailures = o.MaxFailures
		}
		if o.GoodnessLimit > 0 {
			e.opts.GoodnessLimit = o.GoodnessLimit
		}
		if o.WeightAttribute != "" {
			e.opts.WeightAttribute = o.WeightAttribute
		}
	}
}

// New creates an Engine over s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		logger: slog.Default(),
		opts:   DefaultOptions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// Options returns the effective expansion options.
func (e *Engine) Options() Options {
	return e.opts
}
