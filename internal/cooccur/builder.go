package cooccur

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultDelimiter separates sentences when Options.Delimiter is empty.
const DefaultDelimiter = ". "

// DefaultMinTokenLength drops tokens of two runes or fewer.
const DefaultMinTokenLength = 3

// progressEvery controls how often Build logs progress.
const progressEvery = 1000

// Options configures a Builder.
type Options struct {
	// Delimiter splits the corpus into sentences.
	Delimiter string `yaml:"delimiter"`

	// MinTokenLength is the minimum rune length of a kept token.
	MinTokenLength int `yaml:"min_token_length"`

	// MaxTokensPerSentence caps filtered tokens per sentence. Zero means no cap.
	// Pair registration is quadratic in this number.
	MaxTokensPerSentence int `yaml:"max_tokens_per_sentence"`
}

// DefaultOptions returns the builder defaults.
func DefaultOptions() Options {
	return Options{
		Delimiter:      DefaultDelimiter,
		MinTokenLength: DefaultMinTokenLength,
	}
}

// Pair is one scored co-occurring term pair. A <= B lexicographically.
type Pair struct {
	A     string
	B     string
	Score float64
}

// Stats summarizes a build.
type Stats struct {
	Sentences int
	Terms     int
	Pairs     int
}

// Result is the output of Build.
type Result struct {
	Pairs []Pair
	Stats Stats
}

// Builder turns a corpus into G2-scored co-occurrence pairs.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder returns a Builder. Zero-valued options fall back to defaults.
func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if opts.Delimiter == "" {
		opts.Delimiter = DefaultDelimiter
	}
	if opts.MinTokenLength <= 0 {
		opts.MinTokenLength = DefaultMinTokenLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{opts: opts, logger: logger}
}

// Build reads the whole corpus from r and scores every registered pair.
func (b *Builder) Build(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return b.BuildString(ctx, string(data))
}

// BuildString scores the pairs of an in-memory corpus.
func (b *Builder) BuildString(ctx context.Context, text string) (*Result, error) {
	sentences := strings.Split(norm.NFC.String(text), b.opts.Delimiter)
	idx := newTermIndex()

	for s, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		idx.addSentence(int32(s), b.tokens(sentence))

		if (s+1)%progressEvery == 0 {
			b.logger.Debug("indexing sentences", "done", s+1, "total", len(sentences))
		}
	}

	total := int64(len(sentences))
	pairs := make([]Pair, 0, len(idx.pairOrder))
	for i, key := range idx.pairOrder {
		if i%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("build: %w", err)
			}
		}
		a, bt := unpackPair(key)
		pairs = append(pairs, Pair{
			A:     idx.terms[a],
			B:     idx.terms[bt],
			Score: idx.score(a, bt, total),
		})
	}

	stats := Stats{
		Sentences: len(sentences),
		Terms:     len(idx.terms),
		Pairs:     len(pairs),
	}
	b.logger.Info("co-occurrence graph built",
		"sentences", stats.Sentences, "terms", stats.Terms, "pairs", stats.Pairs)

	return &Result{Pairs: pairs, Stats: stats}, nil
}

// tokens splits a sentence, drops short tokens, applies the cap and sorts.
func (b *Builder) tokens(sentence string) []string {
	fields := strings.Fields(sentence)
	kept := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= b.opts.MinTokenLength {
			kept = append(kept, f)
		}
	}
	if n := b.opts.MaxTokensPerSentence; n > 0 && len(kept) > n {
		kept = kept[:n]
	}
	sort.Strings(kept)
	return kept
}

// termIndex is the term-sentence index. Terms and sentences are arena
// indices so the pair loop never hashes strings.
type termIndex struct {
	ids     map[string]int32
	terms   []string
	members [][]int32 // term -> ascending sentence ordinals

	pairs     map[uint64]struct{}
	pairOrder []uint64
}

func newTermIndex() *termIndex {
	return &termIndex{
		ids:   make(map[string]int32),
		pairs: make(map[uint64]struct{}),
	}
}

func (x *termIndex) intern(term string) int32 {
	if id, ok := x.ids[term]; ok {
		return id
	}
	id := int32(len(x.terms))
	x.ids[term] = id
	x.terms = append(x.terms, term)
	x.members = append(x.members, nil)
	return id
}

// addSentence records membership and registers pairs for sorted tokens.
// Duplicate tokens register too, including a term paired with itself.
func (x *termIndex) addSentence(s int32, tokens []string) {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = x.intern(tok)
	}
	for i, a := range ids {
		m := x.members[a]
		if len(m) == 0 || m[len(m)-1] != s {
			x.members[a] = append(m, s)
		}
		for _, b := range ids[i+1:] {
			key := packPair(a, b)
			if _, ok := x.pairs[key]; !ok {
				x.pairs[key] = struct{}{}
				x.pairOrder = append(x.pairOrder, key)
			}
		}
	}
}

// score derives the contingency table of (a, b) over total sentences.
func (x *termIndex) score(a, b int32, total int64) float64 {
	sa, sb := x.members[a], x.members[b]
	both := int64(intersectCount(sa, sb))
	onlyA := int64(len(sa)) - both
	onlyB := int64(len(sb)) - both
	neither := total - (int64(len(sa)) + int64(len(sb)) - both)
	return LogLikelihood(both, onlyB, onlyA, neither)
}

func packPair(a, b int32) uint64 {
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

func unpackPair(key uint64) (int32, int32) {
	return int32(uint32(key >> 32)), int32(uint32(key))
}

// intersectCount counts common elements of two ascending slices.
func intersectCount(a, b []int32) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}
