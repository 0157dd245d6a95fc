package query

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// SeedGoodness is the goodness assigned to the seed term. It outranks every
// finite edge weight.
const SeedGoodness = math.MaxFloat64

// Goodness pairs a term with its best edge weight.
type Goodness struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Theme is the result of expanding a seed term.
type Theme struct {
	// Terms holds the seed followed by every collected term, best first.
	Terms []string `json:"terms"`
	// Goodness ranks the seed and the best collected terms, at most
	// GoodnessLimit entries.
	Goodness []Goodness `json:"goodness"`
}

// ThemeExpand grows a set of terms related to seed.
//
// It starts from the neighbors of seed and, while fewer than minWords terms
// are collected, fetches the neighbors of a randomly chosen collected term
// and merges them in. An attempt that adds no new term counts as a failure;
// expansion stops after MaxFailures failures even if minWords is not met.
// A term's weight is the largest numeric value of the weight attribute over
// the edges it was reached through.
//
// If seed has no neighbors the result is empty and the error is
// ErrNoNeighbors.
func (e *Engine) ThemeExpand(ctx context.Context, seed string, minWords int) (Theme, error) {
	first, err := e.termWeights(ctx, seed)
	if err != nil {
		return Theme{}, err
	}
	if len(first) == 0 {
		return Theme{}, fmt.Errorf("theme %q: %w", seed, ErrNoNeighbors)
	}

	collected := make(map[string]float64, len(first))
	order := make([]string, 0, len(first))
	merge := func(ws []Goodness) int {
		added := 0
		for _, w := range ws {
			if w.Term == seed {
				continue
			}
			old, ok := collected[w.Term]
			if !ok {
				order = append(order, w.Term)
				collected[w.Term] = w.Weight
				added++
				continue
			}
			if w.Weight > old {
				collected[w.Term] = w.Weight
			}
		}
		return added
	}
	merge(first)

	failures := 0
	for len(collected) < minWords && failures < e.opts.MaxFailures {
		if err := ctx.Err(); err != nil {
			return Theme{}, fmt.Errorf("theme %q: %w", seed, err)
		}
		pick := order[e.rng.IntN(len(order))]
		more, err := e.termWeights(ctx, pick)
		if err != nil {
			return Theme{}, err
		}
		if merge(more) == 0 {
			failures++
			e.logger.Debug("theme expansion stalled", "seed", seed, "via", pick, "failures", failures)
		}
	}

	ranked := make([]Goodness, 0, len(order))
	for _, term := range order {
		ranked = append(ranked, Goodness{Term: term, Weight: collected[term]})
	}
	sortGoodness(ranked)

	theme := Theme{
		Terms:    make([]string, 0, len(ranked)+1),
		Goodness: make([]Goodness, 0, min(len(ranked)+1, e.opts.GoodnessLimit)),
	}
	theme.Terms = append(theme.Terms, seed)
	theme.Goodness = append(theme.Goodness, Goodness{Term: seed, Weight: SeedGoodness})
	for _, g := range ranked {
		theme.Terms = append(theme.Terms, g.Term)
		if len(theme.Goodness) < e.opts.GoodnessLimit {
			theme.Goodness = append(theme.Goodness, g)
		}
	}

	e.logger.Debug("theme expanded",
		"seed", seed,
		"min_words", minWords,
		"terms", len(collected),
		"failures", failures,
	)
	return theme, nil
}

// termWeights returns the terms adjacent to an with their best weight,
// strongest first, capped at GoodnessLimit.
func (e *Engine) termWeights(ctx context.Context, an string) ([]Goodness, error) {
	edges, err := e.Neighbors(ctx, an)
	if err != nil {
		return nil, err
	}

	best := make(map[string]float64)
	for _, edge := range edges {
		weight := 0.0
		if attrs := edge.Attributes.Cached(); attrs != nil {
			found := false
			for _, v := range attrs.All(e.opts.WeightAttribute) {
				if f, ok := v.Float(); ok && (!found || f > weight) {
					weight = f
					found = true
				}
			}
		}
		for _, n := range []string{edge.N1.Accession, edge.N2.Accession} {
			if n == an {
				continue
			}
			if old, ok := best[n]; !ok || weight > old {
				best[n] = weight
			}
		}
	}

	ws := make([]Goodness, 0, len(best))
	for term, w := range best {
		ws = append(ws, Goodness{Term: term, Weight: w})
	}
	sortGoodness(ws)
	if len(ws) > e.opts.GoodnessLimit {
		ws = ws[:e.opts.GoodnessLimit]
	}
	return ws, nil
}

// sortGoodness orders by weight descending, then term ascending.
func sortGoodness(ws []Goodness) {
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].Weight != ws[j].Weight {
			return ws[i].Weight > ws[j].Weight
		}
		return ws[i].Term < ws[j].Term
	})
}
