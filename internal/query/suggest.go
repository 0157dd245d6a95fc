package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/bmgraph/internal/graph"
)

// Suggestion is a node ranked against a search pattern.
type Suggestion struct {
	Node *graph.Node
	// Key is the string the distance was measured on: the closest matching
	// attribute value, or the accession when matching fell back to it.
	Key      string
	Distance int
}

// Suggest finds nodes whose text attributes contain pattern, searching only
// the named fields when fields is non-empty. When no attribute matches, it
// falls back to accessions containing pattern. Results are ranked by
// case-folded edit distance between pattern and each node's key, ties broken
// by node id.
func (e *Engine) Suggest(ctx context.Context, pattern string, fields []string) ([]Suggestion, error) {
	matches, err := e.store.NodesWithAttributeLike(ctx, pattern, fields)
	if err != nil {
		return nil, fmt.Errorf("suggest %q: %w", pattern, err)
	}

	suggestions := []Suggestion{}
	if len(matches) == 0 {
		nodes, err := e.store.NodesWithAccessionLike(ctx, pattern)
		if err != nil {
			return nil, fmt.Errorf("suggest %q: %w", pattern, err)
		}
		for _, n := range nodes {
			suggestions = append(suggestions, Suggestion{
				Node:     n,
				Key:      n.Accession,
				Distance: Levenshtein(pattern, n.Accession),
			})
		}
	} else {
		best := make(map[int64]int)
		for _, m := range matches {
			d := Levenshtein(pattern, m.Value)
			if i, ok := best[m.Node.ID]; ok {
				if d < suggestions[i].Distance {
					suggestions[i].Key = m.Value
					suggestions[i].Distance = d
				}
				continue
			}
			best[m.Node.ID] = len(suggestions)
			suggestions = append(suggestions, Suggestion{Node: m.Node, Key: m.Value, Distance: d})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Distance != suggestions[j].Distance {
			return suggestions[i].Distance < suggestions[j].Distance
		}
		return suggestions[i].Node.ID < suggestions[j].Node.ID
	})

	e.logger.Debug("suggest", "pattern", pattern, "fields", fields, "results", len(suggestions))
	return suggestions, nil
}
