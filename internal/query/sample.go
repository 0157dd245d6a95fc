package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/bmgraph/internal/graph"
	"github.com/roach88/bmgraph/internal/store"
)

// Sample draws count distinct nodes matching constraints.
//
// When count is at least the number of matching nodes, every matching node
// is returned in id order. Otherwise nodes are drawn by rejection sampling in
// draw order.
func (e *Engine) Sample(ctx context.Context, count int, constraints []store.Constraint) ([]*graph.Node, error) {
	if count <= 0 {
		return []*graph.Node{}, nil
	}

	total, err := e.store.CountNodes(ctx, constraints)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	if int64(count) >= total {
		nodes, err := e.store.AllNodes(ctx, constraints)
		if err != nil {
			return nil, fmt.Errorf("sample: %w", err)
		}
		return nodes, nil
	}

	maxID, err := e.store.MaxNodeID(ctx, constraints)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}

	seen := make(map[int64]struct{}, count)
	nodes := make([]*graph.Node, 0, count)
	rejected := 0
	for len(nodes) < count {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sample: %w", err)
		}
		floor := e.rng.Int64() % maxID
		n, err := e.store.NodeAtOrAfter(ctx, floor, constraints)
		if errors.Is(err, store.ErrNotFound) {
			rejected++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sample: %w", err)
		}
		if _, dup := seen[n.ID]; dup {
			rejected++
			continue
		}
		seen[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}

	e.logger.Debug("sample drawn", "count", count, "total", total, "rejected", rejected)
	return nodes, nil
}

// RandomTheme picks one node at random and returns its accession.
func (e *Engine) RandomTheme(ctx context.Context) (string, error) {
	nodes, err := e.Sample(ctx, 1, nil)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", ErrEmptyGraph
	}
	return nodes[0].Accession, nil
}
