package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/bmgraph/internal/graph"
	"github.com/roach88/bmgraph/internal/store"
)

// Neighbors returns every edge touching the node with accession an, with
// edge attributes loaded. An unknown accession yields an empty slice.
func (e *Engine) Neighbors(ctx context.Context, an string) ([]*graph.Edge, error) {
	id, err := e.store.ResolveNodeID(ctx, an)
	if errors.Is(err, store.ErrNotFound) {
		return []*graph.Edge{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("neighbors of %q: %w", an, err)
	}

	edges, err := e.store.EdgesOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("neighbors of %q: %w", an, err)
	}
	for _, edge := range edges {
		if err := edge.Attributes.EnsureLoaded(ctx); err != nil {
			return nil, fmt.Errorf("neighbors of %q: %w", an, err)
		}
	}
	return edges, nil
}
