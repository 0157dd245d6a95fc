package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/bmgraph/internal/graph"
)

func TestEdgesOf_BothEndpointsDeduplicated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ingestString(t, s,
		"Term_cat Term_dog is_related_to llr=1",
		"Term_mouse Term_cat is_related_to llr=2",
		"Term_cat Term_cat is_related_to llr=3",
		"Term_dog Term_mouse is_related_to llr=4",
	)

	catID, _ := s.ResolveNodeID(ctx, "cat")
	edges, err := s.EdgesOf(ctx, catID)
	if err != nil {
		t.Fatalf("EdgesOf() failed: %v", err)
	}
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i-1].ID >= edges[i].ID {
			t.Errorf("edges not ordered by id: %d before %d", edges[i-1].ID, edges[i].ID)
		}
	}
	// The self loop shares one node view for both endpoints.
	loop := edges[2]
	if loop.N1 != loop.N2 {
		t.Error("self loop endpoints should be the same view")
	}
	if loop.Attributes.Loaded() {
		t.Error("EdgesOf must not populate attributes")
	}
}

func TestEdgesOf_NoEdges(t *testing.T) {
	s := createTestStore(t)

	edges, err := s.EdgesOf(context.Background(), 99)
	if err != nil {
		t.Fatalf("EdgesOf() failed: %v", err)
	}
	if edges == nil || len(edges) != 0 {
		t.Errorf("edges = %v, want empty non-nil slice", edges)
	}
}

func TestNode_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Node(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Node() err = %v, want ErrNotFound", err)
	}
	if _, err := s.NodeByAccession(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("NodeByAccession() err = %v, want ErrNotFound", err)
	}
}

func TestCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ingestString(t, s,
		"# _attributes Term_cat label=cat",
		"Term_cat Term_dog is_related_to llr=1 fill=gray",
	)

	checks := []struct {
		name string
		fn   func(context.Context) (int64, error)
		want int64
	}{
		{"nodes", s.NodeCount, 2},
		{"edges", s.EdgeCount, 1},
		{"node attributes", s.NodeAttributeCount, 1},
		{"edge attributes", s.EdgeAttributeCount, 2},
	}
	for _, c := range checks {
		got, err := c.fn(ctx)
		if err != nil {
			t.Fatalf("%s count failed: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestNodesWithAttributeLike(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ingestString(t, s,
		"# _attributes Term_cat label=Housecat synonym=feline",
		"# _attributes Term_dog label=hound",
		"# _attributes Term_lion synonym=big+cat",
	)

	matches, err := s.NodesWithAttributeLike(ctx, "cat", nil)
	if err != nil {
		t.Fatalf("NodesWithAttributeLike() failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Node.Accession != "cat" || matches[0].Value != "Housecat" {
		t.Errorf("first match = %s/%s", matches[0].Node.Accession, matches[0].Value)
	}
	if matches[1].Node.Accession != "lion" || matches[1].Value != "big cat" {
		t.Errorf("second match = %s/%s", matches[1].Node.Accession, matches[1].Value)
	}

	matches, err = s.NodesWithAttributeLike(ctx, "cat", []string{"synonym"})
	if err != nil {
		t.Fatalf("NodesWithAttributeLike(fields) failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Node.Accession != "lion" {
		t.Errorf("field filter matches = %v", matches)
	}
}

func TestNodesWithAccessionLike_EscapesWildcards(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ingestString(t, s, "Term_100% Term_1000 rel")

	nodes, err := s.NodesWithAccessionLike(ctx, "0%")
	if err != nil {
		t.Fatalf("NodesWithAccessionLike() failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Accession != "100%" {
		t.Errorf("nodes = %v, want only 100%%", nodes)
	}
}

func TestSamplingPrimitives_WithConstraints(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ingestString(t, s,
		"# _attributes Term_a pos=noun",
		"# _attributes Term_b pos=verb",
		"# _attributes Term_c pos=noun",
		"# _attributes Term_d pos=verb",
	)
	nouns := []Constraint{{Name: "pos", Value: "noun"}}

	n, err := s.CountNodes(ctx, nouns)
	if err != nil || n != 2 {
		t.Errorf("CountNodes(nouns) = %d, %v; want 2", n, err)
	}
	maxID, err := s.MaxNodeID(ctx, nouns)
	if err != nil {
		t.Fatalf("MaxNodeID() failed: %v", err)
	}
	cID, _ := s.ResolveNodeID(ctx, "c")
	if maxID != cID {
		t.Errorf("MaxNodeID(nouns) = %d, want %d", maxID, cID)
	}

	bID, _ := s.ResolveNodeID(ctx, "b")
	node, err := s.NodeAtOrAfter(ctx, bID, nouns)
	if err != nil {
		t.Fatalf("NodeAtOrAfter() failed: %v", err)
	}
	if node.Accession != "c" {
		t.Errorf("NodeAtOrAfter(b, nouns) = %s, want c", node.Accession)
	}

	if _, err := s.NodeAtOrAfter(ctx, maxID+1, nouns); !errors.Is(err, ErrNotFound) {
		t.Errorf("NodeAtOrAfter past max err = %v, want ErrNotFound", err)
	}

	all, err := s.AllNodes(ctx, nil)
	if err != nil || len(all) != 4 {
		t.Errorf("AllNodes(nil) = %d nodes, %v; want 4", len(all), err)
	}

	empty, err := s.MaxNodeID(ctx, []Constraint{{Name: "pos", Value: "adj"}})
	if err != nil || empty != 0 {
		t.Errorf("MaxNodeID(no match) = %d, %v; want 0", empty, err)
	}
}

func TestLoadAttributes_Empty(t *testing.T) {
	s := createTestStore(t)

	attrs, err := s.LoadAttributes(context.Background(), graph.EdgeEntity, 42)
	if err != nil {
		t.Fatalf("LoadAttributes() failed: %v", err)
	}
	if attrs.Len() != 0 {
		t.Errorf("len = %d, want 0", attrs.Len())
	}
}
