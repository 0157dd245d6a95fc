package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/bmgraph/internal/edgelist"
)

func TestIngest_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	report := ingestString(t, s, "Term_cat Term_dog is_related_to llr=14.2")

	if report.Edges != 1 || report.NodesCreated != 2 || report.EdgeAttributes != 1 {
		t.Errorf("report = %+v, want 1 edge, 2 nodes, 1 edge attribute", report)
	}

	catID, err := s.ResolveNodeID(ctx, "cat")
	if err != nil {
		t.Fatalf("ResolveNodeID(cat) failed: %v", err)
	}
	edges, err := s.EdgesOf(ctx, catID)
	if err != nil {
		t.Fatalf("EdgesOf() failed: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}

	e := edges[0]
	if e.N1.Accession != "cat" || e.N2.Accession != "dog" || e.Type != "is_related_to" {
		t.Errorf("edge = %s-%s %s, want cat-dog is_related_to", e.N1.Accession, e.N2.Accession, e.Type)
	}
	llr, err := e.Attributes.Get(ctx, "llr")
	if err != nil {
		t.Fatalf("Get(llr) failed: %v", err)
	}
	if len(llr) != 1 || llr[0].TextValue() != "14.2" {
		t.Errorf("llr = %v, want [14.2]", llr)
	}
}

func TestIngest_ReusesNodes(t *testing.T) {
	s := createTestStore(t)

	report := ingestString(t, s,
		"# _symmetric is_related_to",
		"Term_cat Term_dog is_related_to llr=14.2 fill=gray",
		"Term_cat Term_mouse is_related_to llr=3.5 fill=gray",
		"Term_dog Term_mouse is_related_to llr=1.5 fill=gray",
	)

	if report.NodesCreated != 3 {
		t.Errorf("nodes created = %d, want 3", report.NodesCreated)
	}
	if report.Edges != 3 || report.EdgeAttributes != 6 {
		t.Errorf("report = %+v, want 3 edges and 6 edge attributes", report)
	}
	if len(report.Symmetric) != 1 || report.Symmetric[0] != "is_related_to" {
		t.Errorf("symmetric = %v, want [is_related_to]", report.Symmetric)
	}

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	want := Stats{Nodes: 3, Edges: 3, EdgeAttributes: 6}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestIngest_SkipsMalformedRows(t *testing.T) {
	s := createTestStore(t)

	report := ingestString(t, s,
		"Term_cat Term_dog",
		"cat dog is_related_to",
		"Term_cat Term_dog is_related_to llr",
		"Term_cat Term_dog is_related_to llr=14.2",
	)

	if report.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", report.Skipped)
	}
	if report.Edges != 1 {
		t.Errorf("edges = %d, want 1", report.Edges)
	}
}

func TestIngest_SkipsTypeCollision(t *testing.T) {
	s := createTestStore(t)

	report := ingestString(t, s,
		"Term_cat Term_dog is_related_to llr=1",
		"Animal_cat Term_bird is_related_to llr=2",
	)

	if report.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", report.Skipped)
	}
	if _, err := s.ResolveNodeID(context.Background(), "bird"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bird should not exist after a skipped row, err = %v", err)
	}
}

func TestIngest_SkipsUnusableWeights(t *testing.T) {
	s := createTestStore(t, WithWeightAttribute("llr", "NA"))
	ctx := context.Background()

	report := ingestString(t, s,
		"Term_cat Term_dog is_related_to llr=14.2",
		"Term_cat Term_bird is_related_to llr=NA",
		"Term_cat Term_fish is_related_to llr=abc",
		"Term_cat Term_mouse is_related_to fill=gray",
	)

	if report.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", report.Skipped)
	}
	if report.Edges != 2 {
		t.Errorf("edges = %d, want 2", report.Edges)
	}
	for _, an := range []string{"bird", "fish"} {
		if _, err := s.ResolveNodeID(ctx, an); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s should not exist after a skipped row, err = %v", an, err)
		}
	}
}

func TestIngest_WeightCheckDisabledByDefault(t *testing.T) {
	s := createTestStore(t)

	report := ingestString(t, s,
		"Term_cat Term_bird is_related_to llr=NA",
		"Term_cat Term_fish is_related_to llr=abc",
	)

	if report.Skipped != 0 || report.Edges != 2 {
		t.Errorf("report = %+v, want 2 edges and nothing skipped", report)
	}
}

func TestIngest_SymmetricHeaderIsAdvisory(t *testing.T) {
	ctx := context.Background()

	for _, header := range []string{"# _symmetric is_related_to", "# directed"} {
		s := createTestStore(t)
		report := ingestString(t, s, header, "Term_cat Term_dog is_related_to llr=1")

		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats() failed: %v", err)
		}
		if stats != (Stats{Nodes: 2, Edges: 1, EdgeAttributes: 1}) {
			t.Errorf("%q: stats = %+v, header must not add rows", header, stats)
		}

		dogID, err := s.ResolveNodeID(ctx, "dog")
		if err != nil {
			t.Fatalf("ResolveNodeID(dog) failed: %v", err)
		}
		edges, err := s.EdgesOf(ctx, dogID)
		if err != nil {
			t.Fatalf("EdgesOf() failed: %v", err)
		}
		if len(edges) != 1 {
			t.Errorf("%q: dog has %d edges, want 1 in either direction (symmetric=%v)", header, len(edges), report.Symmetric)
		}
	}
}

func TestIngest_NodeDirectives(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	report := ingestString(t, s,
		"# _attributes Term_cat label=big+cat",
		"# _special Term_cat",
		"# _special Term_cat",
	)

	if report.NodeAttributes != 2 {
		t.Errorf("node attributes = %d, want 2", report.NodeAttributes)
	}

	n, err := s.NodeByAccession(ctx, "cat")
	if err != nil {
		t.Fatalf("NodeByAccession() failed: %v", err)
	}
	label, _ := n.Attributes.Get(ctx, "label")
	if len(label) != 1 || label[0].TextValue() != "big cat" {
		t.Errorf("label = %v, want [big cat]", label)
	}
	special, _ := n.Attributes.Get(ctx, edgelist.SpecialAttribute)
	if len(special) != 1 || !special[0].BoolValue() {
		t.Errorf("special = %v, want [true]", special)
	}
}

func TestIngest_MalformedHeaderRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	input := strings.Join([]string{
		"Term_cat Term_dog is_related_to llr=14.2",
		"# _symmetric",
		"Term_cat Term_mouse is_related_to llr=3.5",
	}, "\n")

	_, err := s.Ingest(ctx, strings.NewReader(input))
	if !errors.Is(err, edgelist.ErrMalformedHeader) {
		t.Fatalf("err = %v, want ErrMalformedHeader", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("stats = %+v, want an empty store after rollback", stats)
	}
}

func TestIngest_CancelledRollsBack(t *testing.T) {
	s := createTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Ingest(ctx, strings.NewReader("Term_cat Term_dog is_related_to llr=1"))
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}

	count, _ := s.NodeCount(context.Background())
	if count != 0 {
		t.Errorf("node count = %d, want 0", count)
	}
}

func TestIngestFile(t *testing.T) {
	s := createTestStore(t)
	path := filepath.Join(t.TempDir(), "graph.bmg")
	if err := os.WriteFile(path, []byte("Term_cat Term_dog is_related_to llr=14.2\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	report, err := s.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile() failed: %v", err)
	}
	if report.Edges != 1 {
		t.Errorf("edges = %d, want 1", report.Edges)
	}

	if _, err := s.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
