package query

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bmgraph/internal/store"
)

// newTestEngine ingests lines into a fresh store and returns an engine with
// a fixed random seed.
func newTestEngine(t *testing.T, lines ...string) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	if len(lines) > 0 {
		_, err = s.Ingest(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
		require.NoError(t, err)
	}
	return New(s, WithRand(rand.New(rand.NewPCG(1, 2)))), s
}

func TestNeighbors_RoundTrip(t *testing.T) {
	e, _ := newTestEngine(t, "Term_cat Term_dog is_related_to llr=14.2")
	ctx := context.Background()

	edges, err := e.Neighbors(ctx, "cat")
	require.NoError(t, err)
	require.Len(t, edges, 1)

	assert.True(t, edges[0].Attributes.Loaded(), "attributes should be populated")
	llr := edges[0].Attributes.Cached().All("llr")
	require.Len(t, llr, 1)
	assert.Equal(t, "14.2", llr[0].TextValue())
	assert.Equal(t, "dog", edges[0].Other(edges[0].N1.ID).Accession)
}

func TestNeighbors_UnknownAccession(t *testing.T) {
	e, _ := newTestEngine(t)

	edges, err := e.Neighbors(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, edges)
	assert.Empty(t, edges)
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"flaw", "lawn", 2},
		{"Cat", "cAT", 0},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
		})
	}
}

func TestLevenshtein_IdentityAndSymmetry(t *testing.T) {
	words := []string{"", "a", "cat", "housecat", "kitten", "sitting", "ääkkönen"}
	for _, x := range words {
		assert.Equal(t, 0, Levenshtein(x, x), "distance(%q, %q)", x, x)
		for _, y := range words {
			assert.Equal(t, Levenshtein(x, y), Levenshtein(y, x), "symmetry for %q, %q", x, y)
		}
	}
}

func TestSuggest_RanksAttributeMatches(t *testing.T) {
	e, _ := newTestEngine(t,
		"# _attributes Term_cat label=Housecat label=cats",
		"# _attributes Term_lion synonym=big+cat",
		"# _attributes Term_dog label=hound",
	)

	got, err := e.Suggest(context.Background(), "cat", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "cat", got[0].Node.Accession)
	assert.Equal(t, "cats", got[0].Key)
	assert.Equal(t, 1, got[0].Distance)

	assert.Equal(t, "lion", got[1].Node.Accession)
	assert.Equal(t, "big cat", got[1].Key)
	assert.Equal(t, 4, got[1].Distance)
}

func TestSuggest_FieldFilter(t *testing.T) {
	e, _ := newTestEngine(t,
		"# _attributes Term_cat label=cat",
		"# _attributes Term_lion synonym=big+cat",
	)

	got, err := e.Suggest(context.Background(), "cat", []string{"synonym"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lion", got[0].Node.Accession)
}

func TestSuggest_FallsBackToAccession(t *testing.T) {
	e, _ := newTestEngine(t,
		"Term_dog Term_dodo is_related_to llr=1",
		"Term_cat Term_dog is_related_to llr=2",
	)

	got, err := e.Suggest(context.Background(), "do", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dog", got[0].Key)
	assert.Equal(t, 1, got[0].Distance)
	assert.Equal(t, "dodo", got[1].Key)
	assert.Equal(t, 2, got[1].Distance)
}

func TestSuggest_TiesByNodeID(t *testing.T) {
	e, _ := newTestEngine(t, "Term_bat Term_cat is_related_to llr=1")

	got, err := e.Suggest(context.Background(), "at", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bat", got[0].Key)
	assert.Equal(t, "cat", got[1].Key)
}

func TestSample_CountCoversAll(t *testing.T) {
	e, _ := newTestEngine(t,
		"Term_a Term_b rel",
		"Term_c Term_d rel",
		"Term_e Term_a rel",
	)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		nodes, err := e.Sample(ctx, 5+i, nil)
		require.NoError(t, err)
		require.Len(t, nodes, 5)

		seen := map[string]bool{}
		for _, n := range nodes {
			assert.False(t, seen[n.Accession], "duplicate %s", n.Accession)
			seen[n.Accession] = true
		}
	}
}

func TestSample_Distinct(t *testing.T) {
	e, _ := newTestEngine(t,
		"Term_a Term_b rel",
		"Term_c Term_d rel",
		"Term_e Term_f rel",
		"Term_g Term_h rel",
	)

	nodes, err := e.Sample(context.Background(), 3, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	seen := map[int64]bool{}
	for _, n := range nodes {
		assert.False(t, seen[n.ID], "duplicate id %d", n.ID)
		seen[n.ID] = true
	}
}

func TestSample_Constraints(t *testing.T) {
	e, _ := newTestEngine(t,
		"# _attributes Term_a pos=noun",
		"# _attributes Term_b pos=verb",
		"# _attributes Term_c pos=noun",
		"# _attributes Term_d pos=verb",
		"# _attributes Term_e pos=noun",
	)
	nouns := []store.Constraint{{Name: "pos", Value: "noun"}}

	for i := 0; i < 5; i++ {
		nodes, err := e.Sample(context.Background(), 2, nouns)
		require.NoError(t, err)
		require.Len(t, nodes, 2)
		for _, n := range nodes {
			assert.Contains(t, []string{"a", "c", "e"}, n.Accession)
		}
	}
}

// drawCounts tallies the accessions returned by n single-node draws.
func drawCounts(t *testing.T, e *Engine, n int) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		nodes, err := e.Sample(context.Background(), 1, nil)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		counts[nodes[0].Accession]++
	}
	return counts
}

// Draws pick a floor in [0, maxID) and take the first node at or after it,
// so the lowest id absorbs floor 0 and the highest id is never drawn.
func TestSample_IDFloorBias(t *testing.T) {
	e, _ := newTestEngine(t, "Term_a Term_b rel", "Term_c Term_d rel")

	counts := drawCounts(t, e, 8000)

	assert.Zero(t, counts["d"], "highest id is never drawn")
	ratio := float64(counts["a"]) / float64(counts["b"])
	assert.InDelta(t, 2.0, ratio, 0.3, "lowest id drawn about twice as often: %v", counts)
	assert.InDelta(t, 1.0, float64(counts["b"])/float64(counts["c"]), 0.2, "%v", counts)
}

func TestSample_IDGapBias(t *testing.T) {
	e, s := newTestEngine(t, "Term_a Term_b rel", "# _attributes Term_c pos=noun")
	_, err := s.DB().Exec(`INSERT INTO node (id, an, type) VALUES (10, 'j', 'Term'), (11, 'k', 'Term')`)
	require.NoError(t, err)

	counts := drawCounts(t, e, 8000)

	// Floors 4 through 10 all land on id 10.
	assert.Zero(t, counts["k"], "highest id is never drawn")
	assert.Greater(t, counts["j"], 5*counts["b"], "node after the gap is over-drawn: %v", counts)
	assert.InDelta(t, 7.0/11.0, float64(counts["j"])/8000, 0.05, "%v", counts)
}

func TestSample_ZeroCount(t *testing.T) {
	e, _ := newTestEngine(t, "Term_a Term_b rel")

	nodes, err := e.Sample(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestRandomTheme(t *testing.T) {
	e, _ := newTestEngine(t, "Term_a Term_b rel", "Term_c Term_d rel")

	theme, err := e.RandomTheme(context.Background())
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b", "c", "d"}, theme)
}

func TestRandomTheme_EmptyGraph(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.RandomTheme(context.Background())
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestThemeExpand_NoNeighbors(t *testing.T) {
	e, _ := newTestEngine(t, "Term_cat Term_dog is_related_to llr=1")

	theme, err := e.ThemeExpand(context.Background(), "ghost", 5)
	assert.ErrorIs(t, err, ErrNoNeighbors)
	assert.Empty(t, theme.Terms)
	assert.Empty(t, theme.Goodness)
}

func TestThemeExpand_TerminatesWhenGraphTooSmall(t *testing.T) {
	e, _ := newTestEngine(t, "Term_cat Term_dog is_related_to llr=14.2")

	theme, err := e.ThemeExpand(context.Background(), "cat", 50)
	require.NoError(t, err)

	assert.Equal(t, []string{"cat", "dog"}, theme.Terms)
	require.Len(t, theme.Goodness, 2)
	assert.Equal(t, Goodness{Term: "cat", Weight: SeedGoodness}, theme.Goodness[0])
	assert.Equal(t, Goodness{Term: "dog", Weight: 14.2}, theme.Goodness[1])
}

func TestThemeExpand_GrowsThroughNeighbors(t *testing.T) {
	e, _ := newTestEngine(t,
		"Term_cat Term_dog is_related_to llr=5",
		"Term_dog Term_mouse is_related_to llr=3",
		"Term_mouse Term_cheese is_related_to llr=2",
	)

	theme, err := e.ThemeExpand(context.Background(), "cat", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"cat", "dog", "mouse"}, theme.Terms)
	assert.Equal(t, []Goodness{
		{Term: "cat", Weight: SeedGoodness},
		{Term: "dog", Weight: 5},
		{Term: "mouse", Weight: 3},
	}, theme.Goodness)
}

func TestThemeExpand_BestWeightAndLimit(t *testing.T) {
	e, s := newTestEngine(t,
		"Term_hub Term_l1 is_related_to llr=1",
		"Term_hub Term_l2 is_related_to llr=2",
		"Term_hub Term_l3 is_related_to llr=3",
		"Term_hub Term_l4 is_related_to llr=4 llr=0.5",
		"Term_hub Term_l5 is_related_to llr=n/a",
		"Term_l1 Term_hub is_related_to llr=9",
	)
	e = New(s,
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithOptions(Options{GoodnessLimit: 3}),
	)
	assert.Equal(t, DefaultMaxFailures, e.Options().MaxFailures)

	theme, err := e.ThemeExpand(context.Background(), "hub", 0)
	require.NoError(t, err)

	// Per-fetch cap keeps l1 (best of 1 and 9), l4 and l3.
	assert.Equal(t, []string{"hub", "l1", "l4", "l3"}, theme.Terms)
	assert.Equal(t, []Goodness{
		{Term: "hub", Weight: SeedGoodness},
		{Term: "l1", Weight: 9},
		{Term: "l4", Weight: 4},
	}, theme.Goodness)
}

func TestThemeExpand_Cancelled(t *testing.T) {
	e, _ := newTestEngine(t, "Term_cat Term_dog is_related_to llr=1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ThemeExpand(ctx, "cat", 10)
	assert.Error(t, err)
}
