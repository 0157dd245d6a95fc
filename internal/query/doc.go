// Package query answers read-side questions against a graph store.
//
// The Engine resolves neighbors of a term, ranks suggestions for a partial
// pattern by edit distance, draws random node samples, and grows a theme of
// related terms outward from a seed.
//
// Sampling is rejection based: a random floor below the largest node id is
// drawn and the first node at or above it is taken. Nodes that follow a gap
// in the id sequence are therefore more likely to be drawn. This bias is
// kept so that samples stay comparable with existing datasets.
//
// Randomness comes from an injected *rand.Rand so tests can fix the seed.
package query
