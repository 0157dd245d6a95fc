package graph

import (
	"strings"
)

// Node is a transient view of a persisted node.
type Node struct {
	ID         int64
	Accession  string
	Type       string
	Attributes *AttributeStore
}

// NewNode returns a node view whose attributes load through loader.
func NewNode(id int64, accession, typ string, loader AttributeLoader) *Node {
	return &Node{
		ID:         id,
		Accession:  accession,
		Type:       typ,
		Attributes: NewAttributeStore(NodeEntity, id, loader),
	}
}

// TypedName returns the edge-list token for the node, e.g. "Term_cat".
func (n *Node) TypedName() string {
	return TypedName(n.Type, n.Accession)
}

// Edge is a transient view of a persisted edge.
// Edges keep endpoint order but are treated as undirected.
type Edge struct {
	ID         int64
	N1         *Node
	N2         *Node
	Type       string
	Attributes *AttributeStore
}

// NewEdge returns an edge view whose attributes load through loader.
func NewEdge(id int64, n1, n2 *Node, typ string, loader AttributeLoader) *Edge {
	return &Edge{
		ID:         id,
		N1:         n1,
		N2:         n2,
		Type:       typ,
		Attributes: NewAttributeStore(EdgeEntity, id, loader),
	}
}

// Other returns the endpoint opposite to nodeID.
// For self loops it returns N1.
func (e *Edge) Other(nodeID int64) *Node {
	if e.N1.ID == nodeID {
		return e.N2
	}
	return e.N1
}

// TypedName joins a node type and accession with an underscore.
func TypedName(typ, accession string) string {
	return typ + "_" + accession
}

// SplitTypedName splits a node token at its first underscore.
func SplitTypedName(token string) (typ, accession string, ok bool) {
	typ, accession, ok = strings.Cut(token, "_")
	if !ok || typ == "" || accession == "" {
		return "", "", false
	}
	return typ, accession, true
}
