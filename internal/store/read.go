package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/bmgraph/internal/graph"
)

// Constraint restricts nodes to those carrying a text attribute
// Name with exactly Value.
type Constraint struct {
	Name  string
	Value string
}

// AttributeMatch is a node attribute value that matched a search pattern.
type AttributeMatch struct {
	Node  *graph.Node
	Name  string
	Value string
}

// Stats holds the row counts of each table.
type Stats struct {
	Nodes          int64 `json:"nodes"`
	Edges          int64 `json:"edges"`
	NodeAttributes int64 `json:"node_attributes"`
	EdgeAttributes int64 `json:"edge_attributes"`
}

// ResolveNodeID returns the id of the node with accession an.
// Returns ErrNotFound if no such node exists.
func (s *Store) ResolveNodeID(ctx context.Context, an string) (int64, error) {
	id, _, err := resolveNode(ctx, s.db, an)
	return id, err
}

// NodeByAccession returns a view of the node with accession an.
// Returns ErrNotFound if no such node exists.
func (s *Store) NodeByAccession(ctx context.Context, an string) (*graph.Node, error) {
	var id int64
	var typ string
	err := s.db.QueryRowContext(ctx, `SELECT id, type FROM node WHERE an = ?`, an).Scan(&id, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read node %q: %w", an, err)
	}
	return graph.NewNode(id, an, typ, s), nil
}

// Node returns a view of the node with the given id.
// Returns ErrNotFound if no such node exists.
func (s *Store) Node(ctx context.Context, id int64) (*graph.Node, error) {
	var an, typ string
	err := s.db.QueryRowContext(ctx, `SELECT an, type FROM node WHERE id = ?`, id).Scan(&an, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read node %d: %w", id, err)
	}
	return graph.NewNode(id, an, typ, s), nil
}

// EdgesOf returns every edge with nodeID at either endpoint, once per edge,
// ordered by edge id. Attributes are not loaded.
func (s *Store) EdgesOf(ctx context.Context, nodeID int64) ([]*graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.type,
		       a.id, a.an, a.type,
		       b.id, b.an, b.type
		FROM edge e
		JOIN node a ON a.id = e.n1_id
		JOIN node b ON b.id = e.n2_id
		WHERE e.n1_id = ? OR e.n2_id = ?
		ORDER BY e.id ASC
	`, nodeID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	nodes := make(map[int64]*graph.Node)
	view := func(id int64, an, typ string) *graph.Node {
		if n, ok := nodes[id]; ok {
			return n
		}
		n := graph.NewNode(id, an, typ, s)
		nodes[id] = n
		return n
	}

	edges := []*graph.Edge{}
	for rows.Next() {
		var (
			edgeID, aID, bID    int64
			edgeType            string
			aAn, aType, bAn, bT string
		)
		if err := rows.Scan(&edgeID, &edgeType, &aID, &aAn, &aType, &bID, &bAn, &bT); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, graph.NewEdge(edgeID, view(aID, aAn, aType), view(bID, bAn, bT), edgeType, s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}

// LoadAttributes implements graph.AttributeLoader. Rows are returned in
// insertion order; text_value takes precedence over bool_value.
func (s *Store) LoadAttributes(ctx context.Context, kind graph.EntityKind, id int64) (*graph.Attributes, error) {
	table, column := attributeTable(kind)
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, bool_value, text_value FROM `+table+` WHERE `+column+` = ? ORDER BY rowid ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query %s attributes: %w", kind, err)
	}
	defer rows.Close()

	attrs := graph.NewAttributes()
	for rows.Next() {
		var name string
		var boolValue sql.NullBool
		var textValue sql.NullString
		if err := rows.Scan(&name, &boolValue, &textValue); err != nil {
			return nil, fmt.Errorf("scan %s attribute: %w", kind, err)
		}
		switch {
		case textValue.Valid:
			attrs.Append(name, graph.Text(textValue.String))
		case boolValue.Valid:
			attrs.Append(name, graph.Bool(boolValue.Bool))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s attributes: %w", kind, err)
	}
	return attrs, nil
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(id) FROM node`)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM edge`)
}

// NodeAttributeCount returns the number of node attribute rows.
func (s *Store) NodeAttributeCount(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM node_attribute`)
}

// EdgeAttributeCount returns the number of edge attribute rows.
func (s *Store) EdgeAttributeCount(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM edge_attribute`)
}

// Stats returns all four counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.Nodes, err = s.NodeCount(ctx); err != nil {
		return Stats{}, err
	}
	if st.Edges, err = s.EdgeCount(ctx); err != nil {
		return Stats{}, err
	}
	if st.NodeAttributes, err = s.NodeAttributeCount(ctx); err != nil {
		return Stats{}, err
	}
	if st.EdgeAttributes, err = s.EdgeAttributeCount(ctx); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *Store) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// NodesWithAttributeLike returns node attribute values containing pattern
// (SQL LIKE, ASCII case-insensitive). When fields is non-empty only those
// attribute names are searched. Results are ordered by node id, then by
// attribute insertion order.
func (s *Store) NodesWithAttributeLike(ctx context.Context, pattern string, fields []string) ([]AttributeMatch, error) {
	query := `
		SELECT n.id, n.an, n.type, a.name, a.text_value
		FROM node_attribute a
		JOIN node n ON n.id = a.node_id
		WHERE a.text_value LIKE '%' || ? || '%' ESCAPE '\'`
	args := []any{escapeLike(pattern)}
	if len(fields) > 0 {
		query += ` AND a.name IN (` + placeholders(len(fields)) + `)`
		for _, f := range fields {
			args = append(args, f)
		}
	}
	query += ` ORDER BY n.id ASC, a.rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attribute matches: %w", err)
	}
	defer rows.Close()

	nodes := make(map[int64]*graph.Node)
	var matches []AttributeMatch
	for rows.Next() {
		var id int64
		var an, typ, name, value string
		if err := rows.Scan(&id, &an, &typ, &name, &value); err != nil {
			return nil, fmt.Errorf("scan attribute match: %w", err)
		}
		n, ok := nodes[id]
		if !ok {
			n = graph.NewNode(id, an, typ, s)
			nodes[id] = n
		}
		matches = append(matches, AttributeMatch{Node: n, Name: name, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attribute matches: %w", err)
	}
	return matches, nil
}

// NodesWithAccessionLike returns nodes whose accession contains pattern.
func (s *Store) NodesWithAccessionLike(ctx context.Context, pattern string) ([]*graph.Node, error) {
	return s.queryNodes(ctx, `
		SELECT id, an, type FROM node
		WHERE an LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY id ASC
	`, escapeLike(pattern))
}

// AllNodes returns every node matching constraints, ordered by id.
func (s *Store) AllNodes(ctx context.Context, constraints []Constraint) ([]*graph.Node, error) {
	where, args := constraintClause(constraints)
	return s.queryNodes(ctx, `SELECT id, an, type FROM node WHERE `+where+` ORDER BY id ASC`, args...)
}

// CountNodes returns the number of nodes matching constraints.
func (s *Store) CountNodes(ctx context.Context, constraints []Constraint) (int64, error) {
	where, args := constraintClause(constraints)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM node WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// MaxNodeID returns the largest node id matching constraints, or 0.
func (s *Store) MaxNodeID(ctx context.Context, constraints []Constraint) (int64, error) {
	where, args := constraintClause(constraints)
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM node WHERE `+where, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("max node id: %w", err)
	}
	return id, nil
}

// NodeAtOrAfter returns the matching node with the smallest id >= floor.
// Returns ErrNotFound if there is none.
func (s *Store) NodeAtOrAfter(ctx context.Context, floor int64, constraints []Constraint) (*graph.Node, error) {
	where, args := constraintClause(constraints)
	args = append([]any{floor}, args...)

	var id int64
	var an, typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, an, type FROM node WHERE id >= ? AND `+where+` ORDER BY id ASC LIMIT 1`,
		args...,
	).Scan(&id, &an, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("node at or after %d: %w", floor, err)
	}
	return graph.NewNode(id, an, typ, s), nil
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]*graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []*graph.Node{}
	for rows.Next() {
		var id int64
		var an, typ string
		if err := rows.Scan(&id, &an, &typ); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, graph.NewNode(id, an, typ, s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// constraintClause renders constraints as an always-valid WHERE fragment
// over the node table.
func constraintClause(constraints []Constraint) (string, []any) {
	if len(constraints) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, 0, len(constraints))
	args := make([]any, 0, 2*len(constraints))
	for _, c := range constraints {
		parts = append(parts, `EXISTS (
			SELECT 1 FROM node_attribute ca
			WHERE ca.node_id = node.id AND ca.name = ? AND ca.text_value = ?)`)
		args = append(args, c.Name, c.Value)
	}
	return strings.Join(parts, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// escapeLike escapes LIKE wildcards with a backslash.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
