package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bmgraph/internal/graph"
)

// GetOrCreateNodeID returns the id of the node with accession an, inserting
// it with type typ if absent. Repeated calls return the same id.
//
// The type of an existing node is not checked; the first insert wins.
func (s *Store) GetOrCreateNodeID(ctx context.Context, an, typ string) (int64, error) {
	id, _, err := getOrCreateNodeID(ctx, s.db, an, typ)
	if err != nil {
		return 0, fmt.Errorf("get or create node: %w", err)
	}
	return id, nil
}

// SetNodeAttribute appends a name/value row to a node.
func (s *Store) SetNodeAttribute(ctx context.Context, nodeID int64, name string, v graph.Value) error {
	if err := insertAttribute(ctx, s.db, graph.NodeEntity, nodeID, name, v); err != nil {
		return fmt.Errorf("set node attribute: %w", err)
	}
	return nil
}

// SetEdgeAttribute appends a name/value row to an edge.
func (s *Store) SetEdgeAttribute(ctx context.Context, edgeID int64, name string, v graph.Value) error {
	if err := insertAttribute(ctx, s.db, graph.EdgeEntity, edgeID, name, v); err != nil {
		return fmt.Errorf("set edge attribute: %w", err)
	}
	return nil
}

// AddEdge inserts an edge between two existing nodes and returns its id.
func (s *Store) AddEdge(ctx context.Context, n1, n2 int64, typ string) (int64, error) {
	id, err := insertEdge(ctx, s.db, n1, n2, typ)
	if err != nil {
		return 0, fmt.Errorf("add edge: %w", err)
	}
	return id, nil
}

// getOrCreateNodeID resolves an; if absent it inserts and resolves again.
func getOrCreateNodeID(ctx context.Context, q querier, an, typ string) (id int64, created bool, err error) {
	id, _, err = resolveNode(ctx, q, an)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, false, err
	}

	if _, err := q.ExecContext(ctx, `INSERT INTO node (an, type) VALUES (?, ?)`, an, typ); err != nil {
		return 0, false, fmt.Errorf("insert node %q: %w", an, err)
	}

	id, _, err = resolveNode(ctx, q, an)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// resolveNode looks up a node id and type by accession.
func resolveNode(ctx context.Context, q querier, an string) (int64, string, error) {
	var id int64
	var typ string
	err := q.QueryRowContext(ctx, `SELECT id, type FROM node WHERE an = ?`, an).Scan(&id, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("resolve node %q: %w", an, err)
	}
	return id, typ, nil
}

func insertEdge(ctx context.Context, q querier, n1, n2 int64, typ string) (int64, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO edge (n1_id, n2_id, type) VALUES (?, ?, ?)`, n1, n2, typ)
	if err != nil {
		return 0, fmt.Errorf("insert edge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert edge: last insert id: %w", err)
	}
	return id, nil
}

// insertAttribute appends one attribute row. Booleans go to bool_value,
// text to text_value.
func insertAttribute(ctx context.Context, q querier, kind graph.EntityKind, ownerID int64, name string, v graph.Value) error {
	table, column := attributeTable(kind)

	var boolValue, textValue any
	if v.IsBool() {
		boolValue = v.BoolValue()
	} else {
		textValue = v.TextValue()
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO `+table+` (`+column+`, name, bool_value, text_value) VALUES (?, ?, ?, ?)`,
		ownerID, name, boolValue, textValue,
	)
	if err != nil {
		return fmt.Errorf("insert %s attribute %q: %w", kind, name, err)
	}
	return nil
}

// attributeTable maps an entity kind to its attribute table and owner column.
func attributeTable(kind graph.EntityKind) (table, column string) {
	if kind == graph.EdgeEntity {
		return "edge_attribute", "edge_id"
	}
	return "node_attribute", "node_id"
}
