package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/bmgraph/internal/edgelist"
	"github.com/roach88/bmgraph/internal/graph"
)

// IngestReport summarizes one ingestion batch.
type IngestReport struct {
	Edges          int      `json:"edges"`
	NodesCreated   int      `json:"nodes_created"`
	EdgeAttributes int      `json:"edge_attributes"`
	NodeAttributes int      `json:"node_attributes"`
	Skipped        int      `json:"skipped"`
	Symmetric      []string `json:"symmetric,omitempty"`
}

// typeCollision reports an accession already stored under another type.
type typeCollision struct {
	accession    string
	have, wanted string
}

func (e *typeCollision) Error() string {
	return fmt.Sprintf("accession %q exists with type %q, row declares %q", e.accession, e.have, e.wanted)
}

// invalidWeight reports an edge row whose weight attribute is unusable.
type invalidWeight struct {
	name, value string
}

func (e *invalidWeight) Error() string {
	return fmt.Sprintf("edge attribute %s=%q is not a usable weight", e.name, e.value)
}

// Ingest reads an edge list and stores it in a single transaction.
//
// Both endpoint nodes of every edge row are resolved or created, then the
// edge and its attribute rows are inserted. Malformed rows and rows whose
// accession collides with a node of another type are skipped and counted.
// With WithWeightAttribute, edge rows whose weight value is not numeric or
// carries the not-found marker are skipped and counted too.
// A malformed header, a read error, a database error or a failed commit
// rolls the whole batch back.
func (s *Store) Ingest(ctx context.Context, r io.Reader) (IngestReport, error) {
	var report IngestReport

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("ingest: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	in := &ingester{ctx: ctx, tx: tx, report: &report, weight: s.weightAttribute, notFound: s.notFound}
	reader := edgelist.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return IngestReport{}, fmt.Errorf("ingest: %w", err)
		}
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *edgelist.RowError
		if errors.As(err, &rowErr) {
			report.Skipped++
			s.logger.Warn("skipping malformed row", "line", rowErr.Line, "reason", rowErr.Reason)
			continue
		}
		if err != nil {
			return IngestReport{}, fmt.Errorf("ingest: %w", err)
		}

		if err := in.apply(rec); err != nil {
			var collision *typeCollision
			var weight *invalidWeight
			if errors.As(err, &collision) || errors.As(err, &weight) {
				report.Skipped++
				s.logger.Warn("skipping row", "line", rec.Line, "reason", err.Error())
				continue
			}
			return IngestReport{}, fmt.Errorf("ingest line %d: %w", rec.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return IngestReport{}, fmt.Errorf("ingest: commit: %w", err)
	}

	s.logger.Info("ingest complete",
		"edges", report.Edges,
		"nodes_created", report.NodesCreated,
		"edge_attributes", report.EdgeAttributes,
		"node_attributes", report.NodeAttributes,
		"skipped", report.Skipped,
		"symmetric", report.Symmetric,
	)
	return report, nil
}

// IngestFile opens path and ingests it.
func (s *Store) IngestFile(ctx context.Context, path string) (IngestReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest: %w", err)
	}
	defer f.Close()
	return s.Ingest(ctx, f)
}

// ingester applies records inside one transaction.
type ingester struct {
	ctx    context.Context
	tx     querier
	report *IngestReport

	weight   string
	notFound string
}

func (in *ingester) apply(rec edgelist.Record) error {
	switch rec.Kind {
	case edgelist.RecordSymmetric:
		if !slices.Contains(in.report.Symmetric, rec.EdgeType) {
			in.report.Symmetric = append(in.report.Symmetric, rec.EdgeType)
		}
		return nil

	case edgelist.RecordEdge:
		if err := in.checkWeight(rec.Attributes); err != nil {
			return err
		}
		if err := in.checkType(rec.NodeA); err != nil {
			return err
		}
		if err := in.checkType(rec.NodeB); err != nil {
			return err
		}
		n1, err := in.node(rec.NodeA)
		if err != nil {
			return err
		}
		n2, err := in.node(rec.NodeB)
		if err != nil {
			return err
		}
		edgeID, err := insertEdge(in.ctx, in.tx, n1, n2, rec.EdgeType)
		if err != nil {
			return err
		}
		in.report.Edges++
		n, err := in.attributes(graph.EdgeEntity, edgeID, rec.Attributes)
		in.report.EdgeAttributes += n
		return err

	case edgelist.RecordNodeAttributes:
		if err := in.checkType(rec.NodeA); err != nil {
			return err
		}
		nodeID, err := in.node(rec.NodeA)
		if err != nil {
			return err
		}
		n, err := in.attributes(graph.NodeEntity, nodeID, rec.Attributes)
		in.report.NodeAttributes += n
		return err

	case edgelist.RecordSpecial:
		if err := in.checkType(rec.NodeA); err != nil {
			return err
		}
		nodeID, err := in.node(rec.NodeA)
		if err != nil {
			return err
		}
		return in.markSpecial(nodeID)
	}
	return nil
}

// checkWeight fails with an invalidWeight when any value of the weight
// attribute carries the not-found marker or does not parse as a float.
func (in *ingester) checkWeight(attrs *graph.Attributes) error {
	if in.weight == "" || attrs == nil {
		return nil
	}
	for _, v := range attrs.All(in.weight) {
		text := v.String()
		if in.notFound != "" && strings.Contains(text, in.notFound) {
			return &invalidWeight{name: in.weight, value: text}
		}
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return &invalidWeight{name: in.weight, value: text}
		}
	}
	return nil
}

// checkType fails with a typeCollision when ref names an existing node of
// another type. It never writes.
func (in *ingester) checkType(ref edgelist.NodeRef) error {
	_, typ, err := resolveNode(in.ctx, in.tx, ref.Accession)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if typ != ref.Type {
		return &typeCollision{accession: ref.Accession, have: typ, wanted: ref.Type}
	}
	return nil
}

func (in *ingester) node(ref edgelist.NodeRef) (int64, error) {
	id, created, err := getOrCreateNodeID(in.ctx, in.tx, ref.Accession, ref.Type)
	if err != nil {
		return 0, err
	}
	if created {
		in.report.NodesCreated++
	}
	return id, nil
}

func (in *ingester) attributes(kind graph.EntityKind, id int64, attrs *graph.Attributes) (int, error) {
	if attrs == nil {
		return 0, nil
	}
	n := 0
	var err error
	attrs.Each(func(name string, v graph.Value) {
		if err != nil {
			return
		}
		if err = insertAttribute(in.ctx, in.tx, kind, id, name, v); err == nil {
			n++
		}
	})
	return n, err
}

// markSpecial adds special=true unless the node already carries it.
func (in *ingester) markSpecial(nodeID int64) error {
	var n int
	err := in.tx.QueryRowContext(in.ctx,
		`SELECT COUNT(*) FROM node_attribute WHERE node_id = ? AND name = ?`,
		nodeID, edgelist.SpecialAttribute,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("check special: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := insertAttribute(in.ctx, in.tx, graph.NodeEntity, nodeID, edgelist.SpecialAttribute, graph.Bool(true)); err != nil {
		return err
	}
	in.report.NodeAttributes++
	return nil
}
