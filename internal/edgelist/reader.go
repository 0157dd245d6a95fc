package edgelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/bmgraph/internal/graph"
)

// Directive prefixes recognised on comment lines.
const (
	SymmetricDirective  = "# _symmetric"
	AttributesDirective = "# _attributes"
	SpecialDirective    = "# _special"
)

// SpecialAttribute is the boolean attribute set by a _special directive.
const SpecialAttribute = "special"

// maxLineSize bounds a single edge-list line.
const maxLineSize = 1 << 20

// ErrMalformedHeader reports a directive line that cannot be interpreted.
// It is fatal: a reader stops at the first malformed header.
var ErrMalformedHeader = errors.New("malformed edge-list header")

// RecordKind identifies what a Record carries.
type RecordKind uint8

const (
	RecordEdge RecordKind = iota
	RecordNodeAttributes
	RecordSpecial
	RecordSymmetric
)

// NodeRef names a node by type and accession.
type NodeRef struct {
	Type      string
	Accession string
}

// Token renders the ref as an edge-list node token.
func (n NodeRef) Token() string {
	return graph.TypedName(n.Type, n.Accession)
}

// Record is one meaningful edge-list line.
type Record struct {
	Kind RecordKind
	Line int

	// NodeA is set for every kind except RecordSymmetric.
	NodeA NodeRef
	// NodeB is set for RecordEdge.
	NodeB NodeRef
	// EdgeType is set for RecordEdge and RecordSymmetric.
	EdgeType string
	// Attributes is set for RecordEdge and RecordNodeAttributes.
	Attributes *graph.Attributes
}

// RowError describes a malformed row. Callers may skip it and continue.
type RowError struct {
	Line   int
	Text   string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Reader parses the edge-list format line by line.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Next returns the next record.
//
// It returns io.EOF at the end of input, a *RowError for a malformed row
// (reading may continue), and an error wrapping ErrMalformedHeader for a bad
// directive (reading must stop).
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			rec, ok, err := r.directive(text)
			if err != nil || ok {
				return rec, err
			}
			continue
		}
		return r.edge(text)
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("read edge list: %w", err)
	}
	return Record{}, io.EOF
}

func (r *Reader) directive(text string) (Record, bool, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Record{}, false, nil
	}
	switch "# " + fields[1] {
	case SymmetricDirective:
		if len(fields) != 3 {
			return Record{}, false, fmt.Errorf("line %d: %w: %q", r.line, ErrMalformedHeader, text)
		}
		return Record{Kind: RecordSymmetric, Line: r.line, EdgeType: fields[2]}, true, nil

	case AttributesDirective:
		if len(fields) < 3 {
			return Record{}, false, fmt.Errorf("line %d: %w: %q", r.line, ErrMalformedHeader, text)
		}
		node, err := r.nodeRef(fields[2], text)
		if err != nil {
			return Record{}, true, err
		}
		attrs, err := r.attributes(fields[3:], text)
		if err != nil {
			return Record{}, true, err
		}
		return Record{Kind: RecordNodeAttributes, Line: r.line, NodeA: node, Attributes: attrs}, true, nil

	case SpecialDirective:
		if len(fields) != 3 {
			return Record{}, false, fmt.Errorf("line %d: %w: %q", r.line, ErrMalformedHeader, text)
		}
		node, err := r.nodeRef(fields[2], text)
		if err != nil {
			return Record{}, true, err
		}
		return Record{Kind: RecordSpecial, Line: r.line, NodeA: node}, true, nil
	}
	// Plain comment.
	return Record{}, false, nil
}

func (r *Reader) edge(text string) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return Record{}, &RowError{Line: r.line, Text: text, Reason: fmt.Sprintf("want at least 3 fields, got %d", len(fields))}
	}
	a, err := r.nodeRef(fields[0], text)
	if err != nil {
		return Record{}, err
	}
	b, err := r.nodeRef(fields[1], text)
	if err != nil {
		return Record{}, err
	}
	attrs, err := r.attributes(fields[3:], text)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Kind:       RecordEdge,
		Line:       r.line,
		NodeA:      a,
		NodeB:      b,
		EdgeType:   fields[2],
		Attributes: attrs,
	}, nil
}

func (r *Reader) nodeRef(token, text string) (NodeRef, error) {
	typ, an, ok := graph.SplitTypedName(token)
	if !ok {
		return NodeRef{}, &RowError{Line: r.line, Text: text, Reason: fmt.Sprintf("node token %q has no type prefix", token)}
	}
	return NodeRef{Type: typ, Accession: an}, nil
}

func (r *Reader) attributes(tokens []string, text string) (*graph.Attributes, error) {
	attrs := graph.NewAttributes()
	for _, tok := range tokens {
		name, value, ok := strings.Cut(tok, "=")
		if !ok || name == "" {
			return nil, &RowError{Line: r.line, Text: text, Reason: fmt.Sprintf("attribute %q is not name=value", tok)}
		}
		attrs.Append(name, graph.Text(DecodeValue(value)))
	}
	return attrs, nil
}

// EncodeValue escapes spaces so a value stays a single field.
func EncodeValue(v string) string {
	return strings.ReplaceAll(v, " ", "+")
}

// DecodeValue reverses EncodeValue.
func DecodeValue(v string) string {
	return strings.ReplaceAll(v, "+", " ")
}
