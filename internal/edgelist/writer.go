package edgelist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/bmgraph/internal/cooccur"
	"github.com/roach88/bmgraph/internal/graph"
)

// Format controls how scored pairs are rendered as edges.
type Format struct {
	NodeType        string `yaml:"node_type"`
	EdgeType        string `yaml:"edge_type"`
	WeightAttribute string `yaml:"weight_attribute"`
	EdgeColor       string `yaml:"edge_color"`

	// MinWeight prunes pairs scoring below it. Zero keeps every pair.
	MinWeight float64 `yaml:"min_weight"`
	// Lowercase folds accessions to lower case before they are written.
	Lowercase bool `yaml:"lowercase"`
}

// DefaultFormat matches the term graphs consumed by theme expansion.
func DefaultFormat() Format {
	return Format{
		NodeType:        "Term",
		EdgeType:        "is_related_to",
		WeightAttribute: "llr",
		EdgeColor:       "gray",
	}
}

// Keep reports whether a pair of the given weight survives MinWeight.
func (f Format) Keep(weight float64) bool {
	return f.MinWeight == 0 || weight >= f.MinWeight
}

// Accession returns an accession as the format writes it.
func (f Format) Accession(an string) string {
	if !f.Lowercase {
		return an
	}
	return cases.Lower(language.Und).String(an)
}

// Filter returns the pairs Keep admits, with accessions folded when
// Lowercase is set. The input is not modified.
func (f Format) Filter(pairs []cooccur.Pair) []cooccur.Pair {
	kept := make([]cooccur.Pair, 0, len(pairs))
	for _, p := range pairs {
		if !f.Keep(p.Score) {
			continue
		}
		p.A, p.B = f.Accession(p.A), f.Accession(p.B)
		kept = append(kept, p)
	}
	return kept
}

// Writer emits an edge list. It writes the _symmetric header before the
// first row. Call Flush when done.
type Writer struct {
	bw     *bufio.Writer
	format Format
	header bool
}

// NewWriter returns a Writer emitting format to w.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{bw: bufio.NewWriter(w), format: format}
}

// WriteHeader writes the _symmetric directive. It is idempotent.
func (w *Writer) WriteHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	if _, err := fmt.Fprintf(w.bw, "%s %s\n", SymmetricDirective, w.format.EdgeType); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// WritePair writes one scored term pair.
func (w *Writer) WritePair(p cooccur.Pair) error {
	attrs := graph.NewAttributes()
	attrs.Append(w.format.WeightAttribute, graph.Text(FormatWeight(p.Score)))
	return w.WriteEdge(
		NodeRef{Type: w.format.NodeType, Accession: w.format.Accession(p.A)},
		NodeRef{Type: w.format.NodeType, Accession: w.format.Accession(p.B)},
		w.format.EdgeType,
		attrs,
	)
}

// WritePairs writes every pair the format keeps, in order.
func (w *Writer) WritePairs(pairs []cooccur.Pair) error {
	for _, p := range w.format.Filter(pairs) {
		if err := w.WritePair(p); err != nil {
			return err
		}
	}
	return nil
}

// WriteEdge writes one edge row. A fill attribute is appended when the
// format has a colour and attrs does not already carry one.
func (w *Writer) WriteEdge(a, b NodeRef, edgeType string, attrs *graph.Attributes) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	row := FormatEdge(a, b, edgeType, attrs)
	if w.format.EdgeColor != "" && (attrs == nil || len(attrs.All("fill")) == 0) {
		row += " fill=" + w.format.EdgeColor
	}
	if _, err := w.bw.WriteString(row + "\n"); err != nil {
		return fmt.Errorf("write edge: %w", err)
	}
	return nil
}

// FormatEdge renders one edge row, without a trailing newline.
func FormatEdge(a, b NodeRef, edgeType string, attrs *graph.Attributes) string {
	var sb strings.Builder
	sb.WriteString(a.Token())
	sb.WriteByte(' ')
	sb.WriteString(b.Token())
	sb.WriteByte(' ')
	sb.WriteString(edgeType)
	if attrs != nil {
		attrs.Each(func(name string, v graph.Value) {
			sb.WriteByte(' ')
			sb.WriteString(name)
			sb.WriteByte('=')
			sb.WriteString(EncodeValue(v.String()))
		})
	}
	return sb.String()
}

// Flush flushes buffered rows.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush edge list: %w", err)
	}
	return nil
}

// WriteRawPairs writes tab-separated "term_a term_b ll_sen" rows with a
// header line, the intermediate format accepted by Convert.
func WriteRawPairs(w io.Writer, pairs []cooccur.Pair) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("term_a\tterm_b\tll_sen\n"); err != nil {
		return fmt.Errorf("write raw pairs: %w", err)
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", p.A, p.B, FormatWeight(p.Score)); err != nil {
			return fmt.Errorf("write raw pairs: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write raw pairs: %w", err)
	}
	return nil
}

// FormatWeight renders a score with the shortest exact representation.
func FormatWeight(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
