package edgelist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/bmgraph/internal/graph"
)

// ConvertOptions describes a raw weighted-pair file.
// Field numbers are 1-based.
type ConvertOptions struct {
	Format Format `yaml:",inline"`

	NodeAField  int `yaml:"node_a_field"`
	NodeBField  int `yaml:"node_b_field"`
	WeightField int `yaml:"weight_field"`

	// NotFound marks a weight field whose row must be skipped.
	NotFound string `yaml:"not_found"`
	// Comment marks a line to ignore wherever it occurs in the line.
	Comment string `yaml:"comment"`
}

// DefaultConvertOptions reads "nodeA nodeB weight" rows.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Format:      DefaultFormat(),
		NodeAField:  1,
		NodeBField:  2,
		WeightField: 3,
		NotFound:    "NA",
		Comment:     "#",
	}
}

// MinFields is the shortest row that carries every configured field.
func (o ConvertOptions) MinFields() int {
	return max(o.WeightField, o.NodeAField, o.NodeBField)
}

// ConvertStats counts what Convert did.
type ConvertStats struct {
	Written int
	Skipped int
	// Pruned counts rows whose weight fell below Format.MinWeight.
	Pruned int
}

// Convert turns raw weighted pairs into an edge list.
//
// Lines containing the comment marker are ignored, as are lines shorter than
// MinFields. Lines whose weight field contains the not-found marker, or whose
// weight is not numeric, are skipped. Rows weighing less than
// Format.MinWeight are pruned.
func Convert(r io.Reader, w io.Writer, opts ConvertOptions) (ConvertStats, error) {
	var stats ConvertStats
	if opts.NodeAField < 1 || opts.NodeBField < 1 || opts.WeightField < 1 {
		return stats, fmt.Errorf("convert: field numbers must be >= 1")
	}

	out := NewWriter(w, opts.Format)
	if err := out.WriteHeader(); err != nil {
		return stats, err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	minFields := opts.MinFields()
	for sc.Scan() {
		line := sc.Text()
		if opts.Comment != "" && strings.Contains(line, opts.Comment) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < minFields {
			continue
		}
		weight := fields[opts.WeightField-1]
		if opts.NotFound != "" && strings.Contains(weight, opts.NotFound) {
			stats.Skipped++
			continue
		}
		value, err := strconv.ParseFloat(weight, 64)
		if err != nil {
			stats.Skipped++
			continue
		}
		if !opts.Format.Keep(value) {
			stats.Pruned++
			continue
		}

		attrs := graph.NewAttributes()
		attrs.Append(opts.Format.WeightAttribute, graph.Text(weight))
		err = out.WriteEdge(
			NodeRef{Type: opts.Format.NodeType, Accession: opts.Format.Accession(fields[opts.NodeAField-1])},
			NodeRef{Type: opts.Format.NodeType, Accession: opts.Format.Accession(fields[opts.NodeBField-1])},
			opts.Format.EdgeType,
			attrs,
		)
		if err != nil {
			return stats, err
		}
		stats.Written++
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("convert: %w", err)
	}
	return stats, out.Flush()
}
