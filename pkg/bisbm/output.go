package bisbm

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// OutputWriter renders a result
type OutputWriter interface {
	Write(w io.Writer, result *Result) error
}

// TextWriter prints the score followed by one "Vertex i: group g" line per
// node. Verbose output appends the block edge-count matrix.
type TextWriter struct {
	Verbose bool
}

// JSONWriter encodes the whole result as indented JSON
type JSONWriter struct{}

// NewOutputWriter returns the writer for a format name ("text" or "json")
func NewOutputWriter(format string) (OutputWriter, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "text-verbose":
		return &TextWriter{Verbose: true}, nil
	case "json":
		return &JSONWriter{}, nil
	}
	return nil, fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, format)
}

// Write implements OutputWriter
func (tw *TextWriter) Write(w io.Writer, result *Result) error {
	if _, err := fmt.Fprintf(w, "%f\n", float64(result.Score)); err != nil {
		return err
	}
	for v, group := range result.Partition {
		if _, err := fmt.Fprintf(w, "Vertex %d: group %d\n", v, group); err != nil {
			return err
		}
	}

	if !tw.Verbose {
		return nil
	}
	edges := result.BlockEdgeMatrix()
	if edges == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "Block edge counts (rows: groups 0..%d, columns: groups %d..%d):\n%v\n",
		result.GroupsA-1, result.GroupsA, result.GroupsA+result.GroupsB-1,
		mat.Formatted(edges, mat.Squeeze()))
	return err
}

// Write implements OutputWriter
func (jw *JSONWriter) Write(w io.Writer, result *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// BlockEdgeMatrix returns the GroupsA x GroupsB edge-count matrix of the
// result blocks, or nil when the result has no groups
func (r *Result) BlockEdgeMatrix() *mat.Dense {
	if r.GroupsA <= 0 || r.GroupsB <= 0 {
		return nil
	}
	m := mat.NewDense(r.GroupsA, r.GroupsB, nil)
	for _, blk := range r.Blocks {
		m.Set(blk.R, blk.S-r.GroupsA, float64(blk.Edges))
	}
	return m
}
