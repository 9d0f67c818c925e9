// Package incidence provides a sparse directed adjacency structure indexed by
// device id.
//
// Each device keeps two id-sorted adjacency vectors: one by row (outgoing
// edges, ordered by target id) and one by column (incoming edges, ordered by
// source id). Lookups are binary searches and traversal is lazy through
// [iter.Seq], so layering can walk neighbors without materializing lists.
//
// The matrix never holds self-loops and at most one edge per ordered pair.
package incidence

import (
	"cmp"
	"iter"
	"slices"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
)

// Edge is one directed adjacency between two devices, annotated with the
// terminal types it connects through.
type Edge struct {
	From     int
	To       int
	FromTerm circuit.TerminalType
	ToTerm   circuit.TerminalType
}

// Matrix is an N×N sparse incidence structure. Not safe for concurrent use.
type Matrix struct {
	rows  [][]Edge // rows[i] sorted by To
	cols  [][]Edge // cols[j] sorted by From
	count int
}

// New creates an empty matrix for size devices.
func New(size int) *Matrix {
	return &Matrix{
		rows: make([][]Edge, size),
		cols: make([][]Edge, size),
	}
}

// Size returns the number of devices the matrix was created for.
func (m *Matrix) Size() int { return len(m.rows) }

// EdgeCount returns the number of stored edges.
func (m *Matrix) EdgeCount() int { return m.count }

// InsertEdge stores the edge from -> to.
//
// Returns (false, nil) if the ordered pair already exists; the original
// terminal annotation is kept. Returns INVALID_EDGE_INDEX when either id is
// outside [0, Size()) or from == to.
func (m *Matrix) InsertEdge(from, to int, fromTerm, toTerm circuit.TerminalType) (bool, error) {
	n := len(m.rows)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false, errors.New(errors.ErrCodeInvalidEdgeIndex, "edge (%d,%d) outside [0,%d)", from, to, n)
	}
	if from == to {
		return false, errors.New(errors.ErrCodeInvalidEdgeIndex, "self-loop on %d", from)
	}

	e := Edge{From: from, To: to, FromTerm: fromTerm, ToTerm: toTerm}
	i, found := slices.BinarySearchFunc(m.rows[from], to, func(e Edge, t int) int { return cmp.Compare(e.To, t) })
	if found {
		return false, nil
	}
	m.rows[from] = slices.Insert(m.rows[from], i, e)

	j, _ := slices.BinarySearchFunc(m.cols[to], from, func(e Edge, f int) int { return cmp.Compare(e.From, f) })
	m.cols[to] = slices.Insert(m.cols[to], j, e)

	m.count++
	return true, nil
}

// Has reports whether the edge from -> to exists.
func (m *Matrix) Has(from, to int) bool {
	_, ok := m.Edge(from, to)
	return ok
}

// Edge returns the edge from -> to if present.
func (m *Matrix) Edge(from, to int) (Edge, bool) {
	if from < 0 || from >= len(m.rows) {
		return Edge{}, false
	}
	i, found := slices.BinarySearchFunc(m.rows[from], to, func(e Edge, t int) int { return cmp.Compare(e.To, t) })
	if !found {
		return Edge{}, false
	}
	return m.rows[from][i], true
}

// RowNeighbors yields the outgoing edges of id in ascending target order.
// An out-of-range id yields nothing.
func (m *Matrix) RowNeighbors(id int) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if id < 0 || id >= len(m.rows) {
			return
		}
		for _, e := range m.rows[id] {
			if !yield(e) {
				return
			}
		}
	}
}

// ColNeighbors yields the incoming edges of id in ascending source order.
// This is the transposed view of RowNeighbors.
func (m *Matrix) ColNeighbors(id int) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if id < 0 || id >= len(m.cols) {
			return
		}
		for _, e := range m.cols[id] {
			if !yield(e) {
				return
			}
		}
	}
}

// OutDegree returns the number of outgoing edges of id.
func (m *Matrix) OutDegree(id int) int {
	if id < 0 || id >= len(m.rows) {
		return 0
	}
	return len(m.rows[id])
}

// Build creates the incidence matrix of a circuit graph.
//
// For every device, the reference terminal is visited first (positive for
// sources, negative for passive elements), then the other one. For every
// terminal of another device sharing that terminal's non-ground node, the
// edge (device, other) is inserted with the two terminal types. Since each
// ordered pair keeps its first annotation, the reference terminal wins when
// two devices share both nodes.
func Build(g *circuit.Graph) (*Matrix, error) {
	m := New(g.DeviceCount())
	for _, d := range g.Devices() {
		for _, tid := range d.ReferenceTerminals() {
			t := g.Terminal(tid)
			if t.Node == circuit.GroundID {
				continue
			}
			for _, oid := range g.Node(t.Node).Terminals {
				ot := g.Terminal(oid)
				if ot.Device == d.ID {
					continue
				}
				if _, err := m.InsertEdge(d.ID, ot.Device, t.Type, ot.Type); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}
