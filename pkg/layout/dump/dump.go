// Package dump prints the intermediate state of a layout run as tables.
//
// A [Tracer] plugs into [layout.Engine.SetObserver] and writes one table
// after every stage: the incidence matrix, the levels, the row assignment,
// the orientation, the channels and finally the geometric grid.
package dump

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/markkurossi/tabulate"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/netlayout/pkg/incidence"
	"github.com/matzehuels/netlayout/pkg/layout"
)

// DefaultMaxMatrix is the largest device count whose incidence matrix is
// printed in full.
const DefaultMaxMatrix = 32

// Tracer writes stage tables to W.
type Tracer struct {
	W         io.Writer
	Style     tabulate.Style
	MaxMatrix int
}

// New creates a tracer writing Unicode tables to w.
func New(w io.Writer) *Tracer {
	return &Tracer{W: w, Style: tabulate.UnicodeLight, MaxMatrix: DefaultMaxMatrix}
}

// StageDone implements layout.Observer.
func (t *Tracer) StageDone(stage layout.Stage, e *layout.Engine, elapsed time.Duration) {
	fmt.Fprintf(t.W, "== %s (%s)\n", stage, elapsed.Round(time.Microsecond))
	switch stage {
	case layout.StageMatrix:
		t.matrix(e)
	case layout.StageLeveled:
		t.levels(e)
	case layout.StageOrdered:
		t.rows(e)
	case layout.StageOriented:
		t.orientation(e)
	case layout.StageRouted:
		t.channels(e)
	case layout.StageMapped:
		t.grid(e)
	}
}

func (t *Tracer) table(headers ...string) *tabulate.Tabulate {
	tab := tabulate.New(t.Style)
	for i, h := range headers {
		align := tabulate.MR
		if i == 0 {
			align = tabulate.ML
		}
		tab.Header(h).SetAlign(align)
	}
	return tab
}

func (t *Tracer) matrix(e *layout.Engine) {
	m := e.Matrix()
	limit := t.MaxMatrix
	if limit <= 0 {
		limit = DefaultMaxMatrix
	}
	if m.Size() == 0 || m.Size() > limit {
		fmt.Fprintf(t.W, "%d devices, %d edges\n", m.Size(), m.EdgeCount())
		return
	}
	fmt.Fprintf(t.W, "%v\n", mat.Formatted(Dense(m), mat.Squeeze()))
}

// Dense converts the incidence matrix to a dense 0/1 matrix.
func Dense(m *incidence.Matrix) *mat.Dense {
	n := m.Size()
	d := mat.NewDense(n, n, nil)
	for i := range n {
		for e := range m.RowNeighbors(i) {
			d.Set(e.From, e.To, 1)
		}
	}
	return d
}

func (t *Tracer) levels(e *layout.Engine) {
	g := e.Graph()
	tab := t.table("Level", "Size", "Devices")
	for i, ids := range e.Hierarchy().Levels {
		names := make([]string, len(ids))
		for j, id := range ids {
			names[j] = g.Device(id).Name
		}
		row := tab.Row()
		row.Column(fmt.Sprint(i))
		row.Column(fmt.Sprint(len(ids)))
		row.Column(strings.Join(names, " "))
	}
	tab.Print(t.W)
}

func (t *Tracer) rows(e *layout.Engine) {
	g := e.Graph()
	tab := t.table("Device", "Level", "Bubble", "Row")
	for _, ids := range e.Hierarchy().Levels {
		for _, id := range ids {
			d := g.Device(id)
			row := tab.Row()
			row.Column(d.Name)
			row.Column(fmt.Sprint(d.Level))
			row.Column(fmt.Sprint(d.Bubble))
			row.Column(fmt.Sprint(d.Row))
		}
	}
	tab.Print(t.W)
	fmt.Fprintf(t.W, "seed level %d\n", e.SeedLevel())
}

func (t *Tracer) orientation(e *layout.Engine) {
	g := e.Graph()
	tab := t.table("Device", "Orientation", "Reverse", "+ RelRow", "- RelRow")
	for _, d := range g.Devices() {
		row := tab.Row()
		row.Column(d.Name)
		row.Column(d.Orientation.String())
		row.Column(fmt.Sprint(d.Reverse))
		row.Column(fmt.Sprintf("%+.1f", g.Terminal(d.Pos).RelRow))
		row.Column(fmt.Sprintf("%+.1f", g.Terminal(d.Neg).RelRow))
	}
	tab.Print(t.W)
}

func (t *Tracer) channels(e *layout.Engine) {
	tab := t.table("Channel", "Wires", "Groups", "Tracks", "Dots")
	for _, ch := range e.Channels() {
		row := tab.Row()
		row.Column(fmt.Sprint(ch.ID))
		row.Column(fmt.Sprint(len(ch.Wires)))
		row.Column(fmt.Sprint(len(ch.Groups)))
		row.Column(fmt.Sprint(ch.TrackCount))
		row.Column(fmt.Sprint(len(ch.Dots)))
	}
	tab.Print(t.W)
	if n := len(e.Unrouted()); n > 0 {
		fmt.Fprintf(t.W, "%d same-level connections unrouted\n", n)
	}
}

func (t *Tracer) grid(e *layout.Engine) {
	tab := t.table("Device", "Col", "Row")
	for _, d := range e.Graph().Devices() {
		row := tab.Row()
		row.Column(d.Name)
		row.Column(fmt.Sprint(d.GeomCol))
		row.Column(fmt.Sprint(d.GeomRow))
	}
	tab.Print(t.W)
	grid := e.Grid()
	fmt.Fprintf(t.W, "grid %dx%d\n", grid.Cols, grid.Rows)
}
