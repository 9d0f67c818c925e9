// Package geom maps the logical layout (level, row, track) onto a grid of
// geometric columns and rows.
//
// Level 0 sits in column 0. Every channel takes the column right after its
// left level and reserves HoldColCount columns for its tracks; the next
// level follows. Rows are translated so the smallest row is 0.
//
// Mapping only reads logical state, so running it twice yields the same
// grid.
package geom

import (
	"math"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/level"
	"github.com/matzehuels/netlayout/pkg/route"
)

// DefaultMaxOneColWireCount is the number of tracks one column can hold.
const DefaultMaxOneColWireCount = 4

// Options configures geometric mapping.
type Options struct {
	MaxOneColWireCount int
}

// Grid summarizes a mapped layout.
type Grid struct {
	LevelCols []int // geometric column of each level
	RowOffset int   // added to every logical row
	Cols      int   // total column count
	Rows      int   // total row count
}

// HoldColCount returns the number of columns a channel with the given track
// count reserves: max(1, round(tracks / perCol)).
func HoldColCount(tracks, perCol int) int {
	if perCol <= 0 {
		perCol = DefaultMaxOneColWireCount
	}
	return max(1, int(math.Round(float64(tracks)/float64(perCol))))
}

// Map assigns GeomCol and GeomRow to every device, and GeomCol (plus
// GeomRow for dots) to every channel, wire and dot. channels must be the
// routed channels of h in level order.
func Map(g *circuit.Graph, h level.Hierarchy, channels []*route.Channel, opts Options) (Grid, error) {
	if h.Len() > 0 && len(channels) != h.Len()-1 {
		return Grid{}, errors.New(errors.ErrCodeStagePrecondition, "geom: %d channels for %d levels", len(channels), h.Len())
	}
	perCol := opts.MaxOneColWireCount
	if perCol <= 0 {
		perCol = DefaultMaxOneColWireCount
	}

	grid := Grid{LevelCols: make([]int, h.Len())}
	col := 0
	for i := range h.Levels {
		grid.LevelCols[i] = col
		if i == len(channels) {
			break
		}
		ch := channels[i]
		ch.GeomCol = col + 1
		ch.HoldColCount = HoldColCount(ch.TrackCount, perCol)
		for j := range ch.Wires {
			ch.Wires[j].GeomCol = ch.GeomCol
		}
		for j := range ch.Dots {
			ch.Dots[j].GeomCol = ch.GeomCol
		}
		col += ch.HoldColCount + 1
	}
	if h.Len() > 0 {
		grid.Cols = col + 1
	}

	minRow, maxRow := 0, 0
	for i, d := range g.Devices() {
		if i == 0 || d.Row < minRow {
			minRow = d.Row
		}
		if i == 0 || d.Row > maxRow {
			maxRow = d.Row
		}
	}
	grid.RowOffset = -min(0, minRow)
	if g.DeviceCount() > 0 {
		grid.Rows = maxRow + grid.RowOffset + 1
	}

	for _, d := range g.Devices() {
		if d.Level == circuit.NoLevel || d.Level >= len(grid.LevelCols) {
			return Grid{}, errors.New(errors.ErrCodeStagePrecondition, "geom: device %q has no level", d.Name)
		}
		d.GeomCol = grid.LevelCols[d.Level]
		d.GeomRow = d.Row + grid.RowOffset
	}
	for _, ch := range channels {
		for j := range ch.Dots {
			ch.Dots[j].GeomRow = ch.Dots[j].Row + float64(grid.RowOffset)
		}
	}
	return grid, nil
}
