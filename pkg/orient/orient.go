// Package orient decides the drawing orientation and reverse flag of every
// device once rows are known.
//
// A device is drawn vertically when it connects "sideways": both of its
// terminals reach back to the previous level, or one reaches back and the
// other goes to ground, provided the slot below it is free. Grounded sources
// on the first level are vertical too. Every other device is horizontal.
//
// The reverse flag picks which terminal faces the previous level. For each
// device both hypotheses are scored against the already placed terminals of
// its predecessors and the cheaper one wins; ties keep the natural
// direction. Levels are processed in increasing order so predecessors are
// always final when a device is scored.
package orient

import (
	"math"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/level"
)

// Horizontal connector weights. A terminal facing its predecessor costs
// little; one that has to loop around the device body costs more.
const (
	facingCost  = 0.5
	loopingCost = 1.5
)

// Stats counts the decisions made by [Decide].
type Stats struct {
	Vertical int
	Reversed int
}

// Decide sets Orientation, MaybeVertical, Reverse and terminal RelRow for
// every device. Requires valid connectors and classified relations;
// returns STAGE_PRECONDITION_VIOLATED otherwise.
func Decide(g *circuit.Graph, h level.Hierarchy) (Stats, error) {
	if !g.ConnectorsValid() {
		return Stats{}, errors.New(errors.ErrCodeStagePrecondition, "orient: relations not classified")
	}
	if h.DeviceCount() != g.DeviceCount() {
		return Stats{}, errors.New(errors.ErrCodeStagePrecondition, "orient: hierarchy holds %d of %d devices", h.DeviceCount(), g.DeviceCount())
	}

	var stats Stats
	for _, ids := range h.Levels {
		for _, id := range ids {
			d := g.Device(id)
			d.MaybeVertical = MaybeVertical(g, d)
			d.Orientation = circuit.Horizontal
			if d.MaybeVertical {
				d.Orientation = circuit.Vertical
				stats.Vertical++
			}

			natural, reversed := ReverseCosts(g, d)
			d.Reverse = reversed < natural
			if d.Reverse {
				stats.Reversed++
			}
			setRelRows(g, d)
		}
	}
	return stats, nil
}

// predecessorTypes returns which of d's own terminal types connect to a
// predecessor device.
func predecessorTypes(g *circuit.Graph, d *circuit.Device) (pos, neg bool) {
	for _, c := range d.Connectors {
		if g.Device(c.Device).Level != d.Level-1 {
			continue
		}
		switch g.Terminal(c.This).Type {
		case circuit.Positive:
			pos = true
		case circuit.Negative:
			neg = true
		}
	}
	return pos, neg
}

// MaybeVertical reports whether d should be drawn vertically: it has two
// distinct terminal types connected to predecessors, or the count of such
// types plus grounded terminals reaches two and no fellow device occupies
// the row directly below. A grounded source on the first level always
// stands upright between its net and ground.
func MaybeVertical(g *circuit.Graph, d *circuit.Device) bool {
	if d.Level == 0 && d.MaybeFirstLevel {
		return true
	}
	pos, neg := predecessorTypes(g, d)
	types := 0
	if pos {
		types++
	}
	if neg {
		types++
	}
	if types >= 2 {
		return true
	}
	if types+g.GroundTerminals(d.ID) < 2 {
		return false
	}
	for _, f := range d.Fellows {
		if g.Device(f).Row == d.Row+1 {
			return false
		}
	}
	return true
}

// ReverseCosts scores the natural and reversed hypotheses of d against its
// predecessor connectors. Lower is better.
//
// Horizontal devices weigh each predecessor connector by whether the own
// terminal faces the previous level (positive when natural, negative when
// reversed). Vertical devices weigh the row distance between the own
// terminal, at its hypothesised offset, and the predecessor terminal.
func ReverseCosts(g *circuit.Graph, d *circuit.Device) (natural, reversed float64) {
	for _, c := range d.Connectors {
		if g.Device(c.Device).Level != d.Level-1 {
			continue
		}
		own := g.Terminal(c.This).Type
		if d.Orientation == circuit.Horizontal {
			if own == circuit.Positive {
				natural += facingCost
				reversed += loopingCost
			} else {
				natural += loopingCost
				reversed += facingCost
			}
			continue
		}
		target := g.TerminalRow(c.Connected)
		natural += RowDistance(float64(d.Row)+RelRow(circuit.Vertical, own, false), target)
		reversed += RowDistance(float64(d.Row)+RelRow(circuit.Vertical, own, true), target)
	}
	return natural, reversed
}

// RowDistance is the absolute difference of two terminal rows.
func RowDistance(a, b float64) float64 { return math.Abs(a - b) }

// RelRow returns the row offset of a terminal of the given type on a device
// with the given orientation and reverse flag. Horizontal devices keep both
// terminals on the device row; vertical devices put the positive terminal
// half a row above (below when reversed).
func RelRow(o circuit.Orientation, t circuit.TerminalType, reverse bool) float64 {
	if o == circuit.Horizontal {
		return 0
	}
	off := -0.5
	if t == circuit.Negative {
		off = 0.5
	}
	if reverse {
		off = -off
	}
	return off
}

func setRelRows(g *circuit.Graph, d *circuit.Device) {
	for _, tid := range d.Terminals() {
		t := g.Terminal(tid)
		t.RelRow = RelRow(d.Orientation, t.Type, d.Reverse)
	}
}
