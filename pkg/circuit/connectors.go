package circuit

import (
	"slices"

	"github.com/matzehuels/netlayout/pkg/errors"
)

// BuildConnectors rebuilds every device's connector list from scratch.
//
// For each terminal of each device (positive first), one connector is added
// per terminal of another device sharing the same non-ground node. Ground
// connections never produce connectors. The order follows device insertion,
// then terminal insertion on the shared node, so the result is deterministic.
func (g *Graph) BuildConnectors() {
	for _, d := range g.devices {
		d.Connectors = d.Connectors[:0]
		for _, tid := range d.Terminals() {
			node := g.terminals[tid].Node
			if node == GroundID {
				continue
			}
			for _, other := range g.nodes[node].Terminals {
				ot := g.terminals[other]
				if ot.Device == d.ID {
					continue
				}
				d.Connectors = append(d.Connectors, Connector{
					This:      tid,
					Connected: other,
					Device:    ot.Device,
				})
			}
		}
	}
	g.connectorsValid = true
}

// InvalidateConnectors marks every connector list stale. Layering calls this
// after writing new levels so that Classify refuses to run until connectors
// are rebuilt.
func (g *Graph) InvalidateConnectors() { g.connectorsValid = false }

// ConnectorsValid reports whether connectors reflect the current graph.
func (g *Graph) ConnectorsValid() bool { return g.connectorsValid }

// Classify fills each device's Predecessors, Successors and Fellows lists
// from its connectors: neighbors at level L-1, L+1 and L respectively.
// Neighbors further away than one level are not recorded. Each list holds
// distinct device ids in first-seen connector order.
//
// Returns STAGE_PRECONDITION_VIOLATED if connectors are stale or any device
// has no level.
func (g *Graph) Classify() error {
	if !g.connectorsValid {
		return errors.New(errors.ErrCodeStagePrecondition, "classify: connectors are stale")
	}
	for _, d := range g.devices {
		if d.Level == NoLevel {
			return errors.New(errors.ErrCodeStagePrecondition, "classify: device %q has no level", d.Name)
		}
	}
	for _, d := range g.devices {
		d.Predecessors, d.Successors, d.Fellows = nil, nil, nil
		for _, c := range d.Connectors {
			other := g.devices[c.Device]
			switch other.Level - d.Level {
			case -1:
				d.Predecessors = appendUnique(d.Predecessors, other.ID)
			case 1:
				d.Successors = appendUnique(d.Successors, other.ID)
			case 0:
				d.Fellows = appendUnique(d.Fellows, other.ID)
			}
		}
	}
	return nil
}

func appendUnique(s []int, v int) []int {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// ConnectorsTo returns the connectors of device from that reach device to.
func (g *Graph) ConnectorsTo(from, to int) []Connector {
	var out []Connector
	for _, c := range g.devices[from].Connectors {
		if c.Device == to {
			out = append(out, c)
		}
	}
	return out
}

// Levels groups device ids by level. Index i holds the ids at level i in
// insertion order. Devices without a level are skipped.
func (g *Graph) Levels() [][]int {
	maxLevel := -1
	for _, d := range g.devices {
		maxLevel = max(maxLevel, d.Level)
	}
	out := make([][]int, maxLevel+1)
	for _, d := range g.devices {
		if d.Level == NoLevel {
			continue
		}
		out[d.Level] = append(out[d.Level], d.ID)
	}
	return out
}
