// Package level assigns every device of a circuit to a discrete column
// ("level") by breadth-first search from a set of seed devices.
//
// Seeds form level 0. Each BFS frontier becomes the next level, in discovery
// order, so adjacent devices never end up more than one level apart and every
// non-seed device sits exactly one level after the device that discovered it.
//
// # Example
//
//	m, _ := incidence.Build(g)
//	h, err := level.Assign(g, m, []int{v1.ID})
//	if errors.Is(err, errors.ErrCodeLayeringIncomplete) {
//	    // circuit is disconnected; pick one seed per component
//	}
package level

import (
	"fmt"
	"math/bits"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/incidence"
)

// Hierarchy is the result of layering: Levels[i] holds the device ids at
// level i in discovery order. Together the levels partition the device set.
type Hierarchy struct {
	Levels [][]int
}

// Len returns the number of levels.
func (h Hierarchy) Len() int { return len(h.Levels) }

// Sizes returns the device count of each level.
func (h Hierarchy) Sizes() []int {
	out := make([]int, len(h.Levels))
	for i, l := range h.Levels {
		out[i] = len(l)
	}
	return out
}

// DeviceCount returns the total number of devices over all levels.
func (h Hierarchy) DeviceCount() int {
	n := 0
	for _, l := range h.Levels {
		n += len(l)
	}
	return n
}

// MaxWidth returns the size of the widest level.
func (h Hierarchy) MaxWidth() int {
	w := 0
	for _, l := range h.Levels {
		w = max(w, len(l))
	}
	return w
}

// bitset tracks visited device ids.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }
func (b bitset) count() (n int) {
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Assign layers the graph starting from seeds and writes Device.Level.
//
// Duplicate seeds are ignored. On success connectors are invalidated, since
// their classification depends on levels.
//
// Errors:
//   - EMPTY_SEED_SET if seeds is empty
//   - INVALID_INPUT if a seed id is not a device
//   - LAYERING_INCOMPLETE if some device is unreachable from the seeds; the
//     message names the unreached devices and the number of connected
//     components, and no level is written
func Assign(g *circuit.Graph, m *incidence.Matrix, seeds []int) (Hierarchy, error) {
	if len(seeds) == 0 {
		return Hierarchy{}, errors.New(errors.ErrCodeEmptySeedSet, "no first-level devices given")
	}
	n := g.DeviceCount()
	if m.Size() != n {
		return Hierarchy{}, errors.New(errors.ErrCodeStagePrecondition,
			"incidence matrix has size %d, graph has %d devices", m.Size(), n)
	}

	visited := newBitset(n)
	var frontier []int
	for _, id := range seeds {
		if id < 0 || id >= n {
			return Hierarchy{}, errors.New(errors.ErrCodeInvalidInput, "seed %d is not a device id", id)
		}
		if visited.has(id) {
			continue
		}
		visited.set(id)
		frontier = append(frontier, id)
	}

	var levels [][]int
	for len(frontier) > 0 {
		levels = append(levels, frontier)
		var next []int
		for _, id := range frontier {
			for e := range m.RowNeighbors(id) {
				if visited.has(e.To) {
					continue
				}
				visited.set(e.To)
				next = append(next, e.To)
			}
		}
		frontier = next
	}

	if visited.count() != n {
		return Hierarchy{}, incomplete(g, m, visited)
	}

	for i, l := range levels {
		for _, id := range l {
			g.Device(id).Level = i
		}
	}
	g.InvalidateConnectors()
	return Hierarchy{Levels: levels}, nil
}

func incomplete(g *circuit.Graph, m *incidence.Matrix, visited bitset) error {
	var missing []string
	for _, d := range g.Devices() {
		if !visited.has(d.ID) {
			missing = append(missing, d.Name)
		}
	}
	const shown = 10
	list := strings.Join(missing[:min(len(missing), shown)], ", ")
	if len(missing) > shown {
		list += fmt.Sprintf(", ... (%d more)", len(missing)-shown)
	}
	return errors.New(errors.ErrCodeLayeringIncomplete,
		"%d of %d devices unreachable from seeds (%s); circuit has %d connected components",
		len(missing), g.DeviceCount(), list, Components(m))
}

// Components returns the number of connected components of the device
// adjacency, ignoring edge direction. Devices connected only through ground
// count as separate components.
func Components(m *incidence.Matrix) int {
	ug := simple.NewUndirectedGraph()
	for id := range m.Size() {
		ug.AddNode(simple.Node(int64(id)))
	}
	for id := range m.Size() {
		for e := range m.RowNeighbors(id) {
			ug.SetEdge(ug.NewEdge(simple.Node(int64(e.From)), simple.Node(int64(e.To))))
		}
	}
	return len(topo.ConnectedComponents(ug))
}

// FromGraph rebuilds a Hierarchy from the Level fields already written into
// the graph, in insertion order within each level. Returns
// STAGE_PRECONDITION_VIOLATED if any device has no level.
func FromGraph(g *circuit.Graph) (Hierarchy, error) {
	for _, d := range g.Devices() {
		if d.Level == circuit.NoLevel {
			return Hierarchy{}, errors.New(errors.ErrCodeStagePrecondition, "device %q has no level", d.Name)
		}
	}
	return Hierarchy{Levels: g.Levels()}, nil
}

// Validate checks the structural invariants of a layered graph: the levels
// partition the device set, each device's Level matches its slot, and no
// connector spans more than one level.
func Validate(g *circuit.Graph, h Hierarchy) error {
	if h.DeviceCount() != g.DeviceCount() {
		return errors.New(errors.ErrCodeLayeringIncomplete, "levels hold %d devices, graph has %d", h.DeviceCount(), g.DeviceCount())
	}
	seen := make([]bool, g.DeviceCount())
	for i, l := range h.Levels {
		for _, id := range l {
			if seen[id] {
				return errors.New(errors.ErrCodeInternal, "device %d appears twice", id)
			}
			seen[id] = true
			if got := g.Device(id).Level; got != i {
				return errors.New(errors.ErrCodeInternal, "device %q has level %d, stored in level %d", g.Device(id).Name, got, i)
			}
		}
	}
	for _, d := range g.Devices() {
		for _, c := range d.Connectors {
			if diff := g.Device(c.Device).Level - d.Level; diff > 1 || diff < -1 {
				return errors.New(errors.ErrCodeInternal, "devices %q and %q are %d levels apart",
					d.Name, g.Device(c.Device).Name, diff)
			}
		}
	}
	return nil
}
