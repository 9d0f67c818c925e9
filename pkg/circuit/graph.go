package circuit

import (
	"slices"
	"strings"

	"github.com/matzehuels/netlayout/pkg/errors"
)

// Graph is an arena of devices, nodes and terminals addressed by dense
// integer ids. All relationships are stored as id lists; nothing in the
// graph owns anything else.
//
// The zero value is not usable - use New to create a graph with its ground
// node. A Graph is not safe for concurrent use.
type Graph struct {
	devices   []*Device
	nodes     []*Node
	terminals []*Terminal

	deviceByName map[string]int
	nodeByName   map[string]int

	connectorsValid bool
}

// New creates an empty graph holding only the ground node (id 0).
func New() *Graph {
	return &Graph{
		nodes:        []*Node{{ID: GroundID, Name: "0", IsGnd: true}},
		deviceByName: make(map[string]int),
		nodeByName:   make(map[string]int),
	}
}

// IsGroundName reports whether a node name denotes ground: "0" or "gnd",
// compared case-insensitively.
func IsGroundName(name string) bool {
	return name == "0" || strings.EqualFold(name, "gnd")
}

// InsertDevice adds a device between two named nodes and returns it.
//
// Nodes are created on first use. Node names are case-sensitive except for
// ground detection (see IsGroundName). The device receives the next dense id,
// so ids follow insertion order.
//
// Returns an error with code DUPLICATE_DEVICE_NAME if a device with the same
// name exists, or INVALID_INPUT if a name is empty or malformed.
func (g *Graph) InsertDevice(typ DeviceType, name, posNode, negNode string, value float64) (*Device, error) {
	if err := errors.ValidateName("device", name); err != nil {
		return nil, err
	}
	if err := errors.ValidateName("node", posNode); err != nil {
		return nil, err
	}
	if err := errors.ValidateName("node", negNode); err != nil {
		return nil, err
	}
	if _, exists := g.deviceByName[name]; exists {
		return nil, errors.New(errors.ErrCodeDuplicateDeviceName, "device %q already exists", name)
	}

	d := &Device{
		ID:    len(g.devices),
		Name:  name,
		Type:  typ,
		Value: value,
		Level: NoLevel,
	}
	d.Pos = g.addTerminal(d.ID, g.nodeFor(posNode), Positive)
	d.Neg = g.addTerminal(d.ID, g.nodeFor(negNode), Negative)

	posGnd := g.terminals[d.Pos].Node == GroundID
	negGnd := g.terminals[d.Neg].Node == GroundID
	if typ == Capacitor {
		d.GroundedCap = posGnd || negGnd
		d.CoupledCap = !posGnd && !negGnd
	}
	d.MaybeFirstLevel = typ.IsSource() && (posGnd || negGnd)

	g.devices = append(g.devices, d)
	g.deviceByName[name] = d.ID
	g.connectorsValid = false
	return d, nil
}

func (g *Graph) nodeFor(name string) int {
	if IsGroundName(name) {
		return GroundID
	}
	if id, ok := g.nodeByName[name]; ok {
		return id
	}
	n := &Node{ID: len(g.nodes), Name: name}
	g.nodes = append(g.nodes, n)
	g.nodeByName[name] = n.ID
	return n.ID
}

func (g *Graph) addTerminal(device, node int, typ TerminalType) int {
	t := &Terminal{ID: len(g.terminals), Device: device, Node: node, Type: typ}
	g.terminals = append(g.terminals, t)

	n := g.nodes[node]
	n.Terminals = append(n.Terminals, t.ID)
	if !slices.Contains(n.Devices, device) {
		n.Devices = append(n.Devices, device)
	}
	return t.ID
}

// Devices returns all devices in insertion order. Insertion order is the
// deterministic tie-break used by every stable sort downstream.
// The returned slice must not be modified; the devices it points to may be.
func (g *Graph) Devices() []*Device { return g.devices }

// DeviceCount returns the number of devices.
func (g *Graph) DeviceCount() int { return len(g.devices) }

// Device returns the device with the given id, or nil if out of range.
func (g *Graph) Device(id int) *Device {
	if id < 0 || id >= len(g.devices) {
		return nil
	}
	return g.devices[id]
}

// DeviceByName returns the device with the given name and true, or nil and
// false if not found.
func (g *Graph) DeviceByName(name string) (*Device, bool) {
	id, ok := g.deviceByName[name]
	if !ok {
		return nil, false
	}
	return g.devices[id], true
}

// Nodes returns all nodes, ground first.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Node returns the node with the given id, or nil if out of range.
func (g *Graph) Node(id int) *Node {
	if id < 0 || id >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// NodeByName looks a node up by name, applying ground detection.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	if IsGroundName(name) {
		return g.nodes[GroundID], true
	}
	id, ok := g.nodeByName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Ground returns the ground node.
func (g *Graph) Ground() *Node { return g.nodes[GroundID] }

// Terminal returns the terminal with the given id, or nil if out of range.
func (g *Graph) Terminal(id int) *Terminal {
	if id < 0 || id >= len(g.terminals) {
		return nil
	}
	return g.terminals[id]
}

// TerminalCount returns the number of terminals (two per device).
func (g *Graph) TerminalCount() int { return len(g.terminals) }

// OtherTerminal returns the id of the other terminal of the same device.
func (g *Graph) OtherTerminal(id int) int {
	t := g.terminals[id]
	d := g.devices[t.Device]
	if d.Pos == id {
		return d.Neg
	}
	return d.Pos
}

// TerminalRow returns the logical row of a terminal: its device's row plus
// the terminal's relative offset.
func (g *Graph) TerminalRow(id int) float64 {
	t := g.terminals[id]
	return float64(g.devices[t.Device].Row) + t.RelRow
}

// GroundTerminals counts the terminals of a device bound to ground.
func (g *Graph) GroundTerminals(id int) int {
	d := g.devices[id]
	n := 0
	for _, tid := range d.Terminals() {
		if g.terminals[tid].Node == GroundID {
			n++
		}
	}
	return n
}

// FirstLevelCandidates returns the devices flagged MaybeFirstLevel, in
// insertion order. This is a hint for whoever selects the layering seeds.
func (g *Graph) FirstLevelCandidates() []*Device {
	var out []*Device
	for _, d := range g.devices {
		if d.MaybeFirstLevel {
			out = append(out, d)
		}
	}
	return out
}

// DeviceIDs resolves device names to ids, preserving order.
// Returns DEVICE_NOT_FOUND for the first unknown name.
func (g *Graph) DeviceIDs(names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		d, ok := g.DeviceByName(name)
		if !ok {
			return nil, errors.New(errors.ErrCodeDeviceNotFound, "unknown device %q", name)
		}
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// ResetLayout clears every layout field written by the pipeline stages,
// returning the graph to its freshly built state.
func (g *Graph) ResetLayout() {
	for _, d := range g.devices {
		d.Level = NoLevel
		d.Row, d.Bubble = 0, 0
		d.Orientation, d.MaybeVertical, d.Reverse = Horizontal, false, false
		d.GeomCol, d.GeomRow = 0, 0
		d.Predecessors, d.Successors, d.Fellows = nil, nil, nil
	}
	for _, t := range g.terminals {
		t.RelRow = 0
	}
	g.InvalidateConnectors()
}
