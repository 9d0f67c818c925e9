package circuit

import (
	"fmt"
	"strings"

	"github.com/matzehuels/netlayout/pkg/errors"
)

// DeviceType identifies the kind of two-terminal circuit element.
type DeviceType int

const (
	Resistor DeviceType = iota
	Capacitor
	Inductor
	VoltageSource
	CurrentSource
)

var deviceTypeNames = map[DeviceType]string{
	Resistor:      "resistor",
	Capacitor:     "capacitor",
	Inductor:      "inductor",
	VoltageSource: "voltage_source",
	CurrentSource: "current_source",
}

// String returns the lowercase type name used in serialized layouts.
func (t DeviceType) String() string {
	if s, ok := deviceTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DeviceType(%d)", int(t))
}

// MarshalText encodes the type by name.
func (t DeviceType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a type name written by MarshalText.
func (t *DeviceType) UnmarshalText(b []byte) error {
	for typ, name := range deviceTypeNames {
		if name == string(b) {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown device type %q", b)
}

// IsSource reports whether current leaves the device through its positive
// terminal (independent voltage and current sources).
func (t DeviceType) IsSource() bool {
	return t == VoltageSource || t == CurrentSource
}

// ParseDeviceType maps a SPICE element prefix (R, C, L, V, I) to a DeviceType.
// Only the first letter of s is examined, so full device names are accepted.
func ParseDeviceType(s string) (DeviceType, error) {
	if s == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "empty device type")
	}
	switch strings.ToUpper(s[:1]) {
	case "R":
		return Resistor, nil
	case "C":
		return Capacitor, nil
	case "L":
		return Inductor, nil
	case "V":
		return VoltageSource, nil
	case "I":
		return CurrentSource, nil
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "unsupported device type %q", s[:1])
}

// TerminalType names one endpoint of a device.
type TerminalType int

const (
	Positive TerminalType = iota
	Negative
	General
)

// String returns "+", "-" or "g".
func (t TerminalType) String() string {
	switch t {
	case Positive:
		return "+"
	case Negative:
		return "-"
	default:
		return "g"
	}
}

// MarshalText encodes the terminal type as its short symbol.
func (t TerminalType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes "+", "-" or "g".
func (t *TerminalType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "+":
		*t = Positive
	case "-":
		*t = Negative
	case "g":
		*t = General
	default:
		return fmt.Errorf("unknown terminal type %q", b)
	}
	return nil
}

// Orientation is the drawing direction of a device.
// Horizontal devices run from one level to the next; vertical devices
// occupy a single column slot and connect above and below.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// String returns "horizontal" or "vertical".
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// MarshalText encodes the orientation by name.
func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText decodes an orientation name.
func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "horizontal":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	default:
		return fmt.Errorf("unknown orientation %q", b)
	}
	return nil
}

const (
	// GroundID is the id of the single ground node of every graph.
	GroundID = 0

	// NoLevel marks a device that has not been layered yet.
	NoLevel = -1
)

// Terminal is one endpoint of one device, bound to exactly one node.
type Terminal struct {
	ID     int
	Device int
	Node   int
	Type   TerminalType

	// RelRow is the row offset from the owning device's row:
	// 0 for horizontal devices, ±0.5 for vertical ones.
	RelRow float64
}

// Node is a circuit net.
type Node struct {
	ID        int
	Name      string
	IsGnd     bool
	Devices   []int // device ids in insertion order, deduplicated
	Terminals []int // terminal ids in insertion order
}

// Connector records that terminal This of the owning device shares a
// non-ground node with terminal Connected of Device.
type Connector struct {
	This      int
	Connected int
	Device    int
}

// Device is one two-terminal circuit element plus the layout state every
// pipeline stage writes into it.
type Device struct {
	ID    int
	Name  string
	Type  DeviceType
	Value float64
	Pos   int // terminal id
	Neg   int // terminal id

	GroundedCap     bool // capacitor with a terminal on ground
	CoupledCap      bool // capacitor floating between two non-ground nodes
	MaybeFirstLevel bool // source with a grounded terminal

	Level         int
	Row           int
	Bubble        int
	Orientation   Orientation
	MaybeVertical bool
	Reverse       bool
	GeomCol       int
	GeomRow       int

	Predecessors []int
	Successors   []int
	Fellows      []int
	Connectors   []Connector
}

// Terminals returns the positive and negative terminal ids.
func (d *Device) Terminals() [2]int { return [2]int{d.Pos, d.Neg} }

// ReferenceTerminals returns the terminal ids ordered by the current-flow
// convention: current leaves a source through N+, and enters a passive
// element through N+ and leaves through N-. The terminal current leaves
// through comes first.
func (d *Device) ReferenceTerminals() [2]int {
	if d.Type.IsSource() {
		return [2]int{d.Pos, d.Neg}
	}
	return [2]int{d.Neg, d.Pos}
}

// TerminalOf returns the terminal id of the given type.
func (d *Device) TerminalOf(t TerminalType) int {
	if t == Negative {
		return d.Neg
	}
	return d.Pos
}

// IsCap reports whether the device is a grounded or coupled capacitor.
func (d *Device) IsCap() bool { return d.GroundedCap || d.CoupledCap }
