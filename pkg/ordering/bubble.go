package ordering

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/level"
)

const (
	// DefaultRowDeviceFactor spaces the seed level's rows so later levels can
	// interleave devices between them.
	DefaultRowDeviceFactor = 2

	// DefaultInterleaveGap is the minimum row gap between the last two placed
	// devices that allows interleaving instead of shifting.
	DefaultInterleaveGap = 2
)

// Mode selects which capacitors are ignored when computing bubble values.
// Capacitors to ground tend to hang off a net rather than continue it, so
// excluding them keeps the main signal path straight.
type Mode int

const (
	IgnoreNoCap Mode = iota // every neighbor counts
	IgnoreGCap              // skip grounded capacitors
	IgnoreGCCap             // skip grounded and coupled capacitors
)

var modeNames = []string{"none", "grounded", "all"}

// String returns "none", "grounded" or "all".
func (m Mode) String() string {
	if int(m) >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name, as used in config files and flags.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMode parses "none", "grounded" or "all". The empty string is "none".
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return IgnoreNoCap, nil
	}
	if i := slices.Index(modeNames, s); i >= 0 {
		return Mode(i), nil
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown capacitor mode %q (want none, grounded or all)", s)
}

// Ignores reports whether d is excluded from bubble computation.
func (m Mode) Ignores(d *circuit.Device) bool {
	switch m {
	case IgnoreGCap:
		return d.GroundedCap
	case IgnoreGCCap:
		return d.GroundedCap || d.CoupledCap
	}
	return false
}

// Options configures row ordering.
type Options struct {
	Mode            Mode
	RowDeviceFactor int
	InterleaveGap   int
}

func (o Options) withDefaults() Options {
	if o.RowDeviceFactor <= 0 {
		o.RowDeviceFactor = DefaultRowDeviceFactor
	}
	if o.InterleaveGap <= 0 {
		o.InterleaveGap = DefaultInterleaveGap
	}
	return o
}

// SeedLevel returns the index of the first level with the most devices.
// Returns -1 for an empty hierarchy.
func SeedLevel(h level.Hierarchy) int {
	seed, width := -1, -1
	for i, l := range h.Levels {
		if len(l) > width {
			seed, width = i, len(l)
		}
	}
	return seed
}

// Order assigns Device.Row for every device using the bubble-value
// heuristic and returns the seed level index.
//
// The widest level is the seed; its devices get rows 0, f, 2f, ... in
// insertion order (f = RowDeviceFactor). Levels before the seed are then
// ordered backward from their successors, and levels after it forward from
// their predecessors. Within a level, devices are placed by ascending bubble
// value using [AssignRows].
//
// Requires classified relations: connectors must be valid and the device
// Predecessors/Successors lists current. Returns
// STAGE_PRECONDITION_VIOLATED otherwise.
func Order(g *circuit.Graph, h level.Hierarchy, opts Options) (int, error) {
	if !g.ConnectorsValid() {
		return -1, errors.New(errors.ErrCodeStagePrecondition, "ordering: relations not classified")
	}
	if h.DeviceCount() != g.DeviceCount() {
		return -1, errors.New(errors.ErrCodeStagePrecondition, "ordering: hierarchy holds %d of %d devices", h.DeviceCount(), g.DeviceCount())
	}
	opts = opts.withDefaults()

	seed := SeedLevel(h)
	if seed < 0 {
		return -1, nil
	}

	for i, id := range byID(h.Levels[seed]) {
		d := g.Device(id)
		d.Bubble = i * opts.RowDeviceFactor
		d.Row = d.Bubble
	}

	for l := seed - 1; l >= 0; l-- {
		setBubbles(g, h.Levels[l], opts, func(d *circuit.Device) []int { return d.Successors })
		AssignRows(g, h.Levels[l], opts.InterleaveGap)
	}
	for l := seed + 1; l < h.Len(); l++ {
		setBubbles(g, h.Levels[l], opts, func(d *circuit.Device) []int { return d.Predecessors })
		AssignRows(g, h.Levels[l], opts.InterleaveGap)
	}
	return seed, nil
}

func byID(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

// setBubbles computes the bubble of every device in ids from the rows of the
// reference neighbors returned by refs, skipping neighbors the mode ignores.
// A device without usable neighbors falls back to its insertion rank in the
// level times the row factor.
func setBubbles(g *circuit.Graph, ids []int, opts Options, refs func(*circuit.Device) []int) {
	rows := make([]float64, 0, 8)
	for rank, id := range byID(ids) {
		d := g.Device(id)
		rows = rows[:0]
		for _, nid := range refs(d) {
			n := g.Device(nid)
			if opts.Mode.Ignores(n) {
				continue
			}
			rows = append(rows, float64(n.Row))
		}
		if len(rows) == 0 {
			d.Bubble = rank * opts.RowDeviceFactor
			continue
		}
		d.Bubble = int(math.Round(stat.Mean(rows, nil)))
	}
}

// BubbleBySuccessors returns the rounded mean row of d's successors, and
// false if d has none.
func BubbleBySuccessors(g *circuit.Graph, d *circuit.Device) (int, bool) {
	return meanRow(g, d.Successors)
}

// BubbleByPredecessors returns the rounded mean row of d's predecessors, and
// false if d has none.
func BubbleByPredecessors(g *circuit.Graph, d *circuit.Device) (int, bool) {
	return meanRow(g, d.Predecessors)
}

func meanRow(g *circuit.Graph, ids []int) (int, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	rows := make([]float64, len(ids))
	for i, id := range ids {
		rows[i] = float64(g.Device(id).Row)
	}
	return int(math.Round(stat.Mean(rows, nil))), true
}

// AssignRows places the devices of one level by their Bubble values using
// the shift-or-interleave rule.
//
// Devices are visited in ascending (bubble, id) order. A device whose bubble
// lies below every row placed so far takes its bubble as row. Otherwise, if
// the last two placed rows are at least gap apart (or fewer than two devices
// are placed), the device goes directly after the last one. Otherwise every
// placed device moves up far enough that the device fits at its bubble.
// Rows may become negative; geometric mapping normalizes them.
func AssignRows(g *circuit.Graph, ids []int, gap int) {
	order := make([]*circuit.Device, len(ids))
	for i, id := range ids {
		order[i] = g.Device(id)
	}
	slices.SortStableFunc(order, func(a, b *circuit.Device) int {
		return cmp.Or(cmp.Compare(a.Bubble, b.Bubble), cmp.Compare(a.ID, b.ID))
	})

	placed := order[:0:0]
	for _, d := range order {
		n := len(placed)
		if n == 0 {
			d.Row = d.Bubble
			placed = append(placed, d)
			continue
		}
		currMax := placed[n-1].Row
		switch {
		case d.Bubble > currMax:
			d.Row = d.Bubble
		case n < 2 || currMax-placed[n-2].Row >= gap:
			d.Row = currMax + 1
		default:
			shift := currMax - d.Bubble + 1
			for _, p := range placed {
				p.Row -= shift
			}
			d.Row = d.Bubble
		}
		placed = append(placed, d)
	}
}

// Rows returns a snapshot of every device's row, indexed by device id.
func Rows(g *circuit.Graph) []int {
	out := make([]int, g.DeviceCount())
	for _, d := range g.Devices() {
		out[d.ID] = d.Row
	}
	return out
}

// SetRows restores a snapshot taken with Rows.
func SetRows(g *circuit.Graph, rows []int) {
	for _, d := range g.Devices() {
		d.Row = rows[d.ID]
	}
}
