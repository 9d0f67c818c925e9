package orient

import (
	"testing"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/incidence"
	"github.com/matzehuels/netlayout/pkg/level"
	"github.com/matzehuels/netlayout/pkg/ordering"
)

type dev struct {
	typ            circuit.DeviceType
	name, pos, neg string
}

// prepare builds, layers, classifies and orders a circuit.
func prepare(t *testing.T, devs []dev, seeds ...string) (*circuit.Graph, level.Hierarchy) {
	t.Helper()
	g := circuit.New()
	for _, d := range devs {
		if _, err := g.InsertDevice(d.typ, d.name, d.pos, d.neg, 1); err != nil {
			t.Fatalf("InsertDevice(%s) error: %v", d.name, err)
		}
	}
	m, err := incidence.Build(g)
	if err != nil {
		t.Fatalf("incidence.Build() error: %v", err)
	}
	ids, err := g.DeviceIDs(seeds)
	if err != nil {
		t.Fatalf("DeviceIDs() error: %v", err)
	}
	h, err := level.Assign(g, m, ids)
	if err != nil {
		t.Fatalf("level.Assign() error: %v", err)
	}
	g.BuildConnectors()
	if err := g.Classify(); err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if _, err := ordering.Order(g, h, ordering.Options{}); err != nil {
		t.Fatalf("ordering.Order() error: %v", err)
	}
	return g, h
}

func device(t *testing.T, g *circuit.Graph, name string) *circuit.Device {
	t.Helper()
	d, ok := g.DeviceByName(name)
	if !ok {
		t.Fatalf("device %s not found", name)
	}
	return d
}

func TestDecideDivider(t *testing.T) {
	g, h := prepare(t, []dev{
		{circuit.VoltageSource, "V1", "n1", "gnd"},
		{circuit.Resistor, "R1", "n1", "n2"},
		{circuit.Resistor, "R2", "n2", "gnd"},
	}, "V1")

	stats, err := Decide(g, h)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if stats.Vertical != 2 || stats.Reversed != 0 {
		t.Errorf("Decide() stats = %+v, want 2 vertical, 0 reversed", stats)
	}

	tests := []struct {
		name    string
		want    circuit.Orientation
		reverse bool
	}{
		{"V1", circuit.Vertical, false},
		{"R1", circuit.Horizontal, false},
		{"R2", circuit.Vertical, false},
	}
	for _, tt := range tests {
		d := device(t, g, tt.name)
		if d.Orientation != tt.want || d.Reverse != tt.reverse {
			t.Errorf("%s = (%v, reverse=%v), want (%v, reverse=%v)", tt.name, d.Orientation, d.Reverse, tt.want, tt.reverse)
		}
	}

	r2 := device(t, g, "R2")
	if got := g.Terminal(r2.Pos).RelRow; got != -0.5 {
		t.Errorf("R2.+ RelRow = %v, want -0.5", got)
	}
	if got := g.Terminal(r2.Neg).RelRow; got != 0.5 {
		t.Errorf("R2.- RelRow = %v, want 0.5", got)
	}
	r1 := device(t, g, "R1")
	if got := g.Terminal(r1.Pos).RelRow; got != 0 {
		t.Errorf("R1.+ RelRow = %v, want 0", got)
	}
}

func TestDecideVerticalReverse(t *testing.T) {
	tests := []struct {
		name    string
		r1      dev
		reverse bool
	}{
		{"positive faces upper source", dev{circuit.Resistor, "R1", "a", "b"}, false},
		{"positive faces lower source", dev{circuit.Resistor, "R1", "b", "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, h := prepare(t, []dev{
				{circuit.VoltageSource, "V1", "a", "0"},
				{circuit.VoltageSource, "V2", "b", "0"},
				tt.r1,
			}, "V1", "V2")
			if _, err := Decide(g, h); err != nil {
				t.Fatalf("Decide() error: %v", err)
			}
			r1 := device(t, g, "R1")
			if r1.Orientation != circuit.Vertical {
				t.Errorf("R1 orientation = %v, want vertical", r1.Orientation)
			}
			if r1.Reverse != tt.reverse {
				t.Errorf("R1 reverse = %v, want %v", r1.Reverse, tt.reverse)
			}
		})
	}
}

func TestDecideHorizontalReverse(t *testing.T) {
	g, h := prepare(t, []dev{
		{circuit.VoltageSource, "V1", "a", "0"},
		{circuit.Resistor, "R1", "b", "a"},
		{circuit.Resistor, "R2", "b", "c"},
		{circuit.Resistor, "R3", "c", "0"},
	}, "V1")
	if _, err := Decide(g, h); err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	r1 := device(t, g, "R1")
	if r1.Orientation != circuit.Horizontal || !r1.Reverse {
		t.Errorf("R1 = (%v, reverse=%v), want horizontal reversed", r1.Orientation, r1.Reverse)
	}
	natural, reversed := ReverseCosts(g, r1)
	if natural != 1.5 || reversed != 0.5 {
		t.Errorf("ReverseCosts(R1) = %v, %v, want 1.5, 0.5", natural, reversed)
	}
}

func TestMaybeVerticalFellowBelow(t *testing.T) {
	g, h := prepare(t, []dev{
		{circuit.VoltageSource, "V1", "a", "0"},
		{circuit.Resistor, "R1", "a", "0"},
		{circuit.Capacitor, "C1", "a", "0"},
	}, "V1")
	r1, c1 := device(t, g, "R1"), device(t, g, "C1")
	if !MaybeVertical(g, r1) {
		t.Errorf("MaybeVertical(R1) = false with free slot below")
	}
	c1.Row = r1.Row + 1
	if MaybeVertical(g, r1) {
		t.Errorf("MaybeVertical(R1) = true with C1 directly below")
	}
	if _, err := Decide(g, h); err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
}

func TestDecidePrecondition(t *testing.T) {
	g, h := prepare(t, []dev{
		{circuit.VoltageSource, "V1", "a", "0"},
		{circuit.Resistor, "R1", "a", "0"},
	}, "V1")
	g.InvalidateConnectors()
	if _, err := Decide(g, h); !errors.Is(err, errors.ErrCodeStagePrecondition) {
		t.Errorf("Decide() error = %v, want STAGE_PRECONDITION_VIOLATED", err)
	}
}

func TestRelRow(t *testing.T) {
	tests := []struct {
		o       circuit.Orientation
		typ     circuit.TerminalType
		reverse bool
		want    float64
	}{
		{circuit.Horizontal, circuit.Positive, false, 0},
		{circuit.Horizontal, circuit.Negative, true, 0},
		{circuit.Vertical, circuit.Positive, false, -0.5},
		{circuit.Vertical, circuit.Negative, false, 0.5},
		{circuit.Vertical, circuit.Positive, true, 0.5},
		{circuit.Vertical, circuit.Negative, true, -0.5},
	}
	for _, tt := range tests {
		if got := RelRow(tt.o, tt.typ, tt.reverse); got != tt.want {
			t.Errorf("RelRow(%v, %v, %v) = %v, want %v", tt.o, tt.typ, tt.reverse, got, tt.want)
		}
	}
}
