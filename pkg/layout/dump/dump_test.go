package dump

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/incidence"
	"github.com/matzehuels/netlayout/pkg/layout"
)

func divider(t *testing.T) *circuit.Graph {
	t.Helper()
	g := circuit.New()
	for _, d := range []struct {
		typ            circuit.DeviceType
		name, pos, neg string
	}{
		{circuit.VoltageSource, "V1", "n1", "gnd"},
		{circuit.Resistor, "R1", "n1", "n2"},
		{circuit.Resistor, "R2", "n2", "gnd"},
	} {
		if _, err := g.InsertDevice(d.typ, d.name, d.pos, d.neg, 1); err != nil {
			t.Fatalf("InsertDevice(%s) error: %v", d.name, err)
		}
	}
	return g
}

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	e := layout.New(divider(t), layout.Options{})
	e.SetObserver(New(&buf))

	if _, err := e.Run(context.Background(), []int{0}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"== matrix", "== leveled", "== related", "== ordered", "== oriented", "== routed", "== mapped",
		"Level", "Bubble", "Orientation", "Tracks", "Col",
		"vertical", "seed level 0", "grid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q", want)
		}
	}
}

func TestTracerLargeMatrixSummarized(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)
	tr.MaxMatrix = 1

	e := layout.New(divider(t), layout.Options{})
	e.SetObserver(tr)
	if err := e.BuildMatrix(); err != nil {
		t.Fatalf("BuildMatrix() error: %v", err)
	}
	if !strings.Contains(buf.String(), "3 devices, 4 edges") {
		t.Errorf("output = %q, want summary line", buf.String())
	}
}

func TestDense(t *testing.T) {
	m, err := incidence.Build(divider(t))
	if err != nil {
		t.Fatalf("incidence.Build() error: %v", err)
	}
	d := Dense(m)
	r, c := d.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("Dims() = %d,%d, want 3,3", r, c)
	}
	want := [3][3]float64{
		{0, 1, 0},
		{1, 0, 1},
		{0, 1, 0},
	}
	for i := range 3 {
		for j := range 3 {
			if got := d.At(i, j); got != want[i][j] {
				t.Errorf("At(%d,%d) = %v, want %v", i, j, got, want[i][j])
			}
		}
	}
}
