package route

import (
	"fmt"
	"testing"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/incidence"
	"github.com/matzehuels/netlayout/pkg/level"
	"github.com/matzehuels/netlayout/pkg/ordering"
	"github.com/matzehuels/netlayout/pkg/orient"
)

type dev struct {
	typ            circuit.DeviceType
	name, pos, neg string
}

// prepare runs every stage up to orientation.
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
	if _, err := orient.Decide(g, h); err != nil {
		t.Fatalf("orient.Decide() error: %v", err)
	}
	return g, h
}

func TestCrossesSymmetric(t *testing.T) {
	rows := []float64{-1, -0.5, 0, 0.5, 1, 2}
	for _, a1 := range rows {
		for _, a2 := range rows {
			for _, b1 := range rows {
				for _, b2 := range rows {
					a := Wire{FromRow: a1, ToRow: a2}
					b := Wire{FromRow: b1, ToRow: b2}
					if Crosses(a, b) != Crosses(b, a) {
						t.Fatalf("Crosses not symmetric for %v / %v", a, b)
					}
					if Conflicts(a, b) != Conflicts(b, a) {
						t.Fatalf("Conflicts not symmetric for %v / %v", a, b)
					}
				}
			}
		}
	}
}

func TestWirePredicates(t *testing.T) {
	tests := []struct {
		name                        string
		a, b                        Wire
		crosses, canMerge, overlaps bool
	}{
		{"crossing", Wire{FromRow: 0, ToRow: 2, Net: 1}, Wire{FromRow: 2, ToRow: 0, Net: 2}, true, false, true},
		{"shared source same net", Wire{FromRow: 1, ToRow: 0, Net: 1}, Wire{FromRow: 1, ToRow: 2, Net: 1}, false, true, true},
		{"shared source other net", Wire{FromRow: 1, ToRow: 0, Net: 1}, Wire{FromRow: 1, ToRow: 2, Net: 2}, false, false, true},
		{"parallel apart", Wire{FromRow: 0, ToRow: 1, Net: 1}, Wire{FromRow: 3, ToRow: 4, Net: 2}, false, false, false},
		{"parallel touching", Wire{FromRow: 0, ToRow: 1, Net: 1}, Wire{FromRow: 1, ToRow: 2, Net: 2}, false, false, true},
		{"nested", Wire{FromRow: 0, ToRow: 4, Net: 1}, Wire{FromRow: 1, ToRow: 2, Net: 2}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Crosses(tt.a, tt.b); got != tt.crosses {
				t.Errorf("Crosses() = %v, want %v", got, tt.crosses)
			}
			if got := CanMerge(tt.a, tt.b); got != tt.canMerge {
				t.Errorf("CanMerge() = %v, want %v", got, tt.canMerge)
			}
			if got := Overlaps(tt.a, tt.b); got != tt.overlaps {
				t.Errorf("Overlaps() = %v, want %v", got, tt.overlaps)
			}
		})
	}
}

func TestBuildDivider(t *testing.T) {
	g, h := prepare(t, []dev{
		{circuit.VoltageSource, "V1", "n1", "gnd"},
		{circuit.Resistor, "R1", "n1", "n2"},
		{circuit.Resistor, "R2", "n2", "gnd"},
	}, "V1")

	channels, unrouted, err := Build(g, h)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("len(channels) = %d, want 2", len(channels))
	}
	for _, ch := range channels {
		if len(ch.Wires) != 1 {
			t.Errorf("channel %d wires = %d, want 1", ch.ID, len(ch.Wires))
		}
		if ch.TrackCount != 1 {
			t.Errorf("channel %d TrackCount = %d, want 1", ch.ID, ch.TrackCount)
		}
		if len(ch.Dots) != 0 {
			t.Errorf("channel %d dots = %v, want none", ch.ID, ch.Dots)
		}
		if err := ch.Validate(); err != nil {
			t.Errorf("channel %d Validate() error: %v", ch.ID, err)
		}
		for _, w := range ch.Wires {
			if w.ChannelID != ch.ID {
				t.Errorf("wire channel id = %d, want %d", w.ChannelID, ch.ID)
			}
		}
	}
	if len(unrouted) != 0 {
		t.Errorf("unrouted = %v, want none", unrouted)
	}
}

func TestBuildParallel(t *testing.T) {
	g, h := prepare(t, []dev{
		{circuit.VoltageSource, "V1", "n1", "0"},
		{circuit.Resistor, "R1", "n1", "n2"},
		{circuit.Resistor, "R2", "n1", "n2"},
		{circuit.Resistor, "R3", "n2", "0"},
	}, "V1")

	channels, unrouted, err := Build(g, h)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("len(channels) = %d, want 2", len(channels))
	}

	v1, _ := g.DeviceByName("V1")
	r3, _ := g.DeviceByName("R3")
	wantDot := []int{v1.Pos, r3.Pos}

	for i, ch := range channels {
		if len(ch.Wires) != 2 {
			t.Errorf("channel %d wires = %d, want 2", i, len(ch.Wires))
		}
		if len(ch.Groups) != 1 || len(ch.Groups[0]) != 2 {
			t.Errorf("channel %d groups = %v, want one group of two", i, ch.Groups)
		}
		if ch.TrackCount != 1 {
			t.Errorf("channel %d TrackCount = %d, want 1", i, ch.TrackCount)
		}
		if len(ch.Dots) != 1 || ch.Dots[0].Terminal != wantDot[i] {
			t.Errorf("channel %d dots = %+v, want one at terminal %d", i, ch.Dots, wantDot[i])
		}
	}
	if len(unrouted) != 0 {
		t.Errorf("unrouted = %v, want none (parallel pair joined through channels)", unrouted)
	}
}

func TestBuildPrecondition(t *testing.T) {
	g, h := prepare(t, []dev{
		{circuit.VoltageSource, "V1", "a", "0"},
		{circuit.Resistor, "R1", "a", "0"},
	}, "V1")
	g.InvalidateConnectors()
	if _, _, err := Build(g, h); !errors.Is(err, errors.ErrCodeStagePrecondition) {
		t.Errorf("Build() error = %v, want STAGE_PRECONDITION_VIOLATED", err)
	}
}

// manual creates a channel from hand-placed devices: left devices at level 0
// and right devices at level 1, each wire running between positive terminals.
func manual(t *testing.T, left, right []int, pairs [][2]int, nets []int) *Channel {
	t.Helper()
	g := circuit.New()
	var devs []*circuit.Device
	for i, row := range append(append([]int{}, left...), right...) {
		name := fmt.Sprintf("X%d", i)
		d, err := g.InsertDevice(circuit.Resistor, name, name+"a", name+"b", 1)
		if err != nil {
			t.Fatalf("InsertDevice() error: %v", err)
		}
		d.Row = row
		d.Level = 0
		if i >= len(left) {
			d.Level = 1
		}
		devs = append(devs, d)
	}
	ch := &Channel{}
	for i, p := range pairs {
		a, b := devs[p[0]], devs[len(left)+p[1]]
		ch.Wires = append(ch.Wires, Wire{
			From: a.Pos, To: b.Pos, FromDevice: a.ID, ToDevice: b.ID,
			Net: nets[i], FromRow: float64(a.Row), ToRow: float64(b.Row), Group: -1,
		})
	}
	ch.route(g)
	return ch
}

func TestTracks(t *testing.T) {
	tests := []struct {
		name   string
		left   []int
		right  []int
		pairs  [][2]int
		nets   []int
		tracks int
	}{
		{"crossing nets need two tracks", []int{0, 2}, []int{0, 2}, [][2]int{{0, 1}, {1, 0}}, []int{1, 2}, 2},
		{"disjoint spans share a track", []int{0, 3}, []int{1, 4}, [][2]int{{0, 0}, {1, 1}}, []int{1, 2}, 1},
		{"overlapping spans split", []int{0, 1}, []int{2, 3}, [][2]int{{0, 0}, {1, 1}}, []int{1, 2}, 2},
		{"horizontal needs no track", []int{0}, []int{0}, [][2]int{{0, 0}}, []int{1}, 0},
		{"fan-out merges", []int{1}, []int{0, 2, 4}, [][2]int{{0, 0}, {0, 1}, {0, 2}}, []int{1, 1, 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := manual(t, tt.left, tt.right, tt.pairs, tt.nets)
			if ch.TrackCount != tt.tracks {
				t.Errorf("TrackCount = %d, want %d", ch.TrackCount, tt.tracks)
			}
			if err := ch.Validate(); err != nil {
				t.Errorf("Validate() error: %v", err)
			}
			if got := len(ch.Tracks()); got != ch.TrackCount {
				t.Errorf("len(Tracks()) = %d, want %d", got, ch.TrackCount)
			}
		})
	}
}

func TestSortedByDestinationDescending(t *testing.T) {
	ch := manual(t, []int{1}, []int{0, 2, 4}, [][2]int{{0, 0}, {0, 1}, {0, 2}}, []int{1, 1, 1})
	prev := 1e9
	for _, w := range ch.Wires {
		if w.ToRow > prev {
			t.Fatalf("wires not sorted by destination descending: %v", ch.Wires)
		}
		prev = w.ToRow
	}
}

func TestFanOutDotDeduplicated(t *testing.T) {
	ch := manual(t, []int{1}, []int{0, 2, 4}, [][2]int{{0, 0}, {0, 1}, {0, 2}}, []int{1, 1, 1})
	if len(ch.Dots) != 1 {
		t.Errorf("dots = %+v, want exactly one at the shared source", ch.Dots)
	}
}

func TestHorizontalDot(t *testing.T) {
	// source at row 0 feeds a device at row 0 (horizontal) and one at row 2
	ch := manual(t, []int{0}, []int{0, 2}, [][2]int{{0, 0}, {0, 1}}, []int{1, 1})
	if len(ch.Dots) != 1 {
		t.Fatalf("dots = %+v, want one", ch.Dots)
	}
	if ch.Dots[0].Track != 0 || ch.Dots[0].Row != 0 {
		t.Errorf("dot = %+v, want track 0 at row 0", ch.Dots[0])
	}
}

func TestSharedTerminalAcrossGroups(t *testing.T) {
	// every left device feeds every right device on one net
	pairs := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	ch := manual(t, []int{2, 4}, []int{1, 2, 3}, pairs, []int{1, 1, 1, 1, 1, 1})
	if len(ch.Groups) < 2 {
		t.Fatalf("groups = %v, want the wires split over several groups", ch.Groups)
	}

	uses := make(map[int]int)
	for _, w := range ch.Wires {
		uses[w.From]++
		uses[w.To]++
	}
	dots := make(map[int]int)
	for _, d := range ch.Dots {
		dots[d.Terminal]++
	}
	for tid, n := range uses {
		if n >= 2 && dots[tid] != 1 {
			t.Errorf("terminal %d shared by %d wires has %d dots, want 1", tid, n, dots[tid])
		}
		if n < 2 && dots[tid] != 0 {
			t.Errorf("terminal %d used by one wire has a dot", tid)
		}
	}
	for _, d := range ch.Dots {
		if d.Track < 0 || d.Track >= ch.TrackCount {
			t.Errorf("dot %+v has track outside [0, %d)", d, ch.TrackCount)
		}
	}
}
