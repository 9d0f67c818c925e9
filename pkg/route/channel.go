// Package route builds the wiring channels between adjacent levels and
// assigns every wire a track.
//
// A channel holds all wires whose endpoint devices sit on level i and i+1.
// Routing a channel takes four steps:
//
//  1. Wires whose endpoints share a row are tagged horizontal ([NoTrack]).
//  2. The remaining wires, sorted by destination row descending, are packed
//     greedily into merge groups: a wire joins the first group whose members
//     it can all merge with ([CanMerge]).
//  3. Groups are packed greedily into tracks: a group joins the first track
//     none of whose wires [Conflicts] with its own.
//  4. Dots are placed wherever a horizontal wire meets a mergeable wire,
//     wherever two wires of one group meet, and at every other terminal two
//     or more wires of the channel share. Each terminal gets at most one.
//
// Connections between devices on the same level cannot be carried by any
// channel. Those not already joined through a channel are returned as
// unrouted wires with channel id -1.
package route

import (
	"cmp"
	"slices"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/level"
)

// Dot is a junction marker drawn where several wires meet at one terminal.
type Dot struct {
	Terminal int
	Device   string
	Track    int
	Row      float64
	GeomCol  int
	GeomRow  float64 // half rows are kept for vertical terminals
}

// Channel is the routing space between level Level and Level+1.
type Channel struct {
	ID         int
	Level      int
	Wires      []Wire
	Groups     [][]int // indices into Wires
	TrackCount int
	Dots       []Dot

	GeomCol      int
	HoldColCount int
}

// Build creates and routes one channel per pair of adjacent levels and
// returns them in level order, plus the same-level connections no channel
// carries.
//
// Requires valid connectors and final terminal rows (orientation done);
// returns STAGE_PRECONDITION_VIOLATED if connectors are stale.
func Build(g *circuit.Graph, h level.Hierarchy) ([]*Channel, []Wire, error) {
	if !g.ConnectorsValid() {
		return nil, nil, errors.New(errors.ErrCodeStagePrecondition, "route: relations not classified")
	}

	var channels []*Channel
	for i := 0; i+1 < h.Len(); i++ {
		ch := &Channel{ID: i, Level: i}
		ch.Wires = collect(g, h.Levels[i], i)
		ch.route(g)
		channels = append(channels, ch)
	}
	return channels, unrouted(g, channels), nil
}

// collect gathers the wires from level l to level l+1, in device then
// connector order.
func collect(g *circuit.Graph, ids []int, l int) []Wire {
	var wires []Wire
	for _, id := range ids {
		d := g.Device(id)
		for _, c := range d.Connectors {
			if g.Device(c.Device).Level != l+1 {
				continue
			}
			wires = append(wires, Wire{
				From:       c.This,
				To:         c.Connected,
				FromDevice: d.ID,
				ToDevice:   c.Device,
				Net:        g.Terminal(c.This).Node,
				FromRow:    g.TerminalRow(c.This),
				ToRow:      g.TerminalRow(c.Connected),
				ChannelID:  l,
				Group:      -1,
			})
		}
	}
	return wires
}

func (ch *Channel) route(g *circuit.Graph) {
	for i := range ch.Wires {
		if ch.Wires[i].Horizontal() {
			ch.Wires[i].Track = NoTrack
		}
	}

	slices.SortStableFunc(ch.Wires, func(a, b Wire) int {
		return cmp.Compare(g.Device(b.ToDevice).Row, g.Device(a.ToDevice).Row)
	})

	ch.group()
	ch.assignTracks()
	ch.placeDots(g)
}

func (ch *Channel) group() {
	ch.Groups = nil
	for i, w := range ch.Wires {
		if w.Horizontal() {
			continue
		}
		joined := false
		for gi, members := range ch.Groups {
			if ch.mergesWithAll(w, members) {
				ch.Groups[gi] = append(members, i)
				ch.Wires[i].Group = gi
				joined = true
				break
			}
		}
		if !joined {
			ch.Wires[i].Group = len(ch.Groups)
			ch.Groups = append(ch.Groups, []int{i})
		}
	}
}

func (ch *Channel) mergesWithAll(w Wire, members []int) bool {
	for _, m := range members {
		if !CanMerge(w, ch.Wires[m]) {
			return false
		}
	}
	return true
}

func (ch *Channel) assignTracks() {
	var clusters [][]int // wire indices per track
	for _, members := range ch.Groups {
		track := -1
		for ti, cluster := range clusters {
			if !ch.anyConflict(members, cluster) {
				track = ti
				break
			}
		}
		if track < 0 {
			track = len(clusters)
			clusters = append(clusters, nil)
		}
		clusters[track] = append(clusters[track], members...)
		for _, m := range members {
			ch.Wires[m].Track = track
		}
	}
	ch.TrackCount = len(clusters)
}

func (ch *Channel) anyConflict(a, b []int) bool {
	for _, i := range a {
		for _, j := range b {
			if Conflicts(ch.Wires[i], ch.Wires[j]) {
				return true
			}
		}
	}
	return false
}

func (ch *Channel) placeDots(g *circuit.Graph) {
	ch.Dots = nil
	seen := make(map[int]bool)
	add := func(a, b Wire, track int) {
		tid, row := sharedTerminal(a, b)
		if seen[tid] {
			return
		}
		seen[tid] = true
		ch.Dots = append(ch.Dots, Dot{
			Terminal: tid,
			Device:   g.Device(g.Terminal(tid).Device).Name,
			Track:    track,
			Row:      row,
		})
	}

	for _, hw := range ch.Wires {
		if !hw.Horizontal() {
			continue
		}
		for _, w := range ch.Wires {
			if !w.Horizontal() && CanMerge(hw, w) {
				add(hw, w, w.Track)
			}
		}
	}
	for _, members := range ch.Groups {
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				a, b := ch.Wires[members[x]], ch.Wires[members[y]]
				add(a, b, a.Track)
			}
		}
	}

	// Wires meeting at one terminal may still sit in different groups.
	type meet struct {
		count int
		wire  int // lowest wire index with a track, else the lowest index
		row   float64
	}
	meets := make(map[int]*meet)
	var order []int
	for i, w := range ch.Wires {
		for _, end := range [2]struct {
			tid int
			row float64
		}{{w.From, w.FromRow}, {w.To, w.ToRow}} {
			m, ok := meets[end.tid]
			if !ok {
				m = &meet{wire: i, row: end.row}
				meets[end.tid] = m
				order = append(order, end.tid)
			} else if ch.Wires[m.wire].Track == NoTrack && w.Track != NoTrack {
				m.wire = i
			}
			m.count++
		}
	}
	for _, tid := range order {
		m := meets[tid]
		if m.count < 2 || seen[tid] {
			continue
		}
		seen[tid] = true
		ch.Dots = append(ch.Dots, Dot{
			Terminal: tid,
			Device:   g.Device(g.Terminal(tid).Device).Name,
			Track:    ch.Wires[m.wire].Track,
			Row:      m.row,
		})
	}
}

// Tracks returns the wire indices on each track, in track order.
func (ch *Channel) Tracks() [][]int {
	out := make([][]int, ch.TrackCount)
	for i, w := range ch.Wires {
		if w.Track >= 0 {
			out[w.Track] = append(out[w.Track], i)
		}
	}
	return out
}

// Validate checks that no two wires on one track cross and that
// TrackCount matches the tracks in use.
func (ch *Channel) Validate() error {
	used := make(map[int]bool)
	for i, a := range ch.Wires {
		if a.Track == NoTrack {
			continue
		}
		used[a.Track] = true
		for _, b := range ch.Wires[i+1:] {
			if b.Track == a.Track && Crosses(a, b) {
				return errors.New(errors.ErrCodeInternal, "channel %d: crossing wires share track %d", ch.ID, a.Track)
			}
		}
	}
	if len(used) != ch.TrackCount {
		return errors.New(errors.ErrCodeInternal, "channel %d: %d tracks in use, count says %d", ch.ID, len(used), ch.TrackCount)
	}
	return nil
}

// unrouted returns one wire per same-level terminal pair that no channel
// joins already. A pair counts as joined when both terminals are endpoints
// of wires in a common channel, since they then share that channel's net.
func unrouted(g *circuit.Graph, channels []*Channel) []Wire {
	endpoints := make([]map[int]bool, len(channels))
	for i, ch := range channels {
		endpoints[i] = make(map[int]bool, 2*len(ch.Wires))
		for _, w := range ch.Wires {
			endpoints[i][w.From] = true
			endpoints[i][w.To] = true
		}
	}
	joined := func(a, b int) bool {
		for _, ep := range endpoints {
			if ep[a] && ep[b] {
				return true
			}
		}
		return false
	}

	var out []Wire
	for _, d := range g.Devices() {
		for _, c := range d.Connectors {
			if c.Device <= d.ID || g.Device(c.Device).Level != d.Level {
				continue
			}
			if joined(c.This, c.Connected) {
				continue
			}
			out = append(out, Wire{
				From:       c.This,
				To:         c.Connected,
				FromDevice: d.ID,
				ToDevice:   c.Device,
				Net:        g.Terminal(c.This).Node,
				FromRow:    g.TerminalRow(c.This),
				ToRow:      g.TerminalRow(c.Connected),
				Track:      NoTrack,
				ChannelID:  -1,
				Group:      -1,
			})
		}
	}
	return out
}
