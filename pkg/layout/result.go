package layout

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/route"
)

// Result is the exported logical layout handed to renderers. It is plain
// data and serializes to JSON.
type Result struct {
	RunID    string          `json:"run_id"`
	Devices  []DeviceResult  `json:"devices"`
	Wires    []WireResult    `json:"wires"`
	Dots     []DotResult     `json:"dots"`
	Channels []ChannelResult `json:"channels"`
	Unrouted []WireResult    `json:"unrouted,omitempty"`
	Stats    Stats           `json:"stats"`
}

// DeviceResult is the placement of one device.
type DeviceResult struct {
	Name        string              `json:"name"`
	Type        circuit.DeviceType  `json:"type"`
	Value       float64             `json:"value"`
	Level       int                 `json:"level"`
	Row         int                 `json:"row"`
	GeomCol     int                 `json:"geom_col"`
	GeomRow     int                 `json:"geom_row"`
	Orientation circuit.Orientation `json:"orientation"`
	Reverse     bool                `json:"reverse"`
}

// Endpoint names one terminal of one device.
type Endpoint struct {
	Device   string               `json:"device"`
	Terminal circuit.TerminalType `json:"terminal"`
}

// WireResult is one routed wire.
type WireResult struct {
	From    Endpoint `json:"from"`
	To      Endpoint `json:"to"`
	Net     string   `json:"net"`
	Track   int      `json:"track"`
	Channel int      `json:"channel"`
	GeomCol int      `json:"geom_col"`
}

// DotResult is one junction marker.
type DotResult struct {
	GeomCol  int                  `json:"geom_col"`
	GeomRow  float64              `json:"geom_row"`
	Track      int                  `json:"track"`
	TerminalID int                  `json:"terminal_id"`
	Terminal   circuit.TerminalType `json:"terminal"`
	Device     string               `json:"device"`
}

// ChannelResult summarizes one channel.
type ChannelResult struct {
	ID       int `json:"id"`
	Tracks   int `json:"tracks"`
	HoldCols int `json:"hold_cols"`
	GeomCol  int `json:"geom_col"`
}

// Stats are run statistics.
type Stats struct {
	Devices   int           `json:"devices"`
	Levels    int           `json:"levels"`
	SeedLevel int           `json:"seed_level"`
	Channels  int           `json:"channels"`
	Tracks    int           `json:"tracks"`
	Crossings int           `json:"crossings"`
	Vertical  int           `json:"vertical"`
	Reversed  int           `json:"reversed"`
	Cols      int           `json:"cols"`
	Rows      int           `json:"rows"`
	Anneal    *AnnealStats  `json:"anneal,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// AnnealStats reports the refinement pass.
type AnnealStats struct {
	Steps       int     `json:"steps"`
	Accepted    int     `json:"accepted"`
	InitialCost float64 `json:"initial_cost"`
	FinalCost   float64 `json:"final_cost"`
	Stopped     bool    `json:"stopped,omitempty"`
}

// Result exports the layout. Returns STAGE_PRECONDITION_VIOLATED until
// [Engine.Map] has run.
func (e *Engine) Result() (*Result, error) {
	if e.stage != StageMapped {
		return nil, errors.New(errors.ErrCodeStagePrecondition, "result requires stage %s, engine is at %s", StageMapped, e.stage)
	}
	g := e.g
	r := &Result{
		RunID:    uuid.NewString(),
		Devices:  make([]DeviceResult, 0, g.DeviceCount()),
		Wires:    []WireResult{},
		Dots:     []DotResult{},
		Channels: make([]ChannelResult, 0, len(e.channels)),
	}

	for _, d := range g.Devices() {
		r.Devices = append(r.Devices, DeviceResult{
			Name:        d.Name,
			Type:        d.Type,
			Value:       d.Value,
			Level:       d.Level,
			Row:         d.Row,
			GeomCol:     d.GeomCol,
			GeomRow:     d.GeomRow,
			Orientation: d.Orientation,
			Reverse:     d.Reverse,
		})
	}

	tracks := 0
	for _, ch := range e.channels {
		tracks += ch.TrackCount
		r.Channels = append(r.Channels, ChannelResult{
			ID:       ch.ID,
			Tracks:   ch.TrackCount,
			HoldCols: ch.HoldColCount,
			GeomCol:  ch.GeomCol,
		})
		for _, w := range ch.Wires {
			r.Wires = append(r.Wires, wireResult(g, w))
		}
		for _, dot := range ch.Dots {
			r.Dots = append(r.Dots, DotResult{
				GeomCol:    dot.GeomCol,
				GeomRow:    dot.GeomRow,
				Track:      dot.Track,
				TerminalID: dot.Terminal,
				Terminal:   g.Terminal(dot.Terminal).Type,
				Device:     dot.Device,
			})
		}
	}
	for _, w := range e.unrouted {
		r.Unrouted = append(r.Unrouted, wireResult(g, w))
	}

	r.Stats = Stats{
		Devices:   g.DeviceCount(),
		Levels:    e.hierarchy.Len(),
		SeedLevel: e.seedLevel,
		Channels:  len(e.channels),
		Tracks:    tracks,
		Crossings: e.crossings,
		Vertical:  e.oriented.Vertical,
		Reversed:  e.oriented.Reversed,
		Cols:      e.grid.Cols,
		Rows:      e.grid.Rows,
		Elapsed:   e.elapsed,
	}
	if a := e.annealed; a != nil {
		r.Stats.Anneal = &AnnealStats{
			Steps:       a.Steps,
			Accepted:    a.Accepted,
			InitialCost: a.InitialCost,
			FinalCost:   a.FinalCost,
			Stopped:     a.Stopped,
		}
	}
	return r, nil
}

func wireResult(g *circuit.Graph, w route.Wire) WireResult {
	return WireResult{
		From:    endpoint(g, w.From),
		To:      endpoint(g, w.To),
		Net:     g.Node(w.Net).Name,
		Track:   w.Track,
		Channel: w.ChannelID,
		GeomCol: w.GeomCol,
	}
}

func endpoint(g *circuit.Graph, tid int) Endpoint {
	t := g.Terminal(tid)
	return Endpoint{Device: g.Device(t.Device).Name, Terminal: t.Type}
}

// WriteJSON writes the result as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadResult decodes a result written by [Result.WriteJSON].
func ReadResult(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode layout result")
	}
	return &res, nil
}

// Device returns the placement of the named device.
func (r *Result) Device(name string) (DeviceResult, bool) {
	for _, d := range r.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceResult{}, false
}
