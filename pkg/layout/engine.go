package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/geom"
	"github.com/matzehuels/netlayout/pkg/incidence"
	"github.com/matzehuels/netlayout/pkg/level"
	"github.com/matzehuels/netlayout/pkg/ordering"
	"github.com/matzehuels/netlayout/pkg/orient"
	"github.com/matzehuels/netlayout/pkg/route"
)

// Stage identifies how far an [Engine] has progressed.
type Stage int

const (
	StageBuilt    Stage = iota // graph populated, nothing computed
	StageMatrix                // incidence matrix built
	StageLeveled               // levels assigned
	StageRelated               // connectors rebuilt and classified
	StageOrdered               // rows assigned (and annealed)
	StageOriented              // orientation and reverse decided
	StageRouted                // channels routed
	StageMapped                // geometric columns and rows assigned
)

var stageNames = [...]string{"built", "matrix", "leveled", "related", "ordered", "oriented", "routed", "mapped"}

// String returns the lowercase stage name.
func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Options configures every stage of an [Engine].
type Options struct {
	Ordering ordering.Options
	Anneal   *ordering.AnnealOptions // nil skips refinement
	Geom     geom.Options
}

// Observer receives a callback after every completed stage. It may inspect
// the engine but must not mutate the graph.
type Observer interface {
	StageDone(stage Stage, e *Engine, elapsed time.Duration)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(stage Stage, e *Engine, elapsed time.Duration)

// StageDone calls f.
func (f ObserverFunc) StageDone(stage Stage, e *Engine, elapsed time.Duration) { f(stage, e, elapsed) }

// Engine runs the layout pipeline over one graph. Stages must run in order;
// re-running an earlier stage rolls the engine back to it, so every later
// stage has to run again. An Engine is not safe for concurrent use.
type Engine struct {
	g        *circuit.Graph
	opts     Options
	observer Observer
	stage    Stage

	matrix    *incidence.Matrix
	hierarchy level.Hierarchy
	seeds     []int
	seedLevel int
	channels  []*route.Channel
	unrouted  []route.Wire
	grid      geom.Grid

	crossings int
	annealed  *ordering.AnnealStats
	oriented  orient.Stats
	elapsed   time.Duration
}

// New creates an engine over g. The engine takes no ownership; the graph is
// mutated in place by every stage.
func New(g *circuit.Graph, opts Options) *Engine {
	return &Engine{g: g, opts: opts, seedLevel: -1}
}

// SetObserver installs an observer called after each stage. Pass nil to
// remove it.
func (e *Engine) SetObserver(o Observer) { e.observer = o }

// Graph returns the graph the engine works on.
func (e *Engine) Graph() *circuit.Graph { return e.g }

// Stage returns the last completed stage.
func (e *Engine) Stage() Stage { return e.stage }

// Matrix returns the incidence matrix, or nil before [Engine.BuildMatrix].
func (e *Engine) Matrix() *incidence.Matrix { return e.matrix }

// Hierarchy returns the levels computed by [Engine.Level].
func (e *Engine) Hierarchy() level.Hierarchy { return e.hierarchy }

// SeedLevel returns the level row ordering started from, or -1.
func (e *Engine) SeedLevel() int { return e.seedLevel }

// Channels returns the routed channels.
func (e *Engine) Channels() []*route.Channel { return e.channels }

// Unrouted returns the same-level connections no channel carries.
func (e *Engine) Unrouted() []route.Wire { return e.unrouted }

// Grid returns the geometric grid summary.
func (e *Engine) Grid() geom.Grid { return e.grid }

func (e *Engine) require(prev, next Stage) error {
	if e.stage < prev {
		return errors.New(errors.ErrCodeStagePrecondition, "%s requires stage %s, engine is at %s", next, prev, e.stage)
	}
	return nil
}

func (e *Engine) done(stage Stage, start time.Time) {
	e.stage = stage
	elapsed := time.Since(start)
	e.elapsed += elapsed
	if e.observer != nil {
		e.observer.StageDone(stage, e, elapsed)
	}
}

// BuildMatrix builds the incidence matrix from the graph.
func (e *Engine) BuildMatrix() error {
	start := time.Now()
	m, err := incidence.Build(e.g)
	if err != nil {
		return err
	}
	e.matrix = m
	e.done(StageMatrix, start)
	return nil
}

// Level assigns levels by BFS from the seed device ids.
func (e *Engine) Level(seeds []int) error {
	if err := e.require(StageMatrix, StageLeveled); err != nil {
		return err
	}
	start := time.Now()
	h, err := level.Assign(e.g, e.matrix, seeds)
	if err != nil {
		return err
	}
	e.hierarchy = h
	e.seeds = append(e.seeds[:0], seeds...)
	e.done(StageLeveled, start)
	return nil
}

// Relate rebuilds connectors and classifies predecessors, successors and
// fellows of every device.
func (e *Engine) Relate() error {
	if err := e.require(StageLeveled, StageRelated); err != nil {
		return err
	}
	start := time.Now()
	e.g.BuildConnectors()
	if err := e.g.Classify(); err != nil {
		return err
	}
	e.done(StageRelated, start)
	return nil
}

// Order assigns rows with the bubble heuristic and, if configured, refines
// them by simulated annealing. Cancelling ctx only cuts annealing short.
func (e *Engine) Order(ctx context.Context) error {
	if err := e.require(StageRelated, StageOrdered); err != nil {
		return err
	}
	start := time.Now()
	seed, err := ordering.Order(e.g, e.hierarchy, e.opts.Ordering)
	if err != nil {
		return err
	}
	e.seedLevel = seed
	e.annealed = nil
	if e.opts.Anneal != nil {
		stats := ordering.Anneal(ctx, e.g, e.hierarchy, *e.opts.Anneal)
		e.annealed = &stats
	}
	e.crossings = ordering.CountCrossings(e.g, e.hierarchy)
	e.done(StageOrdered, start)
	return nil
}

// Orient decides orientation and reverse flags.
func (e *Engine) Orient() error {
	if err := e.require(StageOrdered, StageOriented); err != nil {
		return err
	}
	start := time.Now()
	stats, err := orient.Decide(e.g, e.hierarchy)
	if err != nil {
		return err
	}
	e.oriented = stats
	e.done(StageOriented, start)
	return nil
}

// Route builds the channels and assigns tracks and dots.
func (e *Engine) Route() error {
	if err := e.require(StageOriented, StageRouted); err != nil {
		return err
	}
	start := time.Now()
	channels, unrouted, err := route.Build(e.g, e.hierarchy)
	if err != nil {
		return err
	}
	e.channels, e.unrouted = channels, unrouted
	e.done(StageRouted, start)
	return nil
}

// Map assigns geometric columns and rows. It may be called repeatedly.
func (e *Engine) Map() error {
	if err := e.require(StageRouted, StageMapped); err != nil {
		return err
	}
	start := time.Now()
	grid, err := geom.Map(e.g, e.hierarchy, e.channels, e.opts.Geom)
	if err != nil {
		return err
	}
	e.grid = grid
	e.done(StageMapped, start)
	return nil
}

// Run executes every stage in order and returns the exported result.
// Errors are wrapped with the failing stage name; the error code of the
// underlying failure is preserved.
func (e *Engine) Run(ctx context.Context, seeds []int) (*Result, error) {
	steps := []struct {
		stage Stage
		run   func() error
	}{
		{StageMatrix, e.BuildMatrix},
		{StageLeveled, func() error { return e.Level(seeds) }},
		{StageRelated, e.Relate},
		{StageOrdered, func() error { return e.Order(ctx) }},
		{StageOriented, e.Orient},
		{StageRouted, e.Route},
		{StageMapped, e.Map},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.stage, err)
		}
	}
	return e.Result()
}
