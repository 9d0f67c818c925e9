package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netlayout/pkg/cache"
	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/layout"
	"github.com/matzehuels/netlayout/pkg/netlist"
	"github.com/matzehuels/netlayout/pkg/observability"
	"github.com/matzehuels/netlayout/pkg/render/nodelink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	src, err := source(opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result := &Result{NetlistHash: cache.HashNetlist(src)}

	// Stage 1: Parse
	parseStart := time.Now()
	n, g, err := r.parse(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Netlist, result.Graph = n, g
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.DeviceCount = g.DeviceCount()
	result.Stats.NodeCount = len(g.Nodes())

	r.Logger.Info("parsed netlist",
		"devices", g.DeviceCount(),
		"nodes", len(g.Nodes()),
		"duration", result.Stats.ParseTime)
	if len(n.Skipped) > 0 {
		r.Logger.Warn("skipped unsupported elements", "elements", n.Skipped)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	res, layoutHit, err := r.layoutWithCache(ctx, result.NetlistHash, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"levels", res.Stats.Levels,
		"channels", res.Stats.Channels,
		"tracks", res.Stats.Tracks,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.renderWithCache(ctx, res, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// source returns the netlist text from the options.
func source(opts Options) ([]byte, error) {
	if opts.Netlist != "" {
		return []byte(opts.Netlist), nil
	}
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", opts.Path)
	}
	return data, nil
}

// Parse reads the netlist named by the options and builds its graph.
func (r *Runner) Parse(ctx context.Context, opts Options) (*netlist.Netlist, *circuit.Graph, error) {
	src, err := source(opts)
	if err != nil {
		return nil, nil, err
	}
	return r.parse(ctx, src, opts)
}

func (r *Runner) parse(ctx context.Context, src []byte, opts Options) (*netlist.Netlist, *circuit.Graph, error) {
	name := opts.Path
	if name == "" {
		name = "<inline>"
	}
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, name)
	start := time.Now()

	n, g, err := parseNetlist(src, opts)
	count := 0
	if g != nil {
		count = g.DeviceCount()
	}
	hooks.OnParseComplete(ctx, name, count, time.Since(start), err)
	return n, g, err
}

func parseNetlist(src []byte, opts Options) (*netlist.Netlist, *circuit.Graph, error) {
	p, err := netlist.NewParser()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "build netlist parser")
	}
	p.Title = opts.Title
	p.SkipUnsupported = opts.SkipUnsupported

	n, err := p.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, nil, err
	}
	g, err := n.Graph()
	if err != nil {
		return nil, nil, err
	}
	return n, g, nil
}

// ResolveSeeds maps seed names to device ids. With no names the devices
// flagged as first-level candidates are used.
func ResolveSeeds(g *circuit.Graph, names []string) ([]int, error) {
	if len(names) > 0 {
		return g.DeviceIDs(names)
	}
	var ids []int
	for _, d := range g.FirstLevelCandidates() {
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySeedSet,
			"no seed devices given and no grounded source to start from")
	}
	return ids, nil
}

// Layout runs every layout stage over g.
func (r *Runner) Layout(ctx context.Context, g *circuit.Graph, opts Options) (*layout.Result, error) {
	if err := opts.SetLayoutDefaults(); err != nil {
		return nil, err
	}
	seeds, err := ResolveSeeds(g, opts.Seeds)
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.DeviceCount(), len(seeds))
	start := time.Now()

	e := layout.New(g, opts.LayoutOptions())
	e.SetObserver(layout.ObserverFunc(func(stage layout.Stage, e *layout.Engine, elapsed time.Duration) {
		hooks.OnStageComplete(ctx, stage.String(), elapsed)
		r.Logger.Debug("stage done", "stage", stage, "duration", elapsed)
		if opts.Observer != nil {
			opts.Observer.StageDone(stage, e, elapsed)
		}
	}))

	res, err := e.Run(ctx, seeds)
	hooks.OnLayoutComplete(ctx, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if n := len(res.Unrouted); n > 0 {
		r.Logger.Warn("same-level connections left unrouted", "count", n)
	}
	return res, nil
}

func (r *Runner) layoutWithCache(ctx context.Context, netlistHash string, g *circuit.Graph, opts Options) (*layout.Result, bool, error) {
	key := r.Keyer.LayoutKey(netlistHash, opts.LayoutKeyOpts())
	hooks := observability.Cache()

	// A tracing observer wants to see the stages run.
	if !opts.Refresh && opts.Observer == nil {
		if data, hit, err := r.Cache.Get(ctx, key); err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		} else if hit {
			if res, err := layout.ReadResult(bytes.NewReader(data)); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return res, true, nil
			}
			// undecodable entry, recompute
		}
		hooks.OnCacheMiss(ctx, "layout")
	}

	res, err := r.Layout(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}

	if a := res.Stats.Anneal; a != nil && a.Stopped {
		// cut short by ctx; a later run may finish the schedule
		return res, false, nil
	}
	var buf bytes.Buffer
	if err := res.WriteJSON(&buf); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), DefaultTTL); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", buf.Len())
		}
	}
	return res, false, nil
}

// Render produces the requested artifacts from a layout.
func (r *Runner) Render(ctx context.Context, res *layout.Result, opts Options) (map[string][]byte, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	dot := nodelink.ToDOT(res, nodelink.Options{Detailed: opts.Detailed, Pinned: opts.Pinned})
	var svg []byte

	for _, format := range opts.Formats {
		hooks := observability.Pipeline()
		hooks.OnRenderStart(ctx, format)
		start := time.Now()

		var data []byte
		var err error
		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = res.WriteJSON(&buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			if svg == nil {
				svg, err = nodelink.RenderSVG(ctx, dot)
			}
			data = svg
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, 2.0)
		}

		hooks.OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderWithCache caches the graphviz outputs; JSON and DOT are cheap and
// always rebuilt.
func (r *Runner) renderWithCache(ctx context.Context, res *layout.Result, opts Options) (map[string][]byte, bool, error) {
	layoutHash, err := placementHash(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if format == FormatJSON || format == FormatDOT {
			missing = append(missing, format)
			continue
		}
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		missing = append(missing, format)
	}

	allCached := len(missing) == 0
	if allCached {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := r.Render(ctx, res, renderOpts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		if format == FormatJSON || format == FormatDOT {
			continue
		}
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, DefaultTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, false, nil
}

// placementHash hashes res without the fields that differ between runs of
// the same layout.
func placementHash(res *layout.Result) (string, error) {
	placement := *res
	placement.RunID = ""
	placement.Stats.Elapsed = 0
	var buf bytes.Buffer
	if err := placement.WriteJSON(&buf); err != nil {
		return "", err
	}
	return cache.Hash(buf.Bytes()), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
