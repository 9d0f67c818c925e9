// Package pipeline runs netlist → layout → render with caching.
//
// The CLI and the HTTP server both go through a [Runner] so that option
// defaults, cache keys and logging stay the same across entry points.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:    "divider.cir",
//	    Seeds:   []string{"V1"},
//	    Formats: []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	n, g, err := runner.Parse(ctx, opts)
//	res, err := runner.Layout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, res, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netlayout/pkg/cache"
	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/geom"
	"github.com/matzehuels/netlayout/pkg/layout"
	"github.com/matzehuels/netlayout/pkg/netlist"
	"github.com/matzehuels/netlayout/pkg/ordering"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMode keeps every neighbor when computing bubbles.
	DefaultMode = "none"

	// DefaultRowDeviceFactor spaces devices of the seed level apart.
	DefaultRowDeviceFactor = ordering.DefaultRowDeviceFactor

	// DefaultInterleaveGap is the row gap that lets a device slot in after
	// the last placed one instead of shifting the column.
	DefaultInterleaveGap = ordering.DefaultInterleaveGap

	// DefaultMaxOneColWireCount is the track count one hold column carries.
	DefaultMaxOneColWireCount = geom.DefaultMaxOneColWireCount

	// DefaultSeed is the default annealing seed for reproducibility.
	DefaultSeed = uint64(ordering.DefaultSeed)

	// DefaultTTL is how long cached layouts are kept.
	DefaultTTL = cache.DefaultTTL
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// It decodes from TOML config files and from JSON API requests.
type Options struct {
	// Input
	Netlist         string   `toml:"-" json:"netlist,omitempty"` // netlist text, wins over Path
	Path            string   `toml:"-" json:"-"`
	Title           bool     `toml:"title" json:"title,omitempty"`
	SkipUnsupported bool     `toml:"skip_unsupported" json:"skip_unsupported,omitempty"`
	Seeds           []string `toml:"seeds" json:"seeds,omitempty"`

	// Ordering and geometry
	Mode               string `toml:"mode" json:"mode,omitempty"`
	RowDeviceFactor    int    `toml:"row_device_factor" json:"row_device_factor,omitempty"`
	InterleaveGap      int    `toml:"interleave_gap" json:"interleave_gap,omitempty"`
	MaxOneColWireCount int    `toml:"max_one_col_wire_count" json:"max_one_col_wire_count,omitempty"`

	// Simulated annealing refinement
	Anneal       bool    `toml:"anneal" json:"anneal,omitempty"`
	Seed         uint64  `toml:"seed" json:"seed,omitempty"`
	T0           float64 `toml:"t0" json:"t0,omitempty"`
	TEnd         float64 `toml:"t_end" json:"t_end,omitempty"`
	Alpha        float64 `toml:"alpha" json:"alpha,omitempty"`
	StepsPerTemp int     `toml:"steps_per_temp" json:"steps_per_temp,omitempty"`

	// Output
	Formats  []string `toml:"formats" json:"formats,omitempty"`
	Detailed bool     `toml:"detailed" json:"detailed,omitempty"`
	Pinned   bool     `toml:"pinned" json:"pinned,omitempty"`
	Refresh  bool     `toml:"-" json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger     `toml:"-" json:"-"`
	Observer layout.Observer `toml:"-" json:"-"`

	mode      ordering.Mode
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Netlist is the parsed netlist.
	Netlist *netlist.Netlist

	// Graph is the circuit graph, laid out unless the layout came from cache.
	Graph *circuit.Graph

	// NetlistHash is the content hash of the netlist text.
	NetlistHash string

	// Layout is the exported layout.
	Layout *layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	DeviceCount int
	NodeCount   int
	ParseTime   time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks values and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Netlist == "" && o.Path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "netlist or path is required")
	}
	if o.Path != "" {
		if err := errors.ValidatePath(o.Path); err != nil {
			return err
		}
	}
	for _, s := range o.Seeds {
		if err := errors.ValidateName("seed device", s); err != nil {
			return err
		}
	}
	if err := o.SetLayoutDefaults(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills in layout defaults and rejects out-of-range
// values with INVALID_CONFIG.
func (o *Options) SetLayoutDefaults() error {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	mode, err := ordering.ParseMode(o.Mode)
	if err != nil {
		return err
	}
	o.mode = mode

	for _, f := range []struct {
		name string
		v    *int
		def  int
	}{
		{"row_device_factor", &o.RowDeviceFactor, DefaultRowDeviceFactor},
		{"interleave_gap", &o.InterleaveGap, DefaultInterleaveGap},
		{"max_one_col_wire_count", &o.MaxOneColWireCount, DefaultMaxOneColWireCount},
		{"steps_per_temp", &o.StepsPerTemp, ordering.DefaultStepsPerTemp},
	} {
		if *f.v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative", f.name)
		}
		if *f.v == 0 {
			*f.v = f.def
		}
	}

	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.T0 == 0 {
		o.T0 = ordering.DefaultT0
	}
	if o.TEnd == 0 {
		o.TEnd = ordering.DefaultTEnd
	}
	if o.Alpha == 0 {
		o.Alpha = ordering.DefaultAlpha
	}
	if o.T0 <= o.TEnd || o.TEnd <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "annealing needs t0 > t_end > 0, got %g and %g", o.T0, o.TEnd)
	}
	if o.Alpha <= 0 || o.Alpha >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "alpha must be in (0, 1), got %g", o.Alpha)
	}
	if err := o.annealOptions().Validate(); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// LayoutOptions converts the options to engine options.
func (o *Options) LayoutOptions() layout.Options {
	opts := layout.Options{
		Ordering: ordering.Options{
			Mode:            o.mode,
			RowDeviceFactor: o.RowDeviceFactor,
			InterleaveGap:   o.InterleaveGap,
		},
		Geom: geom.Options{MaxOneColWireCount: o.MaxOneColWireCount},
	}
	if o.Anneal {
		a := o.annealOptions()
		opts.Anneal = &a
	}
	return opts
}

func (o *Options) annealOptions() ordering.AnnealOptions {
	return ordering.AnnealOptions{
		T0:           o.T0,
		TEnd:         o.TEnd,
		Alpha:        o.Alpha,
		StepsPerTemp: o.StepsPerTemp,
		Seed:         o.Seed,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{
		Title:              o.Title,
		SkipUnsupported:    o.SkipUnsupported,
		Seeds:              slices.Clone(o.Seeds),
		Mode:               o.Mode,
		RowDeviceFactor:    o.RowDeviceFactor,
		InterleaveGap:      o.InterleaveGap,
		MaxOneColWireCount: o.MaxOneColWireCount,
	}
	if o.Anneal {
		k.Anneal = &cache.AnnealKeyOpts{
			Seed:         o.Seed,
			T0:           o.T0,
			TEnd:         o.TEnd,
			Alpha:        o.Alpha,
			StepsPerTemp: o.StepsPerTemp,
		}
	}
	return k
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: fmt.Sprintf("%s:detailed=%t:pinned=%t", format, o.Detailed, o.Pinned)}
}
