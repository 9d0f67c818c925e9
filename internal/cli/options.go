package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/pkg/pipeline"
)

// layoutFlags holds the flags shared by the commands that run a layout.
// Values from --config are loaded first; flags the user set win over them.
type layoutFlags struct {
	config          string
	seeds           []string
	title           bool
	skipUnsupported bool
	mode            string
	rowDeviceFactor int
	interleaveGap   int
	maxOneColWires  int
	anneal          bool
	annealSeed      uint64
	noCache         bool
	refresh         bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.config, "config", "c", "", "TOML file with layout options")
	fs.StringSliceVarP(&f.seeds, "seed", "s", nil, "seed device(s) for the first level (repeatable, comma-separated)")
	fs.BoolVar(&f.title, "title", false, "treat the first line of the netlist as a title")
	fs.BoolVar(&f.skipUnsupported, "skip-unsupported", false, "skip elements other than V, I, R, C and L")
	fs.StringVarP(&f.mode, "mode", "m", pipeline.DefaultMode, "bubble neighbor filter: none, grounded, all")
	fs.IntVar(&f.rowDeviceFactor, "row-factor", pipeline.DefaultRowDeviceFactor, "row spacing of seed-level devices")
	fs.IntVar(&f.interleaveGap, "interleave-gap", pipeline.DefaultInterleaveGap, "row gap that allows interleaving")
	fs.IntVar(&f.maxOneColWires, "col-wires", pipeline.DefaultMaxOneColWireCount, "tracks per hold column")
	fs.BoolVar(&f.anneal, "anneal", false, "refine row order with simulated annealing")
	fs.Uint64Var(&f.annealSeed, "anneal-seed", pipeline.DefaultSeed, "random seed for annealing")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached results")
}

// options builds pipeline options for the netlist at path.
func (f *layoutFlags) options(cmd *cobra.Command, path string) (pipeline.Options, error) {
	var opts pipeline.Options
	if f.config != "" {
		var err error
		if opts, err = pipeline.LoadOptionsFile(f.config); err != nil {
			return opts, err
		}
	}
	opts.Path = path

	changed := cmd.Flags().Changed
	set := func(name string, apply func()) {
		if f.config == "" || changed(name) {
			apply()
		}
	}
	set("seed", func() {
		if seeds := splitList(f.seeds); len(seeds) > 0 || f.config == "" {
			opts.Seeds = seeds
		}
	})
	set("title", func() { opts.Title = f.title })
	set("skip-unsupported", func() { opts.SkipUnsupported = f.skipUnsupported })
	set("mode", func() { opts.Mode = f.mode })
	set("row-factor", func() { opts.RowDeviceFactor = f.rowDeviceFactor })
	set("interleave-gap", func() { opts.InterleaveGap = f.interleaveGap })
	set("col-wires", func() { opts.MaxOneColWireCount = f.maxOneColWires })
	set("anneal", func() { opts.Anneal = f.anneal })
	set("anneal-seed", func() { opts.Seed = f.annealSeed })
	opts.Refresh = f.refresh

	if err := opts.SetLayoutDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}
