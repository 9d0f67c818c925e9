package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/pkg/layout/dump"
	"github.com/matzehuels/netlayout/pkg/pipeline"
)

// layoutCommand creates the layout command, the main entry point: netlist in,
// layout.json (and optionally rendered diagrams) out.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   layoutFlags
		output  string
		formats string
		pick    bool
		trace   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [netlist.cir]",
		Short: "Compute a schematic layout from a netlist",
		Long: `Compute a schematic layout from a netlist.

The layout command parses a SPICE-style netlist of V, I, R, C and L elements,
assigns devices to levels starting from the seed devices, orders the rows,
routes the wires between levels and maps the result onto a grid.

Without --seed the grounded sources are used as the first level. With --pick
an interactive list lets you choose them.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") || len(opts.Formats) == 0 {
				opts.Formats = parseFormats(formats, pipeline.FormatJSON)
			}
			if trace {
				opts.Observer = dump.New(os.Stderr)
			}
			return c.runLayout(cmd.Context(), opts, output, flags.noCache, pick)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (default: <input>.layout)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose seed devices interactively")
	cmd.Flags().BoolVar(&trace, "trace", false, "print intermediate tables after every stage")

	return cmd
}

// runLayout executes the pipeline and writes one file per format.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache, pick bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if pick {
		_, g, err := runner.Parse(ctx, opts)
		if err != nil {
			return err
		}
		seeds, err := pickSeeds(g)
		if err != nil {
			return err
		}
		if seeds == nil {
			printDetail("No selection made")
			return nil
		}
		opts.Seeds = seeds
	}

	var spinner *Spinner
	if opts.Observer == nil {
		spinner = newSpinner(ctx, "Computing layout...")
		spinner.Start()
	}
	result, err := runner.Execute(ctx, opts)
	if spinner != nil {
		spinner.Stop()
		if spinner.Cancelled() {
			return ctx.Err()
		}
		if err != nil {
			spinner.StopWithError("Layout failed", err)
		}
	}
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, opts.Path, output)
	if err != nil {
		return err
	}

	res := result.Layout
	printSuccess("Layout complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.DeviceCount, result.Stats.NodeCount, result.CacheInfo.LayoutHit)
	printLayoutSummary(res)
	if i := slices.Index(opts.Formats, pipeline.FormatJSON); i >= 0 && !slices.Contains(opts.Formats, pipeline.FormatSVG) {
		printNewline()
		printNextStep("Render", appName+" render "+paths[i])
	}
	return nil
}

// writeArtifacts writes each artifact to disk. A single format goes to
// output as given; several formats share output as base path.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout"
	}
	var paths []string
	for _, format := range formats {
		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
