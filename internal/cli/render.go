package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/pkg/layout"
	"github.com/matzehuels/netlayout/pkg/pipeline"
)

// renderCommand turns a layout.json written by 'layout' into diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output   string
		formats  string
		detailed bool
		pinned   bool
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a computed layout to DOT, SVG, PNG or PDF",
		Long: `Render a computed layout to DOT, SVG, PNG or PDF.

By default graphviz arranges the devices by level. With --pinned every device
is placed at its computed grid position instead.

PNG and PDF output needs rsvg-convert on PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Formats:  parseFormats(formats, pipeline.FormatSVG),
				Detailed: detailed,
				Pinned:   pinned,
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			for _, f := range opts.Formats {
				if f == pipeline.FormatJSON {
					return fmt.Errorf("render: json is the input format, use dot, svg, png or pdf")
				}
			}
			return c.runRender(cmd.Context(), args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label devices with type, value and grid position")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "place devices at their grid coordinates")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open layout %s: %w", input, err)
	}
	res, err := layout.ReadResult(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	prog := newProgress(c.Logger)
	artifacts, err := runner.Render(ctx, res, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d device(s)", len(res.Devices)))

	if output == "" {
		output = strings.TrimSuffix(strings.TrimSuffix(input, filepath.Ext(input)), ".layout")
		if len(opts.Formats) == 1 {
			output += "." + opts.Formats[0]
		}
	}
	paths, err := writeArtifacts(artifacts, opts.Formats, input, output)
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printLayoutSummary(res)
	return nil
}
