package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/layout"
	"github.com/matzehuels/netlayout/pkg/pipeline"
)

// levelsCommand prints the level and row of every device without routing.
func (c *CLI) levelsCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "levels [netlist.cir]",
		Short: "Show the level and row assignment of a netlist",
		Long: `Show the level and row assignment of a netlist.

Runs the pipeline up to row ordering and prints one table row per device.
Useful to check seed choices before computing a full layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runLevels(cmd.Context(), opts)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runLevels(ctx context.Context, opts pipeline.Options) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	_, g, err := runner.Parse(ctx, opts)
	if err != nil {
		return err
	}
	seeds, err := pipeline.ResolveSeeds(g, opts.Seeds)
	if err != nil {
		return err
	}

	e := layout.New(g, opts.LayoutOptions())
	if err := orderOnly(ctx, e, seeds); err != nil {
		return err
	}

	fmt.Println(levelsTable(g, e.Hierarchy().Levels).Render())
	printDetail("%d levels · seed level %d", len(e.Hierarchy().Levels), e.SeedLevel())
	return nil
}

// orderOnly runs the stages up to and including row ordering.
func orderOnly(ctx context.Context, e *layout.Engine, seeds []int) error {
	if err := e.BuildMatrix(); err != nil {
		return err
	}
	if err := e.Level(seeds); err != nil {
		return err
	}
	if err := e.Relate(); err != nil {
		return err
	}
	return e.Order(ctx)
}

func levelsTable(g *circuit.Graph, levels [][]int) *table.Table {
	var rows [][]string
	for lvl, ids := range levels {
		for _, id := range ids {
			d := g.Device(id)
			rows = append(rows, []string{
				strconv.Itoa(lvl),
				d.Name,
				d.Type.String(),
				strconv.Itoa(d.Row),
				strconv.Itoa(d.Bubble),
			})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Level", "Device", "Type", "Row", "Bubble").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch col {
			case 0:
				return StyleNumber
			case 1:
				return StyleValue
			}
			return StyleDim
		})
}
