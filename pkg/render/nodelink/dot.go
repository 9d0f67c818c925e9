package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/layout"
	"github.com/matzehuels/netlayout/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes level, row and value in device labels.
	// When false, only the device name is shown.
	Detailed bool

	// Pinned places devices at their computed grid position (neato with
	// fixed coordinates). When false, Graphviz ranks devices by level and
	// chooses positions itself.
	Pinned bool

	// Scale is the distance in inches between grid cells when Pinned.
	Scale float64
}

// DefaultScale is the grid cell size used when Options.Scale is zero.
const DefaultScale = 1.2

// ToDOT converts a layout result to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Levels run left to right. Each wire becomes an edge labelled with its net;
// same-level connections the router left unrouted are drawn dashed.
func ToDOT(res *layout.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Pinned {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  splines=line;\n")
	} else {
		buf.WriteString("  rankdir=LR;\n")
		buf.WriteString("  ranksep=0.8;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [arrowhead=none, fontsize=10, fontcolor=grey40];\n")
	buf.WriteString("\n")

	scale := cmp.Or(opts.Scale, DefaultScale)
	for _, level := range levels(res) {
		if !opts.Pinned {
			buf.WriteString("  { rank=same;")
			for _, d := range level {
				fmt.Fprintf(&buf, " %q;", d.Name)
			}
			buf.WriteString(" }\n")
		}
		for _, d := range level {
			attrs := fmtAttrs(d, fmtLabel(d, opts.Detailed))
			if opts.Pinned {
				attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", float64(d.GeomCol)*scale, -float64(d.GeomRow)*scale))
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", d.Name, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("\n")
	for _, w := range res.Wires {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", w.From.Device, w.To.Device, w.Net)
	}
	for _, w := range res.Unrouted {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed, constraint=false];\n", w.From.Device, w.To.Device, w.Net)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// levels groups devices by level, each level sorted by row then name.
func levels(res *layout.Result) [][]layout.DeviceResult {
	var out [][]layout.DeviceResult
	for _, d := range res.Devices {
		for len(out) <= d.Level {
			out = append(out, nil)
		}
		if d.Level >= 0 {
			out[d.Level] = append(out[d.Level], d)
		}
	}
	for _, level := range out {
		slices.SortStableFunc(level, func(a, b layout.DeviceResult) int {
			return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Name, b.Name))
		})
	}
	return out
}

func fmtLabel(d layout.DeviceResult, detailed bool) string {
	if !detailed {
		return d.Name
	}
	parts := []string{
		fmt.Sprintf("level: %d", d.Level),
		fmt.Sprintf("row: %d", d.Row),
	}
	if d.Value != 0 {
		parts = append(parts, fmt.Sprintf("value: %s", strconv.FormatFloat(d.Value, 'g', -1, 64)))
	}
	return d.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(d layout.DeviceResult, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if d.Type.IsSource() {
		attrs = append(attrs, "shape=circle", "fillcolor=lightyellow")
	}
	if d.Orientation == circuit.Vertical {
		attrs = append(attrs, "orientation=90")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
