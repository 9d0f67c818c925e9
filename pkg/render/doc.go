// Package render converts rendered SVG to other formats.
//
// The [ToPDF] and [ToPNG] functions shell out to rsvg-convert (from
// librsvg). The node-link preview lives in the [nodelink] subpackage.
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(res, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/netlayout/pkg/render/nodelink
package render
