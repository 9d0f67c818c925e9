// Package nodelink renders computed schematic layouts as node-link diagrams.
//
// # Overview
//
// Devices appear as boxes (sources as circles) and every routed wire as an
// edge labelled with its net. This is a preview of the logical layout, not
// a schematic drawing: wires are not drawn along their channel tracks.
//
// # Usage
//
// Convert a layout result to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(res, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// With Pinned set, devices are fixed at their grid column and row so the
// preview matches the computed geometry:
//
//	dot := nodelink.ToDOT(res, nodelink.Options{Pinned: true})
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
