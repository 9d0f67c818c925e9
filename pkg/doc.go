// Package pkg provides the core libraries for netlayout schematic placement.
//
// # Overview
//
// Netlayout takes a circuit of two-terminal devices (R, C, L, V, I) and
// places it on an integer grid the way a hand-drawn schematic would look:
// sources on the left, signal flowing right level by level, wires between
// levels bundled into vertical channels.
//
// # Architecture
//
// The data flow through netlayout:
//
//	netlist text
//	     ↓
//	[netlist] (participle grammar, SI values)
//	     ↓
//	[circuit] (devices, nodes, terminals, connectors)
//	     ↓
//	[layout] engine:
//	  [incidence] → [level] → [ordering] → [orient] → [route] → [geom]
//	     ↓
//	[layout.Result] (JSON) → [render/nodelink] (DOT, SVG, PNG, PDF)
//
// # Quick Start
//
//	g := circuit.New()
//	v1, _ := g.InsertDevice(circuit.VoltageSource, "V1", "in", "0", 5)
//	g.InsertDevice(circuit.Resistor, "R1", "in", "out", 1e3)
//	g.InsertDevice(circuit.Capacitor, "C1", "out", "0", 1e-6)
//
//	res, err := layout.New(g, layout.Options{}).Run(ctx, []int{v1.ID})
//
// Or go through the pipeline, which adds parsing, caching and rendering:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "rc.cir",
//	    Formats: []string{"json", "svg"},
//	})
//
// # Main Packages
//
// [circuit] - The circuit graph. Every layout stage writes its results into
// the devices and terminals of one [circuit.Graph].
//
// [incidence] - Sparse device adjacency over shared non-ground nodes.
//
// [level] - Breadth-first level assignment from the seed devices.
//
// [ordering] - Row assignment by neighbor bubbles, optionally refined by
// simulated annealing against a Fenwick-tree crossing count.
//
// [orient] - Horizontal or vertical drawing per device, and which terminal
// faces which neighbor.
//
// [route] - Channels between levels: wire grouping, track allocation and
// junction dots.
//
// [geom] - Mapping of levels, channels and tracks to grid columns.
//
// [layout] - The stage machine and the exported [layout.Result]. The dump
// subpackage traces every stage as tables.
//
// ## Infrastructure
//
// [pipeline] - Parse → layout → render with caching, shared by the CLI and
// the HTTP server.
//
// [cache] - File, Redis and no-op caches with content-addressed keys.
//
// [observability] - Hooks for parse, layout, render, cache and HTTP events.
//
// [errors] - Coded errors with HTTP status mapping.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/layout    # Examples only
//	go test -tags integration ./pkg/...  # Include Redis tests (REDIS_ADDR)
//
// [netlist]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/netlist
// [circuit]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/circuit
// [circuit.Graph]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/circuit#Graph
// [incidence]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/incidence
// [level]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/level
// [ordering]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/ordering
// [orient]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/orient
// [route]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/route
// [geom]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/geom
// [layout]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/layout
// [layout.Result]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/layout#Result
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/netlayout/pkg/errors
package pkg
