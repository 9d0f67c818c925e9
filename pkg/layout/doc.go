// Package layout runs the schematic layout pipeline over a circuit graph.
//
// # Overview
//
// An [Engine] owns the stage order:
//
//	BuildMatrix → Level → Relate → Order → Orient → Route → Map
//
// Each stage augments the same graph in place. Calling a stage before its
// predecessor returns an error with code STAGE_PRECONDITION_VIOLATED.
// [Engine.Run] executes all of them and exports a [Result]:
//
//	g := circuit.New()
//	v1, _ := g.InsertDevice(circuit.VoltageSource, "V1", "n1", "gnd", 1)
//	g.InsertDevice(circuit.Resistor, "R1", "n1", "n2", 1e3)
//	g.InsertDevice(circuit.Resistor, "R2", "n2", "gnd", 1e3)
//
//	res, err := layout.New(g, layout.Options{}).Run(ctx, []int{v1.ID})
//
// # Tracing
//
// An [Observer] is called after every stage with the engine and the time
// the stage took. The dump subpackage provides one that prints the
// intermediate state as tables.
//
// # Determinism
//
// All stages are deterministic: ties are broken by device insertion order
// and annealing draws from a seeded generator. Two runs over equal input
// with equal options produce equal layouts; only [Result.RunID] and timing
// statistics differ.
package layout
