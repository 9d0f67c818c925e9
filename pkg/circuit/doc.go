// Package circuit holds the graph model of a two-terminal circuit: devices,
// nodes and terminals addressed by dense integer ids.
//
// # Overview
//
// A circuit is built incrementally with [Graph.InsertDevice]. Each device
// owns exactly two terminals (positive and negative) and each terminal is
// bound to exactly one node. Node "0" (or "gnd", any case) is the single
// ground node with id 0; it always exists.
//
//	g := circuit.New()
//	g.InsertDevice(circuit.VoltageSource, "V1", "in", "0", 5)
//	g.InsertDevice(circuit.Resistor, "R1", "in", "out", 1e3)
//	g.InsertDevice(circuit.Resistor, "R2", "out", "0", 1e3)
//
// # Ids and ordering
//
// Device ids follow insertion order and never change. Every stable sort in
// the layout pipeline uses insertion order as its tie-break, which makes the
// whole pipeline deterministic for a given input.
//
// # Layout state
//
// Devices carry fields that pipeline stages fill in order: Level, then the
// neighbor classification (Predecessors, Successors, Fellows), then Row,
// then Orientation and Reverse, then GeomCol and GeomRow. The graph itself
// does not enforce stage order; the layout engine does.
//
// # Connectors
//
// [Graph.BuildConnectors] derives, for every device, the list of other
// devices it shares a non-ground node with. Connectors are marked stale
// whenever levels change and must be rebuilt before [Graph.Classify].
package circuit
