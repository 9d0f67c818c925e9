// Package ordering assigns logical rows to the devices of each level so that
// wires between adjacent levels cross as little as possible.
//
// # Bubble ordering
//
// [Order] is a barycenter-style heuristic. The widest level is fixed first,
// then every other level is ordered from its already-ordered neighbor level:
// each device's "bubble" is the rounded mean row of its reference neighbors,
// and [AssignRows] places devices by ascending bubble, either at the bubble
// itself, interleaved directly after the previous device, or by shifting
// the already placed devices up.
//
// A [Mode] can exclude grounded (and coupled) capacitors from the neighbors
// that drive the bubble, which keeps shunt capacitors from pulling the main
// signal path around.
//
// # Refinement
//
// [Anneal] optionally improves the result by simulated annealing over row
// swaps, minimizing [Cost]. It is deterministic for a given seed.
//
// # Crossings
//
// [CountCrossings] counts strict crossings of successor edges between
// adjacent levels with a Fenwick tree in O(E log E).
package ordering
