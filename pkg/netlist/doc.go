// Package netlist reads SPICE-style netlists into circuit graphs.
//
// Only the two-terminal subset is understood:
//
//	* voltage divider
//	V1 n1 0 DC 5
//	R1 n1 n2 1k
//	R2 n2 0 1k ; load
//	.op
//	.end
//
// The first letter of an element name selects the device type (R, C, L, V,
// I). Lines starting with "*" and text after ";" are comments, dot
// directives are ignored, and values accept the usual scale suffixes
// (T, G, meg, k, m, u, n, p, f, mil). Node "0" or "gnd" is ground.
package netlist
