package ordering

import (
	"cmp"
	"slices"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/level"
)

// span is one successor edge between adjacent levels, by row.
type span struct{ from, to int }

// CountCrossings returns the number of strictly crossing successor edges
// summed over every pair of adjacent levels. Two edges (a1,a2) and (b1,b2)
// cross iff (a1-b1)(a2-b2) < 0; edges sharing an endpoint row never cross.
func CountCrossings(g *circuit.Graph, h level.Hierarchy) int {
	total := 0
	var buf []span
	for l := 0; l+1 < h.Len(); l++ {
		buf = levelSpans(g, h.Levels[l], buf[:0])
		total += countInversions(buf)
	}
	return total
}

// CountLevelCrossings counts strict crossings between level ids and its
// successors.
func CountLevelCrossings(g *circuit.Graph, ids []int) int {
	return countInversions(levelSpans(g, ids, nil))
}

func levelSpans(g *circuit.Graph, ids []int, buf []span) []span {
	for _, id := range ids {
		d := g.Device(id)
		for _, s := range d.Successors {
			buf = append(buf, span{d.Row, g.Device(s).Row})
		}
	}
	return buf
}

// countInversions counts pairs with from_i < from_j and to_i > to_j using a
// Fenwick tree over the compressed target rows. O(E log E).
func countInversions(edges []span) int {
	if len(edges) < 2 {
		return 0
	}

	// Sort edges by source row, then by target row. Equal sources are thus
	// never counted as inversions.
	slices.SortFunc(edges, func(a, b span) int {
		return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.to, b.to))
	})

	// Rows may be negative or sparse; compress to ranks.
	targets := make([]int, len(edges))
	for i, e := range edges {
		targets[i] = e.to
	}
	slices.Sort(targets)
	targets = slices.Compact(targets)

	fenwick := make([]int, len(targets)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		rank, _ := slices.BinarySearch(targets, e.to)

		// edges seen so far with target <= e.to
		lessOrEqual := 0
		for q := rank + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := rank + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

// Wirelength returns the summed |Δrow| + |Δlevel| over all successor edges.
func Wirelength(g *circuit.Graph) int {
	total := 0
	for _, d := range g.Devices() {
		for _, s := range d.Successors {
			n := g.Device(s)
			total += abs(d.Row-n.Row) + abs(d.Level-n.Level)
		}
	}
	return total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
