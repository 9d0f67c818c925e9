package route

// NoTrack marks a horizontal wire: both endpoints sit on the same row, so
// it needs no vertical lane in its channel.
const NoTrack = -1

// Wire is a directed logical connection from a terminal on level i to a
// terminal on level i+1.
type Wire struct {
	From       int // terminal id on the left level
	To         int // terminal id on the right level
	FromDevice int
	ToDevice   int
	Net        int // node id shared by both terminals
	FromRow    float64
	ToRow      float64

	Track     int
	ChannelID int
	Group     int // merge group index within the channel, -1 for horizontal wires
	GeomCol   int
}

// Horizontal reports whether both endpoints share a row.
func (w Wire) Horizontal() bool { return w.FromRow == w.ToRow }

// Top returns the smaller endpoint row.
func (w Wire) Top() float64 { return min(w.FromRow, w.ToRow) }

// Bottom returns the larger endpoint row.
func (w Wire) Bottom() float64 { return max(w.FromRow, w.ToRow) }

// product is the signed product of both endpoint-row differences. Negative
// means the wires swap order between the two levels; zero means they share
// an endpoint row.
func product(a, b Wire) float64 {
	return (a.FromRow - b.FromRow) * (a.ToRow - b.ToRow)
}

// Crosses reports whether a and b strictly cross. It is symmetric.
func Crosses(a, b Wire) bool { return product(a, b) < 0 }

// CanMerge reports whether a and b can be drawn as one physical net: they
// share an endpoint row and carry the same net.
func CanMerge(a, b Wire) bool { return product(a, b) == 0 && a.Net == b.Net }

// Overlaps reports whether the closed vertical spans of a and b intersect.
// Touching endpoints count as overlapping.
func Overlaps(a, b Wire) bool {
	return a.Top() <= b.Bottom() && b.Top() <= a.Bottom()
}

// Conflicts reports whether a and b may not share a track: they cross, or
// their vertical segments would overlap on the same lane.
func Conflicts(a, b Wire) bool {
	return Crosses(a, b) || Overlaps(a, b)
}

// sharedTerminal returns the terminal and row at which two mergeable wires
// meet. Callers must ensure CanMerge(a, b).
func sharedTerminal(a, b Wire) (int, float64) {
	if a.FromRow == b.FromRow {
		return a.From, a.FromRow
	}
	return a.To, a.ToRow
}
