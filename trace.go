package planes

import "image"

// Entry records one unit drawn into a tile: its logical index and the
// tile-local rectangle it occupies.
type Entry struct {
	Index int
	Rect  image.Rectangle
}

// Trace is the layout of one tile fill, ordered top to bottom regardless
// of the direction it was filled in. A Trace is replaced wholesale on
// every refill and never mutated after publication.
type Trace []Entry

// First returns the visually topmost entry.
func (t Trace) First() (Entry, bool) {
	if len(t) == 0 {
		return Entry{}, false
	}
	return t[0], true
}

// Last returns the visually bottommost entry.
func (t Trace) Last() (Entry, bool) {
	if len(t) == 0 {
		return Entry{}, false
	}
	return t[len(t)-1], true
}

// Extent returns the union of all entry rectangles.
func (t Trace) Extent() image.Rectangle {
	var r image.Rectangle
	for _, e := range t {
		r = r.Union(e.Rect)
	}
	return r
}

// Indices returns the logical indices in visual order.
func (t Trace) Indices() []int {
	out := make([]int, len(t))
	for i, e := range t {
		out[i] = e.Index
	}
	return out
}
