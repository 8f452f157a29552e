package planes

import "image"

// Start is where a fill begins: the first logical index to request and
// the tile-local cursor it is placed at. Forward fills place the unit's top
// edge at Cursor, backward fills its bottom edge.
type Start struct {
	Index     int
	Cursor    int
	Direction Direction
	// Glued reports whether Start continues a neighbour's trace.
	Glued bool
	// Lead is the neighbour's edge unit in tile-local coordinates. The
	// filler redraws the part of it that reaches into the tile, since the
	// neighbour's surface only holds overflow up to its slack.
	Lead Entry
}

// Neighbor is a ready tile whose trace a new fill continues from.
type Neighbor struct {
	// Top is the neighbour's content-space offset.
	Top   int
	Trace Trace
}

// Resolve chooses where a fill of the tile at content offset tileTop
// starts.
//
// With a neighbour, a forward fill continues after the neighbour's last
// unit and a backward fill ends right above its first unit, so adjacent
// tiles abut at the exact pixel the neighbour stopped at. The unit cut by
// the seam is carried as Start.Lead. Without one the
// start is estimated from cell, the height of a representative unit; a
// non-positive cell starts at index 0, cursor 0.
func Resolve(n *Neighbor, tileTop int, dir Direction, cell int) Start {
	if n != nil {
		switch dir {
		case Forward:
			if last, ok := n.Trace.Last(); ok {
				return Start{
					Index:     last.Index + 1,
					Cursor:    n.Top + last.Rect.Max.Y - tileTop,
					Direction: Forward,
					Glued:     true,
					Lead:      n.relative(last, tileTop),
				}
			}
		case Backward:
			if first, ok := n.Trace.First(); ok {
				return Start{
					Index:     first.Index - 1,
					Cursor:    n.Top + first.Rect.Min.Y - tileTop,
					Direction: Backward,
					Glued:     true,
					Lead:      n.relative(first, tileTop),
				}
			}
		}
	}
	return estimate(tileTop, cell)
}

// relative moves a neighbour entry into the coordinates of the tile at
// tileTop.
func (n *Neighbor) relative(e Entry, tileTop int) Entry {
	return Entry{Index: e.Index, Rect: e.Rect.Add(image.Pt(0, n.Top-tileTop))}
}

// estimate bootstraps a fill without neighbour data. It always fills
// forward from the unit covering the tile's top edge.
func estimate(tileTop, cell int) Start {
	switch {
	case cell <= 0:
		return Start{Direction: Forward}
	case tileTop < 0:
		// Content starts inside this tile.
		return Start{Index: 0, Cursor: -tileTop, Direction: Forward}
	default:
		return Start{Index: tileTop / cell, Cursor: -(tileTop % cell), Direction: Forward}
	}
}
