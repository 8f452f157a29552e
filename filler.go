package planes

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gg"
)

// DefaultMaxUnitsPerTile bounds the number of units a single fill draws.
const DefaultMaxUnitsPerTile = 4096

// Filler paints content units into tile surfaces.
type Filler struct {
	provider ContentProvider
	maxUnits int
}

// NewFiller returns a Filler drawing units from provider. maxUnits <= 0
// selects DefaultMaxUnitsPerTile.
func NewFiller(provider ContentProvider, maxUnits int) *Filler {
	if maxUnits <= 0 {
		maxUnits = DefaultMaxUnitsPerTile
	}
	return &Filler{provider: provider, maxUnits: maxUnits}
}

// Fill clears the tile surface and draws units from start until the tile
// is covered, returning the trace of what was drawn.
//
// A forward fill stops once the cursor reaches the tile's bottom edge, a
// backward fill once it reaches the top edge; the last unit may overflow
// into the surface slack. A glued start first redraws start.Lead where it
// reaches into the tile; the lead is recorded in the trace only when no
// other unit was drawn. A failing or missing unit ends the fill early with
// the units drawn so far. Cancellation is checked before every unit and
// returns ctx.Err() with no trace.
//
// The caller must hold the tile's build lock.
func (f *Filler) Fill(ctx context.Context, t *Tile, dest image.Rectangle, scale float64, start Start) (Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.surface == nil {
		return nil, ErrClosed
	}
	t.surface.Clear(t.background)

	var (
		trace  Trace
		index  = start.Index
		cursor = start.Cursor
		dc     = t.surface.Context()
		lead   bool
	)
	if start.Glued {
		var err error
		if lead, err = f.drawLead(ctx, t, dc, dest, scale, start.Lead); err != nil {
			return nil, err
		}
	}
	for n := 0; n < f.maxUnits; n++ {
		if start.Direction == Forward && cursor >= t.height {
			break
		}
		if start.Direction == Backward && cursor <= 0 {
			break
		}
		if index < 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unit, size, err := f.get(ctx, index, dest, scale)
		if err != nil {
			if isCancellation(err) && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errors.Is(err, ErrEndOfContent) {
				Logger().Warn("planes: content unit failed", "index", index, "err", err)
			}
			break
		}
		if size.Y <= 0 {
			break
		}
		width := size.X
		if width <= 0 || width > t.width {
			width = t.width
		}

		var rect image.Rectangle
		if start.Direction == Forward {
			rect = image.Rect(0, cursor, width, cursor+size.Y)
			cursor = rect.Max.Y
		} else {
			rect = image.Rect(0, cursor-size.Y, width, cursor)
			cursor = rect.Min.Y
		}

		// Units wholly outside the tile only advance the cursor.
		if rect.Max.Y > 0 && rect.Min.Y < t.height {
			sr := t.toSurface(rect)
			unit.Arrange(sr, scale)
			unit.Render(dc, sr)
			if start.Direction == Forward {
				trace = append(trace, Entry{Index: index, Rect: rect})
			} else {
				trace = append(Trace{{Index: index, Rect: rect}}, trace...)
			}
		}

		if start.Direction == Forward {
			index++
		} else {
			index--
		}
	}
	if len(trace) == 0 && lead {
		trace = Trace{start.Lead}
	}
	return trace, nil
}

// drawLead renders the part of a neighbour's edge unit that lies inside the
// tile and reports whether anything was drawn.
func (f *Filler) drawLead(ctx context.Context, t *Tile, dc *gg.Context, dest image.Rectangle, scale float64, lead Entry) (bool, error) {
	if lead.Rect.Max.Y <= 0 || lead.Rect.Min.Y >= t.height {
		return false, nil
	}
	unit, _, err := f.get(ctx, lead.Index, dest, scale)
	if err != nil {
		if isCancellation(err) && ctx.Err() != nil {
			return false, ctx.Err()
		}
		Logger().Warn("planes: lead unit failed", "index", lead.Index, "err", err)
		return false, nil
	}
	sr := t.toSurface(lead.Rect)
	unit.Arrange(sr, scale)
	unit.Render(dc, sr)
	return true, nil
}

// Measure returns the height of the unit at index, or 0 if it cannot be
// measured.
func (f *Filler) Measure(ctx context.Context, index int, dest image.Rectangle, scale float64) int {
	_, size, err := f.get(ctx, index, dest, scale)
	if err != nil || size.Y < 0 {
		return 0
	}
	return size.Y
}

// get calls the provider, turning panics and nil units into errors.
func (f *Filler) get(ctx context.Context, index int, dest image.Rectangle, scale float64) (unit Unit, size image.Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			unit, size, err = nil, image.Point{}, fmt.Errorf("planes: provider panic at index %d: %v", index, r)
		}
	}()
	unit, size, err = f.provider.Get(ctx, index, dest, scale)
	if err == nil && unit == nil {
		err = ErrNilUnit
	}
	return unit, size, err
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
