package planes

import (
	"context"
	"image"

	"github.com/gogpu/gg"
)

// ContentProvider produces the drawable unit for one logical index.
//
// dest is the tile rectangle the unit will be laid out in; its width is
// the width available to the unit, its height is informational. The
// returned size is the measured pixel size of the unit; only the height
// drives layout.
//
// Get is called concurrently from several builders and must be safe for
// concurrent use. It should return ctx.Err() promptly once ctx is done and
// ErrEndOfContent for indices outside the content.
type ContentProvider interface {
	Get(ctx context.Context, index int, dest image.Rectangle, scale float64) (Unit, image.Point, error)
}

// Unit is one measured, drawable piece of content.
//
// Rectangles are in surface pixels: the filler has already translated the
// tile-local layout rectangle onto the surface.
type Unit interface {
	Arrange(rect image.Rectangle, scale float64)
	Render(dc *gg.Context, rect image.Rectangle)
}

// ProviderFunc adapts a function to the ContentProvider interface.
type ProviderFunc func(ctx context.Context, index int, dest image.Rectangle, scale float64) (Unit, image.Point, error)

// Get implements ContentProvider.
func (f ProviderFunc) Get(ctx context.Context, index int, dest image.Rectangle, scale float64) (Unit, image.Point, error) {
	return f(ctx, index, dest, scale)
}
