package content

import (
	"context"
	"image"

	"github.com/gogpu/gg"
	"github.com/gogpu/planes"
)

// DefaultPalette is the colour cycle used by Rows.
var DefaultPalette = []gg.RGBA{
	gg.Hex("#e8eaf6"),
	gg.Hex("#c5cae9"),
	gg.Hex("#9fa8da"),
	gg.Hex("#7986cb"),
}

// Rows is a provider of full-width solid rows.
type Rows struct {
	count   int
	height  func(index int) int
	palette []gg.RGBA
}

// NewRows returns count rows (count < 0 for an unbounded list) whose
// heights come from height. A nil palette selects DefaultPalette.
func NewRows(count int, height func(index int) int, palette []gg.RGBA) *Rows {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Rows{count: count, height: height, palette: palette}
}

// Uniform returns a height function for rows of equal height.
func Uniform(h int) func(int) int {
	return func(int) int { return h }
}

// Get implements planes.ContentProvider.
func (r *Rows) Get(ctx context.Context, index int, dest image.Rectangle, _ float64) (planes.Unit, image.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, image.Point{}, err
	}
	if index < 0 || (r.count >= 0 && index >= r.count) {
		return nil, image.Point{}, planes.ErrEndOfContent
	}
	u := &row{fill: r.palette[index%len(r.palette)]}
	return u, image.Pt(dest.Dx(), r.height(index)), nil
}

type row struct {
	fill gg.RGBA
}

func (u *row) Arrange(image.Rectangle, float64) {}

func (u *row) Render(dc *gg.Context, r image.Rectangle) {
	dc.SetRGBA(u.fill.R, u.fill.G, u.fill.B, u.fill.A)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	_ = dc.Fill()
}
