package content

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/gogpu/planes"
	"github.com/gogpu/planes/cache"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Feed defaults.
const (
	DefaultFontSize = 14.0
	DefaultPadding  = 12
	DefaultGap      = 8
	cornerRadius    = 8
)

var lorem = []string{
	"Tiles are filled off screen and swapped in whole.",
	"A card that does not fit continues in the next tile, so the seam between two tiles falls inside the card rather than between cards.",
	"Short one.",
	"Scrolling back up rebuilds the tile above from the first card of the one below it, walking the list in reverse until the top edge is covered.",
	"Wrapped layouts are cached per width.",
}

// Feed is a provider of rounded cards holding word-wrapped text.
type Feed struct {
	count   int
	source  *text.FontSource
	size    float64
	padding int
	gap     int
	card    gg.RGBA
	ink     gg.RGBA
	label   func(index int) string
	layouts *cache.Cache[string, []string]
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithFontSize sets the text size in points at scale 1.
func WithFontSize(pt float64) FeedOption {
	return func(f *Feed) {
		if pt > 0 {
			f.size = pt
		}
	}
}

// WithLabels replaces the generated card texts.
func WithLabels(label func(index int) string) FeedOption {
	return func(f *Feed) {
		if label != nil {
			f.label = label
		}
	}
}

// WithColors sets the card and text colours.
func WithColors(card, ink gg.RGBA) FeedOption {
	return func(f *Feed) {
		f.card, f.ink = card, ink
	}
}

// WithLayoutCache shares a wrapped-layout cache between feeds.
func WithLayoutCache(c *cache.Cache[string, []string]) FeedOption {
	return func(f *Feed) {
		if c != nil {
			f.layouts = c
		}
	}
}

// NewFeed returns a feed of count cards (count < 0 for an unbounded feed)
// set in Go Regular.
func NewFeed(count int, opts ...FeedOption) (*Feed, error) {
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("content: load font: %w", err)
	}
	f := &Feed{
		count:   count,
		source:  source,
		size:    DefaultFontSize,
		padding: DefaultPadding,
		gap:     DefaultGap,
		card:    gg.Hex("#f1f3f4"),
		ink:     gg.Hex("#202124"),
		layouts: cache.New[string, []string](0, cache.StringHasher),
	}
	f.label = f.defaultLabel(message.NewPrinter(language.English))
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Feed) defaultLabel(p *message.Printer) func(int) string {
	return func(i int) string {
		body := lorem[i%len(lorem)]
		if f.count < 0 {
			return p.Sprintf("#%d. %s", i+1, body)
		}
		return p.Sprintf("#%d of %d. %s", i+1, f.count, body)
	}
}

// Get implements planes.ContentProvider.
func (f *Feed) Get(ctx context.Context, index int, dest image.Rectangle, scale float64) (planes.Unit, image.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, image.Point{}, err
	}
	if index < 0 || (f.count >= 0 && index >= f.count) {
		return nil, image.Point{}, planes.ErrEndOfContent
	}
	if scale <= 0 {
		scale = 1
	}

	face := f.source.Face(f.size * scale)
	pad := int(math.Round(float64(f.padding) * scale))
	gap := int(math.Round(float64(f.gap) * scale))
	inner := dest.Dx() - 2*pad - gap
	if inner <= 0 {
		return nil, image.Point{}, fmt.Errorf("content: width %d too narrow for a card", dest.Dx())
	}

	key := strconv.Itoa(index) + "/" + strconv.Itoa(inner) + "/" + strconv.FormatFloat(scale, 'g', -1, 64)
	lines, err := f.layouts.GetOrLoad(key, func() ([]string, error) {
		wrapped := text.WrapText(f.label(index), face, float64(inner), text.WrapWordChar)
		out := make([]string, len(wrapped))
		for i, w := range wrapped {
			out[i] = w.Text
		}
		return out, nil
	})
	if err != nil {
		return nil, image.Point{}, err
	}

	m := face.Metrics()
	u := &card{
		lines:   lines,
		face:    face,
		ascent:  m.Ascent,
		leading: m.LineHeight(),
		pad:     pad,
		gap:     gap,
		fill:    f.card,
		ink:     f.ink,
	}
	h := 2*pad + gap + int(math.Ceil(float64(len(lines))*u.leading))
	return u, image.Pt(dest.Dx(), h), nil
}

// card is one feed entry. The gap is split around the card body.
type card struct {
	lines   []string
	face    text.Face
	ascent  float64
	leading float64
	pad     int
	gap     int
	fill    gg.RGBA
	ink     gg.RGBA

	body image.Rectangle
}

func (u *card) Arrange(r image.Rectangle, _ float64) {
	half := u.gap / 2
	u.body = image.Rect(r.Min.X+half, r.Min.Y+half, r.Max.X-(u.gap-half), r.Max.Y-(u.gap-half))
}

func (u *card) Render(dc *gg.Context, _ image.Rectangle) {
	b := u.body
	dc.SetRGBA(u.fill.R, u.fill.G, u.fill.B, u.fill.A)
	dc.DrawRoundedRectangle(float64(b.Min.X), float64(b.Min.Y), float64(b.Dx()), float64(b.Dy()), cornerRadius)
	_ = dc.Fill()

	dc.SetFont(u.face)
	dc.SetRGBA(u.ink.R, u.ink.G, u.ink.B, u.ink.A)
	x := float64(b.Min.X + u.pad)
	y := float64(b.Min.Y+u.pad) + u.ascent
	for _, line := range u.lines {
		dc.DrawString(line, x, y)
		y += u.leading
	}
}
