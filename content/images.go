package content

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io/fs"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/planes"
	"github.com/gogpu/planes/cache"
	_ "golang.org/x/image/webp" // register decoder
)

// ErrNoImages is returned by NewImagesGlob when nothing matches.
var ErrNoImages = errors.New("content: no images")

// Images is a provider of full-width pictures decoded from a file system.
// Each picture keeps its aspect ratio. Decoded images are cached.
type Images struct {
	fsys    fs.FS
	names   []string
	decoded *cache.Cache[string, *gg.ImageBuf]
}

// NewImages returns a gallery of the named files in fsys. PNG, JPEG and
// WebP are supported. capacity bounds the decoded images kept per cache
// shard; <= 0 selects cache.DefaultCapacity.
func NewImages(fsys fs.FS, names []string, capacity int) *Images {
	return &Images{
		fsys:    fsys,
		names:   names,
		decoded: cache.New[string, *gg.ImageBuf](capacity, cache.StringHasher),
	}
}

// NewImagesGlob returns a gallery of the files in fsys matching pattern.
func NewImagesGlob(fsys fs.FS, pattern string, capacity int) (*Images, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("content: glob %q: %w", pattern, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoImages, pattern)
	}
	return NewImages(fsys, names, capacity), nil
}

// Len returns the number of pictures.
func (g *Images) Len() int { return len(g.names) }

// CacheStats returns the decoded image cache counters.
func (g *Images) CacheStats() cache.Stats { return g.decoded.Stats() }

// Get implements planes.ContentProvider.
func (g *Images) Get(ctx context.Context, index int, dest image.Rectangle, _ float64) (planes.Unit, image.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, image.Point{}, err
	}
	if index < 0 || index >= len(g.names) {
		return nil, image.Point{}, planes.ErrEndOfContent
	}
	name := g.names[index]
	img, err := g.decoded.GetOrLoad(name, func() (*gg.ImageBuf, error) {
		return g.decode(name)
	})
	if err != nil {
		return nil, image.Point{}, err
	}
	w, h := img.Bounds()
	if w <= 0 || h <= 0 {
		return nil, image.Point{}, fmt.Errorf("content: %s: empty image", name)
	}
	height := int(math.Round(float64(dest.Dx()) * float64(h) / float64(w)))
	return &picture{img: img}, image.Pt(dest.Dx(), height), nil
}

func (g *Images) decode(name string) (*gg.ImageBuf, error) {
	f, err := g.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("content: open %s: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("content: decode %s: %w", name, err)
	}
	return gg.ImageBufFromImage(img), nil
}

type picture struct {
	img *gg.ImageBuf
}

func (u *picture) Arrange(image.Rectangle, float64) {}

func (u *picture) Render(dc *gg.Context, r image.Rectangle) {
	dc.DrawImageEx(u.img, gg.DrawImageOptions{
		X:         float64(r.Min.X),
		Y:         float64(r.Min.Y),
		DstWidth:  float64(r.Dx()),
		DstHeight: float64(r.Dy()),
	})
}
