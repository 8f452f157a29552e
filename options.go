package planes

import (
	"time"

	"github.com/gogpu/gg"
)

// Defaults used when an Option is not given.
const (
	// DefaultWorkers is the number of build goroutines. Two tiles are
	// built in the background at most, one per neighbour slot.
	DefaultWorkers = 2

	// DefaultScale is the content scale passed to providers.
	DefaultScale = 1.0
)

// DefaultBackground is the colour tile surfaces are cleared to.
var DefaultBackground = gg.White

// Option configures an Engine during creation.
//
// Example:
//
//	e, err := planes.New(provider,
//	    planes.WithWorkers(4),
//	    planes.WithBackground(gg.Hex("#101014")),
//	)
type Option func(*options)

type options struct {
	workers        int
	background     gg.RGBA
	scale          float64
	maxUnits       int
	surfaceFactory SurfaceFactory
	buildTimeout   time.Duration
}

func defaultOptions() options {
	return options{
		workers:        DefaultWorkers,
		background:     DefaultBackground,
		scale:          DefaultScale,
		maxUnits:       DefaultMaxUnitsPerTile,
		surfaceFactory: NewSurface,
	}
}

// WithWorkers sets the number of background build goroutines.
// Values <= 0 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBackground sets the colour tile surfaces are cleared to before a fill.
func WithBackground(c gg.RGBA) Option {
	return func(o *options) {
		o.background = c
	}
}

// WithScale sets the content scale handed to the provider and units.
func WithScale(scale float64) Option {
	return func(o *options) {
		if scale > 0 {
			o.scale = scale
		}
	}
}

// WithMaxUnitsPerTile bounds the number of units one fill may draw.
func WithMaxUnitsPerTile(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUnits = n
		}
	}
}

// WithSurfaceFactory replaces the surface allocator.
func WithSurfaceFactory(f SurfaceFactory) Option {
	return func(o *options) {
		if f != nil {
			o.surfaceFactory = f
		}
	}
}

// WithBuildTimeout bounds the duration of a single background build.
// Zero disables the deadline.
func WithBuildTimeout(d time.Duration) Option {
	return func(o *options) {
		o.buildTimeout = d
	}
}
