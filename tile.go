package planes

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gg"
)

// MaxSurfaceDimension bounds either side of a tile surface.
const MaxSurfaceDimension = 1 << 14

// Role is the slot a tile currently occupies. Roles rotate between tile
// instances as the viewport crosses tile boundaries.
type Role int

// Slot roles, ordered top to bottom.
const (
	RoleBackward Role = iota
	RoleCurrent
	RoleForward

	roleCount = 3
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleBackward:
		return "backward"
	case RoleCurrent:
		return "current"
	case RoleForward:
		return "forward"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Direction is a direction along the scroll axis.
type Direction int

const (
	// Forward moves towards larger content offsets (down the content).
	Forward Direction = iota
	// Backward moves towards the start of the content.
	Backward
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Surface is an off-screen raster target backed by a gg pixmap.
type Surface struct {
	dc *gg.Context
	pm *gg.Pixmap
}

// SurfaceFactory allocates tile surfaces. Tests inject failing factories.
type SurfaceFactory func(width, height int) (*Surface, error)

// NewSurface allocates a width x height surface. Allocation panics (size
// overflow, out of memory on makeslice) are reported as ErrSurfaceAlloc.
func NewSurface(width, height int) (s *Surface, err error) {
	if width <= 0 || height <= 0 || width > MaxSurfaceDimension || height > MaxSurfaceDimension {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrSurfaceAlloc, width, height)
	}
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%w: %dx%d: %v", ErrSurfaceAlloc, width, height, r)
		}
	}()
	pm := gg.NewPixmap(width, height)
	dc := gg.NewContext(width, height, gg.WithPixmap(pm))
	return &Surface{dc: dc, pm: pm}, nil
}

// Context returns the drawing context of the surface.
func (s *Surface) Context() *gg.Context { return s.dc }

// Size returns the surface size in pixels.
func (s *Surface) Size() image.Point { return image.Pt(s.pm.Width(), s.pm.Height()) }

// Clear fills the whole surface with c.
func (s *Surface) Clear(c gg.RGBA) { s.pm.Clear(c) }

// Copy returns a point-in-time copy of the surface pixels.
func (s *Surface) Copy() *image.RGBA { return s.pm.ToImage() }

// Close releases the drawing context.
func (s *Surface) Close() error { return s.dc.Close() }

// Snapshot is an immutable image of a completed tile fill. Snapshots are
// what gets blitted every frame; the surface itself is never read by the
// render goroutine.
type Snapshot struct {
	// Image is a private copy of the surface.
	Image *image.RGBA
	// Src is the region of Image that is drawn: the tile itself plus the
	// overflow of its edge units.
	Src image.Rectangle
	// Dst is Src in tile-local coordinates.
	Dst image.Rectangle
	// Offset is the content-space top of the tile the fill was made for.
	Offset int
	// Generation is the tile generation the fill targeted.
	Generation uint64
	// Build identifies the build request that produced the snapshot.
	Build uint64
}

// Tile is one of the three raster windows over the content axis.
//
// Tile-local coordinates put (0, 0) at the tile's top-left corner in
// content space. The surface is twice the tile height: half a tile of
// slack above and below lets edge units overflow without being clipped.
type Tile struct {
	id         int
	width      int
	height     int
	slack      int
	surface    *Surface
	background gg.RGBA

	// Guarded by Engine.mu.
	offset     int
	generation uint64

	ready    atomic.Bool
	snapshot atomic.Pointer[Snapshot]

	build buildState
}

func newTile(id int, size image.Point, background gg.RGBA, factory SurfaceFactory) (*Tile, error) {
	slack := size.Y / 2
	s, err := factory(size.X, size.Y+2*slack)
	if err != nil {
		return nil, err
	}
	return &Tile{
		id:         id,
		width:      size.X,
		height:     size.Y,
		slack:      slack,
		surface:    s,
		background: background,
		generation: 1,
	}, nil
}

// ID returns the stable instance id of the tile.
func (t *Tile) ID() int { return t.id }

// Ready reports whether the tile holds a snapshot for its current offset.
func (t *Tile) Ready() bool { return t.ready.Load() }

// Snapshot returns the last published snapshot, which may be stale.
func (t *Tile) Snapshot() *Snapshot { return t.snapshot.Load() }

// localBounds is the part of tile-local space the surface can hold.
func (t *Tile) localBounds() image.Rectangle {
	return image.Rect(0, -t.slack, t.width, t.height+t.slack)
}

// toSurface maps a tile-local rectangle onto surface pixels.
func (t *Tile) toSurface(r image.Rectangle) image.Rectangle {
	return r.Add(image.Pt(0, t.slack))
}

// invalidate marks the tile stale. Caller holds Engine.mu.
func (t *Tile) invalidate() {
	t.ready.Store(false)
	t.generation++
}

// capture copies the surface into a snapshot covering the tile and the
// trace extent. Caller holds the tile's build lock.
func (t *Tile) capture(trace Trace, offset int, generation, build uint64) *Snapshot {
	tile := image.Rect(0, 0, t.width, t.height)
	dst := tile.Union(trace.Extent()).Intersect(t.localBounds())
	return &Snapshot{
		Image:      t.surface.Copy(),
		Src:        t.toSurface(dst),
		Dst:        dst,
		Offset:     offset,
		Generation: generation,
		Build:      build,
	}
}

// dispose closes the surface once no fill holds it.
func (t *Tile) dispose() {
	t.build.mu.Lock()
	defer t.build.mu.Unlock()
	if t.surface != nil {
		_ = t.surface.Close()
		t.surface = nil
	}
}
