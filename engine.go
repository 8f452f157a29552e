package planes

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/planes/internal/worker"
)

// Engine renders an unbounded vertical content axis through three
// pre-rendered tiles: current, forward and backward.
//
// DrawFrame, OnScrollChanged and the invalidation methods are meant to be
// called from a single render goroutine. Builds run on background workers
// and only ever publish complete snapshots, so DrawFrame never waits for
// one except for the synchronous fill of a missing current tile.
type Engine struct {
	provider ContentProvider
	filler   *Filler
	opts     options
	pool     *worker.Pool
	sched    *scheduler
	stats    counters

	// cell caches the measured height of unit 0; -1 when unknown.
	cell atomic.Int64

	mu        sync.Mutex
	tiles     [roleCount]*Tile
	traces    [roleCount]Trace
	carry     [roleCount]*Snapshot // placeholders kept across re-init
	size      image.Point
	nextID    int
	scroll    float64
	direction Direction
	failed    bool
	closed    bool
}

// New returns an Engine drawing content from provider. Tiles are allocated
// lazily by the first DrawFrame.
func New(provider ContentProvider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		provider: provider,
		filler:   NewFiller(provider, o.maxUnits),
		opts:     o,
		pool:     worker.New(o.workers, 0),
	}
	e.cell.Store(-1)
	e.sched = newScheduler(e.pool, e.build, o.buildTimeout, &e.stats)
	return e, nil
}

// OnScrollChanged records the scroll offset and derives the scroll
// direction from the previous one.
func (e *Engine) OnScrollChanged(offset float64) {
	e.mu.Lock()
	e.updateScrollLocked(offset)
	e.mu.Unlock()
}

func (e *Engine) updateScrollLocked(offset float64) {
	switch {
	case offset < e.scroll:
		e.direction = Forward
	case offset > e.scroll:
		e.direction = Backward
	}
	e.scroll = offset
}

// Direction returns the last observed scroll direction.
func (e *Engine) Direction() Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.direction
}

// blitOp is one snapshot to draw after the engine lock is released.
type blitOp struct {
	snap   *Snapshot
	origin image.Point
}

// DrawFrame draws the tiles intersecting viewport into dst.
//
// scroll is the content scroll offset: 0 shows the start of the content,
// negative values show content further down. The tile size equals the
// viewport size; a viewport of a new size re-initializes all tiles.
//
// DrawFrame rotates tiles until the viewport midpoint lies in the current
// tile, fills the current tile synchronously if it is not ready, requests
// background builds for neighbours that are not ready and draws every
// snapshot that intersects the viewport, stale ones included.
func (e *Engine) DrawFrame(dst draw.Image, viewport image.Rectangle, scroll float64) error {
	if viewport.Empty() {
		return nil
	}
	scrollY := int(math.Round(scroll))

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.tiles[RoleCurrent] != nil && e.size != viewport.Size() {
		e.resetLocked()
	}
	if e.tiles[RoleCurrent] == nil {
		if e.failed {
			e.mu.Unlock()
			return ErrSurfaceAlloc
		}
		if err := e.initLocked(viewport.Size(), scrollY); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	e.updateScrollLocked(scroll)
	e.swapLocked(viewport, scrollY)

	cur := e.tiles[RoleCurrent]
	var pending *buildRequest
	if !cur.Ready() {
		req := e.requestLocked(RoleCurrent)
		e.sched.cancel(cur)
		pending = &req
	}
	e.mu.Unlock()

	if pending != nil {
		e.fillSync(*pending)
	}

	e.mu.Lock()
	if e.closed || e.tiles[RoleCurrent] == nil {
		e.mu.Unlock()
		return nil
	}
	for _, role := range e.buildOrderLocked() {
		t := e.tiles[role]
		if !t.Ready() && !e.sched.inFlight(t, t.generation) {
			e.sched.schedule(e.requestLocked(role))
		}
	}

	// Stale placeholders first so ready tiles always end up on top.
	ops := make([]blitOp, 0, roleCount)
	for _, ready := range []bool{false, true} {
		for _, t := range e.tiles {
			if t.Ready() != ready {
				continue
			}
			snap := t.Snapshot()
			if snap == nil {
				continue
			}
			// Dst covers the tile and the overflow of its edge units, so
			// cleared space past the end of the content is drawn too.
			origin := image.Pt(viewport.Min.X, viewport.Min.Y+scrollY+snap.Offset)
			if !snap.Dst.Add(origin).Overlaps(viewport) {
				continue
			}
			ops = append(ops, blitOp{snap: snap, origin: origin})
		}
	}
	e.stats.frames.Add(1)
	e.mu.Unlock()

	for _, op := range ops {
		blit(dst, viewport, op.snap, op.origin)
	}
	return nil
}

// buildOrderLocked returns the neighbour roles, the one ahead in the
// scroll direction first.
func (e *Engine) buildOrderLocked() [2]Role {
	if e.direction == Backward {
		return [2]Role{RoleBackward, RoleForward}
	}
	return [2]Role{RoleForward, RoleBackward}
}

// initLocked allocates the three tiles around the viewport at scrollY.
func (e *Engine) initLocked(size image.Point, scrollY int) error {
	anchor := -scrollY
	offsets := [roleCount]int{anchor - size.Y, anchor, anchor + size.Y}

	var tiles [roleCount]*Tile
	for role := range tiles {
		t, err := newTile(e.nextID, size, e.opts.background, e.opts.surfaceFactory)
		if err != nil {
			for _, made := range tiles {
				if made != nil {
					made.dispose()
				}
			}
			e.failed = true
			Logger().Error("planes: tile surface allocation failed", "size", size, "err", err)
			return fmt.Errorf("planes: init tiles: %w", err)
		}
		e.nextID++
		t.offset = offsets[role]
		if snap := e.carry[role]; snap != nil {
			t.snapshot.Store(snap)
		}
		tiles[role] = t
	}

	e.tiles = tiles
	e.traces = [roleCount]Trace{}
	e.carry = [roleCount]*Snapshot{}
	e.size = size
	return nil
}

// resetLocked drops all tiles. Their last snapshots survive as
// placeholders for the tiles allocated next.
func (e *Engine) resetLocked() {
	for role, t := range e.tiles {
		if t == nil {
			continue
		}
		e.sched.cancel(t)
		e.carry[role] = t.Snapshot()
		if !e.pool.Submit(t.dispose) {
			t.dispose()
		}
	}
	e.tiles = [roleCount]*Tile{}
	e.traces = [roleCount]Trace{}
	e.size = image.Point{}
	e.failed = false
	e.cell.Store(-1)
}

// swapLocked rotates tiles until the viewport midpoint lies inside the
// current tile. Each iteration moves the current tile by one tile height,
// so large deltas rotate several times in one frame.
func (e *Engine) swapLocked(viewport image.Rectangle, scrollY int) {
	mid := viewport.Min.Y + viewport.Dy()/2
	for {
		fwdTop := viewport.Min.Y + scrollY + e.tiles[RoleForward].offset
		bwdBottom := viewport.Min.Y + scrollY + e.tiles[RoleBackward].offset + e.size.Y
		switch {
		case fwdTop <= mid:
			e.rotateLocked(Forward)
		case bwdBottom > mid:
			e.rotateLocked(Backward)
		default:
			return
		}
	}
}

// rotateLocked shifts roles one tile in dir. The tile falling off the far
// side is re-placed ahead of the new current tile and invalidated.
func (e *Engine) rotateLocked(dir Direction) {
	b, c, f := e.tiles[RoleBackward], e.tiles[RoleCurrent], e.tiles[RoleForward]
	var recycled *Tile
	if dir == Forward {
		e.tiles = [roleCount]*Tile{c, f, b}
		e.traces = [roleCount]Trace{e.traces[RoleCurrent], e.traces[RoleForward], nil}
		b.offset = f.offset + e.size.Y
		recycled = b
	} else {
		e.tiles = [roleCount]*Tile{f, b, c}
		e.traces = [roleCount]Trace{nil, e.traces[RoleBackward], e.traces[RoleCurrent]}
		f.offset = b.offset - e.size.Y
		recycled = f
	}
	e.sched.cancel(recycled)
	recycled.invalidate()
	e.stats.swaps.Add(1)
	Logger().Debug("planes: swap", "direction", dir, "tile", recycled.id, "offset", recycled.offset)
}

func (e *Engine) requestLocked(role Role) buildRequest {
	t := e.tiles[role]
	dir := Forward
	if role == RoleBackward {
		dir = Backward
	}
	return buildRequest{
		tile:       t,
		role:       role,
		generation: t.generation,
		offset:     t.offset,
		dest:       image.Rectangle{Max: e.size},
		scale:      e.opts.scale,
		direction:  dir,
	}
}

func (e *Engine) roleOfLocked(t *Tile) (Role, bool) {
	for role, rt := range e.tiles {
		if rt == t {
			return Role(role), true
		}
	}
	return 0, false
}

// neighborLocked returns the ready tile closest to offset on the side a
// dir fill continues from: above for forward fills, below for backward.
func (e *Engine) neighborLocked(target *Tile, offset int, dir Direction) *Neighbor {
	var best *Neighbor
	for role, t := range e.tiles {
		if t == nil || t == target || !t.Ready() || len(e.traces[role]) == 0 {
			continue
		}
		if (dir == Forward && t.offset >= offset) || (dir == Backward && t.offset <= offset) {
			continue
		}
		if best == nil ||
			(dir == Forward && t.offset > best.Top) ||
			(dir == Backward && t.offset < best.Top) {
			best = &Neighbor{Top: t.offset, Trace: e.traces[role]}
		}
	}
	return best
}

// resolve picks the start of a fill. A current tile glues to whichever
// neighbour is ready, preferring the one above.
func (e *Engine) resolve(ctx context.Context, req buildRequest) Start {
	e.mu.Lock()
	n := e.neighborLocked(req.tile, req.offset, req.direction)
	dir := req.direction
	if n == nil && req.role == RoleCurrent {
		n = e.neighborLocked(req.tile, req.offset, Backward)
		dir = Backward
	}
	e.mu.Unlock()

	if n != nil {
		return Resolve(n, req.offset, dir, 0)
	}
	return Resolve(nil, req.offset, dir, e.cellHeight(ctx, req.dest, req.scale))
}

func (e *Engine) cellHeight(ctx context.Context, dest image.Rectangle, scale float64) int {
	if h := e.cell.Load(); h >= 0 {
		return int(h)
	}
	h := e.filler.Measure(ctx, 0, dest, scale)
	if ctx.Err() == nil {
		e.cell.Store(int64(h))
	}
	return h
}

// build is the scheduler's buildFunc. The tile's build lock is held.
func (e *Engine) build(ctx context.Context, req buildRequest, token uint64, current func() bool) error {
	start := e.resolve(ctx, req)
	trace, err := e.filler.Fill(ctx, req.tile, req.dest, req.scale, start)
	if err != nil {
		return err
	}
	snap := req.tile.capture(trace, req.offset, req.generation, token)
	return e.publish(req, snap, trace, current)
}

// publish swaps a finished snapshot in unless the tile moved on meanwhile.
func (e *Engine) publish(req buildRequest, snap *Snapshot, trace Trace, current func() bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := req.tile
	if e.closed || !current() || t.generation != req.generation || t.offset != req.offset {
		return errStale
	}
	role, ok := e.roleOfLocked(t)
	if !ok {
		return errStale
	}
	t.snapshot.Store(snap)
	e.traces[role] = trace
	t.ready.Store(true)
	e.stats.published.Add(1)
	Logger().Debug("planes: tile published",
		"tile", t.id, "role", role, "offset", req.offset, "units", len(trace), "build", snap.Build)
	return nil
}

// fillSync fills the current tile on the calling goroutine.
func (e *Engine) fillSync(req buildRequest) {
	t := req.tile
	t.build.mu.Lock()
	defer t.build.mu.Unlock()

	e.stats.syncFills.Add(1)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("planes: fill panic: %v", r)
			}
		}()
		ctx := e.sched.base
		start := e.resolve(ctx, req)
		trace, err := e.filler.Fill(ctx, t, req.dest, req.scale, start)
		if err != nil {
			return err
		}
		return e.publish(req, t.capture(trace, req.offset, req.generation, 0), trace, func() bool { return true })
	}()
	if err != nil && err != errStale && !isCancellation(err) {
		Logger().Warn("planes: current tile fill failed", "tile", t.id, "err", err)
	}
}

// Invalidate marks every tile stale, for example after the content
// changed. Geometry is kept and stale snapshots stay visible as
// placeholders until the rebuilt tiles are published.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.tiles {
		if t == nil {
			continue
		}
		e.sched.cancel(t)
		t.invalidate()
	}
	e.traces = [roleCount]Trace{}
	e.cell.Store(-1)
}

// InvalidateAll drops the tile geometry. The next DrawFrame re-allocates
// the tiles around the viewport and fills the current one synchronously.
// It also clears a previous surface allocation failure.
func (e *Engine) InvalidateAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.resetLocked()
}

// Wait blocks until every background build scheduled so far has finished.
func (e *Engine) Wait() {
	e.sched.wait()
}

// Close cancels outstanding builds, waits for them and releases the tile
// surfaces and workers. Close is safe to call multiple times.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	tiles := e.tiles
	for _, t := range tiles {
		if t != nil {
			e.sched.cancel(t)
		}
	}
	e.tiles = [roleCount]*Tile{}
	e.mu.Unlock()

	e.sched.shutdown()
	for _, t := range tiles {
		if t != nil {
			t.dispose()
		}
	}
	e.pool.Close()
	return nil
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// Tile returns the tile currently in role, or nil before the first frame.
func (e *Engine) Tile(role Role) *Tile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if role < 0 || role >= roleCount {
		return nil
	}
	return e.tiles[role]
}

// Offset returns the content offset of the tile in role.
func (e *Engine) Offset(role Role) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if role < 0 || role >= roleCount || e.tiles[role] == nil {
		return 0, false
	}
	return e.tiles[role].offset, true
}

// Trace returns the layout trace of the tile in role.
func (e *Engine) Trace(role Role) Trace {
	e.mu.Lock()
	defer e.mu.Unlock()
	if role < 0 || role >= roleCount {
		return nil
	}
	return e.traces[role]
}
