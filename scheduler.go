package planes

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/planes/internal/worker"
)

// errStale reports a finished build whose tile moved on.
var errStale = errors.New("planes: stale build")

// buildState is the per-tile build bookkeeping.
type buildState struct {
	// mu serializes fills of the tile surface. A cancelled build may still
	// be unwinding when its replacement starts; mu keeps the two apart.
	mu sync.Mutex

	state    sync.Mutex // guards the fields below
	cancel   context.CancelFunc
	token    uint64
	building bool
	target   uint64 // generation the running build was issued for
}

// buildRequest describes one fill of one tile, frozen at schedule time.
type buildRequest struct {
	tile       *Tile
	role       Role
	generation uint64
	offset     int
	dest       image.Rectangle
	scale      float64
	direction  Direction
}

// buildFunc fills req.tile and publishes the result if current still
// reports true at publish time.
type buildFunc func(ctx context.Context, req buildRequest, token uint64, current func() bool) error

// scheduler runs at most one logical build per tile on the worker pool.
type scheduler struct {
	pool    *worker.Pool
	run     buildFunc
	timeout time.Duration
	stats   *counters

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	tokens atomic.Uint64
}

func newScheduler(pool *worker.Pool, run buildFunc, timeout time.Duration, stats *counters) *scheduler {
	base, stop := context.WithCancel(context.Background())
	return &scheduler{
		pool:    pool,
		run:     run,
		timeout: timeout,
		stats:   stats,
		base:    base,
		stop:    stop,
	}
}

// schedule cancels any build in flight for req.tile and queues a new one.
// It returns the token identifying the new build.
func (s *scheduler) schedule(req buildRequest) uint64 {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(s.base, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(s.base)
	}
	token := s.tokens.Add(1)

	b := &req.tile.build
	b.state.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.cancel, b.token, b.building, b.target = cancel, token, true, req.generation
	b.state.Unlock()

	s.stats.scheduled.Add(1)
	Logger().Debug("planes: build scheduled",
		"tile", req.tile.id, "role", req.role, "offset", req.offset, "build", token)

	s.wg.Add(1)
	if !s.pool.Submit(func() { s.execute(ctx, cancel, token, req) }) {
		s.finish(b, token, cancel)
		s.wg.Done()
	}
	return token
}

func (s *scheduler) execute(ctx context.Context, cancel context.CancelFunc, token uint64, req buildRequest) {
	defer s.wg.Done()
	b := &req.tile.build
	defer s.finish(b, token, cancel)

	b.mu.Lock()
	defer b.mu.Unlock()

	if ctx.Err() != nil {
		s.stats.cancelled.Add(1)
		return
	}

	current := func() bool { return ctx.Err() == nil && s.current(b, token) }
	err := s.runSafely(ctx, req, token, current)
	switch {
	case err == nil:
	case isCancellation(err):
		s.stats.cancelled.Add(1)
	case errors.Is(err, errStale):
		s.stats.dropped.Add(1)
		Logger().Debug("planes: stale build dropped", "tile", req.tile.id, "build", token)
	default:
		s.stats.failed.Add(1)
		Logger().Warn("planes: build failed", "tile", req.tile.id, "role", req.role, "err", err)
	}
}

// runSafely keeps provider and unit panics inside the build boundary.
func (s *scheduler) runSafely(ctx context.Context, req buildRequest, token uint64, current func() bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("planes: build panic: %v", r)
		}
	}()
	return s.run(ctx, req, token, current)
}

func (s *scheduler) finish(b *buildState, token uint64, cancel context.CancelFunc) {
	cancel()
	b.state.Lock()
	if b.token == token {
		b.building = false
		b.cancel = nil
	}
	b.state.Unlock()
}

func (s *scheduler) current(b *buildState, token uint64) bool {
	b.state.Lock()
	defer b.state.Unlock()
	return b.token == token
}

// inFlight reports whether a build for the given tile generation is running.
func (s *scheduler) inFlight(t *Tile, generation uint64) bool {
	b := &t.build
	b.state.Lock()
	defer b.state.Unlock()
	return b.building && b.target == generation
}

// cancel aborts the tile's in-flight build, if any.
func (s *scheduler) cancel(t *Tile) {
	b := &t.build
	b.state.Lock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.building = false
	b.state.Unlock()
}

// wait blocks until every scheduled build has returned.
func (s *scheduler) wait() { s.wg.Wait() }

// shutdown cancels all builds and waits for them.
func (s *scheduler) shutdown() {
	s.stop()
	s.wg.Wait()
}
