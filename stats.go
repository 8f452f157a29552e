package planes

import "sync/atomic"

// Stats is a point-in-time view of engine counters.
type Stats struct {
	// BuildsScheduled counts background build requests.
	BuildsScheduled uint64
	// BuildsPublished counts builds whose snapshot was swapped in.
	BuildsPublished uint64
	// BuildsCancelled counts builds that observed cancellation.
	BuildsCancelled uint64
	// BuildsFailed counts builds that returned an error or panicked.
	BuildsFailed uint64
	// BuildsDropped counts completed builds discarded because their tile
	// was rotated or invalidated meanwhile.
	BuildsDropped uint64
	// SyncFills counts synchronous fills of the current tile.
	SyncFills uint64
	// Swaps counts slot rotations.
	Swaps uint64
	// Frames counts DrawFrame calls that drew tiles.
	Frames uint64
}

type counters struct {
	scheduled atomic.Uint64
	published atomic.Uint64
	cancelled atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	syncFills atomic.Uint64
	swaps     atomic.Uint64
	frames    atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		BuildsScheduled: c.scheduled.Load(),
		BuildsPublished: c.published.Load(),
		BuildsCancelled: c.cancelled.Load(),
		BuildsFailed:    c.failed.Load(),
		BuildsDropped:   c.dropped.Load(),
		SyncFills:       c.syncFills.Load(),
		Swaps:           c.swaps.Load(),
		Frames:          c.frames.Load(),
	}
}
