// Package planes renders long vertical content through three pre-rendered
// raster tiles.
//
// # Overview
//
// An Engine keeps exactly three tiles the size of the viewport: the current
// tile under the viewport, a forward tile below it and a backward tile
// above it. Tiles are filled off screen from a ContentProvider, one
// content unit after another, and the resulting snapshots are copied into
// the frame. Scrolling only moves the snapshots; crossing a tile boundary
// rotates the roles and refills the tile that fell off the far side.
//
// # Quick Start
//
//	e, err := planes.New(provider)
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	// Per frame, on the render goroutine:
//	e.OnScrollChanged(scroll)
//	if err := e.DrawFrame(frame, viewport, scroll); err != nil {
//	    return err
//	}
//
// # Coordinate System
//
//   - scroll is 0 at the start of the content and negative further down
//   - a tile's offset is its top in content space
//   - tile-local y runs from 0 at the tile top to the viewport height;
//     the surface keeps half a tile of slack above and below
//
// # Continuity
//
// A neighbour tile is filled from the unit that follows the last one drawn
// in the tile above it, starting at the position where that unit's
// predecessor ended. Units cut by a tile edge therefore continue in the next
// tile without gaps or overlap; the cut unit itself is drawn again in the
// new tile, so units taller than the surface slack cross the seam intact.
// When no neighbour has been built yet the
// start is estimated from the height of the first unit.
//
// # Concurrency
//
// DrawFrame, OnScrollChanged, Invalidate and InvalidateAll are called from
// a single render goroutine. Neighbour tiles are built on background
// workers; a tile has at most one live build and a newer request cancels
// the older one. Finished builds are published as immutable snapshots, so
// a frame never shows a half-filled tile. Only a missing current tile is
// filled synchronously.
package planes
