package planes

import "errors"

var (
	// ErrEndOfContent is returned by a ContentProvider when the requested
	// index lies outside the content. Fills stop at that point.
	ErrEndOfContent = errors.New("planes: end of content")

	// ErrSurfaceAlloc reports that a tile surface could not be allocated.
	ErrSurfaceAlloc = errors.New("planes: surface allocation failed")

	// ErrNilProvider is returned by New when no ContentProvider is given.
	ErrNilProvider = errors.New("planes: nil content provider")

	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("planes: engine closed")

	// ErrNilUnit reports a provider that returned neither a unit nor an error.
	ErrNilUnit = errors.New("planes: provider returned nil unit")
)
