// Package content provides ready-made planes.ContentProvider
// implementations: solid rows, wrapped text cards and image galleries.
//
// Providers are safe for concurrent use; the engine calls Get from its
// build workers and from the render goroutine.
package content
