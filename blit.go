package planes

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// blit draws snap into dst. origin is the on-screen position of the
// snapshot's tile-local (0, 0); the result is clipped to clip.
//
// Snapshots built for a different width (kept as placeholders across a
// resize) are stretched horizontally to the clip width; the vertical axis
// is never scaled so content stays at its scroll position. It returns the
// rectangle actually drawn.
func blit(dst xdraw.Image, clip image.Rectangle, snap *Snapshot, origin image.Point) image.Rectangle {
	if snap == nil || snap.Image == nil || snap.Src.Empty() {
		return image.Rectangle{}
	}

	srcW := snap.Image.Bounds().Dx()
	if srcW == clip.Dx() {
		r := snap.Dst.Add(origin)
		drawn := r.Intersect(clip)
		if drawn.Empty() {
			return image.Rectangle{}
		}
		sp := snap.Src.Min.Add(drawn.Min.Sub(r.Min))
		xdraw.Copy(dst, drawn.Min, snap.Image, image.Rectangle{Min: sp, Max: sp.Add(drawn.Size())}, xdraw.Over, nil)
		return drawn
	}

	k := float64(clip.Dx()) / float64(srcW)
	r := image.Rect(
		clip.Min.X+int(math.Round(float64(snap.Dst.Min.X)*k)),
		origin.Y+snap.Dst.Min.Y,
		clip.Min.X+int(math.Round(float64(snap.Dst.Max.X)*k)),
		origin.Y+snap.Dst.Max.Y,
	)
	drawn := r.Intersect(clip)
	if drawn.Empty() {
		return image.Rectangle{}
	}
	sr := image.Rect(
		snap.Src.Min.X,
		snap.Src.Min.Y+(drawn.Min.Y-r.Min.Y),
		snap.Src.Max.X,
		snap.Src.Min.Y+(drawn.Max.Y-r.Min.Y),
	)
	dr := image.Rect(r.Min.X, drawn.Min.Y, r.Max.X, drawn.Max.Y)
	xdraw.ApproxBiLinear.Scale(dst, dr, snap.Image, sr, xdraw.Over, nil)
	return drawn
}
