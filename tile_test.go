package planes

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gg"
)

func TestNewSurface(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"valid", 64, 32, false},
		{"zero width", 0, 32, true},
		{"negative height", 64, -1, true},
		{"too wide", MaxSurfaceDimension + 1, 32, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSurface(tt.w, tt.h)
			if tt.wantErr {
				if !errors.Is(err, ErrSurfaceAlloc) {
					t.Errorf("NewSurface(%d, %d) error = %v, want ErrSurfaceAlloc", tt.w, tt.h, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSurface(%d, %d) error = %v", tt.w, tt.h, err)
			}
			defer s.Close()
			if got := s.Size(); got != image.Pt(tt.w, tt.h) {
				t.Errorf("Size() = %v, want %dx%d", got, tt.w, tt.h)
			}
		})
	}
}

func TestSurface_CopyIsIndependent(t *testing.T) {
	s, err := NewSurface(8, 8)
	if err != nil {
		t.Fatalf("NewSurface() error = %v", err)
	}
	defer s.Close()

	s.Clear(gg.Black)
	img := s.Copy()
	s.Clear(gg.White)

	if px := img.RGBAAt(4, 4); px.R != 0 || px.A != 255 {
		t.Errorf("copied pixel = %v, want opaque black", px)
	}
}

func TestTile_Geometry(t *testing.T) {
	tile := mustTile(t, 100, 200)

	if tile.slack != 100 {
		t.Errorf("slack = %d, want 100", tile.slack)
	}
	if got := tile.surface.Size(); got != image.Pt(100, 400) {
		t.Errorf("surface size = %v, want 100x400", got)
	}
	if got, want := tile.localBounds(), image.Rect(0, -100, 100, 300); got != want {
		t.Errorf("localBounds() = %v, want %v", got, want)
	}
	if got, want := tile.toSurface(image.Rect(0, -20, 50, 10)), image.Rect(0, 80, 50, 110); got != want {
		t.Errorf("toSurface() = %v, want %v", got, want)
	}
}

func TestTile_CaptureClipsToSurface(t *testing.T) {
	tile := mustTile(t, 100, 200)
	tr := Trace{
		{Index: 0, Rect: image.Rect(0, -150, 100, 50)},
		{Index: 1, Rect: image.Rect(0, 50, 100, 350)},
	}

	snap := tile.capture(tr, 400, 3, 9)
	if want := image.Rect(0, -100, 100, 300); snap.Dst != want {
		t.Errorf("Dst = %v, want %v", snap.Dst, want)
	}
	if want := image.Rect(0, 0, 100, 400); snap.Src != want {
		t.Errorf("Src = %v, want %v", snap.Src, want)
	}
	if snap.Offset != 400 || snap.Generation != 3 || snap.Build != 9 {
		t.Errorf("snapshot = %+v, want offset 400, generation 3, build 9", snap)
	}
}

func TestTile_InvalidateAndDispose(t *testing.T) {
	tile := mustTile(t, 10, 10)
	tile.ready.Store(true)
	gen := tile.generation

	tile.invalidate()
	if tile.Ready() {
		t.Error("Ready() after invalidate = true")
	}
	if tile.generation != gen+1 {
		t.Errorf("generation = %d, want %d", tile.generation, gen+1)
	}

	tile.dispose()
	tile.dispose()
	if tile.surface != nil {
		t.Error("surface kept after dispose")
	}
	if _, err := NewFiller(newRows(-1, 5), 0).Fill(t.Context(), tile, image.Rect(0, 0, 10, 10), 1, Start{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Fill() on a disposed tile = %v, want ErrClosed", err)
	}
}

func TestRoleAndDirectionString(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{RoleBackward.String(), "backward"},
		{RoleCurrent.String(), "current"},
		{RoleForward.String(), "forward"},
		{Role(7).String(), "Role(7)"},
		{Forward.String(), "forward"},
		{Backward.String(), "backward"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
