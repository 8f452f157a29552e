package planes

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	testWidth  = 200
	testHeight = 1000
)

var testDest = image.Rect(0, 0, testWidth, testHeight)

func TestFill_UniformRows(t *testing.T) {
	tile := mustTile(t, testWidth, testHeight)
	f := NewFiller(newRows(-1, 100), 0)

	got, err := f.Fill(context.Background(), tile, testDest, 1, Start{Direction: Forward})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if diff := cmp.Diff(expectRows(0, 10, 0, 100, testWidth), got); diff != "" {
		t.Errorf("Fill() trace mismatch (-want +got):\n%s", diff)
	}

	// A tile glued to an exactly filled neighbour starts clean.
	next := Resolve(&Neighbor{Top: 0, Trace: got}, testHeight, Forward, 0)
	if next.Index != 10 || next.Cursor != 0 {
		t.Errorf("Resolve() = {%d, %d}, want {10, 0}", next.Index, next.Cursor)
	}
}

func TestFill_GlueContinuity(t *testing.T) {
	p := newRows(-1, 150)
	f := NewFiller(p, 0)

	a := mustTile(t, testWidth, testHeight)
	ta, err := f.Fill(context.Background(), a, testDest, 1, Start{Direction: Forward})
	if err != nil {
		t.Fatalf("Fill(A) error = %v", err)
	}
	if diff := cmp.Diff(expectRows(0, 7, 0, 150, testWidth), ta); diff != "" {
		t.Fatalf("Fill(A) trace mismatch (-want +got):\n%s", diff)
	}
	last, _ := ta.Last()
	if last.Rect.Max.Y != 1050 {
		t.Fatalf("A last bottom = %d, want 1050", last.Rect.Max.Y)
	}

	b := mustTile(t, testWidth, testHeight)
	start := Resolve(&Neighbor{Top: 0, Trace: ta}, testHeight, Forward, 0)
	tb, err := f.Fill(context.Background(), b, testDest, 1, start)
	if err != nil {
		t.Fatalf("Fill(B) error = %v", err)
	}
	first, ok := tb.First()
	if !ok {
		t.Fatal("Fill(B) produced an empty trace")
	}
	if first.Index != last.Index+1 {
		t.Errorf("B first index = %d, want %d", first.Index, last.Index+1)
	}
	if want := last.Rect.Max.Y - testHeight; first.Rect.Min.Y != want {
		t.Errorf("B first top = %d, want %d", first.Rect.Min.Y, want)
	}
	if diff := cmp.Diff(expectRows(7, 7, 50, 150, testWidth), tb); diff != "" {
		t.Errorf("Fill(B) trace mismatch (-want +got):\n%s", diff)
	}
}

// surfacePixel returns the colour at tile-local y in the middle column.
func surfacePixel(tile *Tile, y int) color.RGBA {
	return tile.surface.Copy().RGBAAt(tile.width/2, y+tile.slack)
}

func TestFill_GlueRedrawsCutUnit(t *testing.T) {
	tests := []struct {
		name      string
		height    int
		neighbor  Trace
		dir       Direction
		tileTop   int
		want      Trace
		wantColor map[int]int // tile-local y to unit index
	}{
		{
			name:      "forward overflow past the slack",
			height:    800,
			neighbor:  expectRows(0, 2, 0, 800, testWidth),
			dir:       Forward,
			tileTop:   testHeight,
			want:      expectRows(2, 1, 600, 800, testWidth),
			wantColor: map[int]int{10: 1, 550: 1, 590: 1, 650: 2},
		},
		{
			name:      "forward unit taller than a tile",
			height:    2500,
			neighbor:  expectRows(0, 1, 0, 2500, testWidth),
			dir:       Forward,
			tileTop:   testHeight,
			want:      expectRows(0, 1, -testHeight, 2500, testWidth),
			wantColor: map[int]int{10: 0, 500: 0, 990: 0},
		},
		{
			name:      "backward overflow past the slack",
			height:    800,
			neighbor:  expectRows(5, 1, -700, 800, testWidth),
			dir:       Backward,
			tileTop:   0,
			want:      expectRows(4, 1, -500, 800, testWidth),
			wantColor: map[int]int{200: 4, 310: 5, 700: 5, 990: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := mustTile(t, testWidth, testHeight)
			neighborTop := tt.tileTop - testHeight
			if tt.dir == Backward {
				neighborTop = tt.tileTop + testHeight
			}
			start := Resolve(&Neighbor{Top: neighborTop, Trace: tt.neighbor}, tt.tileTop, tt.dir, 0)

			got, err := NewFiller(newRows(-1, tt.height), 0).Fill(context.Background(), tile, testDest, 1, start)
			if err != nil {
				t.Fatalf("Fill() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Fill() trace mismatch (-want +got):\n%s", diff)
			}
			for y, index := range tt.wantColor {
				if px := surfacePixel(tile, y); !near(px, colorFor(index)) {
					t.Errorf("pixel at y=%d = %v, want unit %d colour %v", y, px, index, colorFor(index))
				}
			}
		})
	}
}

func TestFill_Backward(t *testing.T) {
	tile := mustTile(t, testWidth, testHeight)
	f := NewFiller(newRows(-1, 100), 0)

	below := expectRows(10, 10, 0, 100, testWidth)
	start := Resolve(&Neighbor{Top: testHeight, Trace: below}, 0, Backward, 0)
	got, err := f.Fill(context.Background(), tile, testDest, 1, start)
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if diff := cmp.Diff(expectRows(0, 10, 0, 100, testWidth), got); diff != "" {
		t.Errorf("Fill() trace mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_BackwardStopsAtContentStart(t *testing.T) {
	tile := mustTile(t, testWidth, testHeight)
	f := NewFiller(newRows(-1, 100), 0)

	got, err := f.Fill(context.Background(), tile, testDest, 1, Start{Index: 2, Cursor: testHeight, Direction: Backward})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if diff := cmp.Diff(expectRows(0, 3, 700, 100, testWidth), got); diff != "" {
		t.Errorf("Fill() trace mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_StopsEarly(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *rows)
		want  Trace
	}{
		{
			name:  "end of content",
			setup: func(p *rows) { p.count = 4 },
			want:  expectRows(0, 4, 0, 100, testWidth),
		},
		{
			name:  "unit failure",
			setup: func(p *rows) { p.failAt = 3 },
			want:  expectRows(0, 3, 0, 100, testWidth),
		},
		{
			name: "zero height unit",
			setup: func(p *rows) {
				p.height = func(i int) int {
					if i == 5 {
						return 0
					}
					return 100
				}
			},
			want: expectRows(0, 5, 0, 100, testWidth),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newRows(-1, 100)
			tt.setup(p)
			tile := mustTile(t, testWidth, testHeight)

			got, err := NewFiller(p, 0).Fill(context.Background(), tile, testDest, 1, Start{Direction: Forward})
			if err != nil {
				t.Fatalf("Fill() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Fill() trace mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFill_MaxUnits(t *testing.T) {
	tile := mustTile(t, testWidth, testHeight)
	got, err := NewFiller(newRows(-1, 10), 5).Fill(context.Background(), tile, testDest, 1, Start{Direction: Forward})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if len(got) != 5 {
		t.Errorf("len(trace) = %d, want 5", len(got))
	}
}

func TestFill_SkipsUnitsAboveTile(t *testing.T) {
	tile := mustTile(t, testWidth, testHeight)
	got, err := NewFiller(newRows(-1, 100), 0).Fill(context.Background(), tile, testDest, 1, Start{Cursor: -250, Direction: Forward})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if diff := cmp.Diff(expectRows(2, 10, -50, 100, testWidth), got); diff != "" {
		t.Errorf("Fill() trace mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_Cancelled(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		tile := mustTile(t, testWidth, testHeight)

		got, err := NewFiller(newRows(-1, 100), 0).Fill(ctx, tile, testDest, 1, Start{Direction: Forward})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Fill() error = %v, want context.Canceled", err)
		}
		if got != nil {
			t.Errorf("Fill() trace = %v, want nil", got)
		}
	})

	t.Run("between units", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := newRows(-1, 100)
		p.cancelAt = 4
		p.cancelFunc = cancel
		tile := mustTile(t, testWidth, testHeight)

		got, err := NewFiller(p, 0).Fill(ctx, tile, testDest, 1, Start{Direction: Forward})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Fill() error = %v, want context.Canceled", err)
		}
		if got != nil {
			t.Errorf("Fill() trace = %v, want nil", got)
		}
	})
}

func TestFill_ProviderPanic(t *testing.T) {
	tile := mustTile(t, testWidth, testHeight)
	f := NewFiller(ProviderFunc(func(_ context.Context, index int, dest image.Rectangle, _ float64) (Unit, image.Point, error) {
		if index == 2 {
			panic("boom")
		}
		return &rowUnit{index: index}, image.Pt(dest.Dx(), 100), nil
	}), 0)

	got, err := f.Fill(context.Background(), tile, testDest, 1, Start{Direction: Forward})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if diff := cmp.Diff(expectRows(0, 2, 0, 100, testWidth), got); diff != "" {
		t.Errorf("Fill() trace mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_PaintsSurface(t *testing.T) {
	tile := mustTile(t, testWidth, testHeight)
	tr, err := NewFiller(newRows(-1, 150), 0).Fill(context.Background(), tile, testDest, 1, Start{Direction: Forward})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}

	snap := tile.capture(tr, 0, tile.generation, 1)
	if want := image.Rect(0, 0, testWidth, 1050); snap.Dst != want {
		t.Errorf("snapshot Dst = %v, want %v", snap.Dst, want)
	}
	if want := image.Rect(0, tile.slack, testWidth, tile.slack+1050); snap.Src != want {
		t.Errorf("snapshot Src = %v, want %v", snap.Src, want)
	}
	for _, e := range tr {
		c := e.Rect.Min.Add(e.Rect.Size().Div(2)).Add(image.Pt(0, tile.slack))
		if got := snap.Image.RGBAAt(c.X, c.Y); !near(got, colorFor(e.Index)) {
			t.Errorf("pixel for unit %d = %v, want %v", e.Index, got, colorFor(e.Index))
		}
	}
}

func TestMeasure(t *testing.T) {
	f := NewFiller(newRows(0, 100), 0)
	if got := f.Measure(context.Background(), 0, testDest, 1); got != 0 {
		t.Errorf("Measure() on empty content = %d, want 0", got)
	}
	f = NewFiller(newRows(-1, 120), 0)
	if got := f.Measure(context.Background(), 0, testDest, 1); got != 120 {
		t.Errorf("Measure() = %d, want 120", got)
	}
}
