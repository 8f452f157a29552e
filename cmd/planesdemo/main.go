// Command planesdemo scrolls a card feed through a planes engine and saves
// every frame as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"
	"github.com/gogpu/planes"
	"github.com/gogpu/planes/content"
)

func main() {
	var (
		width   = flag.Int("width", 480, "viewport width")
		height  = flag.Int("height", 640, "viewport height")
		items   = flag.Int("items", 500, "number of feed cards (-1 for unbounded)")
		images  = flag.String("images", "", "directory of PNG/JPEG/WebP files to scroll instead of the feed")
		frames  = flag.Int("frames", 60, "number of frames to render")
		step    = flag.Float64("step", 37, "scroll distance per frame in pixels")
		workers = flag.Int("workers", planes.DefaultWorkers, "background build workers")
		output  = flag.String("output", "frames", "output directory")
		wait    = flag.Bool("wait", false, "wait for background builds after every frame")
		verbose = flag.Bool("v", false, "log engine events")
	)
	flag.Parse()

	if *verbose {
		planes.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	provider, err := newProvider(*images, *items)
	if err != nil {
		log.Fatalf("Failed to create content: %v", err)
	}

	e, err := planes.New(provider,
		planes.WithWorkers(*workers),
		planes.WithBackground(gg.Hex("#ffffff")),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer e.Close()

	if err := os.MkdirAll(*output, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, *width, *height))
	scroll := 0.0
	for i := range *frames {
		e.OnScrollChanged(scroll)
		if err := e.DrawFrame(dst, dst.Bounds(), scroll); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
		if *wait {
			e.Wait()
		}
		path := filepath.Join(*output, fmt.Sprintf("frame-%04d.png", i))
		if err := savePNG(path, dst); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		scroll -= *step
	}

	s := e.Stats()
	log.Printf("Rendered %d frames to %s (%dx%d): %d swaps, %d sync fills, %d builds published, %d cancelled, %d dropped\n",
		*frames, *output, *width, *height, s.Swaps, s.SyncFills, s.BuildsPublished, s.BuildsCancelled, s.BuildsDropped)
}

func newProvider(dir string, items int) (planes.ContentProvider, error) {
	if dir == "" {
		feed, err := content.NewFeed(items)
		if err != nil {
			return nil, err
		}
		return feed, nil
	}
	fsys := os.DirFS(dir)
	var names []string
	for _, pattern := range []string{"*.png", "*.jpg", "*.jpeg", "*.webp"} {
		m, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		names = append(names, m...)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", content.ErrNoImages, dir)
	}
	return content.NewImages(fsys, names, 0), nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
