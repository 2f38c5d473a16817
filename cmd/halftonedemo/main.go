// Command halftonedemo renders an image as halftone dots and saves the
// result as PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/gg"

	"github.com/gogpu/halftone"
	"github.com/gogpu/halftone/backend"
	_ "github.com/gogpu/halftone/backend/software"
	_ "github.com/gogpu/halftone/backend/wgpu"
	"github.com/gogpu/halftone/gpucore"
)

func main() {
	var (
		src     = flag.String("image", "", "source image path or URL (blank placeholder if empty)")
		output  = flag.String("o", "halftone.png", "output file")
		width   = flag.Int("width", 800, "image width")
		height  = flag.Int("height", 600, "image height")
		pitch   = flag.Float64("pitch", halftone.DefaultPitch, "dot pitch in pixels")
		pointer = flag.String("pointer", "", "pointer overlay position as x,y fractions")
		name    = flag.String("backend", "", "rendering backend (software, wgpu); default picks the best available")
		bg      = flag.String("bg", "#ffffff", "background color")
		verbose = flag.Bool("v", false, "verbose logging")
		timeout = flag.Duration("timeout", 30*time.Second, "load timeout")
	)
	flag.Parse()

	if *verbose {
		halftone.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	adapter, err := openBackend(*name)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	defer adapter.Close()

	opts := []halftone.Option{
		halftone.WithPitch(*pitch),
		halftone.WithResolution(*width, *height),
	}
	if *src != "" {
		opts = append(opts, halftone.WithImage(*src))
	}
	var px, py float64
	if *pointer != "" {
		px, py, err = parsePointer(*pointer)
		if err != nil {
			log.Fatalf("Invalid -pointer: %v", err)
		}
		opts = append(opts, halftone.WithPointerOverlay(true))
	}

	r, err := halftone.New(adapter, opts...)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := r.WaitReady(ctx); err != nil {
		log.Fatalf("Renderer failed: %v", err)
	}
	if err := r.WaitIdle(ctx); err != nil {
		log.Fatalf("Loading failed: %v", err)
	}
	if *pointer != "" {
		r.PointerMoved(px, py)
	}

	frame, err := r.Snapshot()
	if err != nil {
		log.Fatalf("Failed to read frame: %v", err)
	}

	dc := gg.NewContext(*width, *height)
	defer dc.Close()
	dc.ClearWithColor(gg.Hex(*bg))
	dc.DrawImage(gg.ImageBufFromImage(frame), 0, 0)
	if err := dc.SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Halftone saved to %s (%dx%d, %d points, %s backend)\n",
		*output, *width, *height, len(r.Grid()), adapter.Name())
}

func openBackend(name string) (gpucore.Adapter, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Open(name)
}

func parsePointer(s string) (x, y float64, err error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("want x,y, got %q", s)
	}
	if x, err = strconv.ParseFloat(strings.TrimSpace(xs), 64); err != nil {
		return 0, 0, err
	}
	if y, err = strconv.ParseFloat(strings.TrimSpace(ys), 64); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
