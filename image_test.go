package halftone

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestSourceLoaderFS(t *testing.T) {
	data := encodePNG(t, solidImage(6, 3, color.RGBA{10, 20, 30, 255}))
	l := &SourceLoader{FS: fstest.MapFS{
		"images/photo.png": {Data: data},
		"images/bad.png":   {Data: []byte("not a png")},
	}}

	img, err := l.LoadImage(context.Background(), "images/photo.png")
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(6, 3) {
		t.Errorf("size = %v, want 6x3", got)
	}

	for _, src := range []string{"images/bad.png", "images/missing.png"} {
		if _, err := l.LoadImage(context.Background(), src); !errors.Is(err, ErrImageLoad) {
			t.Errorf("LoadImage(%q) error = %v, want ErrImageLoad", src, err)
		}
	}
}

func TestSourceLoaderHTTP(t *testing.T) {
	data := encodePNG(t, solidImage(5, 5, color.White))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := &SourceLoader{Client: srv.Client()}
	img, err := l.LoadImage(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(5, 5) {
		t.Errorf("size = %v, want 5x5", got)
	}

	if _, err := l.LoadImage(context.Background(), srv.URL+"/missing.png"); !errors.Is(err, ErrImageLoad) {
		t.Errorf("LoadImage(404) error = %v, want ErrImageLoad", err)
	}
}

func TestSourceLoaderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := &SourceLoader{FS: fstest.MapFS{"a.png": {Data: []byte{1}}}}
	if _, err := l.LoadImage(ctx, "a.png"); !errors.Is(err, ErrImageLoad) {
		t.Errorf("LoadImage() with canceled context error = %v, want ErrImageLoad", err)
	}
}
