package halftone

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gg"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/draw"

	"github.com/gogpu/halftone/backend/software"
	"github.com/gogpu/halftone/gpucore"
)

func TestCropRect(t *testing.T) {
	tests := []struct {
		name     string
		img, res image.Point
		want     Rect
	}{
		{"wide image square target", image.Pt(4000, 2000), image.Pt(800, 800), Rect{X: 1000, Y: 0, W: 2000, H: 2000}},
		{"square image wide target", image.Pt(1000, 1000), image.Pt(1280, 720), Rect{X: 0, Y: 218.75, W: 1000, H: 562.5}},
		{"same aspect", image.Pt(640, 480), image.Pt(320, 240), Rect{X: 0, Y: 0, W: 640, H: 480}},
		{"empty image", image.Pt(0, 10), image.Pt(10, 10), Rect{}},
		{"empty target", image.Pt(10, 10), image.Pt(10, 0), Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, CropRect(tt.img, tt.res)); diff != "" {
				t.Errorf("CropRect() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestWorkingImagePlaceholder(t *testing.T) {
	img, err := WorkingImage(nil, image.Pt(64, 48), nil)
	if err != nil {
		t.Fatalf("WorkingImage() error = %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(WorkingSize, WorkingSize) {
		t.Fatalf("size = %v, want %dx%d", got, WorkingSize, WorkingSize)
	}
	for _, p := range []image.Point{{0, 0}, {1024, 1024}, {2047, 2047}} {
		if c := img.RGBAAt(p.X, p.Y); c != (color.RGBA{}) {
			t.Errorf("pixel %v = %v, want transparent", p, c)
		}
	}
}

func TestWorkingImageStretchesCrop(t *testing.T) {
	// Left half red, right half blue. A square target crops the middle, so
	// both colors survive and meet at the canvas center.
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(src, image.Rect(0, 0, 20, 20), image.NewUniform(color.RGBA{255, 0, 0, 255}), image.Point{}, draw.Src)
	draw.Draw(src, image.Rect(20, 0, 40, 20), image.NewUniform(color.RGBA{0, 0, 255, 255}), image.Point{}, draw.Src)

	img, err := WorkingImage(src, image.Pt(100, 100), nil)
	if err != nil {
		t.Fatalf("WorkingImage() error = %v", err)
	}
	left := img.RGBAAt(100, WorkingSize/2)
	right := img.RGBAAt(WorkingSize-100, WorkingSize/2)
	if left.R < 250 || left.B > 5 || left.A < 250 {
		t.Errorf("left pixel = %v, want opaque red", left)
	}
	if right.B < 250 || right.R > 5 || right.A < 250 {
		t.Errorf("right pixel = %v, want opaque blue", right)
	}
}

func TestSpriteImage(t *testing.T) {
	img, err := SpriteImage(gg.RGB(1, 0, 0))
	if err != nil {
		t.Fatalf("SpriteImage() error = %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(SpriteSize, SpriteSize) {
		t.Fatalf("size = %v, want %dx%d", got, SpriteSize, SpriteSize)
	}
	if c := img.RGBAAt(SpriteSize/2, SpriteSize/2); c.A != 255 || c.R < 250 || c.G != 0 {
		t.Errorf("center = %v, want opaque red", c)
	}
	if c := img.RGBAAt(0, 0); c.A != 0 {
		t.Errorf("corner = %v, want transparent", c)
	}
}

func TestSpriteImageEdgesKeepColor(t *testing.T) {
	img, err := SpriteImage(gg.RGB(1, 1, 1))
	if err != nil {
		t.Fatalf("SpriteImage() error = %v", err)
	}
	edges := 0
	for y := 0; y < SpriteSize; y++ {
		for x := 0; x < SpriteSize; x++ {
			c := img.RGBAAt(x, y)
			if c.A == 0 || c.A == 255 {
				continue
			}
			edges++
			// Premultiplied white has every channel equal to alpha.
			if d := int(c.A) - int(c.R); d < -1 || d > 1 {
				t.Errorf("edge pixel (%d,%d) = %v, want R == A", x, y, c)
			}
		}
	}
	if edges == 0 {
		t.Fatal("sprite has no antialiased edge pixels")
	}
}

func TestCompositorTextures(t *testing.T) {
	a := software.New()
	defer a.Close()
	c := NewCompositor(a)

	sprite, err := c.BuildSpriteTexture(gg.Hex(DarkColor))
	if err != nil {
		t.Fatalf("BuildSpriteTexture() error = %v", err)
	}
	working, err := c.BuildWorkingTexture(nil, image.Pt(64, 48), nil)
	if err != nil {
		t.Fatalf("BuildWorkingTexture() error = %v", err)
	}
	if sprite == gpucore.InvalidID || working == gpucore.InvalidID || sprite == working {
		t.Fatalf("texture ids = %d, %d", sprite, working)
	}

	again, err := c.BuildWorkingTexture(solidImage(8, 8, color.White), image.Pt(64, 48), nil)
	if err != nil {
		t.Fatalf("second BuildWorkingTexture() error = %v", err)
	}
	if again != working {
		t.Errorf("working texture recreated: %d, want %d", again, working)
	}

	c.Destroy()
	if err := a.WriteTexture(working, make([]byte, WorkingSize*WorkingSize*4)); err == nil {
		t.Error("working texture still alive after Destroy")
	}
	if err := a.WriteTexture(sprite, make([]byte, SpriteSize*SpriteSize*4)); err == nil {
		t.Error("sprite texture still alive after Destroy")
	}
}
