package halftone

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/halftone/gpucore"
)

// Texture geometry.
const (
	// SpriteSize is the edge of a sprite texture; the dot has radius
	// SpriteSize/2.
	SpriteSize = 32

	// WorkingSize is the edge of the square working texture.
	WorkingSize = 2048
)

// Rect is a rectangle in source-image pixels with fractional bounds.
type Rect struct {
	X, Y, W, H float64
}

// CropRect returns the largest centered region of an image of size img that
// has the aspect ratio of res.
//
// With scale = min(img.X/res.X, img.Y/res.Y) the region is res*scale wide
// and high, centered in the image.
func CropRect(img, res image.Point) Rect {
	if img.X <= 0 || img.Y <= 0 || res.X <= 0 || res.Y <= 0 {
		return Rect{}
	}
	scale := math.Min(float64(img.X)/float64(res.X), float64(img.Y)/float64(res.Y))
	w := float64(res.X) * scale
	h := float64(res.Y) * scale
	return Rect{
		X: (float64(img.X) - w) / 2,
		Y: (float64(img.Y) - h) / 2,
		W: w,
		H: h,
	}
}

// SpriteImage rasterizes a filled circle of the given color on a
// transparent SpriteSize×SpriteSize canvas. The result is premultiplied.
func SpriteImage(c gg.RGBA) (*image.RGBA, error) {
	dc := gg.NewContext(SpriteSize, SpriteSize)
	defer func() { _ = dc.Close() }()

	dc.SetRGBA(c.R, c.G, c.B, c.A)
	dc.DrawCircle(SpriteSize/2, SpriteSize/2, SpriteSize/2)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill sprite: %w", err)
	}
	return asRGBA(dc.Image()), nil
}

// WorkingImage projects src onto the square working canvas: the crop of src
// matching the aspect of res is stretched over the whole canvas, then the
// optional overlay is composited on top.
//
// A nil src yields a transparent placeholder.
func WorkingImage(src image.Image, res image.Point, overlay *Overlay) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, WorkingSize, WorkingSize))

	if src != nil {
		b := src.Bounds()
		crop := CropRect(b.Size(), res)
		if crop.W > 0 && crop.H > 0 {
			sx := WorkingSize / crop.W
			sy := WorkingSize / crop.H
			ox := float64(b.Min.X) + crop.X
			oy := float64(b.Min.Y) + crop.Y
			s2d := f64.Aff3{
				sx, 0, -ox * sx,
				0, sy, -oy * sy,
			}
			sr := image.Rect(
				int(math.Floor(ox)), int(math.Floor(oy)),
				int(math.Ceil(ox+crop.W)), int(math.Ceil(oy+crop.H)),
			).Intersect(b)
			draw.BiLinear.Transform(dst, s2d, src, sr, draw.Src, nil)
		}
	}

	if overlay != nil {
		if err := overlay.Composite(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// asRGBA returns a gg image as *image.RGBA. gg pixmaps hold premultiplied
// color, so the bytes pass through unchanged.
func asRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return dst
}

// Compositor prepares the textures of one renderer.
type Compositor struct {
	adapter gpucore.Adapter
	sprites []gpucore.TextureID
	working gpucore.TextureID
}

// NewCompositor returns a compositor uploading through a.
func NewCompositor(a gpucore.Adapter) *Compositor {
	return &Compositor{adapter: a}
}

// BuildSpriteTexture rasterizes and uploads one sprite.
func (c *Compositor) BuildSpriteTexture(col gg.RGBA) (gpucore.TextureID, error) {
	img, err := SpriteImage(col)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id, err := c.adapter.CreateTexture(&gpucore.TextureDesc{
		Label:  "halftone_sprite",
		Width:  SpriteSize,
		Height: SpriteSize,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Filter: gpucore.FilterLinear,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create sprite texture: %w", err)
	}
	if err := c.adapter.WriteTexture(id, img.Pix); err != nil {
		c.adapter.DestroyTexture(id)
		return gpucore.InvalidID, fmt.Errorf("upload sprite texture: %w", err)
	}
	c.sprites = append(c.sprites, id)
	return id, nil
}

// BuildWorkingTexture renders the working image and uploads it. The texture
// is created on the first call and rewritten afterwards.
func (c *Compositor) BuildWorkingTexture(src image.Image, res image.Point, overlay *Overlay) (gpucore.TextureID, error) {
	img, err := WorkingImage(src, res, overlay)
	if err != nil {
		return gpucore.InvalidID, err
	}
	if c.working == gpucore.InvalidID {
		id, err := c.adapter.CreateTexture(&gpucore.TextureDesc{
			Label:  "halftone_working",
			Width:  WorkingSize,
			Height: WorkingSize,
			Format: gpucore.TextureFormatRGBA8Unorm,
			Filter: gpucore.FilterLinear,
		})
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("create working texture: %w", err)
		}
		c.working = id
	}
	if err := c.adapter.WriteTexture(c.working, img.Pix); err != nil {
		return gpucore.InvalidID, fmt.Errorf("upload working texture: %w", err)
	}
	return c.working, nil
}

// Destroy releases every texture the compositor created.
func (c *Compositor) Destroy() {
	for _, id := range c.sprites {
		c.adapter.DestroyTexture(id)
	}
	c.sprites = nil
	if c.working != gpucore.InvalidID {
		c.adapter.DestroyTexture(c.working)
		c.working = gpucore.InvalidID
	}
}
