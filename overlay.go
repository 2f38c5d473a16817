package halftone

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// Radii of the pointer overlay in working-canvas pixels.
const (
	overlayInnerRadius = 50
	overlayOuterRadius = 500
)

// Overlay is a radial shade centered on the pointer. It lightens the
// working image slightly around the pointer and darkens it further out,
// which shifts dots between bands as the pointer moves.
type Overlay struct {
	// X and Y locate the pointer as fractions of the viewport.
	X, Y float64
}

// Image renders the overlay on a transparent size×size canvas. The result
// is premultiplied.
func (o Overlay) Image(size int) (*image.RGBA, error) {
	dc := gg.NewContext(size, size)
	defer func() { _ = dc.Close() }()

	cx := o.X * float64(size)
	cy := o.Y * float64(size)
	scale := float64(size) / WorkingSize
	grad := gg.NewRadialGradientBrush(cx, cy, overlayInnerRadius*scale, overlayOuterRadius*scale).
		AddColorStop(0, gg.RGBA2(1, 1, 1, 0.1)).
		AddColorStop(1, gg.RGBA2(0, 0, 0, 0.22))

	dc.SetFillBrush(grad)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill overlay: %w", err)
	}
	return asRGBA(dc.Image()), nil
}

// Composite draws the overlay over dst, sized to dst.
func (o Overlay) Composite(dst *image.RGBA) error {
	b := dst.Bounds()
	layer, err := o.Image(b.Dx())
	if err != nil {
		return err
	}
	draw.Draw(dst, b, layer, image.Point{}, draw.Over)
	return nil
}
