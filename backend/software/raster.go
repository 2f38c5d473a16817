package software

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/halftone/gpucore"
	"github.com/gogpu/halftone/shader"
)

// Rec. 709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// frameParams are the uniform values of one draw.
type frameParams struct {
	resW, resH float64
	minSize    float64
	maxSize    float64
	imageSize  float64
	low, high  float64
}

func readUniform(d *drawCall, loc shader.Location, index int) float64 {
	block := d.uniforms[slotOf(loc)]
	off := int(loc.Offset) + 4*index
	if off+4 > len(block) {
		return 0
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(block[off:])))
}

func (a *Adapter) draw(d *drawCall) error {
	prog, ok := a.programs[d.program]
	if !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, d.program)
	}
	vb, ok := a.buffers[d.vertices]
	if !ok {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, d.vertices)
	}
	locs := &prog.locs
	img, ok := a.textures[d.textures[slotOf(locs.Image)]]
	if !ok {
		return fmt.Errorf("%w: %s texture", gpucore.ErrUnknownResource, shader.TextureImage)
	}
	sprite, ok := a.textures[d.textures[slotOf(locs.Sprite)]]
	if !ok {
		return fmt.Errorf("%w: %s texture", gpucore.ErrUnknownResource, shader.TexturePoint)
	}

	p := frameParams{
		resW:      readUniform(d, locs.Resolution, 0),
		resH:      readUniform(d, locs.Resolution, 1),
		minSize:   readUniform(d, locs.MinSize, 0),
		maxSize:   readUniform(d, locs.MaxSize, 0),
		imageSize: readUniform(d, locs.ImageSize, 0),
		low:       readUniform(d, locs.Low, 0),
		high:      readUniform(d, locs.High, 0),
	}
	if p.resW <= 0 || p.resH <= 0 || p.imageSize <= 0 {
		return nil
	}

	stride := 8
	if n := int(d.attr.Components); n > 0 {
		stride = 4 * n
	}
	count := d.count
	if n := len(vb) / stride; count > n {
		count = n
	}
	for i := 0; i < count; i++ {
		x := float64(math.Float32frombits(binary.LittleEndian.Uint32(vb[i*stride:])))
		y := float64(math.Float32frombits(binary.LittleEndian.Uint32(vb[i*stride+4:])))
		a.drawPoint(x, y, &p, img, sprite)
	}
	return nil
}

// luminance returns the luminance of the working-image texel under a
// point, composited over white.
func luminance(x, y float64, p *frameParams, img *texture) float64 {
	tx := int(math.Floor(x / p.resW * p.imageSize))
	ty := int(math.Floor(y / p.resH * p.imageSize))
	// Normalized by imageSize, then scaled to the texture size.
	u := (float64(tx) + 0.5) / p.imageSize
	v := (float64(ty) + 0.5) / p.imageSize
	r, g, b, al := img.nearest(u, v)
	return lumaR*r + lumaG*g + lumaB*b + (1 - al)
}

// discarded reports whether a layer with the given band drops lum.
func discarded(lum, low, high float64) bool {
	if lum < low {
		return true
	}
	return lum >= high && high < 1
}

func (a *Adapter) drawPoint(x, y float64, p *frameParams, img, sprite *texture) {
	lum := luminance(x, y, p, img)
	if discarded(lum, p.low, p.high) {
		return
	}
	size := p.minSize + (p.maxSize-p.minSize)*lum
	if size <= 0 {
		return
	}

	x0, y0 := x-size/2, y-size/2
	x1, y1 := x+size/2, y+size/2
	// A pixel is covered when its center lies in [x0, x1).
	ix0 := max(int(math.Ceil(x0-0.5)), 0)
	ix1 := min(int(math.Ceil(x1-0.5)), a.target.Rect.Dx())
	iy0 := max(int(math.Ceil(y0-0.5)), 0)
	iy1 := min(int(math.Ceil(y1-0.5)), a.target.Rect.Dy())

	pix := a.target.Pix
	stride := a.target.Stride
	for iy := iy0; iy < iy1; iy++ {
		v := (float64(iy) + 0.5 - y0) / size
		for ix := ix0; ix < ix1; ix++ {
			u := (float64(ix) + 0.5 - x0) / size
			sr, sg, sb, sa := sprite.bilinear(u, v)
			if sa <= 0 {
				continue
			}
			i := iy*stride + ix*4
			pix[i+0], pix[i+1], pix[i+2], pix[i+3] = sourceOver(
				toByte(sr), toByte(sg), toByte(sb), toByte(sa),
				pix[i+0], pix[i+1], pix[i+2], pix[i+3],
			)
		}
	}
}

// texel returns the premultiplied texel at (x, y) clamped to the edge.
func (t *texture) texel(x, y int) (r, g, b, a float64) {
	x = min(max(x, 0), t.desc.Width-1)
	y = min(max(y, 0), t.desc.Height-1)
	i := (y*t.desc.Width + x) * 4
	return float64(t.pix[i]) / 255, float64(t.pix[i+1]) / 255,
		float64(t.pix[i+2]) / 255, float64(t.pix[i+3]) / 255
}

func (t *texture) nearest(u, v float64) (r, g, b, a float64) {
	x := int(math.Floor(u * float64(t.desc.Width)))
	y := int(math.Floor(v * float64(t.desc.Height)))
	return t.texel(x, y)
}

// bilinear samples at normalized (u, v) with clamp-to-edge addressing.
func (t *texture) bilinear(u, v float64) (r, g, b, a float64) {
	if t.desc.Filter == gpucore.FilterNearest {
		return t.nearest(u, v)
	}
	fx := u*float64(t.desc.Width) - 0.5
	fy := v*float64(t.desc.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	wx := fx - float64(x0)
	wy := fy - float64(y0)

	r00, g00, b00, a00 := t.texel(x0, y0)
	r10, g10, b10, a10 := t.texel(x0+1, y0)
	r01, g01, b01, a01 := t.texel(x0, y0+1)
	r11, g11, b11, a11 := t.texel(x0+1, y0+1)

	lerp2 := func(c00, c10, c01, c11 float64) float64 {
		top := c00 + (c10-c00)*wx
		bottom := c01 + (c11-c01)*wx
		return top + (bottom-top)*wy
	}
	return lerp2(r00, r10, r01, r11), lerp2(g00, g10, g01, g11),
		lerp2(b00, b10, b01, b11), lerp2(a00, a10, a01, a11)
}
