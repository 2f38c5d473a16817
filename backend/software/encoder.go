package software

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/halftone/gpucore"
	"github.com/gogpu/halftone/shader"
)

// slot is a (group, binding) pair.
type slot struct {
	group   uint32
	binding uint32
}

func slotOf(loc shader.Location) slot { return slot{loc.Group, loc.Binding} }

// drawCall is the pipeline state captured by DrawPoints.
type drawCall struct {
	program  gpucore.ProgramID
	vertices gpucore.BufferID
	attr     shader.Attribute
	uniforms map[slot][]byte
	textures map[slot]gpucore.TextureID
	count    int
}

// encoder records draws and rasterizes them on End.
type encoder struct {
	a     *Adapter
	clear gpucore.Color
	ended bool

	program  gpucore.ProgramID
	vertices gpucore.BufferID
	attr     shader.Attribute
	uniforms map[slot][]byte
	textures map[slot]gpucore.TextureID

	draws []drawCall
}

func newEncoder(a *Adapter, clear gpucore.Color) *encoder {
	return &encoder{
		a:        a,
		clear:    clear,
		uniforms: make(map[slot][]byte),
		textures: make(map[slot]gpucore.TextureID),
	}
}

func (e *encoder) SetProgram(id gpucore.ProgramID) { e.program = id }

func (e *encoder) SetVertexBuffer(attr shader.Attribute, buf gpucore.BufferID) {
	e.attr = attr
	e.vertices = buf
}

func (e *encoder) SetUniform(loc shader.Location, values ...float32) {
	s := slotOf(loc)
	end := int(loc.Offset) + 4*len(values)
	block := e.uniforms[s]
	if len(block) < end {
		grown := make([]byte, end)
		copy(grown, block)
		block = grown
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(block[int(loc.Offset)+4*i:], math.Float32bits(v))
	}
	e.uniforms[s] = block
}

func (e *encoder) BindTexture(loc shader.Location, tex gpucore.TextureID) {
	e.textures[slotOf(loc)] = tex
}

func (e *encoder) DrawPoints(count int) {
	d := drawCall{
		program:  e.program,
		vertices: e.vertices,
		attr:     e.attr,
		uniforms: make(map[slot][]byte, len(e.uniforms)),
		textures: make(map[slot]gpucore.TextureID, len(e.textures)),
		count:    count,
	}
	for k, v := range e.uniforms {
		d.uniforms[k] = append([]byte(nil), v...)
	}
	for k, v := range e.textures {
		d.textures[k] = v
	}
	e.draws = append(e.draws, d)
}

// End clears the target and rasterizes every recorded draw in order.
func (e *encoder) End() error {
	if e.ended {
		return fmt.Errorf("software: frame already ended")
	}
	e.ended = true
	a := e.a
	if a.closed {
		return gpucore.ErrClosed
	}
	if a.target == nil {
		return gpucore.ErrNoTarget
	}

	clearTarget(a.target.Pix, e.clear)
	for i := range e.draws {
		if err := a.draw(&e.draws[i]); err != nil {
			return fmt.Errorf("software: draw %d: %w", i, err)
		}
	}
	a.logger.Debug("software: frame submitted", "draws", len(e.draws))
	return nil
}

func clearTarget(pix []byte, c gpucore.Color) {
	// Stored premultiplied.
	r := toByte(c.R * c.A)
	g := toByte(c.G * c.A)
	b := toByte(c.B * c.A)
	al := toByte(c.A)
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = r
		pix[i+1] = g
		pix[i+2] = b
		pix[i+3] = al
	}
}

func toByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}
