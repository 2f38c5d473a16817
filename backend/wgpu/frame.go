//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/halftone/gpucore"
	"github.com/gogpu/halftone/shader"
)

// slot is a (group, binding) pair.
type slot struct {
	group   uint32
	binding uint32
}

func slotOf(loc shader.Location) slot { return slot{loc.Group, loc.Binding} }

// drawCall is the state captured by DrawPoints.
type drawCall struct {
	program  gpucore.ProgramID
	vertices map[uint32]gpucore.BufferID
	uniforms map[slot][]byte
	textures map[slot]gpucore.TextureID
	count    int
}

// frame records draws and submits them as one render pass.
type frame struct {
	a     *Adapter
	clear gpucore.Color
	ended bool

	program  gpucore.ProgramID
	vertices map[uint32]gpucore.BufferID
	uniforms map[slot][]byte
	textures map[slot]gpucore.TextureID

	draws []drawCall
}

func newFrame(a *Adapter, clear gpucore.Color) *frame {
	return &frame{
		a:        a,
		clear:    clear,
		vertices: make(map[uint32]gpucore.BufferID),
		uniforms: make(map[slot][]byte),
		textures: make(map[slot]gpucore.TextureID),
	}
}

func (f *frame) SetProgram(id gpucore.ProgramID) { f.program = id }

func (f *frame) SetVertexBuffer(attr shader.Attribute, buf gpucore.BufferID) {
	f.vertices[attr.Location] = buf
}

func (f *frame) SetUniform(loc shader.Location, values ...float32) {
	s := slotOf(loc)
	end := int(loc.Offset) + 4*len(values)
	block := f.uniforms[s]
	if len(block) < end {
		grown := make([]byte, end)
		copy(grown, block)
		block = grown
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(block[int(loc.Offset)+4*i:], math.Float32bits(v))
	}
	f.uniforms[s] = block
}

func (f *frame) BindTexture(loc shader.Location, tex gpucore.TextureID) {
	f.textures[slotOf(loc)] = tex
}

func (f *frame) DrawPoints(count int) {
	d := drawCall{
		program:  f.program,
		vertices: make(map[uint32]gpucore.BufferID, len(f.vertices)),
		uniforms: make(map[slot][]byte, len(f.uniforms)),
		textures: make(map[slot]gpucore.TextureID, len(f.textures)),
		count:    count,
	}
	for k, v := range f.vertices {
		d.vertices[k] = v
	}
	for k, v := range f.uniforms {
		d.uniforms[k] = append([]byte(nil), v...)
	}
	for k, v := range f.textures {
		d.textures[k] = v
	}
	f.draws = append(f.draws, d)
}

// transient holds per-frame GPU objects released after submission.
type transient struct {
	buffers []hal.Buffer
	groups  []hal.BindGroup
}

func (t *transient) release(device hal.Device) {
	for _, g := range t.groups {
		device.DestroyBindGroup(g)
	}
	for _, b := range t.buffers {
		device.DestroyBuffer(b)
	}
}

// preparedDraw is a draw with its bind groups resolved.
type preparedDraw struct {
	pipeline *pipeline
	groups   []hal.BindGroup
	vertices []hal.Buffer
	count    uint32
}

// End encodes every draw into one render pass that clears the target,
// submits it and waits for the GPU.
func (f *frame) End() error {
	if f.ended {
		return errors.New("wgpu: frame already ended")
	}
	f.ended = true
	a := f.a
	if a.closed {
		return gpucore.ErrClosed
	}
	if a.target == nil {
		return gpucore.ErrNoTarget
	}

	var tr transient
	defer tr.release(a.device)

	prepared := make([]preparedDraw, 0, len(f.draws))
	for i := range f.draws {
		pd, err := a.prepare(&f.draws[i], &tr)
		if err != nil {
			return fmt.Errorf("wgpu: draw %d: %w", i, err)
		}
		prepared = append(prepared, pd)
	}

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "halftone_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("halftone_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	// The target holds premultiplied color.
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "halftone_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       a.target.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: f.clear.R * f.clear.A, G: f.clear.G * f.clear.A, B: f.clear.B * f.clear.A, A: f.clear.A},
		}},
	})
	rp.SetViewport(0, 0, float32(a.target.width), float32(a.target.height), 0, 1)
	for _, pd := range prepared {
		if pd.count == 0 {
			continue
		}
		rp.SetPipeline(pd.pipeline.render)
		for g, group := range pd.groups {
			rp.SetBindGroup(uint32(g), group, nil)
		}
		for s, buf := range pd.vertices {
			rp.SetVertexBuffer(uint32(s), buf, 0)
		}
		rp.Draw(quadVertices, pd.count, 0, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	if _, err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := a.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	a.logger.Debug("wgpu: frame submitted", "draws", len(prepared))
	return nil
}

// prepare uploads the uniform blocks of d and builds its bind groups.
func (a *Adapter) prepare(d *drawCall, tr *transient) (preparedDraw, error) {
	pl, ok := a.programs[d.program]
	if !ok {
		return preparedDraw{}, fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, d.program)
	}
	pd := preparedDraw{pipeline: pl, count: uint32(d.count)}

	pd.vertices = make([]hal.Buffer, len(pl.slots))
	for loc, s := range pl.slots {
		b, ok := a.buffers[d.vertices[loc]]
		if !ok {
			return preparedDraw{}, fmt.Errorf("%w: vertex buffer for location %d", gpucore.ErrUnknownResource, loc)
		}
		pd.vertices[s] = b.buf
	}

	layout := &pl.program.Layout
	for g := uint32(0); g < layout.Groups(); g++ {
		bindings := layout.GroupBindings(g)
		filter := a.groupFilter(d, bindings)
		entries := make([]gputypes.BindGroupEntry, 0, len(bindings))
		for _, b := range bindings {
			s := slot{b.Group, b.Binding}
			switch b.Kind {
			case shader.BindingUniform:
				buf, err := a.uniformBuffer(b, d.uniforms[s])
				if err != nil {
					return preparedDraw{}, err
				}
				tr.buffers = append(tr.buffers, buf)
				entries = append(entries, gputypes.BindGroupEntry{
					Binding:  b.Binding,
					Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: uint64(b.Size)},
				})
			case shader.BindingTexture:
				t, ok := a.textures[d.textures[s]]
				if !ok {
					return preparedDraw{}, fmt.Errorf("%w: texture %q", gpucore.ErrUnknownResource, b.Name)
				}
				entries = append(entries, gputypes.BindGroupEntry{
					Binding:  b.Binding,
					Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
				})
			case shader.BindingSampler:
				smp, err := a.sampler(filter)
				if err != nil {
					return preparedDraw{}, err
				}
				entries = append(entries, gputypes.BindGroupEntry{
					Binding:  b.Binding,
					Resource: gputypes.SamplerBinding{Sampler: smp.NativeHandle()},
				})
			}
		}
		group, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s_group%d", pl.program.Label, g),
			Layout:  pl.layouts[g],
			Entries: entries,
		})
		if err != nil {
			return preparedDraw{}, fmt.Errorf("create bind group %d: %w", g, err)
		}
		tr.groups = append(tr.groups, group)
		pd.groups = append(pd.groups, group)
	}
	return pd, nil
}

// groupFilter returns the filter of the first texture bound in a group.
// Samplers in the group use it.
func (a *Adapter) groupFilter(d *drawCall, bindings []shader.Binding) gpucore.FilterMode {
	for _, b := range bindings {
		if b.Kind != shader.BindingTexture {
			continue
		}
		if t, ok := a.textures[d.textures[slot{b.Group, b.Binding}]]; ok {
			return t.desc.Filter
		}
	}
	return gpucore.FilterLinear
}

// uniformBuffer creates a uniform buffer holding block padded to the
// binding size.
func (a *Adapter) uniformBuffer(b shader.Binding, block []byte) (hal.Buffer, error) {
	size := int(b.Size)
	if len(block) > size {
		size = len(block)
	}
	data := make([]byte, size)
	copy(data, block)
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.Name + "_uniforms",
		Size:  uint64(size),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s uniform buffer: %w", b.Name, err)
	}
	if err := a.queue.WriteBuffer(buf, 0, data); err != nil {
		a.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s uniforms: %w", b.Name, err)
	}
	return buf, nil
}
