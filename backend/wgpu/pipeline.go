//go:build !nogpu

package wgpu

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/halftone/gpucore"
	"github.com/gogpu/halftone/shader"
)

// quadVertices is the number of vertices drawn per point instance.
const quadVertices = 6

// pipeline is a program compiled for the device.
type pipeline struct {
	program *shader.Program
	module  hal.ShaderModule
	layouts []hal.BindGroupLayout
	layout  hal.PipelineLayout
	render  hal.RenderPipeline

	// slots maps an attribute location to its vertex buffer slot.
	slots map[uint32]uint32
}

func (p *pipeline) destroy(device hal.Device) {
	if p.render != nil {
		device.DestroyRenderPipeline(p.render)
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
	}
	for _, l := range p.layouts {
		device.DestroyBindGroupLayout(l)
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
	}
}

// CreateProgram compiles p into a render pipeline targeting the RGBA8
// render target with straight-alpha blending.
func (a *Adapter) CreateProgram(p *shader.Program) (gpucore.ProgramID, error) {
	if a.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	pl := &pipeline{program: p, slots: make(map[uint32]uint32)}
	if err := a.buildPipeline(pl); err != nil {
		pl.destroy(a.device)
		return gpucore.InvalidID, err
	}
	id := gpucore.ProgramID(a.id())
	a.programs[id] = pl
	a.logger.Debug("wgpu: pipeline created", "label", p.Label,
		"groups", len(pl.layouts), "attributes", len(pl.slots))
	return id, nil
}

func (a *Adapter) buildPipeline(pl *pipeline) error {
	p := pl.program
	module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.Label,
		Source: hal.ShaderSource{WGSL: p.Source},
	})
	if err != nil {
		return fmt.Errorf("compile %s shader: %w", p.Label, err)
	}
	pl.module = module

	for g := uint32(0); g < p.Layout.Groups(); g++ {
		l, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d_layout", p.Label, g),
			Entries: layoutEntries(p.Layout.GroupBindings(g)),
		})
		if err != nil {
			return fmt.Errorf("create bind group layout %d: %w", g, err)
		}
		pl.layouts = append(pl.layouts, l)
	}

	layout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.Label + "_pipe_layout",
		BindGroupLayouts: pl.layouts,
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	pl.layout = layout

	buffers, err := vertexLayouts(p, pl.slots)
	if err != nil {
		return err
	}
	blend := gputypes.BlendStateAlpha()
	render, err := a.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.Label + "_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntry,
			Buffers:    buffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    targetFormat,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	pl.render = render
	return nil
}

func layoutEntries(bindings []shader.Binding) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(bindings))
	for _, b := range bindings {
		e := gputypes.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: gputypes.ShaderStagesVertexFragment,
		}
		switch b.Kind {
		case shader.BindingUniform:
			e.Buffer = &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: uint64(b.Size),
			}
		case shader.BindingTexture:
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case shader.BindingSampler:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		}
		entries = append(entries, e)
	}
	return entries
}

// vertexLayouts gives every attribute its own per-instance buffer slot,
// ordered by location.
func vertexLayouts(p *shader.Program, slots map[uint32]uint32) ([]gputypes.VertexBufferLayout, error) {
	attrs := make([]shader.Attribute, 0, len(p.Layout.Attributes))
	for _, a := range p.Layout.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Location < attrs[j].Location })

	layouts := make([]gputypes.VertexBufferLayout, 0, len(attrs))
	for i, attr := range attrs {
		format, ok := vertexFormat(attr.Components)
		if !ok {
			return nil, fmt.Errorf("attribute %q: unsupported width %d", attr.Name, attr.Components)
		}
		slots[attr.Location] = uint32(i)
		layouts = append(layouts, gputypes.VertexBufferLayout{
			ArrayStride: uint64(attr.Components) * 4,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{{
				Format:         format,
				Offset:         0,
				ShaderLocation: attr.Location,
			}},
		})
	}
	return layouts, nil
}

func vertexFormat(components uint32) (gputypes.VertexFormat, bool) {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32, true
	case 2:
		return gputypes.VertexFormatFloat32x2, true
	case 3:
		return gputypes.VertexFormatFloat32x3, true
	case 4:
		return gputypes.VertexFormatFloat32x4, true
	}
	return 0, false
}

// DestroyProgram releases a pipeline.
func (a *Adapter) DestroyProgram(id gpucore.ProgramID) {
	if p, ok := a.programs[id]; ok {
		p.destroy(a.device)
		delete(a.programs, id)
	}
}
