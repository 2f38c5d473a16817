//go:build !nogpu

package wgpu

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/halftone/gpucore"
	"github.com/gogpu/halftone/shader"
)

// createNoopDevice opens a device on the noop hal backend.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance() error = %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop backend exposes no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return open.Device, open.Queue
}

func newNoopAdapter(t *testing.T) *Adapter {
	t.Helper()
	device, queue := createNoopDevice(t)
	a := NewWithDevice(device, queue)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func linkBuiltin(t *testing.T) *shader.Program {
	t.Helper()
	vs, err := fs.ReadFile(shader.BuiltinFS, shader.HalftoneVertexPath)
	if err != nil {
		t.Fatalf("read vertex source: %v", err)
	}
	frag, err := fs.ReadFile(shader.BuiltinFS, shader.HalftoneFragmentPath)
	if err != nil {
		t.Fatalf("read fragment source: %v", err)
	}
	p, err := shader.Link("halftone", string(vs), string(frag))
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	return p
}

func TestNoopFrame(t *testing.T) {
	a := newNoopAdapter(t)
	p := linkBuiltin(t)
	locs, err := shader.Resolve(p)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	prog, err := a.CreateProgram(p)
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}

	tex := func(label string, w, h int, filter gpucore.FilterMode) gpucore.TextureID {
		desc := &gpucore.TextureDesc{Label: label, Width: w, Height: h, Format: gpucore.TextureFormatRGBA8Unorm, Filter: filter}
		id, err := a.CreateTexture(desc)
		if err != nil {
			t.Fatalf("CreateTexture(%s) error = %v", label, err)
		}
		if err := a.WriteTexture(id, make([]byte, desc.Size())); err != nil {
			t.Fatalf("WriteTexture(%s) error = %v", label, err)
		}
		return id
	}
	working := tex("working", 8, 8, gpucore.FilterLinear)
	sprite := tex("sprite", 4, 4, gpucore.FilterNearest)

	vb, err := a.CreateBuffer(&gpucore.BufferDesc{Label: "points", Size: 16, Usage: gpucore.BufferUsageVertex | gpucore.BufferUsageCopyDst})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := a.WriteBuffer(vb, 0, make([]byte, 16)); err != nil {
		t.Fatalf("WriteBuffer() error = %v", err)
	}
	if err := a.Resize(40, 30); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}

	enc, err := a.BeginFrame(gpucore.Transparent)
	if err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}
	enc.SetProgram(prog)
	enc.SetVertexBuffer(locs.Position, vb)
	enc.SetUniform(locs.Resolution, 40, 30)
	enc.SetUniform(locs.MinSize, 0)
	enc.SetUniform(locs.MaxSize, 6)
	enc.SetUniform(locs.ImageSize, 8)
	enc.BindTexture(locs.Image, working)
	enc.BindTexture(locs.Sprite, sprite)
	enc.SetUniform(locs.Low, 0)
	enc.SetUniform(locs.High, 1)
	enc.DrawPoints(2)
	if err := enc.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := enc.End(); err == nil {
		t.Error("second End() error = nil, want error")
	}

	img, err := a.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	if got := img.Bounds().Size(); got.X != 40 || got.Y != 30 {
		t.Errorf("ReadPixels() size = %v, want 40x30", got)
	}
}

func TestFrameUnknownProgram(t *testing.T) {
	a := newNoopAdapter(t)
	if err := a.Resize(8, 8); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	enc, err := a.BeginFrame(gpucore.Transparent)
	if err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}
	enc.SetProgram(gpucore.ProgramID(99))
	enc.DrawPoints(1)
	if err := enc.End(); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("End() error = %v, want ErrUnknownResource", err)
	}
}

func TestAdapterErrors(t *testing.T) {
	a := newNoopAdapter(t)

	if _, err := a.BeginFrame(gpucore.Transparent); !errors.Is(err, gpucore.ErrNoTarget) {
		t.Errorf("BeginFrame() without target error = %v, want ErrNoTarget", err)
	}
	if _, err := a.ReadPixels(); !errors.Is(err, gpucore.ErrNoTarget) {
		t.Errorf("ReadPixels() without target error = %v, want ErrNoTarget", err)
	}
	if err := a.WriteBuffer(gpucore.BufferID(7), 0, []byte{1}); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("WriteBuffer() unknown error = %v, want ErrUnknownResource", err)
	}
	if err := a.WriteTexture(gpucore.TextureID(7), nil); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("WriteTexture() unknown error = %v, want ErrUnknownResource", err)
	}

	id, err := a.CreateTexture(&gpucore.TextureDesc{Label: "t", Width: 2, Height: 2, Format: gpucore.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	if err := a.WriteTexture(id, make([]byte, 3)); !errors.Is(err, gpucore.ErrSizeMismatch) {
		t.Errorf("WriteTexture() short data error = %v, want ErrSizeMismatch", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := a.Resize(4, 4); !errors.Is(err, gpucore.ErrClosed) {
		t.Errorf("Resize() after Close error = %v, want ErrClosed", err)
	}
}

type fakeProvider struct {
	device gpucontext.Device
	queue  gpucontext.Queue
}

func (p fakeProvider) Device() gpucontext.Device             { return p.device }
func (p fakeProvider) Queue() gpucontext.Queue               { return p.queue }
func (p fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (p fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestNewFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)

	tests := []struct {
		name    string
		p       gpucontext.DeviceProvider
		wantErr bool
	}{
		{name: "nil provider", p: nil, wantErr: true},
		{name: "foreign device", p: fakeProvider{device: "device", queue: queue}, wantErr: true},
		{name: "foreign queue", p: fakeProvider{device: device, queue: 42}, wantErr: true},
		{name: "hal device", p: fakeProvider{device: device, queue: queue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewFromProvider(tt.p)
			if tt.wantErr {
				if !errors.Is(err, ErrNotHalDevice) {
					t.Errorf("NewFromProvider() error = %v, want ErrNotHalDevice", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromProvider() error = %v", err)
			}
			defer a.Close()
			if a.owned {
				t.Error("adapter owns a provider device")
			}
		})
	}
}

func TestGPUInfoString(t *testing.T) {
	info := gpuInfo(gputypes.AdapterInfo{
		Name:       "Test GPU",
		DeviceType: gputypes.DeviceTypeDiscreteGPU,
	}, gputypes.BackendVulkan)
	want := "Test GPU (" + gputypes.DeviceTypeDiscreteGPU.String() + ", " + gputypes.BackendVulkan.String() + ")"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPipelineLayouts(t *testing.T) {
	p := linkBuiltin(t)

	for g := uint32(0); g < p.Layout.Groups(); g++ {
		bindings := p.Layout.GroupBindings(g)
		entries := layoutEntries(bindings)
		if len(entries) != len(bindings) {
			t.Fatalf("group %d: %d entries, want %d", g, len(entries), len(bindings))
		}
		for i, e := range entries {
			b := bindings[i]
			set := 0
			if e.Buffer != nil {
				set++
			}
			if e.Texture != nil {
				set++
			}
			if e.Sampler != nil {
				set++
			}
			if set != 1 || e.Binding != b.Binding {
				t.Errorf("group %d entry %d = %+v, want one resource at binding %d", g, i, e, b.Binding)
			}
		}
	}

	slots := make(map[uint32]uint32)
	layouts, err := vertexLayouts(p, slots)
	if err != nil {
		t.Fatalf("vertexLayouts() error = %v", err)
	}
	if len(layouts) != 1 {
		t.Fatalf("vertexLayouts() = %d layouts, want 1", len(layouts))
	}
	l := layouts[0]
	if l.StepMode != gputypes.VertexStepModeInstance || l.ArrayStride != 8 {
		t.Errorf("position layout = %+v, want per-instance stride 8", l)
	}
	if l.Attributes[0].Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("position format = %v, want Float32x2", l.Attributes[0].Format)
	}
	if s, ok := slots[0]; !ok || s != 0 {
		t.Errorf("slots = %v, want location 0 in slot 0", slots)
	}
}
