//go:build !nogpu

package wgpu

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/halftone/backend"
	"github.com/gogpu/halftone/gpucore"
)

// Errors returned while acquiring a device.
var (
	// ErrNoBackend is returned when the requested hal backend is not
	// compiled in.
	ErrNoBackend = errors.New("wgpu: hal backend not available")

	// ErrNoAdapter is returned when the backend exposes no adapter.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")

	// ErrNotHalDevice is returned by NewFromProvider when the provider's
	// device or queue is not a hal object.
	ErrNotHalDevice = errors.New("wgpu: provider does not expose a hal device")
)

// targetFormat is the format of the render target and every texture.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

func init() {
	backend.Register(backend.BackendWGPU, func() (gpucore.Adapter, error) {
		return New()
	})
}

// Option configures New.
type Option func(*config)

type config struct {
	variant gputypes.Backend
}

// WithBackend selects the hal backend New opens. Default is Vulkan.
func WithBackend(variant gputypes.Backend) Option {
	return func(c *config) {
		c.variant = variant
	}
}

type buffer struct {
	buf  hal.Buffer
	size int
}

type texture struct {
	desc gpucore.TextureDesc
	tex  hal.Texture
	view hal.TextureView
}

type renderTarget struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// Adapter renders through a hal device. It is not safe for concurrent use.
type Adapter struct {
	logger *slog.Logger

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    bool
	info     GPUInfo

	nextID   uint64
	programs map[gpucore.ProgramID]*pipeline
	buffers  map[gpucore.BufferID]*buffer
	textures map[gpucore.TextureID]*texture
	samplers map[gpucore.FilterMode]hal.Sampler

	target *renderTarget
	closed bool
}

var _ gpucore.Adapter = (*Adapter)(nil)

// New opens a device on the best adapter of the selected hal backend.
// Discrete and integrated GPUs are preferred over software adapters.
func New(opts ...Option) (*Adapter, error) {
	cfg := config{variant: gputypes.BackendVulkan}
	for _, opt := range opts {
		opt(&cfg)
	}

	be, ok := hal.GetBackend(cfg.variant)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, cfg.variant)
	}
	instance, err := be.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	a := newAdapter(openDev.Device, openDev.Queue)
	a.instance = instance
	a.owned = true
	a.info = gpuInfo(selected.Info, cfg.variant)
	return a, nil
}

// NewWithDevice wraps a device and queue owned by the caller. Close
// releases the adapter's resources but not the device.
func NewWithDevice(device hal.Device, queue hal.Queue) *Adapter {
	return newAdapter(device, queue)
}

// NewFromProvider wraps the device of a host application.
func NewFromProvider(p gpucontext.DeviceProvider) (*Adapter, error) {
	if p == nil {
		return nil, ErrNotHalDevice
	}
	device, ok := p.Device().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: device is %T", ErrNotHalDevice, p.Device())
	}
	queue, ok := p.Queue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue is %T", ErrNotHalDevice, p.Queue())
	}
	return newAdapter(device, queue), nil
}

func newAdapter(device hal.Device, queue hal.Queue) *Adapter {
	return &Adapter{
		logger:   slog.New(nopHandler{}),
		device:   device,
		queue:    queue,
		info:     GPUInfo{Name: "external"},
		programs: make(map[gpucore.ProgramID]*pipeline),
		buffers:  make(map[gpucore.BufferID]*buffer),
		textures: make(map[gpucore.TextureID]*texture),
		samplers: make(map[gpucore.FilterMode]hal.Sampler),
	}
}

// SetLogger sets the logger for this adapter. Nil restores silence.
func (a *Adapter) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	a.logger = l
	if a.owned {
		a.logger.Info("wgpu: device opened", "gpu", a.info.String())
	}
}

// Name returns the backend identifier.
func (a *Adapter) Name() string { return backend.BackendWGPU }

// Info describes the GPU the adapter opened.
func (a *Adapter) Info() GPUInfo { return a.info }

func (a *Adapter) id() uint64 {
	a.nextID++
	return a.nextID
}

// CreateBuffer allocates a device buffer.
func (a *Adapter) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if a.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	if desc.Size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q size %d", gpucore.ErrSizeMismatch, desc.Label, desc.Size)
	}
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  uint64(desc.Size),
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	id := gpucore.BufferID(a.id())
	a.buffers[id] = &buffer{buf: buf, size: desc.Size}
	a.logger.Debug("wgpu: buffer created", "label", desc.Label, "size", desc.Size)
	return id, nil
}

// WriteBuffer uploads data through the queue.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset int, data []byte) error {
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("%w: write of %d bytes at %d into %d", gpucore.ErrSizeMismatch, len(data), offset, b.size)
	}
	if err := a.queue.WriteBuffer(b.buf, uint64(offset), data); err != nil {
		return fmt.Errorf("write buffer: %w", err)
	}
	return nil
}

// DestroyBuffer releases a buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	if b, ok := a.buffers[id]; ok {
		a.device.DestroyBuffer(b.buf)
		delete(a.buffers, id)
	}
}

// CreateTexture allocates a sampled texture with one mip level.
func (a *Adapter) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if a.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	if desc.Size() <= 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %q is %dx%d", gpucore.ErrSizeMismatch, desc.Label, desc.Width, desc.Height)
	}
	tex, view, err := a.createTexture(desc.Label, uint32(desc.Width), uint32(desc.Height),
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.TextureID(a.id())
	a.textures[id] = &texture{desc: *desc, tex: tex, view: view}
	return id, nil
}

func (a *Adapter) createTexture(label string, w, h uint32, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %q: %w", label, err)
	}
	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		a.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create texture view %q: %w", label, err)
	}
	return tex, view, nil
}

// WriteTexture replaces a texture's contents.
func (a *Adapter) WriteTexture(id gpucore.TextureID, data []byte) error {
	t, ok := a.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if len(data) != t.desc.Size() {
		return fmt.Errorf("%w: texture %q wants %d bytes, got %d", gpucore.ErrSizeMismatch, t.desc.Label, t.desc.Size(), len(data))
	}
	w, h := uint32(t.desc.Width), uint32(t.desc.Height)
	err := a.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write texture %q: %w", t.desc.Label, err)
	}
	return nil
}

// DestroyTexture releases a texture and its view.
func (a *Adapter) DestroyTexture(id gpucore.TextureID) {
	if t, ok := a.textures[id]; ok {
		a.device.DestroyTextureView(t.view)
		a.device.DestroyTexture(t.tex)
		delete(a.textures, id)
	}
}

// sampler returns the shared clamp-to-edge sampler for a filter mode.
func (a *Adapter) sampler(mode gpucore.FilterMode) (hal.Sampler, error) {
	if s, ok := a.samplers[mode]; ok {
		return s, nil
	}
	filter := gputypes.FilterModeLinear
	if mode == gpucore.FilterNearest {
		filter = gputypes.FilterModeNearest
	}
	s, err := a.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "halftone_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	a.samplers[mode] = s
	return s, nil
}

// Resize (re)allocates the offscreen render target.
func (a *Adapter) Resize(width, height int) error {
	if a.closed {
		return gpucore.ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: target %dx%d", gpucore.ErrSizeMismatch, width, height)
	}
	w, h := uint32(width), uint32(height)
	if a.target != nil && a.target.width == w && a.target.height == h {
		return nil
	}
	tex, view, err := a.createTexture("halftone_target", w, h,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		return err
	}
	a.destroyTarget()
	a.target = &renderTarget{tex: tex, view: view, width: w, height: h}
	a.logger.Debug("wgpu: target resized", "width", width, "height", height)
	return nil
}

func (a *Adapter) destroyTarget() {
	if a.target == nil {
		return
	}
	a.device.DestroyTextureView(a.target.view)
	a.device.DestroyTexture(a.target.tex)
	a.target = nil
}

// BeginFrame starts recording a frame.
func (a *Adapter) BeginFrame(clear gpucore.Color) (gpucore.FrameEncoder, error) {
	if a.closed {
		return nil, gpucore.ErrClosed
	}
	if a.target == nil {
		return nil, gpucore.ErrNoTarget
	}
	return newFrame(a, clear), nil
}

// ReadPixels copies the render target back to the CPU.
func (a *Adapter) ReadPixels() (*image.RGBA, error) {
	if a.closed {
		return nil, gpucore.ErrClosed
	}
	if a.target == nil {
		return nil, gpucore.ErrNoTarget
	}
	return a.readback()
}

// Close releases every resource the adapter created. A device opened by
// New is destroyed as well.
func (a *Adapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.device.WaitIdle(); err != nil {
		a.logger.Warn("wgpu: wait idle on close", "err", err)
	}
	for id, p := range a.programs {
		p.destroy(a.device)
		delete(a.programs, id)
	}
	for id := range a.buffers {
		a.DestroyBuffer(id)
	}
	for id := range a.textures {
		a.DestroyTexture(id)
	}
	for mode, s := range a.samplers {
		a.device.DestroySampler(s)
		delete(a.samplers, mode)
	}
	a.destroyTarget()
	if a.owned {
		a.device.Destroy()
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	return nil
}

func bufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageVertex != 0 {
		out |= gputypes.BufferUsageVertex
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	return out
}

// nopHandler discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
