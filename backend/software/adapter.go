package software

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/halftone/backend"
	"github.com/gogpu/halftone/gpucore"
	"github.com/gogpu/halftone/shader"
)

func init() {
	backend.Register(backend.BackendSoftware, func() (gpucore.Adapter, error) {
		return New(), nil
	})
}

type program struct {
	src  *shader.Program
	locs shader.Locations
}

type texture struct {
	desc gpucore.TextureDesc
	pix  []byte
}

// Adapter renders on the CPU. It is not safe for concurrent use.
type Adapter struct {
	logger *slog.Logger

	nextID   uint64
	programs map[gpucore.ProgramID]*program
	buffers  map[gpucore.BufferID][]byte
	textures map[gpucore.TextureID]*texture

	target *image.RGBA
	closed bool
}

var _ gpucore.Adapter = (*Adapter)(nil)

// New returns an adapter with no render target. Call Resize before the
// first frame.
func New() *Adapter {
	return &Adapter{
		logger:   slog.New(nopHandler{}),
		programs: make(map[gpucore.ProgramID]*program),
		buffers:  make(map[gpucore.BufferID][]byte),
		textures: make(map[gpucore.TextureID]*texture),
	}
}

// SetLogger sets the logger for this adapter. Nil restores silence.
func (a *Adapter) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	a.logger = l
}

// Name returns the backend identifier.
func (a *Adapter) Name() string { return backend.BackendSoftware }

func (a *Adapter) id() uint64 {
	a.nextID++
	return a.nextID
}

// CreateProgram resolves the halftone contract of p. Programs missing any
// contract name are rejected.
func (a *Adapter) CreateProgram(p *shader.Program) (gpucore.ProgramID, error) {
	if a.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	locs, err := shader.Resolve(p)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("software: %w", err)
	}
	id := gpucore.ProgramID(a.id())
	a.programs[id] = &program{src: p, locs: locs}
	a.logger.Debug("software: program created", "label", p.Label, "id", id)
	return id, nil
}

// DestroyProgram releases a program.
func (a *Adapter) DestroyProgram(id gpucore.ProgramID) {
	delete(a.programs, id)
}

// CreateBuffer allocates a zero-filled buffer.
func (a *Adapter) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if a.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	if desc.Size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q size %d", gpucore.ErrSizeMismatch, desc.Label, desc.Size)
	}
	id := gpucore.BufferID(a.id())
	a.buffers[id] = make([]byte, desc.Size)
	return id, nil
}

// WriteBuffer copies data into a buffer at offset.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset int, data []byte) error {
	buf, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	if offset < 0 || offset+len(data) > len(buf) {
		return fmt.Errorf("%w: write of %d bytes at %d into %d", gpucore.ErrSizeMismatch, len(data), offset, len(buf))
	}
	copy(buf[offset:], data)
	return nil
}

// DestroyBuffer releases a buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	delete(a.buffers, id)
}

// CreateTexture allocates a transparent texture.
func (a *Adapter) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if a.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	size := desc.Size()
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %q is %dx%d", gpucore.ErrSizeMismatch, desc.Label, desc.Width, desc.Height)
	}
	id := gpucore.TextureID(a.id())
	a.textures[id] = &texture{desc: *desc, pix: make([]byte, size)}
	return id, nil
}

// WriteTexture replaces a texture's contents.
func (a *Adapter) WriteTexture(id gpucore.TextureID, data []byte) error {
	tex, ok := a.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if len(data) != len(tex.pix) {
		return fmt.Errorf("%w: texture %q wants %d bytes, got %d", gpucore.ErrSizeMismatch, tex.desc.Label, len(tex.pix), len(data))
	}
	copy(tex.pix, data)
	return nil
}

// DestroyTexture releases a texture.
func (a *Adapter) DestroyTexture(id gpucore.TextureID) {
	delete(a.textures, id)
}

// Resize reallocates the render target. The contents are cleared.
func (a *Adapter) Resize(width, height int) error {
	if a.closed {
		return gpucore.ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: target %dx%d", gpucore.ErrSizeMismatch, width, height)
	}
	if a.target != nil && a.target.Rect.Dx() == width && a.target.Rect.Dy() == height {
		return nil
	}
	a.target = image.NewRGBA(image.Rect(0, 0, width, height))
	a.logger.Debug("software: target resized", "width", width, "height", height)
	return nil
}

// BeginFrame starts recording a frame.
func (a *Adapter) BeginFrame(clear gpucore.Color) (gpucore.FrameEncoder, error) {
	if a.closed {
		return nil, gpucore.ErrClosed
	}
	if a.target == nil {
		return nil, gpucore.ErrNoTarget
	}
	return newEncoder(a, clear), nil
}

// ReadPixels returns a copy of the render target.
func (a *Adapter) ReadPixels() (*image.RGBA, error) {
	if a.closed {
		return nil, gpucore.ErrClosed
	}
	if a.target == nil {
		return nil, gpucore.ErrNoTarget
	}
	out := image.NewRGBA(a.target.Rect)
	copy(out.Pix, a.target.Pix)
	return out, nil
}

// Close releases every resource.
func (a *Adapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	clear(a.programs)
	clear(a.buffers)
	clear(a.textures)
	a.target = nil
	return nil
}

// nopHandler discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
