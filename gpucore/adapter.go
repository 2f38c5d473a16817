package gpucore

import (
	"errors"
	"image"

	"github.com/gogpu/halftone/shader"
)

// Errors shared by adapter implementations.
var (
	// ErrUnknownResource is returned for an ID the adapter did not issue or
	// already destroyed.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrNoTarget is returned by BeginFrame and ReadPixels before Resize.
	ErrNoTarget = errors.New("gpucore: render target not sized")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("gpucore: adapter closed")

	// ErrSizeMismatch is returned when upload data does not match the
	// resource size.
	ErrSizeMismatch = errors.New("gpucore: data size mismatch")
)

// Adapter abstracts a GPU backend that renders point sprites into an
// offscreen RGBA target.
//
// Adapters are not safe for concurrent use. All calls must come from the
// goroutine that owns the renderer.
type Adapter interface {
	// Name identifies the backend in logs.
	Name() string

	// CreateProgram prepares a linked program for drawing.
	CreateProgram(p *shader.Program) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// CreateBuffer allocates a buffer.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// WriteBuffer uploads data at the given byte offset.
	WriteBuffer(id BufferID, offset int, data []byte) error

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// CreateTexture allocates a zero-filled texture.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// WriteTexture replaces the full contents of a texture. data must be
	// tightly packed rows of premultiplied RGBA8.
	WriteTexture(id TextureID, data []byte) error

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// Resize (re)allocates the render target.
	Resize(width, height int) error

	// BeginFrame starts recording a frame that clears the target to clear.
	BeginFrame(clear Color) (FrameEncoder, error)

	// ReadPixels returns a copy of the render target.
	ReadPixels() (*image.RGBA, error)

	// Close releases every resource owned by the adapter.
	Close() error
}

// FrameEncoder records the commands of one frame.
//
// Methods other than End never fail directly; the first error is reported
// by End.
type FrameEncoder interface {
	// SetProgram selects the program for subsequent draws.
	SetProgram(id ProgramID)

	// SetVertexBuffer binds buf to the given per-instance attribute.
	SetVertexBuffer(attr shader.Attribute, buf BufferID)

	// SetUniform writes float values at a uniform location.
	SetUniform(loc shader.Location, values ...float32)

	// BindTexture binds a texture at a texture location.
	BindTexture(loc shader.Location, tex TextureID)

	// DrawPoints draws count points from the bound vertex buffer.
	DrawPoints(count int)

	// End submits the frame.
	End() error
}
