package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.

// ProgramID is an opaque handle to a linked program and its pipeline.
type ProgramID uint64

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopyDst indicates the buffer can be written from the CPU.
	BufferUsageCopyDst BufferUsage = 1 << 0

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 1

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 2
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA with premultiplied alpha.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1
)

// BytesPerPixel returns the size of one texel.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8Unorm:
		return 4
	default:
		return 0
	}
}

// FilterMode selects texture sampling.
type FilterMode uint32

// Filter modes.
const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Label string
	Size  int
	Usage BufferUsage
}

// TextureDesc describes a 2D texture to create. Textures have a single mip
// level and clamp to edge.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
	Filter FilterMode
}

// Size returns the byte size of a tightly packed upload for the texture.
func (d *TextureDesc) Size() int {
	return d.Width * d.Height * d.Format.BytesPerPixel()
}

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Transparent is the zero color.
var Transparent = Color{}
