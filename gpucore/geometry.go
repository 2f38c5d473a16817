package gpucore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/halftone/shader"
)

// VertexBuffer owns a GPU buffer of fixed-width float32 tuples.
type VertexBuffer struct {
	adapter    Adapter
	label      string
	components int

	id       BufferID
	capacity int // bytes
	count    int // tuples
}

// NewVertexBuffer returns an empty buffer of tuples with the given number of
// components. No GPU memory is allocated until the first Upload.
func NewVertexBuffer(a Adapter, label string, components int) *VertexBuffer {
	return &VertexBuffer{adapter: a, label: label, components: components}
}

// Upload replaces the buffer contents. len(data) must be a multiple of the
// tuple width. The GPU buffer grows as needed and is reused otherwise.
func (b *VertexBuffer) Upload(data []float32) error {
	if b.components <= 0 || len(data)%b.components != 0 {
		return fmt.Errorf("%w: %d floats for %d-component tuples", ErrSizeMismatch, len(data), b.components)
	}
	size := len(data) * 4
	if size == 0 {
		b.count = 0
		return nil
	}
	raw := make([]byte, size)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	if size <= b.capacity {
		if err := b.adapter.WriteBuffer(b.id, 0, raw); err != nil {
			return fmt.Errorf("write %s buffer: %w", b.label, err)
		}
		b.count = len(data) / b.components
		return nil
	}

	// Grow: the old buffer stays live until the new one holds the data.
	id, err := b.adapter.CreateBuffer(&BufferDesc{
		Label: b.label,
		Size:  size,
		Usage: BufferUsageVertex | BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create %s buffer: %w", b.label, err)
	}
	if err := b.adapter.WriteBuffer(id, 0, raw); err != nil {
		b.adapter.DestroyBuffer(id)
		return fmt.Errorf("write %s buffer: %w", b.label, err)
	}
	if b.id != InvalidID {
		b.adapter.DestroyBuffer(b.id)
	}
	b.id = id
	b.capacity = size
	b.count = len(data) / b.components
	return nil
}

// Bind attaches the buffer to attr on the encoder.
func (b *VertexBuffer) Bind(enc FrameEncoder, attr shader.Attribute) {
	enc.SetVertexBuffer(attr, b.id)
}

// Count returns the number of tuples uploaded.
func (b *VertexBuffer) Count() int { return b.count }

// ID returns the underlying buffer, or InvalidID before the first upload.
func (b *VertexBuffer) ID() BufferID { return b.id }

// Destroy releases the GPU buffer.
func (b *VertexBuffer) Destroy() {
	if b.id != InvalidID {
		b.adapter.DestroyBuffer(b.id)
	}
	b.id = InvalidID
	b.capacity = 0
	b.count = 0
}
