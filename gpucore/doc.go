// Package gpucore defines the GPU abstraction the halftone renderer draws
// through.
//
// The renderer never talks to a graphics API directly. It talks to an
// [Adapter], which owns a render target and a set of resources addressed by
// opaque IDs ([ProgramID], [BufferID], [TextureID]). Two adapters exist:
//
//	               +------------------+
//	               |    halftone      |
//	               |   (Renderer)     |
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v---------+         +---------v--------+
//	| backend/software |         |   backend/wgpu   |
//	|  (CPU reference) |         |   (hal.Device)   |
//	+------------------+         +------------------+
//
// # Frames
//
// A frame is recorded through a [FrameEncoder] returned by
// [Adapter.BeginFrame]. Commands take effect when [FrameEncoder.End] is
// called: the target is cleared, then every recorded point draw is
// rasterized in order with source-over alpha blending.
//
// Uniform values and texture bindings are captured at each DrawPoints call,
// so a later SetUniform does not affect an earlier draw of the same frame.
//
// # Geometry
//
// [VertexBuffer] wraps a float32 buffer of fixed-width tuples and handles
// re-upload when the tuple count changes.
package gpucore
