// Package software implements gpucore.Adapter on the CPU.
//
// The adapter executes the halftone program contract directly: it reads the
// uniforms and textures the renderer binds by name, expands every grid point
// into a quad sized by the luminance under it, discards fragments outside
// the layer band and blends the sprite source-over into an RGBA target.
//
// Output is deterministic, so the adapter serves as the reference backend
// for tests and as a fallback when no GPU is available.
//
// Importing the package registers it with the backend registry under
// backend.BackendSoftware.
package software
