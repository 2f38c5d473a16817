// Package wgpu implements gpucore.Adapter on a gogpu/wgpu hal device.
//
// Every grid point is drawn as an instanced six-vertex quad into an
// offscreen RGBA8 render target; ReadPixels copies the target back through
// a mappable staging buffer. Programs are handed to the device as WGSL and
// their bind group layouts are built from the reflected shader layout.
//
// # Devices
//
// New opens a device on the first suitable adapter of a hal backend
// (Vulkan by default). NewWithDevice wraps a device the caller already
// owns, and NewFromProvider takes the device of a host application through
// gpucontext.DeviceProvider:
//
//	provider := app.GPUContextProvider()
//	a, err := wgpu.NewFromProvider(provider)
//
// Adapters built on a borrowed device never destroy it.
//
// The GPU implementation is excluded with the nogpu build tag.
package wgpu
