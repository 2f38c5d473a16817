// Package halftone renders a photographic image as a multi-layer halftone
// using GPU point sprites.
//
// # Overview
//
// A [Renderer] covers its render target with a staggered grid of points and
// draws the grid three times per frame, once per luminance band (dark, mid,
// light). Every point samples a square working copy of the source image; the
// sampled luminance sets the dot diameter and decides which band keeps the
// dot. Overlapping bands give soft transitions between tones.
//
// # Quick Start
//
//	adapter := software.New()
//	r, err := halftone.New(adapter, halftone.WithImage("bird.jpg"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Destroy()
//
//	r.SetResolution(800, 600)
//	if err := r.WaitReady(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	_ = r.WaitIdle(ctx) // image decoded and applied
//	img, err := r.Snapshot()
//
// # Threading
//
// A Renderer is owned by one goroutine, the one that calls its methods.
// Shader loading and image decoding run in the background and hand their
// results back through an event queue that the owner drains with
// [Renderer.Dispatch], [Renderer.Wait], [Renderer.WaitReady] or
// [Renderer.WaitIdle]. No GPU call is ever made from another goroutine.
//
// # Backends
//
// Rendering goes through a [gpucore.Adapter]. backend/software is a
// deterministic CPU reference; backend/wgpu drives a hal device from
// github.com/gogpu/wgpu.
//
// # Logging
//
// Logging is silent by default. See [SetLogger].
package halftone
