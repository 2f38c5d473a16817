// Package backend selects a rendering adapter by name.
//
// Adapter packages register a factory from their init function, so
// importing them is enough to make them available:
//
//	import (
//		_ "github.com/gogpu/halftone/backend/software"
//		_ "github.com/gogpu/halftone/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default to open the best backend that works on this machine, or Open
// to request one by name:
//
//	a, err := backend.Default()
//
//	// Or request a specific backend
//	a, err := backend.Open(backend.BackendSoftware)
//
// The wgpu backend is preferred; the software backend is the fallback and
// the reference for tests.
package backend
