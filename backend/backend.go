package backend

import (
	"errors"

	"github.com/gogpu/halftone/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none is registered at all.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendSoftware is the deterministic CPU rasterizer.
	BackendSoftware = "software"
	// BackendWGPU is the Pure Go GPU backend (gogpu/wgpu hal).
	BackendWGPU = "wgpu"
)

// Factory opens a new adapter.
type Factory func() (gpucore.Adapter, error)
