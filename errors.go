package halftone

import "errors"

// Sentinel errors returned by the renderer.
var (
	// ErrNoSurface is returned by New when no rendering adapter is available.
	ErrNoSurface = errors.New("halftone: no rendering surface available")

	// ErrDestroyed is returned by operations on a destroyed renderer.
	ErrDestroyed = errors.New("halftone: renderer destroyed")

	// ErrNotReady is returned by Snapshot before the renderer is ready.
	ErrNotReady = errors.New("halftone: renderer not ready")

	// ErrInvalidPitch is returned for a dot pitch outside [MinPitch, MaxPitch].
	ErrInvalidPitch = errors.New("halftone: pitch out of range")

	// ErrImageLoad wraps failures to fetch or decode a source image.
	ErrImageLoad = errors.New("halftone: image load failed")
)
