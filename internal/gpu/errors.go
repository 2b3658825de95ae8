package gpu

import "errors"

var (
	// ErrBackendUnavailable is returned when the requested HAL backend is not
	// registered in this build.
	ErrBackendUnavailable = errors.New("gpu: backend not available")

	// ErrNoAdapter is returned when a backend exposes no adapters.
	ErrNoAdapter = errors.New("gpu: no adapter found")

	// ErrDestroyed is returned by operations on a destroyed MainShader.
	ErrDestroyed = errors.New("gpu: renderer destroyed")

	// ErrInvalidSize is returned when a render target size is not positive.
	ErrInvalidSize = errors.New("gpu: invalid target size")
)
