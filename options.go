package rayengine

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rayengine/camera"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// CPU ray marching on 4 workers, 60 frames per second
//	e, err := rayengine.New(rayengine.WithWorkers(4), rayengine.WithFrameRate(60))
//
//	// Draw through the Vulkan HAL backend
//	e, err := rayengine.New(rayengine.WithGPU(gputypes.BackendVulkan, false))
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	workers    int
	width      int
	height     int
	vsync      bool
	frameRate  int
	frameLimit uint64
	renderer   Renderer
	gpu        bool
	gpuBackend gputypes.Backend
	gpuSPIRV   bool
	camera     camera.Camera
	events     gpucontext.EventSource
	hooks      []FrameHook
	onPanic    func(worker int, value any)
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		workers: 0, // GOMAXPROCS
		width:   800,
		height:  600,
		vsync:   true,
	}
}

// WithWorkers sets the number of pool workers. Zero or negative means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSize sets the initial surface size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithVSync sets the initial vsync flag. Vsync is on by default.
func WithVSync(vsync bool) Option {
	return func(o *options) {
		o.vsync = vsync
	}
}

// WithFrameRate paces Run to at most fps frames per second.
// Zero runs frames back to back.
func WithFrameRate(fps int) Option {
	return func(o *options) {
		o.frameRate = fps
	}
}

// WithFrameLimit makes Run return after n frames. Zero means no limit.
func WithFrameLimit(n uint64) Option {
	return func(o *options) {
		o.frameLimit = n
	}
}

// WithRenderer sets a custom renderer. The engine takes ownership and
// destroys it on Close.
func WithRenderer(r Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithGPU draws through a registered wgpu HAL backend instead of the CPU
// ray marcher. With spirv set, the shader is compiled to SPIR-V by naga
// before it reaches the backend.
func WithGPU(backend gputypes.Backend, spirv bool) Option {
	return func(o *options) {
		o.gpu = true
		o.gpuBackend = backend
		o.gpuSPIRV = spirv
	}
}

// WithCamera sets the initial camera. The default is a FirstPerson camera
// at the origin.
func WithCamera(c camera.Camera) Option {
	return func(o *options) {
		o.camera = c
	}
}

// WithEventSource feeds keyboard, resize and focus events from src into
// the engine context.
func WithEventSource(src gpucontext.EventSource) Option {
	return func(o *options) {
		o.events = src
	}
}

// WithFrameHook registers fn to run on the frame driver after every drawn
// frame. Hooks run in registration order.
func WithFrameHook(fn FrameHook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, fn)
	}
}

// WithPanicHandler registers fn to be called when a script or camera
// update panics. The panic is always recovered and logged; the frame
// continues without that update.
func WithPanicHandler(fn func(worker int, value any)) Option {
	return func(o *options) {
		o.onPanic = fn
	}
}
