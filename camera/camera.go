// Package camera defines the cameras that drive the ray-march view.
//
// A camera keeps its own position and orientation, converts them into a
// Binding on demand, and pushes that Binding to a Sink (normally the active
// renderer) from its Update method. Update runs as a job on the engine's
// worker pool once per frame, so every camera must be safe for concurrent
// use with the scripts that move it.
package camera

// Camera is the engine-facing camera contract.
type Camera interface {
	// Update uploads the camera state to its sink if it changed.
	Update()

	// Resize records a new surface size in pixels.
	Resize(width, height int)

	// Binding returns the current shader-facing camera state.
	Binding() Binding
}

// Sink receives camera bindings. Renderers implement it.
type Sink interface {
	WriteCamera(Binding) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Binding) error

// WriteCamera calls f.
func (f SinkFunc) WriteCamera(b Binding) error { return f(b) }
