package rayengine

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rayengine/camera"
)

// Renderer draws a frame once every update job of that frame has finished.
//
// WriteCamera is called from the camera job on a pool worker; the other
// methods are called from the frame driver.
type Renderer interface {
	camera.Sink

	// Resize adapts render targets to a new surface size in pixels.
	Resize(width, height int) error

	// SetPresentMode selects how finished frames are presented.
	SetPresentMode(mode gputypes.PresentMode)

	// Draw renders and submits one frame.
	Draw() error

	// Destroy releases renderer resources.
	Destroy()
}

// presentModeFor maps the vsync flag to a present mode.
func presentModeFor(vsync bool) gputypes.PresentMode {
	if vsync {
		return gputypes.PresentModeFifo
	}
	return gputypes.PresentModeImmediate
}
