package rayengine

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rayengine/camera"
)

// fakeRenderer records the calls the engine makes.
type fakeRenderer struct {
	mu          sync.Mutex
	bindings    []camera.Binding
	draws       int
	width       int
	height      int
	presentMode gputypes.PresentMode
	destroyed   bool
	drawErr     error

	// onDraw runs inside Draw, before it returns.
	onDraw func()
}

func (r *fakeRenderer) WriteCamera(b camera.Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = append(r.bindings, b)
	return nil
}

func (r *fakeRenderer) Resize(w, h int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = w, h
	return nil
}

func (r *fakeRenderer) SetPresentMode(m gputypes.PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presentMode = m
}

func (r *fakeRenderer) Draw() error {
	if r.onDraw != nil {
		r.onDraw()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drawErr != nil {
		return r.drawErr
	}
	r.draws++
	return nil
}

func (r *fakeRenderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed = true
}

func (r *fakeRenderer) snapshot() (draws, uploads int, destroyed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws, len(r.bindings), r.destroyed
}

var errDrawFailed = errors.New("draw failed")

// fakeEvents captures the callbacks registered by BindEvents. Methods the
// engine does not use fall through to the nil embedded interface.
type fakeEvents struct {
	gpucontext.EventSource

	keyPress   func(gpucontext.Key, gpucontext.Modifiers)
	keyRelease func(gpucontext.Key, gpucontext.Modifiers)
	resize     func(int, int)
	focus      func(bool)
}

func (f *fakeEvents) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers))   { f.keyPress = fn }
func (f *fakeEvents) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) { f.keyRelease = fn }
func (f *fakeEvents) OnResize(fn func(int, int))                                 { f.resize = fn }
func (f *fakeEvents) OnFocus(fn func(bool))                                      { f.focus = fn }

// countingCamera counts updates and resizes.
type countingCamera struct {
	updates atomic.Int64
	width   atomic.Int64
	height  atomic.Int64
}

func (c *countingCamera) Update() { c.updates.Add(1) }

func (c *countingCamera) Resize(w, h int) {
	c.width.Store(int64(w))
	c.height.Store(int64(h))
}

func (c *countingCamera) Binding() camera.Binding { return camera.Binding{} }
