package rayengine

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rayengine/camera"
)

// Context is the engine state shared with scripts.
//
// Context is safe for concurrent use: scripts read keys and request close
// from pool workers while the frame driver feeds input events.
type Context struct {
	closeRequest atomic.Bool

	keysMu    sync.RWMutex
	keys      map[gpucontext.Key]struct{}
	modifiers gpucontext.Modifiers

	scriptsMu sync.Mutex
	scripts   []*registeredScript

	camMu sync.RWMutex
	cam   camera.Camera

	// renderer is set once by the engine before the first frame.
	renderer Renderer

	sizeMu sync.Mutex
	width  int
	height int
	vsync  bool
}

// newContext creates a context for a width x height surface.
func newContext(width, height int, vsync bool) *Context {
	return &Context{
		keys:   make(map[gpucontext.Key]struct{}),
		width:  width,
		height: height,
		vsync:  vsync,
	}
}

// Close asks the engine to stop after the current frame.
func (c *Context) Close() {
	c.closeRequest.Store(true)
}

// CloseRequested reports whether Close has been called.
func (c *Context) CloseRequested() bool {
	return c.closeRequest.Load()
}

// KeyPressed marks k as held down.
func (c *Context) KeyPressed(k gpucontext.Key) {
	c.keysMu.Lock()
	c.keys[k] = struct{}{}
	c.keysMu.Unlock()
}

// KeyReleased marks k as released.
func (c *Context) KeyReleased(k gpucontext.Key) {
	c.keysMu.Lock()
	delete(c.keys, k)
	c.keysMu.Unlock()
}

// IsKeyPressed reports whether k is currently held down.
func (c *Context) IsKeyPressed(k gpucontext.Key) bool {
	c.keysMu.RLock()
	defer c.keysMu.RUnlock()
	_, ok := c.keys[k]
	return ok
}

// PressedKeys returns the held keys in ascending order.
func (c *Context) PressedKeys() []gpucontext.Key {
	c.keysMu.RLock()
	keys := make([]gpucontext.Key, 0, len(c.keys))
	for k := range c.keys {
		keys = append(keys, k)
	}
	c.keysMu.RUnlock()
	slices.Sort(keys)
	return keys
}

// Modifiers returns the modifier state of the last key event.
func (c *Context) Modifiers() gpucontext.Modifiers {
	c.keysMu.RLock()
	defer c.keysMu.RUnlock()
	return c.modifiers
}

// releaseAllKeys forgets every held key, as when the window loses focus.
func (c *Context) releaseAllKeys() {
	c.keysMu.Lock()
	clear(c.keys)
	c.modifiers = 0
	c.keysMu.Unlock()
}

func (c *Context) setModifiers(m gpucontext.Modifiers) {
	c.keysMu.Lock()
	c.modifiers = m
	c.keysMu.Unlock()
}

// AddScript registers s to run every frame, starting with the next one.
// The returned handle identifies the registration for RemoveScript.
func (c *Context) AddScript(s Script) Script {
	h := &registeredScript{Script: s}
	c.scriptsMu.Lock()
	c.scripts = append(c.scripts, h)
	c.scriptsMu.Unlock()
	return h
}

// RemoveScript unregisters the script identified by handle, as returned by
// AddScript. It reports whether the handle was registered.
func (c *Context) RemoveScript(handle Script) bool {
	h, ok := handle.(*registeredScript)
	if !ok {
		return false
	}
	c.scriptsMu.Lock()
	defer c.scriptsMu.Unlock()
	i := slices.Index(c.scripts, h)
	if i < 0 {
		return false
	}
	c.scripts = slices.Delete(c.scripts, i, i+1)
	return true
}

// Scripts returns the registered script handles in registration order.
func (c *Context) Scripts() []Script {
	c.scriptsMu.Lock()
	defer c.scriptsMu.Unlock()
	out := make([]Script, len(c.scripts))
	for i, s := range c.scripts {
		out[i] = s
	}
	return out
}

// Camera returns the active camera.
func (c *Context) Camera() camera.Camera {
	c.camMu.RLock()
	defer c.camMu.RUnlock()
	return c.cam
}

// SetCamera replaces the active camera. The camera is resized to the
// current surface and, if it accepts a sink, connected to the renderer.
func (c *Context) SetCamera(cam camera.Camera) {
	w, h := c.Size()
	cam.Resize(w, h)
	if s, ok := cam.(sinkSetter); ok && c.renderer != nil {
		s.SetSink(c.renderer)
	}
	c.camMu.Lock()
	c.cam = cam
	c.camMu.Unlock()
}

// sinkSetter is implemented by cameras that push their binding to a sink.
type sinkSetter interface {
	SetSink(camera.Sink)
}

// Resize records a new surface size and forwards it to the camera and the
// renderer. Zero dimensions, as reported for minimized windows, are ignored.
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.sizeMu.Lock()
	c.width, c.height = width, height
	c.sizeMu.Unlock()

	if cam := c.Camera(); cam != nil {
		cam.Resize(width, height)
	}
	if c.renderer != nil {
		if err := c.renderer.Resize(width, height); err != nil {
			slogger().Warn("rayengine: renderer resize failed",
				"width", width, "height", height, "err", err)
		}
	}
}

// Size returns the surface size in pixels.
func (c *Context) Size() (width, height int) {
	c.sizeMu.Lock()
	defer c.sizeMu.Unlock()
	return c.width, c.height
}

// SetVSync switches between vsynced (Fifo) and immediate presentation.
func (c *Context) SetVSync(vsync bool) {
	c.sizeMu.Lock()
	c.vsync = vsync
	c.sizeMu.Unlock()
	if c.renderer != nil {
		c.renderer.SetPresentMode(presentModeFor(vsync))
	}
}

// VSync reports whether vsync is enabled.
func (c *Context) VSync() bool {
	c.sizeMu.Lock()
	defer c.sizeMu.Unlock()
	return c.vsync
}

// PresentMode returns the present mode matching the vsync flag.
func (c *Context) PresentMode() gputypes.PresentMode {
	return presentModeFor(c.VSync())
}

// BindEvents feeds keyboard, resize and focus events from src into the
// context. Losing focus releases every held key.
func (c *Context) BindEvents(src gpucontext.EventSource) {
	src.OnKeyPress(func(k gpucontext.Key, m gpucontext.Modifiers) {
		c.KeyPressed(k)
		c.setModifiers(m)
	})
	src.OnKeyRelease(func(k gpucontext.Key, m gpucontext.Modifiers) {
		c.KeyReleased(k)
		c.setModifiers(m)
	})
	src.OnResize(c.Resize)
	src.OnFocus(func(focused bool) {
		if !focused {
			c.releaseAllKeys()
		}
	})
}
