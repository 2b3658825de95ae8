package camera

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Axes used to build the view rotation.
var (
	axisX   = Vec3{X: 1}
	axisY   = Vec3{Y: 1}
	axisZ   = Vec3{Z: 1}
	forward = Vec3{Z: 1}
)

// FirstPerson is a free-flying camera described by a position and three
// Euler angles in degrees.
//
// FirstPerson is safe for concurrent use. Mutators mark the camera dirty;
// Update writes the binding to the sink only when it is dirty.
type FirstPerson struct {
	mu       sync.Mutex
	position Vec3
	rotation Vec3
	width    int
	height   int

	sink   atomic.Pointer[sinkBox]
	dirty  atomic.Bool
	logger atomic.Pointer[slog.Logger]
}

// sinkBox lets an interface value live behind an atomic.Pointer.
type sinkBox struct {
	Sink
}

// NewFirstPerson creates a camera at the origin looking down +Z for a
// surface of the given size. The first Update always uploads.
func NewFirstPerson(width, height int) *FirstPerson {
	c := &FirstPerson{width: width, height: height}
	c.dirty.Store(true)
	return c
}

// SetSink sets the destination of Update. A nil sink disables uploads.
// The camera is marked dirty so the new sink receives the current state.
func (c *FirstPerson) SetSink(s Sink) {
	if s == nil {
		c.sink.Store(nil)
		return
	}
	c.sink.Store(&sinkBox{s})
	c.dirty.Store(true)
}

// SetLogger sets the logger used to report sink failures.
func (c *FirstPerson) SetLogger(l *slog.Logger) {
	c.logger.Store(l)
}

// Position returns the camera position.
func (c *FirstPerson) Position() Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// SetPosition moves the camera to p.
func (c *FirstPerson) SetPosition(p Vec3) {
	c.mu.Lock()
	c.position = p
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Translate moves the camera by d.
func (c *FirstPerson) Translate(d Vec3) {
	c.mu.Lock()
	c.position = c.position.Add(d)
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Rotation returns the Euler angles in degrees.
func (c *FirstPerson) Rotation() Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation
}

// SetRotation sets the Euler angles in degrees, expected within [0, 360).
func (c *FirstPerson) SetRotation(r Vec3) {
	c.mu.Lock()
	c.rotation = r
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Rotate adds r degrees to the Euler angles.
func (c *FirstPerson) Rotate(r Vec3) {
	c.mu.Lock()
	c.rotation = c.rotation.Add(r)
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Resize records a new surface size.
func (c *FirstPerson) Resize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Orientation returns the view rotation Rx * Ry * Rz.
func (c *FirstPerson) Orientation() Quat {
	r := c.Rotation()
	return QuatFromAxisAngle(axisX, r.X).
		Mul(QuatFromAxisAngle(axisY, r.Y)).
		Mul(QuatFromAxisAngle(axisZ, r.Z))
}

// Binding returns the shader-facing camera state.
func (c *FirstPerson) Binding() Binding {
	c.mu.Lock()
	pos := c.position
	w, h := c.width, c.height
	c.mu.Unlock()

	dir := c.Orientation().Rotate(forward)
	return Binding{
		Position:   pos.Extend(1),
		Direction:  dir.Extend(1),
		ScreenSize: [4]float32{screenScale(w), screenScale(h), 1, 1},
	}
}

// Update writes the binding to the sink if the camera changed since the
// last successful upload. A failed upload leaves the camera dirty.
func (c *FirstPerson) Update() {
	box := c.sink.Load()
	if box == nil || !c.dirty.Swap(false) {
		return
	}
	if err := box.WriteCamera(c.Binding()); err != nil {
		c.dirty.Store(true)
		if l := c.logger.Load(); l != nil {
			l.Warn("camera: upload failed", "err", err)
		}
	}
}

// NeedsUpdate reports whether the next Update will upload.
func (c *FirstPerson) NeedsUpdate() bool {
	return c.dirty.Load()
}
