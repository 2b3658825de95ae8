package rayengine

// Script is per-frame user logic. Update runs once per frame on a pool
// worker, concurrently with the other scripts and the camera update, and
// always before the frame is drawn.
type Script interface {
	Update()
}

// ScriptFunc adapts an ordinary function to the Script interface.
type ScriptFunc func()

// Update calls f.
func (f ScriptFunc) Update() { f() }

// registeredScript is the handle returned by Context.AddScript. Handles are
// pointers, so removal compares identities even for non-comparable scripts.
type registeredScript struct {
	Script
}
