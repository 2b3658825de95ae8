package camera

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
)

const eps = 1e-5

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < eps
}

func approxVec(a, b Vec3) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y) && approx(a.Z, b.Z)
}

// recordingSink stores every binding it receives.
type recordingSink struct {
	mu       sync.Mutex
	bindings []Binding
	err      error
}

func (s *recordingSink) WriteCamera(b Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.bindings = append(s.bindings, b)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}

// =============================================================================
// Vector and Quaternion Tests
// =============================================================================

func TestVec3_Ops(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 5, 6)

	if got := a.Add(b); got != V3(5, 7, 9) {
		t.Errorf("Add = %v", got)
	}
	if got := b.Sub(a); got != V3(3, 3, 3) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := V3(1, 0, 0).Cross(V3(0, 1, 0)); got != V3(0, 0, 1) {
		t.Errorf("Cross = %v, want (0,0,1)", got)
	}
	if got := V3(3, 0, 4).Length(); got != 5 {
		t.Errorf("Length = %v, want 5", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize(zero) = %v, want zero", got)
	}
}

func TestQuat_Rotate(t *testing.T) {
	tests := []struct {
		name string
		q    Quat
		v    Vec3
		want Vec3
	}{
		{"identity", QuatIdentity(), V3(1, 2, 3), V3(1, 2, 3)},
		{"y90", QuatFromAxisAngle(axisY, 90), V3(0, 0, 1), V3(1, 0, 0)},
		{"x90", QuatFromAxisAngle(axisX, 90), V3(0, 0, 1), V3(0, -1, 0)},
		{"z180", QuatFromAxisAngle(axisZ, 180), V3(1, 0, 0), V3(-1, 0, 0)},
		{"full turn", QuatFromAxisAngle(axisY, 360), V3(0, 0, 1), V3(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Rotate(tt.v); !approxVec(got, tt.want) {
				t.Errorf("Rotate(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestQuat_MulComposes(t *testing.T) {
	q := QuatFromAxisAngle(axisY, 45).Mul(QuatFromAxisAngle(axisY, 45))
	if got := q.Rotate(forward); !approxVec(got, V3(1, 0, 0)) {
		t.Errorf("two 45 degree turns = %v, want (1,0,0)", got)
	}
}

// =============================================================================
// Binding Tests
// =============================================================================

func TestBinding_Bytes(t *testing.T) {
	b := Binding{
		Position:   [4]float32{1, 2, 3, 1},
		Direction:  [4]float32{0, 0, 1, 1},
		ScreenSize: [4]float32{0.5, 0.25, 1, 1},
	}
	data := b.Bytes()
	if len(data) != BindingSize {
		t.Fatalf("len = %d, want %d", len(data), BindingSize)
	}

	at := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	want := []float32{1, 2, 3, 1, 0, 0, 1, 1, 0.5, 0.25, 1, 1}
	for i, w := range want {
		if at(i) != w {
			t.Errorf("float %d = %v, want %v", i, at(i), w)
		}
	}
}

// =============================================================================
// FirstPerson Tests
// =============================================================================

func TestFirstPerson_Binding(t *testing.T) {
	c := NewFirstPerson(800, 400)
	c.SetPosition(V3(1, 2, 3))

	b := c.Binding()
	if b.Position != [4]float32{1, 2, 3, 1} {
		t.Errorf("Position = %v", b.Position)
	}
	if !approxVec(b.Forward(), forward) || b.Direction[3] != 1 {
		t.Errorf("Direction = %v, want (0,0,1,1)", b.Direction)
	}
	if b.ScreenSize != [4]float32{2.0 / 800, 2.0 / 400, 1, 1} {
		t.Errorf("ScreenSize = %v", b.ScreenSize)
	}

	c.Resize(0, 100)
	if b := c.Binding(); b.ScreenSize[0] != 0 || b.ScreenSize[1] != 0.02 {
		t.Errorf("ScreenSize with zero width = %v", b.ScreenSize)
	}
}

func TestFirstPerson_Rotation(t *testing.T) {
	c := NewFirstPerson(10, 10)
	c.SetRotation(V3(0, 90, 0))
	if got := c.Binding().Forward(); !approxVec(got, V3(1, 0, 0)) {
		t.Errorf("yaw 90 forward = %v, want (1,0,0)", got)
	}

	c.Rotate(V3(0, 90, 0))
	if c.Rotation() != V3(0, 180, 0) {
		t.Errorf("Rotation = %v, want (0,180,0)", c.Rotation())
	}
	if got := c.Binding().Forward(); !approxVec(got, V3(0, 0, -1)) {
		t.Errorf("yaw 180 forward = %v, want (0,0,-1)", got)
	}
}

func TestFirstPerson_Translate(t *testing.T) {
	c := NewFirstPerson(10, 10)
	c.Translate(V3(1, 0, 0))
	c.Translate(V3(0, 2, 0))
	if c.Position() != V3(1, 2, 0) {
		t.Errorf("Position = %v, want (1,2,0)", c.Position())
	}
}

func TestFirstPerson_UpdateOnlyWhenDirty(t *testing.T) {
	sink := &recordingSink{}
	c := NewFirstPerson(10, 10)

	// No sink: nothing happens and the camera stays dirty.
	c.Update()
	if !c.NeedsUpdate() {
		t.Error("camera without sink should stay dirty")
	}

	c.SetSink(sink)
	c.Update()
	c.Update()
	if sink.count() != 1 {
		t.Fatalf("uploads = %d, want 1", sink.count())
	}

	c.Translate(V3(0, 0, 1))
	c.Update()
	if sink.count() != 2 {
		t.Errorf("uploads after Translate = %d, want 2", sink.count())
	}
	if got := sink.bindings[1].Position; got != [4]float32{0, 0, 1, 1} {
		t.Errorf("uploaded position = %v", got)
	}
}

func TestFirstPerson_UpdateFailureKeepsDirty(t *testing.T) {
	sink := &recordingSink{err: errors.New("device lost")}
	c := NewFirstPerson(10, 10)
	c.SetSink(sink)

	c.Update()
	if !c.NeedsUpdate() {
		t.Error("failed upload should leave the camera dirty")
	}

	sink.err = nil
	c.Update()
	if sink.count() != 1 || c.NeedsUpdate() {
		t.Errorf("uploads = %d, dirty = %v; want 1, false", sink.count(), c.NeedsUpdate())
	}
}

func TestFirstPerson_Concurrent(t *testing.T) {
	c := NewFirstPerson(100, 100)
	c.SetSink(SinkFunc(func(Binding) error { return nil }))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Translate(V3(1, 0, 0))
				c.Update()
			}
		}()
	}
	wg.Wait()

	if c.Position().X != 800 {
		t.Errorf("Position.X = %v, want 800", c.Position().X)
	}
}
