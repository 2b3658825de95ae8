package camera

import (
	"encoding/binary"
	"math"
)

// BindingSize is the size in bytes of the camera uniform block:
// three vec4<f32> fields.
const BindingSize = 48

// Binding is the per-frame camera state uploaded to the shader.
// The field order and layout match the Camera uniform in main.wgsl.
type Binding struct {
	// Position is the eye position, w = 1.
	Position [4]float32

	// Direction is the unit view direction, w = 1.
	Direction [4]float32

	// ScreenSize holds (2/width, 2/height, 1, 1), or 0 for a zero dimension.
	ScreenSize [4]float32
}

// Bytes returns the little-endian std140 encoding of b.
func (b Binding) Bytes() []byte {
	buf := make([]byte, BindingSize)
	fields := [3][4]float32{b.Position, b.Direction, b.ScreenSize}
	off := 0
	for _, f := range fields {
		for _, c := range f {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(c))
			off += 4
		}
	}
	return buf
}

// Eye returns the position as a Vec3.
func (b Binding) Eye() Vec3 {
	return Vec3{X: b.Position[0], Y: b.Position[1], Z: b.Position[2]}
}

// Forward returns the view direction as a Vec3.
func (b Binding) Forward() Vec3 {
	return Vec3{X: b.Direction[0], Y: b.Direction[1], Z: b.Direction[2]}
}

// screenScale returns the ScreenSize component for one dimension.
func screenScale(n int) float32 {
	if n <= 0 {
		return 0
	}
	return 2 / float32(n)
}
