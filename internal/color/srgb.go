// Package color encodes linear shading values to 8-bit sRGB.
//
// The ray marcher shades in linear light. Frames are stored as sRGB bytes,
// so every pixel passes through the transfer function once. A 4096-entry
// table replaces the math.Pow call on that path.
package color

import "math"

// encodeLUTSize gives 12 bits of input precision, enough for 8-bit output.
const encodeLUTSize = 4096

var encodeLUT [encodeLUTSize]uint8

func init() {
	for i := range encodeLUT {
		encodeLUT[i] = EncodeExact(float32(i) / (encodeLUTSize - 1))
	}
}

// Encode converts a linear component to an sRGB byte. Input outside
// [0, 1] is clamped.
func Encode(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 255
	}
	return encodeLUT[int(l*(encodeLUTSize-1)+0.5)]
}

// EncodeExact is Encode without the table.
func EncodeExact(l float32) uint8 {
	x := min(max(float64(l), 0), 1)
	var s float64
	if x <= 0.0031308 {
		s = x * 12.92
	} else {
		s = 1.055*math.Pow(x, 1/2.4) - 0.055
	}
	//nolint:gosec // G115: s*255 is in [0,255]
	return uint8(min(max(s*255+0.5, 0), 255))
}

// Decode converts an sRGB byte back to linear light.
func Decode(s uint8) float32 {
	x := float64(s) / 255
	if x <= 0.04045 {
		return float32(x / 12.92)
	}
	return float32(math.Pow((x+0.055)/1.055, 2.4))
}
