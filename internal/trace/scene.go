package trace

import (
	"math"

	"github.com/gogpu/rayengine/camera"
)

// March limits, kept in step with main.wgsl.
const (
	maxSteps = 96
	maxDist  = 100.0
	hitEps   = 0.001
)

var (
	worldUp  = camera.V3(0, 1, 0)
	lightDir = camera.V3(0.6, 0.8, -0.4).Normalize()
)

// Sphere is a sphere primitive.
type Sphere struct {
	Center camera.Vec3
	Radius float32
}

// Scene is a set of spheres over an infinite ground plane.
type Scene struct {
	Spheres []Sphere
	Ground  float32
}

// DefaultScene returns the scene drawn by main.wgsl.
func DefaultScene() Scene {
	return Scene{
		Spheres: []Sphere{
			{Center: camera.V3(0, 0, 5), Radius: 1},
			{Center: camera.V3(2, -0.5, 6), Radius: 0.5},
		},
		Ground: -1,
	}
}

// Distance returns the signed distance from p to the nearest surface.
func (s *Scene) Distance(p camera.Vec3) float32 {
	d := p.Y - s.Ground
	for _, sp := range s.Spheres {
		d = min(d, p.Sub(sp.Center).Length()-sp.Radius)
	}
	return d
}

// normal estimates the surface normal at p by central differences.
func (s *Scene) normal(p camera.Vec3) camera.Vec3 {
	const e = 0.001
	dx := camera.V3(e, 0, 0)
	dy := camera.V3(0, e, 0)
	dz := camera.V3(0, 0, e)
	return camera.V3(
		s.Distance(p.Add(dx))-s.Distance(p.Sub(dx)),
		s.Distance(p.Add(dy))-s.Distance(p.Sub(dy)),
		s.Distance(p.Add(dz))-s.Distance(p.Sub(dz)),
	).Normalize()
}

// March follows the ray from ro along unit direction rd and returns the
// travelled distance and whether a surface was hit.
func (s *Scene) March(ro, rd camera.Vec3) (float32, bool) {
	var t float32
	for range maxSteps {
		d := s.Distance(ro.Add(rd.Mul(t)))
		if d < hitEps {
			return t, true
		}
		t += d
		if t > maxDist {
			break
		}
	}
	return t, false
}

// view is the per-frame camera basis.
type view struct {
	origin  camera.Vec3
	forward camera.Vec3
	right   camera.Vec3
	up      camera.Vec3
	scaleX  float32
	scaleY  float32
	aspect  float32
}

// newView derives the ray basis for a width x height frame from b.
func newView(b camera.Binding, width, height int) view {
	forward := b.Forward().Normalize()
	right := worldUp.Cross(forward)
	if right.Length() < 0.0001 {
		right = camera.V3(1, 0, 0)
	} else {
		right = right.Normalize()
	}
	v := view{
		origin:  b.Eye(),
		forward: forward,
		right:   right,
		up:      forward.Cross(right),
		scaleX:  2 / float32(width),
		scaleY:  2 / float32(height),
	}
	v.aspect = v.scaleY / v.scaleX
	return v
}

// ray returns the unit direction through the center of pixel (px, py).
func (v *view) ray(px, py int) camera.Vec3 {
	nx := (float32(px)+0.5)*v.scaleX - 1
	ny := (float32(py)+0.5)*v.scaleY - 1
	return v.forward.
		Add(v.right.Mul(nx * v.aspect)).
		Sub(v.up.Mul(ny)).
		Normalize()
}

// Shade returns the linear color seen along the ray, components in [0, 1].
func (s *Scene) Shade(ro, rd camera.Vec3) camera.Vec3 {
	t, hit := s.March(ro, rd)
	if !hit {
		k := clamp01(rd.Y*0.5 + 0.5)
		return mixVec(camera.V3(0.9, 0.95, 1), camera.V3(0.35, 0.55, 0.9), k)
	}

	n := s.normal(ro.Add(rd.Mul(t)))
	diffuse := max(n.Dot(lightDir), 0)
	fog := float32(math.Exp(float64(-0.02 * t)))
	shade := (0.15 + 0.85*diffuse) * fog
	return camera.V3(shade, shade*0.9, shade*0.8)
}

func clamp01(x float32) float32 {
	return min(max(x, 0), 1)
}

func mixVec(a, b camera.Vec3, k float32) camera.Vec3 {
	return a.Mul(1 - k).Add(b.Mul(k))
}
