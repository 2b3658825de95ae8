// Package gpu renders the ray-marched scene through the wgpu HAL.
//
// Device opens a HAL backend from the registry (or an explicit hal.Backend
// such as the noop backend in tests). MainShader owns the fullscreen
// ray-march pipeline: a camera uniform buffer, its bind group, the render
// pipeline built from the embedded main.wgsl, and an offscreen BGRA8 target
// sized to the surface.
package gpu
