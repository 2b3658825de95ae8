// Package rayengine is a small real-time ray-marching engine.
//
// Each frame the engine submits one update job per registered Script plus
// one job for the active camera to a fixed worker pool, waits for all of
// them, and only then asks the renderer to draw. Scripts therefore see a
// consistent frame boundary without any locking of their own beyond what
// their shared state needs.
//
// # Quick Start
//
//	e, err := rayengine.New(rayengine.WithSize(800, 600), rayengine.WithFrameLimit(600))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer e.Close()
//
//	c := e.Context()
//	c.AddScript(rayengine.ScriptFunc(func() {
//		if c.IsKeyPressed(gpucontext.KeyEscape) {
//			c.Close()
//		}
//	}))
//	if err := e.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// # Renderers
//
// By default frames are ray-marched on the CPU, tile by tile, on the same
// worker pool that runs the scripts. WithGPU draws through a wgpu HAL
// backend instead, and WithRenderer accepts any Renderer.
//
// # Logging
//
// rayengine produces no log output by default. Call SetLogger to enable it.
package rayengine
