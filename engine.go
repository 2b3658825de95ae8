package rayengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/rayengine/camera"
	"github.com/gogpu/rayengine/internal/gpu"
	"github.com/gogpu/rayengine/internal/parallel"
	"github.com/gogpu/rayengine/internal/trace"
)

// ErrSnapshotUnsupported is returned by Snapshot when the renderer cannot
// produce an image.
var ErrSnapshotUnsupported = errors.New("rayengine: renderer does not support snapshots")

// FrameInfo describes a finished frame.
type FrameInfo struct {
	// Index is the 1-based frame number.
	Index uint64

	// Elapsed is the time spent in updates and drawing.
	Elapsed time.Duration
}

// FrameHook is called after every drawn frame.
type FrameHook func(FrameInfo)

// Stats is a snapshot of engine counters.
type Stats struct {
	Frames    uint64
	Total     time.Duration
	Last      time.Duration
	Workers   int
	Scripts   int
	JobsRun   uint64
	JobPanics uint64
}

// Average returns the mean frame time, or 0 before the first frame.
func (s Stats) Average() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

// Engine drives frames: script and camera updates on the worker pool, a
// barrier, then one draw.
type Engine struct {
	ctx      *Context
	pool     *parallel.Pool
	renderer Renderer
	device   *gpu.Device

	frameRate  int
	frameLimit uint64
	hooks      []FrameHook

	// cameraJob updates whichever camera is active when it runs.
	cameraJob parallel.Job

	// mu serializes Frame and Close.
	mu     sync.Mutex
	closed atomic.Bool

	frames    atomic.Uint64
	total     atomic.Int64
	lastFrame atomic.Int64
}

// New creates an engine, its worker pool and its renderer.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.width, o.height)
	}
	if o.frameRate < 0 {
		return nil, fmt.Errorf("%w: frame rate %d", ErrInvalidOption, o.frameRate)
	}

	var poolOpts []parallel.PoolOption
	if o.onPanic != nil {
		onPanic := o.onPanic
		poolOpts = append(poolOpts, parallel.WithPanicHandler(func(e *parallel.JobPanicError) {
			onPanic(e.Worker, e.Value)
		}))
	}
	pool := parallel.NewPool(o.workers, poolOpts...)

	e := &Engine{
		ctx:        newContext(o.width, o.height, o.vsync),
		pool:       pool,
		frameRate:  o.frameRate,
		frameLimit: o.frameLimit,
		hooks:      o.hooks,
	}
	e.cameraJob = parallel.Invoke(parallel.TargetFunc(e.updateCamera))

	if err := e.initRenderer(&o); err != nil {
		_ = pool.Close()
		return nil, err
	}
	e.ctx.renderer = e.renderer

	cam := o.camera
	if cam == nil {
		fp := camera.NewFirstPerson(o.width, o.height)
		fp.SetLogger(Logger())
		cam = fp
	}
	e.ctx.SetCamera(cam)

	if o.events != nil {
		e.ctx.BindEvents(o.events)
	}

	slogger().Info("rayengine: engine started",
		"workers", pool.Workers(),
		"width", o.width,
		"height", o.height,
		"vsync", o.vsync)
	return e, nil
}

// initRenderer picks the injected, GPU or CPU renderer.
func (e *Engine) initRenderer(o *options) error {
	mode := presentModeFor(o.vsync)

	switch {
	case o.renderer != nil:
		e.renderer = o.renderer
		e.renderer.SetPresentMode(mode)

	case o.gpu:
		dev, err := gpu.OpenVariant(o.gpuBackend)
		if err != nil {
			return fmt.Errorf("rayengine: open GPU: %w", err)
		}
		shaderOpts := []gpu.MainShaderOption{gpu.WithPresentMode(mode)}
		if o.gpuSPIRV {
			shaderOpts = append(shaderOpts, gpu.WithSPIRV())
		}
		s, err := gpu.NewMainShader(dev, o.width, o.height, shaderOpts...)
		if err != nil {
			dev.Close()
			return fmt.Errorf("rayengine: create main shader: %w", err)
		}
		e.device = dev
		e.renderer = s

	default:
		r, err := trace.NewRenderer(e.pool, trace.DefaultScene(), o.width, o.height)
		if err != nil {
			return fmt.Errorf("rayengine: create CPU renderer: %w", err)
		}
		r.SetPresentMode(mode)
		e.renderer = r
	}
	return nil
}

// updateCamera is the per-frame camera job.
func (e *Engine) updateCamera() {
	if cam := e.ctx.Camera(); cam != nil {
		cam.Update()
	}
}

// Context returns the state shared with scripts.
func (e *Engine) Context() *Context {
	return e.ctx
}

// Renderer returns the active renderer.
func (e *Engine) Renderer() Renderer {
	return e.renderer
}

// Workers returns the number of pool workers.
func (e *Engine) Workers() int {
	return e.pool.Workers()
}

// Frame runs one frame: one update job per script and one for the camera
// in a single submission, a barrier, then Draw.
func (e *Engine) Frame() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return ErrEngineClosed
	}

	start := time.Now()

	scripts := e.ctx.Scripts()
	jobs := make([]parallel.Job, 0, len(scripts)+1)
	for _, s := range scripts {
		jobs = append(jobs, parallel.Invoke(s))
	}
	jobs = append(jobs, e.cameraJob)

	if err := e.pool.SubmitMany(jobs...); err != nil {
		return fmt.Errorf("rayengine: submit updates: %w", err)
	}
	e.pool.Wait()

	if err := e.renderer.Draw(); err != nil {
		return fmt.Errorf("rayengine: draw: %w", err)
	}

	elapsed := time.Since(start)
	n := e.frames.Add(1)
	e.total.Add(int64(elapsed))
	e.lastFrame.Store(int64(elapsed))

	info := FrameInfo{Index: n, Elapsed: elapsed}
	for _, h := range e.hooks {
		h(info)
	}
	return nil
}

// Run draws frames until ctx ends, a script calls Context.Close, or the
// frame limit is reached. It returns nil on close request or frame limit
// and ctx.Err() when the context ends first.
func (e *Engine) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if e.frameRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(e.frameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.ctx.CloseRequested() {
			slogger().Info("rayengine: close requested", "frames", e.frames.Load())
			return nil
		}
		if e.frameLimit > 0 && e.frames.Load() >= e.frameLimit {
			return nil
		}

		if err := e.Frame(); err != nil {
			return err
		}

		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:    e.frames.Load(),
		Total:     time.Duration(e.total.Load()),
		Last:      time.Duration(e.lastFrame.Load()),
		Workers:   e.pool.Workers(),
		Scripts:   len(e.ctx.Scripts()),
		JobsRun:   e.pool.Executed(),
		JobPanics: e.pool.Panics(),
	}
}

// snapshotter is implemented by renderers that can write their last frame.
type snapshotter interface {
	Snapshot(path, hud string) error
}

// Snapshot writes the last drawn frame to path as PNG with a status line.
func (e *Engine) Snapshot(path string) error {
	s, ok := e.renderer.(snapshotter)
	if !ok {
		return ErrSnapshotUnsupported
	}
	stats := e.Stats()
	w, h := e.ctx.Size()
	hud := trace.HUD{
		Frames:    stats.Frames,
		FrameTime: stats.Last,
		Workers:   stats.Workers,
		Width:     w,
		Height:    h,
	}
	return s.Snapshot(path, hud.String())
}

// Close stops the worker pool, then destroys the renderer and releases the
// GPU device. Calling Close again is a no-op.
//
// Close waits for a running Frame, so scripts must use Context.Close
// instead of calling it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Swap(true) {
		return nil
	}

	if err := e.pool.Close(); err != nil {
		return fmt.Errorf("rayengine: close: %w", err)
	}

	e.renderer.Destroy()
	if e.device != nil {
		e.device.Close()
	}

	slogger().Info("rayengine: engine stopped",
		"frames", e.frames.Load(),
		"jobs", e.pool.Executed(),
		"panics", e.pool.Panics())
	return nil
}
