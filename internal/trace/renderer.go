package trace

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rayengine/camera"
	srgb "github.com/gogpu/rayengine/internal/color"
	"github.com/gogpu/rayengine/internal/parallel"
)

// ErrInvalidSize is returned when a frame size is not positive.
var ErrInvalidSize = errors.New("trace: invalid frame size")

// Renderer ray-marches a Scene on a worker pool.
//
// Draw must be called from the frame driver, never from inside a pool job:
// it submits tile jobs and waits on the same pool.
type Renderer struct {
	pool  *parallel.Pool
	scene Scene

	mu          sync.Mutex
	grid        *parallel.TileGrid
	frame       *image.RGBA
	presentMode gputypes.PresentMode
	frames      uint64
	lastFrame   time.Duration

	binding atomic.Pointer[camera.Binding]
}

// NewRenderer creates a renderer for a width x height frame.
// The pool is borrowed, not owned: Destroy does not close it.
func NewRenderer(pool *parallel.Pool, scene Scene, width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	r := &Renderer{
		pool:        pool,
		scene:       scene,
		grid:        parallel.NewTileGrid(width, height),
		frame:       image.NewRGBA(image.Rect(0, 0, width, height)),
		presentMode: gputypes.PresentModeFifo,
	}
	b := camera.NewFirstPerson(width, height).Binding()
	r.binding.Store(&b)
	return r, nil
}

// WriteCamera records the binding used by the next Draw.
func (r *Renderer) WriteCamera(b camera.Binding) error {
	r.binding.Store(&b)
	return nil
}

// Resize reallocates the tiles and the frame. Zero dimensions are ignored.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grid.Resize(width, height)
	if r.frame.Rect.Dx() != width || r.frame.Rect.Dy() != height {
		r.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return nil
}

// SetPresentMode records the present mode. The CPU path has no surface, so
// it only affects what PresentMode reports.
func (r *Renderer) SetPresentMode(m gputypes.PresentMode) {
	r.mu.Lock()
	r.presentMode = m
	r.mu.Unlock()
}

// PresentMode returns the recorded present mode.
func (r *Renderer) PresentMode() gputypes.PresentMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presentMode
}

// Draw renders one frame: one job per tile, then a barrier.
func (r *Renderer) Draw() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	v := newView(*r.binding.Load(), r.grid.Width(), r.grid.Height())

	tiles := r.grid.AllTiles()
	jobs := make([]parallel.Job, len(tiles))
	for i, tile := range tiles {
		jobs[i] = parallel.Invoke(&tileJob{r: r, tile: tile, view: &v})
	}
	if err := r.pool.SubmitMany(jobs...); err != nil {
		return fmt.Errorf("trace: submit tiles: %w", err)
	}
	r.pool.Wait()

	r.frames++
	r.lastFrame = time.Since(start)
	slogger().Debug("trace: frame rendered",
		"tiles", len(tiles),
		"elapsed", r.lastFrame)
	return nil
}

// tileJob shades one tile and copies it into the frame.
type tileJob struct {
	r    *Renderer
	tile *parallel.Tile
	view *view
}

func (j *tileJob) Update() {
	x0, y0, w, h := j.tile.Bounds()
	for py := range h {
		for px := range w {
			rd := j.view.ray(x0+px, y0+py)
			j.tile.Set(px, py, toRGBA(j.r.scene.Shade(j.view.origin, rd)))
		}
	}
	j.r.grid.CompositeTile(j.tile, j.r.frame)
}

// toRGBA encodes a linear color as opaque sRGB.
func toRGBA(c camera.Vec3) color.RGBA {
	return color.RGBA{
		R: srgb.Encode(c.X),
		G: srgb.Encode(c.Y),
		B: srgb.Encode(c.Z),
		A: 255,
	}
}

// Frame returns a copy of the last rendered frame.
func (r *Renderer) Frame() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	dst := image.NewRGBA(r.frame.Rect)
	copy(dst.Pix, r.frame.Pix)
	return dst
}

// Frames returns the number of frames drawn.
func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// LastFrameTime returns the duration of the last Draw.
func (r *Renderer) LastFrameTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFrame
}

// Destroy releases the frame buffers. The pool stays open.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grid.Resize(0, 0)
	r.frame = image.NewRGBA(image.Rectangle{})
}
