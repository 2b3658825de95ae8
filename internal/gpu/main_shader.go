package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rayengine/camera"
)

// targetFormat is the color format of the offscreen render target.
const targetFormat = gputypes.TextureFormatBGRA8Unorm

// MainShaderOption configures a MainShader.
type MainShaderOption func(*mainShaderOptions)

type mainShaderOptions struct {
	spirv       bool
	presentMode gputypes.PresentMode
}

// WithSPIRV compiles main.wgsl to SPIR-V with naga before creating the
// shader module, instead of handing WGSL to the backend. Compilation errors
// surface from NewMainShader.
func WithSPIRV() MainShaderOption {
	return func(o *mainShaderOptions) {
		o.spirv = true
	}
}

// WithPresentMode sets the initial present mode.
func WithPresentMode(m gputypes.PresentMode) MainShaderOption {
	return func(o *mainShaderOptions) {
		o.presentMode = m
	}
}

// MainShader draws the ray-marched scene with one fullscreen render pass.
//
// WriteCamera may be called from a worker goroutine while the frame driver
// is idle; all methods serialize on an internal mutex.
type MainShader struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	// GPU objects, created in this order and destroyed in reverse.
	shader       hal.ShaderModule
	cameraBuf    hal.Buffer
	cameraLayout hal.BindGroupLayout
	cameraGroup  hal.BindGroup
	pipeLayout   hal.PipelineLayout
	pipeline     hal.RenderPipeline

	// Offscreen target, recreated on resize.
	target     hal.Texture
	targetView hal.TextureView

	// pending holds submitted command buffers until the GPU is done with them.
	pending []submission

	width, height uint32
	presentMode   gputypes.PresentMode
	frames        uint64
	destroyed     bool
}

type submission struct {
	index uint64
	cmd   hal.CommandBuffer
}

// NewMainShader creates the pipeline and a width x height render target.
func NewMainShader(dev *Device, width, height int, opts ...MainShaderOption) (*MainShader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	o := mainShaderOptions{presentMode: gputypes.PresentModeFifo}
	for _, opt := range opts {
		opt(&o)
	}

	s := &MainShader{
		device:      dev.HAL(),
		queue:       dev.Queue(),
		presentMode: o.presentMode,
	}
	if err := s.createPipeline(o.spirv); err != nil {
		s.destroyPipeline()
		return nil, err
	}
	if err := s.ensureTarget(uint32(width), uint32(height)); err != nil { //nolint:gosec // checked positive above
		s.destroyPipeline()
		return nil, err
	}

	slogger().Debug("gpu: main shader ready",
		"width", width, "height", height, "spirv", o.spirv)
	return s, nil
}

// createPipeline builds the shader module, camera uniform and render pipeline.
func (s *MainShader) createPipeline(spirv bool) error {
	source := hal.ShaderSource{WGSL: mainShaderSource}
	if spirv {
		words, err := CompileWGSL(mainShaderSource)
		if err != nil {
			return err
		}
		source = hal.ShaderSource{SPIRV: words}
	}

	shader, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "main_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("gpu: create shader module: %w", err)
	}
	s.shader = shader

	cameraBuf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "main_camera_uniform",
		Size:  camera.BindingSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create camera buffer: %w", err)
	}
	s.cameraBuf = cameraBuf

	cameraLayout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "main_camera_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create camera layout: %w", err)
	}
	s.cameraLayout = cameraLayout

	cameraGroup, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "main_camera_bind",
		Layout: s.cameraLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: s.cameraBuf.NativeHandle(), Offset: 0, Size: camera.BindingSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create camera bind group: %w", err)
	}
	s.cameraGroup = cameraGroup

	pipeLayout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "main_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.cameraLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout

	pipeline, err := s.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "main_pipeline",
		Layout: s.pipeLayout,
		Vertex: hal.VertexState{
			Module:     s.shader,
			EntryPoint: mainVertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     s.shader,
			EntryPoint: mainFragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create render pipeline: %w", err)
	}
	s.pipeline = pipeline

	return nil
}

// ensureTarget creates or recreates the offscreen target if the requested
// dimensions differ from the current size.
func (s *MainShader) ensureTarget(w, h uint32) error {
	if s.width == w && s.height == h && s.target != nil {
		return nil
	}
	s.destroyTarget()

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "main_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create target texture: %w", err)
	}
	s.target = tex

	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "main_target_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		s.destroyTarget()
		return fmt.Errorf("gpu: create target view: %w", err)
	}
	s.targetView = view

	s.width, s.height = w, h
	return nil
}

// WriteCamera uploads the camera binding to the uniform buffer.
func (s *MainShader) WriteCamera(b camera.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	if err := s.queue.WriteBuffer(s.cameraBuf, 0, b.Bytes()); err != nil {
		return fmt.Errorf("gpu: write camera: %w", err)
	}
	return nil
}

// Resize recreates the render target at the new size.
// Zero dimensions are ignored.
func (s *MainShader) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.waitPending()
	return s.ensureTarget(uint32(width), uint32(height)) //nolint:gosec // checked positive above
}

// SetPresentMode records the present mode for the surface that displays the
// target.
func (s *MainShader) SetPresentMode(m gputypes.PresentMode) {
	s.mu.Lock()
	s.presentMode = m
	s.mu.Unlock()
	slogger().Debug("gpu: present mode changed", "mode", m.String())
}

// PresentMode returns the current present mode.
func (s *MainShader) PresentMode() gputypes.PresentMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presentMode
}

// Size returns the current target dimensions.
func (s *MainShader) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.width), int(s.height)
}

// Frames returns the number of frames submitted so far.
func (s *MainShader) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Draw encodes one render pass of six vertices into the target and submits it.
func (s *MainShader) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.reclaim()

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "main_encoder",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("main_frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "main_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       s.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	rp.SetPipeline(s.pipeline)
	rp.SetBindGroup(0, s.cameraGroup, nil)
	rp.Draw(mainVertexCount, 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}

	index, err := s.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		s.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("gpu: submit: %w", err)
	}
	s.pending = append(s.pending, submission{index: index, cmd: cmd})
	s.frames++
	return nil
}

// reclaim frees command buffers the GPU has finished with.
// s.mu must be held.
func (s *MainShader) reclaim() {
	done := s.queue.PollCompleted()
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.index <= done {
			s.device.FreeCommandBuffer(p.cmd)
			continue
		}
		kept = append(kept, p)
	}
	clear(s.pending[len(kept):])
	s.pending = kept
}

// waitPending blocks until the GPU is idle and frees every pending command
// buffer. s.mu must be held.
func (s *MainShader) waitPending() {
	if len(s.pending) == 0 {
		return
	}
	if err := s.device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle failed", "err", err)
	}
	for _, p := range s.pending {
		s.device.FreeCommandBuffer(p.cmd)
	}
	clear(s.pending)
	s.pending = s.pending[:0]
}

// Destroy releases all GPU resources in reverse creation order.
// Safe to call multiple times.
func (s *MainShader) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.waitPending()
	s.destroyTarget()
	s.destroyPipeline()
}

// destroyTarget releases the offscreen target and resets dimensions.
func (s *MainShader) destroyTarget() {
	if s.targetView != nil {
		s.device.DestroyTextureView(s.targetView)
		s.targetView = nil
	}
	if s.target != nil {
		s.device.DestroyTexture(s.target)
		s.target = nil
	}
	s.width = 0
	s.height = 0
}

// destroyPipeline releases pipeline objects, newest first.
func (s *MainShader) destroyPipeline() {
	if s.pipeline != nil {
		s.device.DestroyRenderPipeline(s.pipeline)
		s.pipeline = nil
	}
	if s.pipeLayout != nil {
		s.device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.cameraGroup != nil {
		s.device.DestroyBindGroup(s.cameraGroup)
		s.cameraGroup = nil
	}
	if s.cameraLayout != nil {
		s.device.DestroyBindGroupLayout(s.cameraLayout)
		s.cameraLayout = nil
	}
	if s.cameraBuf != nil {
		s.device.DestroyBuffer(s.cameraBuf)
		s.cameraBuf = nil
	}
	if s.shader != nil {
		s.device.DestroyShaderModule(s.shader)
		s.shader = nil
	}
}
