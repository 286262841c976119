// Package cmdlist implements the command-list backend used for the D3D12
// and Vulkan slots.
//
// Both slots drive a github.com/gogpu/wgpu/hal device: every frame is
// recorded into a command encoder, submitted and waited on before End
// returns, so callers observe the same synchronous semantics as the
// immediate-context backends. The Vulkan slot feeds the device SPIR-V
// generated by naga, the D3D12 slot feeds WGSL.
package cmdlist

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/cache"
)

// Default offscreen target size used when the handle carries no target.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrNoHalDevice is returned when a provider does not expose hal objects.
var ErrNoHalDevice = errors.New("cmdlist: provider does not expose a hal device")

// Handle is the native handle accepted by Init.
//
// Target may be nil, in which case Init creates an offscreen render target
// of Width x Height (DefaultWidth x DefaultHeight when zero). An external
// target must be created with RenderAttachment and CopySrc usage.
type Handle struct {
	Device hal.Device
	Queue  hal.Queue
	Target hal.Texture
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
}

// halProvider is implemented by device providers that expose their hal
// device and queue.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// HandleFromProvider builds an offscreen Handle from a gpucontext provider.
// The provider must also implement HalDevice() any and HalQueue() any.
func HandleFromProvider(p gpucontext.DeviceProvider, width, height uint32) (Handle, error) {
	h, err := handleFromHal(p, width, height)
	if err != nil {
		return Handle{}, err
	}
	if f := p.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		h.Format = f
	}
	return h, nil
}

func handleFromHal(v any, width, height uint32) (Handle, error) {
	hp, ok := v.(halProvider)
	if !ok {
		return Handle{}, ErrNoHalDevice
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return Handle{}, fmt.Errorf("%w: HalDevice is %T", ErrNoHalDevice, hp.HalDevice())
	}
	q, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return Handle{}, fmt.Errorf("%w: HalQueue is %T", ErrNoHalDevice, hp.HalQueue())
	}
	return Handle{Device: dev, Queue: q, Width: width, Height: height}, nil
}

func handleOf(v any) (Handle, error) {
	switch h := v.(type) {
	case Handle:
		return h, nil
	case *Handle:
		if h == nil {
			return Handle{}, backend.ErrInvalidHandle
		}
		return *h, nil
	case halProvider:
		return handleFromHal(h, 0, 0)
	}
	return Handle{}, fmt.Errorf("%w: %T", backend.ErrInvalidHandle, v)
}

// textureResource is the backend.Resource stored in textures created here.
type textureResource struct {
	api      backend.API
	tex      hal.Texture
	view     hal.TextureView
	format   gputypes.TextureFormat
	rest     gputypes.TextureUsage // state between command lists
	external bool
	locked   bool
}

func (r *textureResource) API() backend.API { return r.api }

// Backend renders through a hal device.
type Backend struct {
	api backend.API

	device hal.Device
	queue  hal.Queue
	lost   bool

	target *textureResource
	width  uint32
	height uint32

	shader      hal.ShaderModule
	program     *shaderResource
	groupLayout hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipelines   *cache.Cache[pipelineKey, hal.RenderPipeline]

	vb, ib, ub hal.Buffer
	sampler    hal.Sampler
	white      *textureResource

	state     backend.RenderState
	viewport  backend.Viewport
	tex, mask *textureResource
	swap      bool
	warned    bool
}

// New returns an uninitialized backend serving api.
func New(api backend.API) *Backend {
	return &Backend{api: api, state: backend.DefaultRenderState(), viewport: backend.DefaultViewport()}
}

// API implements backend.Backend.
func (b *Backend) API() backend.API { return b.api }

// IsActive implements backend.Backend.
func (b *Backend) IsActive() bool { return b.device != nil && !b.lost }

// Init implements backend.Backend.
func (b *Backend) Init(handle any) error {
	if b.device != nil {
		return nil
	}
	h, err := handleOf(handle)
	if err != nil {
		return backend.InitError(b.api, backend.StageDevice, err)
	}
	if h.Device == nil || h.Queue == nil {
		return backend.InitError(b.api, backend.StageDevice, fmt.Errorf("%w: nil device or queue", backend.ErrInvalidHandle))
	}
	b.device, b.queue = h.Device, h.Queue
	b.lost = false
	if err := b.create(&h); err != nil {
		b.Shutdown()
		return err
	}
	backend.Logger().Debug("cmdlist: backend initialized",
		"api", b.api, "width", b.width, "height", b.height, "format", b.target.format)
	return nil
}

func (b *Backend) create(h *Handle) error {
	if err := b.createTarget(h); err != nil {
		return backend.InitError(b.api, backend.StageDevice, err)
	}
	if err := b.createShader(); err != nil {
		return backend.InitError(b.api, backend.StageShader, err)
	}
	if err := b.createLayouts(); err != nil {
		return backend.InitError(b.api, backend.StageLayout, err)
	}
	if err := b.createBuffers(); err != nil {
		return backend.InitError(b.api, backend.StageBuffers, err)
	}
	if err := b.createSampler(); err != nil {
		return backend.InitError(b.api, backend.StageSampler, err)
	}
	b.pipelines = cache.New(maxPipelines, func(_ pipelineKey, p hal.RenderPipeline) {
		b.device.DestroyRenderPipeline(p)
	})
	b.state = backend.DefaultRenderState()
	if _, err := b.pipeline(backend.TopologyTriangle); err != nil {
		return backend.InitError(b.api, backend.StagePipeline, err)
	}
	return nil
}

func (b *Backend) createTarget(h *Handle) error {
	format := h.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	w, ht := h.Width, h.Height
	if w == 0 || ht == 0 {
		w, ht = DefaultWidth, DefaultHeight
	}
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc
	if h.Target != nil {
		view, err := b.device.CreateTextureView(h.Target, &hal.TextureViewDescriptor{
			Label:     "imdraw_target_view",
			Dimension: gputypes.TextureViewDimension2D,
			Aspect:    gputypes.TextureAspectAll,
		})
		if err != nil {
			return fmt.Errorf("target view: %w", err)
		}
		b.target = &textureResource{api: b.api, tex: h.Target, view: view, format: format,
			rest: gputypes.TextureUsageRenderAttachment, external: true}
	} else {
		r, err := b.newTexture("imdraw_target", w, ht, format,
			usage|gputypes.TextureUsageCopyDst|gputypes.TextureUsageTextureBinding)
		if err != nil {
			return fmt.Errorf("offscreen target: %w", err)
		}
		r.rest = gputypes.TextureUsageRenderAttachment
		b.target = r
	}
	b.width, b.height = w, ht
	return nil
}

func (b *Backend) createBuffers() error {
	var err error
	if b.vb, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imdraw_vertices",
		Size:  backend.MaxVertices * backend.VertexStride,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	}); err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	if b.ib, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imdraw_indices",
		Size:  align4(backend.MaxIndices * 2),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	}); err != nil {
		return fmt.Errorf("index buffer: %w", err)
	}
	if b.ub, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imdraw_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	}); err != nil {
		return fmt.Errorf("uniform buffer: %w", err)
	}
	if b.white, err = b.newTexture("imdraw_white", 1, 1, gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst); err != nil {
		return fmt.Errorf("fallback texture: %w", err)
	}
	return b.writeTexture(b.white.tex, 1, 1, []byte{0xFF, 0xFF, 0xFF, 0xFF})
}

func (b *Backend) createSampler() error {
	s, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "imdraw_sampler",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return err
	}
	b.sampler = s
	return nil
}

// Shutdown implements backend.Backend.
func (b *Backend) Shutdown() {
	if b.device == nil {
		return
	}
	d := b.device
	if err := d.WaitIdle(); err != nil {
		backend.Logger().Warn("cmdlist: wait idle on shutdown", "api", b.api, "err", err)
	}
	if b.pipelines != nil {
		b.pipelines.Clear()
		b.pipelines = nil
	}
	if b.pipeLayout != nil {
		d.DestroyPipelineLayout(b.pipeLayout)
	}
	if b.groupLayout != nil {
		d.DestroyBindGroupLayout(b.groupLayout)
	}
	if b.shader != nil {
		d.DestroyShaderModule(b.shader)
	}
	if b.sampler != nil {
		d.DestroySampler(b.sampler)
	}
	for _, buf := range []hal.Buffer{b.vb, b.ib, b.ub} {
		if buf != nil {
			d.DestroyBuffer(buf)
		}
	}
	b.destroyTexture(b.white)
	b.destroyTexture(b.target)
	b.pipeLayout, b.groupLayout, b.shader, b.sampler = nil, nil, nil, nil
	b.program = nil
	b.vb, b.ib, b.ub = nil, nil, nil
	b.white, b.target, b.tex, b.mask = nil, nil, nil, nil
	b.device, b.queue = nil, nil
	backend.Logger().Debug("cmdlist: backend shut down", "api", b.api)
}

// markLost records a device loss so IsActive reports false.
func (b *Backend) markLost(err error) {
	if errors.Is(err, hal.ErrDeviceLost) && !b.lost {
		b.lost = true
		backend.Logger().Warn("cmdlist: device lost", "api", b.api, "err", err)
	}
}

// Begin implements backend.Backend. Command lists carry no ambient state,
// so there is nothing to snapshot.
func (b *Backend) Begin() {}

// SetVertex implements backend.Backend. Vertices are uploaded from the
// frame geometry in End.
func (b *Backend) SetVertex(backend.Vertex) {}

// SetRenderStates implements backend.Backend. The pipeline for the state
// is resolved lazily in End, once the topology is known.
func (b *Backend) SetRenderStates(rs *backend.RenderState) error {
	if b.device == nil {
		return backend.ErrNotInitialized
	}
	if rs.FillMode == backend.FillWireframe && !b.warned {
		backend.Logger().Warn("cmdlist: wireframe fill is not supported, drawing solid", "api", b.api)
		b.warned = true
	}
	b.state = *rs
	return nil
}

// SetViewport implements backend.Backend.
func (b *Backend) SetViewport(vp backend.Viewport) { b.viewport = vp }

// SetTexture implements backend.Backend. Foreign textures bind as nil.
func (b *Backend) SetTexture(tex, mask *backend.Texture) {
	b.tex, b.mask, b.swap = nil, nil, false
	if r, ok := backend.ResourceOf[*textureResource](tex, b.api); ok && r.view != nil {
		b.tex = r
		b.swap = tex.SwapColors
	} else if tex != nil {
		backend.Logger().Warn("cmdlist: texture not bindable", "api", b.api, "texture_api", tex.API())
	}
	if r, ok := backend.ResourceOf[*textureResource](mask, b.api); ok && r.view != nil {
		b.mask = r
	} else if mask != nil {
		backend.Logger().Warn("cmdlist: mask not bindable", "api", b.api, "texture_api", mask.API())
	}
}

func align4(n uint64) uint64 { return (n + 3) &^ 3 }

func init() {
	backend.Register(backend.APID3D12, func() backend.Backend { return New(backend.APID3D12) })
	backend.Register(backend.APIVulkan, func() backend.Backend { return New(backend.APIVulkan) })
}

var (
	_ backend.Backend      = (*Backend)(nil)
	_ backend.TextureOwner = (*Backend)(nil)
	_ backend.ShaderOwner  = (*Backend)(nil)
)
