package dx

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/cache"
	"github.com/gogpu/imdraw/internal/d3dcompile"
)

// maxStateObjects bounds each state object cache.
const maxStateObjects = 32

//go:embed shaders/imdraw.hlsl
var shaderSource []byte

// ShaderSource returns the built-in HLSL program.
func ShaderSource() []byte { return shaderSource }

// Device is the native device a backend draws with.
type Device struct {
	Creator Creator
	Context Context

	// BackBuffer returns a new reference to swap chain buffer i.
	// Nil when the host renders without a swap chain.
	BackBuffer func(i int) (Texture2D, error)

	// Release drops the references taken when the device was acquired. May be nil.
	Release func()
}

// Acquirer extracts a Device from the handle passed to Backend.Init.
type Acquirer func(handle any) (*Device, error)

// Config parameterizes a Backend for one Direct3D version.
type Config struct {
	API         backend.API
	ShaderModel string // "4_0", "5_0"
	Compile     d3dcompile.Func
	Acquire     Acquirer
}

// TextureResource is the native state behind a Direct3D 10/11 texture handle.
type TextureResource struct {
	api     backend.API
	Tex     Texture2D
	View    ShaderResourceView // nil for back buffers
	staging Texture2D
}

// API implements backend.Resource.
func (r *TextureResource) API() backend.API { return r.api }

func (r *TextureResource) release() {
	if r.staging != nil {
		r.staging.Release()
		r.staging = nil
	}
	if r.View != nil {
		r.View.Release()
		r.View = nil
	}
	if r.Tex != nil {
		r.Tex.Release()
		r.Tex = nil
	}
}

// ShaderResource is the native program behind a caller shader. The input
// layout is validated against its own vertex shader signature.
type ShaderResource struct {
	api    backend.API
	VS     VertexShader
	PS     PixelShader
	Layout InputLayout
}

// API implements backend.Resource.
func (r *ShaderResource) API() backend.API { return r.api }

func (r *ShaderResource) release() {
	for _, o := range []Object{r.VS, r.PS, r.Layout} {
		if o != nil {
			o.Release()
		}
	}
	r.VS, r.PS, r.Layout = nil, nil, nil
}

type savedState struct {
	valid      bool
	raster     RasterizerState
	blend      BlendState
	factor     [4]float32
	sampleMask uint32
	depth      DepthStencilState
	stencilRef uint32
	target     RenderTargetView
}

// Backend implements backend.Backend on top of a Direct3D 10 or 11 device.
type Backend struct {
	cfg Config
	dev *Device

	vb, ib, cb Buffer
	vs         VertexShader
	ps         PixelShader
	layout     InputLayout
	sampler    SamplerState

	blends  *cache.Cache[BlendDesc, BlendState]
	rasters *cache.Cache[RasterizerDesc, RasterizerState]
	depths  *cache.Cache[DepthStencilDesc, DepthStencilState]

	blend      BlendState
	raster     RasterizerState
	depth      DepthStencilState
	sampleMask uint32

	saved     savedState
	tex, mask ShaderResourceView
	swap      bool
	program   *ShaderResource // caller program; nil draws with vs and ps
}

// NewBackend returns an uninitialized backend.
func NewBackend(cfg Config) *Backend {
	if cfg.Compile == nil {
		cfg.Compile = d3dcompile.Compile
	}
	return &Backend{cfg: cfg}
}

// API implements backend.Backend.
func (b *Backend) API() backend.API { return b.cfg.API }

// IsActive implements backend.Backend.
func (b *Backend) IsActive() bool {
	return b.dev != nil && b.dev.Creator.GetDeviceRemovedReason() == nil
}

// Init implements backend.Backend.
func (b *Backend) Init(handle any) error {
	if b.dev != nil {
		return nil
	}
	if b.cfg.Acquire == nil {
		return backend.InitError(b.cfg.API, backend.StageDevice, backend.ErrInvalidHandle)
	}
	dev, err := b.cfg.Acquire(handle)
	if err != nil {
		return backend.InitError(b.cfg.API, backend.StageDevice, err)
	}
	if err := b.create(dev); err != nil {
		b.releaseObjects()
		if dev.Release != nil {
			dev.Release()
		}
		return err
	}
	b.dev = dev
	b.sampleMask = 0xFFFFFFFF
	rs := backend.DefaultRenderState()
	if err := b.SetRenderStates(&rs); err != nil {
		b.Shutdown()
		return backend.InitError(b.cfg.API, backend.StagePipeline, err)
	}
	backend.Logger().Debug("dx: backend initialized", "api", b.cfg.API, "model", b.cfg.ShaderModel)
	return nil
}

func (b *Backend) create(dev *Device) error {
	api := b.cfg.API
	c := dev.Creator
	var err error

	if b.vb, err = c.CreateBuffer(&BufferDesc{
		ByteWidth:      backend.MaxVertices * backend.VertexStride,
		Usage:          UsageDynamic,
		BindFlags:      BindVertexBuffer,
		CPUAccessFlags: CPUAccessWrite,
	}, nil); err != nil {
		return backend.InitError(api, backend.StageBuffers, fmt.Errorf("vertex buffer: %w", err))
	}
	if b.ib, err = c.CreateBuffer(&BufferDesc{
		ByteWidth:      backend.MaxIndices * 2,
		Usage:          UsageDynamic,
		BindFlags:      BindIndexBuffer,
		CPUAccessFlags: CPUAccessWrite,
	}, nil); err != nil {
		return backend.InitError(api, backend.StageBuffers, fmt.Errorf("index buffer: %w", err))
	}
	if b.cb, err = c.CreateBuffer(&BufferDesc{
		ByteWidth:      ConstantsSize,
		Usage:          UsageDynamic,
		BindFlags:      BindConstantBuffer,
		CPUAccessFlags: CPUAccessWrite,
	}, nil); err != nil {
		return backend.InitError(api, backend.StageBuffers, fmt.Errorf("constant buffer: %w", err))
	}

	prog, err := d3dcompile.CompileProgram(b.cfg.Compile, shaderSource, b.cfg.ShaderModel)
	if err != nil {
		return backend.InitError(api, backend.StageShader, err)
	}
	if b.vs, err = c.CreateVertexShader(prog.VS); err != nil {
		return backend.InitError(api, backend.StageShader, err)
	}
	if b.ps, err = c.CreatePixelShader(prog.PS); err != nil {
		return backend.InitError(api, backend.StageShader, err)
	}
	if b.layout, err = c.CreateInputLayout(InputElements(), prog.VS); err != nil {
		return backend.InitError(api, backend.StageLayout, err)
	}
	sd := LinearWrapSampler()
	if b.sampler, err = c.CreateSamplerState(&sd); err != nil {
		return backend.InitError(api, backend.StageSampler, err)
	}
	b.blends = cache.New(maxStateObjects, func(_ BlendDesc, s BlendState) { s.Release() })
	b.rasters = cache.New(maxStateObjects, func(_ RasterizerDesc, s RasterizerState) { s.Release() })
	b.depths = cache.New(maxStateObjects, func(_ DepthStencilDesc, s DepthStencilState) { s.Release() })
	return nil
}

// Shutdown implements backend.Backend.
func (b *Backend) Shutdown() {
	if b.dev == nil {
		return
	}
	b.releaseSaved()
	b.releaseObjects()
	if b.dev.Release != nil {
		b.dev.Release()
	}
	b.dev = nil
	b.tex, b.mask = nil, nil
	b.program = nil
	backend.Logger().Debug("dx: backend shut down", "api", b.cfg.API)
}

func (b *Backend) releaseObjects() {
	for _, o := range []Object{b.vb, b.ib, b.cb, b.vs, b.ps, b.layout, b.sampler} {
		if o != nil {
			o.Release()
		}
	}
	b.vb, b.ib, b.cb, b.vs, b.ps, b.layout, b.sampler = nil, nil, nil, nil, nil, nil, nil
	if b.blends != nil {
		b.blends.Clear()
		b.rasters.Clear()
		b.depths.Clear()
	}
	b.blends, b.rasters, b.depths = nil, nil, nil
	b.blend, b.raster, b.depth = nil, nil, nil
}

// Begin implements backend.Backend.
func (b *Backend) Begin() {
	if b.dev == nil {
		return
	}
	b.releaseSaved()
	ctx := b.dev.Context
	s := &b.saved
	s.raster = ctx.RSGetState()
	s.blend, s.factor, s.sampleMask = ctx.OMGetBlendState()
	s.depth, s.stencilRef = ctx.OMGetDepthStencilState()
	s.target = ctx.OMGetRenderTarget()
	s.valid = true
}

func (b *Backend) restore() {
	if !b.saved.valid {
		return
	}
	ctx := b.dev.Context
	s := &b.saved
	ctx.RSSetState(s.raster)
	ctx.OMSetBlendState(s.blend, s.factor, s.sampleMask)
	ctx.OMSetDepthStencilState(s.depth, s.stencilRef)
	ctx.OMSetRenderTarget(s.target)
	b.releaseSaved()
}

func (b *Backend) releaseSaved() {
	s := &b.saved
	for _, o := range []Object{s.raster, s.blend, s.depth, s.target} {
		if o != nil {
			o.Release()
		}
	}
	*s = savedState{}
}

// SetVertex implements backend.Backend. Vertices are uploaded in End.
func (b *Backend) SetVertex(backend.Vertex) {}

// SetRenderStates implements backend.Backend. State objects are cached per
// description; the least recently used ones are released once a cache
// holds maxStateObjects entries.
func (b *Backend) SetRenderStates(rs *backend.RenderState) error {
	if b.dev == nil {
		return backend.ErrNotInitialized
	}
	c := b.dev.Creator

	bd := BlendDescFor(rs)
	bs, err := b.blends.GetOrCreate(bd, func() (BlendState, error) { return c.CreateBlendState(&bd) })
	if err != nil {
		return fmt.Errorf("dx: blend state: %w", err)
	}
	rd := RasterizerDescFor(rs)
	rss, err := b.rasters.GetOrCreate(rd, func() (RasterizerState, error) { return c.CreateRasterizerState(&rd) })
	if err != nil {
		return fmt.Errorf("dx: rasterizer state: %w", err)
	}
	dd := DepthStencilDescFor(rs)
	ds, err := b.depths.GetOrCreate(dd, func() (DepthStencilState, error) { return c.CreateDepthStencilState(&dd) })
	if err != nil {
		return fmt.Errorf("dx: depth-stencil state: %w", err)
	}

	b.blend, b.raster, b.depth = bs, rss, ds
	b.sampleMask = rs.SampleMask
	return nil
}

// SetViewport implements backend.Backend.
func (b *Backend) SetViewport(vp backend.Viewport) {
	if b.dev == nil {
		return
	}
	b.dev.Context.RSSetViewport(ViewportFor(vp))
}

// SetTexture implements backend.Backend. Foreign textures are ignored.
func (b *Backend) SetTexture(tex, mask *backend.Texture) {
	b.tex, b.mask, b.swap = nil, nil, false
	if r, ok := backend.ResourceOf[*TextureResource](tex, b.cfg.API); ok && r.View != nil {
		b.tex = r.View
		b.swap = tex.SwapColors
	} else if tex != nil {
		backend.Logger().Warn("dx: texture not bindable", "api", b.cfg.API, "texture_api", tex.API())
	}
	if r, ok := backend.ResourceOf[*TextureResource](mask, b.cfg.API); ok && r.View != nil {
		b.mask = r.View
	} else if mask != nil {
		backend.Logger().Warn("dx: mask not bindable", "api", b.cfg.API, "texture_api", mask.API())
	}
}

// End implements backend.Backend.
func (b *Backend) End(f *backend.Frame) error {
	if b.dev == nil {
		return backend.ErrNotInitialized
	}
	defer b.restore()

	g := f.Geometry
	if len(g.Vertices) == 0 || len(g.Indices) == 0 {
		return nil
	}
	ctx := b.dev.Context

	if err := b.upload(b.vb, backend.VertexBytes(g.Vertices)); err != nil {
		return fmt.Errorf("dx: vertex upload: %w", err)
	}
	if err := b.upload(b.ib, backend.IndexBytes(g.Indices)); err != nil {
		return fmt.Errorf("dx: index upload: %w", err)
	}
	if err := b.upload(b.cb, PackConstants(f.Projection, b.tex != nil, b.mask != nil, b.swap)); err != nil {
		return fmt.Errorf("dx: constant upload: %w", err)
	}

	if b.dev.BackBuffer != nil {
		bb, err := b.dev.BackBuffer(0)
		if err != nil {
			return fmt.Errorf("dx: back buffer: %w", err)
		}
		rtv, err := b.dev.Creator.CreateRenderTargetView(bb)
		bb.Release()
		if err != nil {
			return fmt.Errorf("dx: render target view: %w", err)
		}
		ctx.OMSetRenderTarget(rtv)
		defer rtv.Release()
	}

	vs, ps, layout := b.vs, b.ps, b.layout
	if p := b.program; p != nil {
		vs, ps, layout = p.VS, p.PS, p.Layout
	}

	ctx.IASetInputLayout(layout)
	ctx.IASetVertexBuffer(b.vb, backend.VertexStride, 0)
	ctx.IASetIndexBuffer(b.ib, FormatR16Uint, 0)
	ctx.IASetPrimitiveTopology(Topology(g.Topology))

	views := []ShaderResourceView{b.tex, b.mask}
	samplers := []SamplerState{b.sampler, b.sampler}
	ctx.VSSetShader(vs)
	ctx.VSSetConstantBuffer(0, b.cb)
	ctx.VSSetShaderResources(0, views)
	ctx.VSSetSamplers(0, samplers)
	ctx.PSSetShader(ps)
	ctx.PSSetConstantBuffer(0, b.cb)
	ctx.PSSetShaderResources(0, views)
	ctx.PSSetSamplers(0, samplers)

	ctx.RSSetState(b.raster)
	ctx.OMSetBlendState(b.blend, [4]float32{}, b.sampleMask)
	ctx.OMSetDepthStencilState(b.depth, 0)

	ctx.DrawIndexed(uint32(len(g.Indices)), 0, 0)
	return nil
}

func (b *Backend) upload(buf Buffer, data []byte) error {
	ctx := b.dev.Context
	m, err := ctx.Map(buf, MapWriteDiscard)
	if err != nil {
		return err
	}
	defer ctx.Unmap(buf)
	if len(m.Data) < len(data) {
		return fmt.Errorf("mapped %d bytes, need %d", len(m.Data), len(data))
	}
	copy(m.Data, data)
	return nil
}

// CreateTexture implements backend.Backend.
func (b *Backend) CreateTexture(width, height int, pixels []byte) (*backend.Texture, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", backend.ErrInvalidTextureSize, width, height)
	}
	if pixels != nil && len(pixels) < width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), width, height)
	}
	r, err := b.newTexture(&Texture2DDesc{
		Width:     uint32(width),
		Height:    uint32(height),
		Format:    FormatR8G8B8A8Unorm,
		Usage:     UsageDefault,
		BindFlags: BindShaderResource,
	}, pixels)
	if err != nil {
		return nil, err
	}
	return backend.NewTexture(b, b.cfg.API, width, height, gputypes.TextureFormatRGBA8Unorm, r, nil), nil
}

func (b *Backend) newTexture(desc *Texture2DDesc, pixels []byte) (*TextureResource, error) {
	c := b.dev.Creator
	tex, err := c.CreateTexture2D(desc, pixels, desc.Width*4)
	if err != nil {
		return nil, fmt.Errorf("dx: create texture: %w", err)
	}
	view, err := c.CreateShaderResourceView(tex)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("dx: create shader resource view: %w", err)
	}
	return &TextureResource{api: b.cfg.API, Tex: tex, View: view}, nil
}

// UpdateTexture implements backend.Backend.
func (b *Backend) UpdateTexture(t *backend.Texture, pixels []byte) error {
	if b.dev == nil {
		return backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*TextureResource](t, b.cfg.API)
	if !ok || r.Tex == nil {
		return backend.ErrForeignTexture
	}
	if len(pixels) < t.Width*t.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), t.Width, t.Height)
	}
	b.dev.Context.UpdateSubresource(r.Tex, pixels, uint32(t.Width*4))
	return nil
}

// CreateShader implements backend.Backend. src is HLSL with vs_main and
// ps_main entry points, compiled for the backend's shader model.
func (b *Backend) CreateShader(src backend.ShaderSource) (*backend.Shader, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	prog, err := d3dcompile.CompileStages(b.cfg.Compile, src.Vertex, src.FragmentSource(), b.cfg.ShaderModel)
	if err != nil {
		return nil, fmt.Errorf("dx: compile shader: %w", err)
	}
	c := b.dev.Creator
	r := &ShaderResource{api: b.cfg.API}
	if r.VS, err = c.CreateVertexShader(prog.VS); err == nil {
		if r.PS, err = c.CreatePixelShader(prog.PS); err == nil {
			r.Layout, err = c.CreateInputLayout(InputElements(), prog.VS)
		}
	}
	if err != nil {
		r.release()
		return nil, fmt.Errorf("dx: create shader: %w", err)
	}
	return backend.NewShader(b, b.cfg.API, r), nil
}

// SetShader implements backend.Backend.
func (b *Backend) SetShader(s *backend.Shader) {
	b.program = nil
	if r, ok := backend.ProgramOf[*ShaderResource](s, b.cfg.API); ok {
		b.program = r
	} else if s != nil {
		backend.Logger().Warn("dx: shader not usable, drawing with the built-in program", "api", b.cfg.API, "shader_api", s.API())
	}
}

// ReleaseShader implements backend.ShaderOwner.
func (b *Backend) ReleaseShader(s *backend.Shader) {
	if r, ok := backend.ProgramOf[*ShaderResource](s, b.cfg.API); ok {
		if b.program == r {
			b.program = nil
		}
		r.release()
	}
}

// ReleaseTexture implements backend.TextureOwner.
func (b *Backend) ReleaseTexture(t *backend.Texture) {
	if r, ok := backend.ResourceOf[*TextureResource](t, b.cfg.API); ok {
		r.release()
	}
}

// BackBuffer implements backend.Backend.
func (b *Backend) BackBuffer(index int) (*backend.Texture, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	if b.dev.BackBuffer == nil {
		return nil, backend.ErrNoBackBuffer
	}
	tex, err := b.dev.BackBuffer(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrNoBackBuffer, err)
	}
	desc := tex.Desc()
	return backend.NewTexture(b, b.cfg.API, int(desc.Width), int(desc.Height), textureFormat(desc.Format),
		&TextureResource{api: b.cfg.API, Tex: tex}, nil), nil
}

// textureFormat maps a DXGI format to the texture format reported to callers.
// BGRA views sample in RGBA order, so SwapColors stays false.
func textureFormat(f Format) gputypes.TextureFormat {
	if f == FormatB8G8R8A8Unorm {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// CopyResource implements backend.Backend. When the sizes or formats
// differ, dst is reallocated to match src first.
func (b *Backend) CopyResource(dst, src *backend.Texture) error {
	if b.dev == nil {
		return backend.ErrNotInitialized
	}
	dr, ok := backend.ResourceOf[*TextureResource](dst, b.cfg.API)
	if !ok {
		return fmt.Errorf("%w: destination", backend.ErrForeignTexture)
	}
	sr, ok := backend.ResourceOf[*TextureResource](src, b.cfg.API)
	if !ok {
		return fmt.Errorf("%w: source", backend.ErrForeignTexture)
	}

	sd, dd := sr.Tex.Desc(), dr.Tex.Desc()
	if sd.Width != dd.Width || sd.Height != dd.Height || sd.Format != dd.Format {
		nr, err := b.newTexture(&Texture2DDesc{
			Width:     sd.Width,
			Height:    sd.Height,
			Format:    sd.Format,
			Usage:     UsageDefault,
			BindFlags: BindShaderResource,
		}, nil)
		if err != nil {
			return err
		}
		dr.release()
		dr.Tex, dr.View = nr.Tex, nr.View
		dst.Width, dst.Height = int(sd.Width), int(sd.Height)
		dst.Format = textureFormat(sd.Format)
		dst.SwapColors = false
	}
	b.dev.Context.CopyResource(dr.Tex, sr.Tex)
	return nil
}

// Lock implements backend.Backend. The texture is copied to a staging
// texture that stays mapped until Unlock.
func (b *Backend) Lock(t *backend.Texture) (backend.LockedRect, error) {
	if b.dev == nil {
		return backend.LockedRect{}, backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*TextureResource](t, b.cfg.API)
	if !ok {
		return backend.LockedRect{}, backend.ErrForeignTexture
	}
	if r.staging != nil {
		return backend.LockedRect{}, errors.New("dx: texture already locked")
	}
	desc := r.Tex.Desc()
	staging, err := b.dev.Creator.CreateTexture2D(&Texture2DDesc{
		Width:          desc.Width,
		Height:         desc.Height,
		Format:         desc.Format,
		Usage:          UsageStaging,
		CPUAccessFlags: CPUAccessRead,
	}, nil, 0)
	if err != nil {
		return backend.LockedRect{}, fmt.Errorf("dx: staging texture: %w", err)
	}
	ctx := b.dev.Context
	ctx.CopyResource(staging, r.Tex)
	m, err := ctx.Map(staging, MapRead)
	if err != nil {
		staging.Release()
		return backend.LockedRect{}, fmt.Errorf("dx: map staging texture: %w", err)
	}
	r.staging = staging
	return backend.LockedRect{Pixels: m.Data, Pitch: int(m.RowPitch)}, nil
}

// Unlock implements backend.Backend.
func (b *Backend) Unlock(t *backend.Texture) {
	r, ok := backend.ResourceOf[*TextureResource](t, b.cfg.API)
	if !ok || r.staging == nil || b.dev == nil {
		return
	}
	b.dev.Context.Unmap(r.staging)
	r.staging.Release()
	r.staging = nil
}

var (
	_ backend.Backend      = (*Backend)(nil)
	_ backend.TextureOwner = (*Backend)(nil)
	_ backend.ShaderOwner  = (*Backend)(nil)
)
