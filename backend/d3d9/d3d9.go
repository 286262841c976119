// Package d3d9 provides the legacy Direct3D 9 backend.
//
// Direct3D 9 draws with 24-byte vertices (position, packed ARGB colour and
// one texture coordinate), resolves shader constants by name from the
// compiled constant table and restores host state with a state block.
//
// The native handle passed to Init is a Device. Importing this package
// registers the backend for backend.APID3D9.
package d3d9

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/d3dcompile"
)

//go:embed shaders/imdraw.hlsl
var shaderSource []byte

// ShaderModel is the HLSL profile suffix used for the built-in program.
const ShaderModel = "3_0"

// vertexDecl matches backend.Vertex.AppendPacked.
var vertexDecl = []VertexElement{
	{Offset: 0, Type: DeclTypeFloat3, Usage: DeclUsagePosition},
	{Offset: 12, Type: DeclTypeD3DColor, Usage: DeclUsageColor},
	{Offset: 16, Type: DeclTypeFloat2, Usage: DeclUsageTexCoord},
	DeclEnd,
}

// Option configures a Backend.
type Option func(*Backend)

// WithCompiler replaces the HLSL compiler. The default is d3dcompile.Compile.
func WithCompiler(f d3dcompile.Func) Option {
	return func(b *Backend) { b.compile = f }
}

type textureResource struct {
	tex     Texture // nil for back buffer copies
	surface Surface
	locked  bool
}

func (*textureResource) API() backend.API { return backend.APID3D9 }

func (r *textureResource) release() {
	if r.tex != nil {
		r.tex.Release()
		r.tex = nil
	}
	if r.surface != nil {
		r.surface.Release()
		r.surface = nil
	}
}

// constRegs are the registers of the program constants, looked up by name
// in the bytecode constant tables.
type constRegs struct {
	proj, hasTex, hasMask, swap uint32
}

// shaderResource is the native program behind a caller shader.
type shaderResource struct {
	vs   VertexShader
	ps   PixelShader
	regs constRegs
}

func (*shaderResource) API() backend.API { return backend.APID3D9 }

func (r *shaderResource) release() {
	if r.vs != nil {
		r.vs.Release()
		r.vs = nil
	}
	if r.ps != nil {
		r.ps.Release()
		r.ps = nil
	}
}

// Backend draws through an IDirect3DDevice9.
type Backend struct {
	compile d3dcompile.Func

	dev    Device
	vb, ib Buffer
	decl   VertexDeclaration
	vs     VertexShader
	ps     PixelShader
	regs   constRegs

	program *shaderResource // caller program; nil draws with vs and ps

	block  StateBlock
	packed []byte
	states []stateValue

	tex, mask Texture
	swap      bool
}

// New returns an uninitialized Direct3D 9 backend.
func New(opts ...Option) *Backend {
	b := &Backend{compile: d3dcompile.Compile}
	for _, o := range opts {
		o(b)
	}
	return b
}

// API implements backend.Backend.
func (*Backend) API() backend.API { return backend.APID3D9 }

// IsActive implements backend.Backend.
func (b *Backend) IsActive() bool {
	return b.dev != nil && b.dev.TestCooperativeLevel() == nil
}

// Init implements backend.Backend.
func (b *Backend) Init(handle any) error {
	if b.dev != nil {
		return nil
	}
	dev, ok := handle.(Device)
	if !ok {
		return backend.InitError(backend.APID3D9, backend.StageDevice,
			fmt.Errorf("%w: %T is not a d3d9.Device", backend.ErrInvalidHandle, handle))
	}
	if err := b.create(dev); err != nil {
		b.releaseObjects()
		return err
	}
	b.dev = dev
	rs := backend.DefaultRenderState()
	b.states = renderStates(&rs)
	b.packed = make([]byte, 0, 1024*backend.PackedVertexStride)
	backend.Logger().Debug("d3d9: backend initialized")
	return nil
}

func (b *Backend) create(dev Device) error {
	api := backend.APID3D9
	var err error
	if b.vb, err = dev.CreateVertexBuffer(backend.MaxVertices*backend.PackedVertexStride,
		UsageDynamic|UsageWriteOnly, PoolDefault); err != nil {
		return backend.InitError(api, backend.StageBuffers, fmt.Errorf("vertex buffer: %w", err))
	}
	if b.ib, err = dev.CreateIndexBuffer(backend.MaxIndices*2,
		UsageDynamic|UsageWriteOnly, FormatIndex16, PoolDefault); err != nil {
		return backend.InitError(api, backend.StageBuffers, fmt.Errorf("index buffer: %w", err))
	}

	prog, err := d3dcompile.CompileProgram(b.compile, shaderSource, ShaderModel)
	if err != nil {
		return backend.InitError(api, backend.StageShader, err)
	}
	if b.regs, err = resolveConstants(prog); err != nil {
		return backend.InitError(api, backend.StageShader, err)
	}
	if b.vs, err = dev.CreateVertexShader(prog.VS); err != nil {
		return backend.InitError(api, backend.StageShader, err)
	}
	if b.ps, err = dev.CreatePixelShader(prog.PS); err != nil {
		return backend.InitError(api, backend.StageShader, err)
	}
	if b.decl, err = dev.CreateVertexDeclaration(vertexDecl); err != nil {
		return backend.InitError(api, backend.StageLayout, err)
	}
	if err := setSamplers(dev); err != nil {
		return backend.InitError(api, backend.StageSampler, err)
	}
	return nil
}

func resolveConstants(prog d3dcompile.Program) (regs constRegs, err error) {
	vt, err := d3dcompile.ParseConstantTable(prog.VS)
	if err != nil {
		return regs, fmt.Errorf("vertex shader: %w", err)
	}
	pt, err := d3dcompile.ParseConstantTable(prog.PS)
	if err != nil {
		return regs, fmt.Errorf("pixel shader: %w", err)
	}
	lookup := func(t *d3dcompile.ConstantTable, name string, set d3dcompile.RegisterSet) (uint32, error) {
		c, err := t.Lookup(name)
		if err != nil {
			return 0, err
		}
		if c.Set != set {
			return 0, fmt.Errorf("d3d9: constant %q in register set %s, want %s", name, c.Set, set)
		}
		return uint32(c.Index), nil
	}
	if regs.proj, err = lookup(vt, "proj", d3dcompile.RegisterFloat4); err != nil {
		return regs, err
	}
	if regs.hasTex, err = lookup(pt, "hasTex", d3dcompile.RegisterBool); err != nil {
		return regs, err
	}
	if regs.hasMask, err = lookup(pt, "hasMask", d3dcompile.RegisterBool); err != nil {
		return regs, err
	}
	if regs.swap, err = lookup(pt, "swapColors", d3dcompile.RegisterBool); err != nil {
		return regs, err
	}
	return regs, nil
}

// setSamplers configures linear filtering with wrap addressing on stages 0 and 1.
func setSamplers(dev Device) error {
	for stage := uint32(0); stage < 2; stage++ {
		for _, s := range []struct {
			typ SamplerStateType
			val uint32
		}{
			{SampAddressU, AddressWrap},
			{SampAddressV, AddressWrap},
			{SampAddressW, AddressWrap},
			{SampMagFilter, FilterLinear},
			{SampMinFilter, FilterLinear},
			{SampMipFilter, FilterLinear},
		} {
			if err := dev.SetSamplerState(stage, s.typ, s.val); err != nil {
				return err
			}
		}
	}
	return nil
}

// Shutdown implements backend.Backend. The device itself belongs to the host.
func (b *Backend) Shutdown() {
	if b.dev == nil {
		return
	}
	if b.block != nil {
		b.block.Release()
		b.block = nil
	}
	b.releaseObjects()
	b.dev = nil
	b.tex, b.mask = nil, nil
	b.program = nil
	backend.Logger().Debug("d3d9: backend shut down")
}

func (b *Backend) releaseObjects() {
	for _, o := range []Releaser{b.vb, b.ib, b.decl, b.vs, b.ps} {
		if o != nil {
			o.Release()
		}
	}
	b.vb, b.ib, b.decl, b.vs, b.ps = nil, nil, nil, nil, nil
}

// Begin implements backend.Backend. The full device state is captured in a
// state block that End applies.
func (b *Backend) Begin() {
	if b.dev == nil {
		return
	}
	b.packed = b.packed[:0]
	if b.block != nil {
		b.block.Release()
		b.block = nil
	}
	block, err := b.dev.CreateStateBlock(StateBlockAll)
	if err != nil {
		backend.Logger().Warn("d3d9: state block capture failed", "err", err)
		return
	}
	b.block = block
}

// SetVertex implements backend.Backend by mirroring v into the packed
// vertex stream.
func (b *Backend) SetVertex(v backend.Vertex) {
	b.packed = v.AppendPacked(b.packed)
}

// SetRenderStates implements backend.Backend. The values are applied in End,
// after the host state has been captured.
func (b *Backend) SetRenderStates(rs *backend.RenderState) error {
	if b.dev == nil {
		return backend.ErrNotInitialized
	}
	b.states = renderStates(rs)
	return nil
}

// SetViewport implements backend.Backend.
func (b *Backend) SetViewport(vp backend.Viewport) {
	if b.dev == nil {
		return
	}
	if err := b.dev.SetViewport(Viewport{
		X:      uint32(vp.X),
		Y:      uint32(vp.Y),
		Width:  uint32(vp.Width),
		Height: uint32(vp.Height),
		MinZ:   vp.MinDepth,
		MaxZ:   vp.MaxDepth,
	}); err != nil {
		backend.Logger().Warn("d3d9: SetViewport failed", "err", err)
	}
}

// SetTexture implements backend.Backend.
func (b *Backend) SetTexture(tex, mask *backend.Texture) {
	b.tex, b.mask, b.swap = nil, nil, false
	if r, ok := backend.ResourceOf[*textureResource](tex, backend.APID3D9); ok && r.tex != nil {
		b.tex = r.tex
		b.swap = tex.SwapColors
	} else if tex != nil {
		backend.Logger().Warn("d3d9: texture not bindable", "texture_api", tex.API())
	}
	if r, ok := backend.ResourceOf[*textureResource](mask, backend.APID3D9); ok && r.tex != nil {
		b.mask = r.tex
	} else if mask != nil {
		backend.Logger().Warn("d3d9: mask not bindable", "texture_api", mask.API())
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
	if len(b.packed) != len(g.Vertices)*backend.PackedVertexStride {
		b.packed = b.packed[:0]
		for i := range g.Vertices {
			b.packed = g.Vertices[i].AppendPacked(b.packed)
		}
	}
	if err := upload(b.vb, b.packed); err != nil {
		return fmt.Errorf("d3d9: vertex upload: %w", err)
	}
	if err := upload(b.ib, backend.IndexBytes(g.Indices)); err != nil {
		return fmt.Errorf("d3d9: index upload: %w", err)
	}

	dev := b.dev
	var err error
	check := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}
	for _, s := range b.states {
		check(dev.SetRenderState(s.State, s.Value))
	}
	check(setSamplers(dev))
	check(dev.SetVertexDeclaration(b.decl))
	check(dev.SetStreamSource(0, b.vb, 0, backend.PackedVertexStride))
	check(dev.SetIndices(b.ib))
	vs, ps, regs := b.vs, b.ps, b.regs
	if p := b.program; p != nil {
		vs, ps, regs = p.vs, p.ps, p.regs
	}
	check(dev.SetVertexShader(vs))
	check(dev.SetPixelShader(ps))

	// Registers hold matrix columns, as ID3DXConstantTable.SetMatrix writes them.
	proj := f.Projection.Transpose()
	check(dev.SetVertexShaderConstantF(regs.proj, proj[:]))
	check(dev.SetPixelShaderConstantB(regs.hasTex, []bool{b.tex != nil}))
	check(dev.SetPixelShaderConstantB(regs.hasMask, []bool{b.mask != nil}))
	check(dev.SetPixelShaderConstantB(regs.swap, []bool{b.swap}))
	check(dev.SetTexture(0, b.tex))
	check(dev.SetTexture(1, b.mask))
	if err != nil {
		return fmt.Errorf("d3d9: bind: %w", err)
	}

	n := len(g.Indices)
	if err := dev.DrawIndexedPrimitive(primitiveType(g.Topology), 0, 0,
		uint32(len(g.Vertices)), 0, uint32(g.Topology.PrimitiveCount(n))); err != nil {
		return fmt.Errorf("d3d9: draw: %w", err)
	}
	return nil
}

func (b *Backend) restore() {
	if b.block == nil {
		return
	}
	if err := b.block.Apply(); err != nil {
		backend.Logger().Warn("d3d9: state block apply failed", "err", err)
	}
	b.block.Release()
	b.block = nil
}

func upload(buf Buffer, data []byte) error {
	dst, err := buf.Lock(0, uint32(len(data)), LockDiscard)
	if err != nil {
		return err
	}
	copy(dst, data)
	return buf.Unlock()
}

// CreateTexture implements backend.Backend. Pixels are converted from RGBA
// to the BGRA byte order of D3DFMT_A8R8G8B8.
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
	tex, err := b.dev.CreateTexture(uint32(width), uint32(height), 1, 0, FormatA8R8G8B8, PoolManaged)
	if err != nil {
		return nil, fmt.Errorf("d3d9: create texture: %w", err)
	}
	if pixels != nil {
		if err := writePixels(tex, width, height, pixels); err != nil {
			tex.Release()
			return nil, err
		}
	}
	return backend.NewTexture(b, backend.APID3D9, width, height, gputypes.TextureFormatBGRA8Unorm,
		&textureResource{tex: tex}, nil), nil
}

// writePixels uploads RGBA pixels into level 0 of tex.
func writePixels(tex Texture, width, height int, pixels []byte) error {
	lr, err := tex.LockRect(0, 0)
	if err != nil {
		return fmt.Errorf("d3d9: lock texture: %w", err)
	}
	for y := 0; y < height; y++ {
		swizzleRow(lr.Bits[y*lr.Pitch:], pixels[y*width*4:(y+1)*width*4])
	}
	if err := tex.UnlockRect(0); err != nil {
		return fmt.Errorf("d3d9: unlock texture: %w", err)
	}
	return nil
}

// UpdateTexture implements backend.Backend.
func (b *Backend) UpdateTexture(t *backend.Texture, pixels []byte) error {
	if b.dev == nil {
		return backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*textureResource](t, backend.APID3D9)
	if !ok || r.tex == nil {
		return backend.ErrForeignTexture
	}
	if len(pixels) < t.Width*t.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), t.Width, t.Height)
	}
	if r.locked {
		return errors.New("d3d9: texture is locked")
	}
	return writePixels(r.tex, t.Width, t.Height, pixels)
}

// CreateShader implements backend.Backend. src is HLSL with vs_main and
// ps_main entry points compiled for shader model 3. The constants are
// found by name in the compiled constant tables.
func (b *Backend) CreateShader(src backend.ShaderSource) (*backend.Shader, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	prog, err := d3dcompile.CompileStages(b.compile, src.Vertex, src.FragmentSource(), ShaderModel)
	if err != nil {
		return nil, fmt.Errorf("d3d9: compile shader: %w", err)
	}
	r := &shaderResource{}
	if r.regs, err = resolveConstants(prog); err != nil {
		return nil, fmt.Errorf("d3d9: shader constants: %w", err)
	}
	if r.vs, err = b.dev.CreateVertexShader(prog.VS); err == nil {
		r.ps, err = b.dev.CreatePixelShader(prog.PS)
	}
	if err != nil {
		r.release()
		return nil, fmt.Errorf("d3d9: create shader: %w", err)
	}
	return backend.NewShader(b, backend.APID3D9, r), nil
}

// SetShader implements backend.Backend.
func (b *Backend) SetShader(s *backend.Shader) {
	b.program = nil
	if r, ok := backend.ProgramOf[*shaderResource](s, backend.APID3D9); ok {
		b.program = r
	} else if s != nil {
		backend.Logger().Warn("d3d9: shader not usable, drawing with the built-in program", "shader_api", s.API())
	}
}

// ReleaseShader implements backend.ShaderOwner.
func (b *Backend) ReleaseShader(s *backend.Shader) {
	if r, ok := backend.ProgramOf[*shaderResource](s, backend.APID3D9); ok {
		if b.program == r {
			b.program = nil
		}
		r.release()
	}
}

// swizzleRow copies RGBA src into dst, swapping red and blue.
func swizzleRow(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}

// ReleaseTexture implements backend.TextureOwner.
func (b *Backend) ReleaseTexture(t *backend.Texture) {
	if r, ok := backend.ResourceOf[*textureResource](t, backend.APID3D9); ok {
		r.release()
	}
}

// BackBuffer implements backend.Backend. The render target is copied into
// a system-memory surface, so the result can be locked but not sampled.
func (b *Backend) BackBuffer(index int) (*backend.Texture, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	rt, err := b.dev.GetBackBuffer(0, uint32(index))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrNoBackBuffer, err)
	}
	defer rt.Release()

	desc := rt.GetDesc()
	sys, err := b.dev.CreateOffscreenPlainSurface(desc.Width, desc.Height, desc.Format, PoolSystemMem)
	if err != nil {
		return nil, fmt.Errorf("d3d9: offscreen surface: %w", err)
	}
	if err := b.dev.GetRenderTargetData(rt, sys); err != nil {
		sys.Release()
		return nil, fmt.Errorf("d3d9: GetRenderTargetData: %w", err)
	}
	return backend.NewTexture(b, backend.APID3D9, int(desc.Width), int(desc.Height),
		gputypes.TextureFormatBGRA8Unorm, &textureResource{surface: sys}, nil), nil
}

func (r *textureResource) lock(flags LockFlag) (LockedRect, error) {
	if r.surface != nil {
		return r.surface.LockRect(flags)
	}
	return r.tex.LockRect(0, flags)
}

func (r *textureResource) unlock() error {
	if r.surface != nil {
		return r.surface.UnlockRect()
	}
	return r.tex.UnlockRect(0)
}

// CopyResource implements backend.Backend with a CPU row copy. dst is
// recreated when its size differs from src.
func (b *Backend) CopyResource(dst, src *backend.Texture) error {
	if b.dev == nil {
		return backend.ErrNotInitialized
	}
	dr, ok := backend.ResourceOf[*textureResource](dst, backend.APID3D9)
	if !ok || dr.tex == nil {
		return fmt.Errorf("%w: destination", backend.ErrForeignTexture)
	}
	sr, ok := backend.ResourceOf[*textureResource](src, backend.APID3D9)
	if !ok {
		return fmt.Errorf("%w: source", backend.ErrForeignTexture)
	}
	if dst.Width != src.Width || dst.Height != src.Height {
		tex, err := b.dev.CreateTexture(uint32(src.Width), uint32(src.Height), 1, 0, FormatA8R8G8B8, PoolManaged)
		if err != nil {
			return fmt.Errorf("d3d9: recreate texture: %w", err)
		}
		dr.release()
		dr.tex = tex
		dst.Width, dst.Height = src.Width, src.Height
	}

	sl, err := sr.lock(LockReadOnly)
	if err != nil {
		return fmt.Errorf("d3d9: lock source: %w", err)
	}
	defer sr.unlock()
	dl, err := dr.lock(0)
	if err != nil {
		return fmt.Errorf("d3d9: lock destination: %w", err)
	}
	row := src.Width * 4
	for y := 0; y < src.Height; y++ {
		copy(dl.Bits[y*dl.Pitch:y*dl.Pitch+row], sl.Bits[y*sl.Pitch:y*sl.Pitch+row])
	}
	return dr.unlock()
}

// Lock implements backend.Backend. Pixels are in BGRA byte order.
func (b *Backend) Lock(t *backend.Texture) (backend.LockedRect, error) {
	if b.dev == nil {
		return backend.LockedRect{}, backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*textureResource](t, backend.APID3D9)
	if !ok {
		return backend.LockedRect{}, backend.ErrForeignTexture
	}
	if r.locked {
		return backend.LockedRect{}, errors.New("d3d9: texture already locked")
	}
	lr, err := r.lock(LockReadOnly)
	if err != nil {
		return backend.LockedRect{}, fmt.Errorf("d3d9: lock: %w", err)
	}
	r.locked = true
	return backend.LockedRect{Pixels: lr.Bits, Pitch: lr.Pitch}, nil
}

// Unlock implements backend.Backend.
func (b *Backend) Unlock(t *backend.Texture) {
	r, ok := backend.ResourceOf[*textureResource](t, backend.APID3D9)
	if !ok || !r.locked {
		return
	}
	r.locked = false
	if err := r.unlock(); err != nil {
		backend.Logger().Warn("d3d9: unlock failed", "err", err)
	}
}

func init() {
	backend.Register(backend.APID3D9, func() backend.Backend { return New() })
}

var (
	_ backend.Backend      = (*Backend)(nil)
	_ backend.TextureOwner = (*Backend)(nil)
	_ backend.ShaderOwner  = (*Backend)(nil)
)
