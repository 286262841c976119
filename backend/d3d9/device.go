package d3d9

// Native values from d3d9types.h. Only the ones the backend uses are listed.

// Format is a D3DFORMAT.
type Format uint32

// Formats.
const (
	FormatA8R8G8B8 Format = 21
	FormatX8R8G8B8 Format = 22
	FormatIndex16  Format = 101
)

// Pool is a D3DPOOL.
type Pool uint32

// Memory pools.
const (
	PoolDefault   Pool = 0
	PoolManaged   Pool = 1
	PoolSystemMem Pool = 2
)

// Usage flags (D3DUSAGE_*).
const (
	UsageWriteOnly uint32 = 0x8
	UsageDynamic   uint32 = 0x200
)

// LockFlag is a set of D3DLOCK_* flags.
type LockFlag uint32

// Lock flags.
const (
	LockReadOnly    LockFlag = 0x10
	LockNoOverwrite LockFlag = 0x1000
	LockDiscard     LockFlag = 0x2000
)

// PrimitiveType is a D3DPRIMITIVETYPE.
type PrimitiveType uint32

// Primitive types.
const (
	PrimitivePointList    PrimitiveType = 1
	PrimitiveLineList     PrimitiveType = 2
	PrimitiveTriangleList PrimitiveType = 4
)

// RenderStateType is a D3DRENDERSTATETYPE.
type RenderStateType uint32

// Render states.
const (
	RSZEnable                  RenderStateType = 7
	RSFillMode                 RenderStateType = 8
	RSZWriteEnable             RenderStateType = 14
	RSAlphaTestEnable          RenderStateType = 15
	RSSrcBlend                 RenderStateType = 19
	RSDestBlend                RenderStateType = 20
	RSCullMode                 RenderStateType = 22
	RSAlphaBlendEnable         RenderStateType = 27
	RSStencilEnable            RenderStateType = 52
	RSLighting                 RenderStateType = 137
	RSMultisampleMask          RenderStateType = 162
	RSColorWriteEnable         RenderStateType = 168
	RSBlendOp                  RenderStateType = 171
	RSScissorTestEnable        RenderStateType = 174
	RSSeparateAlphaBlendEnable RenderStateType = 206
	RSSrcBlendAlpha            RenderStateType = 207
	RSDestBlendAlpha           RenderStateType = 208
	RSBlendOpAlpha             RenderStateType = 209
)

// D3DCULL, D3DFILLMODE, D3DBLEND and D3DBLENDOP values.
const (
	CullNone uint32 = 1
	CullCW   uint32 = 2
	CullCCW  uint32 = 3

	FillWireframe uint32 = 2
	FillSolid     uint32 = 3

	BlendZero           uint32 = 1
	BlendOne            uint32 = 2
	BlendSrcColor       uint32 = 3
	BlendInvSrcColor    uint32 = 4
	BlendSrcAlpha       uint32 = 5
	BlendInvSrcAlpha    uint32 = 6
	BlendDestAlpha      uint32 = 7
	BlendInvDestAlpha   uint32 = 8
	BlendDestColor      uint32 = 9
	BlendInvDestColor   uint32 = 10
	BlendSrcAlphaSat    uint32 = 11
	BlendBlendFactor    uint32 = 14
	BlendInvBlendFactor uint32 = 15

	BlendOpAdd         uint32 = 1
	BlendOpSubtract    uint32 = 2
	BlendOpRevSubtract uint32 = 3
	BlendOpMin         uint32 = 4
	BlendOpMax         uint32 = 5
)

// SamplerStateType is a D3DSAMPLERSTATETYPE.
type SamplerStateType uint32

// Sampler states and their values.
const (
	SampAddressU  SamplerStateType = 1
	SampAddressV  SamplerStateType = 2
	SampAddressW  SamplerStateType = 3
	SampMagFilter SamplerStateType = 5
	SampMinFilter SamplerStateType = 6
	SampMipFilter SamplerStateType = 7

	AddressWrap  uint32 = 1
	FilterLinear uint32 = 2
)

// StateBlockAll is D3DSBT_ALL.
const StateBlockAll uint32 = 1

// VertexElement is a D3DVERTEXELEMENT9.
type VertexElement struct {
	Stream     uint16
	Offset     uint16
	Type       uint8
	Method     uint8
	Usage      uint8
	UsageIndex uint8
}

// Declaration types and usages.
const (
	DeclTypeFloat2   uint8 = 1
	DeclTypeFloat3   uint8 = 2
	DeclTypeD3DColor uint8 = 4
	DeclTypeUnused   uint8 = 17

	DeclUsagePosition uint8 = 0
	DeclUsageTexCoord uint8 = 5
	DeclUsageColor    uint8 = 10
)

// DeclEnd terminates a vertex declaration.
var DeclEnd = VertexElement{Stream: 0xFF, Type: DeclTypeUnused}

// Viewport is a D3DVIEWPORT9.
type Viewport struct {
	X, Y, Width, Height uint32
	MinZ, MaxZ          float32
}

// SurfaceDesc is the subset of D3DSURFACE_DESC the backend reads.
type SurfaceDesc struct {
	Format Format
	Pool   Pool
	Width  uint32
	Height uint32
}

// LockedRect is a D3DLOCKED_RECT with the bits exposed as a slice.
type LockedRect struct {
	Pitch int
	Bits  []byte
}

// Releaser is an IUnknown.
type Releaser interface {
	Release()
}

// Buffer is an IDirect3DVertexBuffer9 or IDirect3DIndexBuffer9.
type Buffer interface {
	Releaser
	Lock(offset, size uint32, flags LockFlag) ([]byte, error)
	Unlock() error
}

// Surface is an IDirect3DSurface9.
type Surface interface {
	Releaser
	GetDesc() SurfaceDesc
	LockRect(flags LockFlag) (LockedRect, error)
	UnlockRect() error
}

// Texture is an IDirect3DTexture9.
type Texture interface {
	Releaser
	GetLevelDesc(level uint32) SurfaceDesc
	LockRect(level uint32, flags LockFlag) (LockedRect, error)
	UnlockRect(level uint32) error
}

// StateBlock is an IDirect3DStateBlock9.
type StateBlock interface {
	Releaser
	Apply() error
}

// Opaque native objects.
type (
	VertexDeclaration interface{ Releaser }
	VertexShader      interface{ Releaser }
	PixelShader       interface{ Releaser }
)

// Device is an IDirect3DDevice9.
type Device interface {
	// TestCooperativeLevel returns nil while the device is usable and
	// D3DERR_DEVICELOST or D3DERR_DEVICENOTRESET otherwise.
	TestCooperativeLevel() error

	CreateVertexBuffer(length, usage uint32, pool Pool) (Buffer, error)
	CreateIndexBuffer(length, usage uint32, format Format, pool Pool) (Buffer, error)
	CreateVertexDeclaration(elems []VertexElement) (VertexDeclaration, error)
	CreateVertexShader(bytecode []byte) (VertexShader, error)
	CreatePixelShader(bytecode []byte) (PixelShader, error)
	CreateTexture(width, height, levels, usage uint32, format Format, pool Pool) (Texture, error)
	CreateOffscreenPlainSurface(width, height uint32, format Format, pool Pool) (Surface, error)
	CreateStateBlock(typ uint32) (StateBlock, error)

	GetBackBuffer(swapChain, index uint32) (Surface, error)
	GetRenderTargetData(renderTarget, dst Surface) error

	SetRenderState(state RenderStateType, value uint32) error
	SetSamplerState(sampler uint32, typ SamplerStateType, value uint32) error
	SetTexture(stage uint32, tex Texture) error
	SetStreamSource(stream uint32, vb Buffer, offset, stride uint32) error
	SetIndices(ib Buffer) error
	SetVertexDeclaration(decl VertexDeclaration) error
	SetVertexShader(vs VertexShader) error
	SetPixelShader(ps PixelShader) error
	SetVertexShaderConstantF(start uint32, data []float32) error
	SetPixelShaderConstantB(start uint32, data []bool) error
	SetViewport(vp Viewport) error
	DrawIndexedPrimitive(typ PrimitiveType, baseVertex int32, minIndex, numVertices, startIndex, primCount uint32) error
}
