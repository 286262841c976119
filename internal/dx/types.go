// Package dx holds the pieces shared by the Direct3D 10 and 11 backends:
// descriptor types with native enum values, translation from the normalized
// render state, constant buffer packing and the immediate draw pipeline.
//
// Native objects are reached through the small interfaces in this file.
// The Windows COM adapters that implement them live with the host
// application, which creates the device and swap chain.
package dx

// Format is a DXGI_FORMAT value.
type Format uint32

// DXGI formats used by the pipeline.
const (
	FormatUnknown           Format = 0
	FormatR32G32B32A32Float Format = 2
	FormatR32G32B32Float    Format = 6
	FormatR32G32Float       Format = 16
	FormatR8G8B8A8Unorm     Format = 28
	FormatR16Uint           Format = 57
	FormatB8G8R8A8Unorm     Format = 87
)

// Usage is a D3D1x_USAGE value.
type Usage uint32

// Resource usages.
const (
	UsageDefault   Usage = 0
	UsageImmutable Usage = 1
	UsageDynamic   Usage = 2
	UsageStaging   Usage = 3
)

// BindFlag is a D3D1x_BIND_FLAG bit set.
type BindFlag uint32

// Bind flags.
const (
	BindVertexBuffer   BindFlag = 0x1
	BindIndexBuffer    BindFlag = 0x2
	BindConstantBuffer BindFlag = 0x4
	BindShaderResource BindFlag = 0x8
	BindRenderTarget   BindFlag = 0x20
)

// CPUAccess is a D3D1x_CPU_ACCESS_FLAG bit set.
type CPUAccess uint32

// CPU access flags.
const (
	CPUAccessWrite CPUAccess = 0x10000
	CPUAccessRead  CPUAccess = 0x20000
)

// MapMode is a D3D1x_MAP value.
type MapMode uint32

// Map modes.
const (
	MapRead         MapMode = 1
	MapWrite        MapMode = 2
	MapReadWrite    MapMode = 3
	MapWriteDiscard MapMode = 4
)

// Blend is a D3D1x_BLEND value.
type Blend uint32

// Blend factors.
const (
	BlendZero           Blend = 1
	BlendOne            Blend = 2
	BlendSrcColor       Blend = 3
	BlendInvSrcColor    Blend = 4
	BlendSrcAlpha       Blend = 5
	BlendInvSrcAlpha    Blend = 6
	BlendDestAlpha      Blend = 7
	BlendInvDestAlpha   Blend = 8
	BlendDestColor      Blend = 9
	BlendInvDestColor   Blend = 10
	BlendSrcAlphaSat    Blend = 11
	BlendBlendFactor    Blend = 14
	BlendInvBlendFactor Blend = 15
)

// BlendOp is a D3D1x_BLEND_OP value.
type BlendOp uint32

// Blend operations.
const (
	BlendOpAdd         BlendOp = 1
	BlendOpSubtract    BlendOp = 2
	BlendOpRevSubtract BlendOp = 3
	BlendOpMin         BlendOp = 4
	BlendOpMax         BlendOp = 5
)

// CullMode is a D3D1x_CULL_MODE value.
type CullMode uint32

// Cull modes.
const (
	CullNone  CullMode = 1
	CullFront CullMode = 2
	CullBack  CullMode = 3
)

// FillMode is a D3D1x_FILL_MODE value.
type FillMode uint32

// Fill modes.
const (
	FillWireframe FillMode = 2
	FillSolid     FillMode = 3
)

// PrimitiveTopology is a D3D_PRIMITIVE_TOPOLOGY value.
type PrimitiveTopology uint32

// Primitive topologies.
const (
	TopologyPointList    PrimitiveTopology = 1
	TopologyLineList     PrimitiveTopology = 2
	TopologyTriangleList PrimitiveTopology = 4
)

// Filter is a D3D1x_FILTER value.
type Filter uint32

// FilterMinMagMipLinear is trilinear filtering.
const FilterMinMagMipLinear Filter = 0x15

// AddressMode is a D3D1x_TEXTURE_ADDRESS_MODE value.
type AddressMode uint32

// Address modes.
const (
	AddressWrap  AddressMode = 1
	AddressClamp AddressMode = 3
)

// ComparisonNever is D3D1x_COMPARISON_NEVER.
const ComparisonNever uint32 = 1

// BufferDesc describes a buffer.
type BufferDesc struct {
	ByteWidth      uint32
	Usage          Usage
	BindFlags      BindFlag
	CPUAccessFlags CPUAccess
}

// Texture2DDesc describes a single-mip 2D texture.
type Texture2DDesc struct {
	Width          uint32
	Height         uint32
	Format         Format
	Usage          Usage
	BindFlags      BindFlag
	CPUAccessFlags CPUAccess
}

// InputElementDesc describes one vertex attribute.
type InputElementDesc struct {
	SemanticName      string
	SemanticIndex     uint32
	Format            Format
	InputSlot         uint32
	AlignedByteOffset uint32
}

// SamplerDesc describes a sampler state.
type SamplerDesc struct {
	Filter         Filter
	AddressU       AddressMode
	AddressV       AddressMode
	AddressW       AddressMode
	MaxAnisotropy  uint32
	ComparisonFunc uint32
	MinLOD         float32
	MaxLOD         float32
}

// BlendDesc describes render target 0 blending.
type BlendDesc struct {
	BlendEnable           bool
	SrcBlend              Blend
	DestBlend             Blend
	BlendOp               BlendOp
	SrcBlendAlpha         Blend
	DestBlendAlpha        Blend
	BlendOpAlpha          BlendOp
	RenderTargetWriteMask uint8
}

// RasterizerDesc describes rasterizer state.
type RasterizerDesc struct {
	FillMode              FillMode
	CullMode              CullMode
	FrontCounterClockwise bool
	DepthClipEnable       bool
	ScissorEnable         bool
	MultisampleEnable     bool
}

// DepthStencilDesc describes depth and stencil state.
type DepthStencilDesc struct {
	DepthEnable      bool
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
}

// Viewport is a D3D1x_VIEWPORT.
type Viewport struct {
	TopLeftX, TopLeftY float32
	Width, Height      float32
	MinDepth, MaxDepth float32
}

// MappedSubresource is the CPU view returned by Map.
type MappedSubresource struct {
	Data     []byte
	RowPitch uint32
}

// Object is a reference-counted native object.
type Object interface {
	Release()
}

// Native object kinds.
type (
	Buffer             interface{ Object }
	ShaderResourceView interface{ Object }
	RenderTargetView   interface{ Object }
	VertexShader       interface{ Object }
	PixelShader        interface{ Object }
	InputLayout        interface{ Object }
	SamplerState       interface{ Object }
	BlendState         interface{ Object }
	RasterizerState    interface{ Object }
	DepthStencilState  interface{ Object }
)

// Texture2D is a native 2D texture.
type Texture2D interface {
	Object
	Desc() Texture2DDesc
}

// Creator creates native objects. Implemented by ID3D10Device and ID3D11Device adapters.
type Creator interface {
	CreateBuffer(desc *BufferDesc, initial []byte) (Buffer, error)
	CreateTexture2D(desc *Texture2DDesc, initial []byte, rowPitch uint32) (Texture2D, error)
	CreateShaderResourceView(tex Texture2D) (ShaderResourceView, error)
	CreateRenderTargetView(tex Texture2D) (RenderTargetView, error)
	CreateVertexShader(bytecode []byte) (VertexShader, error)
	CreatePixelShader(bytecode []byte) (PixelShader, error)
	CreateInputLayout(elems []InputElementDesc, vsBytecode []byte) (InputLayout, error)
	CreateSamplerState(desc *SamplerDesc) (SamplerState, error)
	CreateBlendState(desc *BlendDesc) (BlendState, error)
	CreateRasterizerState(desc *RasterizerDesc) (RasterizerState, error)
	CreateDepthStencilState(desc *DepthStencilDesc) (DepthStencilState, error)

	// GetDeviceRemovedReason returns nil while the device is usable.
	GetDeviceRemovedReason() error
}

// Context records state and draw calls. Implemented by ID3D11DeviceContext
// adapters and by ID3D10Device adapters, which have no separate context.
//
// Get methods return new references the caller releases, as in COM.
type Context interface {
	Map(res Object, mode MapMode) (MappedSubresource, error)
	Unmap(res Object)
	UpdateSubresource(res Object, data []byte, rowPitch uint32)
	CopyResource(dst, src Object)

	IASetInputLayout(layout InputLayout)
	IASetVertexBuffer(buf Buffer, stride, offset uint32)
	IASetIndexBuffer(buf Buffer, format Format, offset uint32)
	IASetPrimitiveTopology(t PrimitiveTopology)

	VSSetShader(vs VertexShader)
	VSSetConstantBuffer(slot uint32, buf Buffer)
	VSSetShaderResources(start uint32, views []ShaderResourceView)
	VSSetSamplers(start uint32, samplers []SamplerState)

	PSSetShader(ps PixelShader)
	PSSetConstantBuffer(slot uint32, buf Buffer)
	PSSetShaderResources(start uint32, views []ShaderResourceView)
	PSSetSamplers(start uint32, samplers []SamplerState)

	RSSetState(rs RasterizerState)
	RSGetState() RasterizerState
	RSSetViewport(vp Viewport)

	OMSetBlendState(bs BlendState, factor [4]float32, sampleMask uint32)
	OMGetBlendState() (BlendState, [4]float32, uint32)
	OMSetDepthStencilState(ds DepthStencilState, stencilRef uint32)
	OMGetDepthStencilState() (DepthStencilState, uint32)
	OMSetRenderTarget(rtv RenderTargetView)
	OMGetRenderTarget() RenderTargetView

	DrawIndexed(indexCount, startIndex uint32, baseVertex int32)
}
