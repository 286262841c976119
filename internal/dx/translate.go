package dx

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
)

// BlendFactor converts a normalized blend factor to D3D1x_BLEND.
func BlendFactor(f gputypes.BlendFactor) Blend {
	switch f {
	case gputypes.BlendFactorZero:
		return BlendZero
	case gputypes.BlendFactorOne:
		return BlendOne
	case gputypes.BlendFactorSrc:
		return BlendSrcColor
	case gputypes.BlendFactorOneMinusSrc:
		return BlendInvSrcColor
	case gputypes.BlendFactorSrcAlpha:
		return BlendSrcAlpha
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return BlendInvSrcAlpha
	case gputypes.BlendFactorDst:
		return BlendDestColor
	case gputypes.BlendFactorOneMinusDst:
		return BlendInvDestColor
	case gputypes.BlendFactorDstAlpha:
		return BlendDestAlpha
	case gputypes.BlendFactorOneMinusDstAlpha:
		return BlendInvDestAlpha
	case gputypes.BlendFactorSrcAlphaSaturated:
		return BlendSrcAlphaSat
	case gputypes.BlendFactorConstant:
		return BlendBlendFactor
	case gputypes.BlendFactorOneMinusConstant:
		return BlendInvBlendFactor
	default:
		return BlendOne
	}
}

// BlendOperation converts a normalized blend operation to D3D1x_BLEND_OP.
func BlendOperation(op gputypes.BlendOperation) BlendOp {
	switch op {
	case gputypes.BlendOperationSubtract:
		return BlendOpSubtract
	case gputypes.BlendOperationReverseSubtract:
		return BlendOpRevSubtract
	case gputypes.BlendOperationMin:
		return BlendOpMin
	case gputypes.BlendOperationMax:
		return BlendOpMax
	default:
		return BlendOpAdd
	}
}

// Cull converts a normalized cull mode.
func Cull(m gputypes.CullMode) CullMode {
	switch m {
	case gputypes.CullModeFront:
		return CullFront
	case gputypes.CullModeBack:
		return CullBack
	default:
		return CullNone
	}
}

// Fill converts a normalized fill mode.
func Fill(m backend.FillMode) FillMode {
	if m == backend.FillWireframe {
		return FillWireframe
	}
	return FillSolid
}

// Topology converts a frame topology.
func Topology(t backend.Topology) PrimitiveTopology {
	switch t {
	case backend.TopologyPoint:
		return TopologyPointList
	case backend.TopologyLine:
		return TopologyLineList
	default:
		return TopologyTriangleList
	}
}

// BlendDescFor translates the blend part of rs.
func BlendDescFor(rs *backend.RenderState) BlendDesc {
	return BlendDesc{
		BlendEnable:    rs.BlendEnable,
		SrcBlend:       BlendFactor(rs.SrcBlend),
		DestBlend:      BlendFactor(rs.DstBlend),
		BlendOp:        BlendOperation(rs.BlendOp),
		SrcBlendAlpha:  BlendFactor(rs.SrcBlendAlpha),
		DestBlendAlpha: BlendFactor(rs.DstBlendAlpha),
		BlendOpAlpha:   BlendOperation(rs.BlendOpAlpha),
		// D3D1x_COLOR_WRITE_ENABLE uses the same bit order as gputypes.
		RenderTargetWriteMask: uint8(rs.WriteMask & gputypes.ColorWriteMaskAll),
	}
}

// RasterizerDescFor translates the rasterizer part of rs.
func RasterizerDescFor(rs *backend.RenderState) RasterizerDesc {
	return RasterizerDesc{
		FillMode:          Fill(rs.FillMode),
		CullMode:          Cull(rs.CullMode),
		DepthClipEnable:   true,
		MultisampleEnable: rs.SampleMask != 0xFFFFFFFF,
	}
}

// DepthStencilDescFor translates the depth-stencil part of rs. Depth testing
// is always off for 2D drawing.
func DepthStencilDescFor(rs *backend.RenderState) DepthStencilDesc {
	return DepthStencilDesc{
		StencilEnable:    rs.StencilEnable,
		StencilReadMask:  0xFF,
		StencilWriteMask: 0xFF,
	}
}

// LinearWrapSampler returns the sampler used for both texture slots.
func LinearWrapSampler() SamplerDesc {
	return SamplerDesc{
		Filter:         FilterMinMagMipLinear,
		AddressU:       AddressWrap,
		AddressV:       AddressWrap,
		AddressW:       AddressWrap,
		MaxAnisotropy:  1,
		ComparisonFunc: ComparisonNever,
		MaxLOD:         math.MaxFloat32,
	}
}

// ViewportFor converts a normalized viewport.
func ViewportFor(vp backend.Viewport) Viewport {
	return Viewport{
		TopLeftX: vp.X,
		TopLeftY: vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}
}

// InputElements returns the element descriptions matching backend.Vertex.
func InputElements() []InputElementDesc {
	return []InputElementDesc{
		{SemanticName: "POSITION", Format: FormatR32G32B32Float, AlignedByteOffset: 0},
		{SemanticName: "COLOR", Format: FormatR32G32B32A32Float, AlignedByteOffset: 12},
		{SemanticName: "TEXCOORD", SemanticIndex: 0, Format: FormatR32G32Float, AlignedByteOffset: 28},
		{SemanticName: "TEXCOORD", SemanticIndex: 1, Format: FormatR32G32Float, AlignedByteOffset: 36},
	}
}

// ConstantsSize is the byte size of the shader constant buffer:
// float4x4 proj, int hasTex, int hasMask, int swapColors, padded to 16 bytes.
const ConstantsSize = 80

// PackConstants encodes the constant buffer. m is transposed so that the
// column-major cbuffer matrix multiplies row vectors like the CPU matrix.
func PackConstants(m backend.Matrix, hasTex, hasMask, swapColors bool) []byte {
	buf := make([]byte, ConstantsSize)
	t := m.Transpose()
	for i, f := range t {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(buf[64:], b2i(hasTex))
	binary.LittleEndian.PutUint32(buf[68:], b2i(hasMask))
	binary.LittleEndian.PutUint32(buf[72:], b2i(swapColors))
	return buf
}

func b2i(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
