package d3d9

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
)

type stateValue struct {
	State RenderStateType
	Value uint32
}

// renderStates translates rs into the D3DRS_* values End applies.
// Depth, lighting, alpha test and scissor are forced off for 2D drawing.
func renderStates(rs *backend.RenderState) []stateValue {
	fill := FillSolid
	if rs.FillMode == backend.FillWireframe {
		fill = FillWireframe
	}
	return []stateValue{
		{RSZEnable, 0},
		{RSZWriteEnable, 0},
		{RSLighting, 0},
		{RSAlphaTestEnable, 0},
		{RSScissorTestEnable, 0},
		{RSAlphaBlendEnable, b2u(rs.BlendEnable)},
		{RSSeparateAlphaBlendEnable, 1},
		{RSSrcBlend, blendFactor(rs.SrcBlend)},
		{RSDestBlend, blendFactor(rs.DstBlend)},
		{RSBlendOp, blendOp(rs.BlendOp)},
		{RSSrcBlendAlpha, blendFactor(rs.SrcBlendAlpha)},
		{RSDestBlendAlpha, blendFactor(rs.DstBlendAlpha)},
		{RSBlendOpAlpha, blendOp(rs.BlendOpAlpha)},
		{RSCullMode, cullMode(rs.CullMode)},
		{RSFillMode, fill},
		{RSColorWriteEnable, uint32(rs.WriteMask & gputypes.ColorWriteMaskAll)},
		{RSStencilEnable, b2u(rs.StencilEnable)},
		{RSMultisampleMask, rs.SampleMask},
	}
}

func blendFactor(f gputypes.BlendFactor) uint32 {
	switch f {
	case gputypes.BlendFactorZero:
		return BlendZero
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

func blendOp(op gputypes.BlendOperation) uint32 {
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

// cullMode maps to D3DCULL. Direct3D 9 treats clockwise triangles as front
// facing, so culling back faces removes counter-clockwise ones.
func cullMode(m gputypes.CullMode) uint32 {
	switch m {
	case gputypes.CullModeFront:
		return CullCW
	case gputypes.CullModeBack:
		return CullCCW
	default:
		return CullNone
	}
}

func primitiveType(t backend.Topology) PrimitiveType {
	switch t {
	case backend.TopologyLine:
		return PrimitiveLineList
	case backend.TopologyPoint:
		return PrimitivePointList
	default:
		return PrimitiveTriangleList
	}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
