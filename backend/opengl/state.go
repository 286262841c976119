package opengl

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
)

var blendFactors = map[gputypes.BlendFactor]Enum{
	gputypes.BlendFactorZero:              ZERO,
	gputypes.BlendFactorOne:               ONE,
	gputypes.BlendFactorSrc:               SRC_COLOR,
	gputypes.BlendFactorOneMinusSrc:       ONE_MINUS_SRC_COLOR,
	gputypes.BlendFactorSrcAlpha:          SRC_ALPHA,
	gputypes.BlendFactorOneMinusSrcAlpha:  ONE_MINUS_SRC_ALPHA,
	gputypes.BlendFactorDst:               DST_COLOR,
	gputypes.BlendFactorOneMinusDst:       ONE_MINUS_DST_COLOR,
	gputypes.BlendFactorDstAlpha:          DST_ALPHA,
	gputypes.BlendFactorOneMinusDstAlpha:  ONE_MINUS_DST_ALPHA,
	gputypes.BlendFactorSrcAlphaSaturated: SRC_ALPHA_SATURATE,
	gputypes.BlendFactorConstant:          CONSTANT_COLOR,
	gputypes.BlendFactorOneMinusConstant:  ONE_MINUS_CONSTANT_COLOR,
}

func blendFactor(f gputypes.BlendFactor) Enum {
	if e, ok := blendFactors[f]; ok {
		return e
	}
	return ONE
}

func blendEquation(op gputypes.BlendOperation) Enum {
	switch op {
	case gputypes.BlendOperationSubtract:
		return FUNC_SUBTRACT
	case gputypes.BlendOperationReverseSubtract:
		return FUNC_REVERSE_SUBTRACT
	case gputypes.BlendOperationMin:
		return MIN
	case gputypes.BlendOperationMax:
		return MAX
	default:
		return FUNC_ADD
	}
}

func primitiveMode(t backend.Topology) Enum {
	switch t {
	case backend.TopologyLine:
		return LINES
	case backend.TopologyPoint:
		return POINTS
	default:
		return TRIANGLES
	}
}

// applyState binds rs. Front faces wind clockwise on screen, matching the
// Direct3D backends.
func applyState(gl Functions, rs *backend.RenderState) {
	setEnabled(gl, BLEND, rs.BlendEnable)
	gl.BlendFuncSeparate(blendFactor(rs.SrcBlend), blendFactor(rs.DstBlend),
		blendFactor(rs.SrcBlendAlpha), blendFactor(rs.DstBlendAlpha))
	gl.BlendEquationSeparate(blendEquation(rs.BlendOp), blendEquation(rs.BlendOpAlpha))

	switch rs.CullMode {
	case gputypes.CullModeFront:
		gl.Enable(CULL_FACE)
		gl.CullFace(FRONT)
	case gputypes.CullModeBack:
		gl.Enable(CULL_FACE)
		gl.CullFace(BACK)
	default:
		gl.Disable(CULL_FACE)
	}
	gl.FrontFace(CW)

	if rs.FillMode == backend.FillWireframe {
		gl.PolygonMode(FRONT_AND_BACK, LINE)
	} else {
		gl.PolygonMode(FRONT_AND_BACK, FILL)
	}

	m := rs.WriteMask
	gl.ColorMask(m&gputypes.ColorWriteMaskRed != 0, m&gputypes.ColorWriteMaskGreen != 0,
		m&gputypes.ColorWriteMaskBlue != 0, m&gputypes.ColorWriteMaskAlpha != 0)

	setEnabled(gl, STENCIL_TEST, rs.StencilEnable)
	if rs.SampleMask != 0xFFFFFFFF {
		gl.Enable(SAMPLE_MASK)
		gl.SampleMaski(0, rs.SampleMask)
	} else {
		gl.Disable(SAMPLE_MASK)
	}
	gl.Disable(DEPTH_TEST)
	gl.Disable(SCISSOR_TEST)
}

func setEnabled(gl Functions, capability Enum, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

// savedState is the host state End overwrites.
type savedState struct {
	valid bool

	program       int32
	vao           int32
	arrayBuffer   int32
	elementBuffer int32
	activeTexture int32
	textures      [2]int32
	samplers      [2]int32

	blend, cull, stencil, depth, scissor, sampleMask bool

	blendSrcRGB, blendDstRGB     int32
	blendSrcAlpha, blendDstAlpha int32
	blendEqRGB, blendEqAlpha     int32
	cullFace, frontFace          int32
	polygonMode                  [2]int32
	colorMask                    [4]bool
	viewport                     [4]int32
	depthRange                   [2]float32
}

func getInt(gl Functions, pname Enum) int32 {
	var v [1]int32
	gl.GetIntegerv(pname, v[:])
	return v[0]
}

func (s *savedState) capture(gl Functions) {
	s.program = getInt(gl, CURRENT_PROGRAM)
	s.vao = getInt(gl, VERTEX_ARRAY_BINDING)
	s.arrayBuffer = getInt(gl, ARRAY_BUFFER_BINDING)
	s.elementBuffer = getInt(gl, ELEMENT_ARRAY_BUFFER_BINDING)
	s.activeTexture = getInt(gl, ACTIVE_TEXTURE)
	for i := range s.textures {
		gl.ActiveTexture(TEXTURE0 + Enum(i))
		s.textures[i] = getInt(gl, TEXTURE_BINDING_2D)
		s.samplers[i] = getInt(gl, SAMPLER_BINDING)
	}
	gl.ActiveTexture(Enum(s.activeTexture))

	s.blend = gl.IsEnabled(BLEND)
	s.cull = gl.IsEnabled(CULL_FACE)
	s.stencil = gl.IsEnabled(STENCIL_TEST)
	s.depth = gl.IsEnabled(DEPTH_TEST)
	s.scissor = gl.IsEnabled(SCISSOR_TEST)
	s.sampleMask = gl.IsEnabled(SAMPLE_MASK)

	s.blendSrcRGB = getInt(gl, BLEND_SRC_RGB)
	s.blendDstRGB = getInt(gl, BLEND_DST_RGB)
	s.blendSrcAlpha = getInt(gl, BLEND_SRC_ALPHA)
	s.blendDstAlpha = getInt(gl, BLEND_DST_ALPHA)
	s.blendEqRGB = getInt(gl, BLEND_EQUATION_RGB)
	s.blendEqAlpha = getInt(gl, BLEND_EQUATION_ALPHA)
	s.cullFace = getInt(gl, CULL_FACE_MODE)
	s.frontFace = getInt(gl, FRONT_FACE)
	gl.GetIntegerv(POLYGON_MODE, s.polygonMode[:])
	gl.GetBooleanv(COLOR_WRITEMASK, s.colorMask[:])
	gl.GetIntegerv(VIEWPORT, s.viewport[:])
	gl.GetFloatv(DEPTH_RANGE, s.depthRange[:])
	s.valid = true
}

func (s *savedState) restore(gl Functions) {
	if !s.valid {
		return
	}
	gl.UseProgram(uint32(s.program))
	gl.BindVertexArray(uint32(s.vao))
	gl.BindBuffer(ARRAY_BUFFER, uint32(s.arrayBuffer))
	gl.BindBuffer(ELEMENT_ARRAY_BUFFER, uint32(s.elementBuffer))
	for i := range s.textures {
		gl.ActiveTexture(TEXTURE0 + Enum(i))
		gl.BindTexture(TEXTURE_2D, uint32(s.textures[i]))
		gl.BindSampler(uint32(i), uint32(s.samplers[i]))
	}
	gl.ActiveTexture(Enum(s.activeTexture))

	setEnabled(gl, BLEND, s.blend)
	setEnabled(gl, CULL_FACE, s.cull)
	setEnabled(gl, STENCIL_TEST, s.stencil)
	setEnabled(gl, DEPTH_TEST, s.depth)
	setEnabled(gl, SCISSOR_TEST, s.scissor)
	if s.sampleMask {
		gl.Enable(SAMPLE_MASK)
	} else {
		gl.SampleMaski(0, 0xFFFFFFFF)
		gl.Disable(SAMPLE_MASK)
	}

	gl.BlendFuncSeparate(Enum(s.blendSrcRGB), Enum(s.blendDstRGB), Enum(s.blendSrcAlpha), Enum(s.blendDstAlpha))
	gl.BlendEquationSeparate(Enum(s.blendEqRGB), Enum(s.blendEqAlpha))
	gl.CullFace(Enum(s.cullFace))
	gl.FrontFace(Enum(s.frontFace))
	gl.PolygonMode(FRONT_AND_BACK, Enum(s.polygonMode[0]))
	gl.ColorMask(s.colorMask[0], s.colorMask[1], s.colorMask[2], s.colorMask[3])
	gl.Viewport(s.viewport[0], s.viewport[1], s.viewport[2], s.viewport[3])
	gl.DepthRange(float64(s.depthRange[0]), float64(s.depthRange[1]))
	*s = savedState{}
}
