package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrUnknownStateField is returned by RenderState.Set for invalid fields.
var ErrUnknownStateField = errors.New("backend: unknown render state field")

// FillMode selects solid or wireframe rasterization.
type FillMode uint8

// Fill modes.
const (
	FillSolid FillMode = iota
	FillWireframe
)

// String returns the fill mode name.
func (m FillMode) String() string {
	if m == FillWireframe {
		return "Wireframe"
	}
	return "Solid"
}

// RenderState is the normalized render state block. Backends translate it
// into native pipeline objects in SetRenderStates.
type RenderState struct {
	BlendEnable   bool
	SrcBlend      gputypes.BlendFactor
	DstBlend      gputypes.BlendFactor
	SrcBlendAlpha gputypes.BlendFactor
	DstBlendAlpha gputypes.BlendFactor
	BlendOp       gputypes.BlendOperation
	BlendOpAlpha  gputypes.BlendOperation
	WriteMask     gputypes.ColorWriteMask
	CullMode      gputypes.CullMode
	FillMode      FillMode
	StencilEnable bool
	SampleMask    uint32
}

// DefaultRenderState returns straight-alpha blending factors with blending
// disabled, no culling and solid fill.
func DefaultRenderState() RenderState {
	return RenderState{
		SrcBlend:      gputypes.BlendFactorSrcAlpha,
		DstBlend:      gputypes.BlendFactorOneMinusSrcAlpha,
		SrcBlendAlpha: gputypes.BlendFactorOne,
		DstBlendAlpha: gputypes.BlendFactorZero,
		BlendOp:       gputypes.BlendOperationAdd,
		BlendOpAlpha:  gputypes.BlendOperationAdd,
		WriteMask:     gputypes.ColorWriteMaskAll,
		CullMode:      gputypes.CullModeNone,
		FillMode:      FillSolid,
		SampleMask:    0xFFFFFFFF,
	}
}

// BlendState returns the gputypes blend description, or nil when blending
// is disabled.
func (rs *RenderState) BlendState() *gputypes.BlendState {
	if !rs.BlendEnable {
		return nil
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: rs.SrcBlend,
			DstFactor: rs.DstBlend,
			Operation: rs.BlendOp,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: rs.SrcBlendAlpha,
			DstFactor: rs.DstBlendAlpha,
			Operation: rs.BlendOpAlpha,
		},
	}
}

// StateField selects one RenderState member for Set.
type StateField uint8

// Render state fields.
const (
	StateBlendEnable StateField = iota
	StateSrcBlend
	StateDstBlend
	StateSrcBlendAlpha
	StateDstBlendAlpha
	StateBlendOp
	StateBlendOpAlpha
	StateWriteMask
	StateCullMode
	StateFillMode
	StateStencilEnable
	StateSampleMask

	stateFieldCount
)

var stateFieldNames = [stateFieldCount]string{
	"BlendEnable", "SrcBlend", "DstBlend", "SrcBlendAlpha", "DstBlendAlpha",
	"BlendOp", "BlendOpAlpha", "WriteMask", "CullMode", "FillMode",
	"StencilEnable", "SampleMask",
}

// String returns the field name.
func (f StateField) String() string {
	if f >= stateFieldCount {
		return fmt.Sprintf("StateField(%d)", uint8(f))
	}
	return stateFieldNames[f]
}

// Set assigns value to field. Enum fields take the gputypes numeric value;
// boolean fields treat any non-zero value as true.
func (rs *RenderState) Set(field StateField, value uint32) error {
	switch field {
	case StateBlendEnable:
		rs.BlendEnable = value != 0
	case StateSrcBlend:
		return setFactor(&rs.SrcBlend, field, value)
	case StateDstBlend:
		return setFactor(&rs.DstBlend, field, value)
	case StateSrcBlendAlpha:
		return setFactor(&rs.SrcBlendAlpha, field, value)
	case StateDstBlendAlpha:
		return setFactor(&rs.DstBlendAlpha, field, value)
	case StateBlendOp:
		return setOp(&rs.BlendOp, field, value)
	case StateBlendOpAlpha:
		return setOp(&rs.BlendOpAlpha, field, value)
	case StateWriteMask:
		if value&^uint32(gputypes.ColorWriteMaskAll) != 0 {
			return fmt.Errorf("backend: %s: invalid mask %#x", field, value)
		}
		rs.WriteMask = gputypes.ColorWriteMask(value)
	case StateCullMode:
		if value > uint32(gputypes.CullModeBack) {
			return fmt.Errorf("backend: %s: invalid value %d", field, value)
		}
		rs.CullMode = gputypes.CullMode(value)
	case StateFillMode:
		if value > uint32(FillWireframe) {
			return fmt.Errorf("backend: %s: invalid value %d", field, value)
		}
		rs.FillMode = FillMode(value)
	case StateStencilEnable:
		rs.StencilEnable = value != 0
	case StateSampleMask:
		rs.SampleMask = value
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStateField, field)
	}
	return nil
}

func setFactor(dst *gputypes.BlendFactor, field StateField, value uint32) error {
	if value == uint32(gputypes.BlendFactorUndefined) || value > uint32(gputypes.BlendFactorOneMinusConstant) {
		return fmt.Errorf("backend: %s: invalid blend factor %d", field, value)
	}
	*dst = gputypes.BlendFactor(value)
	return nil
}

func setOp(dst *gputypes.BlendOperation, field StateField, value uint32) error {
	if value == uint32(gputypes.BlendOperationUndefined) || value > uint32(gputypes.BlendOperationMax) {
		return fmt.Errorf("backend: %s: invalid blend operation %d", field, value)
	}
	*dst = gputypes.BlendOperation(value)
	return nil
}
