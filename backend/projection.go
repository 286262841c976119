package backend

import "math"

// Viewport is a render target rectangle with its depth range.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// DefaultViewport returns {0, 0, 640, 480, 0, 1}.
func DefaultViewport() Viewport {
	return Viewport{Width: 640, Height: 480, MaxDepth: 1}
}

// Aspect returns Width/Height, or 1 for a degenerate viewport.
func (v Viewport) Aspect() float32 {
	if v.Height == 0 {
		return 1
	}
	return v.Width / v.Height
}

// ProjectionMode selects how the projection matrix is derived from the viewport.
type ProjectionMode uint8

// Projection modes.
const (
	ProjectionNone ProjectionMode = iota
	ProjectionOrthographic
	ProjectionPerspective
)

// Matrix is a row-major 4x4 matrix. Points are row vectors: p' = p * M.
type Matrix [16]float32

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// OrthoOffCenterLH builds a left-handed off-center orthographic projection.
func OrthoOffCenterLH(l, r, b, t, zn, zf float32) Matrix {
	rw := 1 / (r - l)
	rh := 1 / (t - b)
	rd := 1 / (zf - zn)
	return Matrix{
		2 * rw, 0, 0, 0,
		0, 2 * rh, 0, 0,
		0, 0, rd, 0,
		-(l + r) * rw, -(t + b) * rh, -zn * rd, 1,
	}
}

// PerspectiveFovLH builds a left-handed perspective projection. fovY is in radians.
func PerspectiveFovLH(fovY, aspect, zn, zf float32) Matrix {
	h := float32(1 / math.Tan(float64(fovY)/2))
	w := h / aspect
	q := zf / (zf - zn)
	return Matrix{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, q, 1,
		0, 0, -zn * q, 0,
	}
}

// Projection computes the matrix for mode from the view parameters.
// fovDeg is the vertical field of view in degrees.
func Projection(mode ProjectionMode, vp Viewport, fovDeg, zn, zf float32) Matrix {
	switch mode {
	case ProjectionOrthographic:
		return OrthoOffCenterLH(0, vp.Width, vp.Height, 0, zn, zf)
	case ProjectionPerspective:
		return PerspectiveFovLH(fovDeg*math.Pi/180, vp.Aspect(), zn, zf)
	default:
		return Identity()
	}
}

// Transpose returns the column-major copy of m, the layout shader constant
// buffers expect.
func (m Matrix) Transpose() Matrix {
	var t Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[c*4+r] = m[r*4+c]
		}
	}
	return t
}

// Mul returns m * n.
func (m Matrix) Mul(n Matrix) Matrix {
	var out Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += m[r*4+k] * n[k*4+c]
			}
			out[r*4+c] = s
		}
	}
	return out
}

// TransformPoint returns (x, y, z, 1) * m as homogeneous coordinates.
func (m Matrix) TransformPoint(x, y, z float32) (float32, float32, float32, float32) {
	return x*m[0] + y*m[4] + z*m[8] + m[12],
		x*m[1] + y*m[5] + z*m[9] + m[13],
		x*m[2] + y*m[6] + z*m[10] + m[14],
		x*m[3] + y*m[7] + z*m[11] + m[15]
}
