package backend

import (
	"math"
	"testing"
)

const eps = 1e-5

func near(a, b float32) bool { return math.Abs(float64(a-b)) < eps }

func TestOrthographicCorners(t *testing.T) {
	m := Projection(ProjectionOrthographic, DefaultViewport(), 60, 0.1, 100)

	tests := []struct {
		x, y   float32
		cx, cy float32
	}{
		{0, 0, -1, 1},
		{640, 480, 1, -1},
		{320, 240, 0, 0},
		{640, 0, 1, 1},
	}
	for _, tt := range tests {
		x, y, _, w := m.TransformPoint(tt.x, tt.y, 0)
		if !near(w, 1) {
			t.Fatalf("w = %v, want 1", w)
		}
		if !near(x, tt.cx) || !near(y, tt.cy) {
			t.Errorf("(%v,%v) -> (%v,%v), want (%v,%v)", tt.x, tt.y, x, y, tt.cx, tt.cy)
		}
	}
}

func TestOrthographicDepth(t *testing.T) {
	m := Projection(ProjectionOrthographic, DefaultViewport(), 60, 0.1, 100)
	if _, _, z, _ := m.TransformPoint(0, 0, 0.1); !near(z, 0) {
		t.Errorf("z(near) = %v, want 0", z)
	}
	if _, _, z, _ := m.TransformPoint(0, 0, 100); !near(z, 1) {
		t.Errorf("z(far) = %v, want 1", z)
	}
}

func TestProjectionNoneIsIdentity(t *testing.T) {
	if m := Projection(ProjectionNone, DefaultViewport(), 60, 0.1, 100); m != Identity() {
		t.Errorf("Projection(None) = %v", m)
	}
}

func TestPerspective(t *testing.T) {
	vp := Viewport{Width: 800, Height: 400, MaxDepth: 1}
	m := Projection(ProjectionPerspective, vp, 90, 1, 10)

	// tan(45°) = 1, so a point at the top edge of the frustum at depth z maps to y/w = 1.
	x, y, z, w := m.TransformPoint(0, 5, 5)
	if !near(w, 5) {
		t.Fatalf("w = %v, want 5", w)
	}
	if !near(y/w, 1) || !near(x, 0) {
		t.Errorf("y/w = %v x = %v", y/w, x)
	}
	if z/w <= 0 || z/w >= 1 {
		t.Errorf("z/w = %v outside (0,1)", z/w)
	}

	// Aspect 2 halves the horizontal scale.
	if !near(m[0], 0.5) {
		t.Errorf("m[0] = %v, want 0.5", m[0])
	}
	if _, _, z, w := m.TransformPoint(0, 0, 1); !near(z/w, 0) {
		t.Errorf("near plane depth = %v", z/w)
	}
}

func TestTranspose(t *testing.T) {
	var m Matrix
	for i := range m {
		m[i] = float32(i)
	}
	tr := m.Transpose()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if tr[c*4+r] != m[r*4+c] {
				t.Fatalf("tr[%d][%d] = %v", c, r, tr[c*4+r])
			}
		}
	}
	if tr.Transpose() != m {
		t.Error("double transpose differs")
	}
}

func TestMulIdentity(t *testing.T) {
	m := OrthoOffCenterLH(0, 10, 10, 0, 0, 1)
	if got := m.Mul(Identity()); got != m {
		t.Errorf("m * I = %v", got)
	}
}

func TestViewportAspect(t *testing.T) {
	if a := (Viewport{Width: 640, Height: 480}).Aspect(); !near(a, 640.0/480.0) {
		t.Errorf("Aspect() = %v", a)
	}
	if a := (Viewport{Width: 640}).Aspect(); a != 1 {
		t.Errorf("degenerate Aspect() = %v", a)
	}
}
