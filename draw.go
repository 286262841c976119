package imdraw

import "github.com/gogpu/imdraw/backend"

// DrawRect draws the rectangle from (left, top) to (right, bottom) as two
// triangles in the current colour. Texture coordinates span 0..1 with
// (0, 0) at the top-left corner, so a bound texture covers the rectangle.
// DrawRect opens and closes its own frame; call it outside Begin/End.
func (r *Renderer) DrawRect(left, top, right, bottom float32) {
	if r.active() == nil {
		return
	}
	c := r.color
	r.Begin(backend.TopologyTriangle)
	r.color = c

	r.rectVertex(left, top, 0, 0)
	r.rectVertex(right, top, 1, 0)
	r.rectVertex(right, bottom, 1, 1)

	r.rectVertex(left, top, 0, 0)
	r.rectVertex(right, bottom, 1, 1)
	r.rectVertex(left, bottom, 0, 1)

	r.End()
}

func (r *Renderer) rectVertex(x, y, u, v float32) {
	r.uv0 = [2]float32{u, v}
	r.uv1 = r.uv0
	r.SetVertex2f(x, y)
}
