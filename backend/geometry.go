package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Geometry buffer capacity. Indices are 16 bits wide, so a frame can
// address at most MaxVertices vertices.
const (
	MaxVertices = 65536
	MaxIndices  = 65536
)

// Geometry errors.
var (
	// ErrGeometryOverflow is returned when a frame exceeds MaxVertices or MaxIndices.
	ErrGeometryOverflow = errors.New("backend: geometry buffer overflow")

	// ErrIndexOutOfRange is returned by Validate for indices past the vertex count.
	ErrIndexOutOfRange = errors.New("backend: index out of range")
)

// Topology is the primitive type of a frame.
type Topology uint8

// Topologies.
const (
	TopologyTriangle Topology = iota
	TopologyLine
	TopologyPoint
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case TopologyTriangle:
		return "Triangle"
	case TopologyLine:
		return "Line"
	case TopologyPoint:
		return "Point"
	default:
		return "Unknown"
	}
}

// PrimitiveCount returns how many primitives n indices form.
func (t Topology) PrimitiveCount(n int) int {
	switch t {
	case TopologyLine:
		return n / 2
	case TopologyPoint:
		return n
	default:
		return n / 3
	}
}

// GPUTopology maps t to the list topology used by pipeline descriptors.
func (t Topology) GPUTopology() gputypes.PrimitiveTopology {
	switch t {
	case TopologyLine:
		return gputypes.PrimitiveTopologyLineList
	case TopologyPoint:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// Geometry accumulates the vertices and indices of one Begin/End frame.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint16
	Topology Topology

	explicit bool
}

// NewGeometry returns an empty triangle geometry buffer.
func NewGeometry() *Geometry {
	return &Geometry{
		Vertices: make([]Vertex, 0, 1024),
		Indices:  make([]uint16, 0, 1024),
	}
}

// Reset clears vertices and indices and sets the topology.
func (g *Geometry) Reset(t Topology) {
	g.Vertices = g.Vertices[:0]
	g.Indices = g.Indices[:0]
	g.Topology = t
	g.explicit = false
}

// AddVertex appends v.
func (g *Geometry) AddVertex(v Vertex) error {
	if len(g.Vertices) >= MaxVertices {
		return fmt.Errorf("%w: more than %d vertices", ErrGeometryOverflow, MaxVertices)
	}
	g.Vertices = append(g.Vertices, v)
	return nil
}

// AddIndex appends one explicit index.
func (g *Geometry) AddIndex(i uint16) error {
	if len(g.Indices) >= MaxIndices {
		return fmt.Errorf("%w: more than %d indices", ErrGeometryOverflow, MaxIndices)
	}
	g.Indices = append(g.Indices, i)
	g.explicit = true
	return nil
}

// SetIndices replaces the index list with the first n entries of idx.
func (g *Geometry) SetIndices(idx []uint16, n int) error {
	if n < 0 || n > len(idx) {
		return fmt.Errorf("backend: index count %d outside [0,%d]", n, len(idx))
	}
	if n > MaxIndices {
		return fmt.Errorf("%w: %d indices", ErrGeometryOverflow, n)
	}
	g.Indices = append(g.Indices[:0], idx[:n]...)
	g.explicit = true
	return nil
}

// HasExplicitIndices reports whether indices were supplied by the caller.
func (g *Geometry) HasExplicitIndices() bool { return g.explicit }

// DeriveIndices fills the identity sequence 0..len(Vertices)-1 when no
// explicit indices were supplied.
func (g *Geometry) DeriveIndices() {
	if g.explicit {
		return
	}
	g.Indices = g.Indices[:0]
	for i := range g.Vertices {
		g.Indices = append(g.Indices, uint16(i))
	}
}

// Validate checks that every index references an existing vertex.
func (g *Geometry) Validate() error {
	n := len(g.Vertices)
	for pos, i := range g.Indices {
		if int(i) >= n {
			return fmt.Errorf("%w: indices[%d]=%d with %d vertices", ErrIndexOutOfRange, pos, i, n)
		}
	}
	return nil
}

// NumIndices returns the number of indices the draw covers.
func (g *Geometry) NumIndices() int { return len(g.Indices) }

// Empty reports whether there is nothing to draw.
func (g *Geometry) Empty() bool { return len(g.Vertices) == 0 || len(g.Indices) == 0 }
