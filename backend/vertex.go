package backend

import (
	"encoding/binary"
	"math"
)

// Vertex strides in bytes.
//
//	shader backends: position f32x3 @0, color f32x4 @12, uv0 f32x2 @28, uv1 f32x2 @36
//	legacy backends: position f32x3 @0, ARGB u32 @12, uv0 f32x2 @16
const (
	VertexStride       = 44
	PackedVertexStride = 24
)

// Vertex is the canonical vertex format.
type Vertex struct {
	Pos   [3]float32
	Color [4]float32 // r, g, b, a in 0..1
	UV0   [2]float32
	UV1   [2]float32 // mask coordinates
}

// PackARGB returns the color packed as 0xAARRGGBB.
func PackARGB(c [4]float32) uint32 {
	return uint32(unorm8(c[3]))<<24 |
		uint32(unorm8(c[0]))<<16 |
		uint32(unorm8(c[1]))<<8 |
		uint32(unorm8(c[2]))
}

func unorm8(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// AppendBytes appends the 44-byte little-endian encoding of v to dst.
func (v *Vertex) AppendBytes(dst []byte) []byte {
	dst = appendF32(dst, v.Pos[:]...)
	dst = appendF32(dst, v.Color[:]...)
	dst = appendF32(dst, v.UV0[:]...)
	return appendF32(dst, v.UV1[:]...)
}

// AppendPacked appends the 24-byte legacy encoding of v to dst.
func (v *Vertex) AppendPacked(dst []byte) []byte {
	dst = appendF32(dst, v.Pos[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, PackARGB(v.Color))
	return appendF32(dst, v.UV0[:]...)
}

// VertexBytes encodes vertices in the 44-byte layout.
func VertexBytes(vs []Vertex) []byte {
	buf := make([]byte, 0, len(vs)*VertexStride)
	for i := range vs {
		buf = vs[i].AppendBytes(buf)
	}
	return buf
}

// IndexBytes encodes indices as little-endian uint16.
func IndexBytes(idx []uint16) []byte {
	buf := make([]byte, 0, len(idx)*2)
	for _, i := range idx {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	return buf
}

func appendF32(dst []byte, vs ...float32) []byte {
	for _, f := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
