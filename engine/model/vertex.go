package model

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// GPUVertex is the vertex layout of opaque primitives (32 bytes).
type GPUVertex struct {
	Position [3]float32 // offset  0, location 0
	Normal   [3]float32 // offset 12, location 1
	TexCoord [2]float32 // offset 24, location 2
}

// Size returns the size of the GPUVertex struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPULineVertex is the vertex layout of line primitives (28 bytes).
type GPULineVertex struct {
	Position [3]float32 // offset  0, location 0
	Color    [4]float32 // offset 12, location 1
}

// Size returns the size of the GPULineVertex struct in bytes.
func (g *GPULineVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// VertexLayout describes GPUVertex for pipeline creation.
var VertexLayout = gpu.VertexLayout{
	Stride: uint64(unsafe.Sizeof(GPUVertex{})),
	Attributes: []gpu.VertexAttribute{
		{Format: gpu.VertexFormatFloat32x3, Offset: 0, Location: 0},
		{Format: gpu.VertexFormatFloat32x3, Offset: 12, Location: 1},
		{Format: gpu.VertexFormatFloat32x2, Offset: 24, Location: 2},
	},
}

// LineVertexLayout describes GPULineVertex for pipeline creation.
var LineVertexLayout = gpu.VertexLayout{
	Stride: uint64(unsafe.Sizeof(GPULineVertex{})),
	Attributes: []gpu.VertexAttribute{
		{Format: gpu.VertexFormatFloat32x3, Offset: 0, Location: 0},
		{Format: gpu.VertexFormatFloat32x4, Offset: 12, Location: 1},
	},
}

// MarshalVertices packs vertices into the byte layout described by VertexLayout.
func MarshalVertices(vs []GPUVertex) []byte {
	return append([]byte(nil), common.SliceToBytes(vs)...)
}

// MarshalLineVertices packs vertices into the byte layout described by LineVertexLayout.
func MarshalLineVertices(vs []GPULineVertex) []byte {
	return append([]byte(nil), common.SliceToBytes(vs)...)
}
