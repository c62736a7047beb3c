package model

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// QuadPrimitive returns a 2x2 quad in the XY plane facing +Z, indexed with 16-bit indices.
func QuadPrimitive(material arena.Handle[Material]) Primitive {
	n := [3]float32{0, 0, 1}
	vs := []GPUVertex{
		{Position: [3]float32{-1, -1, 0}, Normal: n, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{1, -1, 0}, Normal: n, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{1, 1, 0}, Normal: n, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{-1, 1, 0}, Normal: n, TexCoord: [2]float32{0, 0}},
	}
	return Primitive{
		Vertices:     MarshalVertices(vs),
		VertexStride: int(VertexLayout.Stride),
		Indices:      indices16(0, 1, 2, 0, 2, 3),
		IndexFormat:  gpu.IndexFormatUint16,
		Topology:     gpu.TopologyTriangleList,
		Material:     material,
	}
}

// CubePrimitive returns a unit cube centred on the origin with per-face normals, indexed with 8-bit indices.
func CubePrimitive(material arena.Handle[Material]) Primitive {
	faces := []struct {
		normal, u, v [3]float32
	}{
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	var vs []GPUVertex
	var is []byte
	for _, f := range faces {
		base := byte(len(vs))
		for _, c := range corners {
			var p [3]float32
			for k := range 3 {
				p[k] = 0.5 * (f.normal[k] + c[0]*f.u[k] + c[1]*f.v[k])
			}
			vs = append(vs, GPUVertex{Position: p, Normal: f.normal, TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2}})
		}
		is = append(is, base, base+1, base+2, base, base+2, base+3)
	}
	return Primitive{
		Vertices:     MarshalVertices(vs),
		VertexStride: int(VertexLayout.Stride),
		Indices:      is,
		IndexFormat:  gpu.IndexFormatUint8,
		Topology:     gpu.TopologyTriangleList,
		Material:     material,
	}
}

// AxisLinesPrimitive returns three non-indexed lines of the given length along +X (red), +Y (green)
// and +Z (blue).
func AxisLinesPrimitive(material arena.Handle[Material], length float32) Primitive {
	red := [4]float32{1, 0, 0, 1}
	green := [4]float32{0, 1, 0, 1}
	blue := [4]float32{0, 0, 1, 1}
	vs := []GPULineVertex{
		{Position: [3]float32{0, 0, 0}, Color: red}, {Position: [3]float32{length, 0, 0}, Color: red},
		{Position: [3]float32{0, 0, 0}, Color: green}, {Position: [3]float32{0, length, 0}, Color: green},
		{Position: [3]float32{0, 0, 0}, Color: blue}, {Position: [3]float32{0, 0, length}, Color: blue},
	}
	return Primitive{
		Vertices:     MarshalLineVertices(vs),
		VertexStride: int(LineVertexLayout.Stride),
		Topology:     gpu.TopologyLineList,
		Material:     material,
	}
}

func indices16(is ...uint16) []byte {
	out := make([]byte, len(is)*2)
	for i, idx := range is {
		binary.LittleEndian.PutUint16(out[i*2:], idx)
	}
	return out
}
