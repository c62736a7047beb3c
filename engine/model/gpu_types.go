package model

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUModelUniform is the GPU-aligned per-node uniform: the world matrix and the matrix used to transform
// normals (128 bytes).
type GPUModelUniform struct {
	Model  [16]float32 // offset  0
	Normal [16]float32 // offset 64
}

// NewGPUModelUniform builds the uniform for a node world transform.
func NewGPUModelUniform(world mgl32.Mat4) GPUModelUniform {
	return GPUModelUniform{Model: world, Normal: common.NormalMatrix(world)}
}

// Size returns the size of the GPUModelUniform struct in bytes.
func (g *GPUModelUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
func (g *GPUModelUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutMat4(buf, 0, g.Model)
	common.PutMat4(buf, off, g.Normal)
	return buf
}
