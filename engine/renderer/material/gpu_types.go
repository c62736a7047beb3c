package material

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-core/common"
)

// GPUMaterialUniform is the GPU-aligned material uniform of the opaque shader (16 bytes).
type GPUMaterialUniform struct {
	BaseColor [4]float32 // offset 0: RGBA multiplied into the sampled texel
}

// Size returns the size of the GPUMaterialUniform struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUMaterialUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutFloats(buf, 0, g.BaseColor[:]...)
	return buf
}
