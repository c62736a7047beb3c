package camera

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniform is the GPU-aligned camera uniform. Matches the WGSL Camera struct of the
// bundled shaders (208 bytes).
type GPUCameraUniform struct {
	View           [16]float32 // offset   0
	Proj           [16]float32 // offset  64
	ViewProj       [16]float32 // offset 128
	CameraPosition [3]float32  // offset 192
	_pad           float32     // offset 204
}

// NewGPUCameraUniform builds the uniform for camera c placed at world.
func NewGPUCameraUniform(c Camera, world mgl32.Mat4) GPUCameraUniform {
	view := View(world)
	proj := c.Projection()
	return GPUCameraUniform{
		View:           view,
		Proj:           proj,
		ViewProj:       proj.Mul4(view),
		CameraPosition: common.TranslationOf(world),
	}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a little-endian byte buffer suitable for GPU upload.
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutMat4(buf, 0, g.View)
	off = common.PutMat4(buf, off, g.Proj)
	off = common.PutMat4(buf, off, g.ViewProj)
	common.PutFloats(buf, off, g.CameraPosition[0], g.CameraPosition[1], g.CameraPosition[2], 0)
	return buf
}
