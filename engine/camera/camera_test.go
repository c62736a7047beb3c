package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	return v.Vec3().Mul(1 / v.W())
}

func TestFinitePerspectiveDepthRange(t *testing.T) {
	c := FinitePerspective(1, math.Pi/4, 0.1, 100)
	proj := c.Projection()

	assert.InDelta(t, 0, project(proj, mgl32.Vec3{0, 0, -0.1}).Z(), 1e-5)
	assert.InDelta(t, 1, project(proj, mgl32.Vec3{0, 0, -100}).Z(), 1e-4)
}

func TestInfinitePerspectiveNearPlane(t *testing.T) {
	proj := InfinitePerspective(1, math.Pi/4, 0.1).Projection()
	assert.InDelta(t, 0, project(proj, mgl32.Vec3{0, 0, -0.1}).Z(), 1e-5)
	far := project(proj, mgl32.Vec3{0, 0, -1000}).Z()
	assert.Less(t, far, float32(1))
	assert.Greater(t, far, float32(0.999))
}

func TestOrthographicMapsBox(t *testing.T) {
	proj := Orthographic(4, 2, 1, 11).Projection()
	p := project(proj, mgl32.Vec3{2, 1, -11})
	assert.InDelta(t, 1, p.X(), 1e-6)
	assert.InDelta(t, 1, p.Y(), 1e-6)
	assert.InDelta(t, 1, p.Z(), 1e-6)
}

func TestWithAspect(t *testing.T) {
	c := FinitePerspective(1, 1, 0.1, 10).WithAspect(2)
	assert.Equal(t, float32(2), c.Aspect)
	assert.Equal(t, c, c.WithAspect(0))

	o := Orthographic(2, 2, 0, 1).WithAspect(1.5)
	assert.Equal(t, float32(3), o.Width)
}

func TestUniformMarshal(t *testing.T) {
	world := mgl32.Translate3D(0, 0, 3)
	u := NewGPUCameraUniform(FinitePerspective(1, math.Pi/4, 0.1, 100), world)
	assert.Equal(t, 208, u.Size())
	assert.Len(t, u.Marshal(), 208)
	assert.Equal(t, [3]float32{0, 0, 3}, u.CameraPosition)
	assert.InDelta(t, -3, u.View[14], 1e-6)
}
