// Package camera holds the projection parameters of a scene camera.
//
// A Camera is a pure value with no GPU resources. Its placement comes from the scene node that
// references it; the view matrix is the inverse of that node's world transform.
package camera

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind selects the projection model of a Camera.
type Kind int

const (
	// KindFinitePerspective is a perspective projection with a far clipping plane.
	KindFinitePerspective Kind = iota
	// KindInfinitePerspective is a perspective projection whose far plane is at infinity.
	KindInfinitePerspective
	// KindOrthographic is a parallel projection of a width x height box.
	KindOrthographic
)

func (k Kind) String() string {
	switch k {
	case KindFinitePerspective:
		return "finite-perspective"
	case KindInfinitePerspective:
		return "infinite-perspective"
	case KindOrthographic:
		return "orthographic"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Camera describes a projection. Fields not used by Kind are ignored.
type Camera struct {
	Kind Kind
	// Aspect is width / height, perspective only.
	Aspect float32
	// Fov is the vertical field of view in radians, perspective only.
	Fov float32
	// Width and Height are the view volume extents, orthographic only.
	Width, Height float32
	Near, Far     float32
}

// FinitePerspective returns a perspective camera clipped at far.
func FinitePerspective(aspect, fov, near, far float32) Camera {
	return Camera{Kind: KindFinitePerspective, Aspect: aspect, Fov: fov, Near: near, Far: far}
}

// InfinitePerspective returns a perspective camera with no far plane.
func InfinitePerspective(aspect, fov, near float32) Camera {
	return Camera{Kind: KindInfinitePerspective, Aspect: aspect, Fov: fov, Near: near}
}

// Orthographic returns a parallel projection of a width x height box centred on the view axis.
func Orthographic(width, height, near, far float32) Camera {
	return Camera{Kind: KindOrthographic, Width: width, Height: height, Near: near, Far: far}
}

// WithAspect returns a copy of c with its aspect ratio replaced. Orthographic cameras keep their
// height and derive the width from the aspect.
func (c Camera) WithAspect(aspect float32) Camera {
	if aspect <= 0 || math.IsNaN(float64(aspect)) {
		return c
	}
	switch c.Kind {
	case KindOrthographic:
		c.Width = c.Height * aspect
	default:
		c.Aspect = aspect
	}
	return c
}

// Projection returns the projection matrix in WebGPU clip space (x, y in [-1, 1], depth in [0, 1]),
// right-handed with the camera looking down -Z.
func (c Camera) Projection() mgl32.Mat4 {
	switch c.Kind {
	case KindOrthographic:
		return orthographic(c.Width, c.Height, c.Near, c.Far)
	case KindInfinitePerspective:
		f := 1 / float32(math.Tan(float64(c.Fov)/2))
		return mgl32.Mat4{
			f / c.Aspect, 0, 0, 0,
			0, f, 0, 0,
			0, 0, -1, -1,
			0, 0, -c.Near, 0,
		}
	default:
		f := 1 / float32(math.Tan(float64(c.Fov)/2))
		return mgl32.Mat4{
			f / c.Aspect, 0, 0, 0,
			0, f, 0, 0,
			0, 0, c.Far / (c.Near - c.Far), -1,
			0, 0, c.Near * c.Far / (c.Near - c.Far), 0,
		}
	}
}

func orthographic(width, height, near, far float32) mgl32.Mat4 {
	return mgl32.Mat4{
		2 / width, 0, 0, 0,
		0, 2 / height, 0, 0,
		0, 0, 1 / (near - far), 0,
		0, 0, near / (near - far), 1,
	}
}

// View returns the view matrix for a camera placed at the given world transform.
func View(world mgl32.Mat4) mgl32.Mat4 {
	if world.Det() == 0 {
		return mgl32.Ident4()
	}
	return world.Inv()
}
