package material

import (
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a functional option used to configure a material binding.
type MaterialBuilderOption func(*binding)

// WithBaseColor sets the RGBA base color of the material.
//
// Parameters:
//   - color: the base color
//
// Returns:
//   - MaterialBuilderOption: a function that sets the base color
func WithBaseColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(b *binding) {
		b.baseColor = color
	}
}

// WithTexture sets the texture view and sampler of the material.
//
// Parameters:
//   - view: the texture view sampled by the fragment shader
//   - sampler: the sampler used to read view
//
// Returns:
//   - MaterialBuilderOption: a function that sets the texture
func WithTexture(view gpu.TextureView, sampler gpu.Sampler) MaterialBuilderOption {
	return func(b *binding) {
		b.view = view
		b.sampler = sampler
	}
}
