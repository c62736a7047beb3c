package bind_group_provider

import "github.com/Carmen-Shannon/oxy-core/engine/gpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroup sets the bind group for this provider. The provider takes ownership.
func WithBindGroup(bg gpu.BindGroup) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroup = bg
	}
}

// WithBuffer sets the uniform buffer for a binding index. The provider takes ownership.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf gpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithTextureView sets a borrowed texture view for a binding index.
func WithTextureView(binding int, view gpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[binding] = view
	}
}

// WithSampler sets a borrowed sampler for a binding index.
func WithSampler(binding int, s gpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
	}
}

// WithOwned hands extra objects to the provider to release together with it.
func WithOwned(rs ...gpu.Releaser) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.owned = append(p.owned, rs...)
	}
}

// WithVertexBuffer sets the vertex buffer and vertex count of a mesh provider. The provider takes ownership.
func WithVertexBuffer(buf gpu.Buffer, vertexCount int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer = buf
		p.vertexCount = vertexCount
	}
}

// WithIndexBuffer sets the index buffer of a mesh provider. The provider takes ownership.
//
// Parameters:
//   - buf: the index buffer
//   - format: the element type as stored on the GPU
//   - indexCount: the number of indices
//
// Returns:
//   - BindGroupProviderOption: a function that sets the index buffer
func WithIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat, indexCount int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexBuffer = buf
		p.indexFormat = format
		p.indexCount = indexCount
	}
}
