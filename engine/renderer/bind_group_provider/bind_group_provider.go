package bind_group_provider

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources. Buffers and the bind group are owned and released
	// with the provider; texture views and samplers are borrowed from the scene unless listed in owned.

	// bindGroup is the GPU bind group, or nil for mesh-only providers.
	bindGroup gpu.BindGroup
	// buffers holds the uniform buffers of this provider, keyed by binding index.
	buffers map[int]gpu.Buffer
	// textureViews holds the texture views bound by this provider, keyed by binding index.
	textureViews map[int]gpu.TextureView
	// samplers holds the samplers bound by this provider, keyed by binding index.
	samplers map[int]gpu.Sampler
	// owned lists extra objects released together with the provider.
	owned []gpu.Releaser

	// The following fields describe mesh providers.

	vertexBuffer gpu.Buffer
	indexBuffer  gpu.Buffer
	indexFormat  gpu.IndexFormat
	indexCount   int
	vertexCount  int

	releaseOnce sync.Once
}

// BindGroupProvider is the GPU-side binding object of one draw context: a bind group plus the uniform
// buffers it points at, or the vertex and index buffers of one primitive.
//
// Usage pattern:
//  1. A pipeline builds a provider inside a descriptor cache builder function
//  2. The cache stores it under the draw-context key
//  3. Every frame the pipeline rewrites the provider's buffers with a BufferWrite
//  4. The command buffer binds BindGroup() for the draw
//  5. The cache (or deferred deletion) calls Release once no frame references it
type BindGroupProvider interface {
	// Release releases every GPU object owned by this provider. Safe to call more than once.
	Release()

	// Label returns the debug label for this provider.
	Label() string

	// BindGroup returns the bind group, or nil for mesh providers.
	BindGroup() gpu.BindGroup

	// Buffer returns the uniform buffer at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Buffer: the buffer or nil
	Buffer(binding int) gpu.Buffer

	// Buffers returns all uniform buffers keyed by binding index.
	Buffers() map[int]gpu.Buffer

	// TextureView returns the texture view at binding, or nil.
	TextureView(binding int) gpu.TextureView

	// Sampler returns the sampler at binding, or nil.
	Sampler(binding int) gpu.Sampler

	// VertexBuffer returns the vertex buffer, or nil.
	VertexBuffer() gpu.Buffer

	// IndexBuffer returns the index buffer, or nil for non-indexed meshes.
	IndexBuffer() gpu.Buffer

	// IndexFormat returns the element type of IndexBuffer as stored on the GPU.
	IndexFormat() gpu.IndexFormat

	// IndexCount returns the number of indices to draw.
	IndexCount() int

	// VertexCount returns the number of vertices to draw for non-indexed meshes.
	VertexCount() int

	// SetBindGroup sets the bind group once it has been created from the provider's resources.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg gpu.BindGroup)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the given label and options.
//
// Parameters:
//   - label: a debug label for the provider
//   - options: BindGroupProviderOption values applied in order
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]gpu.Buffer),
		textureViews: make(map[int]gpu.TextureView),
		samplers:     make(map[int]gpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Release() {
	p.releaseOnce.Do(func() {
		if p.bindGroup != nil {
			p.bindGroup.Release()
		}
		for _, b := range p.buffers {
			b.Release()
		}
		if p.vertexBuffer != nil {
			p.vertexBuffer.Release()
		}
		if p.indexBuffer != nil {
			p.indexBuffer.Release()
		}
		for _, r := range p.owned {
			r.Release()
		}
	})
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() gpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) gpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]gpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) TextureView(binding int) gpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) gpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() gpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() gpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexFormat() gpu.IndexFormat {
	return p.indexFormat
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) VertexCount() int {
	return p.vertexCount
}

func (p *bindGroupProvider) SetBindGroup(bg gpu.BindGroup) {
	p.bindGroup = bg
}

// Entries returns the bind group entries described by the provider's buffers, texture views and samplers,
// ordered by binding index.
//
// Parameters:
//   - p: the provider
//
// Returns:
//   - []gpu.BindGroupEntry: one entry per binding
func Entries(p BindGroupProvider) []gpu.BindGroupEntry {
	impl, ok := p.(*bindGroupProvider)
	if !ok {
		return nil
	}
	hi := -1
	for b := range impl.buffers {
		hi = max(hi, b)
	}
	for b := range impl.textureViews {
		hi = max(hi, b)
	}
	for b := range impl.samplers {
		hi = max(hi, b)
	}
	var entries []gpu.BindGroupEntry
	for b := 0; b <= hi; b++ {
		e := gpu.BindGroupEntry{Binding: b, Buffer: impl.buffers[b], TextureView: impl.textureViews[b], Sampler: impl.samplers[b]}
		if e.Buffer == nil && e.TextureView == nil && e.Sampler == nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
