package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	label  string
	buffer *wgpu.Buffer
	size   uint64
	usage  gpu.BufferUsage
}

func (b *wgpuBuffer) Label() string          { return b.label }
func (b *wgpuBuffer) Size() uint64           { return b.size }
func (b *wgpuBuffer) Usage() gpu.BufferUsage { return b.usage }

func (b *wgpuBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

type wgpuTextureView struct {
	label  string
	view   *wgpu.TextureView
	format gpu.TextureFormat
}

func (v *wgpuTextureView) Label() string             { return v.label }
func (v *wgpuTextureView) Format() gpu.TextureFormat { return v.format }

func (v *wgpuTextureView) Release() {
	if v.view != nil {
		v.view.Release()
		v.view = nil
	}
}

type wgpuTexture struct {
	label   string
	texture *wgpu.Texture
	desc    gpu.TextureDescriptor
	view    *wgpuTextureView
}

func (t *wgpuTexture) Label() string                     { return t.label }
func (t *wgpuTexture) Descriptor() gpu.TextureDescriptor { return t.desc }
func (t *wgpuTexture) View() gpu.TextureView             { return t.view }

func (t *wgpuTexture) Release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

type wgpuSampler struct {
	label   string
	sampler *wgpu.Sampler
}

func (s *wgpuSampler) Label() string { return s.label }

func (s *wgpuSampler) Release() {
	if s.sampler != nil {
		s.sampler.Release()
		s.sampler = nil
	}
}

type wgpuBindGroupLayout struct {
	layout *wgpu.BindGroupLayout
	desc   gpu.BindGroupLayoutDescriptor
}

func (l *wgpuBindGroupLayout) Label() string                            { return l.desc.Label }
func (l *wgpuBindGroupLayout) Descriptor() gpu.BindGroupLayoutDescriptor { return l.desc }

func (l *wgpuBindGroupLayout) Release() {
	if l.layout != nil {
		l.layout.Release()
		l.layout = nil
	}
}

type wgpuBindGroup struct {
	label  string
	group  *wgpu.BindGroup
	layout *wgpuBindGroupLayout
}

func (g *wgpuBindGroup) Label() string               { return g.label }
func (g *wgpuBindGroup) Layout() gpu.BindGroupLayout { return g.layout }

func (g *wgpuBindGroup) Release() {
	if g.group != nil {
		g.group.Release()
		g.group = nil
	}
}

type wgpuRenderPipeline struct {
	label    string
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	groups   []*wgpuBindGroupLayout
	topology gpu.Topology
}

func (p *wgpuRenderPipeline) Label() string          { return p.label }
func (p *wgpuRenderPipeline) Topology() gpu.Topology { return p.topology }

func (p *wgpuRenderPipeline) BindGroupLayout(group int) gpu.BindGroupLayout {
	if group < 0 || group >= len(p.groups) {
		return nil
	}
	return p.groups[group]
}

func (p *wgpuRenderPipeline) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for _, g := range p.groups {
		g.Release()
	}
	p.groups = nil
}

// wgpuFence tracks the submission index of the last Submit that named it.
// WebGPU has no fence object, completion is observed by polling the device for that index.
type wgpuFence struct {
	mu      sync.Mutex
	label   string
	index   wgpu.SubmissionIndex
	pending bool
}

func (f *wgpuFence) Label() string { return f.label }
func (f *wgpuFence) Release()      {}

func (f *wgpuFence) Signaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.pending
}

func (f *wgpuFence) arm(index wgpu.SubmissionIndex) {
	f.mu.Lock()
	f.index = index
	f.pending = true
	f.mu.Unlock()
}

func (f *wgpuFence) signal(index wgpu.SubmissionIndex) {
	f.mu.Lock()
	if f.index == index {
		f.pending = false
	}
	f.mu.Unlock()
}

func (f *wgpuFence) snapshot() (wgpu.SubmissionIndex, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index, f.pending
}

// wgpuSemaphore is an ordering token. The WebGPU queue already orders acquire, submit and present.
type wgpuSemaphore struct{}

func (wgpuSemaphore) Label() string { return "semaphore" }
func (wgpuSemaphore) Release()      {}
