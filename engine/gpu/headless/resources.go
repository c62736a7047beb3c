package headless

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// resource is the bookkeeping shared by every headless object.
type resource struct {
	dev      *Device
	label    string
	released atomic.Bool
	// inflight counts incomplete submissions referencing this object.
	inflight atomic.Int32
}

type tracked interface {
	base() *resource
}

func (r *resource) base() *resource { return r }

// Label returns the debug label.
func (r *resource) Label() string { return r.label }

// Release marks the object released. Releasing while a submission still references it is
// recorded as a violation on the device.
func (r *resource) Release() {
	if r.released.Swap(true) {
		return
	}
	r.dev.noteRelease(r)
}

// Released reports whether Release has been called.
func (r *resource) Released() bool { return r.released.Load() }

type buffer struct {
	resource
	size  uint64
	usage gpu.BufferUsage
	data  []byte
}

func (b *buffer) Size() uint64          { return b.size }
func (b *buffer) Usage() gpu.BufferUsage { return b.usage }

type texture struct {
	resource
	desc gpu.TextureDescriptor
	view *textureView
}

func (t *texture) Descriptor() gpu.TextureDescriptor { return t.desc }
func (t *texture) View() gpu.TextureView             { return t.view }

// Release releases the texture and its default view.
func (t *texture) Release() {
	t.view.Release()
	t.resource.Release()
}

type textureView struct {
	resource
	format gpu.TextureFormat
}

func (v *textureView) Format() gpu.TextureFormat { return v.format }

type sampler struct {
	resource
}

type bindGroupLayout struct {
	resource
	desc gpu.BindGroupLayoutDescriptor
}

func (l *bindGroupLayout) Descriptor() gpu.BindGroupLayoutDescriptor { return l.desc }

type bindGroup struct {
	resource
	layout  *bindGroupLayout
	entries []gpu.BindGroupEntry
}

func (g *bindGroup) Layout() gpu.BindGroupLayout { return g.layout }

type renderPipeline struct {
	resource
	layouts  []*bindGroupLayout
	topology gpu.Topology
	targets  []gpu.TextureFormat
}

func (p *renderPipeline) BindGroupLayout(group int) gpu.BindGroupLayout {
	if group < 0 || group >= len(p.layouts) {
		return nil
	}
	return p.layouts[group]
}

func (p *renderPipeline) Topology() gpu.Topology { return p.topology }

// Release releases the pipeline and the layouts it owns.
func (p *renderPipeline) Release() {
	for _, l := range p.layouts {
		l.Release()
	}
	p.resource.Release()
}

type fence struct {
	resource
	// done is closed once the last submission carrying this fence completes.
	done    chan struct{}
	pending bool
}

func (f *fence) Signaled() bool {
	f.dev.mu.Lock()
	defer f.dev.mu.Unlock()
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

type semaphore struct {
	resource
}

// BufferData returns a copy of the bytes last written to a headless buffer.
func BufferData(b gpu.Buffer) []byte {
	hb, ok := b.(*buffer)
	if !ok {
		return nil
	}
	hb.dev.mu.Lock()
	defer hb.dev.mu.Unlock()
	return append([]byte(nil), hb.data...)
}

// IsReleased reports whether a headless object has been released.
func IsReleased(r gpu.Resource) bool {
	t, ok := r.(tracked)
	return ok && t.base().Released()
}

var (
	_ gpu.Buffer          = &buffer{}
	_ gpu.Texture         = &texture{}
	_ gpu.TextureView     = &textureView{}
	_ gpu.Sampler         = &sampler{}
	_ gpu.BindGroupLayout = &bindGroupLayout{}
	_ gpu.BindGroup       = &bindGroup{}
	_ gpu.RenderPipeline  = &renderPipeline{}
	_ gpu.Fence           = &fence{}
	_ gpu.Semaphore       = &semaphore{}
)
