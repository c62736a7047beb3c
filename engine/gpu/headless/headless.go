// Package headless implements gpu.Device without a GPU.
//
// Submissions run on a simulated in-order queue goroutine that signals fences when they complete.
// The device counts what it is asked to do and records protocol violations (objects released
// while a submission still references them, fences reset while pending, presenting an image that
// was never acquired) so tests can assert that frame synchronization is sound.
package headless

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// Stats are the cumulative counters of a headless device.
type Stats struct {
	Configures, Acquires, Presents, Submits, Completed, WaitIdles int
	Draws, DrawIndexed, BindGroupSets, PipelineSets, RenderPasses   int
	BuffersCreated, TexturesCreated, BindGroupsCreated, Released    int
	BufferWrites                                                   int
}

type submission struct {
	refs  []*resource
	fence *fence
	// fenceDone is the fence channel captured at submit time.
	fenceDone chan struct{}
	done      chan struct{}
}

// Device is a gpu.Device backed by a simulated queue.
type Device struct {
	mu sync.Mutex

	imageCount    int
	width, height int
	latency       time.Duration
	hang          bool

	stale      bool
	nextImage  int
	acquired   map[int]bool
	swapchain  []*textureView
	configured bool

	queue    chan *submission
	lastDone chan struct{}
	closing  chan struct{}
	closed   bool

	stats      Stats
	violations []string
	submitted  [][]Command
}

var _ gpu.Device = &Device{}

// NewDevice creates a headless device and starts its queue goroutine.
//
// Parameters:
//   - options: HeadlessBuilderOption values applied in order
//
// Returns:
//   - *Device: the device; call Release to stop its queue
func NewDevice(options ...HeadlessBuilderOption) *Device {
	d := &Device{
		imageCount: 3,
		width:      800,
		height:     600,
		acquired:   make(map[int]bool),
		queue:      make(chan *submission, 64),
		closing:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(d)
	}
	go d.run()
	return d
}

// run completes submissions in order.
func (d *Device) run() {
	for {
		select {
		case <-d.closing:
			return
		case sub := <-d.queue:
			if d.hang {
				<-d.closing
				return
			}
			if d.latency > 0 {
				select {
				case <-time.After(d.latency):
				case <-d.closing:
					return
				}
			}
			d.complete(sub)
		}
	}
}

func (d *Device) complete(sub *submission) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range sub.refs {
		r.inflight.Add(-1)
	}
	if sub.fence != nil {
		close(sub.fenceDone)
		if sub.fence.done == sub.fenceDone {
			sub.fence.pending = false
		}
	}
	close(sub.done)
	d.stats.Completed++
}

func (d *Device) noteRelease(r *resource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Released++
	if n := r.inflight.Load(); n > 0 {
		d.violations = append(d.violations, fmt.Sprintf("%q released while referenced by %d pending submission(s)", r.label, n))
	}
}

func (d *Device) violate(format string, args ...any) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Violations returns every synchronization violation observed so far.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// Submitted returns the command logs of every submission in order.
func (d *Device) Submitted() [][]Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]Command(nil), d.submitted...)
}

// Size returns the current swapchain size.
func (d *Device) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// MarkStale makes the next acquire or present report gpu.ErrSwapchainStale until the surface is reconfigured.
func (d *Device) MarkStale() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stale = true
}

func (d *Device) ConfigureSurface(width, height int) (gpu.SwapchainInfo, error) {
	if width <= 0 || height <= 0 {
		return gpu.SwapchainInfo{}, fmt.Errorf("configure surface %dx%d: %w", width, height, gpu.ErrResourceCreation)
	}
	d.mu.Lock()
	old := d.swapchain
	d.swapchain = make([]*textureView, d.imageCount)
	for i := range d.swapchain {
		d.swapchain[i] = &textureView{
			resource: resource{dev: d, label: fmt.Sprintf("swapchain-%d", i)},
			format:   gpu.TextureFormatBGRA8Unorm,
		}
	}
	d.width, d.height = width, height
	d.stale = false
	d.nextImage = 0
	d.acquired = make(map[int]bool)
	d.configured = true
	d.stats.Configures++
	d.mu.Unlock()

	for _, v := range old {
		v.Release()
	}
	return gpu.SwapchainInfo{
		ImageCount: d.imageCount,
		Width:      width,
		Height:     height,
		Format:     gpu.TextureFormatBGRA8Unorm,
	}, nil
}

func (d *Device) AcquireImage(ctx context.Context, signal gpu.Semaphore) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("acquire image: %w: %v", gpu.ErrWaitTimeout, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.configured {
		return 0, fmt.Errorf("acquire image: surface not configured")
	}
	if d.stale {
		return 0, fmt.Errorf("acquire image: %w", gpu.ErrSwapchainStale)
	}
	img := d.nextImage
	if d.acquired[img] {
		d.violate("image %d acquired twice without present", img)
	}
	d.acquired[img] = true
	d.nextImage = (d.nextImage + 1) % d.imageCount
	d.stats.Acquires++
	return img, nil
}

func (d *Device) Present(image int, wait gpu.Semaphore) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.acquired[image] {
		d.violate("image %d presented without acquire", image)
	}
	delete(d.acquired, image)
	if d.stale {
		return fmt.Errorf("present image %d: %w", image, gpu.ErrSwapchainStale)
	}
	d.stats.Presents++
	return nil
}

func (d *Device) SwapchainView(image int) gpu.TextureView {
	d.mu.Lock()
	defer d.mu.Unlock()
	if image < 0 || image >= len(d.swapchain) {
		return nil
	}
	return d.swapchain[image]
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	f := &fence{resource: resource{dev: d, label: "fence"}, done: make(chan struct{})}
	if signaled {
		close(f.done)
	}
	return f, nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	return &semaphore{resource: resource{dev: d, label: "semaphore"}}, nil
}

func (d *Device) WaitForFence(ctx context.Context, f gpu.Fence) error {
	hf, ok := f.(*fence)
	if !ok {
		return fmt.Errorf("wait for fence: foreign fence %T", f)
	}
	d.mu.Lock()
	done := hf.done
	d.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for fence: %w: %v", gpu.ErrWaitTimeout, ctx.Err())
	}
}

func (d *Device) ResetFence(f gpu.Fence) error {
	hf, ok := f.(*fence)
	if !ok {
		return fmt.Errorf("reset fence: foreign fence %T", f)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if hf.pending {
		d.violate("fence reset while its submission is pending")
	}
	hf.done = make(chan struct{})
	return nil
}

func (d *Device) WaitIdle(ctx context.Context) error {
	d.mu.Lock()
	last := d.lastDone
	d.stats.WaitIdles++
	d.mu.Unlock()
	if last == nil {
		return nil
	}
	select {
	case <-last:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait idle: %w: %v", gpu.ErrWaitTimeout, ctx.Err())
	}
}

func (d *Device) CreateCommandBuffer(label string) (gpu.CommandBuffer, error) {
	return &CommandBuffer{resource: resource{dev: d, label: label}}, nil
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	cb, ok := info.Commands.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("submit: foreign command buffer %T", info.Commands)
	}
	if !cb.ended {
		return fmt.Errorf("submit: command buffer %q was not ended", cb.label)
	}
	cb.ended = false

	sub := &submission{done: make(chan struct{})}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("submit: %w", gpu.ErrDeviceLost)
	}
	for _, r := range cb.refs {
		if r.Released() {
			d.violate("submission references released %q", r.label)
		}
		r.inflight.Add(1)
		sub.refs = append(sub.refs, r)
	}
	if hf, ok := info.Fence.(*fence); ok {
		if hf.pending {
			d.violate("fence submitted while already pending")
		}
		select {
		case <-hf.done:
			d.violate("fence submitted while signaled")
			hf.done = make(chan struct{})
		default:
		}
		hf.pending = true
		sub.fence = hf
		sub.fenceDone = hf.done
	}
	for _, c := range cb.commands {
		switch c.Op {
		case OpDraw:
			d.stats.Draws++
		case OpDrawIndexed:
			d.stats.DrawIndexed++
		case OpSetBindGroup:
			d.stats.BindGroupSets++
		case OpSetPipeline:
			d.stats.PipelineSets++
		case OpBeginRenderPass:
			d.stats.RenderPasses++
		}
	}
	d.submitted = append(d.submitted, cb.Commands())
	d.lastDone = sub.done
	d.stats.Submits++
	d.mu.Unlock()

	d.queue <- sub
	return nil
}

func (d *Device) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("create buffer %q: zero size: %w", label, gpu.ErrResourceCreation)
	}
	d.mu.Lock()
	d.stats.BuffersCreated++
	d.mu.Unlock()
	return &buffer{resource: resource{dev: d, label: label}, size: size, usage: usage, data: make([]byte, size)}, nil
}

func (d *Device) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	hb, ok := buf.(*buffer)
	if !ok {
		return fmt.Errorf("write buffer: foreign buffer %T", buf)
	}
	if hb.Released() {
		return fmt.Errorf("write buffer %q: released", hb.label)
	}
	if offset+uint64(len(data)) > hb.size {
		return fmt.Errorf("write buffer %q: %d bytes at %d overflows size %d", hb.label, len(data), offset, hb.size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(hb.data[offset:], data)
	d.stats.BufferWrites++
	return nil
}

func (d *Device) CreateTexture(label string, desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("create texture %q: zero size: %w", label, gpu.ErrResourceCreation)
	}
	d.mu.Lock()
	d.stats.TexturesCreated++
	d.mu.Unlock()
	return &texture{
		resource: resource{dev: d, label: label},
		desc:     desc,
		view:     &textureView{resource: resource{dev: d, label: label + "-view"}, format: desc.Format},
	}, nil
}

func (d *Device) UploadTexture(label string, data common.TextureStagingData) (gpu.Texture, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("upload texture %q: %v: %w", label, err, gpu.ErrResourceCreation)
	}
	return d.CreateTexture(label, gpu.TextureDescriptor{
		Width:  data.Width,
		Height: data.Height,
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst,
	})
}

func (d *Device) CreateSampler(label string, _ common.SamplerStagingData) (gpu.Sampler, error) {
	return &sampler{resource: resource{dev: d, label: label}}, nil
}

func (d *Device) CreateBindGroup(label string, layout gpu.BindGroupLayout, entries []gpu.BindGroupEntry) (gpu.BindGroup, error) {
	hl, ok := layout.(*bindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("create bind group %q: foreign layout %T", label, layout)
	}
	if len(entries) != len(hl.desc.Entries) {
		return nil, fmt.Errorf("create bind group %q: %d entries for layout with %d: %w",
			label, len(entries), len(hl.desc.Entries), gpu.ErrResourceCreation)
	}
	for i, want := range hl.desc.Entries {
		e := entries[i]
		if e.Binding != want.Binding {
			return nil, fmt.Errorf("create bind group %q: entry %d binds %d, layout expects %d: %w",
				label, i, e.Binding, want.Binding, gpu.ErrResourceCreation)
		}
		var present bool
		switch want.Type {
		case gpu.BindingUniformBuffer:
			present = e.Buffer != nil
		case gpu.BindingTexture, gpu.BindingDepthTexture:
			present = e.TextureView != nil
		case gpu.BindingSampler, gpu.BindingNonFilteringSampler:
			present = e.Sampler != nil
		}
		if !present {
			return nil, fmt.Errorf("create bind group %q: binding %d missing resource: %w", label, want.Binding, gpu.ErrResourceCreation)
		}
	}
	d.mu.Lock()
	d.stats.BindGroupsCreated++
	d.mu.Unlock()
	return &bindGroup{
		resource: resource{dev: d, label: label},
		layout:   hl,
		entries:  append([]gpu.BindGroupEntry(nil), entries...),
	}, nil
}

func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if len(desc.Vertex.Code) == 0 || len(desc.Fragment.Code) == 0 {
		return nil, fmt.Errorf("create render pipeline %q: missing shader code: %w", desc.Label, gpu.ErrResourceCreation)
	}
	p := &renderPipeline{
		resource: resource{dev: d, label: desc.Label},
		topology: desc.Topology,
		targets:  append([]gpu.TextureFormat(nil), desc.ColorTargets...),
	}
	for _, l := range desc.BindGroups {
		p.layouts = append(p.layouts, &bindGroupLayout{resource: resource{dev: d, label: l.Label}, desc: l})
	}
	return p, nil
}

func (d *Device) Features() gpu.Features {
	return gpu.Features{IndexUint8: true}
}

// Release stops the queue goroutine. Pending submissions never complete.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.closing)
}
