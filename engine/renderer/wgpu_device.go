package renderer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDevice implements gpu.Device on top of WebGPU.
//
// WebGPU exposes a single current surface texture instead of an indexed swapchain, so image
// indices are handed out round robin over the configured image count. Fences are emulated with
// queue submission indices and semaphores are ordering tokens only.
type wgpuDevice struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	presentMode   wgpu.PresentMode
	imageCount    int
	surfaceFormat wgpu.TextureFormat
	format        gpu.TextureFormat
	configured    bool

	nextImage    int
	frameImage   int
	frameSurface *wgpu.Texture
	frameView    *wgpuTextureView

	released bool
}

var _ gpu.Device = &wgpuDevice{}

// newWGPUDevice creates the instance, adapter and device for surfaceDescriptor.
// Adapter and device failures panic, NewDevice recovers them into an error.
func newWGPUDevice(cfg *config) *wgpuDevice {
	runtime.LockOSThread()
	d := &wgpuDevice{
		instance:   wgpu.CreateInstance(nil),
		imageCount: cfg.imageCount,
		frameImage: -1,
	}
	switch cfg.presentMode {
	case PresentModeVSync:
		d.presentMode = wgpu.PresentModeFifo
	default:
		d.presentMode = wgpu.PresentModeImmediate
	}
	d.surface = d.instance.CreateSurface(cfg.surfaceDescriptor)

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		panic(err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	return d
}

func (d *wgpuDevice) ConfigureSurface(width, height int) (gpu.SwapchainInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if width <= 0 || height <= 0 {
		return gpu.SwapchainInfo{}, fmt.Errorf("%w: surface size %dx%d", gpu.ErrSwapchainStale, width, height)
	}
	d.dropFrameSurface()

	capabilities := d.surface.GetCapabilities(d.adapter)
	if !d.configured {
		found := false
		for _, f := range capabilities.Formats {
			if format, ok := fromWGPUSurfaceFormat(f); ok {
				d.surfaceFormat, d.format, found = f, format, true
				break
			}
		}
		if !found {
			return gpu.SwapchainInfo{}, fmt.Errorf("%w: no 8-bit unorm surface format among %v", gpu.ErrUnsupported, capabilities.Formats)
		}
	}

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	d.configured = true
	d.nextImage = 0

	return gpu.SwapchainInfo{
		ImageCount: d.imageCount,
		Width:      width,
		Height:     height,
		Format:     d.format,
	}, nil
}

func (d *wgpuDevice) AcquireImage(ctx context.Context, _ gpu.Semaphore) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.configured {
		return 0, fmt.Errorf("%w: surface not configured", gpu.ErrSwapchainStale)
	}
	if d.frameSurface != nil {
		return 0, fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", gpu.ErrSwapchainStale, err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return 0, fmt.Errorf("%w: swapchain view: %v", gpu.ErrResourceCreation, err)
	}

	image := d.nextImage
	d.nextImage = (d.nextImage + 1) % d.imageCount
	d.frameImage = image
	d.frameSurface = surfaceTexture
	d.frameView = &wgpuTextureView{
		label:  fmt.Sprintf("swapchain-%d", image),
		view:   view,
		format: d.format,
	}
	return image, nil
}

func (d *wgpuDevice) Present(image int, _ gpu.Semaphore) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameSurface == nil || image != d.frameImage {
		return fmt.Errorf("present of image %d that was not acquired", image)
	}
	d.surface.Present()
	d.dropFrameSurface()
	return nil
}

func (d *wgpuDevice) SwapchainView(image int) gpu.TextureView {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameView == nil || image != d.frameImage {
		return nil
	}
	return d.frameView
}

// dropFrameSurface releases the held surface texture. Callers hold d.mu.
func (d *wgpuDevice) dropFrameSurface() {
	if d.frameView != nil {
		d.frameView.Release()
		d.frameView = nil
	}
	if d.frameSurface != nil {
		d.frameSurface.Release()
		d.frameSurface = nil
	}
	d.frameImage = -1
}

func (d *wgpuDevice) CreateFence(signaled bool) (gpu.Fence, error) {
	// an unsignaled fence stays pending until a submission arms it
	f := &wgpuFence{label: "fence"}
	if !signaled {
		f.pending = true
		f.index = ^wgpu.SubmissionIndex(0)
	}
	return f, nil
}

func (d *wgpuDevice) CreateSemaphore() (gpu.Semaphore, error) {
	return wgpuSemaphore{}, nil
}

func (d *wgpuDevice) WaitForFence(ctx context.Context, f gpu.Fence) error {
	fence, ok := f.(*wgpuFence)
	if !ok {
		return fmt.Errorf("fence %s was not created by this device", f.Label())
	}
	index, pending := fence.snapshot()
	if !pending {
		return nil
	}
	if err := d.poll(ctx, &wgpu.WrappedSubmissionIndex{Queue: d.queue, SubmissionIndex: index}); err != nil {
		return err
	}
	fence.signal(index)
	return nil
}

func (d *wgpuDevice) ResetFence(f gpu.Fence) error {
	fence, ok := f.(*wgpuFence)
	if !ok {
		return fmt.Errorf("fence %s was not created by this device", f.Label())
	}
	if _, pending := fence.snapshot(); pending {
		return fmt.Errorf("reset of pending fence %s", fence.label)
	}
	return nil
}

func (d *wgpuDevice) WaitIdle(ctx context.Context) error {
	return d.poll(ctx, nil)
}

// poll blocks in device.Poll on a helper goroutine so the wait can be abandoned when ctx ends.
func (d *wgpuDevice) poll(ctx context.Context, index *wgpu.WrappedSubmissionIndex) error {
	done := make(chan struct{})
	go func() {
		d.device.Poll(true, index)
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", gpu.ErrWaitTimeout, ctx.Err())
		}
		return ctx.Err()
	}
}

func (d *wgpuDevice) CreateCommandBuffer(label string) (gpu.CommandBuffer, error) {
	return &wgpuCommandBuffer{label: label, device: d.device}, nil
}

func (d *wgpuDevice) Submit(info gpu.SubmitInfo) error {
	cb, ok := info.Commands.(*wgpuCommandBuffer)
	if !ok {
		return fmt.Errorf("command buffer %s was not created by this device", info.Commands.Label())
	}
	finished, err := cb.take()
	if err != nil {
		return err
	}
	defer finished.Release()

	d.mu.Lock()
	index := d.queue.Submit(finished)
	d.mu.Unlock()

	if info.Fence != nil {
		fence, ok := info.Fence.(*wgpuFence)
		if !ok {
			return fmt.Errorf("fence %s was not created by this device", info.Fence.Label())
		}
		fence.arm(index)
	}
	return nil
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	// WebGPU requires buffer sizes to be a multiple of 4
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             common.AlignUp(size, 4),
		Usage:            toWGPUBufferUsage(usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: buffer %s: %v", gpu.ErrResourceCreation, label, err)
	}
	return &wgpuBuffer{label: label, buffer: buf, size: size, usage: usage}, nil
}

func (d *wgpuDevice) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok || b.buffer == nil {
		return fmt.Errorf("write to buffer %s: not a live buffer", buf.Label())
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("write of %d bytes at %d overflows buffer %s of %d bytes", len(data), offset, b.label, b.size)
	}
	padded := data
	if rem := len(data) % 4; rem != 0 {
		padded = make([]byte, len(data)+4-rem)
		copy(padded, data)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue.WriteBuffer(b.buffer, offset, padded)
	return nil
}

func (d *wgpuDevice) CreateTexture(label string, desc gpu.TextureDescriptor) (gpu.Texture, error) {
	format, err := toWGPUTextureFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     toWGPUTextureUsage(desc.Usage),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: texture %s: %v", gpu.ErrResourceCreation, label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%w: texture view %s: %v", gpu.ErrResourceCreation, label, err)
	}
	return &wgpuTexture{
		label:   label,
		texture: tex,
		desc:    desc,
		view:    &wgpuTextureView{label: label, view: view, format: desc.Format},
	}, nil
}

func (d *wgpuDevice) UploadTexture(label string, data common.TextureStagingData) (gpu.Texture, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	t, err := d.CreateTexture(label, gpu.TextureDescriptor{
		Width:  data.Width,
		Height: data.Height,
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.(*wgpuTexture).texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return t, nil
}

func (d *wgpuDevice) CreateSampler(label string, desc common.SamplerStagingData) (gpu.Sampler, error) {
	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  toWGPUAddressMode(desc.AddressModeU),
		AddressModeV:  toWGPUAddressMode(desc.AddressModeV),
		AddressModeW:  toWGPUAddressMode(desc.AddressModeW),
		MagFilter:     toWGPUFilterMode(desc.MagFilter),
		MinFilter:     toWGPUFilterMode(desc.MinFilter),
		MipmapFilter:  toWGPUMipmapFilterMode(desc.MipmapFilter),
		LodMinClamp:   desc.LodMinClamp,
		LodMaxClamp:   common.Coalesce(desc.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(desc.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sampler %s: %v", gpu.ErrResourceCreation, label, err)
	}
	return &wgpuSampler{label: label, sampler: samp}, nil
}

func (d *wgpuDevice) CreateBindGroup(label string, layout gpu.BindGroupLayout, entries []gpu.BindGroupEntry) (gpu.BindGroup, error) {
	l, ok := layout.(*wgpuBindGroupLayout)
	if !ok || l.layout == nil {
		return nil, fmt.Errorf("%w: bind group %s: layout is not a live layout", gpu.ErrResourceCreation, label)
	}
	out := make([]wgpu.BindGroupEntry, len(entries))
	for i, e := range entries {
		entry := wgpu.BindGroupEntry{Binding: uint32(e.Binding)}
		switch {
		case e.Buffer != nil:
			b, ok := e.Buffer.(*wgpuBuffer)
			if !ok || b.buffer == nil {
				return nil, fmt.Errorf("%w: bind group %s: binding %d buffer is not live", gpu.ErrResourceCreation, label, e.Binding)
			}
			entry.Buffer = b.buffer
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		case e.TextureView != nil:
			v, ok := e.TextureView.(*wgpuTextureView)
			if !ok || v.view == nil {
				return nil, fmt.Errorf("%w: bind group %s: binding %d view is not live", gpu.ErrResourceCreation, label, e.Binding)
			}
			entry.TextureView = v.view
		case e.Sampler != nil:
			s, ok := e.Sampler.(*wgpuSampler)
			if !ok || s.sampler == nil {
				return nil, fmt.Errorf("%w: bind group %s: binding %d sampler is not live", gpu.ErrResourceCreation, label, e.Binding)
			}
			entry.Sampler = s.sampler
		default:
			return nil, fmt.Errorf("%w: bind group %s: binding %d has no resource", gpu.ErrResourceCreation, label, e.Binding)
		}
		out[i] = entry
	}

	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  l.layout,
		Entries: out,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: bind group %s: %v", gpu.ErrResourceCreation, label, err)
	}
	return &wgpuBindGroup{label: label, group: group, layout: l}, nil
}

func (d *wgpuDevice) createShaderModule(p gpu.ShaderProgram) (*wgpu.ShaderModule, error) {
	desc := &wgpu.ShaderModuleDescriptor{Label: p.Label}
	switch p.Format {
	case gpu.ShaderFormatSPIRV:
		desc.SPIRVDescriptor = &wgpu.ShaderModuleSPIRVDescriptor{Code: p.Code}
	default:
		desc.WGSLDescriptor = &wgpu.ShaderModuleWGSLDescriptor{Code: string(p.Code)}
	}
	return d.device.CreateShaderModule(desc)
}

func (d *wgpuDevice) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	vs, err := d.createShaderModule(desc.Vertex)
	if err != nil {
		return nil, fmt.Errorf("%w: vertex module %s: %v", gpu.ErrResourceCreation, desc.Vertex.Label, err)
	}
	defer vs.Release()
	fs, err := d.createShaderModule(desc.Fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: fragment module %s: %v", gpu.ErrResourceCreation, desc.Fragment.Label, err)
	}
	defer fs.Release()

	out := &wgpuRenderPipeline{label: desc.Label, topology: desc.Topology}
	fail := func(format string, args ...any) (gpu.RenderPipeline, error) {
		out.Release()
		return nil, fmt.Errorf("%w: pipeline %s: %s", gpu.ErrResourceCreation, desc.Label, fmt.Sprintf(format, args...))
	}

	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroups))
	for g, groupDesc := range desc.BindGroups {
		wd := toWGPUBindGroupLayoutDescriptor(groupDesc)
		layout, err := d.device.CreateBindGroupLayout(&wd)
		if err != nil {
			return fail("bind group layout %d: %v", g, err)
		}
		layouts[g] = layout
		out.groups = append(out.groups, &wgpuBindGroupLayout{layout: layout, desc: groupDesc})
	}

	out.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fail("layout: %v", err)
	}

	targets := make([]wgpu.ColorTargetState, len(desc.ColorTargets))
	for i, f := range desc.ColorTargets {
		format, err := toWGPUTextureFormat(f)
		if err != nil {
			return fail("color target %d: %v", i, err)
		}
		targets[i] = wgpu.ColorTargetState{
			Format:    format,
			WriteMask: wgpu.ColorWriteMaskAll,
		}
		if desc.BlendEnabled {
			targets[i].Blend = alphaBlendState()
		}
	}

	var depth *wgpu.DepthStencilState
	if desc.DepthTest || desc.DepthWrite {
		format, err := toWGPUTextureFormat(desc.DepthFormat)
		if err != nil {
			return fail("depth: %v", err)
		}
		compare := wgpu.CompareFunctionLess
		if !desc.DepthTest {
			compare = wgpu.CompareFunctionAlways
		}
		depth = &wgpu.DepthStencilState{
			Format:            format,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	out.pipeline, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: out.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    toWGPUVertexLayout(desc.VertexLayout),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  toWGPUTopology(desc.Topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toWGPUCullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depth,
	})
	if err != nil {
		return fail("%v", err)
	}
	return out, nil
}

// Features reports no 8-bit index support, WebGPU only has 16 and 32-bit index formats.
func (d *wgpuDevice) Features() gpu.Features {
	return gpu.Features{IndexUint8: false}
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	d.dropFrameSurface()
	if d.surface != nil {
		d.surface.Release()
	}
	if d.queue != nil {
		d.queue.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}
