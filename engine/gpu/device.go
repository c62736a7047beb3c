// Package gpu defines the explicit device context threaded through every engine component.
//
// A Device is created once by the application and passed to constructors; there is no process-wide
// device. Backends live in engine/renderer (WebGPU) and engine/gpu/headless (simulated queue, no GPU).
package gpu

import (
	"context"

	"github.com/Carmen-Shannon/oxy-core/common"
)

// Releaser is implemented by every object owning device memory or driver state.
type Releaser interface {
	Release()
}

// Resource is a labelled device object.
type Resource interface {
	Releaser
	Label() string
}

// Buffer is a linear device allocation.
type Buffer interface {
	Resource
	Size() uint64
	Usage() BufferUsage
}

// Texture is an image allocation.
type Texture interface {
	Resource
	Descriptor() TextureDescriptor
	// View returns the default full-resource view. It is owned by the texture.
	View() TextureView
}

// TextureView is a shader- or attachment-visible view of a texture.
type TextureView interface {
	Resource
	Format() TextureFormat
}

// Sampler is a texture sampling state object.
type Sampler interface {
	Resource
}

// BindGroupLayout is the device form of a BindGroupLayoutDescriptor.
type BindGroupLayout interface {
	Resource
	Descriptor() BindGroupLayoutDescriptor
}

// BindGroup binds concrete resources to a layout.
type BindGroup interface {
	Resource
	Layout() BindGroupLayout
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Resource
	// BindGroupLayout returns the layout for bind group index group, or nil when out of range.
	BindGroupLayout(group int) BindGroupLayout
	Topology() Topology
}

// Fence lets the CPU wait for a submission to finish executing.
type Fence interface {
	Resource
	// Signaled reports the fence state without blocking.
	Signaled() bool
}

// Semaphore orders GPU work between a submission and acquisition or presentation.
type Semaphore interface {
	Resource
}

// CommandBuffer records GPU commands for one submission. It is reusable after Begin.
type CommandBuffer interface {
	Resource
	Begin() error
	End() error
	BeginRenderPass(desc RenderPassDescriptor) error
	EndRenderPass() error
	// InRenderPass reports whether a render pass is open.
	InRenderPass() bool
	SetPipeline(p RenderPipeline)
	SetBindGroup(index int, bg BindGroup)
	SetVertexBuffer(buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount int)
	DrawIndexed(indexCount, instanceCount int)
}

// Device is the explicit graphics context. Implementations are not safe for concurrent recording;
// only fence waits may block.
type Device interface {
	// ConfigureSurface (re)creates the swapchain for the given size. Previously returned swapchain
	// views become invalid.
	ConfigureSurface(width, height int) (SwapchainInfo, error)
	// AcquireImage returns the next presentable image index, signalling signal when it is ready.
	// Returns an error wrapping ErrSwapchainStale when the swapchain must be rebuilt.
	AcquireImage(ctx context.Context, signal Semaphore) (int, error)
	// Present queues image for presentation after wait is signalled.
	// Returns an error wrapping ErrSwapchainStale when the swapchain must be rebuilt.
	Present(image int, wait Semaphore) error
	// SwapchainView returns the attachment view of an acquired swapchain image.
	SwapchainView(image int) TextureView

	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	// WaitForFence blocks until f is signalled or ctx ends, in which case the error wraps ErrWaitTimeout.
	WaitForFence(ctx context.Context, f Fence) error
	ResetFence(f Fence) error
	// WaitIdle blocks until every submission has completed.
	WaitIdle(ctx context.Context) error

	CreateCommandBuffer(label string) (CommandBuffer, error)
	Submit(info SubmitInfo) error

	CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	CreateTexture(label string, desc TextureDescriptor) (Texture, error)
	// UploadTexture creates a sampled RGBA8 texture and copies the staging pixels into it.
	UploadTexture(label string, data common.TextureStagingData) (Texture, error)
	CreateSampler(label string, desc common.SamplerStagingData) (Sampler, error)
	CreateBindGroup(label string, layout BindGroupLayout, entries []BindGroupEntry) (BindGroup, error)
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)

	Features() Features
	Release()
}
