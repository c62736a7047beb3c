// Package frame owns the swapchain, the per-slot synchronization objects and the recreate-on-resize
// state machine that paces the render loop.
package frame

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/descriptor"
)

// ErrRetry tells the caller to skip this iteration and ask for the next frame again. It follows a
// swapchain rebuild or a zero-sized surface.
var ErrRetry = errors.New("frame: retry")

// State is the position of a frame slot in its acquire, record, submit and present cycle.
type State int

const (
	StateIdle State = iota
	StateWaiting
	StateAcquiring
	StateRecording
	StateSubmitted
	StatePresenting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	case StatePresenting:
		return "presenting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Attachments are the render targets of the main scene pass, sized to the swapchain.
type Attachments struct {
	Color  gpu.Texture
	Normal gpu.Texture
	Depth  gpu.Texture
}

func (a Attachments) release() {
	for _, t := range []gpu.Texture{a.Color, a.Normal, a.Depth} {
		if t != nil {
			t.Release()
		}
	}
}

// Frame is the recording context of one frame slot. It is valid between NextFrame and Present.
type Frame struct {
	dev   gpu.Device
	slot  int
	image int
	state State

	width, height int
	clear         [4]float64

	commands      gpu.CommandBuffer
	imageAcquired gpu.Semaphore
	fence         gpu.Fence
	cache         *descriptor.Cache
	attachments   Attachments
	swapchainView gpu.TextureView

	deferred func(gpu.Releaser)
}

// Slot returns the frame-in-flight index this frame records into.
func (f *Frame) Slot() int { return f.slot }

// Image returns the acquired swapchain image index.
func (f *Frame) Image() int { return f.image }

// Size returns the swapchain size in pixels.
func (f *Frame) Size() (int, int) { return f.width, f.height }

func (f *Frame) State() State                   { return f.state }
func (f *Frame) Device() gpu.Device             { return f.dev }
func (f *Frame) Commands() gpu.CommandBuffer    { return f.commands }
func (f *Frame) Attachments() Attachments       { return f.attachments }
func (f *Frame) SwapchainView() gpu.TextureView { return f.swapchainView }

// Cache returns the descriptor cache owned by this slot. Its entries are only read by this slot's
// submissions.
func (f *Frame) Cache() *descriptor.Cache { return f.cache }

// Defer hands r to the synchronizer's deferred deletion queue. Use it for objects this frame stops
// referencing that earlier submissions may still read.
func (f *Frame) Defer(r gpu.Releaser) { f.deferred(r) }

// BeginScene opens the main pass on the color, normal and depth attachments.
func (f *Frame) BeginScene() error {
	return f.commands.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: "scene",
		Color: []gpu.ColorAttachment{
			{View: f.attachments.Color.View(), Clear: f.clear},
			{View: f.attachments.Normal.View(), Clear: [4]float64{0.5, 0.5, 1, 1}},
		},
		Depth:      f.attachments.Depth.View(),
		DepthClear: 1,
	})
}

// EndScene closes the main pass and opens the present pass on the acquired swapchain image.
// Post-processing and overlay commands are recorded into the present pass.
func (f *Frame) EndScene() error {
	if f.commands.InRenderPass() {
		if err := f.commands.EndRenderPass(); err != nil {
			return err
		}
	}
	return f.commands.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: "present",
		Color: []gpu.ColorAttachment{{View: f.swapchainView, Clear: [4]float64{0, 0, 0, 1}}},
	})
}

func (f *Frame) release() {
	f.cache.Reset()
	f.attachments.release()
	f.commands.Release()
	f.imageAcquired.Release()
	f.fence.Release()
}
