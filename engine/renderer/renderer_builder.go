package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a device during construction via NewDevice.
type RendererBuilderOption func(*config)

// WithSurfaceDescriptor sets the platform surface the WebGPU backend presents to.
// Windows provide one through window.Window.SurfaceDescriptor.
//
// Parameters:
//   - desc: the platform-specific surface descriptor
//
// Returns:
//   - RendererBuilderOption: a function that applies the surface option
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) RendererBuilderOption {
	return func(c *config) {
		c.surfaceDescriptor = desc
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(c *config) {
		c.presentMode = mode
	}
}

// WithImageCount sets the number of swapchain images, which is also the number of frames in flight.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the swapchain image count
//
// Returns:
//   - RendererBuilderOption: a function that applies the image count option
func WithImageCount(n int) RendererBuilderOption {
	return func(c *config) {
		if n > 0 {
			c.imageCount = n
		}
	}
}

// WithSize sets the surface size of the headless backend. The WebGPU backend takes its size from the window.
func WithSize(width, height int) RendererBuilderOption {
	return func(c *config) {
		c.width, c.height = width, height
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(c *config) {
		c.forceFallbackAdapter = force
	}
}
