// Package renderer creates gpu.Device implementations.
//
// Two backends exist: the WebGPU backend drives a real GPU through a window surface, and the
// headless backend simulates a queue for tests and CI. Everything above this package only sees
// gpu.Device.
package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurface is returned when the WebGPU backend is requested without a surface descriptor.
var ErrNoSurface = errors.New("wgpu backend needs a surface descriptor")

// config collects builder options before a device is created.
type config struct {
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	presentMode          PresentMode
	imageCount           int
	width, height        int
	forceFallbackAdapter bool
}

// NewDevice creates a device for the requested backend.
// Adapter and device creation failures in the WebGPU bindings surface as errors, not panics.
//
// Parameters:
//   - backendType: the backend to create
//   - options: variadic list of RendererBuilderOption functions to configure the device
//
// Returns:
//   - gpu.Device: the created device, released by the caller
//   - error: an error if the backend could not be initialized
func NewDevice(backendType RendererBackendType, options ...RendererBuilderOption) (dev gpu.Device, err error) {
	cfg := &config{
		presentMode: PresentModeVSync,
		imageCount:  3,
		width:       800,
		height:      600,
	}
	for _, opt := range options {
		opt(cfg)
	}

	switch backendType {
	case BackendTypeHeadless:
		return headless.NewDevice(
			headless.WithImageCount(cfg.imageCount),
			headless.WithSize(cfg.width, cfg.height),
		), nil
	case BackendTypeWGPU:
		if cfg.surfaceDescriptor == nil {
			return nil, ErrNoSurface
		}
		defer func() {
			if r := recover(); r != nil {
				dev = nil
				err = fmt.Errorf("%w: wgpu init: %v", gpu.ErrDeviceLost, r)
			}
		}()
		return newWGPUDevice(cfg), nil
	}
	return nil, fmt.Errorf("%w: backend %s", gpu.ErrUnsupported, backendType)
}
