package renderer

import (
	"fmt"
	"strings"
)

// RendererBackendType identifies the GPU backend implementation behind a device.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects the simulated device. It needs no window or GPU and records
	// every command it is given.
	BackendTypeHeadless
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeHeadless:
		return "headless"
	}
	return fmt.Sprintf("RendererBackendType(%d)", int(t))
}

// ParseBackendType maps a backend name ("wgpu", "webgpu" or "headless") to its RendererBackendType.
//
// Parameters:
//   - name: the backend name, case insensitive
//
// Returns:
//   - RendererBackendType: the matching backend
//   - error: an error if the name is unknown
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(name) {
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	case "headless":
		return BackendTypeHeadless, nil
	}
	return 0, fmt.Errorf("unknown backend %q", name)
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)
