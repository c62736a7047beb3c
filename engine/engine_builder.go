package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the window the engine polls for events and renders into.
// The window is also the surface unless WithSurface overrides it.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSurface sets the surface whose size drives the swapchain, for running without a window.
//
// Parameters:
//   - s: the surface, for example a headless.Surface
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(s frame.Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithDevice sets the device the engine renders with. The caller keeps ownership and releases it after Run.
//
// Parameters:
//   - dev: the device created by renderer.NewDevice
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(dev gpu.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = dev
	}
}

// WithModel sets the scene model drawn every frame.
//
// Parameters:
//   - m: the scene model
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithModel(m model.Model) EngineBuilderOption {
	return func(e *engine) {
		e.model = m
	}
}

// WithDispatcher replaces the standard dispatcher. The engine releases it when Run returns.
//
// Parameters:
//   - d: the dispatcher to draw with
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDispatcher(d *pass.Dispatcher) EngineBuilderOption {
	return func(e *engine) {
		e.dispatcher = d
	}
}

// WithShaderLibrary sets the programs the standard dispatcher is built from. It has no effect when
// WithDispatcher is also given. The embedded library is used by default.
func WithShaderLibrary(lib *shader.Library) EngineBuilderOption {
	return func(e *engine) {
		e.shaders = lib
	}
}

// WithUpdateCallback registers the function called each frame after the frame slot is acquired and
// before the scene is recorded. The model may be mutated freely inside it.
//
// Parameters:
//   - callback: function receiving the frame and the delta time in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithUpdateCallback(callback func(f *frame.Frame, dt float32)) EngineBuilderOption {
	return func(e *engine) {
		e.updateCallback = callback
	}
}

// WithOverlayCallback registers the function called each frame while the present pass is open,
// after the post-process pass has been recorded.
//
// Parameters:
//   - callback: function receiving the frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithOverlayCallback(callback func(f *frame.Frame)) EngineBuilderOption {
	return func(e *engine) {
		e.overlayCallback = callback
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithMaxFrames stops Run after n presented frames. 0 runs until quit.
func WithMaxFrames(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithMetrics records frame, swapchain and cache metrics on m.
func WithMetrics(m *profiler.Metrics) EngineBuilderOption {
	return func(e *engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger the engine and its components write to.
func WithLogger(l *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSynchronizerOptions passes extra options to the frame synchronizer, such as frame.WithWaitTimeout.
func WithSynchronizerOptions(options ...frame.SynchronizerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.syncOptions = append(e.syncOptions, options...)
	}
}

// WithFrameTimeout is shorthand for WithSynchronizerOptions(frame.WithWaitTimeout(d)).
func WithFrameTimeout(d time.Duration) EngineBuilderOption {
	return WithSynchronizerOptions(frame.WithWaitTimeout(d))
}
