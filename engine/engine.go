package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

// ErrNotConfigured is returned by Run when the device or model is missing.
var ErrNotConfigured = errors.New("engine needs a device, a model and a surface")

// shutdownTimeout bounds the final drain, which runs even after the run context has ended.
const shutdownTimeout = 5 * time.Second

// minimizedPoll is how long the loop sleeps between retries while the surface has no area.
const minimizedPoll = 10 * time.Millisecond

// engine implements the Engine interface.
// The loop is single-threaded: window events, recording and presentation all happen on the goroutine
// that called Run.
type engine struct {
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window  window.Window
	surface frame.Surface
	device  gpu.Device
	model   model.Model

	shaders      *shader.Library
	dispatcher   *pass.Dispatcher
	synchronizer *frame.Synchronizer
	syncOptions  []frame.SynchronizerBuilderOption

	// ownDispatcher is set once the engine built the dispatcher itself for dispatcherFormat.
	ownDispatcher    bool
	dispatcherFormat gpu.TextureFormat

	logger  *zap.Logger
	metrics *profiler.Metrics

	profiler         *profiler.Profiler
	profilingEnabled bool

	updateCallback  func(f *frame.Frame, dt float32)
	overlayCallback func(f *frame.Frame)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        int           // 0 = run until quit
	frames           int
}

// Engine is the main entry point for the engine.
// It wires a window (or any frame.Surface), a device, a scene model and a render dispatcher
// into a frame loop driven by a frame.Synchronizer.
type Engine interface {
	// Window returns the underlying window, or nil when the engine renders to a plain surface.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Device returns the device the engine renders with.
	Device() gpu.Device

	// Model returns the scene the engine draws.
	Model() model.Model

	// Dispatcher returns the render dispatcher. The standard one is created by the first frame Run acquires.
	Dispatcher() *pass.Dispatcher

	// Synchronizer returns the frame synchronizer. It is nil until Run starts.
	Synchronizer() *frame.Synchronizer

	// Frames returns the number of frames presented so far.
	Frames() int

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run drives the frame loop until the window closes, Quit is called, ctx ends, the frame limit
	// set by WithMaxFrames is reached or a fatal error occurs. The device is drained before Run returns
	// and the dispatcher and all per-frame resources are released. The device, window and model GPU
	// buffers stay owned by the caller.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: the fatal error that stopped the loop, joined with any drain error
	Run(ctx context.Context) error

	// Quit signals the loop to stop after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (device, model, window, callbacks, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel:      make(chan struct{}),
		logger:           zap.NewNop(),
		profilingEnabled: false,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.surface == nil && e.window != nil {
		e.surface = e.window
	}
	e.profiler = profiler.NewProfiler(e.logger.Named("profiler"))

	return e
}

func (e *engine) Window() window.Window             { return e.window }
func (e *engine) Device() gpu.Device                { return e.device }
func (e *engine) Model() model.Model                { return e.model }
func (e *engine) Dispatcher() *pass.Dispatcher      { return e.dispatcher }
func (e *engine) Synchronizer() *frame.Synchronizer { return e.synchronizer }
func (e *engine) Frames() int                       { return e.frames }

// Quit signals the loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Run(ctx context.Context) error {
	if e.device == nil || e.model == nil || e.surface == nil {
		return ErrNotConfigured
	}
	if err := e.setup(); err != nil {
		return err
	}

	runErr := e.loop(ctx)
	if runErr != nil {
		e.logger.Error("render loop stopped", zap.Error(runErr), zap.Int("frames", e.frames))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.synchronizer.Shutdown(drainCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	if e.dispatcher != nil {
		e.dispatcher.Release()
	}
	return runErr
}

// setup creates the synchronizer and, unless a dispatcher was supplied, loads the programs the standard
// dispatcher is built from.
func (e *engine) setup() error {
	opts := append([]frame.SynchronizerBuilderOption{
		frame.WithLogger(e.logger.Named("frame")),
		frame.WithMetrics(e.metrics),
	}, e.syncOptions...)
	s, err := frame.NewSynchronizer(e.device, e.surface, opts...)
	if err != nil {
		return fmt.Errorf("create synchronizer: %w", err)
	}
	e.synchronizer = s

	if e.dispatcher == nil && e.shaders == nil {
		if e.shaders, err = shader.Default(); err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("load shaders: %w", err)
		}
	}
	return nil
}

// ensureDispatcher creates the standard dispatcher for the current swapchain format, and replaces it when a
// rebuild changed the format. A surface that starts minimized has no format until it is restored.
func (e *engine) ensureDispatcher() error {
	format := e.synchronizer.Info().Format
	if e.dispatcher != nil && (!e.ownDispatcher || e.dispatcherFormat == format) {
		return nil
	}
	d, err := pass.NewStandard(e.device, e.shaders, format, pass.WithLogger(e.logger.Named("pass")))
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	if e.dispatcher != nil {
		e.logger.Info("swapchain format changed, rebuilding pipelines",
			zap.Int("from", int(e.dispatcherFormat)), zap.Int("to", int(format)))
		e.synchronizer.Release(e.dispatcher)
	}
	e.dispatcher, e.dispatcherFormat, e.ownDispatcher = d, format, true
	return nil
}

func (e *engine) loop(ctx context.Context) error {
	lastRender := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		default:
		}
		if e.window != nil && !e.window.PollEvents() {
			return nil
		}
		if e.maxFrames > 0 && e.frames >= e.maxFrames {
			return nil
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.renderFrame(ctx, dt); err != nil {
			if errors.Is(err, frame.ErrRetry) {
				if w, h := e.surface.Size(); w == 0 || h == 0 {
					time.Sleep(minimizedPoll)
				}
				continue
			}
			if ctx.Err() != nil {
				// a wait abandoned because ctx ended is a normal stop
				return nil
			}
			return err
		}
		e.frames++

		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Tick()
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			elapsed := time.Since(now)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame records and presents one frame.
func (e *engine) renderFrame(ctx context.Context, dt float32) error {
	f, err := e.synchronizer.NextFrame(ctx)
	if err != nil {
		return err
	}
	if err := e.ensureDispatcher(); err != nil {
		return err
	}

	if e.updateCallback != nil {
		e.updateCallback(f, dt)
	}
	if err := e.model.UploadMeshes(e.device); err != nil {
		return fmt.Errorf("upload meshes: %w", err)
	}
	if n := e.dispatcher.PruneStale(f, e.model, e.synchronizer); n > 0 {
		e.logger.Debug("pruned stale bindings", zap.Int("slot", f.Slot()), zap.Int("count", n))
	}

	if err := f.BeginScene(); err != nil {
		return err
	}
	if err := e.dispatcher.Draw(f, e.model); err != nil {
		return fmt.Errorf("draw scene: %w", err)
	}
	if err := e.dispatcher.EndScene(f); err != nil {
		return fmt.Errorf("post process: %w", err)
	}
	if e.overlayCallback != nil {
		e.overlayCallback(f)
	}
	return e.synchronizer.Present(ctx, f)
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
