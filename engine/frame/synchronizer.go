package frame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/google/uuid"
	"github.com/willf/bitset"
	"go.uber.org/zap"
)

// ErrClosed is returned by NextFrame after Shutdown.
var ErrClosed = errors.New("frame: synchronizer is shut down")

// Surface reports the drawable size of the window and whether it changed.
type Surface interface {
	Size() (int, int)
	// TakeResized reports whether a resize happened since the last call and clears the flag.
	TakeResized() bool
}

// deferred is an object waiting for every slot in pending to signal its fence once.
type deferred struct {
	r       gpu.Releaser
	pending *bitset.BitSet
}

// Synchronizer cycles frame slots round-robin over the swapchain images. A slot's resources are only
// reused after its fence reports that the previous submission from that slot has completed.
type Synchronizer struct {
	dev     gpu.Device
	surface Surface

	logger      *zap.Logger
	metrics     *profiler.Metrics
	waitTimeout time.Duration
	clear       [4]float64

	info           gpu.SwapchainInfo
	generation     uuid.UUID
	frames         []*Frame
	renderComplete []gpu.Semaphore
	counter        int
	needsRebuild   bool
	closed         bool

	deletions []deferred
}

// NewSynchronizer configures the surface and creates one frame slot per swapchain image. A zero-sized
// surface defers configuration to the first NextFrame that sees a non-zero size.
//
// Parameters:
//   - dev: the device owning the surface
//   - surface: the window size source
//   - options: SynchronizerBuilderOption values applied in order
//
// Returns:
//   - *Synchronizer: the synchronizer
//   - error: a device error during the first configuration
func NewSynchronizer(dev gpu.Device, surface Surface, options ...SynchronizerBuilderOption) (*Synchronizer, error) {
	s := &Synchronizer{
		dev:     dev,
		surface: surface,
		logger:  zap.NewNop(),
		clear:   [4]float64{0.1, 0.1, 0.12, 1},
	}
	for _, opt := range options {
		opt(s)
	}
	if w, h := surface.Size(); w <= 0 || h <= 0 {
		s.needsRebuild = true
		return s, nil
	}
	if err := s.build(); err != nil {
		s.releaseFrames()
		return nil, err
	}
	return s, nil
}

// ImageCount returns the number of swapchain images, which is also the number of frame slots.
func (s *Synchronizer) ImageCount() int { return s.info.ImageCount }

// Generation identifies the current swapchain build.
func (s *Synchronizer) Generation() uuid.UUID { return s.generation }

// Info returns the current swapchain description.
func (s *Synchronizer) Info() gpu.SwapchainInfo { return s.info }

// State returns the state of slot, or StateIdle when slot is out of range.
func (s *Synchronizer) State(slot int) State {
	if slot < 0 || slot >= len(s.frames) {
		return StateIdle
	}
	return s.frames[slot].state
}

// NextFrame waits for the next slot to become reusable, acquires a swapchain image and begins recording.
//
// A pending resize rebuilds the swapchain before waiting. A stale acquire rebuilds it and returns
// ErrRetry, as does a zero-sized surface. Any other error is fatal.
//
// Parameters:
//   - ctx: bounds the fence wait together with the wait timeout option
//
// Returns:
//   - *Frame: the frame to record into
//   - error: ErrRetry, ErrClosed or a fatal error
func (s *Synchronizer) NextFrame(ctx context.Context) (*Frame, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.surface.TakeResized() {
		s.needsRebuild = true
	}
	if s.needsRebuild {
		if err := s.Recreate(ctx); err != nil {
			return nil, err
		}
	}

	slot := s.counter % len(s.frames)
	s.counter++
	f := s.frames[slot]

	f.state = StateWaiting
	if err := s.waitSlot(ctx, f); err != nil {
		f.state = StateIdle
		return nil, err
	}

	f.state = StateAcquiring
	image, err := s.dev.AcquireImage(ctx, f.imageAcquired)
	if err != nil {
		f.state = StateIdle
		if errors.Is(err, gpu.ErrSwapchainStale) {
			s.stale("acquire")
			if err := s.Recreate(ctx); err != nil {
				return nil, err
			}
			return nil, ErrRetry
		}
		return nil, fmt.Errorf("acquire image for slot %d: %w", slot, err)
	}

	f.image = image
	f.swapchainView = s.dev.SwapchainView(image)
	if err := f.commands.Begin(); err != nil {
		return nil, fmt.Errorf("begin slot %d: %w", slot, err)
	}
	f.state = StateRecording
	return f, nil
}

// Present ends recording, submits the frame and queues its image for presentation.
// A stale report rebuilds the swapchain and returns ErrRetry.
//
// Parameters:
//   - ctx: bounds the drain of a rebuild
//   - f: the frame returned by the last NextFrame
//
// Returns:
//   - error: ErrRetry or a fatal error
func (s *Synchronizer) Present(ctx context.Context, f *Frame) error {
	if f.state != StateRecording {
		return fmt.Errorf("present slot %d in state %s", f.slot, f.state)
	}
	if f.commands.InRenderPass() {
		if err := f.commands.EndRenderPass(); err != nil {
			return fmt.Errorf("present slot %d: %w", f.slot, err)
		}
	}
	if err := f.commands.End(); err != nil {
		return fmt.Errorf("present slot %d: %w", f.slot, err)
	}

	f.state = StateSubmitted
	if err := s.dev.ResetFence(f.fence); err != nil {
		return fmt.Errorf("reset fence of slot %d: %w", f.slot, err)
	}
	signal := s.renderComplete[f.image]
	if err := s.dev.Submit(gpu.SubmitInfo{
		Commands: f.commands,
		Wait:     f.imageAcquired,
		Signal:   signal,
		Fence:    f.fence,
	}); err != nil {
		return fmt.Errorf("submit slot %d: %w", f.slot, err)
	}

	f.state = StatePresenting
	err := s.dev.Present(f.image, signal)
	f.state = StateIdle
	if err != nil {
		if errors.Is(err, gpu.ErrSwapchainStale) {
			s.stale("present")
			if err := s.Recreate(ctx); err != nil {
				return err
			}
			return ErrRetry
		}
		return fmt.Errorf("present image %d: %w", f.image, err)
	}
	if s.metrics != nil {
		s.metrics.FramesPresented.Inc()
	}
	return nil
}

// Recreate drains the device and rebuilds the swapchain, the frame slots and the per-image semaphores
// at the current surface size. The slot counter restarts at 0. A zero-sized surface leaves the
// rebuild pending and returns ErrRetry.
func (s *Synchronizer) Recreate(ctx context.Context) error {
	if w, h := s.surface.Size(); w <= 0 || h <= 0 {
		s.needsRebuild = true
		return ErrRetry
	}
	if err := s.drain(ctx); err != nil {
		return err
	}
	s.releaseFrames()
	if err := s.build(); err != nil {
		// a partial build is discarded so the next NextFrame retries from scratch
		s.releaseFrames()
		s.needsRebuild = true
		return err
	}
	if s.metrics != nil {
		s.metrics.SwapchainRecreations.Inc()
	}
	return nil
}

// Release hands r to the deferred deletion queue. It is released once every slot has waited on its
// fence, so no submission recorded before the call can still reference it.
func (s *Synchronizer) Release(r gpu.Releaser) {
	if r == nil {
		return
	}
	if s.closed || len(s.frames) == 0 {
		r.Release()
		s.countRelease()
		return
	}
	pending := bitset.New(uint(len(s.frames)))
	for i := range s.frames {
		pending.Set(uint(i))
	}
	s.deletions = append(s.deletions, deferred{r: r, pending: pending})
}

// PendingDeletions returns the number of objects waiting in the deferred deletion queue.
func (s *Synchronizer) PendingDeletions() int {
	return len(s.deletions)
}

// Shutdown drains all GPU work and releases every object the synchronizer owns. It is idempotent.
// When the drain fails nothing is released.
func (s *Synchronizer) Shutdown(ctx context.Context) error {
	if s.closed {
		return nil
	}
	if len(s.frames) > 0 {
		if err := s.drain(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	s.closed = true
	s.releaseFrames()
	s.logger.Info("frame synchronizer shut down", zap.Stringer("swapchain", s.generation))
	return nil
}

// build configures the surface and creates every per-slot and per-image object.
func (s *Synchronizer) build() error {
	w, h := s.surface.Size()
	info, err := s.dev.ConfigureSurface(w, h)
	if err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	s.info = info
	s.generation = uuid.New()
	s.counter = 0
	s.needsRebuild = false

	for i := 0; i < info.ImageCount; i++ {
		sem, err := s.dev.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("create render-complete semaphore %d: %w", i, err)
		}
		s.renderComplete = append(s.renderComplete, sem)
	}
	for slot := 0; slot < info.ImageCount; slot++ {
		f, err := s.buildFrame(slot)
		if err != nil {
			return err
		}
		s.frames = append(s.frames, f)
	}

	s.logger.Info("swapchain configured",
		zap.Stringer("swapchain", s.generation),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int("images", info.ImageCount),
	)
	return nil
}

func (s *Synchronizer) buildFrame(slot int) (*Frame, error) {
	var cacheOpts []descriptor.CacheBuilderOption
	if s.metrics != nil {
		cacheOpts = append(cacheOpts, descriptor.WithMetrics(s.metrics))
	}
	f := &Frame{
		dev:      s.dev,
		slot:     slot,
		width:    s.info.Width,
		height:   s.info.Height,
		clear:    s.clear,
		cache:    descriptor.NewCache(cacheOpts...),
		deferred: s.Release,
	}
	fail := func(what string, err error) (*Frame, error) {
		for _, r := range []gpu.Releaser{f.commands, f.imageAcquired, f.fence} {
			if r != nil {
				r.Release()
			}
		}
		f.attachments.release()
		return nil, fmt.Errorf("frame slot %d: create %s: %w", slot, what, err)
	}

	var err error
	if f.commands, err = s.dev.CreateCommandBuffer(fmt.Sprintf("frame-%d", slot)); err != nil {
		return fail("command buffer", err)
	}
	if f.imageAcquired, err = s.dev.CreateSemaphore(); err != nil {
		return fail("image-acquired semaphore", err)
	}
	// signaled so the first wait on a fresh slot returns at once
	if f.fence, err = s.dev.CreateFence(true); err != nil {
		return fail("fence", err)
	}
	usage := gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding
	size := func(format gpu.TextureFormat) gpu.TextureDescriptor {
		return gpu.TextureDescriptor{Width: uint32(s.info.Width), Height: uint32(s.info.Height), Format: format, Usage: usage}
	}
	if f.attachments.Color, err = s.dev.CreateTexture(fmt.Sprintf("frame-%d-color", slot), size(pipeline.ColorFormat)); err != nil {
		return fail("color attachment", err)
	}
	if f.attachments.Normal, err = s.dev.CreateTexture(fmt.Sprintf("frame-%d-normal", slot), size(pipeline.NormalFormat)); err != nil {
		return fail("normal attachment", err)
	}
	if f.attachments.Depth, err = s.dev.CreateTexture(fmt.Sprintf("frame-%d-depth", slot), size(pipeline.DepthFormat)); err != nil {
		return fail("depth attachment", err)
	}
	return f, nil
}

// releaseFrames releases every frame slot and render-complete semaphore. The device must be idle.
func (s *Synchronizer) releaseFrames() {
	for _, f := range s.frames {
		f.release()
	}
	for _, sem := range s.renderComplete {
		sem.Release()
	}
	s.frames = nil
	s.renderComplete = nil
}

// waitSlot blocks until the slot's previous submission completed, then retires deferred deletions the
// slot was holding.
func (s *Synchronizer) waitSlot(ctx context.Context, f *Frame) error {
	wctx, cancel := s.waitContext(ctx)
	defer cancel()
	start := time.Now()
	err := s.dev.WaitForFence(wctx, f.fence)
	if s.metrics != nil {
		s.metrics.FenceWait.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("wait for slot %d: %w", f.slot, err)
	}
	s.retire(f.slot)
	return nil
}

// drain waits for the device to go idle and flushes every deferred deletion.
func (s *Synchronizer) drain(ctx context.Context) error {
	wctx, cancel := s.waitContext(ctx)
	defer cancel()
	if err := s.dev.WaitIdle(wctx); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	for _, d := range s.deletions {
		d.r.Release()
		s.countRelease()
	}
	s.deletions = nil
	return nil
}

// retire clears slot from every pending deletion and releases the ones no slot still covers.
func (s *Synchronizer) retire(slot int) {
	kept := s.deletions[:0]
	for _, d := range s.deletions {
		d.pending.Clear(uint(slot))
		if d.pending.None() {
			d.r.Release()
			s.countRelease()
			continue
		}
		kept = append(kept, d)
	}
	clear(s.deletions[len(kept):])
	s.deletions = kept
}

func (s *Synchronizer) waitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.waitTimeout > 0 {
		return context.WithTimeout(ctx, s.waitTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Synchronizer) stale(where string) {
	if s.metrics != nil {
		s.metrics.SwapchainStale.Inc()
	}
	s.logger.Info("swapchain stale", zap.String("at", where), zap.Stringer("swapchain", s.generation))
}

func (s *Synchronizer) countRelease() {
	if s.metrics != nil {
		s.metrics.DeferredReleases.Inc()
	}
}
