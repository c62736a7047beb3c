package frame

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSync(t *testing.T, surf *headless.Surface, devOpts []headless.HeadlessBuilderOption, opts ...SynchronizerBuilderOption) (*headless.Device, *Synchronizer) {
	t.Helper()
	dev := headless.NewDevice(devOpts...)
	t.Cleanup(dev.Release)
	s, err := NewSynchronizer(dev, surf, opts...)
	require.NoError(t, err)
	return dev, s
}

// render runs one full frame and returns it.
func render(t *testing.T, s *Synchronizer) *Frame {
	t.Helper()
	ctx := context.Background()
	f, err := s.NextFrame(ctx)
	require.NoError(t, err)
	require.NoError(t, f.BeginScene())
	require.NoError(t, f.EndScene())
	require.NoError(t, s.Present(ctx, f))
	return f
}

func TestRoundRobinSlots(t *testing.T) {
	dev, s := newSync(t, headless.NewSurface(800, 600), nil)
	require.Equal(t, 3, s.ImageCount())

	var slots, images []int
	for range 6 {
		f := render(t, s)
		slots = append(slots, f.Slot())
		images = append(images, f.Image())
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, slots)
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, images)
	assert.Empty(t, dev.Violations())
	assert.Equal(t, 6, dev.Stats().Presents)
}

func TestFrameStates(t *testing.T) {
	_, s := newSync(t, headless.NewSurface(800, 600), nil)
	ctx := context.Background()

	f, err := s.NextFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateRecording, s.State(f.Slot()))
	assert.Equal(t, StateIdle, s.State(1))

	require.NoError(t, s.Present(ctx, f))
	assert.Equal(t, StateIdle, s.State(f.Slot()))
	assert.Error(t, s.Present(ctx, f), "present twice")
}

func TestResizeRebuildsBeforeAcquire(t *testing.T) {
	surf := headless.NewSurface(800, 600)
	dev, s := newSync(t, surf, []headless.HeadlessBuilderOption{headless.WithLatency(2 * time.Millisecond)})
	render(t, s)
	render(t, s)
	gen := s.Generation()

	surf.Resize(1024, 768)
	f := render(t, s)

	assert.Equal(t, 0, f.Slot(), "slot counter restarts after a rebuild")
	w, h := f.Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
	assert.Equal(t, uint32(1024), f.Attachments().Color.Descriptor().Width)
	assert.NotEqual(t, gen, s.Generation())

	stats := dev.Stats()
	assert.Equal(t, 2, stats.Configures)
	assert.GreaterOrEqual(t, stats.WaitIdles, 1)
	assert.Empty(t, dev.Violations())
}

func TestStaleAcquireRetries(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := profiler.NewMetrics(reg)
	dev, s := newSync(t, headless.NewSurface(800, 600), nil, WithMetrics(metrics))
	ctx := context.Background()
	render(t, s)

	dev.MarkStale()
	_, err := s.NextFrame(ctx)
	assert.ErrorIs(t, err, ErrRetry)
	assert.Equal(t, 2, dev.Stats().Configures)

	f := render(t, s)
	assert.Equal(t, 0, f.Slot())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SwapchainStale))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SwapchainRecreations))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FramesPresented))
	assert.Empty(t, dev.Violations())
}

func TestStalePresentRetries(t *testing.T) {
	dev, s := newSync(t, headless.NewSurface(800, 600), nil)
	ctx := context.Background()

	f, err := s.NextFrame(ctx)
	require.NoError(t, err)
	require.NoError(t, f.BeginScene())
	dev.MarkStale()
	assert.ErrorIs(t, s.Present(ctx, f), ErrRetry)
	assert.Equal(t, 2, dev.Stats().Configures)

	render(t, s)
	assert.Empty(t, dev.Violations())
}

func TestZeroSizedSurface(t *testing.T) {
	surf := headless.NewSurface(0, 0)
	dev, s := newSync(t, surf, nil)
	ctx := context.Background()

	_, err := s.NextFrame(ctx)
	assert.ErrorIs(t, err, ErrRetry)
	assert.Equal(t, 0, dev.Stats().Acquires)

	surf.Resize(640, 480)
	f := render(t, s)
	w, h := f.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestDeferredDeletion(t *testing.T) {
	dev, s := newSync(t, headless.NewSurface(800, 600), []headless.HeadlessBuilderOption{headless.WithLatency(5 * time.Millisecond)})
	ctx := context.Background()

	buf, err := dev.CreateBuffer("doomed", 64, gpu.BufferUsageVertex)
	require.NoError(t, err)

	f, err := s.NextFrame(ctx)
	require.NoError(t, err)
	require.NoError(t, f.BeginScene())
	f.Commands().SetVertexBuffer(buf)
	f.Commands().Draw(3, 1)
	require.NoError(t, f.EndScene())
	require.NoError(t, s.Present(ctx, f))

	s.Release(buf)
	assert.Equal(t, 1, s.PendingDeletions())

	render(t, s) // slot 1
	render(t, s) // slot 2
	assert.False(t, headless.IsReleased(buf))

	render(t, s) // slot 0 waits for the submission that used buf
	assert.True(t, headless.IsReleased(buf))
	assert.Equal(t, 0, s.PendingDeletions())
	assert.Empty(t, dev.Violations())
}

func TestShutdownDrains(t *testing.T) {
	dev, s := newSync(t, headless.NewSurface(800, 600), []headless.HeadlessBuilderOption{headless.WithLatency(10 * time.Millisecond)})
	ctx := context.Background()
	for range 3 {
		render(t, s)
	}
	buf, err := dev.CreateBuffer("late", 16, gpu.BufferUsageUniform)
	require.NoError(t, err)
	s.Release(buf)

	require.NoError(t, s.Shutdown(ctx))
	stats := dev.Stats()
	assert.Equal(t, stats.Submits, stats.Completed)
	assert.True(t, headless.IsReleased(buf))
	assert.Empty(t, dev.Violations())

	assert.NoError(t, s.Shutdown(ctx))
	_, err = s.NextFrame(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHungFenceTimesOut(t *testing.T) {
	_, s := newSync(t, headless.NewSurface(800, 600), []headless.HeadlessBuilderOption{headless.WithHang()},
		WithWaitTimeout(20*time.Millisecond))
	ctx := context.Background()
	for range 3 {
		render(t, s)
	}

	_, err := s.NextFrame(ctx)
	assert.ErrorIs(t, err, gpu.ErrWaitTimeout)
	assert.ErrorIs(t, s.Shutdown(ctx), gpu.ErrWaitTimeout)
}

// failingDevice fails texture creation while fail is set.
type failingDevice struct {
	gpu.Device
	fail atomic.Bool
}

func (d *failingDevice) CreateTexture(label string, desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if d.fail.Load() {
		return nil, errors.New("out of device memory")
	}
	return d.Device.CreateTexture(label, desc)
}

func TestFailedRebuildRetries(t *testing.T) {
	hd := headless.NewDevice()
	t.Cleanup(hd.Release)
	dev := &failingDevice{Device: hd}
	surf := headless.NewSurface(800, 600)
	s, err := NewSynchronizer(dev, surf)
	require.NoError(t, err)
	ctx := context.Background()
	render(t, s)

	dev.fail.Store(true)
	surf.Resize(1024, 768)
	_, err = s.NextFrame(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRetry)
	assert.Equal(t, StateIdle, s.State(0), "no slot survives a failed rebuild")

	assert.NotPanics(t, func() {
		_, err = s.NextFrame(ctx)
	})
	assert.Error(t, err)

	dev.fail.Store(false)
	f := render(t, s)
	assert.Equal(t, 0, f.Slot())
	w, _ := f.Size()
	assert.Equal(t, 1024, w)
	assert.Empty(t, hd.Violations())
}
