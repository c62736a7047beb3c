package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadModel() model.Model {
	m := model.NewModel()
	camNode := model.NewNode("camera")
	camNode.Trs = model.TranslationTrs(0, 0, 3)
	camNode.Camera = m.PushCamera(camera.FinitePerspective(1, math.Pi/4, 0.1, 100))
	m.PushToScene(m.PushNode(camNode))

	mat := m.PushMaterial(model.Material{Name: "flat", BaseColor: mgl32.Vec4{1, 1, 1, 1}})
	quad := model.NewNode("quad")
	quad.Mesh = m.PushMesh(model.Mesh{Name: "quad", Primitives: []arena.Handle[model.Primitive]{m.PushPrimitive(model.QuadPrimitive(mat))}})
	m.PushToScene(m.PushNode(quad))
	return m
}

func newHeadless(t *testing.T, options ...headless.HeadlessBuilderOption) *headless.Device {
	t.Helper()
	dev := headless.NewDevice(options...)
	t.Cleanup(dev.Release)
	return dev
}

func hasPipeline(cmds []headless.Command, label string) bool {
	for _, c := range cmds {
		if c.Op == headless.OpSetPipeline && c.Label == label {
			return true
		}
	}
	return false
}

func TestRunHeadless(t *testing.T) {
	dev := newHeadless(t)
	metrics := profiler.NewMetrics(prometheus.NewRegistry())

	var updates, overlays int
	e := NewEngine(
		WithDevice(dev),
		WithSurface(headless.NewSurface(800, 600)),
		WithModel(quadModel()),
		WithMetrics(metrics),
		WithMaxFrames(5),
		WithUpdateCallback(func(f *frame.Frame, dt float32) {
			updates++
			assert.Equal(t, frame.StateRecording, f.State())
		}),
		WithOverlayCallback(func(f *frame.Frame) {
			overlays++
			assert.True(t, f.Commands().InRenderPass())
		}),
	)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 5, e.Frames())
	assert.Equal(t, 5, updates)
	assert.Equal(t, 5, overlays)
	assert.Equal(t, 5, dev.Stats().Presents)
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.FramesPresented))
	assert.Empty(t, dev.Violations())

	submitted := dev.Submitted()
	require.Len(t, submitted, 5)
	assert.True(t, hasPipeline(submitted[4], "opaque"))
	assert.True(t, hasPipeline(submitted[4], "post-present"))
	assert.False(t, hasPipeline(submitted[4], "line"))
}

func TestRunQuit(t *testing.T) {
	dev := newHeadless(t)
	var e Engine
	e = NewEngine(
		WithDevice(dev),
		WithSurface(headless.NewSurface(800, 600)),
		WithModel(quadModel()),
		WithUpdateCallback(func(*frame.Frame, float32) {
			if e.Frames() == 2 {
				e.Quit()
				e.Quit()
			}
		}),
	)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, e.Frames())
}

func TestRunContextCancel(t *testing.T) {
	dev := newHeadless(t)
	ctx, cancel := context.WithCancel(context.Background())
	e := NewEngine(
		WithDevice(dev),
		WithSurface(headless.NewSurface(800, 600)),
		WithModel(quadModel()),
		WithUpdateCallback(func(*frame.Frame, float32) { cancel() }),
	)
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 1, e.Frames())
}

func TestRunResize(t *testing.T) {
	dev := newHeadless(t)
	surf := headless.NewSurface(800, 600)
	e := NewEngine(
		WithDevice(dev),
		WithSurface(surf),
		WithModel(quadModel()),
		WithMaxFrames(4),
		WithUpdateCallback(func(f *frame.Frame, _ float32) {
			if f.Slot() == 1 {
				surf.Resize(1024, 768)
			}
		}),
	)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 2, dev.Stats().Configures)
	assert.Equal(t, 1024, e.Synchronizer().Info().Width)
	assert.Empty(t, dev.Violations())
}

func TestRunStaleSwapchain(t *testing.T) {
	dev := newHeadless(t)
	e := NewEngine(
		WithDevice(dev),
		WithSurface(headless.NewSurface(800, 600)),
		WithModel(quadModel()),
		WithMaxFrames(3),
		WithOverlayCallback(func(f *frame.Frame) {
			if f.Slot() == 0 && dev.Stats().Configures == 1 {
				dev.MarkStale()
			}
		}),
	)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, e.Frames())
	assert.Equal(t, 2, dev.Stats().Configures)
}

func TestRunMinimizedAtStart(t *testing.T) {
	dev := newHeadless(t)
	surf := headless.NewSurface(0, 0)
	e := NewEngine(
		WithDevice(dev),
		WithSurface(surf),
		WithModel(quadModel()),
		WithMaxFrames(2),
	)
	restore := time.AfterFunc(30*time.Millisecond, func() { surf.Resize(640, 480) })
	defer restore.Stop()

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 2, e.Frames())
	assert.Equal(t, gpu.TextureFormatBGRA8Unorm, e.Synchronizer().Info().Format)
	submitted := dev.Submitted()
	require.Len(t, submitted, 2)
	assert.True(t, hasPipeline(submitted[1], "post-present"))
	assert.Empty(t, dev.Violations(), "post-process pipelines must target the configured swapchain format")
}

func TestRunTimeoutIsFatal(t *testing.T) {
	dev := newHeadless(t, headless.WithHang())
	e := NewEngine(
		WithDevice(dev),
		WithSurface(headless.NewSurface(800, 600)),
		WithModel(quadModel()),
		WithFrameTimeout(20*time.Millisecond),
	)
	err := e.Run(context.Background())
	assert.ErrorIs(t, err, gpu.ErrWaitTimeout)
	assert.Equal(t, 3, e.Frames())
}

func TestRunNotConfigured(t *testing.T) {
	assert.ErrorIs(t, NewEngine().Run(context.Background()), ErrNotConfigured)
	assert.ErrorIs(t, NewEngine(WithDevice(newHeadless(t))).Run(context.Background()), ErrNotConfigured)
}

func TestSetRenderFrameLimit(t *testing.T) {
	e := NewEngine(WithRenderFrameLimit(50)).(*engine)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
}
