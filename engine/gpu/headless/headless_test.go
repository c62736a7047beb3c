package headless

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitEmpty(t *testing.T, d *Device, f gpu.Fence, refs ...gpu.Buffer) {
	t.Helper()
	cb, err := d.CreateCommandBuffer("cb")
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	for _, b := range refs {
		cb.SetVertexBuffer(b)
	}
	require.NoError(t, cb.End())
	require.NoError(t, d.Submit(gpu.SubmitInfo{Commands: cb, Fence: f}))
}

func TestFenceSignalsAfterSubmission(t *testing.T) {
	d := NewDevice(WithLatency(5 * time.Millisecond))
	defer d.Release()

	f, err := d.CreateFence(true)
	require.NoError(t, err)
	assert.True(t, f.Signaled())
	require.NoError(t, d.ResetFence(f))
	assert.False(t, f.Signaled())

	submitEmpty(t, d, f)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.WaitForFence(ctx, f))
	assert.True(t, f.Signaled())
	assert.Empty(t, d.Violations())
}

func TestHungQueueTimesOut(t *testing.T) {
	d := NewDevice(WithHang())
	defer d.Release()

	f, _ := d.CreateFence(false)
	submitEmpty(t, d, f)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.WaitForFence(ctx, f)
	assert.ErrorIs(t, err, gpu.ErrWaitTimeout)
	assert.ErrorIs(t, d.WaitIdle(ctx), gpu.ErrWaitTimeout)
}

func TestReleaseWhileInFlightIsViolation(t *testing.T) {
	d := NewDevice(WithHang())
	defer d.Release()

	buf, err := d.CreateBuffer("vertices", 16, gpu.BufferUsageVertex)
	require.NoError(t, err)
	f, _ := d.CreateFence(false)
	submitEmpty(t, d, f, buf)

	buf.Release()
	require.Len(t, d.Violations(), 1)
	assert.Contains(t, d.Violations()[0], "vertices")
}

func TestStaleSwapchain(t *testing.T) {
	d := NewDevice(WithImageCount(2))
	defer d.Release()
	ctx := context.Background()

	_, err := d.ConfigureSurface(640, 480)
	require.NoError(t, err)
	img, err := d.AcquireImage(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, img)

	d.MarkStale()
	assert.ErrorIs(t, d.Present(img, nil), gpu.ErrSwapchainStale)
	_, err = d.AcquireImage(ctx, nil)
	assert.ErrorIs(t, err, gpu.ErrSwapchainStale)

	info, err := d.ConfigureSurface(320, 240)
	require.NoError(t, err)
	assert.Equal(t, 2, info.ImageCount)
	img, err = d.AcquireImage(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, img)
	assert.Empty(t, d.Violations())
}

func TestBindGroupValidation(t *testing.T) {
	d := NewDevice()
	defer d.Release()

	p, err := d.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label:    "p",
		Vertex:   gpu.ShaderProgram{Code: []byte("vs")},
		Fragment: gpu.ShaderProgram{Code: []byte("fs")},
		BindGroups: []gpu.BindGroupLayoutDescriptor{{
			Label:   "camera",
			Entries: []gpu.BindGroupLayoutEntry{{Binding: 0, Type: gpu.BindingUniformBuffer}},
		}},
	})
	require.NoError(t, err)
	layout := p.BindGroupLayout(0)
	require.NotNil(t, layout)
	assert.Nil(t, p.BindGroupLayout(1))

	_, err = d.CreateBindGroup("empty", layout, []gpu.BindGroupEntry{{Binding: 0}})
	assert.ErrorIs(t, err, gpu.ErrResourceCreation)

	buf, _ := d.CreateBuffer("u", 64, gpu.BufferUsageUniform)
	bg, err := d.CreateBindGroup("ok", layout, []gpu.BindGroupEntry{{Binding: 0, Buffer: buf}})
	require.NoError(t, err)
	assert.Equal(t, "ok", bg.Label())
}

func TestPipelineTargetMismatchIsViolation(t *testing.T) {
	d := NewDevice()
	defer d.Release()

	pipe := func(format gpu.TextureFormat) gpu.RenderPipeline {
		p, err := d.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
			Label:        "pipeline",
			Vertex:       gpu.ShaderProgram{Code: []byte("vs")},
			Fragment:     gpu.ShaderProgram{Code: []byte("fs")},
			ColorTargets: []gpu.TextureFormat{format},
		})
		require.NoError(t, err)
		return p
	}
	tex, err := d.CreateTexture("target", gpu.TextureDescriptor{Width: 4, Height: 4, Format: gpu.TextureFormatBGRA8Unorm})
	require.NoError(t, err)

	cb, err := d.CreateCommandBuffer("cb")
	require.NoError(t, err)
	require.NoError(t, cb.Begin())
	require.NoError(t, cb.BeginRenderPass(gpu.RenderPassDescriptor{Label: "pass", Color: []gpu.ColorAttachment{{View: tex.View()}}}))
	cb.SetPipeline(pipe(gpu.TextureFormatBGRA8Unorm))
	assert.Empty(t, d.Violations())

	cb.SetPipeline(pipe(gpu.TextureFormatRGBA8Unorm))
	assert.Len(t, d.Violations(), 1)
	require.NoError(t, cb.EndRenderPass())
	require.NoError(t, cb.End())
}
