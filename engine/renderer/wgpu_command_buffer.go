package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	errNotRecording = errors.New("command buffer is not recording")
	errPassOpen     = errors.New("render pass already open")
	errNoPass       = errors.New("no render pass open")
)

// wgpuCommandBuffer records into a fresh wgpu.CommandEncoder on every Begin.
// The finished wgpu.CommandBuffer is handed to the queue by Device.Submit.
type wgpuCommandBuffer struct {
	label   string
	device  *wgpu.Device
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	// finished is set by End and consumed by Submit.
	finished *wgpu.CommandBuffer
	// err holds the first failure of a void recording call, reported by End.
	err error
}

var _ gpu.CommandBuffer = &wgpuCommandBuffer{}

func (c *wgpuCommandBuffer) Label() string { return c.label }

func (c *wgpuCommandBuffer) Begin() error {
	if c.encoder != nil {
		return fmt.Errorf("command buffer %s already recording", c.label)
	}
	c.dropFinished()
	encoder, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: c.label})
	if err != nil {
		return fmt.Errorf("%w: command encoder %s: %v", gpu.ErrResourceCreation, c.label, err)
	}
	c.encoder = encoder
	c.err = nil
	return nil
}

func (c *wgpuCommandBuffer) End() error {
	if c.encoder == nil {
		return errNotRecording
	}
	if c.pass != nil {
		c.pass.End()
		c.pass.Release()
		c.pass = nil
	}
	defer func() {
		c.encoder.Release()
		c.encoder = nil
	}()
	if c.err != nil {
		return c.err
	}
	finished, err := c.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish %s: %w", c.label, err)
	}
	c.finished = finished
	return nil
}

func (c *wgpuCommandBuffer) BeginRenderPass(desc gpu.RenderPassDescriptor) error {
	if c.encoder == nil {
		return errNotRecording
	}
	if c.pass != nil {
		return errPassOpen
	}
	colors := make([]wgpu.RenderPassColorAttachment, len(desc.Color))
	for i, att := range desc.Color {
		view, ok := att.View.(*wgpuTextureView)
		if !ok || view.view == nil {
			return fmt.Errorf("pass %s: color attachment %d is not a live view", desc.Label, i)
		}
		colors[i] = wgpu.RenderPassColorAttachment{
			View:    view.view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: att.Clear[0], G: att.Clear[1], B: att.Clear[2], A: att.Clear[3],
			},
		}
	}
	rp := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: colors,
	}
	if desc.Depth != nil {
		view, ok := desc.Depth.(*wgpuTextureView)
		if !ok || view.view == nil {
			return fmt.Errorf("pass %s: depth attachment is not a live view", desc.Label)
		}
		// depth is stored so post-process passes can sample it
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            view.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.DepthClear,
		}
	}
	c.pass = c.encoder.BeginRenderPass(rp)
	return nil
}

func (c *wgpuCommandBuffer) EndRenderPass() error {
	if c.pass == nil {
		return errNoPass
	}
	c.pass.End()
	c.pass.Release()
	c.pass = nil
	return nil
}

func (c *wgpuCommandBuffer) InRenderPass() bool {
	return c.pass != nil
}

func (c *wgpuCommandBuffer) SetPipeline(p gpu.RenderPipeline) {
	rp, ok := p.(*wgpuRenderPipeline)
	if !c.usable("set pipeline") || !c.check(ok && rp.pipeline != nil, "set pipeline: not a live pipeline") {
		return
	}
	c.pass.SetPipeline(rp.pipeline)
}

func (c *wgpuCommandBuffer) SetBindGroup(index int, bg gpu.BindGroup) {
	g, ok := bg.(*wgpuBindGroup)
	if !c.usable("set bind group") || !c.check(ok && g.group != nil, "set bind group %d: not a live bind group", index) {
		return
	}
	c.pass.SetBindGroup(uint32(index), g.group, nil)
}

func (c *wgpuCommandBuffer) SetVertexBuffer(buf gpu.Buffer) {
	b, ok := buf.(*wgpuBuffer)
	if !c.usable("set vertex buffer") || !c.check(ok && b.buffer != nil, "set vertex buffer: not a live buffer") {
		return
	}
	c.pass.SetVertexBuffer(0, b.buffer, 0, wgpu.WholeSize)
}

func (c *wgpuCommandBuffer) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	b, ok := buf.(*wgpuBuffer)
	if !c.usable("set index buffer") || !c.check(ok && b.buffer != nil, "set index buffer: not a live buffer") {
		return
	}
	f, err := toWGPUIndexFormat(format)
	if err != nil {
		c.fail(err)
		return
	}
	c.pass.SetIndexBuffer(b.buffer, f, 0, wgpu.WholeSize)
}

func (c *wgpuCommandBuffer) Draw(vertexCount, instanceCount int) {
	if c.usable("draw") {
		c.pass.Draw(uint32(vertexCount), uint32(instanceCount), 0, 0)
	}
}

func (c *wgpuCommandBuffer) DrawIndexed(indexCount, instanceCount int) {
	if c.usable("draw indexed") {
		c.pass.DrawIndexed(uint32(indexCount), uint32(instanceCount), 0, 0, 0)
	}
}

func (c *wgpuCommandBuffer) Release() {
	if c.pass != nil {
		c.pass.Release()
		c.pass = nil
	}
	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}
	c.dropFinished()
}

// take hands the finished buffer to the caller, who becomes responsible for releasing it.
func (c *wgpuCommandBuffer) take() (*wgpu.CommandBuffer, error) {
	if c.finished == nil {
		return nil, fmt.Errorf("command buffer %s was not ended", c.label)
	}
	finished := c.finished
	c.finished = nil
	return finished, nil
}

func (c *wgpuCommandBuffer) dropFinished() {
	if c.finished != nil {
		c.finished.Release()
		c.finished = nil
	}
}

func (c *wgpuCommandBuffer) usable(op string) bool {
	return c.check(c.pass != nil, "%s: %v", op, errNoPass)
}

func (c *wgpuCommandBuffer) check(ok bool, format string, args ...any) bool {
	if !ok {
		c.fail(fmt.Errorf(format, args...))
	}
	return ok
}

func (c *wgpuCommandBuffer) fail(err error) {
	if c.err == nil {
		c.err = fmt.Errorf("command buffer %s: %w", c.label, err)
	}
}
