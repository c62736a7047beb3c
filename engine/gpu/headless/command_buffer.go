package headless

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// Op names a recorded command.
type Op string

const (
	OpBeginRenderPass Op = "begin-render-pass"
	OpEndRenderPass   Op = "end-render-pass"
	OpSetPipeline     Op = "set-pipeline"
	OpSetBindGroup    Op = "set-bind-group"
	OpSetVertexBuffer Op = "set-vertex-buffer"
	OpSetIndexBuffer  Op = "set-index-buffer"
	OpDraw            Op = "draw"
	OpDrawIndexed     Op = "draw-indexed"
)

// Command is one recorded command. Label is the label of the bound object or pass, Index is the
// bind group index, and Count is the vertex or index count.
type Command struct {
	Op    Op
	Label string
	Index int
	Count int
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%s, %d, %d)", c.Op, c.Label, c.Index, c.Count)
}

// CommandBuffer records commands into a log instead of a GPU encoder.
type CommandBuffer struct {
	resource
	recording bool
	ended     bool
	inPass    bool
	// formats are the color attachment formats of the open pass, nil when any view is foreign.
	formats  []gpu.TextureFormat
	commands []Command
	refs     []*resource
}

var _ gpu.CommandBuffer = &CommandBuffer{}

// Commands returns the commands recorded since the last Begin.
func (c *CommandBuffer) Commands() []Command {
	return append([]Command(nil), c.commands...)
}

func (c *CommandBuffer) Begin() error {
	if c.Released() {
		return fmt.Errorf("command buffer %q: begin after release", c.label)
	}
	c.recording = true
	c.ended = false
	c.inPass = false
	c.commands = c.commands[:0]
	c.refs = c.refs[:0]
	return nil
}

func (c *CommandBuffer) End() error {
	if !c.recording {
		return fmt.Errorf("command buffer %q: end without begin", c.label)
	}
	if c.inPass {
		return fmt.Errorf("command buffer %q: end inside render pass", c.label)
	}
	c.recording = false
	c.ended = true
	return nil
}

func (c *CommandBuffer) BeginRenderPass(desc gpu.RenderPassDescriptor) error {
	if !c.recording {
		return fmt.Errorf("command buffer %q: render pass outside recording", c.label)
	}
	if c.inPass {
		return fmt.Errorf("command buffer %q: nested render pass %q", c.label, desc.Label)
	}
	c.inPass = true
	c.formats = make([]gpu.TextureFormat, 0, len(desc.Color))
	for _, a := range desc.Color {
		c.ref(a.View)
		if v, ok := a.View.(*textureView); ok && c.formats != nil {
			c.formats = append(c.formats, v.format)
		} else {
			c.formats = nil
		}
	}
	c.ref(desc.Depth)
	c.record(Command{Op: OpBeginRenderPass, Label: desc.Label, Count: len(desc.Color)})
	return nil
}

func (c *CommandBuffer) EndRenderPass() error {
	if !c.inPass {
		return fmt.Errorf("command buffer %q: no render pass open", c.label)
	}
	c.inPass = false
	c.formats = nil
	c.record(Command{Op: OpEndRenderPass})
	return nil
}

func (c *CommandBuffer) InRenderPass() bool {
	return c.inPass
}

// SetPipeline records a violation when the pipeline's color targets differ from the open pass attachments,
// which a real device rejects at validation.
func (c *CommandBuffer) SetPipeline(p gpu.RenderPipeline) {
	c.ref(p)
	if rp, ok := p.(*renderPipeline); ok && c.inPass && c.formats != nil && !slices.Equal(rp.targets, c.formats) {
		c.dev.mu.Lock()
		c.dev.violate("pipeline %q targets %v, pass %q attachments are %v", rp.label, rp.targets, c.label, c.formats)
		c.dev.mu.Unlock()
	}
	c.record(Command{Op: OpSetPipeline, Label: labelOf(p)})
}

func (c *CommandBuffer) SetBindGroup(index int, bg gpu.BindGroup) {
	c.ref(bg)
	if g, ok := bg.(*bindGroup); ok {
		for _, e := range g.entries {
			c.ref(e.Buffer)
			c.ref(e.TextureView)
			c.ref(e.Sampler)
		}
	}
	c.record(Command{Op: OpSetBindGroup, Label: labelOf(bg), Index: index})
}

func (c *CommandBuffer) SetVertexBuffer(buf gpu.Buffer) {
	c.ref(buf)
	c.record(Command{Op: OpSetVertexBuffer, Label: labelOf(buf)})
}

func (c *CommandBuffer) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	c.ref(buf)
	c.record(Command{Op: OpSetIndexBuffer, Label: labelOf(buf), Index: int(format)})
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount int) {
	c.record(Command{Op: OpDraw, Count: vertexCount, Index: instanceCount})
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount int) {
	c.record(Command{Op: OpDrawIndexed, Count: indexCount, Index: instanceCount})
}

func (c *CommandBuffer) record(cmd Command) {
	c.commands = append(c.commands, cmd)
}

// ref remembers an object the submission will read. Nil interfaces and foreign objects are ignored.
func (c *CommandBuffer) ref(r any) {
	if t, ok := r.(tracked); ok && t != nil {
		if b := t.base(); b != nil {
			c.refs = append(c.refs, b)
		}
	}
}

func labelOf(r gpu.Resource) string {
	if r == nil {
		return ""
	}
	return r.Label()
}
