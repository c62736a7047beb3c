package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// PostKind selects which frame attachment a post-process pipeline shows.
type PostKind int

const (
	// PostPresent copies the color attachment.
	PostPresent PostKind = iota
	// PostNormal shows the encoded surface normals.
	PostNormal
	// PostDepth shows linearized depth.
	PostDepth
)

func (k PostKind) String() string {
	switch k {
	case PostPresent:
		return "present"
	case PostNormal:
		return "normal"
	case PostDepth:
		return "depth"
	}
	return fmt.Sprintf("PostKind(%d)", int(k))
}

// ParsePostKind maps "present", "normal" or "depth" to a PostKind.
func ParsePostKind(s string) (PostKind, error) {
	for _, k := range []PostKind{PostPresent, PostNormal, PostDepth} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown post-process %q", s)
}

// PostProcessPipeline draws a full-screen triangle into the present pass, sampling the frame attachments.
type PostProcessPipeline struct {
	Kind     PostKind
	pipeline pipeline.Pipeline
	sampler  gpu.Sampler
}

// NewPostProcessPipeline creates and initializes the post-process pipeline of kind, using the program
// of the same name in lib.
//
// Parameters:
//   - dev: the device to create the pipeline on
//   - lib: the shader library
//   - kind: the attachment to show
//   - target: the swapchain format
//
// Returns:
//   - *PostProcessPipeline: the pipeline
//   - error: a shader or device error
func NewPostProcessPipeline(dev gpu.Device, lib *shader.Library, kind PostKind, target gpu.TextureFormat) (*PostProcessPipeline, error) {
	p := pipeline.NewPost(lib, kind.String(), target)
	if err := p.Init(dev); err != nil {
		return nil, err
	}
	smp, err := dev.CreateSampler("post-"+kind.String(), common.NearestClampSampler())
	if err != nil {
		p.Release()
		return nil, err
	}
	return &PostProcessPipeline{Kind: kind, pipeline: p, sampler: smp}, nil
}

func (p *PostProcessPipeline) Name() string { return p.pipeline.PipelineKey() }

// Render records the full-screen draw. The present pass must be open.
func (p *PostProcessPipeline) Render(f *frame.Frame) error {
	cmd := f.Commands()
	if !cmd.InRenderPass() {
		return fmt.Errorf("%s: render outside the present pass", p.Name())
	}
	key := descriptor.AttachmentsKey(p.Name())
	b, err := f.Cache().GetOrCreate(key, func() (bind_group_provider.BindGroupProvider, error) {
		a := f.Attachments()
		label := fmt.Sprintf("frame-%d %s", f.Slot(), key)
		bp := bind_group_provider.NewBindGroupProvider(label,
			bind_group_provider.WithTextureView(pipeline.BindingAttachmentColor, a.Color.View()),
			bind_group_provider.WithTextureView(pipeline.BindingAttachmentNormal, a.Normal.View()),
			bind_group_provider.WithTextureView(pipeline.BindingAttachmentDepth, a.Depth.View()),
			bind_group_provider.WithSampler(pipeline.BindingAttachmentSampler, p.sampler),
		)
		bg, err := f.Device().CreateBindGroup(label, p.pipeline.BindGroupLayout(pipeline.GroupAttachments), bind_group_provider.Entries(bp))
		if err != nil {
			return nil, err
		}
		bp.SetBindGroup(bg)
		return bp, nil
	})
	if err != nil {
		return err
	}
	cmd.SetPipeline(p.pipeline.Pipeline())
	cmd.SetBindGroup(pipeline.GroupAttachments, b.BindGroup())
	cmd.Draw(3, 1)
	return nil
}

func (p *PostProcessPipeline) Release() {
	p.pipeline.Release()
	p.sampler.Release()
}
