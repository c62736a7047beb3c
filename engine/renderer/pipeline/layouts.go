package pipeline

import (
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// Bind group indices shared by the scene pipelines.
const (
	GroupCamera   = 0
	GroupModel    = 1
	GroupMaterial = 2

	// GroupAttachments is the only group of the post-process pipelines.
	GroupAttachments = 0
)

// Bindings of the attachments group.
const (
	BindingAttachmentColor   = 0
	BindingAttachmentNormal  = 1
	BindingAttachmentDepth   = 2
	BindingAttachmentSampler = 3
)

// Formats of the main pass attachments.
const (
	ColorFormat  = gpu.TextureFormatRGBA8Unorm
	NormalFormat = gpu.TextureFormatRGBA16Float
	DepthFormat  = gpu.TextureFormatDepth32Float
)

var (
	cameraUniformSize   = uint64((&camera.GPUCameraUniform{}).Size())
	modelUniformSize    = uint64((&model.GPUModelUniform{}).Size())
	materialUniformSize = uint64((&material.GPUMaterialUniform{}).Size())
)

// CameraGroupLayout is group 0 of the scene pipelines: one camera uniform.
func CameraGroupLayout() gpu.BindGroupLayoutDescriptor {
	return gpu.BindGroupLayoutDescriptor{
		Label: "camera",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: 0, Type: gpu.BindingUniformBuffer, Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment, MinSize: cameraUniformSize},
		},
	}
}

// ModelGroupLayout is group 1 of the scene pipelines: one model uniform.
func ModelGroupLayout() gpu.BindGroupLayoutDescriptor {
	return gpu.BindGroupLayoutDescriptor{
		Label: "model",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: 0, Type: gpu.BindingUniformBuffer, Visibility: gpu.ShaderStageVertex, MinSize: modelUniformSize},
		},
	}
}

// MaterialGroupLayout is group 2 of the opaque pipeline: base color, texture and sampler.
func MaterialGroupLayout() gpu.BindGroupLayoutDescriptor {
	return gpu.BindGroupLayoutDescriptor{
		Label: "material",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: material.BindingUniform, Type: gpu.BindingUniformBuffer, Visibility: gpu.ShaderStageFragment, MinSize: materialUniformSize},
			{Binding: material.BindingTexture, Type: gpu.BindingTexture, Visibility: gpu.ShaderStageFragment},
			{Binding: material.BindingSampler, Type: gpu.BindingSampler, Visibility: gpu.ShaderStageFragment},
		},
	}
}

// AttachmentsGroupLayout is group 0 of the post-process pipelines: the main pass attachments.
func AttachmentsGroupLayout() gpu.BindGroupLayoutDescriptor {
	return gpu.BindGroupLayoutDescriptor{
		Label: "attachments",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: BindingAttachmentColor, Type: gpu.BindingTexture, Visibility: gpu.ShaderStageFragment},
			{Binding: BindingAttachmentNormal, Type: gpu.BindingTexture, Visibility: gpu.ShaderStageFragment},
			{Binding: BindingAttachmentDepth, Type: gpu.BindingDepthTexture, Visibility: gpu.ShaderStageFragment},
			{Binding: BindingAttachmentSampler, Type: gpu.BindingNonFilteringSampler, Visibility: gpu.ShaderStageFragment},
		},
	}
}

// NewOpaque configures the textured triangle pipeline of the main pass.
//
// Parameters:
//   - lib: the shader library holding the "opaque" program
//   - opts: overrides applied after the defaults
//
// Returns:
//   - Pipeline: the pipeline, not yet initialized
func NewOpaque(lib *shader.Library, opts ...PipelineBuilderOption) Pipeline {
	base := []PipelineBuilderOption{
		WithShaders(lib, "opaque"),
		WithTopology(gpu.TopologyTriangleList),
		WithCullMode(gpu.CullModeBack),
		WithVertexLayout(model.VertexLayout),
		WithBindGroups(CameraGroupLayout(), ModelGroupLayout(), MaterialGroupLayout()),
		WithColorTargets(ColorFormat, NormalFormat),
	}
	return NewPipeline("opaque", append(base, opts...)...)
}

// NewLine configures the vertex-colored line pipeline of the main pass.
func NewLine(lib *shader.Library, opts ...PipelineBuilderOption) Pipeline {
	base := []PipelineBuilderOption{
		WithShaders(lib, "line"),
		WithTopology(gpu.TopologyLineList),
		WithVertexLayout(model.LineVertexLayout),
		WithBindGroups(CameraGroupLayout(), ModelGroupLayout()),
		WithColorTargets(ColorFormat, NormalFormat),
	}
	return NewPipeline("line", append(base, opts...)...)
}

// NewPost configures a full-screen pipeline that samples the main pass attachments and writes the
// swapchain image.
//
// Parameters:
//   - lib: the shader library
//   - name: the program name, e.g. "present", "normal" or "depth"
//   - target: the swapchain format
//
// Returns:
//   - Pipeline: the pipeline, not yet initialized
func NewPost(lib *shader.Library, name string, target gpu.TextureFormat, opts ...PipelineBuilderOption) Pipeline {
	base := []PipelineBuilderOption{
		WithShaders(lib, name),
		WithTopology(gpu.TopologyTriangleList),
		WithDepthTestEnabled(false),
		WithDepthWriteEnabled(false),
		WithBindGroups(AttachmentsGroupLayout()),
		WithColorTargets(target),
	}
	return NewPipeline("post-"+name, append(base, opts...)...)
}
