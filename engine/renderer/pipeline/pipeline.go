package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// ErrMissingShader is returned by Init when a vertex or fragment shader was never set.
var ErrMissingShader = errors.New("pipeline is missing a shader")

// pipeline is the implementation of the Pipeline interface.
// It holds the pipeline configuration and, once initialized, the device pipeline object.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// the following shader references are used for pipeline creation, they are required to be set before initializing a pipeline.

	vertexShader, fragmentShader shader.Shader

	// renderPipeline is the device pipeline, nil until Init succeeds
	renderPipeline gpu.RenderPipeline

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthFormat       gpu.TextureFormat
	blendEnabled      bool
	cullMode          gpu.CullMode
	topology          gpu.Topology
	vertexLayout      *gpu.VertexLayout
	bindGroups        []gpu.BindGroupLayoutDescriptor
	colorTargets      []gpu.TextureFormat
}

// Pipeline defines the interface for a render pipeline: a vertex and fragment shader plus all fixed
// function state (depth, blend, cull, topology, vertex layout, bind group layouts and color targets).
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified stage if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the stage of shader to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Pipeline returns the device pipeline, or nil if Init has not run.
	//
	// Returns:
	//   - gpu.RenderPipeline: the device pipeline object
	Pipeline() gpu.RenderPipeline

	// Descriptor assembles the device-facing description of this pipeline.
	//
	// Returns:
	//   - gpu.RenderPipelineDescriptor: the descriptor handed to gpu.Device.CreateRenderPipeline
	Descriptor() gpu.RenderPipelineDescriptor

	// Init creates the device pipeline, replacing and releasing any previous one.
	//
	// Parameters:
	//   - dev: the device to create the pipeline on
	//
	// Returns:
	//   - error: ErrMissingShader or a device error
	Init(dev gpu.Device) error

	// BindGroupLayout returns the layout of bind group index group, or nil before Init.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - gpu.BindGroupLayout: the device layout object
	BindGroupLayout(group int) gpu.BindGroupLayout

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	BlendEnabled() bool
	CullMode() gpu.CullMode
	Topology() gpu.Topology

	// Release releases the device pipeline. The configuration is kept so Init can run again.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthFormat:       gpu.TextureFormatDepth32Float,
		blendEnabled:      false,
		cullMode:          gpu.CullModeNone,
		topology:          gpu.TopologyTriangleList,
		colorTargets:      []gpu.TextureFormat{gpu.TextureFormatRGBA8Unorm},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Pipeline() gpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() gpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() gpu.Topology {
	return p.topology
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Descriptor() gpu.RenderPipelineDescriptor {
	desc := gpu.RenderPipelineDescriptor{
		Label:        p.pipelineKey,
		VertexLayout: p.vertexLayout,
		BindGroups:   p.bindGroups,
		Topology:     p.topology,
		CullMode:     p.cullMode,
		ColorTargets: p.colorTargets,
		DepthFormat:  p.depthFormat,
		DepthTest:    p.depthTestEnabled,
		DepthWrite:   p.depthWriteEnabled,
		BlendEnabled: p.blendEnabled,
	}
	if p.vertexShader != nil {
		desc.Vertex = p.vertexShader.Program()
	}
	if p.fragmentShader != nil {
		desc.Fragment = p.fragmentShader.Program()
	}
	return desc
}

func (p *pipeline) Init(dev gpu.Device) error {
	if p.vertexShader == nil || p.fragmentShader == nil {
		return fmt.Errorf("%w: %s", ErrMissingShader, p.pipelineKey)
	}
	rp, err := dev.CreateRenderPipeline(p.Descriptor())
	if err != nil {
		return fmt.Errorf("create pipeline %s: %w", p.pipelineKey, err)
	}
	p.Release()
	p.renderPipeline = rp
	return nil
}

func (p *pipeline) BindGroupLayout(group int) gpu.BindGroupLayout {
	if p.renderPipeline == nil {
		return nil
	}
	return p.renderPipeline.BindGroupLayout(group)
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
