package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

func toWGPUTextureFormat(f gpu.TextureFormat) (wgpu.TextureFormat, error) {
	switch f {
	case gpu.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case gpu.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm, nil
	case gpu.TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float, nil
	case gpu.TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float, nil
	}
	return wgpu.TextureFormatUndefined, fmt.Errorf("%w: texture format %d", gpu.ErrUnsupported, int(f))
}

// fromWGPUSurfaceFormat maps a surface format onto the formats pipelines can target.
// Only the non-sRGB 8-bit formats are accepted so post-process output is written unmodified.
func fromWGPUSurfaceFormat(f wgpu.TextureFormat) (gpu.TextureFormat, bool) {
	switch f {
	case wgpu.TextureFormatBGRA8Unorm:
		return gpu.TextureFormatBGRA8Unorm, true
	case wgpu.TextureFormatRGBA8Unorm:
		return gpu.TextureFormatRGBA8Unorm, true
	}
	return 0, false
}

func toWGPUBufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&gpu.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&gpu.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&gpu.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&gpu.BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}

func toWGPUTextureUsage(u gpu.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&gpu.TextureUsageRenderAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&gpu.TextureUsageTextureBinding != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&gpu.TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

func toWGPUShaderStage(s gpu.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gpu.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toWGPUIndexFormat(f gpu.IndexFormat) (wgpu.IndexFormat, error) {
	switch f {
	case gpu.IndexFormatUint16:
		return wgpu.IndexFormatUint16, nil
	case gpu.IndexFormatUint32:
		return wgpu.IndexFormatUint32, nil
	}
	return wgpu.IndexFormatUndefined, fmt.Errorf("%w: index format %d", gpu.ErrUnsupported, int(f))
}

func toWGPUTopology(t gpu.Topology) wgpu.PrimitiveTopology {
	if t == gpu.TopologyLineList {
		return wgpu.PrimitiveTopologyLineList
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func toWGPUCullMode(c gpu.CullMode) wgpu.CullMode {
	switch c {
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	}
	return wgpu.CullModeNone
}

func toWGPUVertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gpu.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case gpu.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	}
	return wgpu.VertexFormatFloat32x3
}

func toWGPUAddressMode(m common.AddressMode) wgpu.AddressMode {
	switch m {
	case common.AddressModeClampToEdge:
		return wgpu.AddressModeClampToEdge
	case common.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	}
	return wgpu.AddressModeRepeat
}

func toWGPUFilterMode(m common.FilterMode) wgpu.FilterMode {
	if m == common.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func toWGPUMipmapFilterMode(m common.FilterMode) wgpu.MipmapFilterMode {
	if m == common.FilterModeNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

// toWGPUBindGroupLayoutEntry converts one layout entry. Exactly one of the Buffer, Texture or
// Sampler members is populated, the others stay at their undefined zero values.
func toWGPUBindGroupLayoutEntry(e gpu.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	out := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(e.Binding),
		Visibility: toWGPUShaderStage(e.Visibility),
	}
	switch e.Type {
	case gpu.BindingUniformBuffer:
		out.Buffer = wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: e.MinSize,
		}
	case gpu.BindingTexture:
		out.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case gpu.BindingDepthTexture:
		out.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeDepth,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case gpu.BindingSampler:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	case gpu.BindingNonFilteringSampler:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeNonFiltering}
	}
	return out
}

func toWGPUBindGroupLayoutDescriptor(desc gpu.BindGroupLayoutDescriptor) wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = toWGPUBindGroupLayoutEntry(e)
	}
	return wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	}
}

func toWGPUVertexLayout(layout *gpu.VertexLayout) []wgpu.VertexBufferLayout {
	if layout == nil {
		return nil
	}
	attrs := make([]wgpu.VertexAttribute, len(layout.Attributes))
	for i, a := range layout.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         toWGPUVertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: uint32(a.Location),
		}
	}
	return []wgpu.VertexBufferLayout{{
		ArrayStride: layout.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}}
}

func alphaBlendState() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}
