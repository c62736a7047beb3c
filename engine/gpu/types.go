package gpu

import "fmt"

// Topology is the primitive assembly mode of a draw.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyLineList
)

func (t Topology) String() string {
	switch t {
	case TopologyTriangleList:
		return "triangle-list"
	case TopologyLineList:
		return "line-list"
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// IndexFormat is the element type of an index buffer. IndexFormatNone marks a non-indexed primitive.
type IndexFormat int

const (
	IndexFormatNone IndexFormat = iota
	IndexFormatUint8
	IndexFormatUint16
	IndexFormatUint32
)

// Size returns the byte width of one index.
func (f IndexFormat) Size() int {
	switch f {
	case IndexFormatUint8:
		return 1
	case IndexFormatUint16:
		return 2
	case IndexFormatUint32:
		return 4
	}
	return 0
}

// TextureFormat is the pixel format of a texture or attachment.
type TextureFormat int

const (
	TextureFormatRGBA8Unorm TextureFormat = iota
	TextureFormatBGRA8Unorm
	TextureFormatRGBA16Float
	TextureFormatDepth32Float
)

// IsDepth reports whether f is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth32Float
}

// BufferUsage is a bit set of the ways a buffer is used.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopyDst
)

// TextureUsage is a bit set of the ways a texture is used.
type TextureUsage uint32

const (
	TextureUsageRenderAttachment TextureUsage = 1 << iota
	TextureUsageTextureBinding
	TextureUsageCopyDst
)

// ShaderStage is a bit set of shader stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
)

// BindingType is the kind of resource a bind group layout entry expects.
type BindingType int

const (
	BindingUniformBuffer BindingType = iota
	BindingTexture
	BindingDepthTexture
	BindingSampler
	BindingNonFilteringSampler
)

// BindGroupLayoutEntry describes one binding slot of a bind group layout.
type BindGroupLayoutEntry struct {
	Binding    int
	Type       BindingType
	Visibility ShaderStage
	// MinSize is the minimum byte size of a uniform buffer binding.
	MinSize uint64
}

// BindGroupLayoutDescriptor describes the bindings of one bind group index.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds exactly one of Buffer, TextureView or Sampler to Binding.
type BindGroupEntry struct {
	Binding     int
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

// VertexFormat is the element type of a vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// VertexAttribute describes one attribute inside a vertex buffer stride.
type VertexAttribute struct {
	Format   VertexFormat
	Offset   uint64
	Location int
}

// VertexLayout describes a vertex buffer's stride and attributes.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// ShaderFormat is the encoding of a shader program binary.
type ShaderFormat int

const (
	ShaderFormatWGSL ShaderFormat = iota
	ShaderFormatSPIRV
)

// ShaderProgram is one compiled shader stage handed to the device.
type ShaderProgram struct {
	Label      string
	Format     ShaderFormat
	EntryPoint string
	Code       []byte
}

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeBack
	CullModeFront
)

// RenderPipelineDescriptor carries everything the device needs to build a render pipeline.
type RenderPipelineDescriptor struct {
	Label        string
	Vertex       ShaderProgram
	Fragment     ShaderProgram
	VertexLayout *VertexLayout
	BindGroups   []BindGroupLayoutDescriptor
	Topology     Topology
	CullMode     CullMode
	// ColorTargets lists the color attachment formats in attachment order.
	ColorTargets []TextureFormat
	// DepthFormat is only consulted when DepthTest is set.
	DepthFormat  TextureFormat
	DepthTest    bool
	DepthWrite   bool
	BlendEnabled bool
}

// TextureDescriptor describes a texture allocation.
type TextureDescriptor struct {
	Width, Height uint32
	Format        TextureFormat
	Usage         TextureUsage
}

// ColorAttachment is one color target of a render pass.
type ColorAttachment struct {
	View  TextureView
	Clear [4]float64
}

// RenderPassDescriptor describes the targets of a render pass. Attachments are always cleared on load.
type RenderPassDescriptor struct {
	Label string
	Color []ColorAttachment
	// Depth is optional.
	Depth      TextureView
	DepthClear float32
}

// SwapchainInfo describes the presentable images created by ConfigureSurface.
type SwapchainInfo struct {
	ImageCount    int
	Width, Height int
	Format        TextureFormat
}

// SubmitInfo is one queue submission. Wait and Signal may be nil.
type SubmitInfo struct {
	Commands CommandBuffer
	Wait     Semaphore
	Signal   Semaphore
	Fence    Fence
}

// Features reports optional capabilities of a device.
type Features struct {
	// IndexUint8 is set when 8-bit index buffers can be bound directly.
	IndexUint8 bool
}
