package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpaqueDescriptor(t *testing.T) {
	lib, err := shader.Default()
	require.NoError(t, err)

	p := NewOpaque(lib)
	desc := p.Descriptor()
	assert.Equal(t, "opaque", desc.Label)
	assert.Equal(t, gpu.TopologyTriangleList, desc.Topology)
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	require.Len(t, desc.BindGroups, 3)
	assert.Equal(t, uint64(208), desc.BindGroups[GroupCamera].Entries[0].MinSize)
	assert.Equal(t, uint64(128), desc.BindGroups[GroupModel].Entries[0].MinSize)
	assert.Len(t, desc.BindGroups[GroupMaterial].Entries, 3)
	assert.Equal(t, []gpu.TextureFormat{ColorFormat, NormalFormat}, desc.ColorTargets)
	assert.True(t, desc.DepthTest)
	require.NotNil(t, desc.VertexLayout)
	assert.Equal(t, uint64(32), desc.VertexLayout.Stride)
}

func TestPostDescriptor(t *testing.T) {
	lib, err := shader.Default()
	require.NoError(t, err)

	p := NewPost(lib, "depth", gpu.TextureFormatBGRA8Unorm)
	desc := p.Descriptor()
	assert.Equal(t, "post-depth", p.PipelineKey())
	assert.False(t, desc.DepthTest)
	assert.Nil(t, desc.VertexLayout)
	assert.Equal(t, []gpu.TextureFormat{gpu.TextureFormatBGRA8Unorm}, desc.ColorTargets)
	require.Len(t, desc.BindGroups, 1)
	assert.Equal(t, gpu.BindingDepthTexture, desc.BindGroups[0].Entries[BindingAttachmentDepth].Type)
}

func TestInit(t *testing.T) {
	dev := headless.NewDevice()
	defer dev.Release()
	lib, err := shader.Default()
	require.NoError(t, err)

	p := NewLine(lib)
	assert.Nil(t, p.BindGroupLayout(0))
	require.NoError(t, p.Init(dev))
	require.NotNil(t, p.Pipeline())
	assert.Equal(t, gpu.TopologyLineList, p.Pipeline().Topology())
	require.NotNil(t, p.BindGroupLayout(GroupModel))
	assert.Equal(t, "model", p.BindGroupLayout(GroupModel).Descriptor().Label)

	first := p.Pipeline()
	require.NoError(t, p.Init(dev))
	assert.True(t, headless.IsReleased(first))

	p.Release()
	assert.Nil(t, p.Pipeline())
}

func TestInitMissingShader(t *testing.T) {
	dev := headless.NewDevice()
	defer dev.Release()

	p := NewOpaque(shader.NewLibrary())
	assert.ErrorIs(t, p.Init(dev), ErrMissingShader)
}
