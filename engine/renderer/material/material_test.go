package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func materialLayout(t *testing.T, dev gpu.Device) gpu.BindGroupLayout {
	t.Helper()
	rp, err := dev.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label:    "material-test",
		Vertex:   gpu.ShaderProgram{Code: []byte("vs")},
		Fragment: gpu.ShaderProgram{Code: []byte("fs")},
		BindGroups: []gpu.BindGroupLayoutDescriptor{{
			Label: "material",
			Entries: []gpu.BindGroupLayoutEntry{
				{Binding: BindingUniform, Type: gpu.BindingUniformBuffer},
				{Binding: BindingTexture, Type: gpu.BindingTexture},
				{Binding: BindingSampler, Type: gpu.BindingSampler},
			},
		}},
	})
	require.NoError(t, err)
	return rp.BindGroupLayout(0)
}

func TestBuild(t *testing.T) {
	dev := headless.NewDevice()
	defer dev.Release()
	fb, err := NewFallback(dev)
	require.NoError(t, err)
	defer fb.Release()

	p, err := Build(dev, materialLayout(t, dev), "red", WithBaseColor(mgl32.Vec4{1, 0, 0, 1}), fb.Options())
	require.NoError(t, err)
	require.NotNil(t, p.BindGroup())

	want := (&GPUMaterialUniform{BaseColor: [4]float32{1, 0, 0, 1}}).Marshal()
	assert.Equal(t, want, headless.BufferData(p.Buffer(BindingUniform)))
	assert.Equal(t, fb.Texture.View(), p.TextureView(BindingTexture))

	p.Release()
	assert.True(t, headless.IsReleased(p.BindGroup()))
	assert.False(t, headless.IsReleased(fb.Texture), "texture is borrowed")
}

func TestBuildWithoutTexture(t *testing.T) {
	dev := headless.NewDevice()
	defer dev.Release()

	_, err := Build(dev, materialLayout(t, dev), "bare")
	assert.ErrorIs(t, err, ErrNoTexture)
}

func TestUniformSize(t *testing.T) {
	u := GPUMaterialUniform{BaseColor: [4]float32{0.5, 0.5, 0.5, 1}}
	assert.Equal(t, 16, u.Size())
	assert.Len(t, u.Marshal(), 16)
}
