package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntriesOrderedByBinding(t *testing.T) {
	dev := headless.NewDevice()
	defer dev.Release()

	buf, err := dev.CreateBuffer("u", 16, gpu.BufferUsageUniform)
	require.NoError(t, err)
	tex, err := dev.UploadTexture("white", common.SolidTexture(255, 255, 255, 255))
	require.NoError(t, err)
	smp, err := dev.CreateSampler("s", common.DefaultSampler())
	require.NoError(t, err)

	p := NewBindGroupProvider("material",
		WithSampler(2, smp),
		WithBuffer(0, buf),
		WithTextureView(1, tex.View()),
	)
	entries := Entries(p)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i, e.Binding)
	}
	assert.Equal(t, buf, entries[0].Buffer)
	assert.Equal(t, tex.View(), entries[1].TextureView)
	assert.Equal(t, smp, entries[2].Sampler)
}

func TestReleaseOwnsBuffersOnly(t *testing.T) {
	dev := headless.NewDevice()
	defer dev.Release()

	buf, _ := dev.CreateBuffer("u", 16, gpu.BufferUsageUniform)
	tex, _ := dev.UploadTexture("shared", common.SolidTexture(0, 0, 0, 255))
	extra, _ := dev.UploadTexture("owned", common.SolidTexture(0, 0, 0, 255))

	p := NewBindGroupProvider("p", WithBuffer(0, buf), WithTextureView(1, tex.View()), WithOwned(extra))
	p.Release()
	p.Release()

	assert.True(t, headless.IsReleased(buf))
	assert.True(t, headless.IsReleased(extra))
	assert.False(t, headless.IsReleased(tex.View()))
}

func TestBufferWrite(t *testing.T) {
	dev := headless.NewDevice()
	defer dev.Release()

	buf, _ := dev.CreateBuffer("u", 8, gpu.BufferUsageUniform)
	p := NewBindGroupProvider("p", WithBuffer(0, buf))

	require.NoError(t, BufferWrite{Provider: p, Binding: 0, Offset: 4, Data: []byte{1, 2, 3, 4}}.Apply(dev))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, headless.BufferData(buf))

	assert.Error(t, BufferWrite{Provider: p, Binding: 3, Data: []byte{1}}.Apply(dev))
	assert.Error(t, BufferWrite{Provider: p, Binding: 0, Offset: 6, Data: []byte{1, 2, 3}}.Apply(dev))
}
