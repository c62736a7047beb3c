// Package material builds the GPU bindings of surface materials: a base color uniform, a texture view
// and a sampler laid out as binding 0, 1 and 2 of one bind group.
package material

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
)

// Binding indices inside the material bind group.
const (
	BindingUniform = 0
	BindingTexture = 1
	BindingSampler = 2
)

// ErrNoTexture is returned by Build when no texture view was supplied.
var ErrNoTexture = errors.New("material binding has no texture")

// binding collects the inputs of Build.
type binding struct {
	baseColor [4]float32
	view      gpu.TextureView
	sampler   gpu.Sampler
}

// Build creates the bind group provider of one material. The provider owns the uniform buffer and bind
// group; the texture view and sampler are borrowed.
//
// Parameters:
//   - dev: the device to allocate on
//   - layout: the material bind group layout of the pipeline
//   - label: a debug label
//   - opts: the material inputs; WithTexture is required
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the material binding
//   - error: ErrNoTexture or a device error
func Build(dev gpu.Device, layout gpu.BindGroupLayout, label string, opts ...MaterialBuilderOption) (bind_group_provider.BindGroupProvider, error) {
	b := &binding{baseColor: [4]float32{1, 1, 1, 1}}
	for _, opt := range opts {
		opt(b)
	}
	if b.view == nil || b.sampler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTexture, label)
	}

	u := GPUMaterialUniform{BaseColor: b.baseColor}
	buf, err := dev.CreateBuffer(label+" uniform", uint64(u.Size()), gpu.BufferUsageUniform|gpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	if err := dev.WriteBuffer(buf, 0, u.Marshal()); err != nil {
		buf.Release()
		return nil, err
	}

	p := bind_group_provider.NewBindGroupProvider(label,
		bind_group_provider.WithBuffer(BindingUniform, buf),
		bind_group_provider.WithTextureView(BindingTexture, b.view),
		bind_group_provider.WithSampler(BindingSampler, b.sampler),
	)
	bg, err := dev.CreateBindGroup(label, layout, bind_group_provider.Entries(p))
	if err != nil {
		p.Release()
		return nil, err
	}
	p.SetBindGroup(bg)
	return p, nil
}

// Fallback is the 1x1 white texture and default sampler bound for untextured materials.
type Fallback struct {
	Texture gpu.Texture
	Sampler gpu.Sampler
}

// NewFallback uploads the fallback texture and sampler.
func NewFallback(dev gpu.Device) (*Fallback, error) {
	tex, err := dev.UploadTexture("fallback white", common.SolidTexture(255, 255, 255, 255))
	if err != nil {
		return nil, err
	}
	smp, err := dev.CreateSampler("fallback sampler", common.DefaultSampler())
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &Fallback{Texture: tex, Sampler: smp}, nil
}

// Options returns the texture options binding the fallback.
func (f *Fallback) Options() MaterialBuilderOption {
	return WithTexture(f.Texture.View(), f.Sampler)
}

func (f *Fallback) Release() {
	f.Texture.Release()
	f.Sampler.Release()
}
