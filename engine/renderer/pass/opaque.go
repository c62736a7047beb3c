package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// OpaquePipeline draws lit, textured triangle lists. Untextured materials are drawn with their base
// color over a 1x1 white texture.
type OpaquePipeline struct {
	scenePipeline
	fallback *material.Fallback
	// bound is the material whose binding is set at group 2, none after Bind.
	bound arena.Handle[model.Material]
}

var _ RenderPipeline = &OpaquePipeline{}

// NewOpaquePipeline creates and initializes the opaque pipeline.
//
// Parameters:
//   - dev: the device to create the pipeline on
//   - lib: the shader library holding the "opaque" program
//   - opts: pipeline overrides
//
// Returns:
//   - *OpaquePipeline: the pipeline
//   - error: a shader or device error
func NewOpaquePipeline(dev gpu.Device, lib *shader.Library, opts ...pipeline.PipelineBuilderOption) (*OpaquePipeline, error) {
	base, err := newScenePipeline(dev, pipeline.NewOpaque(lib, opts...), model.PipelineOpaque)
	if err != nil {
		return nil, err
	}
	fb, err := material.NewFallback(dev)
	if err != nil {
		base.Release()
		return nil, err
	}
	return &OpaquePipeline{scenePipeline: base, fallback: fb}, nil
}

func (o *OpaquePipeline) Bind(f *frame.Frame) error {
	o.bound = arena.None[model.Material]()
	return o.scenePipeline.Bind(f)
}

// BindTexture binds the material h with its texture. Images or samplers that are missing or not yet
// uploaded fall back to the white texture and default sampler.
func (o *OpaquePipeline) BindTexture(f *frame.Frame, h arena.Handle[model.Material], tex model.Texture, m model.Model) error {
	mat, ok := m.Materials().Get(h)
	if !ok {
		return nil
	}
	view := o.fallback.Texture.View()
	smp := o.fallback.Sampler
	if img, ok := m.Images().Get(tex.Image); ok && img.Texture != nil {
		view = img.Texture.View()
	}
	if s, ok := m.Samplers().Get(tex.Sampler); ok && s.Sampler != nil {
		smp = s.Sampler
	}
	return o.bindMaterial(f, h, mat, view, smp)
}

func (o *OpaquePipeline) Draw(f *frame.Frame, h arena.Handle[model.Primitive], prim model.Primitive, mat model.Material) error {
	if o.bound != prim.Material {
		if err := o.bindMaterial(f, prim.Material, mat, o.fallback.Texture.View(), o.fallback.Sampler); err != nil {
			return err
		}
	}
	return o.drawMesh(f, h, prim)
}

// bindMaterial binds the cached material group of h, rebuilding it when the texture or sampler it was
// built with is no longer the one to bind.
func (o *OpaquePipeline) bindMaterial(f *frame.Frame, h arena.Handle[model.Material], mat model.Material, view gpu.TextureView, smp gpu.Sampler) error {
	key := descriptor.MaterialKey(o.Name(), h)
	if p, ok := f.Cache().Get(key); ok && (p.TextureView(material.BindingTexture) != view || p.Sampler(material.BindingSampler) != smp) {
		f.Cache().Evict(key)
		f.Defer(p)
	}
	p, err := f.Cache().GetOrCreate(key, func() (bind_group_provider.BindGroupProvider, error) {
		label := fmt.Sprintf("frame-%d %s %s", f.Slot(), key, mat.Name)
		return material.Build(f.Device(), o.pipeline.BindGroupLayout(pipeline.GroupMaterial), label,
			material.WithBaseColor(mat.BaseColor), material.WithTexture(view, smp))
	})
	if err != nil {
		return err
	}
	u := material.GPUMaterialUniform{BaseColor: mat.BaseColor}
	if err := (bind_group_provider.BufferWrite{Provider: p, Binding: material.BindingUniform, Data: u.Marshal()}).Apply(f.Device()); err != nil {
		return err
	}
	f.Commands().SetBindGroup(pipeline.GroupMaterial, p.BindGroup())
	o.bound = h
	return nil
}

func (o *OpaquePipeline) Release() {
	o.scenePipeline.Release()
	o.fallback.Release()
}
