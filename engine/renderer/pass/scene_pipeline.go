package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// scenePipeline holds the camera, model and mesh handling shared by the scene pipelines.
type scenePipeline struct {
	pipeline pipeline.Pipeline
	selector model.PipelineSelector
}

func newScenePipeline(dev gpu.Device, p pipeline.Pipeline, selector model.PipelineSelector) (scenePipeline, error) {
	if err := p.Init(dev); err != nil {
		return scenePipeline{}, err
	}
	return scenePipeline{pipeline: p, selector: selector}, nil
}

func (s *scenePipeline) Name() string                     { return s.pipeline.PipelineKey() }
func (s *scenePipeline) Topology() gpu.Topology           { return s.pipeline.Topology() }
func (s *scenePipeline) Selector() model.PipelineSelector { return s.selector }
func (s *scenePipeline) Release()                         { s.pipeline.Release() }

func (s *scenePipeline) Bind(f *frame.Frame) error {
	if !f.Commands().InRenderPass() {
		return fmt.Errorf("%s: bind outside the scene pass", s.Name())
	}
	f.Commands().SetPipeline(s.pipeline.Pipeline())
	return nil
}

func (s *scenePipeline) BindCamera(f *frame.Frame, h arena.Handle[camera.Camera], cam camera.Camera, world mgl32.Mat4) error {
	u := camera.NewGPUCameraUniform(cam, world)
	p, err := s.uniform(f, descriptor.CameraKey(s.Name(), h), pipeline.GroupCamera, u.Size())
	if err != nil {
		return err
	}
	if err := (bind_group_provider.BufferWrite{Provider: p, Data: u.Marshal()}).Apply(f.Device()); err != nil {
		return err
	}
	f.Commands().SetBindGroup(pipeline.GroupCamera, p.BindGroup())
	return nil
}

func (s *scenePipeline) BindModel(f *frame.Frame, h arena.Handle[model.Node], world mgl32.Mat4) error {
	u := model.NewGPUModelUniform(world)
	p, err := s.uniform(f, descriptor.ModelKey(s.Name(), h), pipeline.GroupModel, u.Size())
	if err != nil {
		return err
	}
	if err := (bind_group_provider.BufferWrite{Provider: p, Data: u.Marshal()}).Apply(f.Device()); err != nil {
		return err
	}
	f.Commands().SetBindGroup(pipeline.GroupModel, p.BindGroup())
	return nil
}

// uniform returns the cached single-uniform binding for key, creating the buffer and bind group on a miss.
func (s *scenePipeline) uniform(f *frame.Frame, key descriptor.Key, group, size int) (bind_group_provider.BindGroupProvider, error) {
	return f.Cache().GetOrCreate(key, func() (bind_group_provider.BindGroupProvider, error) {
		dev := f.Device()
		label := fmt.Sprintf("frame-%d %s", f.Slot(), key)
		buf, err := dev.CreateBuffer(label, uint64(size), gpu.BufferUsageUniform|gpu.BufferUsageCopyDst)
		if err != nil {
			return nil, err
		}
		p := bind_group_provider.NewBindGroupProvider(label, bind_group_provider.WithBuffer(0, buf))
		bg, err := dev.CreateBindGroup(label, s.pipeline.BindGroupLayout(group), bind_group_provider.Entries(p))
		if err != nil {
			p.Release()
			return nil, err
		}
		p.SetBindGroup(bg)
		return p, nil
	})
}

// drawMesh binds the primitive's buffers and records an indexed or plain draw.
func (s *scenePipeline) drawMesh(f *frame.Frame, h arena.Handle[model.Primitive], prim model.Primitive) error {
	mesh := prim.Mesh
	if mesh == nil {
		return fmt.Errorf("%s: primitive %s has not been uploaded", s.Name(), h)
	}
	cmd := f.Commands()
	cmd.SetVertexBuffer(mesh.VertexBuffer())
	if mesh.IndexBuffer() != nil {
		cmd.SetIndexBuffer(mesh.IndexBuffer(), mesh.IndexFormat())
		cmd.DrawIndexed(mesh.IndexCount(), 1)
		return nil
	}
	cmd.Draw(mesh.VertexCount(), 1)
	return nil
}
