package pass

import (
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// LinePipeline draws vertex-colored line lists. It binds no material.
type LinePipeline struct {
	scenePipeline
}

var _ RenderPipeline = &LinePipeline{}

// NewLinePipeline creates and initializes the line pipeline from the "line" program of lib.
func NewLinePipeline(dev gpu.Device, lib *shader.Library, opts ...pipeline.PipelineBuilderOption) (*LinePipeline, error) {
	base, err := newScenePipeline(dev, pipeline.NewLine(lib, opts...), model.PipelineLine)
	if err != nil {
		return nil, err
	}
	return &LinePipeline{scenePipeline: base}, nil
}

func (l *LinePipeline) BindTexture(*frame.Frame, arena.Handle[model.Material], model.Texture, model.Model) error {
	return nil
}

func (l *LinePipeline) Draw(f *frame.Frame, h arena.Handle[model.Primitive], prim model.Primitive, _ model.Material) error {
	return l.drawMesh(f, h, prim)
}
