package pass

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// item is one primitive to draw with the node that places it.
type item struct {
	node      arena.Handle[model.Node]
	world     mgl32.Mat4
	primitive arena.Handle[model.Primitive]
	prim      model.Primitive
	material  arena.Handle[model.Material]
	mat       model.Material
}

// Dispatcher records the scene pass and the post-process pass of a frame.
type Dispatcher struct {
	pipelines []RenderPipeline
	post      []*PostProcessPipeline
	current   int
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher over scene pipelines, drawn in order, and post-process pipelines,
// of which the first is selected.
//
// Parameters:
//   - pipelines: the scene pipelines
//   - post: the post-process pipelines
//   - options: DispatcherBuilderOption values applied in order
//
// Returns:
//   - *Dispatcher: the dispatcher
func NewDispatcher(pipelines []RenderPipeline, post []*PostProcessPipeline, options ...DispatcherBuilderOption) *Dispatcher {
	d := &Dispatcher{pipelines: pipelines, post: post, logger: zap.NewNop()}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// NewStandard creates the opaque and line scene pipelines and the present, normal and depth post-process
// pipelines, in that order.
//
// Parameters:
//   - dev: the device
//   - lib: a shader library holding the opaque, line, present, normal and depth programs
//   - target: the swapchain format
//   - options: DispatcherBuilderOption values applied in order
//
// Returns:
//   - *Dispatcher: the dispatcher
//   - error: a shader or device error
func NewStandard(dev gpu.Device, lib *shader.Library, target gpu.TextureFormat, options ...DispatcherBuilderOption) (*Dispatcher, error) {
	d := NewDispatcher(nil, nil, options...)
	opaque, err := NewOpaquePipeline(dev, lib)
	if err != nil {
		return nil, err
	}
	d.pipelines = append(d.pipelines, opaque)
	line, err := NewLinePipeline(dev, lib)
	if err != nil {
		d.Release()
		return nil, err
	}
	d.pipelines = append(d.pipelines, line)
	for _, k := range []PostKind{PostPresent, PostNormal, PostDepth} {
		p, err := NewPostProcessPipeline(dev, lib, k, target)
		if err != nil {
			d.Release()
			return nil, err
		}
		d.post = append(d.post, p)
	}
	return d, nil
}

// Pipelines returns the scene pipelines in draw order.
func (d *Dispatcher) Pipelines() []RenderPipeline { return d.pipelines }

// Post returns the index of the selected post-process pipeline.
func (d *Dispatcher) Post() int { return d.current }

// SetPost selects post-process pipeline i.
func (d *Dispatcher) SetPost(i int) error {
	if i < 0 || i >= len(d.post) {
		return fmt.Errorf("post-process index %d out of range [0, %d)", i, len(d.post))
	}
	d.current = i
	return nil
}

// SetPostKind selects the first post-process pipeline of kind k.
func (d *Dispatcher) SetPostKind(k PostKind) error {
	for i, p := range d.post {
		if p.Kind == k {
			d.current = i
			return nil
		}
	}
	return fmt.Errorf("no %s post-process pipeline", k)
}

// Draw records every scene pipeline into the open scene pass of f.
//
// Parameters:
//   - f: the frame, with BeginScene already called
//   - m: the scene model
//
// Returns:
//   - error: the first binding or draw error
func (d *Dispatcher) Draw(f *frame.Frame, m model.Model) error {
	for _, p := range d.pipelines {
		if err := d.Render(p, f, m); err != nil {
			return err
		}
	}
	return nil
}

// Render records one variant: a scene pipeline draws the scene, a post-process pipeline draws the
// full-screen pass.
func (d *Dispatcher) Render(v Variant, f *frame.Frame, m model.Model) error {
	switch p := v.(type) {
	case *PostProcessPipeline:
		return p.Render(f)
	case RenderPipeline:
		return d.renderScene(p, f, m)
	default:
		return fmt.Errorf("cannot render variant %T", v)
	}
}

// EndScene closes the scene pass, opens the present pass and renders the selected post-process pipeline.
func (d *Dispatcher) EndScene(f *frame.Frame) error {
	if err := f.EndScene(); err != nil {
		return err
	}
	if len(d.post) == 0 {
		return nil
	}
	return d.Render(d.post[d.current], f, nil)
}

// PruneStale evicts the cached bindings of f whose handles no longer resolve in m and hands them to r.
//
// Returns:
//   - int: the number of evicted bindings
func (d *Dispatcher) PruneStale(f *frame.Frame, m model.Model, r DeferredReleaser) int {
	removed := f.Cache().Prune(func(k descriptor.Key) bool {
		switch k.Kind {
		case descriptor.KindCamera:
			return m.Cameras().Contains(k.Camera)
		case descriptor.KindModel:
			return m.Nodes().Contains(k.Node)
		case descriptor.KindMaterial:
			return m.Materials().Contains(k.Material)
		}
		return true
	})
	for _, p := range removed {
		r.Release(p)
	}
	return len(removed)
}

// Release releases every pipeline. The caller must ensure no frame in flight uses them.
func (d *Dispatcher) Release() {
	for _, p := range d.pipelines {
		p.Release()
	}
	for _, p := range d.post {
		p.Release()
	}
	d.pipelines, d.post = nil, nil
}

func (d *Dispatcher) renderScene(p RenderPipeline, f *frame.Frame, m model.Model) error {
	cameras := m.VisibleCameras()
	if len(cameras) == 0 {
		return nil
	}
	items := d.collect(p, m)
	if len(items) == 0 {
		return nil
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].material.Less(items[j].material) })

	if err := p.Bind(f); err != nil {
		return fmt.Errorf("%s: bind: %w", p.Name(), err)
	}
	w, h := f.Size()
	aspect := float32(w) / float32(h)
	for _, c := range cameras {
		if err := p.BindCamera(f, c.Handle, c.Camera.WithAspect(aspect), c.World); err != nil {
			return fmt.Errorf("%s: bind camera %s: %w", p.Name(), c.Handle, err)
		}
		var node arena.Handle[model.Node]
		var mat arena.Handle[model.Material]
		for i, it := range items {
			if i == 0 || it.node != node {
				if err := p.BindModel(f, it.node, it.world); err != nil {
					return fmt.Errorf("%s: bind node %s: %w", p.Name(), it.node, err)
				}
				node = it.node
			}
			if i == 0 || it.material != mat {
				if err := d.bindTexture(p, f, m, it); err != nil {
					return err
				}
				mat = it.material
			}
			if err := p.Draw(f, it.primitive, it.prim, it.mat); err != nil {
				return fmt.Errorf("%s: draw %s: %w", p.Name(), it.primitive, err)
			}
		}
	}
	return nil
}

func (d *Dispatcher) bindTexture(p RenderPipeline, f *frame.Frame, m model.Model, it item) error {
	if !it.mat.Textured() {
		return nil
	}
	tex, ok := m.Textures().Get(it.mat.Texture)
	if !ok {
		d.logger.Debug("texture vanished", zap.Stringer("material", it.material), zap.Stringer("texture", it.mat.Texture))
		return nil
	}
	if err := p.BindTexture(f, it.material, tex, m); err != nil {
		return fmt.Errorf("%s: bind texture of %s: %w", p.Name(), it.material, err)
	}
	return nil
}

// collect gathers the primitives whose material selects p, in traversal order.
func (d *Dispatcher) collect(p RenderPipeline, m model.Model) []item {
	var items []item
	for _, v := range m.Traverse() {
		node, ok := m.Nodes().Get(v.Node)
		if !ok || node.Mesh.IsNone() {
			continue
		}
		mesh, ok := m.Meshes().Get(node.Mesh)
		if !ok {
			d.logger.Debug("mesh vanished", zap.Stringer("node", v.Node), zap.Stringer("mesh", node.Mesh))
			continue
		}
		for _, ph := range mesh.Primitives {
			prim, ok := m.Primitives().Get(ph)
			if !ok {
				d.logger.Debug("primitive vanished", zap.Stringer("mesh", node.Mesh), zap.Stringer("primitive", ph))
				continue
			}
			mat, ok := m.Materials().Get(prim.Material)
			if !ok {
				d.logger.Debug("material vanished", zap.Stringer("primitive", ph), zap.Stringer("material", prim.Material))
				continue
			}
			if mat.Pipeline != p.Selector() {
				continue
			}
			if prim.Topology != p.Topology() {
				d.logger.Debug("topology mismatch", zap.String("pipeline", p.Name()), zap.Stringer("primitive", ph))
				continue
			}
			items = append(items, item{
				node:      v.Node,
				world:     v.World,
				primitive: ph,
				prim:      prim,
				material:  prim.Material,
				mat:       mat,
			})
		}
	}
	return items
}
