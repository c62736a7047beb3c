package pass

import (
	"context"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

// recorder is a RenderPipeline that records the calls it receives.
type recorder struct {
	selector model.PipelineSelector
	topology gpu.Topology
	calls    []string
	textures []arena.Handle[model.Material]
	models   []arena.Handle[model.Node]
	draws    []arena.Handle[model.Primitive]
}

func (r *recorder) Name() string                     { return "recorder" }
func (r *recorder) Topology() gpu.Topology           { return r.topology }
func (r *recorder) Selector() model.PipelineSelector { return r.selector }
func (r *recorder) Release()                         {}

func (r *recorder) Bind(*frame.Frame) error {
	r.calls = append(r.calls, "bind")
	return nil
}

func (r *recorder) BindCamera(*frame.Frame, arena.Handle[camera.Camera], camera.Camera, mgl32.Mat4) error {
	r.calls = append(r.calls, "camera")
	return nil
}

func (r *recorder) BindModel(_ *frame.Frame, h arena.Handle[model.Node], _ mgl32.Mat4) error {
	r.calls = append(r.calls, "model")
	r.models = append(r.models, h)
	return nil
}

func (r *recorder) BindTexture(_ *frame.Frame, h arena.Handle[model.Material], _ model.Texture, _ model.Model) error {
	r.calls = append(r.calls, "texture")
	r.textures = append(r.textures, h)
	return nil
}

func (r *recorder) Draw(_ *frame.Frame, h arena.Handle[model.Primitive], _ model.Primitive, _ model.Material) error {
	r.calls = append(r.calls, "draw")
	r.draws = append(r.draws, h)
	return nil
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

// releaser collects deferred releases.
type releaser struct {
	released []gpu.Releaser
}

func (r *releaser) Release(x gpu.Releaser) { r.released = append(r.released, x) }

// quadScene builds a camera node at (0,0,3) looking down -Z and one untextured quad node.
func quadScene() (model.Model, arena.Handle[model.Node], arena.Handle[model.Material]) {
	m := model.NewModel()
	cam := m.PushCamera(camera.FinitePerspective(1, math.Pi/4, 0.1, 100))
	camNode := model.NewNode("camera")
	camNode.Trs = model.TranslationTrs(0, 0, 3)
	camNode.Camera = cam
	m.PushToScene(m.PushNode(camNode))

	mat := m.PushMaterial(model.Material{Name: "flat", BaseColor: mgl32.Vec4{0.8, 0.2, 0.2, 1}})
	quad := addMeshNode(m, "quad", model.QuadPrimitive(mat))
	return m, quad, mat
}

func addMeshNode(m model.Model, name string, prims ...model.Primitive) arena.Handle[model.Node] {
	var hs []arena.Handle[model.Primitive]
	for _, p := range prims {
		hs = append(hs, m.PushPrimitive(p))
	}
	n := model.NewNode(name)
	n.Mesh = m.PushMesh(model.Mesh{Name: name, Primitives: hs})
	h := m.PushNode(n)
	m.PushToScene(h)
	return h
}

func texturedMaterial(m model.Model, name string) arena.Handle[model.Material] {
	img := m.PushImage(model.Image{Staging: common.SolidTexture(0, 128, 255, 255)})
	smp := m.PushSampler(model.Sampler{Staging: common.DefaultSampler()})
	tex := m.PushTexture(model.Texture{Image: img, Sampler: smp})
	return m.PushMaterial(model.Material{Name: name, BaseColor: mgl32.Vec4{1, 1, 1, 1}, Texture: tex})
}

// begin returns a recording frame of a fresh headless synchronizer with the scene pass open.
func begin(t *testing.T) (*headless.Device, *frame.Synchronizer, *frame.Frame) {
	t.Helper()
	dev := headless.NewDevice()
	t.Cleanup(dev.Release)
	s, err := frame.NewSynchronizer(dev, headless.NewSurface(800, 600))
	require.NoError(t, err)
	f, err := s.NextFrame(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.BeginScene())
	return dev, s, f
}

// passCommands splits a submission's commands into the scene pass and the present pass.
func passCommands(cmds []headless.Command) (scene, present []headless.Command) {
	var cur *[]headless.Command
	for _, c := range cmds {
		switch {
		case c.Op == headless.OpBeginRenderPass && c.Label == "scene":
			cur = &scene
		case c.Op == headless.OpBeginRenderPass && c.Label == "present":
			cur = &present
		case c.Op == headless.OpEndRenderPass:
			cur = nil
		case cur != nil:
			*cur = append(*cur, c)
		}
	}
	return scene, present
}

func countOps(cmds []headless.Command, op headless.Op, index int) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op && (index < 0 || c.Index == index) {
			n++
		}
	}
	return n
}
