package pass

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntexturedQuadCallCounts(t *testing.T) {
	_, _, f := begin(t)
	m, _, _ := quadScene()

	opaque := &recorder{selector: model.PipelineOpaque, topology: gpu.TopologyTriangleList}
	line := &recorder{selector: model.PipelineLine, topology: gpu.TopologyLineList}
	d := NewDispatcher([]RenderPipeline{opaque, line}, nil)
	require.NoError(t, d.Draw(f, m))

	assert.Equal(t, []string{"bind", "camera", "model", "draw"}, opaque.calls)
	assert.Equal(t, 0, opaque.count("texture"))
	assert.Empty(t, line.calls, "a pipeline with nothing to draw binds nothing")
}

func TestUntexturedQuadOnHeadless(t *testing.T) {
	dev, s, f := begin(t)
	m, _, _ := quadScene()
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)

	require.NoError(t, d.Draw(f, m))
	require.NoError(t, d.EndScene(f))
	require.NoError(t, s.Present(context.Background(), f))

	subs := dev.Submitted()
	require.Len(t, subs, 1)
	scene, present := passCommands(subs[0])

	assert.Equal(t, 1, countOps(scene, headless.OpSetPipeline, -1))
	assert.Equal(t, 1, countOps(scene, headless.OpSetBindGroup, pipeline.GroupCamera))
	assert.Equal(t, 1, countOps(scene, headless.OpSetBindGroup, pipeline.GroupModel))
	assert.Equal(t, 1, countOps(scene, headless.OpSetBindGroup, pipeline.GroupMaterial))
	require.Equal(t, 1, countOps(scene, headless.OpDrawIndexed, -1))
	assert.Equal(t, 0, countOps(scene, headless.OpDraw, -1))
	for _, c := range scene {
		if c.Op == headless.OpDrawIndexed {
			assert.Equal(t, 6, c.Count)
		}
	}

	require.Equal(t, 1, countOps(present, headless.OpDraw, -1))
	assert.Equal(t, "post-present", present[0].Label)
	assert.Empty(t, dev.Violations())

	// camera, model, material and attachments bindings
	assert.Equal(t, 4, f.Cache().Len())
	_, ok := f.Cache().Get(descriptor.AttachmentsKey("post-present"))
	assert.True(t, ok)
}

func TestCachedBindingsReusedNextRound(t *testing.T) {
	dev, s, f := begin(t)
	m, _, _ := quadScene()
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)
	ctx := context.Background()

	for i := range 6 {
		if i > 0 {
			f, err = s.NextFrame(ctx)
			require.NoError(t, err)
			require.NoError(t, f.BeginScene())
		}
		require.NoError(t, d.Draw(f, m))
		require.NoError(t, d.EndScene(f))
		require.NoError(t, s.Present(ctx, f))
	}

	// 4 bindings per slot, built once per slot
	assert.Equal(t, 4*3, dev.Stats().BindGroupsCreated)
	assert.Equal(t, descriptor.Stats{Hits: 4, Misses: 4}, f.Cache().Stats())
	assert.Empty(t, dev.Violations())
}

func TestModelUniformRewrittenOnCacheHit(t *testing.T) {
	dev, s, f := begin(t)
	m, quad, _ := quadScene()
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)
	ctx := context.Background()

	translationX := func() float32 {
		p, ok := f.Cache().Get(descriptor.ModelKey("opaque", quad))
		require.True(t, ok)
		data := headless.BufferData(p.Buffer(0))
		require.Len(t, data, 128)
		return math.Float32frombits(binary.LittleEndian.Uint32(data[48:52]))
	}

	for i := range 4 {
		if i > 0 {
			f, err = s.NextFrame(ctx)
			require.NoError(t, err)
			require.NoError(t, f.BeginScene())
		}
		if i == 3 {
			require.Equal(t, 0, f.Slot())
			assert.InDelta(t, 0, translationX(), 1e-6)
			n, ok := m.Nodes().GetMut(quad)
			require.True(t, ok)
			n.Trs = model.TranslationTrs(3, 0, 0)
		}
		require.NoError(t, d.Draw(f, m))
		require.NoError(t, d.EndScene(f))
		require.NoError(t, s.Present(ctx, f))
	}

	assert.Equal(t, 4, f.Cache().Stats().Hits, "the moved node reuses its binding")
	assert.InDelta(t, 3, translationX(), 1e-6)
	assert.Empty(t, dev.Violations())
}

func TestMaterialGrouping(t *testing.T) {
	_, _, f := begin(t)
	m, _, _ := quadScene()
	a := texturedMaterial(m, "a")
	b := texturedMaterial(m, "b")
	n1 := addMeshNode(m, "a1", model.QuadPrimitive(a))
	n2 := addMeshNode(m, "b1", model.QuadPrimitive(b))
	n3 := addMeshNode(m, "a2", model.QuadPrimitive(a))

	rec := &recorder{selector: model.PipelineOpaque, topology: gpu.TopologyTriangleList}
	d := NewDispatcher([]RenderPipeline{rec}, nil)
	require.NoError(t, d.Draw(f, m))

	assert.Equal(t, []arena.Handle[model.Material]{a, b}, rec.textures)
	assert.Equal(t, 4, rec.count("draw"))
	// the untextured quad sorts first, then a1 and a2 share material a
	assert.Equal(t, n1, rec.models[1])
	assert.Equal(t, n3, rec.models[2])
	assert.Equal(t, n2, rec.models[3])
}

func TestTexturedMaterialOnHeadless(t *testing.T) {
	dev, s, f := begin(t)
	m, _, _ := quadScene()
	tex := texturedMaterial(m, "tex")
	addMeshNode(m, "cube", model.CubePrimitive(tex))
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)

	require.NoError(t, d.Draw(f, m))
	require.NoError(t, d.EndScene(f))
	require.NoError(t, s.Present(context.Background(), f))

	scene, _ := passCommands(dev.Submitted()[0])
	assert.Equal(t, 2, countOps(scene, headless.OpSetBindGroup, pipeline.GroupMaterial))
	assert.Equal(t, 2, countOps(scene, headless.OpDrawIndexed, -1))
	assert.Empty(t, dev.Violations())
}

func TestLinePipelineDrawsAxes(t *testing.T) {
	dev, s, f := begin(t)
	m, _, _ := quadScene()
	lineMat := m.PushMaterial(model.Material{Name: "axes", BaseColor: mgl32.Vec4{1, 1, 1, 1}, Pipeline: model.PipelineLine})
	addMeshNode(m, "axes", model.AxisLinesPrimitive(lineMat, 1))
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)

	require.NoError(t, d.Draw(f, m))
	require.NoError(t, d.EndScene(f))
	require.NoError(t, s.Present(context.Background(), f))

	scene, _ := passCommands(dev.Submitted()[0])
	var pipelines []string
	for _, c := range scene {
		if c.Op == headless.OpSetPipeline {
			pipelines = append(pipelines, c.Label)
		}
		if c.Op == headless.OpDraw {
			assert.Equal(t, 6, c.Count)
		}
	}
	assert.Equal(t, []string{"opaque", "line"}, pipelines)
	assert.Equal(t, 1, countOps(scene, headless.OpDraw, -1))
	assert.Equal(t, 2, countOps(scene, headless.OpSetBindGroup, pipeline.GroupCamera))
	assert.Empty(t, dev.Violations())
}

func TestPostSelection(t *testing.T) {
	dev, s, f := begin(t)
	m, _, _ := quadScene()
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)

	assert.Equal(t, 0, d.Post())
	assert.Error(t, d.SetPost(3))
	assert.Error(t, d.SetPost(-1))
	require.NoError(t, d.SetPostKind(PostNormal))
	assert.Equal(t, 1, d.Post())
	require.NoError(t, d.SetPost(2))

	require.NoError(t, d.Draw(f, m))
	require.NoError(t, d.EndScene(f))
	require.NoError(t, s.Present(context.Background(), f))

	_, present := passCommands(dev.Submitted()[0])
	require.NotEmpty(t, present)
	assert.Equal(t, "post-depth", present[0].Label)
	assert.Equal(t, 1, countOps(present, headless.OpDraw, -1))
}

func TestParsePostKind(t *testing.T) {
	k, err := ParsePostKind("normal")
	require.NoError(t, err)
	assert.Equal(t, PostNormal, k)
	_, err = ParsePostKind("sepia")
	assert.Error(t, err)
}

func TestVanishedHandlesAreSkipped(t *testing.T) {
	_, _, f := begin(t)
	m, quad, _ := quadScene()
	node, ok := m.Nodes().Get(quad)
	require.True(t, ok)
	m.Meshes().Remove(node.Mesh)

	rec := &recorder{selector: model.PipelineOpaque, topology: gpu.TopologyTriangleList}
	d := NewDispatcher([]RenderPipeline{rec}, nil)
	require.NoError(t, d.Draw(f, m))
	assert.Empty(t, rec.calls)
}

func TestPruneStale(t *testing.T) {
	dev, s, f := begin(t)
	m, quad, _ := quadScene()
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)
	require.NoError(t, d.Draw(f, m))
	require.NoError(t, d.EndScene(f))
	require.NoError(t, s.Present(context.Background(), f))

	_, ok := m.RemoveNode(quad)
	require.True(t, ok)

	r := &releaser{}
	assert.Equal(t, 1, d.PruneStale(f, m, r))
	assert.Len(t, r.released, 1)
	assert.Equal(t, 3, f.Cache().Len())
	assert.Equal(t, 0, d.PruneStale(f, m, r))
}

func TestRemovedResourcesReleasedAfterFramesInFlight(t *testing.T) {
	dev, s, f := begin(t)
	m, _, _ := quadScene()
	texMat := texturedMaterial(m, "tex")
	cube := addMeshNode(m, "cube", model.CubePrimitive(texMat))
	require.NoError(t, m.UploadMeshes(dev))
	lib, err := shader.Default()
	require.NoError(t, err)
	d, err := NewStandard(dev, lib, s.Info().Format)
	require.NoError(t, err)
	ctx := context.Background()

	render := func(next bool) {
		t.Helper()
		if next {
			f, err = s.NextFrame(ctx)
			require.NoError(t, err)
			require.NoError(t, f.BeginScene())
		}
		require.NoError(t, d.Draw(f, m))
		require.NoError(t, d.EndScene(f))
		require.NoError(t, s.Present(ctx, f))
	}
	render(false)
	render(true)
	render(true)

	mat, _ := m.Materials().Get(texMat)
	tex, _ := m.Textures().Get(mat.Texture)
	img, _ := m.Images().Get(tex.Image)
	smp, _ := m.Samplers().Get(tex.Sampler)
	gpuTex, gpuSmp := img.Texture, smp.Sampler

	_, ok := m.RemoveImage(tex.Image, s)
	require.True(t, ok)
	_, ok = m.RemoveSampler(tex.Sampler, s)
	require.True(t, ok)
	assert.Equal(t, 2, s.PendingDeletions())
	assert.False(t, headless.IsReleased(gpuTex))

	// every slot rebinds the material over the fallback texture before the old one goes away
	for range 3 {
		render(true)
	}
	assert.True(t, headless.IsReleased(gpuTex))
	assert.True(t, headless.IsReleased(gpuSmp))

	node, _ := m.Nodes().Get(cube)
	mesh, _ := m.Meshes().Get(node.Mesh)
	require.Len(t, mesh.Primitives, 1)
	prim, _ := m.Primitives().Get(mesh.Primitives[0])
	vb := prim.Mesh.VertexBuffer()
	_, ok = m.RemovePrimitive(mesh.Primitives[0], s)
	require.True(t, ok)
	mesh, _ = m.Meshes().Get(node.Mesh)
	assert.Empty(t, mesh.Primitives)

	for range 3 {
		render(true)
	}
	assert.True(t, headless.IsReleased(vb))
	subs := dev.Submitted()
	scene, _ := passCommands(subs[len(subs)-1])
	assert.Equal(t, 1, countOps(scene, headless.OpDrawIndexed, -1), "only the quad is left")
	assert.Empty(t, dev.Violations())
}
