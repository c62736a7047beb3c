// Package pass turns a scene model into draw commands for one frame.
//
// A Dispatcher walks its scene pipelines in order. Each pipeline binds its pass-global state once, its
// camera state once per visible camera, and then draws the primitives whose material selects it,
// grouped by material so texture bindings change as rarely as possible. After the scene pass, exactly
// one post-process pipeline copies or visualizes the frame attachments onto the swapchain image.
package pass

import (
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// Variant is any pipeline the dispatcher can render: a RenderPipeline or a *PostProcessPipeline.
type Variant interface {
	Name() string
}

// RenderPipeline is the capability set of a scene pipeline.
type RenderPipeline interface {
	Variant

	// Topology returns the primitive topology the pipeline draws.
	Topology() gpu.Topology

	// Selector returns the material pipeline selector this pipeline draws.
	Selector() model.PipelineSelector

	// Bind sets the pipeline and any pass-global state. It runs once per frame before any camera.
	//
	// Parameters:
	//   - f: the frame being recorded
	//
	// Returns:
	//   - error: a binding error
	Bind(f *frame.Frame) error

	// BindCamera binds the view and projection of one camera.
	//
	// Parameters:
	//   - f: the frame being recorded
	//   - h: the camera handle, used as the cache key
	//   - cam: the camera with its aspect set to the frame
	//   - world: the world transform of the node carrying the camera
	//
	// Returns:
	//   - error: a binding error
	BindCamera(f *frame.Frame, h arena.Handle[camera.Camera], cam camera.Camera, world mgl32.Mat4) error

	// BindModel binds the world transform of one node.
	BindModel(f *frame.Frame, h arena.Handle[model.Node], world mgl32.Mat4) error

	// BindTexture binds the texture of a textured material. Pipelines without textures ignore it.
	BindTexture(f *frame.Frame, h arena.Handle[model.Material], tex model.Texture, m model.Model) error

	// Draw records the draw of one primitive.
	Draw(f *frame.Frame, h arena.Handle[model.Primitive], prim model.Primitive, mat model.Material) error

	// Release releases the pipeline's device objects. Cached bindings live in the frame caches.
	Release()
}

// DeferredReleaser queues an object for release once no frame in flight can reference it.
// *frame.Synchronizer implements it.
type DeferredReleaser interface {
	Release(r gpu.Releaser)
}

var _ DeferredReleaser = &frame.Synchronizer{}
