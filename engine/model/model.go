// Package model is the scene graph: arenas of cameras, nodes, meshes, primitives, materials, textures,
// images and samplers, cross-referenced only through handles, plus the ordered list of scene roots.
package model

import (
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMaxDepth bounds traversal depth so malformed hierarchies terminate.
const DefaultMaxDepth = 256

// model is the unexported implementation of Model.
type model struct {
	cameras    arena.Arena[camera.Camera]
	nodes      arena.Arena[Node]
	meshes     arena.Arena[Mesh]
	primitives arena.Arena[Primitive]
	materials  arena.Arena[Material]
	textures   arena.Arena[Texture]
	images     arena.Arena[Image]
	samplers   arena.Arena[Sampler]

	// scene is the ordered list of root nodes.
	scene []arena.Handle[Node]

	maxDepth int
}

// Model owns the renderable world.
//
// Entities are mutated only between frames. Accessors return the arenas themselves; callers go through
// handles and never keep pointers obtained from GetMut across an insertion.
type Model interface {
	Cameras() *arena.Arena[camera.Camera]
	Nodes() *arena.Arena[Node]
	Meshes() *arena.Arena[Mesh]
	Primitives() *arena.Arena[Primitive]
	Materials() *arena.Arena[Material]
	Textures() *arena.Arena[Texture]
	Images() *arena.Arena[Image]
	Samplers() *arena.Arena[Sampler]

	// Scene returns a copy of the ordered root node handles.
	Scene() []arena.Handle[Node]

	PushCamera(c camera.Camera) arena.Handle[camera.Camera]
	PushNode(n Node) arena.Handle[Node]
	PushMesh(m Mesh) arena.Handle[Mesh]
	PushPrimitive(p Primitive) arena.Handle[Primitive]
	PushMaterial(m Material) arena.Handle[Material]
	PushTexture(t Texture) arena.Handle[Texture]
	PushImage(i Image) arena.Handle[Image]
	PushSampler(s Sampler) arena.Handle[Sampler]

	// PushToScene appends a root node. Stale handles, nodes already in the scene and nodes that have a
	// parent are ignored.
	//
	// Parameters:
	//   - h: the node to add as a root
	//
	// Returns:
	//   - bool: true if the node was added
	PushToScene(h arena.Handle[Node]) bool

	// RemoveFromScene removes a root node without removing the node itself.
	RemoveFromScene(h arena.Handle[Node]) bool

	// AddChild appends child to parent's children. The hierarchy stays a forest: a node has at most one
	// parent and a scene root has none.
	// Returns an error if either handle is stale, the child already has a parent or is a scene root, or
	// the edge would close a cycle.
	AddChild(parent, child arena.Handle[Node]) error

	// RemoveNode removes a node, detaching it from every parent and from the scene roots.
	// Its children are not removed.
	RemoveNode(h arena.Handle[Node]) (Node, bool)

	// Traverse flattens the scene into (node, world transform) pairs, roots in scene order, each subtree
	// in pre-order. It has no side effects.
	Traverse() []Visible

	// VisibleCameras returns the camera-carrying nodes reached by Traverse, in traversal order.
	VisibleCameras() []VisibleCamera

	// Dump writes the node tree as indented text.
	Dump(w io.Writer) error

	// UploadMeshes creates GPU buffers for every primitive that has none yet, and textures and samplers
	// for every image and sampler that has none yet.
	UploadMeshes(dev gpu.Device) error

	// RemovePrimitive removes a primitive, drops it from every mesh that lists it and hands its GPU buffers
	// to r. The returned primitive no longer owns them.
	RemovePrimitive(h arena.Handle[Primitive], r DeferredReleaser) (Primitive, bool)

	// RemoveImage removes an image and hands its GPU texture to r. Textures still naming it bind the
	// fallback texture.
	RemoveImage(h arena.Handle[Image], r DeferredReleaser) (Image, bool)

	// RemoveSampler removes a sampler and hands its GPU sampler to r.
	RemoveSampler(h arena.Handle[Sampler], r DeferredReleaser) (Sampler, bool)

	// ReleaseGPU releases every GPU object created by UploadMeshes. The caller must ensure no frame in flight
	// still references them.
	ReleaseGPU()
}

// DeferredReleaser delays the release of GPU objects until no frame in flight can reference them. A nil
// DeferredReleaser releases at once.
type DeferredReleaser interface {
	Release(r gpu.Releaser)
}

// Visible is one traversal result.
type Visible struct {
	Root  arena.Handle[Node]
	Node  arena.Handle[Node]
	World mgl32.Mat4
	Depth int
}

// VisibleCamera is a camera placed in the world by its node.
type VisibleCamera struct {
	Node   arena.Handle[Node]
	Handle arena.Handle[camera.Camera]
	Camera camera.Camera
	World  mgl32.Mat4
}

var _ Model = &model{}

// NewModel creates an empty Model.
//
// Parameters:
//   - options: ModelBuilderOption values applied in order
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{maxDepth: DefaultMaxDepth}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Cameras() *arena.Arena[camera.Camera] { return &m.cameras }
func (m *model) Nodes() *arena.Arena[Node]            { return &m.nodes }
func (m *model) Meshes() *arena.Arena[Mesh]           { return &m.meshes }
func (m *model) Primitives() *arena.Arena[Primitive]  { return &m.primitives }
func (m *model) Materials() *arena.Arena[Material]    { return &m.materials }
func (m *model) Textures() *arena.Arena[Texture]      { return &m.textures }
func (m *model) Images() *arena.Arena[Image]          { return &m.images }
func (m *model) Samplers() *arena.Arena[Sampler]      { return &m.samplers }

func (m *model) Scene() []arena.Handle[Node] {
	return append([]arena.Handle[Node](nil), m.scene...)
}

func (m *model) PushCamera(c camera.Camera) arena.Handle[camera.Camera] { return m.cameras.Insert(c) }
func (m *model) PushNode(n Node) arena.Handle[Node]                     { return m.nodes.Insert(n) }
func (m *model) PushMesh(ms Mesh) arena.Handle[Mesh]                    { return m.meshes.Insert(ms) }
func (m *model) PushPrimitive(p Primitive) arena.Handle[Primitive]      { return m.primitives.Insert(p) }
func (m *model) PushMaterial(mt Material) arena.Handle[Material]        { return m.materials.Insert(mt) }
func (m *model) PushTexture(t Texture) arena.Handle[Texture]            { return m.textures.Insert(t) }
func (m *model) PushImage(i Image) arena.Handle[Image]                  { return m.images.Insert(i) }
func (m *model) PushSampler(s Sampler) arena.Handle[Sampler]            { return m.samplers.Insert(s) }

func (m *model) PushToScene(h arena.Handle[Node]) bool {
	if !m.nodes.Contains(h) || m.isRoot(h) {
		return false
	}
	if _, ok := m.parentOf(h); ok {
		return false
	}
	m.scene = append(m.scene, h)
	return true
}

func (m *model) RemoveFromScene(h arena.Handle[Node]) bool {
	for i, r := range m.scene {
		if r == h {
			m.scene = append(m.scene[:i], m.scene[i+1:]...)
			return true
		}
	}
	return false
}

func (m *model) AddChild(parent, child arena.Handle[Node]) error {
	if !m.nodes.Contains(child) {
		return fmt.Errorf("add child: child %v not found", child)
	}
	p, ok := m.nodes.GetMut(parent)
	if !ok {
		return fmt.Errorf("add child: parent %v not found", parent)
	}
	if parent == child || m.reaches(child, parent) {
		return fmt.Errorf("add child: %v under %v would form a cycle", child, parent)
	}
	if prev, ok := m.parentOf(child); ok {
		return fmt.Errorf("add child: %v already has parent %v", child, prev)
	}
	if m.isRoot(child) {
		return fmt.Errorf("add child: %v is a scene root", child)
	}
	p.Children = append(p.Children, child)
	return nil
}

func (m *model) isRoot(h arena.Handle[Node]) bool {
	for _, r := range m.scene {
		if r == h {
			return true
		}
	}
	return false
}

// parentOf returns the first node listing h as a child.
func (m *model) parentOf(h arena.Handle[Node]) (arena.Handle[Node], bool) {
	for ph, n := range m.nodes.All() {
		for _, c := range n.Children {
			if c == h {
				return ph, true
			}
		}
	}
	return arena.Handle[Node]{}, false
}

// reaches reports whether target is from or a descendant of from.
func (m *model) reaches(from, target arena.Handle[Node]) bool {
	seen := make(map[arena.Handle[Node]]bool)
	stack := []arena.Handle[Node]{from}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == target {
			return true
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		if n, ok := m.nodes.Get(h); ok {
			stack = append(stack, n.Children...)
		}
	}
	return false
}

func (m *model) RemoveNode(h arena.Handle[Node]) (Node, bool) {
	n, ok := m.nodes.Remove(h)
	if !ok {
		return Node{}, false
	}
	m.RemoveFromScene(h)
	for ph := range m.nodes.All() {
		p, _ := m.nodes.GetMut(ph)
		kept := p.Children[:0]
		for _, c := range p.Children {
			if c != h {
				kept = append(kept, c)
			}
		}
		p.Children = kept
	}
	return n, true
}
