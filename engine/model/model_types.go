package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// Trs is a local transform made of translation, rotation and scale, applied as T * R * S.
type Trs struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTrs returns the transform that leaves points unchanged.
func IdentityTrs() Trs {
	return Trs{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// TranslationTrs returns an identity transform moved to (x, y, z).
func TranslationTrs(x, y, z float32) Trs {
	t := IdentityTrs()
	t.Translation = mgl32.Vec3{x, y, z}
	return t
}

// Matrix returns the local transform matrix.
func (t Trs) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Translate moves the transform by v in parent space.
func (t *Trs) Translate(v mgl32.Vec3) {
	t.Translation = t.Translation.Add(v)
}

// Rotate applies q after the current rotation.
func (t *Trs) Rotate(q mgl32.Quat) {
	t.Rotation = q.Mul(t.Rotation).Normalize()
}

func (t Trs) String() string {
	return fmt.Sprintf("t(%.2f, %.2f, %.2f) r(%.2f, %.2f, %.2f, %.2f) s(%.2f, %.2f, %.2f)",
		t.Translation[0], t.Translation[1], t.Translation[2],
		t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2], t.Rotation.W,
		t.Scale[0], t.Scale[1], t.Scale[2])
}

// Node is an element of the scene hierarchy. Children are expressed in the node's space.
type Node struct {
	Name     string
	Trs      Trs
	Camera   arena.Handle[camera.Camera]
	Mesh     arena.Handle[Mesh]
	Children []arena.Handle[Node]
}

// NewNode returns a named node with an identity transform and no camera, mesh or children.
func NewNode(name string) Node {
	return Node{Name: name, Trs: IdentityTrs()}
}

// Mesh is an ordered group of primitives drawn with the same node transform.
type Mesh struct {
	Name       string
	Primitives []arena.Handle[Primitive]
}

// Primitive is one draw: vertices, optional indices, a topology and a material.
type Primitive struct {
	Vertices     []byte
	VertexStride int
	// Indices is empty for non-indexed primitives.
	Indices     []byte
	IndexFormat gpu.IndexFormat
	Topology    gpu.Topology
	Material    arena.Handle[Material]

	// Mesh holds the uploaded vertex and index buffers, nil until UploadMeshes runs.
	Mesh bind_group_provider.BindGroupProvider
}

// VertexCount returns the number of vertices in Vertices.
func (p Primitive) VertexCount() int {
	if p.VertexStride <= 0 {
		return 0
	}
	return len(p.Vertices) / p.VertexStride
}

// IndexCount returns the number of indices, 0 when the primitive is not indexed.
func (p Primitive) IndexCount() int {
	return gpu.IndexCount(p.Indices, p.IndexFormat)
}

// Indexed reports whether the primitive draws through an index buffer.
func (p Primitive) Indexed() bool {
	return p.IndexFormat != gpu.IndexFormatNone && len(p.Indices) > 0
}

// PipelineSelector names the pipeline variant that renders a material.
type PipelineSelector int

const (
	PipelineOpaque PipelineSelector = iota
	PipelineLine
)

func (s PipelineSelector) String() string {
	switch s {
	case PipelineOpaque:
		return "opaque"
	case PipelineLine:
		return "line"
	}
	return fmt.Sprintf("PipelineSelector(%d)", int(s))
}

// Material is the surface description of a primitive.
type Material struct {
	Name      string
	BaseColor mgl32.Vec4
	// Texture is the none handle for untextured materials.
	Texture  arena.Handle[Texture]
	Pipeline PipelineSelector
}

// Textured reports whether the material references a texture.
func (m Material) Textured() bool {
	return !m.Texture.IsNone()
}

// Texture pairs an image with the sampler used to read it.
type Texture struct {
	Image   arena.Handle[Image]
	Sampler arena.Handle[Sampler]
}

// Image is decoded pixel data and, once uploaded, its GPU texture.
type Image struct {
	Staging common.TextureStagingData
	Texture gpu.Texture
}

// Sampler is a sampler configuration and, once uploaded, its GPU sampler.
type Sampler struct {
	Staging common.SamplerStagingData
	Sampler gpu.Sampler
}
