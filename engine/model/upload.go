package model

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
)

func (m *model) UploadMeshes(dev gpu.Device) error {
	for h := range m.primitives.All() {
		p, _ := m.primitives.GetMut(h)
		if p.Mesh != nil {
			continue
		}
		mesh, err := uploadPrimitive(dev, fmt.Sprintf("primitive-%d", h.Index()), *p)
		if err != nil {
			return err
		}
		p.Mesh = mesh
	}
	for h := range m.images.All() {
		img, _ := m.images.GetMut(h)
		if img.Texture != nil {
			continue
		}
		tex, err := dev.UploadTexture(fmt.Sprintf("image-%d", h.Index()), img.Staging)
		if err != nil {
			return fmt.Errorf("upload image %v: %w", h, err)
		}
		img.Texture = tex
	}
	for h := range m.samplers.All() {
		s, _ := m.samplers.GetMut(h)
		if s.Sampler != nil {
			continue
		}
		smp, err := dev.CreateSampler(fmt.Sprintf("sampler-%d", h.Index()), s.Staging)
		if err != nil {
			return fmt.Errorf("create sampler %v: %w", h, err)
		}
		s.Sampler = smp
	}
	return nil
}

// uploadPrimitive copies a primitive's vertices and indices into new GPU buffers. 8-bit indices are
// widened when the device cannot bind them directly.
func uploadPrimitive(dev gpu.Device, label string, p Primitive) (bind_group_provider.BindGroupProvider, error) {
	if len(p.Vertices) == 0 {
		return nil, fmt.Errorf("upload %s: no vertex data", label)
	}
	vb, err := dev.CreateBuffer(label+"-vertices", uint64(len(p.Vertices)), gpu.BufferUsageVertex|gpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	if err := dev.WriteBuffer(vb, 0, p.Vertices); err != nil {
		vb.Release()
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	opts := []bind_group_provider.BindGroupProviderOption{bind_group_provider.WithVertexBuffer(vb, p.VertexCount())}

	if p.Indexed() {
		data, format := p.Indices, p.IndexFormat
		if format == gpu.IndexFormatUint8 && !dev.Features().IndexUint8 {
			data, format = gpu.WidenIndices(data, format)
		}
		// index buffer writes must be 4-byte aligned
		size := common.AlignUp(uint64(len(data)), 4)
		ib, err := dev.CreateBuffer(label+"-indices", size, gpu.BufferUsageIndex|gpu.BufferUsageCopyDst)
		if err != nil {
			vb.Release()
			return nil, fmt.Errorf("upload %s: %w", label, err)
		}
		padded := make([]byte, size)
		copy(padded, data)
		if err := dev.WriteBuffer(ib, 0, padded); err != nil {
			vb.Release()
			ib.Release()
			return nil, fmt.Errorf("upload %s: %w", label, err)
		}
		opts = append(opts, bind_group_provider.WithIndexBuffer(ib, format, p.IndexCount()))
	}
	return bind_group_provider.NewBindGroupProvider(label, opts...), nil
}

func (m *model) ReleaseGPU() {
	for h := range m.primitives.All() {
		p, _ := m.primitives.GetMut(h)
		if p.Mesh != nil {
			p.Mesh.Release()
			p.Mesh = nil
		}
	}
	for h := range m.images.All() {
		img, _ := m.images.GetMut(h)
		if img.Texture != nil {
			img.Texture.Release()
			img.Texture = nil
		}
	}
	for h := range m.samplers.All() {
		s, _ := m.samplers.GetMut(h)
		if s.Sampler != nil {
			s.Sampler.Release()
			s.Sampler = nil
		}
	}
}

func (m *model) RemovePrimitive(h arena.Handle[Primitive], r DeferredReleaser) (Primitive, bool) {
	p, ok := m.primitives.Remove(h)
	if !ok {
		return Primitive{}, false
	}
	for mh := range m.meshes.All() {
		ms, _ := m.meshes.GetMut(mh)
		ms.Primitives = slices.DeleteFunc(ms.Primitives, func(ph arena.Handle[Primitive]) bool { return ph == h })
	}
	if p.Mesh != nil {
		release(r, p.Mesh)
		p.Mesh = nil
	}
	return p, true
}

func (m *model) RemoveImage(h arena.Handle[Image], r DeferredReleaser) (Image, bool) {
	img, ok := m.images.Remove(h)
	if !ok {
		return Image{}, false
	}
	if img.Texture != nil {
		release(r, img.Texture)
		img.Texture = nil
	}
	return img, true
}

func (m *model) RemoveSampler(h arena.Handle[Sampler], r DeferredReleaser) (Sampler, bool) {
	s, ok := m.samplers.Remove(h)
	if !ok {
		return Sampler{}, false
	}
	if s.Sampler != nil {
		release(r, s.Sampler)
		s.Sampler = nil
	}
	return s, true
}

func release(r DeferredReleaser, obj gpu.Releaser) {
	if r == nil {
		obj.Release()
		return
	}
	r.Release(obj)
}
