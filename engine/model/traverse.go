package model

import (
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/go-gl/mathgl/mgl32"
)

// frame is one pending node of the explicit traversal stack.
type frame struct {
	node   arena.Handle[Node]
	parent mgl32.Mat4
	depth  int
	// leave marks the post-visit entry that pops node off the current path.
	leave bool
}

func (m *model) Traverse() []Visible {
	var out []Visible
	for _, root := range m.scene {
		m.walk(root, func(v Visible, _ Node) {
			out = append(out, v)
		})
	}
	return out
}

// walk visits the subtree under root in pre-order. A node already on the current root-to-leaf path is
// skipped, as is anything deeper than maxDepth, so malformed graphs terminate.
func (m *model) walk(root arena.Handle[Node], visit func(Visible, Node)) {
	onPath := make(map[arena.Handle[Node]]bool)
	stack := []frame{{node: root, parent: mgl32.Ident4()}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.leave {
			delete(onPath, f.node)
			continue
		}
		if onPath[f.node] || f.depth > m.maxDepth {
			continue
		}
		n, ok := m.nodes.Get(f.node)
		if !ok {
			continue
		}
		world := f.parent.Mul4(n.Trs.Matrix())
		visit(Visible{Root: root, Node: f.node, World: world, Depth: f.depth}, n)

		onPath[f.node] = true
		stack = append(stack, frame{node: f.node, leave: true})
		// reverse push keeps children in declaration order
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.Children[i], parent: world, depth: f.depth + 1})
		}
	}
}

func (m *model) VisibleCameras() []VisibleCamera {
	var out []VisibleCamera
	for _, v := range m.Traverse() {
		n, _ := m.nodes.Get(v.Node)
		c, ok := m.cameras.Get(n.Camera)
		if !ok {
			continue
		}
		out = append(out, VisibleCamera{Node: v.Node, Handle: n.Camera, Camera: c, World: v.World})
	}
	return out
}
