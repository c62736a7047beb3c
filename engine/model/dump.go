package model

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes one "Node:" and one "Transform:" line per visited node, indented two spaces per depth.
func (m *model) Dump(w io.Writer) error {
	var err error
	for _, root := range m.scene {
		m.walk(root, func(v Visible, n Node) {
			if err != nil {
				return
			}
			indent := strings.Repeat(" ", v.Depth*2)
			name := n.Name
			if name == "" {
				name = "Unknown"
			}
			_, err = fmt.Fprintf(w, "%sNode: %s\n%sTransform: %s\n", indent, name, indent, n.Trs)
		})
		if err != nil {
			return fmt.Errorf("dump node tree: %w", err)
		}
	}
	return nil
}
