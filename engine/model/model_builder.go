package model

// ModelBuilderOption is a functional option used to configure a Model during construction.
type ModelBuilderOption func(*model)

// WithMaxDepth bounds how deep Traverse descends. Values below 1 keep the default.
//
// Parameters:
//   - depth: the maximum node depth, roots being depth 0
//
// Returns:
//   - ModelBuilderOption: a function that sets the traversal depth bound
func WithMaxDepth(depth int) ModelBuilderOption {
	return func(m *model) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}
