package arena

import "fmt"

// Handle is an opaque, generation-checked reference to a slot in an Arena[T].
// The zero value is the "none" sentinel; Insert never returns it because live generations start at 1.
// Handles are comparable and safe to use as map keys.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

// None returns the sentinel handle for T.
func None[T any]() Handle[T] {
	return Handle[T]{}
}

// IsNone reports whether h is the sentinel.
func (h Handle[T]) IsNone() bool {
	return h.generation == 0
}

// Index returns the slot index h refers to.
func (h Handle[T]) Index() uint32 {
	return h.index
}

// Generation returns the slot generation h was issued for.
func (h Handle[T]) Generation() uint32 {
	return h.generation
}

// Less orders handles by slot index, then generation.
func (h Handle[T]) Less(o Handle[T]) bool {
	if h.index != o.index {
		return h.index < o.index
	}
	return h.generation < o.generation
}

func (h Handle[T]) String() string {
	if h.IsNone() {
		return "Handle(none)"
	}
	return fmt.Sprintf("Handle(%dv%d)", h.index, h.generation)
}
