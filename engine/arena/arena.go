// Package arena provides slot-based storage handing out typed, generation-checked handles.
// Every scene entity collection in the engine is an Arena.
package arena

import (
	"iter"

	"github.com/willf/bitset"
)

// slot holds one arena value. A slot is live when its index is not in the free set.
type slot[T any] struct {
	value      T
	generation uint32
}

// Arena owns values of type T and references them through Handle[T].
//
// Removing a value bumps its slot generation, so handles issued before the removal stop
// resolving even after the slot is reused. Lookups with a sentinel, foreign, out-of-range or
// stale handle report absence instead of panicking.
//
// An Arena is not safe for concurrent mutation.
type Arena[T any] struct {
	slots []slot[T]
	// free marks reusable slot indices; NextSet yields the lowest one.
	free bitset.BitSet
	live int
}

// New creates an empty arena with room for capacity values before growing.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{slots: make([]slot[T], 0, capacity)}
}

// Insert stores v and returns a fresh handle to it.
// The lowest-index free slot is reused when one exists, otherwise the value is appended.
func (a *Arena[T]) Insert(v T) Handle[T] {
	a.live++
	if idx, ok := a.free.NextSet(0); ok {
		a.free.Clear(idx)
		s := &a.slots[idx]
		s.value = v
		return Handle[T]{index: uint32(idx), generation: s.generation}
	}
	a.slots = append(a.slots, slot[T]{value: v, generation: 1})
	return Handle[T]{index: uint32(len(a.slots) - 1), generation: 1}
}

// resolve returns the live slot for h, or nil.
func (a *Arena[T]) resolve(h Handle[T]) *slot[T] {
	if h.IsNone() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.index]
	if s.generation != h.generation || a.free.Test(uint(h.index)) {
		return nil
	}
	return s
}

// Get returns a copy of the value h refers to.
func (a *Arena[T]) Get(h Handle[T]) (T, bool) {
	if s := a.resolve(h); s != nil {
		return s.value, true
	}
	var zero T
	return zero, false
}

// GetMut returns a pointer to the value h refers to.
// The pointer is only valid until the next Insert, which may grow the backing storage.
func (a *Arena[T]) GetMut(h Handle[T]) (*T, bool) {
	if s := a.resolve(h); s != nil {
		return &s.value, true
	}
	return nil, false
}

// Contains reports whether h currently resolves.
func (a *Arena[T]) Contains(h Handle[T]) bool {
	return a.resolve(h) != nil
}

// Remove takes the value out of the arena and invalidates every handle to its slot.
func (a *Arena[T]) Remove(h Handle[T]) (T, bool) {
	s := a.resolve(h)
	if s == nil {
		var zero T
		return zero, false
	}
	v := s.value
	var zero T
	s.value = zero
	s.generation++
	if s.generation == 0 {
		// skip the sentinel generation on wraparound
		s.generation = 1
	}
	a.free.Set(uint(h.index))
	a.live--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.live
}

// All iterates live values in slot order.
func (a *Arena[T]) All() iter.Seq2[Handle[T], T] {
	return func(yield func(Handle[T], T) bool) {
		for i := range a.slots {
			if a.free.Test(uint(i)) {
				continue
			}
			s := a.slots[i]
			if !yield(Handle[T]{index: uint32(i), generation: s.generation}, s.value) {
				return
			}
		}
	}
}

// Handles returns the handles of all live values in slot order.
func (a *Arena[T]) Handles() []Handle[T] {
	out := make([]Handle[T], 0, a.live)
	for h := range a.All() {
		out = append(out, h)
	}
	return out
}

// Clear removes every value, invalidating all outstanding handles.
func (a *Arena[T]) Clear() {
	for i := range a.slots {
		if a.free.Test(uint(i)) {
			continue
		}
		a.Remove(Handle[T]{index: uint32(i), generation: a.slots[i].generation})
	}
}
