package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	name string
}

func TestInsertThenGet(t *testing.T) {
	a := New[named](0)
	for _, n := range []string{"a", "b", "c"} {
		h := a.Insert(named{n})
		got, ok := a.Get(h)
		require.True(t, ok)
		assert.Equal(t, n, got.name)
		assert.False(t, h.IsNone())
	}
	assert.Equal(t, 3, a.Len())
}

func TestRemovedHandleNeverAliases(t *testing.T) {
	a := New[named](0)
	h := a.Insert(named{"first"})

	v, ok := a.Remove(h)
	require.True(t, ok)
	assert.Equal(t, "first", v.name)

	reused := a.Insert(named{"second"})
	assert.Equal(t, h.Index(), reused.Index(), "freed slot should be reused")
	assert.NotEqual(t, h, reused)

	_, ok = a.Get(h)
	assert.False(t, ok)
	p, ok := a.GetMut(h)
	assert.False(t, ok)
	assert.Nil(t, p)

	got, ok := a.Get(reused)
	require.True(t, ok)
	assert.Equal(t, "second", got.name)
}

func TestRemoveTwice(t *testing.T) {
	a := New[named](0)
	h := a.Insert(named{"x"})
	_, ok := a.Remove(h)
	require.True(t, ok)
	_, ok = a.Remove(h)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Len())
}

func TestLowestFreeSlotReused(t *testing.T) {
	a := New[int](0)
	hs := make([]Handle[int], 5)
	for i := range hs {
		hs[i] = a.Insert(i)
	}
	a.Remove(hs[3])
	a.Remove(hs[1])

	h := a.Insert(10)
	assert.Equal(t, uint32(1), h.Index())
	h = a.Insert(11)
	assert.Equal(t, uint32(3), h.Index())
	h = a.Insert(12)
	assert.Equal(t, uint32(5), h.Index())
}

func TestForeignAndSentinelHandles(t *testing.T) {
	a := New[int](0)
	a.Insert(1)

	_, ok := a.Get(None[int]())
	assert.False(t, ok)

	other := New[int](0)
	for range 10 {
		other.Insert(0)
	}
	far := other.Handles()[9]
	assert.NotPanics(t, func() {
		_, ok = a.Get(far)
	})
	assert.False(t, ok)
	assert.False(t, a.Contains(far))
	_, ok = a.Remove(far)
	assert.False(t, ok)
}

func TestGetMutWritesThrough(t *testing.T) {
	a := New[named](0)
	h := a.Insert(named{"before"})
	p, ok := a.GetMut(h)
	require.True(t, ok)
	p.name = "after"

	got, _ := a.Get(h)
	assert.Equal(t, "after", got.name)
}

func TestAllSkipsFreeSlots(t *testing.T) {
	a := New[int](0)
	h0 := a.Insert(0)
	h1 := a.Insert(1)
	h2 := a.Insert(2)
	a.Remove(h1)

	var seen []int
	for h, v := range a.All() {
		seen = append(seen, v)
		assert.True(t, a.Contains(h))
	}
	assert.Equal(t, []int{0, 2}, seen)
	assert.Equal(t, []Handle[int]{h0, h2}, a.Handles())
}

func TestClearInvalidatesEverything(t *testing.T) {
	a := New[int](0)
	h := a.Insert(1)
	a.Insert(2)
	a.Clear()
	assert.Equal(t, 0, a.Len())
	assert.False(t, a.Contains(h))

	n := a.Insert(3)
	assert.Equal(t, uint32(0), n.Index())
	assert.NotEqual(t, h, n)
}

func TestZeroValueArenaUsable(t *testing.T) {
	var a Arena[string]
	h := a.Insert("ok")
	got, ok := a.Get(h)
	require.True(t, ok)
	assert.Equal(t, "ok", got)
}
