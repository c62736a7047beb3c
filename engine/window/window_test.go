package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinimizedWindowReportsZeroSize(t *testing.T) {
	var resizes [][2]int
	w := &engineWindow{width: 1280, height: 720}
	w.SetResizeCallback(func(width, height int) { resizes = append(resizes, [2]int{width, height}) })

	w.setFramebufferSize(800, 600)
	assert.True(t, w.TakeResized())
	assert.False(t, w.TakeResized())
	width, height := w.Size()
	assert.Equal(t, 800, width)
	assert.Equal(t, 600, height)

	w.iconified.Store(true)
	width, height = w.Size()
	assert.Zero(t, width)
	assert.Zero(t, height)
	assert.Equal(t, 800, w.Width(), "the last framebuffer size is kept")

	w.iconified.Store(false)
	w.setFramebufferSize(1024, 768)
	width, _ = w.Size()
	assert.Equal(t, 1024, width)
	assert.Equal(t, [][2]int{{800, 600}, {1024, 768}}, resizes)
}
