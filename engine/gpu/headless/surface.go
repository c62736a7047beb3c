package headless

import "sync"

// Surface is an in-memory stand-in for a window surface. It reports a size and a resize flag
// the same way the GLFW window does.
type Surface struct {
	mu            sync.Mutex
	width, height int
	resized       bool
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

// Size returns the current surface size in pixels.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// TakeResized reports whether a resize happened since the last call and clears the flag.
func (s *Surface) TakeResized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.resized
	s.resized = false
	return r
}

// Resize changes the size and raises the resize flag.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.resized = true
}
