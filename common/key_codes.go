package common

// Key codes delivered by window key callbacks. They match GLFW key codes, which use
// ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW   = 87  // move forward
	KeyA   = 65  // strafe left
	KeyS   = 83  // move back
	KeyD   = 68  // strafe right
	KeyQ   = 81  // move down
	KeyE   = 69  // move up
	KeyT   = 84  // dump node tree
	KeyC   = 67  // toggle camera far plane
	KeyEsc = 256 // request exit (GLFW)

	Key1 = 49 // present post-process
	Key2 = 50 // normal post-process
	Key3 = 51 // depth post-process
)
