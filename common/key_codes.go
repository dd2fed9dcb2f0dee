package common

// Virtual key codes carried by InputEvent.KeyCode.
// Printable keys use their ASCII value, which is also what GLFW reports for them.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA     = 65
	KeyD     = 68
	KeyE     = 69
	KeyQ     = 81
	KeyS     = 83
	KeyW     = 87
	KeySpace = 32
	KeyEsc   = 256 // Escape key (GLFW)

	KeyLeftShift  = 340 // Left Shift (GLFW)
	KeyRightShift = 344 // Right Shift (GLFW)
)

// Mouse button indices carried by InputEvent.Button.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
