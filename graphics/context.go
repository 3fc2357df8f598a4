package graphics

// Context defines the interface for a window/surface the presentation runs
// inside. The fallback desktop-window path (package glcontext) implements it
// with GLFW; a Wayland layer-shell surface would implement the same contract.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	// GetMouseInput returns the current mouse state: x, y, clickX, clickY
	GetMouseInput() [4]float32
}
