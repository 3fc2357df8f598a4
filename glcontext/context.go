// Package glcontext owns the GLFW window, the GL context, and the
// translation of window events into engine inputs: monitor geometry, key
// state, and mouse state.
package glcontext

import (
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/goshaderbg/graphics"
	"github.com/richinsley/goshaderbg/inputs"
	"github.com/richinsley/goshaderbg/layout"
)

var _ graphics.Context = (*Context)(nil)

// Context wraps a GLFW window spanning the virtual desktop and feeds its
// input events into an inputs.State.
type Context struct {
	window *glfw.Window
	input  *inputs.State

	lastMouseClickX float64
	lastMouseClickY float64
	mouseWasDown    bool
}

// New creates the output window. A zero width/height spans the union of all
// connected monitors.
func New(width, height int, input *inputs.State) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Decorated, glfw.False)

	if width == 0 || height == 0 {
		bounds := layout.Union(Monitors())
		width, height = bounds.W, bounds.H
	}

	win, err := glfw.CreateWindow(width, height, "goshaderbg", nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{window: win, input: input}
	win.SetKeyCallback(c.keyCallback)
	return c, nil
}

// Monitors returns the connected monitor set in engine layout terms.
func Monitors() []layout.Monitor {
	var out []layout.Monitor
	for _, m := range glfw.GetMonitors() {
		mode := m.GetVideoMode()
		if mode == nil {
			continue
		}
		x, y := m.GetPos()
		out = append(out, layout.Monitor{
			Connector: m.GetName(),
			X:         x,
			Y:         y,
			Width:     mode.Width,
			Height:    mode.Height,
		})
	}
	return out
}

func (c *Context) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
		return
	}
	if c.input == nil || action == glfw.Repeat {
		return
	}
	code, ok := jsKeyCode(key)
	if !ok {
		return
	}
	c.input.KeyEvent(code, action == glfw.Press)
}

// jsKeyCode maps a GLFW key to the JavaScript keycode the keyboard texture
// is indexed by. Printable ASCII keys already line up; the rest are mapped
// explicitly.
func jsKeyCode(key glfw.Key) (int, bool) {
	if key >= glfw.KeyA && key <= glfw.KeyZ {
		return int(key), true
	}
	if key >= glfw.Key0 && key <= glfw.Key9 {
		return int(key), true
	}
	switch key {
	case glfw.KeySpace:
		return 32, true
	case glfw.KeyEnter:
		return 13, true
	case glfw.KeyTab:
		return 9, true
	case glfw.KeyBackspace:
		return 8, true
	case glfw.KeyLeftShift, glfw.KeyRightShift:
		return 16, true
	case glfw.KeyLeftControl, glfw.KeyRightControl:
		return 17, true
	case glfw.KeyLeftAlt, glfw.KeyRightAlt:
		return 18, true
	case glfw.KeyLeft:
		return 37, true
	case glfw.KeyUp:
		return 38, true
	case glfw.KeyRight:
		return 39, true
	case glfw.KeyDown:
		return 40, true
	case glfw.KeyPageUp:
		return 33, true
	case glfw.KeyPageDown:
		return 34, true
	case glfw.KeyEnd:
		return 35, true
	case glfw.KeyHome:
		return 36, true
	}
	return 0, false
}

// GetMouseInput returns the current iMouse vector in framebuffer pixels:
// cursor x/y plus the last click position, click components negated while
// the button is up.
func (c *Context) GetMouseInput() [4]float32 {
	var mouseData [4]float32
	if c.window == nil {
		return mouseData
	}

	fbWidth, fbHeight := c.GetFramebufferSize()
	winWidth, winHeight := c.window.GetSize()
	var scaleX, scaleY float64 = 1.0, 1.0
	if winWidth > 0 && winHeight > 0 {
		scaleX = float64(fbWidth) / float64(winWidth)
		scaleY = float64(fbHeight) / float64(winHeight)
	}

	cursorX, cursorY := c.window.GetCursorPos()
	pixelX := cursorX * scaleX
	pixelY := cursorY * scaleY

	mouseX := float32(pixelX)
	mouseY := float32(fbHeight) - float32(pixelY)

	isMouseDown := c.window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
	if isMouseDown && !c.mouseWasDown {
		c.lastMouseClickX = pixelX
		c.lastMouseClickY = pixelY
	}
	c.mouseWasDown = isMouseDown

	clickX := float32(c.lastMouseClickX)
	clickY := float32(fbHeight) - float32(c.lastMouseClickY)
	if !isMouseDown {
		clickX = -clickX
		clickY = -clickY
	}

	mouseData = [4]float32{mouseX, mouseY, clickX, clickY}
	return mouseData
}

// PumpInput refreshes the shared input state from the window. Called once
// per tick before the engine snapshots it.
func (c *Context) PumpInput() {
	if c.input != nil {
		c.input.SetMouse(c.GetMouseInput())
	}
}

// MakeCurrent makes the GL context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down GLFW. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}
