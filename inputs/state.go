// Package inputs carries the input-device state and asset catalog consumed
// by render passes: the virtual keyboard texture, the implicit mouse state,
// and lookup of texture/cubemap/volume pixel data by name or path.
package inputs

import (
	"image"
	"sync"
)

// NumKeys is the number of keycodes tracked, matching ShaderToy's keyboard
// texture layout (one texel per JavaScript keycode).
const NumKeys = 256

// State holds the most recent input-device values. Producers (window event
// callbacks) update it asynchronously; the render thread snapshots it once
// per frame. There is no consistency invariant beyond "most recent value".
type State struct {
	mu sync.Mutex

	held    [NumKeys]bool // key currently down
	pressed [NumKeys]bool // one-frame pulse on the release-to-press edge
	toggled [NumKeys]bool // flipped on every press

	mouse [4]float32
}

// KeyEvent records a key transition for the given JavaScript keycode.
func (s *State) KeyEvent(code int, down bool) {
	if code < 0 || code >= NumKeys {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if down && !s.held[code] {
		s.pressed[code] = true
		s.toggled[code] = !s.toggled[code]
	}
	s.held[code] = down
}

// SetMouse records the mouse state: x, y, clickX, clickY in ShaderToy
// iMouse convention (click components negated while the button is up).
func (s *State) SetMouse(m [4]float32) {
	s.mu.Lock()
	s.mouse = m
	s.mu.Unlock()
}

// Snapshot is the per-frame view of the input state.
type Snapshot struct {
	// Keyboard is a 256x1 RGBA image, one texel per keycode:
	// R = held, G = pressed pulse, B = toggled.
	Keyboard *image.RGBA
	Mouse    [4]float32
}

// Snapshot captures the current state and clears the one-frame press
// pulses, so each press is visible to shaders for exactly one frame.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, NumKeys, 1))
	for code := 0; code < NumKeys; code++ {
		off := code * 4
		if s.held[code] {
			img.Pix[off] = 0xff
		}
		if s.pressed[code] {
			img.Pix[off+1] = 0xff
		}
		if s.toggled[code] {
			img.Pix[off+2] = 0xff
		}
		img.Pix[off+3] = 0xff
	}
	s.pressed = [NumKeys]bool{}

	return Snapshot{Keyboard: img, Mouse: s.mouse}
}
