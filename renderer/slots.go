package renderer

import "github.com/richinsley/goshaderbg/graphics"

// Slot is a ping-pong pair of render targets owned by one buffer-producing
// pass (or the image pass). The front target holds the last committed frame;
// passes write into the back and Commit swaps the pair once the whole frame
// has drawn, so a failed frame never exposes partial output.
type Slot struct {
	targets [2]graphics.Target
	front   int
}

func newSlot(dev graphics.Device, w, h int, format graphics.TargetFormat) (*Slot, error) {
	s := &Slot{}
	for i := range s.targets {
		t, err := dev.NewTarget(w, h, format)
		if err != nil {
			s.Destroy()
			return nil, err
		}
		t.Clear()
		s.targets[i] = t
	}
	return s, nil
}

// Current returns the last committed target, the one consumers read for
// previous-frame data.
func (s *Slot) Current() graphics.Target { return s.targets[s.front] }

// WriteTarget returns the back target the owning pass renders into this
// frame. Before Commit it also serves same-frame reads by later passes.
func (s *Slot) WriteTarget() graphics.Target { return s.targets[s.front^1] }

// Back returns the target holding the frame before the last committed one.
// The image slot's back is the "from" side of a crossfade.
func (s *Slot) Back() graphics.Target { return s.targets[s.front^1] }

// Commit swaps the pair, publishing this frame's output.
func (s *Slot) Commit() { s.front ^= 1 }

func (s *Slot) Destroy() {
	for i, t := range s.targets {
		if t != nil {
			t.Destroy()
			s.targets[i] = nil
		}
	}
}
