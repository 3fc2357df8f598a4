package frame

import "time"

// State is the scheduler's presentation state after a tick.
type State int

const (
	// Idle means no tick has been processed yet.
	Idle State = iota
	// Rendering means this tick produced a new frame.
	Rendering
	// Holding means this tick re-presents the last rendered frame,
	// possibly mid-crossfade.
	Holding
)

// Scheduler decides per tick whether to render a new frame or hold the
// previous one, and exposes the crossfade blend weight of the newest frame.
//
// With a non-zero interval, frames render once per interval and the newly
// rendered frame is blended in over the final crossfade window of its
// interval: weight 0 at interval start, ramping linearly to 1 exactly at
// interval end. With a zero interval every tick renders at full weight.
type Scheduler struct {
	interval time.Duration
	window   time.Duration

	cycle      time.Duration
	state      State
	started    bool
	firstCycle bool
}

// NewScheduler creates a scheduler from the preset's throttle interval and
// crossfade overlap ratio. The window is overlapRatio x interval, anchored
// at the end of each interval.
func NewScheduler(interval time.Duration, overlapRatio float64) *Scheduler {
	if overlapRatio < 0 {
		overlapRatio = 0
	} else if overlapRatio > 1 {
		overlapRatio = 1
	}
	return &Scheduler{
		interval: interval,
		window:   time.Duration(float64(interval) * overlapRatio),
	}
}

// Tick advances the scheduler by one presentation tick and reports whether
// a new frame must be rendered now.
func (s *Scheduler) Tick(dt time.Duration) bool {
	if !s.started {
		s.started = true
		s.firstCycle = true
		s.cycle = 0
		s.state = Rendering
		return true
	}
	if s.interval == 0 {
		s.state = Rendering
		return true
	}

	s.cycle += dt
	if s.cycle >= s.interval {
		s.cycle -= s.interval
		if s.cycle >= s.interval {
			// A stall longer than one interval restarts the cycle rather
			// than rendering catch-up frames.
			s.cycle = 0
		}
		s.firstCycle = false
		s.state = Rendering
		return true
	}
	s.state = Holding
	return false
}

// State returns the state of the most recent tick.
func (s *Scheduler) State() State {
	if !s.started {
		return Idle
	}
	return s.state
}

// BlendWeight returns the presented weight of the newest rendered frame:
// 0 until the crossfade window at the end of the interval opens, then a
// linear ramp reaching 1 at interval end. The first interval after a build
// presents at full weight since there is no prior frame to fade from.
func (s *Scheduler) BlendWeight() float32 {
	if s.interval == 0 || s.window == 0 || s.firstCycle {
		return 1
	}
	head := s.interval - s.window
	if s.cycle <= head {
		return 0
	}
	w := float64(s.cycle-head) / float64(s.window)
	if w > 1 {
		w = 1
	}
	return float32(w)
}
