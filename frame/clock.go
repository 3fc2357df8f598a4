// Package frame derives simulation time and decides, each presentation
// tick, whether a new frame is rendered or the previous one is held and
// cross-faded.
package frame

import "time"

// frameRateWindow is the span of the smoothed FPS measurement.
const frameRateWindow = time.Second

// Stats is the timing information supplied to render passes for one frame.
type Stats struct {
	// Time is the scaled elapsed time with the preset offset applied
	// (ShaderToy iTime).
	Time time.Duration
	// Delta is the scaled time since the previous rendered frame
	// (iTimeDelta).
	Delta time.Duration
	// FrameRate is the smoothed rendered-frames-per-second measurement.
	FrameRate float64
	// Frame is the zero-based rendered frame index (iFrame).
	Frame int32
}

// Clock is the virtual simulation clock. Wall time observed during held
// ticks accumulates and is applied, scaled, in one step at the next rendered
// frame, so throttling never distorts the time_scale math.
type Clock struct {
	scale  float64
	offset time.Duration

	acc     time.Duration // scaled simulation time
	pending time.Duration // unscaled wall time waiting for the next render
	wallNow time.Duration // wall timeline used for the FPS window
	frame   int32

	frameTimes []time.Duration
}

// NewClock creates a clock with the preset's time_scale and time_offset.
func NewClock(scale float64, offset time.Duration) *Clock {
	if scale < 0 {
		scale = 0
	}
	return &Clock{scale: scale, offset: offset}
}

// Hold records wall time for a tick that did not render.
func (c *Clock) Hold(wall time.Duration) {
	c.pending += wall
}

// Advance consumes the pending wall time plus this tick's delta, advances
// the simulation, and returns the stats for the frame about to render. The
// first call after construction (or Reset) reports frame 0.
func (c *Clock) Advance(wall time.Duration) Stats {
	total := c.pending + wall
	c.pending = 0
	c.wallNow += total

	scaled := time.Duration(float64(total) * c.scale)
	c.acc += scaled

	c.recordFrameTime(c.wallNow)
	stats := Stats{
		Time:      c.acc + c.offset,
		Delta:     scaled,
		FrameRate: c.frameRate(),
		Frame:     c.frame,
	}
	c.frame++
	return stats
}

// Frame returns the index the next rendered frame will carry.
func (c *Clock) Frame() int32 { return c.frame }

// Reset zeroes the clock. Called on graph (re)build so iFrame restarts at 0.
func (c *Clock) Reset() {
	c.acc = 0
	c.pending = 0
	c.wallNow = 0
	c.frame = 0
	c.frameTimes = c.frameTimes[:0]
}

func (c *Clock) recordFrameTime(now time.Duration) {
	c.frameTimes = append(c.frameTimes, now)
	cut := 0
	for cut < len(c.frameTimes) && now-c.frameTimes[cut] > frameRateWindow {
		cut++
	}
	c.frameTimes = c.frameTimes[cut:]
}

func (c *Clock) frameRate() float64 {
	if len(c.frameTimes) < 2 {
		return 0
	}
	span := c.frameTimes[len(c.frameTimes)-1] - c.frameTimes[0]
	if span <= 0 {
		return 0
	}
	return float64(len(c.frameTimes)-1) / span.Seconds()
}
