package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockScaling(t *testing.T) {
	c := NewClock(0.5, 0)

	s := c.Advance(time.Second)
	assert.Equal(t, int32(0), s.Frame)
	assert.Equal(t, 500*time.Millisecond, s.Time)
	assert.Equal(t, 500*time.Millisecond, s.Delta)

	s = c.Advance(time.Second)
	assert.Equal(t, int32(1), s.Frame)
	assert.Equal(t, time.Second, s.Time)
}

func TestClockOffset(t *testing.T) {
	c := NewClock(1, 30*time.Second)
	s := c.Advance(time.Second)
	assert.Equal(t, 31*time.Second, s.Time)
}

func TestClockHeldTimeAppliesInOneStep(t *testing.T) {
	c := NewClock(2, 0)
	c.Advance(0)

	// Three held ticks accumulate unscaled wall time.
	c.Hold(100 * time.Millisecond)
	c.Hold(100 * time.Millisecond)
	c.Hold(100 * time.Millisecond)

	s := c.Advance(100 * time.Millisecond)
	assert.Equal(t, int32(1), s.Frame)
	assert.Equal(t, 800*time.Millisecond, s.Delta)
	assert.Equal(t, 800*time.Millisecond, s.Time)
}

func TestClockZeroScaleFreezesTime(t *testing.T) {
	c := NewClock(0, 5*time.Second)
	s := c.Advance(time.Second)
	assert.Equal(t, 5*time.Second, s.Time)
	assert.Equal(t, time.Duration(0), s.Delta)

	// The frame counter still advances while time stands still.
	s = c.Advance(time.Second)
	assert.Equal(t, 5*time.Second, s.Time)
	assert.Equal(t, int32(1), s.Frame)
}

func TestClockNegativeScaleClamped(t *testing.T) {
	c := NewClock(-1, 0)
	s := c.Advance(time.Second)
	assert.Equal(t, time.Duration(0), s.Time)
}

func TestClockReset(t *testing.T) {
	c := NewClock(1, 0)
	c.Advance(time.Second)
	c.Hold(time.Second)
	c.Reset()

	assert.Equal(t, int32(0), c.Frame())
	s := c.Advance(time.Second)
	assert.Equal(t, int32(0), s.Frame)
	assert.Equal(t, time.Second, s.Time)
}

func TestClockFrameRateWindow(t *testing.T) {
	c := NewClock(1, 0)
	// 60 fps cadence for two seconds of wall time.
	var last Stats
	for i := 0; i < 120; i++ {
		last = c.Advance(time.Second / 60)
	}
	assert.InDelta(t, 60.0, last.FrameRate, 1.5)
}

func TestClockFrameRateUnaffectedByTimeScale(t *testing.T) {
	// FPS measures rendered frames against wall time, not simulation time.
	c := NewClock(10, 0)
	var last Stats
	for i := 0; i < 120; i++ {
		last = c.Advance(time.Second / 60)
	}
	assert.InDelta(t, 60.0, last.FrameRate, 1.5)
}
