// Package clock provides the monotonic song-time source the Sequencer
// and Recorder read against. Pausing freezes song time at the value
// observed at pause entry; resuming folds the elapsed pause interval
// into accumulated_pause so song time never jumps backward or forward
// across a pause/resume cycle.
package clock

import (
	"sync"
	"time"
)

// Clock tracks song time as an offset from a base instant, minus any
// time spent paused. All reads and mutations are serialized by mu since
// the Sequencer, Recorder, and Transport Controller goroutines share one
// Clock.
type Clock struct {
	mu sync.Mutex

	base             time.Time
	accumulatedPause time.Duration

	paused    bool
	pauseMark time.Time
}

// New returns a Clock with its base set to now.
func New() *Clock {
	return &Clock{base: time.Now()}
}

// Now returns the current monotonic instant. Exposed so callers that
// need a raw timestamp (e.g. for pause bookkeeping) don't reach for
// time.Now() directly.
func (c *Clock) Now() time.Time {
	return time.Now()
}

// SongTime returns seconds elapsed since base, excluding paused
// intervals. While paused it returns the value frozen at pause entry.
func (c *Clock) SongTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.songTimeLocked()
}

func (c *Clock) songTimeLocked() float64 {
	if c.paused {
		return c.pauseMark.Sub(c.base).Seconds() - c.accumulatedPause.Seconds()
	}
	return time.Now().Sub(c.base).Seconds() - c.accumulatedPause.Seconds()
}

// Pause freezes song time at its current value. A second call while
// already paused is a no-op.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.paused = true
	c.pauseMark = time.Now()
}

// Resume folds the elapsed pause interval into accumulated_pause so
// song time continues exactly where it left off. A call while not
// paused is a no-op.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.accumulatedPause += time.Since(c.pauseMark)
	c.paused = false
}

// Reset rebases the clock to now and clears all pause bookkeeping.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = time.Now()
	c.accumulatedPause = 0
	c.paused = false
}

// Paused reports whether the clock is currently frozen.
func (c *Clock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}
