// Package timer implements the session and question countdowns. Every
// method takes the current time so callers drive the 1 Hz tick and tests
// use a fixed clock.
package timer

import "time"

// State is the lifecycle position of a countdown.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateExpired State = "expired"
)

// Countdown is a resumable wall-clock countdown. It stores only anchor
// timestamps and the accumulated paused span, so elapsed time can be
// reconstructed after a restart: elapsed = now - start - pausedAccum.
type Countdown struct {
	Duration    time.Duration `json:"duration"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     *time.Time    `json:"endTime,omitempty"`
	PausedAt    *time.Time    `json:"pausedAt,omitempty"`
	PausedAccum time.Duration `json:"pausedTime"`
}

// Start begins the countdown at now with the given duration.
func Start(duration time.Duration, now time.Time) *Countdown {
	return &Countdown{Duration: duration, StartTime: now}
}

// Pause freezes the countdown. No-op when already paused or finished.
func (c *Countdown) Pause(now time.Time) {
	if c.PausedAt != nil || c.EndTime != nil {
		return
	}
	t := now
	c.PausedAt = &t
}

// Resume adds the paused span to the accumulator and unfreezes.
func (c *Countdown) Resume(now time.Time) {
	if c.PausedAt == nil {
		return
	}
	c.PausedAccum += now.Sub(*c.PausedAt)
	c.PausedAt = nil
}

// Finish ends the countdown at now. Further pauses and resumes are no-ops.
func (c *Countdown) Finish(now time.Time) {
	if c.EndTime != nil {
		return
	}
	c.Resume(now)
	t := now
	c.EndTime = &t
}

// Elapsed is the running time excluding paused spans, never negative.
func (c *Countdown) Elapsed(now time.Time) time.Duration {
	ref := now
	if c.EndTime != nil {
		ref = *c.EndTime
	} else if c.PausedAt != nil {
		ref = *c.PausedAt
	}
	elapsed := ref.Sub(c.StartTime) - c.PausedAccum
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// TimeLeft is the remaining time, floored at zero.
func (c *Countdown) TimeLeft(now time.Time) time.Duration {
	left := c.Duration - c.Elapsed(now)
	if left < 0 {
		return 0
	}
	return left
}

// State reports the countdown's lifecycle position at now. A countdown can
// only reach Expired while running: pausing holds the remaining time.
func (c *Countdown) State(now time.Time) State {
	switch {
	case c == nil || c.StartTime.IsZero():
		return StateStopped
	case c.EndTime != nil:
		return StateStopped
	case c.PausedAt != nil:
		return StatePaused
	case c.TimeLeft(now) == 0:
		return StateExpired
	default:
		return StateRunning
	}
}

// Expired reports whether the countdown ran out while running.
func (c *Countdown) Expired(now time.Time) bool {
	return c != nil && c.State(now) == StateExpired
}
