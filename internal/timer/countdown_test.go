package timer

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestElapsedExcludesPausedSpans(t *testing.T) {
	c := Start(10*time.Minute, t0)

	// Run 2m, pause for 5m, resume, run 1m more.
	c.Pause(t0.Add(2 * time.Minute))
	c.Resume(t0.Add(7 * time.Minute))
	now := t0.Add(8 * time.Minute)

	if got := c.Elapsed(now); got != 3*time.Minute {
		t.Errorf("Elapsed() = %v, want 3m", got)
	}
	if got := c.TimeLeft(now); got != 7*time.Minute {
		t.Errorf("TimeLeft() = %v, want 7m", got)
	}
}

func TestElapsedFrozenWhilePaused(t *testing.T) {
	c := Start(10*time.Minute, t0)
	c.Pause(t0.Add(2 * time.Minute))

	// Wall clock marches on; elapsed must not.
	for _, later := range []time.Duration{3, 30, 300} {
		now := t0.Add(later * time.Minute)
		if got := c.Elapsed(now); got != 2*time.Minute {
			t.Errorf("Elapsed() at +%dm = %v, want 2m", later, got)
		}
	}
}

func TestPausedCountdownNeverExpires(t *testing.T) {
	c := Start(time.Minute, t0)
	c.Pause(t0.Add(30 * time.Second))

	now := t0.Add(time.Hour)
	if c.Expired(now) {
		t.Error("paused countdown reported expired")
	}
	if got := c.State(now); got != StatePaused {
		t.Errorf("State() = %v, want paused", got)
	}

	// Resuming restores the remaining 30s before expiry.
	c.Resume(now)
	if c.Expired(now.Add(29 * time.Second)) {
		t.Error("expired before the remaining time ran out")
	}
	if !c.Expired(now.Add(31 * time.Second)) {
		t.Error("did not expire after the remaining time ran out")
	}
}

func TestDoublePauseAndResumeAreNoOps(t *testing.T) {
	c := Start(10*time.Minute, t0)
	c.Pause(t0.Add(time.Minute))
	c.Pause(t0.Add(2 * time.Minute)) // ignored
	c.Resume(t0.Add(3 * time.Minute))
	c.Resume(t0.Add(4 * time.Minute)) // ignored

	if got := c.Elapsed(t0.Add(5 * time.Minute)); got != 3*time.Minute {
		t.Errorf("Elapsed() = %v, want 3m", got)
	}
}

func TestFinishStopsTheCountdown(t *testing.T) {
	c := Start(10*time.Minute, t0)
	c.Finish(t0.Add(4 * time.Minute))

	if got := c.Elapsed(t0.Add(time.Hour)); got != 4*time.Minute {
		t.Errorf("Elapsed() after finish = %v, want 4m", got)
	}
	if got := c.State(t0.Add(time.Hour)); got != StateStopped {
		t.Errorf("State() after finish = %v, want stopped", got)
	}
	c.Pause(t0.Add(time.Hour)) // ignored after finish
	if c.PausedAt != nil {
		t.Error("Pause() after finish took effect")
	}
}

func TestExpiredOnlyWhileRunning(t *testing.T) {
	c := Start(time.Minute, t0)
	late := t0.Add(2 * time.Minute)

	if !c.Expired(late) {
		t.Fatal("running countdown past its duration did not expire")
	}
	c.Finish(late)
	if c.Expired(late.Add(time.Minute)) {
		t.Error("finished countdown reported expired")
	}

	var nilCountdown *Countdown
	if nilCountdown.Expired(late) {
		t.Error("nil countdown reported expired")
	}
}
