package timer

import (
	"testing"
	"time"
)

func testSettings() Settings {
	return Settings{
		SessionEnabled:   true,
		SessionDuration:  30 * time.Minute,
		QuestionEnabled:  true,
		QuestionDuration: 90 * time.Second,
		Accumulate:       true,
	}
}

func TestCarryAccumulatesUnusedTime(t *testing.T) {
	c := NewClock(testSettings(), t0)

	c.StartQuestion(t0)
	// Answer with 30s left on a 90s budget.
	c.FinishQuestion(t0.Add(60 * time.Second))
	if c.Carry != 30*time.Second {
		t.Fatalf("Carry = %v, want 30s", c.Carry)
	}

	// Next question gets 90s + 30s.
	start := t0.Add(60 * time.Second)
	c.StartQuestion(start)
	if got := c.Question.TimeLeft(start); got != 120*time.Second {
		t.Errorf("next question TimeLeft = %v, want 120s", got)
	}
	if c.Carry != 0 {
		t.Errorf("Carry after start = %v, want 0", c.Carry)
	}
}

func TestNoCarryWhenAccumulateOff(t *testing.T) {
	s := testSettings()
	s.Accumulate = false
	c := NewClock(s, t0)

	c.StartQuestion(t0)
	c.FinishQuestion(t0.Add(10 * time.Second))
	if c.Carry != 0 {
		t.Errorf("Carry = %v, want 0 with accumulation off", c.Carry)
	}
}

func TestPauseFreezesBothCountdowns(t *testing.T) {
	c := NewClock(testSettings(), t0)
	c.StartQuestion(t0)

	c.Pause(t0.Add(10 * time.Second))
	later := t0.Add(10 * time.Minute)

	if got := c.Session.Elapsed(later); got != 10*time.Second {
		t.Errorf("session Elapsed = %v, want 10s", got)
	}
	if got := c.Question.Elapsed(later); got != 10*time.Second {
		t.Errorf("question Elapsed = %v, want 10s", got)
	}
	if !c.Paused() {
		t.Error("Paused() = false after Pause")
	}

	c.Resume(later)
	if c.Paused() {
		t.Error("Paused() = true after Resume")
	}
}

func TestStartQuestionInheritsPause(t *testing.T) {
	c := NewClock(testSettings(), t0)
	c.Pause(t0.Add(time.Second))

	// A question started while the clock is paused must not tick.
	c.StartQuestion(t0.Add(2 * time.Second))
	if got := c.Question.Elapsed(t0.Add(time.Minute)); got != 0 {
		t.Errorf("question Elapsed while paused = %v, want 0", got)
	}
}

func TestExpiryChecks(t *testing.T) {
	s := testSettings()
	s.SessionDuration = time.Minute
	c := NewClock(s, t0)
	c.StartQuestion(t0)

	if c.SessionExpired(t0.Add(30 * time.Second)) {
		t.Error("session expired early")
	}
	if !c.QuestionExpired(t0.Add(2 * time.Minute)) {
		t.Error("question did not expire")
	}
	if !c.SessionExpired(t0.Add(2 * time.Minute)) {
		t.Error("session did not expire")
	}

	// Finishing the question clears its countdown; expiry checks stay safe.
	c.FinishQuestion(t0.Add(2 * time.Minute))
	if c.QuestionExpired(t0.Add(3 * time.Minute)) {
		t.Error("cleared question countdown reported expired")
	}
}

func TestDisabledTimersNeverStart(t *testing.T) {
	c := NewClock(Settings{}, t0)
	c.StartQuestion(t0)

	if c.Session != nil || c.Question != nil {
		t.Error("disabled timers produced countdowns")
	}
	if c.SessionExpired(t0.Add(time.Hour)) || c.QuestionExpired(t0.Add(time.Hour)) {
		t.Error("disabled timers reported expiry")
	}
}
