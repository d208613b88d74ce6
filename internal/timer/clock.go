package timer

import "time"

// Settings configures the two countdowns for one session.
type Settings struct {
	SessionEnabled  bool          `json:"sessionEnabled"`
	SessionDuration time.Duration `json:"sessionDuration"`

	QuestionEnabled  bool          `json:"questionEnabled"`
	QuestionDuration time.Duration `json:"questionDuration"`

	// ShowWarnings enables the low-time warning in the UI.
	ShowWarnings bool `json:"showWarnings"`

	// AutoSubmit submits whatever answer is drafted when the question timer
	// expires, including an empty or unselected one.
	AutoSubmit bool `json:"autoSubmit"`

	// Accumulate carries unused question time into the next question's
	// budget instead of discarding it.
	Accumulate bool `json:"accumulate"`

	Sound     bool `json:"sound"`
	Vibration bool `json:"vibration"`
}

// DefaultSettings returns timers-off defaults.
func DefaultSettings() Settings {
	return Settings{
		SessionDuration:  30 * time.Minute,
		QuestionDuration: 90 * time.Second,
		ShowWarnings:     true,
	}
}

// Clock owns the session countdown and the current question countdown.
// Pausing the clock pauses both: the shared paused state is explicit here
// rather than two timers reading a common flag.
type Clock struct {
	Settings Settings   `json:"settings"`
	Session  *Countdown `json:"sessionTimer,omitempty"`
	Question *Countdown `json:"questionTimer,omitempty"`

	// Carry is the unused time inherited from previous questions when
	// Settings.Accumulate is on.
	Carry time.Duration `json:"carry,omitempty"`
}

// NewClock starts a clock for a fresh session at now.
func NewClock(settings Settings, now time.Time) *Clock {
	c := &Clock{Settings: settings}
	if settings.SessionEnabled {
		c.Session = Start(settings.SessionDuration, now)
	}
	return c
}

// StartQuestion begins the countdown for a new question, adding any carried
// time to the base duration.
func (c *Clock) StartQuestion(now time.Time) {
	if !c.Settings.QuestionEnabled {
		return
	}
	c.Question = Start(c.Settings.QuestionDuration+c.Carry, now)
	c.Carry = 0
	if c.Paused() {
		c.Question.Pause(now)
	}
}

// FinishQuestion finalizes the question countdown, banking leftover time
// when accumulation is on.
func (c *Clock) FinishQuestion(now time.Time) {
	if c.Question == nil {
		return
	}
	if c.Settings.Accumulate {
		c.Carry += c.Question.TimeLeft(now)
	}
	c.Question.Finish(now)
	c.Question = nil
}

// Pause freezes both countdowns.
func (c *Clock) Pause(now time.Time) {
	if c.Session != nil {
		c.Session.Pause(now)
	}
	if c.Question != nil {
		c.Question.Pause(now)
	}
}

// Resume unfreezes both countdowns.
func (c *Clock) Resume(now time.Time) {
	if c.Session != nil {
		c.Session.Resume(now)
	}
	if c.Question != nil {
		c.Question.Resume(now)
	}
}

// Paused reports whether the clock is frozen.
func (c *Clock) Paused() bool {
	if c.Session != nil {
		return c.Session.PausedAt != nil
	}
	if c.Question != nil {
		return c.Question.PausedAt != nil
	}
	return false
}

// Finish finalizes the session countdown, if any.
func (c *Clock) Finish(now time.Time) {
	if c.Question != nil {
		c.Question.Finish(now)
		c.Question = nil
	}
	if c.Session != nil {
		c.Session.Finish(now)
	}
}

// SessionExpired reports whether the whole-session countdown ran out.
func (c *Clock) SessionExpired(now time.Time) bool {
	return c.Session.Expired(now)
}

// QuestionExpired reports whether the current question countdown ran out.
func (c *Clock) QuestionExpired(now time.Time) bool {
	return c.Question.Expired(now)
}
