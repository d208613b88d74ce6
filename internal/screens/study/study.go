// Package study implements the active study-session screen: the question
// loop, answer feedback, the optional learning-technique prompts, and the
// end-of-session summary.
package study

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/studorama/studorama/internal/quiz"
	"github.com/studorama/studorama/internal/router"
	"github.com/studorama/studorama/internal/screen"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/ui/components"
	"github.com/studorama/studorama/internal/ui/layout"
)

type phase int

const (
	phaseLoading phase = iota
	phaseAnswering
	phaseFeedback
	phaseQuitConfirm
	phaseSummary
	phaseError
)

type (
	sessionReadyMsg struct {
		Session *session.StudySession
		Err     error
	}
	submitDoneMsg struct {
		Result *session.SubmitResult
		Err    error
	}
	nextQuestionMsg struct {
		Err error
	}
	sessionEndedMsg struct {
		Session *session.StudySession
		Err     error
	}
	timerTickMsg time.Time
)

// StudyScreen drives one study session.
type StudyScreen struct {
	svc *session.Service
	cfg session.Config

	sessionID string
	sess      *session.StudySession
	phase     phase
	errMsg    string

	choice  components.MultiChoice
	input   components.TextInput
	explain components.TextInput // self-explanation free text
	confirm components.ConfirmButtons

	explainActive bool
	now           time.Time
}

var _ screen.Screen = (*StudyScreen)(nil)
var _ screen.KeyHintProvider = (*StudyScreen)(nil)

// New creates a study screen that starts a fresh session from cfg.
func New(svc *session.Service, cfg session.Config) *StudyScreen {
	return &StudyScreen{
		svc:   svc,
		cfg:   cfg,
		phase: phaseLoading,
		input: components.NewTextInput("Type your answer...", 0),
		now:   time.Now(),
	}
}

// Resume creates a study screen over an existing active session.
func Resume(svc *session.Service, id string) *StudyScreen {
	s := New(svc, session.Config{})
	s.sessionID = id
	return s
}

func (s *StudyScreen) Init() tea.Cmd {
	return tea.Batch(s.startCmd(), tickCmd(), s.input.Init())
}

func (s *StudyScreen) Title() string {
	if s.sess != nil {
		return s.sess.Subject
	}
	return "Study"
}

func (s *StudyScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseQuitConfirm:
		return []layout.KeyHint{
			{Key: "←/→", Description: "Choose"},
			{Key: "Enter", Description: "Confirm"},
		}
	case phaseFeedback:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Next question"}}
		if s.explainActive {
			hints = []layout.KeyHint{{Key: "Enter", Description: "Save & next"}}
		}
		return append(hints, layout.KeyHint{Key: "E", Description: "End session"})
	case phaseSummary:
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "P", Description: "Pause"},
			{Key: "Esc", Description: "Quit"},
		}
	}
}

func (s *StudyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionReadyMsg:
		return s.handleReady(msg)

	case submitDoneMsg:
		return s.handleSubmitDone(msg)

	case nextQuestionMsg:
		return s.handleNextQuestion(msg)

	case sessionEndedMsg:
		return s.handleEnded(msg)

	case timerTickMsg:
		return s.handleTick(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s.forwardToInput(msg)
}

func (s *StudyScreen) forwardToInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case s.phase == phaseAnswering && s.currentType() == quiz.TypeDissertative:
		s.input, cmd = s.input.Update(msg)
	case s.phase == phaseFeedback && s.explainActive:
		s.explain, cmd = s.explain.Update(msg)
	}
	return s, cmd
}

// startCmd starts a new session or reloads the resumed one.
func (s *StudyScreen) startCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if s.sessionID != "" {
			sess, err := s.svc.Get(ctx, s.sessionID)
			return sessionReadyMsg{Session: sess, Err: err}
		}
		sess, err := s.svc.Start(ctx, s.cfg)
		return sessionReadyMsg{Session: sess, Err: err}
	}
}

func (s *StudyScreen) handleReady(msg sessionReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.phase = phaseError
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.sess = msg.Session
	s.sessionID = msg.Session.ID

	if msg.Session.Status == session.StatusCompleted {
		s.phase = phaseSummary
		return s, nil
	}

	// A resumed session restores exactly where the learner left off.
	st := msg.Session.UIState
	if st.ShowFeedback && s.current() != nil && s.current().Answered() {
		s.phase = phaseFeedback
		s.explainActive = st.ShowSelfExplanation && st.SelfExplanation == ""
	} else {
		s.phase = phaseAnswering
	}
	s.bindQuestion(st)
	return s, nil
}

// bindQuestion points the widgets at the current question, restoring drafts.
func (s *StudyScreen) bindQuestion(st session.UIState) {
	q := s.current()
	if q == nil {
		return
	}
	if q.Type == quiz.TypeMultipleChoice {
		s.choice = components.NewMultiChoice(q.Text, q.Options, q.CorrectAnswer)
		if st.DraftChoice != nil && *st.DraftChoice < len(q.Options) {
			s.choice.Selected = *st.DraftChoice
		}
	} else {
		s.input = components.NewTextInput("Type your answer...", 0)
		s.input.Model.SetValue(st.DraftAnswer)
	}
	s.explain = components.NewTextInput("Explain your reasoning...", 0)
}

func (s *StudyScreen) current() *session.Question {
	if s.sess == nil {
		return nil
	}
	return s.sess.Current()
}

func (s *StudyScreen) currentType() quiz.Type {
	if q := s.current(); q != nil {
		return q.Type
	}
	return quiz.TypeMultipleChoice
}

func (s *StudyScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseQuitConfirm:
		switch key {
		case "left", "right", "tab":
			s.confirm.Toggle()
		case "y", "Y":
			return s, s.endCmd()
		case "enter":
			if s.confirm.Yes {
				return s, s.endCmd()
			}
			s.phase = phaseAnswering
			return s, s.resumeCmd()
		case "n", "N", "esc":
			s.phase = phaseAnswering
			return s, s.resumeCmd()
		}
		return s, nil

	case phaseSummary:
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case phaseFeedback:
		return s.handleFeedbackKey(key, msg)

	case phaseAnswering:
		return s.handleAnsweringKey(key, msg)

	case phaseError:
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	return s, nil
}

func (s *StudyScreen) handleAnsweringKey(key string, msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch key {
	case "esc":
		s.phase = phaseQuitConfirm
		s.confirm = components.NewConfirmButtons("End session", "Keep studying")
		return s, s.pauseCmd()
	case "p", "P":
		if s.currentType() == quiz.TypeMultipleChoice {
			return s, s.togglePauseCmd()
		}
	}

	if s.currentType() == quiz.TypeMultipleChoice {
		var cmd tea.Cmd
		s.choice, cmd = s.choice.Update(msg)
		if s.choice.Submitted {
			idx := s.choice.ChosenIndex
			return s, s.submitCmd(session.Submission{ChoiceIndex: &idx})
		}
		return s, tea.Batch(cmd, s.saveDraftCmd())
	}

	if key == "enter" {
		text := s.input.Value()
		if text == "" {
			return s, nil
		}
		return s, s.submitCmd(session.Submission{Text: text})
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, tea.Batch(cmd, s.saveDraftCmd())
}

func (s *StudyScreen) handleFeedbackKey(key string, msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.explainActive {
		if key == "enter" {
			text := s.explain.Value()
			s.explainActive = false
			return s, tea.Batch(s.saveExplanationCmd(text), s.nextCmd())
		}
		var cmd tea.Cmd
		s.explain, cmd = s.explain.Update(msg)
		return s, cmd
	}

	switch key {
	case "enter", "n", " ":
		return s, s.nextCmd()
	case "e", "E", "esc":
		return s, s.endCmd()
	}
	return s, nil
}

func (s *StudyScreen) handleSubmitDone(msg submitDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		// Foreground failure: keep the draft editable, show the message.
		s.errMsg = msg.Err.Error()
		s.phase = phaseAnswering
		if s.currentType() == quiz.TypeMultipleChoice {
			s.choice.Submitted = false
			s.choice.ChosenIndex = -1
		}
		return s, nil
	}
	s.errMsg = ""
	s.sess = msg.Result.Session
	s.phase = phaseFeedback
	s.explainActive = msg.Result.ShowSelfExplanation
	return s, nil
}

func (s *StudyScreen) handleNextQuestion(msg nextQuestionMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.errMsg = ""
	s.refresh()
	s.phase = phaseAnswering
	s.bindQuestion(session.UIState{})
	return s, s.input.Init()
}

func (s *StudyScreen) handleEnded(msg sessionEndedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.sess = msg.Session
	s.phase = phaseSummary
	return s, nil
}

func (s *StudyScreen) handleTick(msg timerTickMsg) (screen.Screen, tea.Cmd) {
	s.now = time.Time(msg)
	if s.sess == nil || s.phase == phaseSummary || s.phase == phaseError {
		return s, nil
	}

	res, err := s.svc.Tick(context.Background(), s.sessionID, s.now)
	if err != nil {
		return s, tickCmd()
	}
	s.refresh()

	switch {
	case res.SessionEnded:
		s.phase = phaseSummary
		return s, nil
	case res.AutoSubmitted:
		s.phase = phaseFeedback
		s.explainActive = false
	case res.QuestionTimedOut:
		// Timer stopped; the learner may still answer at their own pace.
	}
	return s, tickCmd()
}

func (s *StudyScreen) refresh() {
	if sess, err := s.svc.Get(context.Background(), s.sessionID); err == nil {
		s.sess = sess
	}
}

func (s *StudyScreen) submitCmd(sub session.Submission) tea.Cmd {
	id := s.sessionID
	return func() tea.Msg {
		res, err := s.svc.SubmitAnswer(context.Background(), id, sub)
		return submitDoneMsg{Result: res, Err: err}
	}
}

func (s *StudyScreen) nextCmd() tea.Cmd {
	id := s.sessionID
	return func() tea.Msg {
		_, err := s.svc.NextQuestion(context.Background(), id)
		return nextQuestionMsg{Err: err}
	}
}

func (s *StudyScreen) endCmd() tea.Cmd {
	id := s.sessionID
	return func() tea.Msg {
		sess, err := s.svc.End(context.Background(), id)
		return sessionEndedMsg{Session: sess, Err: err}
	}
}

func (s *StudyScreen) pauseCmd() tea.Cmd {
	id := s.sessionID
	return func() tea.Msg {
		_ = s.svc.Pause(context.Background(), id)
		return nil
	}
}

func (s *StudyScreen) resumeCmd() tea.Cmd {
	id := s.sessionID
	return func() tea.Msg {
		_ = s.svc.Resume(context.Background(), id)
		return nil
	}
}

func (s *StudyScreen) togglePauseCmd() tea.Cmd {
	id := s.sessionID
	paused := s.sess != nil && s.sess.Clock != nil && s.sess.Clock.Paused()
	return func() tea.Msg {
		ctx := context.Background()
		if paused {
			_ = s.svc.Resume(ctx, id)
		} else {
			_ = s.svc.Pause(ctx, id)
		}
		return nil
	}
}

// saveDraftCmd persists the in-progress answer so a resumed session can
// restore it.
func (s *StudyScreen) saveDraftCmd() tea.Cmd {
	if s.sess == nil {
		return nil
	}
	id := s.sessionID
	st := s.sess.UIState
	if s.currentType() == quiz.TypeMultipleChoice {
		sel := s.choice.Selected
		st.DraftChoice = &sel
		st.DraftAnswer = ""
	} else {
		st.DraftAnswer = s.input.Value()
		st.DraftChoice = nil
	}
	return func() tea.Msg {
		_ = s.svc.SaveUIState(context.Background(), id, st)
		return nil
	}
}

func (s *StudyScreen) saveExplanationCmd(text string) tea.Cmd {
	if s.sess == nil {
		return nil
	}
	id := s.sessionID
	st := s.sess.UIState
	st.SelfExplanation = text
	st.ShowSelfExplanation = false
	return func() tea.Msg {
		_ = s.svc.SaveUIState(context.Background(), id, st)
		return nil
	}
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

// timeLeftStatus renders the header status: remaining session time and the
// running score.
func (s *StudyScreen) timeLeftStatus() string {
	if s.sess == nil {
		return ""
	}
	status := fmt.Sprintf("Score %d", s.sess.Score)
	if s.sess.Clock != nil && s.sess.Clock.Session != nil {
		left := s.sess.Clock.Session.TimeLeft(s.now)
		status = fmt.Sprintf("%s  ⏱ %02d:%02d", status, int(left.Minutes()), int(left.Seconds())%60)
	}
	return status
}
