package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studorama/studorama/internal/preload"
	"github.com/studorama/studorama/internal/quiz"
	"github.com/studorama/studorama/internal/storage"
	"github.com/studorama/studorama/internal/timer"
)

var (
	ErrEmptySubject      = errors.New("subject must not be empty")
	ErrNotConfigured     = errors.New("question source is not configured")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionCompleted  = errors.New("session is already completed")
	ErrNoCurrentQuestion = errors.New("session has no current question")
	ErrStaleQuestion     = errors.New("question already advanced")
)

// Options configures a Service.
type Options struct {
	KV        *storage.KV
	Generator quiz.Generator
	Buffer    *preload.Buffer

	// Language flows into every prompt.
	Language string

	// GeneratePrompt and EvaluatePrompt are optional custom prompt
	// overrides from the API settings.
	GeneratePrompt string
	EvaluatePrompt string

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Service is the session state machine. All mutations of the persisted
// sessions list are serialized through one mutex, so a later state always
// overwrites an earlier one and different sessions never interleave
// partially.
type Service struct {
	mu   sync.Mutex
	kv   *storage.KV
	gen  quiz.Generator
	buf  *preload.Buffer
	opts Options
	now  func() time.Time
}

// NewService creates a Service. The migration gate must have run already.
func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		kv:   opts.KV,
		gen:  opts.Generator,
		buf:  opts.Buffer,
		opts: opts,
		now:  now,
	}
}

// Submission is one answer submit, from the user or the timeout path.
type Submission struct {
	// ChoiceIndex is the selected option for multiple-choice. Nil means
	// unselected, which a timed-out auto-submit may legitimately send.
	ChoiceIndex *int

	// Text is the free-text answer for dissertative questions.
	Text string

	// Confidence is the learner's self-rating, 1-5. Zero when skipped.
	Confidence int

	// TimedOut marks submissions triggered by question-timer expiry.
	TimedOut bool
}

// SubmitResult reports the outcome of a submit.
type SubmitResult struct {
	Session *StudySession
	Correct bool

	// ElaborativeRequested is true when a follow-up fetch was started in
	// the background; its result lands in UIState.ElaborativeQuestion.
	ElaborativeRequested bool

	// ShowSelfExplanation is true when the self-explanation prompt should
	// be surfaced.
	ShowSelfExplanation bool
}

// TickResult reports what a timer tick did.
type TickResult struct {
	SessionEnded     bool
	QuestionTimedOut bool
	AutoSubmitted    bool
	Submit           *SubmitResult
}

// Start validates the configuration, persists a new session before any
// network call, fetches the first question, and kicks off background
// preloading.
func (s *Service) Start(ctx context.Context, cfg Config) (*StudySession, error) {
	if cfg.Subject == "" {
		return nil, ErrEmptySubject
	}
	if s.gen == nil {
		return nil, ErrNotConfigured
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeMultipleChoice
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown question type %q", mode)
	}

	now := s.now()
	sess := StudySession{
		ID:               fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Subject:          cfg.Subject,
		SubjectModifiers: cfg.Modifiers,
		CreatedAt:        now,
		Status:           StatusActive,
		QuestionMode:     mode,
		Learning:         cfg.Learning,
	}
	if cfg.Timer.SessionEnabled || cfg.Timer.QuestionEnabled {
		sess.Clock = timer.NewClock(cfg.Timer, now)
	}

	// Durability before the first question arrives.
	s.mu.Lock()
	list := s.load(ctx)
	list = append(list, sess)
	err := s.save(ctx, list)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if _, err := s.NextQuestion(ctx, sess.ID); err != nil {
		return nil, err
	}

	// Warm the buffer to its full size behind the first question.
	if size := s.buf.Size(); size > 0 {
		if current, err := s.Get(ctx, sess.ID); err == nil {
			s.buf.FillAsync(ctx, sess.ID, s.generateInput(current), size)
		}
	}

	return s.Get(ctx, sess.ID)
}

// Get returns a copy of the session.
func (s *Service) Get(ctx context.Context, id string) (*StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(ctx)
	for i := range list {
		if list[i].ID == id {
			sess := list[i]
			return &sess, nil
		}
	}
	return nil, ErrSessionNotFound
}

// List returns all stored sessions, newest first.
func (s *Service) List(ctx context.Context) []StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(ctx)
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list
}

// NextQuestion appends the next question and makes it current, preferring
// the preload buffer over a blocking generate. Either way exactly one
// background replacement is requested afterwards.
func (s *Service) NextQuestion(ctx context.Context, id string) (*Question, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}

	input := s.generateInput(sess)

	q := Question{ID: uuid.NewString()}
	if payload, ok := s.buf.Take(id); ok {
		q.Question = *payload
		q.IsPreloaded = true
	} else {
		payload, err := s.gen.Generate(ctx, input)
		if err != nil {
			return nil, err
		}
		q.Question = *payload
	}

	var out *Question
	_, err = s.mutate(ctx, id, func(sess *StudySession) error {
		if sess.Status == StatusCompleted {
			return ErrSessionCompleted
		}
		// Activation clears the preload marker.
		q.IsPreloaded = false
		sess.Questions = append(sess.Questions, q)
		sess.CurrentQuestionIndex = len(sess.Questions) - 1
		sess.UIState = UIState{}
		if sess.Clock != nil {
			sess.Clock.StartQuestion(s.now())
		}
		out = &sess.Questions[sess.CurrentQuestionIndex]
		return nil
	})
	if err != nil {
		return nil, err
	}

	// One out, one in: keep the buffer topped up without bursting.
	input.PriorQuestions = append(input.PriorQuestions, q.Text)
	s.buf.FillAsync(ctx, id, input, 1)

	result := *out
	return &result, nil
}

// SubmitAnswer grades the current question and applies the result. The
// evaluation network call happens outside the service lock so timers and
// other sessions keep moving; a stale result (question advanced or session
// ended meanwhile) is discarded.
func (s *Service) SubmitAnswer(ctx context.Context, id string, sub Submission) (*SubmitResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}
	current := sess.Current()
	if current == nil {
		return nil, ErrNoCurrentQuestion
	}

	var (
		correct    bool
		answer     string
		feedback   string
		evaluation string
	)

	switch current.Type {
	case quiz.TypeMultipleChoice:
		// Exact index match; no partial credit. An unselected submission
		// (timeout) is simply incorrect.
		if sub.ChoiceIndex != nil && *sub.ChoiceIndex == current.CorrectAnswer {
			correct = true
		}
		if sub.ChoiceIndex != nil && *sub.ChoiceIndex >= 0 && *sub.ChoiceIndex < len(current.Options) {
			answer = current.Options[*sub.ChoiceIndex]
		}
		feedback = current.Explanation

	case quiz.TypeDissertative:
		answer = sub.Text
		if sub.Text == "" {
			// Nothing to grade; skip the network call.
			feedback = "No answer was submitted before the timer ran out."
		} else {
			ev, err := s.gen.Evaluate(ctx, quiz.EvaluateInput{
				QuestionText:    current.Text,
				UserAnswer:      sub.Text,
				ReferenceAnswer: current.CorrectAnswerText,
				Language:        s.opts.Language,
				PromptOverride:  s.opts.EvaluatePrompt,
			})
			if err != nil {
				return nil, err
			}
			correct = ev.Correct
			feedback = ev.Feedback
			evaluation = ev.Feedback
		}

	default:
		return nil, fmt.Errorf("unknown question type %q", current.Type)
	}

	questionID := current.ID
	now := s.now()

	updated, err := s.mutate(ctx, id, func(sess *StudySession) error {
		if sess.Status == StatusCompleted {
			return ErrSessionCompleted
		}
		q := sess.Current()
		if q == nil || q.ID != questionID {
			return ErrStaleQuestion
		}

		q.Attempts++
		q.UserAnswer = &answer
		q.UserAnswerIndex = sub.ChoiceIndex
		q.IsCorrect = &correct
		q.Feedback = feedback
		q.AIEvaluation = evaluation
		q.Confidence = sub.Confidence
		if sub.TimedOut {
			q.TimedOut = true
		}
		t := now
		q.CompletedAt = &t

		sess.UIState.ShowFeedback = true
		sess.UIState.DraftAnswer = ""
		sess.UIState.DraftChoice = nil
		if correct && sess.Learning.SelfExplanation {
			sess.UIState.ShowSelfExplanation = true
		}

		if sess.Clock != nil {
			sess.Clock.FinishQuestion(now)
		}

		sess.RecomputeScore()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		Session:             updated,
		Correct:             correct,
		ShowSelfExplanation: correct && updated.Learning.SelfExplanation,
	}

	if !correct && updated.Learning.ElaborativeInterrogation {
		result.ElaborativeRequested = true
		s.fetchElaborative(ctx, id, updated.Subject, questionID)
	}

	return result, nil
}

// fetchElaborative requests a follow-up "why" question in the background.
// Failures are logged and swallowed; a result arriving after the session
// ended or moved on is discarded.
func (s *Service) fetchElaborative(ctx context.Context, id, subject, questionID string) {
	questionText := ""
	if sess, err := s.Get(ctx, id); err == nil {
		if q := sess.Current(); q != nil && q.ID == questionID {
			questionText = q.Text
		}
	}

	go func() {
		bg := context.WithoutCancel(ctx)
		followUp, err := s.gen.Elaborative(bg, quiz.ElaborativeInput{
			Subject:      subject,
			QuestionText: questionText,
			Language:     s.opts.Language,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: elaborative question: %v\n", err)
			return
		}

		_, err = s.mutate(bg, id, func(sess *StudySession) error {
			if sess.Status == StatusCompleted {
				return ErrSessionCompleted
			}
			q := sess.Current()
			if q == nil || q.ID != questionID {
				return ErrStaleQuestion
			}
			sess.UIState.ElaborativeQuestion = followUp
			return nil
		})
		if err != nil && !errors.Is(err, ErrSessionCompleted) && !errors.Is(err, ErrStaleQuestion) {
			fmt.Fprintf(os.Stderr, "warning: store elaborative question: %v\n", err)
		}
	}()
}

// End finalizes the timers, marks the session completed, and drops its
// preload queue. Terminal: no further generation is permitted.
func (s *Service) End(ctx context.Context, id string) (*StudySession, error) {
	now := s.now()
	sess, err := s.mutate(ctx, id, func(sess *StudySession) error {
		if sess.Status == StatusCompleted {
			return ErrSessionCompleted
		}
		if sess.Clock != nil {
			sess.Clock.Finish(now)
		}
		sess.Status = StatusCompleted
		sess.RecomputeScore()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.buf.Drop(id)
	return sess, nil
}

// Pause freezes both timers.
func (s *Service) Pause(ctx context.Context, id string) error {
	now := s.now()
	_, err := s.mutate(ctx, id, func(sess *StudySession) error {
		if sess.Clock != nil {
			sess.Clock.Pause(now)
		}
		return nil
	})
	return err
}

// Resume unfreezes both timers.
func (s *Service) Resume(ctx context.Context, id string) error {
	now := s.now()
	_, err := s.mutate(ctx, id, func(sess *StudySession) error {
		if sess.Clock != nil {
			sess.Clock.Resume(now)
		}
		return nil
	})
	return err
}

// Tick applies timer expiry policy at now: session expiry ends the session;
// question expiry marks the question timed out and, when auto-submit is on,
// drives the normal submit path with whatever is drafted.
func (s *Service) Tick(ctx context.Context, id string, now time.Time) (*TickResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted || sess.Clock == nil {
		return &TickResult{}, nil
	}

	if sess.Clock.SessionExpired(now) {
		if _, err := s.End(ctx, id); err != nil {
			return nil, err
		}
		return &TickResult{SessionEnded: true}, nil
	}

	if !sess.Clock.QuestionExpired(now) {
		return &TickResult{}, nil
	}

	res := &TickResult{QuestionTimedOut: true}
	autoSubmit := sess.Clock.Settings.AutoSubmit
	ui := sess.UIState

	_, err = s.mutate(ctx, id, func(sess *StudySession) error {
		if q := sess.Current(); q != nil {
			q.TimedOut = true
		}
		if sess.Clock != nil {
			sess.Clock.FinishQuestion(now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if autoSubmit {
		sub := Submission{
			ChoiceIndex: ui.DraftChoice,
			Text:        ui.DraftAnswer,
			Confidence:  ui.Confidence,
			TimedOut:    true,
		}
		submit, err := s.SubmitAnswer(ctx, id, sub)
		if err != nil {
			return nil, err
		}
		res.AutoSubmitted = true
		res.Submit = submit
	}

	return res, nil
}

// SaveUIState persists the resumable screen snapshot. Saving a state deep
// equal to the stored one is a no-op, so re-entering a session never
// restarts anything.
func (s *Service) SaveUIState(ctx context.Context, id string, st UIState) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(sess.UIState, st) {
		return nil
	}
	_, err = s.mutate(ctx, id, func(sess *StudySession) error {
		sess.UIState = st
		return nil
	})
	return err
}

// Delete removes one session.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(ctx)
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			s.buf.Drop(id)
			return s.save(ctx, list)
		}
	}
	return ErrSessionNotFound
}

// DeleteAll removes every stored session.
func (s *Service) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []StudySession{})
}

// mutate loads the session, applies fn, and persists the whole list under
// the service mutex.
func (s *Service) mutate(ctx context.Context, id string, fn func(*StudySession) error) (*StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if err := fn(&list[i]); err != nil {
			return nil, err
		}
		if err := s.save(ctx, list); err != nil {
			return nil, err
		}
		sess := list[i]
		return &sess, nil
	}
	return nil, ErrSessionNotFound
}

func (s *Service) load(ctx context.Context) []StudySession {
	return storage.Get(ctx, s.kv, storage.KeySessions, []StudySession{})
}

func (s *Service) save(ctx context.Context, list []StudySession) error {
	if !storage.Set(ctx, s.kv, storage.KeySessions, list) {
		return fmt.Errorf("persist sessions")
	}
	return nil
}

// generateInput builds the question-source input for the session, resolving
// the mixed mode to a concrete type.
func (s *Service) generateInput(sess *StudySession) quiz.GenerateInput {
	qt := quiz.TypeMultipleChoice
	switch sess.QuestionMode {
	case ModeDissertative:
		qt = quiz.TypeDissertative
	case ModeMixed:
		if rand.IntN(2) == 1 {
			qt = quiz.TypeDissertative
		}
	}
	return quiz.GenerateInput{
		Subject:        sess.Subject,
		Modifiers:      sess.SubjectModifiers,
		Type:           qt,
		Language:       s.opts.Language,
		PromptOverride: s.opts.GeneratePrompt,
		PriorQuestions: sess.PriorTexts(),
	}
}
