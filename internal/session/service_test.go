package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/studorama/studorama/internal/preload"
	"github.com/studorama/studorama/internal/quiz"
	"github.com/studorama/studorama/internal/storage"
	"github.com/studorama/studorama/internal/timer"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeGenerator produces numbered multiple-choice questions with option 1
// correct, and records call counts.
type fakeGenerator struct {
	mu          sync.Mutex
	generates   int
	evaluates   int
	evaluation  quiz.Evaluation
	elaborative string
}

func (g *fakeGenerator) Generate(ctx context.Context, input quiz.GenerateInput) (*quiz.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generates++
	return &quiz.Question{
		Text:              fmt.Sprintf("question %d", g.generates),
		Type:              input.Type,
		Options:           []string{"wrong", "right", "wrong", "wrong"},
		CorrectAnswer:     1,
		CorrectAnswerText: "right",
		Explanation:       "because",
	}, nil
}

func (g *fakeGenerator) Evaluate(ctx context.Context, input quiz.EvaluateInput) (*quiz.Evaluation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.evaluates++
	ev := g.evaluation
	return &ev, nil
}

func (g *fakeGenerator) Elaborative(ctx context.Context, input quiz.ElaborativeInput) (string, error) {
	return g.elaborative, nil
}

func (g *fakeGenerator) evaluateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.evaluates
}

type fixture struct {
	svc *Service
	gen *fakeGenerator
	buf *preload.Buffer
	now time.Time
	mu  sync.Mutex
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// newFixture builds a Service over a real store with a controllable clock.
// Buffer size 0 keeps background generation out of call-count assertions.
func newFixture(t *testing.T, bufferSize int) *fixture {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	f := &fixture{gen: &fakeGenerator{}, now: t0}
	f.buf = preload.NewBuffer(f.gen, bufferSize)
	f.svc = NewService(Options{
		KV:        s.KV(),
		Generator: f.gen,
		Buffer:    f.buf,
		Language:  "en-US",
		Now: func() time.Time {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.now
		},
	})
	return f
}

func intPtr(i int) *int { return &i }

func TestHappyPath(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{Subject: "Biology", Mode: ModeMultipleChoice})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.Status != StatusActive {
		t.Fatalf("Status = %q, want active", sess.Status)
	}
	q := sess.Current()
	if q == nil {
		t.Fatal("no current question after Start")
	}
	if q.IsPreloaded {
		t.Error("active question still marked preloaded")
	}

	res, err := f.svc.SubmitAnswer(ctx, sess.ID, Submission{ChoiceIndex: intPtr(1)})
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if !res.Correct {
		t.Error("correct option graded incorrect")
	}

	got := res.Session.Current()
	if got.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", got.Attempts)
	}
	if got.IsCorrect == nil || !*got.IsCorrect {
		t.Error("IsCorrect not set true")
	}
	if got.UserAnswer == nil || *got.UserAnswer != "right" {
		t.Errorf("UserAnswer = %v, want the chosen option text", got.UserAnswer)
	}
	if res.Session.Score != 100 {
		t.Errorf("Score = %d, want 100", res.Session.Score)
	}
}

func TestScoreInvariant(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{Subject: "Biology"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// correct, incorrect, correct: 2 of 3 -> round(66.7) = 67.
	answers := []int{1, 0, 1}
	for i, choice := range answers {
		if i > 0 {
			if _, err := f.svc.NextQuestion(ctx, sess.ID); err != nil {
				t.Fatalf("NextQuestion() error = %v", err)
			}
		}
		if _, err := f.svc.SubmitAnswer(ctx, sess.ID, Submission{ChoiceIndex: intPtr(choice)}); err != nil {
			t.Fatalf("SubmitAnswer(%d) error = %v", i, err)
		}
	}

	got, err := f.svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Score != 67 {
		t.Errorf("Score = %d, want 67", got.Score)
	}
	if got.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", got.TotalQuestions)
	}
}

func TestTimeoutAutoSubmit(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{
		Subject: "Biology",
		Mode:    ModeMultipleChoice,
		Timer: timer.Settings{
			QuestionEnabled:  true,
			QuestionDuration: time.Second,
			AutoSubmit:       true,
		},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.advance(2 * time.Second)
	res, err := f.svc.Tick(ctx, sess.ID, f.svc.now())
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if !res.QuestionTimedOut || !res.AutoSubmitted {
		t.Fatalf("Tick() = %+v, want timed out and auto-submitted", res)
	}

	got := res.Submit.Session.Current()
	if !got.TimedOut {
		t.Error("question not marked timed out")
	}
	if got.Attempts != 1 {
		t.Errorf("Attempts = %d, want exactly one submit", got.Attempts)
	}
	if got.UserAnswer == nil || *got.UserAnswer != "" {
		t.Errorf("UserAnswer = %v, want recorded empty answer", got.UserAnswer)
	}
	if got.IsCorrect == nil || *got.IsCorrect {
		t.Error("unselected answer graded correct")
	}

	// The next tick must not submit again.
	f.advance(time.Second)
	res2, err := f.svc.Tick(ctx, sess.ID, f.svc.now())
	if err != nil {
		t.Fatalf("second Tick() error = %v", err)
	}
	if res2.QuestionTimedOut || res2.AutoSubmitted {
		t.Errorf("second Tick() = %+v, want no-op", res2)
	}
	after, _ := f.svc.Get(ctx, sess.ID)
	if after.Current().Attempts != 1 {
		t.Errorf("Attempts after second tick = %d, want 1", after.Current().Attempts)
	}
}

func TestTimeoutEmptyDissertativeSkipsEvaluation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{
		Subject: "Biology",
		Mode:    ModeDissertative,
		Timer: timer.Settings{
			QuestionEnabled:  true,
			QuestionDuration: time.Second,
			AutoSubmit:       true,
		},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.advance(2 * time.Second)
	if _, err := f.svc.Tick(ctx, sess.ID, f.svc.now()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if calls := f.gen.evaluateCalls(); calls != 0 {
		t.Errorf("empty answer triggered %d evaluation calls, want 0", calls)
	}

	got, _ := f.svc.Get(ctx, sess.ID)
	q := got.Current()
	if q.IsCorrect == nil || *q.IsCorrect {
		t.Error("empty timed-out answer graded correct")
	}
	if q.Feedback == "" {
		t.Error("empty timed-out answer has no feedback")
	}
}

func TestSessionExpiryEndsSession(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{
		Subject: "Biology",
		Timer: timer.Settings{
			SessionEnabled:  true,
			SessionDuration: time.Minute,
		},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.advance(2 * time.Minute)
	res, err := f.svc.Tick(ctx, sess.ID, f.svc.now())
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if !res.SessionEnded {
		t.Fatal("session timer expiry did not end the session")
	}
	got, _ := f.svc.Get(ctx, sess.ID)
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
}

func TestCompletedSessionRejectsMutation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{Subject: "Biology"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := f.svc.End(ctx, sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	if _, err := f.svc.SubmitAnswer(ctx, sess.ID, Submission{ChoiceIndex: intPtr(1)}); err != ErrSessionCompleted {
		t.Errorf("SubmitAnswer() error = %v, want ErrSessionCompleted", err)
	}
	if _, err := f.svc.NextQuestion(ctx, sess.ID); err != ErrSessionCompleted {
		t.Errorf("NextQuestion() error = %v, want ErrSessionCompleted", err)
	}
	if _, err := f.svc.End(ctx, sess.ID); err != ErrSessionCompleted {
		t.Errorf("second End() error = %v, want ErrSessionCompleted", err)
	}
}

func TestNextQuestionPrefersBuffer(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{Subject: "Biology"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Start warms the buffer in the background; wait for the first
	// preloaded question to land.
	deadline := time.Now().Add(2 * time.Second)
	for f.buf.Len(sess.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("buffer never filled")
		}
		time.Sleep(10 * time.Millisecond)
	}

	q, err := f.svc.NextQuestion(ctx, sess.ID)
	if err != nil {
		t.Fatalf("NextQuestion() error = %v", err)
	}
	// Start generated "question 1"; the seeded one is "question 2".
	if q.Text != "question 2" {
		t.Errorf("NextQuestion() text = %q, want the buffered question", q.Text)
	}
	if q.IsPreloaded {
		t.Error("activated question still marked preloaded")
	}
}

func TestDissertativeEvaluationApplied(t *testing.T) {
	f := newFixture(t, 0)
	f.gen.evaluation = quiz.Evaluation{Correct: false, Feedback: "needs work"}
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{Subject: "Biology", Mode: ModeDissertative})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	res, err := f.svc.SubmitAnswer(ctx, sess.ID, Submission{Text: "mitochondria are small"})
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if res.Correct {
		t.Error("evaluation said incorrect but result is correct")
	}
	q := res.Session.Current()
	if q.AIEvaluation != "needs work" {
		t.Errorf("AIEvaluation = %q, want the evaluator feedback", q.AIEvaluation)
	}
	if got := f.gen.evaluateCalls(); got != 1 {
		t.Errorf("evaluate calls = %d, want 1", got)
	}
}

func TestElaborativeFollowUpSurfaces(t *testing.T) {
	f := newFixture(t, 0)
	f.gen.evaluation = quiz.Evaluation{Correct: false, Feedback: "nope"}
	f.gen.elaborative = "why do cells need energy?"
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{
		Subject:  "Biology",
		Mode:     ModeDissertative,
		Learning: LearningSettings{ElaborativeInterrogation: true},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	res, err := f.svc.SubmitAnswer(ctx, sess.ID, Submission{Text: "guess"})
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if !res.ElaborativeRequested {
		t.Fatal("incorrect answer did not request a follow-up")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, _ := f.svc.Get(ctx, sess.ID)
		if got.UIState.ElaborativeQuestion == "why do cells need energy?" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("follow-up question never surfaced")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSelfExplanationPromptOnCorrect(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{
		Subject:  "Biology",
		Learning: LearningSettings{SelfExplanation: true},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	res, err := f.svc.SubmitAnswer(ctx, sess.ID, Submission{ChoiceIndex: intPtr(1)})
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if !res.ShowSelfExplanation {
		t.Error("correct answer did not surface the self-explanation prompt")
	}
	if !res.Session.UIState.ShowSelfExplanation {
		t.Error("self-explanation flag not persisted in UI state")
	}
}

func TestSaveUIStateRoundTrip(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, Config{Subject: "Biology", Mode: ModeDissertative})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	st := UIState{DraftAnswer: "half-written thought", Confidence: 3}
	if err := f.svc.SaveUIState(ctx, sess.ID, st); err != nil {
		t.Fatalf("SaveUIState() error = %v", err)
	}
	// Saving the identical state again is a no-op, not an error.
	if err := f.svc.SaveUIState(ctx, sess.ID, st); err != nil {
		t.Fatalf("idempotent SaveUIState() error = %v", err)
	}

	got, _ := f.svc.Get(ctx, sess.ID)
	if got.UIState.DraftAnswer != "half-written thought" {
		t.Errorf("DraftAnswer = %q, not restored", got.UIState.DraftAnswer)
	}
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, Config{Subject: ""}); err != ErrEmptySubject {
		t.Errorf("Start(empty subject) error = %v, want ErrEmptySubject", err)
	}
	if _, err := f.svc.Start(ctx, Config{Subject: "x", Mode: "essay"}); err == nil {
		t.Error("Start(unknown mode) succeeded")
	}
}

func TestDeleteAndList(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	a, _ := f.svc.Start(ctx, Config{Subject: "Biology"})
	b, _ := f.svc.Start(ctx, Config{Subject: "History"})

	list := f.svc.List(ctx)
	if len(list) != 2 {
		t.Fatalf("List() = %d sessions, want 2", len(list))
	}
	// Newest first.
	if list[0].ID != b.ID {
		t.Errorf("List()[0] = %s, want the newest session", list[0].ID)
	}

	if err := f.svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.svc.Get(ctx, a.ID); err != ErrSessionNotFound {
		t.Errorf("Get(deleted) error = %v, want ErrSessionNotFound", err)
	}

	if err := f.svc.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if got := f.svc.List(ctx); len(got) != 0 {
		t.Errorf("List() after DeleteAll = %d sessions, want 0", len(got))
	}
}
