package preload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/studorama/studorama/internal/quiz"
)

// fakeGenerator hands out numbered questions, optionally failing after a
// set number of successes.
type fakeGenerator struct {
	mu        sync.Mutex
	calls     int
	failAfter int // 0 means never fail
}

func (g *fakeGenerator) Generate(ctx context.Context, input quiz.GenerateInput) (*quiz.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failAfter > 0 && g.calls > g.failAfter {
		return nil, errors.New("provider down")
	}
	return &quiz.Question{
		Text:          fmt.Sprintf("question %d", g.calls),
		Type:          quiz.TypeMultipleChoice,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: 0,
	}, nil
}

func (g *fakeGenerator) Evaluate(ctx context.Context, input quiz.EvaluateInput) (*quiz.Evaluation, error) {
	return &quiz.Evaluation{Correct: true}, nil
}

func (g *fakeGenerator) Elaborative(ctx context.Context, input quiz.ElaborativeInput) (string, error) {
	return "why?", nil
}

func TestFillNeverExceedsBound(t *testing.T) {
	gen := &fakeGenerator{}
	b := NewBuffer(gen, 3)
	ctx := context.Background()

	// Ask for far more than the bound.
	b.Fill(ctx, "s1", quiz.GenerateInput{Subject: "algebra"}, 10)
	if got := b.Len("s1"); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	// A full queue refuses further work entirely.
	before := gen.calls
	b.Fill(ctx, "s1", quiz.GenerateInput{Subject: "algebra"}, 1)
	if gen.calls != before {
		t.Errorf("Fill() on a full queue generated %d extra questions", gen.calls-before)
	}
}

func TestTakeIsFIFO(t *testing.T) {
	gen := &fakeGenerator{}
	b := NewBuffer(gen, 3)
	b.Fill(context.Background(), "s1", quiz.GenerateInput{Subject: "algebra"}, 3)

	var got []string
	for {
		q, ok := b.Take("s1")
		if !ok {
			break
		}
		got = append(got, q.Text)
	}
	want := []string{"question 1", "question 2", "question 3"}
	if len(got) != len(want) {
		t.Fatalf("took %d questions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("take %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTakeReturnsEachQuestionOnce(t *testing.T) {
	b := NewBuffer(&fakeGenerator{}, 2)
	b.Fill(context.Background(), "s1", quiz.GenerateInput{Subject: "algebra"}, 2)

	b.Take("s1")
	b.Take("s1")
	if _, ok := b.Take("s1"); ok {
		t.Error("Take() returned a question from an empty queue")
	}
}

func TestFailedFillDropsSlotSilently(t *testing.T) {
	gen := &fakeGenerator{failAfter: 1}
	b := NewBuffer(gen, 3)

	b.Fill(context.Background(), "s1", quiz.GenerateInput{Subject: "algebra"}, 3)
	if got := b.Len("s1"); got != 1 {
		t.Errorf("Len() = %d, want 1 (batch stops at first failure)", got)
	}
	// The surviving question is still usable.
	if _, ok := b.Take("s1"); !ok {
		t.Error("Take() found nothing after a partial fill")
	}
}

func TestQueuesAreIsolatedPerSession(t *testing.T) {
	b := NewBuffer(&fakeGenerator{}, 2)
	ctx := context.Background()
	b.Fill(ctx, "s1", quiz.GenerateInput{Subject: "algebra"}, 2)
	b.Fill(ctx, "s2", quiz.GenerateInput{Subject: "history"}, 1)

	if got := b.Len("s1"); got != 2 {
		t.Errorf("Len(s1) = %d, want 2", got)
	}
	if got := b.Len("s2"); got != 1 {
		t.Errorf("Len(s2) = %d, want 1", got)
	}

	b.Drop("s1")
	if got := b.Len("s1"); got != 0 {
		t.Errorf("Len(s1) after Drop = %d, want 0", got)
	}
	if got := b.Len("s2"); got != 1 {
		t.Errorf("Drop(s1) disturbed s2: Len = %d", got)
	}
}

func TestZeroSizeDisablesPreloading(t *testing.T) {
	gen := &fakeGenerator{}
	b := NewBuffer(gen, 0)
	b.Fill(context.Background(), "s1", quiz.GenerateInput{Subject: "algebra"}, 3)

	if gen.calls != 0 {
		t.Errorf("disabled buffer generated %d questions", gen.calls)
	}
	if _, ok := b.Take("s1"); ok {
		t.Error("disabled buffer returned a question")
	}
}

func TestSizeClampedToMax(t *testing.T) {
	b := NewBuffer(&fakeGenerator{}, 50)
	if got := b.Size(); got != MaxSize {
		t.Errorf("Size() = %d, want %d", got, MaxSize)
	}
}
