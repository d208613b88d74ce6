// Package preload keeps a small per-session queue of ready questions so the
// next question is usually available without a network round-trip.
package preload

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/studorama/studorama/internal/llm"
	"github.com/studorama/studorama/internal/quiz"
)

// MaxSize is the upper bound an operator may configure for the buffer.
const MaxSize = 5

// Buffer holds preloaded questions keyed by session id. At most one fill
// batch runs per session at a time; a failed background generation drops
// its slot silently, since the foreground can always generate on demand.
type Buffer struct {
	gen quiz.Generator
	max int

	mu     sync.Mutex
	queues map[string][]*quiz.Question
	busy   map[string]bool
}

// NewBuffer creates a Buffer bounded at size questions per session.
// Size is clamped to [0, MaxSize]; zero disables preloading.
func NewBuffer(gen quiz.Generator, size int) *Buffer {
	if size < 0 {
		size = 0
	}
	if size > MaxSize {
		size = MaxSize
	}
	return &Buffer{
		gen:    gen,
		max:    size,
		queues: make(map[string][]*quiz.Question),
		busy:   make(map[string]bool),
	}
}

// Fill generates up to count questions for the session and appends them to
// its queue. It returns immediately without generating when another batch
// for the same session is already in flight, or when the queue is full.
func (b *Buffer) Fill(ctx context.Context, sessionID string, input quiz.GenerateInput, count int) {
	if b.max == 0 || count <= 0 {
		return
	}

	b.mu.Lock()
	if b.busy[sessionID] {
		b.mu.Unlock()
		return
	}
	room := b.max - len(b.queues[sessionID])
	if room <= 0 {
		b.mu.Unlock()
		return
	}
	if count > room {
		count = room
	}
	b.busy[sessionID] = true
	prior := append([]string(nil), input.PriorQuestions...)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.busy, sessionID)
		b.mu.Unlock()
	}()

	ctx = llm.WithPurpose(ctx, "preload")
	for i := 0; i < count; i++ {
		in := input
		in.PriorQuestions = prior
		q, err := b.gen.Generate(ctx, in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: preload for session %s: %v\n", sessionID, err)
			return
		}
		prior = append(prior, q.Text)

		b.mu.Lock()
		if len(b.queues[sessionID]) < b.max {
			b.queues[sessionID] = append(b.queues[sessionID], q)
		}
		b.mu.Unlock()
	}
}

// FillAsync runs Fill in the background. The batch survives cancellation of
// the caller's context; results for ended sessions are discarded by Drop.
func (b *Buffer) FillAsync(ctx context.Context, sessionID string, input quiz.GenerateInput, count int) {
	go b.Fill(context.WithoutCancel(ctx), sessionID, input, count)
}

// Take pops the oldest preloaded question for the session, or reports false
// when none is ready. A question is returned at most once.
func (b *Buffer) Take(sessionID string) (*quiz.Question, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue := b.queues[sessionID]
	if len(queue) == 0 {
		return nil, false
	}
	q := queue[0]
	b.queues[sessionID] = queue[1:]
	return q, true
}

// Len reports how many questions are ready for the session.
func (b *Buffer) Len(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[sessionID])
}

// Size returns the configured per-session bound.
func (b *Buffer) Size() int {
	return b.max
}

// Drop discards the session's queue, e.g. when the session ends.
func (b *Buffer) Drop(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.queues, sessionID)
}
