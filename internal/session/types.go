// Package session owns the study-session lifecycle: configuration, the
// active question loop, and completion, persisted to the key-value store on
// every mutation.
package session

import (
	"time"

	"github.com/studorama/studorama/internal/prefs"
	"github.com/studorama/studorama/internal/quiz"
	"github.com/studorama/studorama/internal/timer"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// QuestionMode is the session-level question type setting. Mixed resolves
// to a concrete quiz.Type at each generation.
type QuestionMode string

const (
	ModeMultipleChoice QuestionMode = "multiple-choice"
	ModeDissertative   QuestionMode = "dissertative"
	ModeMixed          QuestionMode = "mixed"
)

// Valid reports whether m is a known mode.
func (m QuestionMode) Valid() bool {
	switch m {
	case ModeMultipleChoice, ModeDissertative, ModeMixed:
		return true
	}
	return false
}

// LearningSettings are the per-session study-technique toggles.
type LearningSettings struct {
	// ElaborativeInterrogation fetches a follow-up "why" question after an
	// incorrect answer.
	ElaborativeInterrogation bool `json:"elaborativeInterrogation"`

	// SelfExplanation prompts the learner to explain their reasoning after
	// a correct answer. No network call is involved.
	SelfExplanation bool `json:"selfExplanation"`
}

// Question is one question inside a session, with the learner's interaction
// state layered over the generated payload.
type Question struct {
	ID string `json:"id"`

	quiz.Question

	// UserAnswer is the submitted answer: the chosen option text for
	// multiple-choice, free text for dissertative. Nil until submitted; a
	// timed-out auto-submit stores an empty string.
	UserAnswer *string `json:"userAnswer,omitempty"`

	// UserAnswerIndex is the chosen option index for multiple-choice.
	UserAnswerIndex *int `json:"userAnswerIndex,omitempty"`

	IsCorrect *bool `json:"isCorrect,omitempty"`

	// Attempts counts submits for this question. At least 1 once UserAnswer
	// is set.
	Attempts int `json:"attempts"`

	// Confidence is the learner's self-rating, 1-5. Zero when not given.
	Confidence int `json:"confidence,omitempty"`

	Feedback     string `json:"feedback,omitempty"`
	AIEvaluation string `json:"aiEvaluation,omitempty"`

	// IsPreloaded marks a question generated ahead of need. Cleared when
	// the question becomes the active one, never earlier.
	IsPreloaded bool `json:"isPreloaded,omitempty"`

	// TimedOut marks that the question timer expired before a submit.
	TimedOut bool `json:"timedOut,omitempty"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Answered reports whether the question has a submitted answer.
func (q *Question) Answered() bool {
	return q.UserAnswer != nil
}

// UIState is the resumable snapshot of the study screen: reopening an
// active session restores exactly where the learner left off.
type UIState struct {
	DraftAnswer string `json:"draftAnswer,omitempty"`
	DraftChoice *int   `json:"draftChoice,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`

	ShowFeedback        bool   `json:"showFeedback,omitempty"`
	ShowSelfExplanation bool   `json:"showSelfExplanation,omitempty"`
	SelfExplanation     string `json:"selfExplanation,omitempty"`
	ElaborativeQuestion string `json:"elaborativeQuestion,omitempty"`
	ElaborativeAnswer   string `json:"elaborativeAnswer,omitempty"`
}

// StudySession is the root aggregate, stored whole in the sessions list.
type StudySession struct {
	ID               string       `json:"id"`
	Subject          string       `json:"subject"`
	SubjectModifiers []string     `json:"subjectModifiers,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	Status           Status       `json:"status"`
	QuestionMode     QuestionMode `json:"questionType"`

	Learning LearningSettings `json:"learningSettings"`

	// Score is round(100 * correct / answered), recomputed from the full
	// question list on every submit.
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`

	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	Questions            []Question `json:"questions"`

	Clock *timer.Clock `json:"clock,omitempty"`

	UIState UIState `json:"sessionState"`
}

// Current returns the active question, or nil before the first one arrives.
func (s *StudySession) Current() *Question {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentQuestionIndex]
}

// PriorTexts returns the text of every question asked so far, for prompt
// deduplication.
func (s *StudySession) PriorTexts() []string {
	texts := make([]string, 0, len(s.Questions))
	for i := range s.Questions {
		texts = append(texts, s.Questions[i].Text)
	}
	return texts
}

// RecomputeScore derives Score and TotalQuestions from the question list.
func (s *StudySession) RecomputeScore() {
	answered, correct := 0, 0
	for i := range s.Questions {
		if !s.Questions[i].Answered() {
			continue
		}
		answered++
		if s.Questions[i].IsCorrect != nil && *s.Questions[i].IsCorrect {
			correct++
		}
	}
	s.TotalQuestions = len(s.Questions)
	if answered == 0 {
		s.Score = 0
		return
	}
	s.Score = int(float64(correct)/float64(answered)*100 + 0.5)
}

// Config is everything needed to start a session.
type Config struct {
	Subject   string
	Modifiers []string
	Mode      QuestionMode
	Learning  LearningSettings
	Timer     timer.Settings
}

// StickyDefaults are the persisted "remember my choice" preferences applied
// when constructing a new session's settings.
type StickyDefaults struct {
	Timer    prefs.Sticky[timer.Settings]   `json:"timer"`
	Learning prefs.Sticky[LearningSettings] `json:"learning"`
}
