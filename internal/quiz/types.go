// Package quiz turns an LLM provider into the question source: generation,
// answer evaluation, and elaborative follow-ups.
package quiz

import "fmt"

// Type says how a question is answered. The mixed session setting is
// resolved to one of these before generation; every concrete question has
// exactly one type.
type Type string

const (
	// TypeMultipleChoice means the learner picks one of the options.
	TypeMultipleChoice Type = "multiple-choice"

	// TypeDissertative means the learner writes a free-text answer that is
	// evaluated by the LLM.
	TypeDissertative Type = "dissertative"
)

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeDissertative:
		return true
	}
	return false
}

// Question is a generated question payload, before any learner interaction.
type Question struct {
	// Text is the question prompt shown to the learner.
	Text string `json:"question"`

	// Type says how the question is answered.
	Type Type `json:"type"`

	// Options is the ordered choice list. Multiple-choice only.
	Options []string `json:"options,omitempty"`

	// CorrectAnswer is the index into Options. Multiple-choice only.
	CorrectAnswer int `json:"correctAnswer"`

	// CorrectAnswerText is the reference answer used when evaluating a
	// dissertative response.
	CorrectAnswerText string `json:"correctAnswerText,omitempty"`

	// Explanation is shown after the learner answers.
	Explanation string `json:"explanation"`

	// Difficulty is the LLM's self-assessed difficulty (1-5).
	Difficulty int `json:"difficulty,omitempty"`
}

// Validate checks structural soundness of a generated question.
func (q *Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("question text is empty")
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 || len(q.Options) > 4 {
			return fmt.Errorf("multiple-choice question has %d options", len(q.Options))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("correct answer index %d out of range", q.CorrectAnswer)
		}
	case TypeDissertative:
		if q.CorrectAnswerText == "" {
			return fmt.Errorf("dissertative question has no reference answer")
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

// GenerateInput holds all context needed to generate a question.
type GenerateInput struct {
	// Subject is the study subject text, e.g. "Biology".
	Subject string

	// Modifiers are ordered free-text qualifiers refining the subject.
	Modifiers []string

	// Type is the concrete type to generate.
	Type Type

	// Language the question should be written in, e.g. "en-US".
	Language string

	// PromptOverride replaces the built-in system prompt when non-empty.
	PromptOverride string

	// PriorQuestions contains the Text of questions already asked in this
	// session. Used for deduplication in the prompt.
	PriorQuestions []string
}

// EvaluateInput holds a dissertative answer to be judged.
type EvaluateInput struct {
	QuestionText    string
	UserAnswer      string
	ReferenceAnswer string
	Language        string
	PromptOverride  string
}

// Evaluation is the structured verdict on a dissertative answer. Correct is
// an explicit boolean from the evaluation call, replacing the old behavior
// of scanning the feedback text for positive words; that lexical scan
// survives only as a fallback for unstructured responses.
type Evaluation struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// ElaborativeInput asks for a "why" follow-up to a missed question.
type ElaborativeInput struct {
	Subject      string
	QuestionText string
	Language     string
}
