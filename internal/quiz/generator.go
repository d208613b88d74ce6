package quiz

import "context"

// Generator is the question source contract the session layer consumes.
// All three calls fail with provider errors the caller surfaces without
// mutating session state.
type Generator interface {
	// Generate produces a single validated question.
	Generate(ctx context.Context, input GenerateInput) (*Question, error)

	// Evaluate judges a dissertative answer against the reference answer.
	Evaluate(ctx context.Context, input EvaluateInput) (*Evaluation, error)

	// Elaborative produces a follow-up "why" question for a missed answer.
	Elaborative(ctx context.Context, input ElaborativeInput) (string, error)
}

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// MaxTokens is the token budget for one LLM response.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64

	// MaxPriorQuestions caps how many prior questions are included in the
	// prompt for deduplication.
	MaxPriorQuestions int
}

// DefaultConfig returns the recommended generator settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         768,
		Temperature:       0.7,
		MaxPriorQuestions: 10,
	}
}
