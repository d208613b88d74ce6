package quiz

import "github.com/studorama/studorama/internal/llm"

// QuestionSchema defines the JSON schema for question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "study-question",
	Description: "A single study question with answer material and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question prompt shown to the learner",
			},
			"type": map[string]any{
				"type":        "string",
				"enum":        []any{"multiple-choice", "dissertative"},
				"description": "How the learner answers: pick an option or write freely",
			},
			"options": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"maxItems":    4,
				"description": "Exactly 4 options for multiple-choice. Empty array for dissertative.",
			},
			"correctAnswer": map[string]any{
				"type":        "integer",
				"description": "Zero-based index of the correct option. 0 for dissertative.",
			},
			"correctAnswerText": map[string]any{
				"type":        "string",
				"description": "Model answer used as the evaluation reference. Empty for multiple-choice.",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the correct answer is correct, shown after answering",
			},
			"difficulty": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     5,
				"description": "Self-assessed difficulty from 1 (easy) to 5 (hard)",
			},
		},
		"required":             []any{"question", "type", "options", "correctAnswer", "correctAnswerText", "explanation", "difficulty"},
		"additionalProperties": false,
	},
}

// EvaluationSchema defines the JSON schema for answer evaluation responses.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "A verdict on a free-text answer with constructive feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct": map[string]any{
				"type":        "boolean",
				"description": "Whether the answer is substantially correct",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Constructive feedback for the learner, a short paragraph",
			},
		},
		"required":             []any{"correct", "feedback"},
		"additionalProperties": false,
	},
}
