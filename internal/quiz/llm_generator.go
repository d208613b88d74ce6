package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studorama/studorama/internal/llm"
)

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate produces a single validated question.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*Question, error) {
	if llm.PurposeFrom(ctx) == "unknown" {
		ctx = llm.WithPurpose(ctx, "question-gen")
	}

	req := llm.Request{
		System: systemPrompt(generateSystemPrompt, input.PromptOverride),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGenerateMessage(input, g.config)},
		},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	var q Question
	if err := json.Unmarshal(resp.Content, &q); err != nil {
		return nil, fmt.Errorf("parse question response: %w", err)
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("generated question rejected: %w", err)
	}

	return &q, nil
}

// Evaluate judges a dissertative answer. The structured verdict is primary;
// when the provider returns plain text instead of the schema shape, the
// feedback is scanned lexically as a best-effort fallback.
func (g *LLMGenerator) Evaluate(ctx context.Context, input EvaluateInput) (*Evaluation, error) {
	ctx = llm.WithPurpose(ctx, "evaluation")

	req := llm.Request{
		System: systemPrompt(evaluateSystemPrompt, input.PromptOverride),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildEvaluateMessage(input)},
		},
		Schema:    EvaluationSchema,
		MaxTokens: g.config.MaxTokens,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("answer evaluation failed: %w", err)
	}

	var ev Evaluation
	if err := json.Unmarshal(resp.Content, &ev); err != nil {
		text := resp.Text()
		return &Evaluation{
			Correct:  LexicalCorrect(text),
			Feedback: text,
		}, nil
	}

	return &ev, nil
}

// Elaborative produces a follow-up "why" question for a missed answer.
func (g *LLMGenerator) Elaborative(ctx context.Context, input ElaborativeInput) (string, error) {
	ctx = llm.WithPurpose(ctx, "elaborative")

	req := llm.Request{
		System: elaborativeSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildElaborativeMessage(input)},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("elaborative question failed: %w", err)
	}

	return resp.Text(), nil
}
