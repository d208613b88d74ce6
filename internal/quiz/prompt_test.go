package quiz

import (
	"strings"
	"testing"
)

func TestBuildGenerateMessageMinimal(t *testing.T) {
	input := GenerateInput{
		Subject: "Photosynthesis",
		Type:    TypeMultipleChoice,
	}
	msg := buildGenerateMessage(input, DefaultConfig())

	if !strings.Contains(msg, "Subject: Photosynthesis") {
		t.Error("missing subject")
	}
	if !strings.Contains(msg, "Question type: multiple-choice") {
		t.Error("missing question type")
	}
	if !strings.Contains(msg, "Language: en-US") {
		t.Error("expected default language")
	}
	if !strings.Contains(msg, "Already asked in this session:\nNone") {
		t.Error("expected 'None' for prior questions")
	}
	if strings.Contains(msg, "Modifiers:") {
		t.Error("modifiers line should be absent when there are none")
	}
}

func TestBuildGenerateMessageModifiersOrdered(t *testing.T) {
	input := GenerateInput{
		Subject:   "French Revolution",
		Modifiers: []string{"focus on causes", "avoid dates"},
		Type:      TypeDissertative,
		Language:  "pt-BR",
	}
	msg := buildGenerateMessage(input, DefaultConfig())

	if !strings.Contains(msg, "Modifiers: focus on causes; avoid dates") {
		t.Error("modifiers missing or out of order")
	}
	if !strings.Contains(msg, "Language: pt-BR") {
		t.Error("missing requested language")
	}
}

func TestBuildGenerateMessagePriorQuestionsCapped(t *testing.T) {
	input := GenerateInput{
		Subject: "Algebra",
		Type:    TypeMultipleChoice,
		PriorQuestions: []string{
			"oldest question", "q2", "q3", "q4", "q5",
		},
	}
	cfg := DefaultConfig()
	cfg.MaxPriorQuestions = 3
	msg := buildGenerateMessage(input, cfg)

	if strings.Contains(msg, "oldest question") {
		t.Error("expected oldest prior question to be dropped")
	}
	if !strings.Contains(msg, "q3") || !strings.Contains(msg, "q5") {
		t.Error("expected most recent prior questions to be kept")
	}
}

func TestBuildEvaluateMessageEmptyAnswer(t *testing.T) {
	msg := buildEvaluateMessage(EvaluateInput{
		QuestionText:    "Explain osmosis.",
		ReferenceAnswer: "Movement of water across a membrane.",
	})

	if !strings.Contains(msg, "Learner's answer: (no answer given)") {
		t.Error("expected empty-answer marker")
	}
	if !strings.Contains(msg, "Reference answer: Movement of water across a membrane.") {
		t.Error("missing reference answer")
	}
}

func TestBuildElaborativeMessage(t *testing.T) {
	msg := buildElaborativeMessage(ElaborativeInput{
		Subject:      "Thermodynamics",
		QuestionText: "What is entropy?",
		Language:     "es-ES",
	})

	if !strings.Contains(msg, "Subject: Thermodynamics") {
		t.Error("missing subject")
	}
	if !strings.Contains(msg, "Missed question: What is entropy?") {
		t.Error("missing missed question")
	}
	if !strings.Contains(msg, "Language: es-ES") {
		t.Error("missing language")
	}
}

func TestSystemPromptOverride(t *testing.T) {
	if got := systemPrompt("builtin", ""); got != "builtin" {
		t.Fatalf("expected builtin, got %q", got)
	}
	if got := systemPrompt("builtin", "custom tutor"); got != "custom tutor" {
		t.Fatalf("expected override, got %q", got)
	}
}
