package quiz

import (
	"fmt"
	"strings"
)

const generateSystemPrompt = `You are a study tutor creating quiz questions for a self-directed learner.

Rules:
- Generate a single question strictly about the given subject, honoring every modifier.
- The question must be self-contained: answerable without any material beyond general knowledge of the subject.
- For multiple-choice, provide exactly 4 options with exactly one correct. Distractors should reflect plausible misconceptions, not random noise.
- For dissertative, provide a concise model answer in correctAnswerText that a grader could compare against.
- The explanation should teach: state why the correct answer is correct and, for multiple-choice, why the closest distractor is not.
- Write the question, options, and explanation in the requested language.
- Do not repeat any question from the "already asked" list.`

const evaluateSystemPrompt = `You are grading a learner's free-text answer to a study question.

Rules:
- Judge the answer against the reference answer for substance, not wording.
- An answer is correct when it captures the essential points of the reference, even if phrased differently or incomplete in minor detail.
- Feedback must be constructive and specific: name what was right, what was missing, and one way to improve.
- Write the feedback in the requested language.`

const elaborativeSystemPrompt = `You are a study tutor using elaborative interrogation.

The learner just answered a question incorrectly. Produce a single short "why" or "how" follow-up question that makes them reason about the underlying concept. Return only the follow-up question text, in the requested language.`

// buildGenerateMessage constructs the user message for question generation.
func buildGenerateMessage(input GenerateInput, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subject: %s\n", input.Subject)
	if len(input.Modifiers) > 0 {
		fmt.Fprintf(&b, "Modifiers: %s\n", strings.Join(input.Modifiers, "; "))
	}
	fmt.Fprintf(&b, "Question type: %s\n", input.Type)
	fmt.Fprintf(&b, "Language: %s\n", languageOrDefault(input.Language))

	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	return b.String()
}

// buildEvaluateMessage constructs the user message for answer evaluation.
func buildEvaluateMessage(input EvaluateInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n\n", input.QuestionText)
	fmt.Fprintf(&b, "Reference answer: %s\n\n", input.ReferenceAnswer)
	if input.UserAnswer == "" {
		b.WriteString("Learner's answer: (no answer given)\n")
	} else {
		fmt.Fprintf(&b, "Learner's answer: %s\n", input.UserAnswer)
	}
	fmt.Fprintf(&b, "Language: %s\n", languageOrDefault(input.Language))

	return b.String()
}

// buildElaborativeMessage constructs the user message for a follow-up.
func buildElaborativeMessage(input ElaborativeInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subject: %s\n", input.Subject)
	fmt.Fprintf(&b, "Missed question: %s\n", input.QuestionText)
	fmt.Fprintf(&b, "Language: %s\n", languageOrDefault(input.Language))

	return b.String()
}

// buildDedup formats prior questions for the prompt, keeping the most
// recent max entries.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}

	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return "en-US"
	}
	return lang
}

// systemPrompt returns override when set, else the built-in prompt.
func systemPrompt(builtin, override string) string {
	if override != "" {
		return override
	}
	return builtin
}
