package quiz

import "strings"

// positiveSignals are the lexical markers scanned for when an evaluation
// arrives as unstructured text. This is a known approximation, not a
// reliable classifier: feedback like "good try, but wrong" matches. The
// structured Evaluation.Correct boolean is always preferred when available.
var positiveSignals = []string{"correct", "good", "well", "excellent"}

// LexicalCorrect guesses correctness from free-form evaluation text.
func LexicalCorrect(evaluation string) bool {
	lower := strings.ToLower(evaluation)
	for _, signal := range positiveSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}
