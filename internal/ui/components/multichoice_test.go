package components

import (
	"strings"
	"testing"
)

func TestMultiChoiceViewLabelsFollowOptionCount(t *testing.T) {
	m := NewMultiChoice("Pick one", []string{"one", "two", "three", "four", "five"}, 0)

	var out string
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("View panicked: %v", r)
			}
		}()
		out = m.View()
	}()

	for _, label := range []string{"A)", "B)", "C)", "D)", "E)"} {
		if !strings.Contains(out, label) {
			t.Errorf("missing option label %s", label)
		}
	}
}

func TestMultiChoiceIsCorrect(t *testing.T) {
	m := NewMultiChoice("q", []string{"a", "b"}, 1)
	if m.IsCorrect() {
		t.Error("unsubmitted choice should not be correct")
	}
	m.Selected = 1
	m.Submitted = true
	m.ChosenIndex = 1
	if !m.IsCorrect() {
		t.Error("expected chosen correct index to be correct")
	}
}
