package components

import (
	"charm.land/lipgloss/v2"

	"github.com/studorama/studorama/internal/ui/theme"
)

// ConfirmButtons is a two-option yes/no row for destructive confirmations.
// The safe option starts selected; the caller moves the selection and reads
// Yes when the learner commits.
type ConfirmButtons struct {
	YesLabel string
	NoLabel  string
	Yes      bool
}

// NewConfirmButtons creates the row with the "no" option selected.
func NewConfirmButtons(yesLabel, noLabel string) ConfirmButtons {
	return ConfirmButtons{YesLabel: yesLabel, NoLabel: noLabel}
}

// Toggle flips the selection.
func (c *ConfirmButtons) Toggle() {
	c.Yes = !c.Yes
}

// View renders the two buttons side by side.
func (c ConfirmButtons) View() string {
	yes := button(c.YesLabel, c.Yes)
	no := button(c.NoLabel, !c.Yes)
	return lipgloss.JoinHorizontal(lipgloss.Center, yes, "  ", no)
}

func button(label string, active bool) string {
	text := " " + label + " "
	if active {
		return theme.ButtonActive.Render("▸" + text)
	}
	return theme.ButtonInactive.Render(" " + text)
}
