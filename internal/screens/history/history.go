// Package history lists past study sessions with their scores and lets the
// learner review or delete them.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studorama/studorama/internal/router"
	"github.com/studorama/studorama/internal/screen"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/ui/layout"
	"github.com/studorama/studorama/internal/ui/theme"
)

// HistoryScreen implements screen.Screen for the session list.
type HistoryScreen struct {
	svc      *session.Service
	sessions []session.StudySession
	selected int
	detail   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates the history screen.
func New(svc *session.Service) *HistoryScreen {
	return &HistoryScreen{svc: svc}
}

func (s *HistoryScreen) Init() tea.Cmd {
	s.reload()
	return nil
}

func (s *HistoryScreen) reload() {
	s.sessions = s.svc.List(context.Background())
	if s.selected >= len(s.sessions) {
		s.selected = len(s.sessions) - 1
	}
	if s.selected < 0 {
		s.selected = 0
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.detail {
		return []layout.KeyHint{{Key: "Esc", Description: "Back to list"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Review"},
		{Key: "D", Description: "Delete"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.detail {
		if kmsg.String() == "esc" || kmsg.String() == "enter" {
			s.detail = false
		}
		return s, nil
	}

	switch kmsg.String() {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.sessions)-1 {
			s.selected++
		}
	case "enter":
		if len(s.sessions) > 0 {
			s.detail = true
		}
	case "d", "D":
		if len(s.sessions) > 0 {
			id := s.sessions[s.selected].ID
			if err := s.svc.Delete(context.Background(), id); err != nil {
				s.errMsg = err.Error()
			}
			s.reload()
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if len(s.sessions) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Subtitle.Render("No sessions yet. Start studying!"))
	}
	if s.detail {
		return s.renderDetail(width, height)
	}
	return s.renderList(width, height)
}

func (s *HistoryScreen) renderList(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Past sessions") + "\n\n")
	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Render(s.errMsg) + "\n\n")
	}

	for i, sess := range s.sessions {
		status := "✓"
		if sess.Status == session.StatusActive {
			status = "…"
		}
		line := fmt.Sprintf("%s %-30s %s  %3d%%  %d questions",
			status,
			truncate(sess.Subject, 30),
			sess.CreatedAt.Format("2006-01-02 15:04"),
			sess.Score,
			sess.TotalQuestions,
		)
		if i == s.selected {
			b.WriteString(theme.Selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(theme.Unselected.Render("  "+line) + "\n")
		}
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}

func (s *HistoryScreen) renderDetail(width, height int) string {
	sess := s.sessions[s.selected]

	var b strings.Builder
	b.WriteString(theme.Title.Render(sess.Subject) + "\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Score %d%%  ·  %s",
		sess.Score, sess.CreatedAt.Format("January 2, 2006"))) + "\n\n")

	for i := range sess.Questions {
		q := &sess.Questions[i]
		marker := theme.Hint.Render("—")
		if q.IsCorrect != nil {
			if *q.IsCorrect {
				marker = theme.Correct.Render("✓")
			} else {
				marker = theme.Incorrect.Render("✗")
			}
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, theme.Body.Render(truncate(q.Text, 68))))
		if q.UserAnswer != nil && *q.UserAnswer != "" {
			b.WriteString("   " + theme.Hint.Render("answered: "+truncate(*q.UserAnswer, 58)) + "\n")
		}
	}

	inner := theme.Card.Width(min(width-4, 76)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, inner)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
