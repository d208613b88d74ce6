package study

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/studorama/studorama/internal/quiz"
	"github.com/studorama/studorama/internal/ui/components"
	"github.com/studorama/studorama/internal/ui/theme"
)

func (s *StudyScreen) View(width, height int) string {
	switch s.phase {
	case phaseError:
		return centered(width, height, theme.Incorrect.Render("Something went wrong")+
			"\n\n"+theme.Body.Render(s.errMsg)+
			"\n\n"+theme.Hint.Render("Press any key to go back"))
	case phaseLoading:
		return centered(width, height, theme.Subtitle.Render("Preparing your first question..."))
	case phaseQuitConfirm:
		return centered(width, height, theme.Title.Render("End this session?")+
			"\n\n"+theme.Hint.Render("Your progress is saved either way.")+
			"\n\n"+s.confirm.View())
	case phaseSummary:
		return s.renderSummary(width, height)
	case phaseFeedback:
		return s.renderFeedback(width, height)
	default:
		return s.renderQuestion(width, height)
	}
}

func (s *StudyScreen) renderQuestion(width, height int) string {
	q := s.current()
	if q == nil {
		return centered(width, height, theme.Subtitle.Render("Loading..."))
	}

	var b strings.Builder

	b.WriteString(theme.Subtitle.Render(s.timeLeftStatus()) + "\n\n")

	if s.sess.Clock != nil && s.sess.Clock.Paused() {
		b.WriteString(theme.Hint.Render("Paused — press P to resume") + "\n\n")
	}
	if q.TimedOut && !q.Answered() {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Warning).Render("Time is up — answer when ready") + "\n\n")
	}
	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Render(s.errMsg) + "\n" +
			theme.Hint.Render("Your answer is still here; press Enter to retry.") + "\n\n")
	}

	if q.Type == quiz.TypeMultipleChoice {
		b.WriteString(s.choice.View())
	} else {
		b.WriteString(theme.Body.Bold(true).Render(q.Text) + "\n\n")
		b.WriteString(s.input.View())
	}

	if s.sess.Clock != nil && s.sess.Clock.Question != nil && s.sess.Clock.Settings.ShowWarnings {
		left := s.sess.Clock.Question.TimeLeft(s.now)
		line := fmt.Sprintf("%02d:%02d on this question", int(left.Minutes()), int(left.Seconds())%60)
		style := theme.Hint
		if left <= 10*time.Second {
			style = lipgloss.NewStyle().Foreground(theme.Warning).Bold(true)
		}
		b.WriteString("\n\n" + style.Render(line))
	}

	return card(width, height, b.String())
}

func (s *StudyScreen) renderFeedback(width, height int) string {
	q := s.current()
	if q == nil {
		return centered(width, height, "")
	}

	var b strings.Builder

	if q.IsCorrect != nil && *q.IsCorrect {
		b.WriteString(theme.Correct.Render("Correct!") + "\n\n")
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite.") + "\n\n")
	}

	if q.Type == quiz.TypeMultipleChoice {
		b.WriteString(s.choice.View() + "\n")
	} else {
		b.WriteString(theme.Body.Bold(true).Render(q.Text) + "\n")
		if q.UserAnswer != nil && *q.UserAnswer != "" {
			b.WriteString(theme.Hint.Render("Your answer: ") + theme.Body.Render(*q.UserAnswer) + "\n")
		}
	}

	if q.Feedback != "" {
		b.WriteString("\n" + theme.Body.Render(q.Feedback) + "\n")
	}
	if q.TimedOut {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Warning).Render("This question timed out.") + "\n")
	}

	if s.explainActive {
		b.WriteString("\n" + theme.Subtitle.Render("Explain why this answer is right:") + "\n")
		b.WriteString(s.explain.View() + "\n")
	} else if eq := s.sess.UIState.ElaborativeQuestion; eq != "" {
		b.WriteString("\n" + theme.Subtitle.Render("Think about this:") + "\n")
		b.WriteString(theme.Body.Render(eq) + "\n")
	}

	return card(width, height, b.String())
}

func (s *StudyScreen) renderSummary(width, height int) string {
	if s.sess == nil {
		return centered(width, height, "")
	}

	answered := 0
	for i := range s.sess.Questions {
		if s.sess.Questions[i].Answered() {
			answered++
		}
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Session complete") + "\n\n")
	b.WriteString(theme.Body.Render(fmt.Sprintf("Subject: %s", s.sess.Subject)) + "\n")
	b.WriteString(theme.Body.Render(fmt.Sprintf("Questions answered: %d of %d", answered, s.sess.TotalQuestions)) + "\n\n")

	bar := components.NewProgressBar("Score", float64(s.sess.Score)/100, true, 40)
	b.WriteString(bar.View() + "\n")

	if s.sess.Clock != nil && s.sess.Clock.Session != nil {
		elapsed := s.sess.Clock.Session.Elapsed(s.now)
		b.WriteString("\n" + theme.Hint.Render(fmt.Sprintf("Time studied: %02d:%02d",
			int(elapsed.Minutes()), int(elapsed.Seconds())%60)))
	}

	return centered(width, height, b.String())
}

func card(width, height int, content string) string {
	inner := theme.Card.Width(min(width-4, 76)).Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, inner)
}

func centered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
