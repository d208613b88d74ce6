// Package home is the landing screen: start a session, resume the active
// one, or browse history.
package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studorama/studorama/internal/prefs"
	"github.com/studorama/studorama/internal/router"
	"github.com/studorama/studorama/internal/screen"
	"github.com/studorama/studorama/internal/screens/history"
	"github.com/studorama/studorama/internal/screens/study"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/storage"
	"github.com/studorama/studorama/internal/timer"
	"github.com/studorama/studorama/internal/ui/components"
	"github.com/studorama/studorama/internal/ui/layout"
	"github.com/studorama/studorama/internal/ui/theme"
)

type mode int

const (
	modeMenu mode = iota
	modeConfigure
)

// HomeScreen implements screen.Screen for the landing view.
type HomeScreen struct {
	svc *session.Service
	kv  *storage.KV

	mode    mode
	menu    components.Menu
	subject components.TextInput
	qtype   int // index into questionModes

	notice string
}

var questionModes = []session.QuestionMode{
	session.ModeMultipleChoice,
	session.ModeDissertative,
	session.ModeMixed,
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen. notice, when non-empty, is shown once
// (e.g. the post-migration message).
func New(svc *session.Service, kv *storage.KV, notice string) *HomeScreen {
	s := &HomeScreen{svc: svc, kv: kv, notice: notice}
	s.menu = components.NewMenu(s.menuItems())
	return s
}

func (s *HomeScreen) menuItems() []components.MenuItem {
	items := []components.MenuItem{
		{Label: "Start studying", Action: func() tea.Cmd {
			s.mode = modeConfigure
			s.subject = components.NewTextInput("What do you want to study?", 0)
			return s.subject.Init()
		}},
	}

	if active := s.activeSession(); active != nil {
		id := active.ID
		items = append(items, components.MenuItem{
			Label: "Resume: " + active.Subject,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: study.Resume(s.svc, id)}
				}
			},
		})
	}

	items = append(items, components.MenuItem{
		Label: "History",
		Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(s.svc)}
			}
		},
	})
	items = append(items, components.MenuItem{
		Label:  "Quit",
		Action: func() tea.Cmd { return tea.Quit },
	})
	return items
}

func (s *HomeScreen) activeSession() *session.StudySession {
	for _, sess := range s.svc.List(context.Background()) {
		if sess.Status == session.StatusActive {
			out := sess
			return &out
		}
	}
	return nil
}

func (s *HomeScreen) Init() tea.Cmd {
	return nil
}

func (s *HomeScreen) Title() string {
	return "Home"
}

func (s *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, isKey := msg.(tea.KeyMsg)

	if s.mode == modeConfigure {
		if isKey {
			switch kmsg.String() {
			case "esc":
				s.mode = modeMenu
				s.menu = components.NewMenu(s.menuItems())
				return s, nil
			case "tab":
				s.qtype = (s.qtype + 1) % len(questionModes)
				return s, nil
			case "enter":
				subject := strings.TrimSpace(s.subject.Value())
				if subject == "" {
					return s, nil
				}
				return s, s.startCmd(subject)
			}
		}
		var cmd tea.Cmd
		s.subject, cmd = s.subject.Update(msg)
		return s, cmd
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

// startCmd builds the session config from the remembered defaults and
// pushes the study screen.
func (s *HomeScreen) startCmd(subject string) tea.Cmd {
	ctx := context.Background()
	timerSticky := storage.Get(ctx, s.kv, storage.KeyTimerPreferences, prefs.Sticky[timer.Settings]{})
	learnSticky := storage.Get(ctx, s.kv, storage.KeyLearningDefaults, prefs.Sticky[session.LearningSettings]{})

	cfg := session.Config{
		Subject:  subject,
		Mode:     questionModes[s.qtype],
		Timer:    timerSticky.Apply(timer.DefaultSettings()),
		Learning: learnSticky.Apply(session.LearningSettings{}),
	}

	s.mode = modeMenu
	s.notice = ""
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: study.New(s.svc, cfg)}
	}
}

func (s *HomeScreen) View(width, height int) string {
	if s.mode == modeConfigure {
		content := theme.Title.Render("New session") + "\n\n" +
			s.subject.View() + "\n\n" +
			theme.Hint.Render("Question type: ") +
			theme.Selected.Render(string(questionModes[s.qtype])) + "\n" +
			theme.Hint.Render("Tab to change, Enter to start, Esc to cancel")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Studorama") + "\n")
	b.WriteString(theme.Subtitle.Render("Study anything with AI-generated questions") + "\n\n")
	if s.notice != "" {
		b.WriteString(theme.Hint.Render(s.notice) + "\n\n")
	}
	b.WriteString(s.menu.View())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}

func (s *HomeScreen) KeyHints() []layout.KeyHint {
	if s.mode == modeConfigure {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start"},
			{Key: "Tab", Description: "Question type"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return nil
}
