// Package app wires the root Bubble Tea model: theming, routing, and the
// shared header/footer frame.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studorama/studorama/internal/router"
	"github.com/studorama/studorama/internal/screen"
	"github.com/studorama/studorama/internal/screens/home"
	"github.com/studorama/studorama/internal/screens/study"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/storage"
	"github.com/studorama/studorama/internal/ui/layout"
	"github.com/studorama/studorama/internal/ui/theme"
)

// Options carries the dependencies the TUI needs.
type Options struct {
	Service *session.Service
	KV      *storage.KV

	// Notice is a one-time message shown on the home screen, e.g. after a
	// version migration.
	Notice string

	// Theme is the persisted palette id.
	Theme string

	// StartConfig, when set, opens straight into a new study session
	// instead of the home menu.
	StartConfig *session.Config
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	initCmd tea.Cmd
	width   int
	height  int
}

func newAppModel(opts Options) AppModel {
	theme.Apply(opts.Theme)
	homeScreen := home.New(opts.Service, opts.KV, opts.Notice)
	r := router.New(homeScreen)
	m := AppModel{router: r}
	if opts.StartConfig != nil {
		m.initCmd = r.Push(study.New(opts.Service, *opts.StartConfig))
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	return m.initCmd
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, "", m.width)

	var footerHints []layout.KeyHint
	if provider, ok := active.(screen.KeyHintProvider); ok {
		footerHints = provider.KeyHints()
	}
	if footerHints == nil {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
