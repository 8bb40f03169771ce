// Package ui renders the tool panel in the terminal.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	toolpanel "github.com/koscakluka/ema-toolpanel/core"
	"github.com/muesli/reflow/wordwrap"
)

const (
	panelTitle   = "Song Recommendation Tool"
	defaultWidth = 80
)

// Panel is the part of the tool panel the view drives.
type Panel interface {
	Snapshot() toolpanel.View
	Toggle(ctx context.Context) error
}

// Session starts and stops the remote session. It may be nil.
type Session interface {
	StartSession(ctx context.Context) error
	StopSession() error
	IsSessionActive() bool
}

// RefreshMsg asks the model to re-read the panel state.
type RefreshMsg struct{}

type sessionResultMsg struct{ err error }

type Model struct {
	ctx     context.Context
	panel   Panel
	session Session
	updates <-chan struct{}

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	view     toolpanel.View
	width    int
	starting bool
	err      error
}

// NewModel builds the view. A receive on updates triggers a refresh; the
// channel may be nil.
func NewModel(ctx context.Context, panel Panel, session Session, updates <-chan struct{}) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		panel:   panel,
		session: session,
		updates: updates,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: s,
		view:    panel.Snapshot(),
		width:   defaultWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

func waitForUpdate(updates <-chan struct{}) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return RefreshMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case RefreshMsg:
		m.view = m.panel.Snapshot()
		return m, waitForUpdate(m.updates)

	case sessionResultMsg:
		m.starting = false
		m.err = msg.err
		m.view = m.panel.Snapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			if m.view.Result == nil {
				return m, nil
			}
			m.err = nil
			// Playback failures are shown through the playback state.
			_ = m.panel.Toggle(m.ctx)
			m.view = m.panel.Snapshot()
			return m, nil
		case key.Matches(msg, m.keys.Session):
			return m.toggleSession()
		}
	}

	return m, nil
}

func (m Model) toggleSession() (tea.Model, tea.Cmd) {
	if m.session == nil || m.starting {
		return m, nil
	}

	session, ctx := m.session, m.ctx
	if session.IsSessionActive() {
		return m, func() tea.Msg { return sessionResultMsg{err: session.StopSession()} }
	}

	m.starting = true
	m.err = nil
	return m, func() tea.Msg { return sessionResultMsg{err: session.StartSession(ctx)} }
}

func (m Model) View() string {
	width := max(m.width-6, 20)

	var b strings.Builder
	b.WriteString(titleStyle.Render(panelTitle))
	b.WriteString("\n\n")

	switch m.view.Display {
	case toolpanel.DisplayResult:
		b.WriteString(m.resultView(width))
	default:
		b.WriteString(m.view.Display.String())
	}

	body := panelStyle.Width(width + 4).Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusView(), m.help.View(m.keys))
}

func (m Model) resultView(width int) string {
	result := m.view.Result
	state := m.view.Playback

	lines := []string{
		headingStyle.Render(toolpanel.DisplayResult.String()),
		labelStyle.Render("Title:") + " " + result.Song.Title,
		labelStyle.Render("Artist:") + " " + result.Song.Artist,
		labelStyle.Render("Genre:") + " " + result.Song.Genre,
	}
	if state.LastError != "" {
		lines = append(lines, "", errorStyle.Render(state.LastError))
	}

	button := "Play"
	if state.IsPlaying {
		button = "Pause"
	}
	lines = append(lines, "", buttonStyle.Render(button))

	card := cardStyle.Width(width).Render(strings.Join(lines, "\n"))
	raw := rawStyle.Render(wordwrap.String(result.JSON(), width))
	return card + "\n\n" + raw
}

func (m Model) statusView() string {
	switch {
	case m.starting:
		return m.spinner.View() + " Starting session..."
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("Session error: %v", m.err))
	case m.view.SessionActive:
		return hintStyle.Render("Session active")
	default:
		return hintStyle.Render("Session inactive")
	}
}
