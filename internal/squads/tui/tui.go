// Package tui is the terminal front end: it turns key presses into intents
// for app.Model and draws its view model with lipgloss.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/squads/internal/squads/app"
	"github.com/tOgg1/squads/internal/squads/styles"
)

// Focus is the column receiving cursor keys.
type Focus int

const (
	FocusList Focus = iota
	FocusContent
)

// UI is the terminal-only state: sizes, focus and cursors.
type UI struct {
	Width         int
	Height        int
	Focus         Focus
	ListCursor    int
	ContentCursor int
	Searching     bool
}

// Model adapts app.Model to tea.Model.
type Model struct {
	app   *app.Model
	style styles.Style
	ui    UI
}

// New wraps m for a tea.Program.
func New(m *app.Model, style styles.Style) *Model {
	return &Model{app: m, style: style}
}

// Run shows the client until the user quits.
func Run(m *app.Model, style styles.Style) error {
	program := tea.NewProgram(New(m, style), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.app.Init()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ui.Width = msg.Width
		m.ui.Height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, m.app.Update(msg)
}

func (m *Model) View() string {
	return Render(m.app.View(), m.style, m.ui)
}

// dispatch feeds intents to the app one at a time, collecting their work.
func (m *Model) dispatch(intents ...tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(intents))
	for _, intent := range intents {
		if intent == nil {
			continue
		}
		cmds = append(cmds, m.app.Update(intent))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	vm := m.app.View()
	if m.ui.Searching {
		return m.handleSearchKey(msg, vm)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "/":
		if vm.Home != nil {
			m.ui.Searching = true
			m.ui.Focus = FocusList
		}
		return nil
	case "tab":
		if m.ui.Focus == FocusList {
			m.ui.Focus = FocusContent
		} else {
			m.ui.Focus = FocusList
		}
		return nil
	case "up", "k":
		return m.moveCursor(vm, -1)
	case "down", "j":
		return m.moveCursor(vm, 1)
	case "enter", " ":
		return m.activate(vm)
	case "left", "h", "backspace":
		m.resetCursors()
		return m.dispatch(app.HistoryBackMsg{})
	case "right", "l":
		m.resetCursors()
		return m.dispatch(app.HistoryForwardMsg{})
	case "H", "home":
		m.resetCursors()
		return m.dispatch(app.OpenHomeMsg{})
	case "r":
		return m.dispatch(app.RefreshMsg{})
	case "i":
		switch {
		case vm.Team != nil:
			return m.dispatch(vm.Team.PictureIntent)
		case vm.Home != nil && m.ui.ListCursor < len(vm.Home.Teams):
			return m.dispatch(vm.Home.Teams[m.ui.ListCursor].Retry)
		}
	}
	return nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg, vm app.ViewModel) tea.Cmd {
	search := ""
	if vm.Home != nil {
		search = vm.Home.Search
	}
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.ui.Searching = false
		return nil
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyBackspace:
		r := []rune(search)
		if len(r) == 0 {
			return nil
		}
		m.ui.ListCursor = 0
		return m.dispatch(app.SearchChangedMsg{Text: string(r[:len(r)-1])})
	case tea.KeySpace:
		m.ui.ListCursor = 0
		return m.dispatch(app.SearchChangedMsg{Text: search + " "})
	case tea.KeyRunes:
		m.ui.ListCursor = 0
		return m.dispatch(app.SearchChangedMsg{Text: search + string(msg.Runes)})
	}
	return nil
}

func (m *Model) resetCursors() {
	m.ui.ListCursor = 0
	m.ui.ContentCursor = 0
}

// moveCursor moves within the focused column. Landing on a list row is a
// hover: it prefetches that row's team or channel.
func (m *Model) moveCursor(vm app.ViewModel, delta int) tea.Cmd {
	if m.ui.Focus == FocusContent {
		m.ui.ContentCursor = clamp(m.ui.ContentCursor+delta, contentLen(vm))
		return nil
	}
	m.ui.ListCursor = clamp(m.ui.ListCursor+delta, listLen(vm))
	switch {
	case vm.Home != nil && len(vm.Home.Teams) > 0:
		return m.dispatch(vm.Home.Teams[m.ui.ListCursor].Hover)
	case vm.Team != nil && len(vm.Team.Channels) > 0:
		return m.dispatch(vm.Team.Channels[m.ui.ListCursor].Hover)
	}
	return nil
}

func (m *Model) activate(vm app.ViewModel) tea.Cmd {
	if m.ui.Focus == FocusList {
		switch {
		case vm.Home != nil && m.ui.ListCursor < len(vm.Home.Teams):
			open := vm.Home.Teams[m.ui.ListCursor].Open
			m.resetCursors()
			return m.dispatch(open)
		case vm.Team != nil && m.ui.ListCursor < len(vm.Team.Channels):
			open := vm.Team.Channels[m.ui.ListCursor].Open
			m.ui.ContentCursor = 0
			return m.dispatch(open)
		}
		return nil
	}
	switch {
	case vm.Home != nil && m.ui.ContentCursor < len(vm.Home.Feed):
		return m.dispatch(vm.Home.Feed[m.ui.ContentCursor].Intent)
	case vm.Team != nil && m.ui.ContentCursor < len(vm.Team.Conversations):
		return m.dispatch(app.ToggleRepliesMsg{ConversationID: vm.Team.Conversations[m.ui.ContentCursor].ID})
	}
	return nil
}

func listLen(vm app.ViewModel) int {
	switch {
	case vm.Home != nil:
		return len(vm.Home.Teams)
	case vm.Team != nil:
		return len(vm.Team.Channels)
	}
	return 0
}

func contentLen(vm app.ViewModel) int {
	switch {
	case vm.Home != nil:
		return len(vm.Home.Feed)
	case vm.Team != nil:
		return len(vm.Team.Conversations)
	}
	return 0
}

func clamp(v, n int) int {
	if n <= 0 || v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
