package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/squads/internal/squads/app"
	"github.com/tOgg1/squads/internal/squads/feed"
	"github.com/tOgg1/squads/internal/squads/rescache"
	"github.com/tOgg1/squads/internal/squads/styles"
)

// Render draws one frame. It is a pure function of its arguments.
func Render(vm app.ViewModel, style styles.Style, ui UI) string {
	var body string
	switch {
	case vm.Team != nil:
		body = renderTeam(vm.Team, style, ui)
	case vm.Home != nil:
		body = renderHome(vm.Home, style, ui)
	}
	parts := []string{renderNavbar(vm, style, ui), body}
	if vm.Status != "" {
		parts = append(parts, style.Error().Render(vm.Status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderNavbar(vm app.ViewModel, style styles.Style, ui UI) string {
	back, forward := "‹", "›"
	if !vm.CanBack {
		back = " "
	}
	if !vm.CanForward {
		forward = " "
	}
	title := "Activity"
	if vm.Team != nil {
		title = vm.Team.TeamName + " / " + vm.Team.ChannelName
	}
	bar := fmt.Sprintf("%s %s  %s", back, forward, title)
	st := style.Navbar()
	if ui.Width > 0 {
		st = st.Width(ui.Width)
	}
	return st.Render(bar)
}

func renderHome(home *app.HomePage, style styles.Style, ui UI) string {
	layout := style.Layout
	listWidth := styles.Cells(layout.ListWidth)

	search := home.Search
	if ui.Searching {
		search += "▏"
	}
	if search == "" {
		search = style.Muted().Render("Search teams...")
	}
	rows := []string{style.Base().Render("/ " + search), ""}
	for i, tile := range home.Teams {
		line := pictureMark(tile.Picture) + " " + tile.Name
		st := style.ListTab(tile.Selected || (ui.Focus == FocusList && i == ui.ListCursor))
		rows = append(rows, st.Width(listWidth).Render(line))
	}
	column := lipgloss.NewStyle()
	if home.TeamColumnPadding > 0 {
		column = column.PaddingRight(styles.Cells(home.TeamColumnPadding))
	}
	teams := column.Render(strings.Join(rows, "\n"))

	var entries []string
	for i, entry := range home.Feed {
		entries = append(entries, renderEntry(entry, style, ui.Focus == FocusContent && i == ui.ContentCursor))
	}
	if home.Skipped > 0 {
		entries = append(entries, style.Muted().Render(fmt.Sprintf("%d malformed item(s) hidden", home.Skipped)))
	}
	if len(entries) == 0 {
		entries = append(entries, style.Muted().Render("No activity."))
	}
	feedWidth := 0
	if ui.Width > 0 {
		feedWidth = ui.Width - listWidth - styles.Cells(layout.PageRowSpacing) - 4
	}
	feedPanel := styles.PanelStyle(style, ui.Focus == FocusContent)
	if feedWidth > 0 {
		feedPanel = feedPanel.Width(feedWidth)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, teams, " ", feedPanel.Render(strings.Join(entries, "\n\n")))
}

func renderEntry(entry feed.Entry, style styles.Style, focused bool) string {
	marker := "  "
	if focused {
		marker = style.Accent().Render("▸ ")
	}
	switch entry.Kind {
	case feed.EntryFailed:
		return marker + style.Error().Render(feed.FailedText)
	case feed.EntryConversation:
		return marker + renderConversation(entry.Conversation, style)
	default:
		p := entry.Preview
		head := style.Accent().Render(p.Author) + " " + style.Muted().Render(p.Relative)
		return marker + head + "\n  " + p.Text
	}
}

func renderConversation(conv feed.ConversationView, style styles.Style) string {
	root := conv.Root()
	lines := []string{
		style.Accent().Render(root.Author) + " " + style.Muted().Render(root.Relative),
		"  " + root.Text,
	}
	for _, reply := range conv.Replies() {
		lines = append(lines, "    "+style.Accent().Render(reply.Author)+" "+style.Muted().Render(reply.Relative), "      "+reply.Text)
	}
	if n := conv.ReplyCount(); n > 0 && !conv.ShowReplies {
		lines = append(lines, style.Muted().Render(fmt.Sprintf("  %d repl%s", n, plural(n, "y", "ies"))))
	}
	return strings.Join(lines, "\n")
}

func renderTeam(team *app.TeamPage, style styles.Style, ui UI) string {
	width := styles.Cells(team.ChannelWidth)
	header := pictureMark(team.Picture) + " " + style.Accent().Render(team.TeamName) + "\n  " + team.ChannelName

	rows := []string{header, ""}
	for i, ch := range team.Channels {
		st := style.ListTab(ch.Selected || (ui.Focus == FocusList && i == ui.ListCursor))
		rows = append(rows, st.Width(width).Render(ch.Name))
	}

	var body string
	switch team.State {
	case app.Loading:
		body = style.Muted().Render("Loading conversations...")
	case app.LoadFailed:
		body = style.Error().Render("Failed to load conversations.")
	default:
		convs := make([]string, 0, len(team.Conversations))
		for i, conv := range team.Conversations {
			marker := "  "
			if ui.Focus == FocusContent && i == ui.ContentCursor {
				marker = style.Accent().Render("▸ ")
			}
			convs = append(convs, marker+renderConversation(conv, style))
		}
		if len(convs) == 0 {
			convs = append(convs, style.Muted().Render("No conversations."))
		}
		body = strings.Join(convs, "\n\n")
	}
	panel := styles.PanelStyle(style, ui.Focus == FocusContent)
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(rows, "\n"), " ", panel.Render(body))
}

func pictureMark(res rescache.Resolution) string {
	switch res.State {
	case rescache.Resident:
		return "[■]"
	case rescache.Pending:
		return "[…]"
	case rescache.Failed:
		return "[x]"
	default:
		return "[ ]"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
