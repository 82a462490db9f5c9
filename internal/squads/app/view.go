package app

import (
	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/feed"
	"github.com/tOgg1/squads/internal/squads/nav"
	"github.com/tOgg1/squads/internal/squads/rescache"
	"github.com/tOgg1/squads/internal/squads/styles"
)

// LoadState is how far a page's data has come.
type LoadState int

const (
	Loading LoadState = iota
	LoadFailed
	Loaded
)

// ViewModel is everything a renderer needs for one frame. It is rebuilt
// on every call to View and shares nothing mutable with the Model.
type ViewModel struct {
	Page       nav.Page
	CanBack    bool
	CanForward bool
	Status     string
	Home       *HomePage
	Team       *TeamPage
}

// HomePage is the team list next to the activity feed.
type HomePage struct {
	Search string
	Teams  []TeamTile
	// TeamColumnPadding keeps the team column width when no team matches.
	TeamColumnPadding int
	Feed              []feed.Entry
	Skipped           int
}

// TeamTile is a team row with its picture. Retry refetches a failed
// picture.
type TeamTile struct {
	nav.TeamRow
	Picture rescache.Resolution
	Retry   FetchImageMsg
}

// TeamPage is an open channel.
type TeamPage struct {
	TeamID        string
	TeamName      string
	ChannelName   string
	Picture       rescache.Resolution
	PictureIntent FetchImageMsg
	Channels      []nav.ChannelRow
	ChannelWidth  int
	State         LoadState
	Conversations []feed.ConversationView
}

// View assembles the view model for the current page.
func (m *Model) View() ViewModel {
	page := m.history.Current()
	vm := ViewModel{
		Page:       page,
		CanBack:    m.history.CanBack(),
		CanForward: m.history.CanForward(),
		Status:     m.status,
	}
	if page.Kind == nav.PageTeam {
		vm.Team = m.teamPage(page)
		return vm
	}
	vm.Home = m.homePage(page)
	return vm
}

func (m *Model) renderOptions() feed.RenderOptions {
	return feed.RenderOptions{Emoji: m.emoji, Profiles: m.profiles, Now: m.now()}
}

func (m *Model) homePage(page nav.Page) *HomePage {
	rows := nav.TeamRows(m.teams, m.search, page)
	tiles := make([]TeamTile, 0, len(rows))
	for _, row := range rows {
		tiles = append(tiles, TeamTile{
			TeamRow: row,
			Picture: m.lookup(row.Image.Identity),
			Retry:   FetchImageMsg{Request: row.Image},
		})
	}
	padding := nav.TeamColumnPadding(nav.FilterTeams(m.teams, m.search), m.layout)

	result := feed.Assemble(m.activities, m.expansions, feed.Options{
		RenderOptions: m.renderOptions(),
		PreviewWidth:  m.previewWidth,
	})
	return &HomePage{
		Search:            m.search,
		Teams:             tiles,
		TeamColumnPadding: padding,
		Feed:              result.Entries,
		Skipped:           len(result.Skipped),
	}
}

func (m *Model) teamPage(page nav.Page) *TeamPage {
	team, ok := nav.FindTeam(m.teams, page.TeamID)
	if !ok {
		team = models.Team{ID: page.TeamID, DisplayName: page.TeamID}
	}
	channel, ok := nav.FindChannel(team, page.ChannelID)
	if !ok {
		channel = models.Channel{ID: page.ChannelID, DisplayName: "General"}
	}
	picture := nav.PictureRequest(team)
	channels := nav.ChannelRows(team, page)

	tp := &TeamPage{
		TeamID:        team.ID,
		TeamName:      styles.TruncateName(team.DisplayName, styles.NameWidth),
		ChannelName:   styles.TruncateName(channel.DisplayName, styles.NameWidth),
		Picture:       m.lookup(picture.Identity),
		PictureIntent: FetchImageMsg{Request: picture},
		Channels:      channels,
		ChannelWidth:  nav.ChannelColumnWidth(len(channels)),
	}

	entry, ok := m.channels[channelKey{TeamID: page.TeamID, ChannelID: page.ChannelID}]
	switch {
	case !ok || entry.state == loadPending:
		tp.State = Loading
		return tp
	case entry.state == loadFailed:
		tp.State = LoadFailed
		return tp
	}
	tp.State = Loaded

	opts := m.renderOptions()
	chains := entry.convs.ReplyChains
	for i := len(chains) - 1; i >= 0; i-- {
		conv := chains[i]
		msgs := make([]models.Message, 0, len(conv.Messages))
		for j := len(conv.Messages) - 1; j >= 0; j-- {
			msgs = append(msgs, conv.Messages[j])
		}
		view, ok := feed.RenderConversation(conv.ID, msgs, m.session.ShowReplies(conv.ID), opts)
		if !ok {
			continue
		}
		tp.Conversations = append(tp.Conversations, view)
	}
	return tp
}

func (m *Model) lookup(identity string) rescache.Resolution {
	if m.cache == nil {
		return rescache.Resolution{Identity: identity, State: rescache.Absent}
	}
	return m.cache.Lookup(identity)
}
