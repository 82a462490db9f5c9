// Package nav derives the team and channel lists of the side column.
//
// Everything here is recomputed from current state on each render; nothing
// is cached between calls.
package nav

import (
	"sort"
	"strings"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/rescache"
	"github.com/tOgg1/squads/internal/squads/styles"
)

// Channel column widths. The narrower width leaves room for a scrollbar
// once the list no longer fits.
const (
	channelDenseThreshold = 13
	ChannelWidthSparse    = 220
	ChannelWidthDense     = 185
)

// PageKind selects the page being shown.
type PageKind int

const (
	PageHome PageKind = iota
	PageTeam
)

// Page is a navigation target.
type Page struct {
	Kind      PageKind
	TeamID    string
	ChannelID string
}

// Home is the activity feed page.
var Home = Page{Kind: PageHome}

// TeamPage returns the page of channelID in teamID. An empty channel opens
// the general channel.
func TeamPage(teamID, channelID string) Page {
	if channelID == "" {
		channelID = teamID
	}
	return Page{Kind: PageTeam, TeamID: teamID, ChannelID: channelID}
}

// PrefetchIntent is emitted when a team or channel row is hovered. It is
// advisory; nothing waits on it.
type PrefetchIntent struct {
	TeamID    string
	ChannelID string
	Image     models.ImageRequest
}

// OpenIntent is emitted when a row is activated.
type OpenIntent struct {
	Page Page
}

// FilterTeams returns the teams whose display name starts with query,
// ignoring case. An empty query matches every team. teams is not modified.
func FilterTeams(teams []models.Team, query string) []models.Team {
	query = strings.ToLower(query)
	out := make([]models.Team, 0, len(teams))
	for _, team := range teams {
		if strings.HasPrefix(strings.ToLower(team.DisplayName), query) {
			out = append(out, team)
		}
	}
	return out
}

// TeamColumnPadding is the right padding the team column reserves so it
// keeps its width when the filter leaves no rows and no scrollbar.
func TeamColumnPadding(filtered []models.Team, layout styles.Layout) int {
	if len(filtered) > 0 {
		return 0
	}
	return layout.ScrollbarGutter()
}

// SortChannels returns team's channels with the general channel first and
// the rest in their original order.
func SortChannels(team models.Team) []models.Channel {
	out := append([]models.Channel(nil), team.Channels...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsGeneral(team) && !out[j].IsGeneral(team)
	})
	return out
}

// ChannelColumnWidth returns the channel list width for count channels.
func ChannelColumnWidth(count int) int {
	if count <= channelDenseThreshold {
		return ChannelWidthSparse
	}
	return ChannelWidthDense
}

// PictureRequest addresses team's picture in the resource cache. Teams
// without a picture ETag fall back to their display name.
func PictureRequest(team models.Team) models.ImageRequest {
	return models.ImageRequest{
		Identity:    rescache.IdentityFor(team.PictureETag, team.DisplayName),
		ETag:        team.PictureETag,
		GroupID:     team.TeamSiteInformation.GroupID,
		DisplayName: team.DisplayName,
	}
}

// TeamRow is one row of the team list.
type TeamRow struct {
	TeamID   string
	Name     string
	Image    models.ImageRequest
	Selected bool
	Hover    PrefetchIntent
	Open     OpenIntent
}

// TeamRows builds the filtered team list for the page currently open.
func TeamRows(teams []models.Team, query string, open Page) []TeamRow {
	filtered := FilterTeams(teams, query)
	rows := make([]TeamRow, 0, len(filtered))
	for _, team := range filtered {
		image := PictureRequest(team)
		rows = append(rows, TeamRow{
			TeamID:   team.ID,
			Name:     styles.TruncateName(team.DisplayName, styles.NameWidth),
			Image:    image,
			Selected: open.Kind == PageTeam && open.TeamID == team.ID,
			Hover:    PrefetchIntent{TeamID: team.ID, ChannelID: team.ID, Image: image},
			Open:     OpenIntent{Page: TeamPage(team.ID, team.ID)},
		})
	}
	return rows
}

// ChannelRow is one row of a team's channel list.
type ChannelRow struct {
	ChannelID string
	Name      string
	General   bool
	Selected  bool
	Hover     PrefetchIntent
	Open      OpenIntent
}

// ChannelRows builds the ordered channel list of team.
func ChannelRows(team models.Team, open Page) []ChannelRow {
	channels := SortChannels(team)
	image := PictureRequest(team)
	rows := make([]ChannelRow, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, ChannelRow{
			ChannelID: ch.ID,
			Name:      styles.TruncateName(ch.DisplayName, styles.NameWidth),
			General:   ch.IsGeneral(team),
			Selected:  open.Kind == PageTeam && open.TeamID == team.ID && open.ChannelID == ch.ID,
			Hover:     PrefetchIntent{TeamID: team.ID, ChannelID: ch.ID, Image: image},
			Open:      OpenIntent{Page: TeamPage(team.ID, ch.ID)},
		})
	}
	return rows
}

// FindTeam returns the team with id.
func FindTeam(teams []models.Team, id string) (models.Team, bool) {
	for _, team := range teams {
		if team.ID == id {
			return team, true
		}
	}
	return models.Team{}, false
}

// FindChannel returns the channel with id in team.
func FindChannel(team models.Team, id string) (models.Channel, bool) {
	for _, ch := range team.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return models.Channel{}, false
}
