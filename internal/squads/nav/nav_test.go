package nav

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/styles"
)

func sampleTeams() []models.Team {
	return []models.Team{
		{ID: "t1", DisplayName: "Design"},
		{ID: "t2", DisplayName: "devops"},
		{ID: "t3", DisplayName: "Marketing"},
		{ID: "t4", DisplayName: "Data Science", PictureETag: "etag-4"},
	}
}

func TestFilterTeams(t *testing.T) {
	teams := sampleTeams()

	require.Equal(t, teams, FilterTeams(teams, ""))

	got := FilterTeams(teams, "DE")
	require.Len(t, got, 2)
	require.Equal(t, "t1", got[0].ID)
	require.Equal(t, "t2", got[1].ID)

	require.Empty(t, FilterTeams(teams, "sign"))
	require.Equal(t, sampleTeams(), teams)
}

func TestTeamColumnPadding(t *testing.T) {
	layout := styles.DefaultLayout()
	require.Equal(t, 18, TeamColumnPadding(FilterTeams(sampleTeams(), "zzz"), layout))
	require.Zero(t, TeamColumnPadding(sampleTeams(), layout))
}

func TestSortChannels(t *testing.T) {
	team := models.Team{ID: "t1", Channels: []models.Channel{
		{ID: "c1", DisplayName: "Random"},
		{ID: "c2", DisplayName: "Builds"},
		{ID: "t1", DisplayName: "General"},
		{ID: "c3", DisplayName: "Alerts"},
	}}

	sorted := SortChannels(team)
	ids := make([]string, 0, len(sorted))
	for _, ch := range sorted {
		ids = append(ids, ch.ID)
	}
	require.Equal(t, []string{"t1", "c1", "c2", "c3"}, ids)
	require.Equal(t, "c1", team.Channels[0].ID, "input is not reordered")
}

func TestSortChannelsWithoutGeneral(t *testing.T) {
	team := models.Team{ID: "t1", Channels: []models.Channel{{ID: "b"}, {ID: "a"}}}
	require.Equal(t, team.Channels, SortChannels(team))
}

func TestChannelColumnWidth(t *testing.T) {
	require.Equal(t, 220, ChannelColumnWidth(0))
	require.Equal(t, 220, ChannelColumnWidth(13))
	require.Equal(t, 185, ChannelColumnWidth(14))
}

func TestTeamRowsSelectionAndIntents(t *testing.T) {
	rows := TeamRows(sampleTeams(), "d", TeamPage("t4", "c9"))
	require.Len(t, rows, 3)

	require.False(t, rows[0].Selected)
	require.True(t, rows[2].Selected)
	require.Equal(t, "etag-4", rows[2].Image.Identity)
	require.Equal(t, "Design", rows[0].Image.Identity, "no etag falls back to the name")
	require.Equal(t, PrefetchIntent{TeamID: "t1", ChannelID: "t1", Image: rows[0].Image}, rows[0].Hover)
	require.Equal(t, OpenIntent{Page: Page{Kind: PageTeam, TeamID: "t1", ChannelID: "t1"}}, rows[0].Open)

	for _, row := range TeamRows(sampleTeams(), "", Home) {
		require.False(t, row.Selected)
	}
}

func TestChannelRows(t *testing.T) {
	team := models.Team{ID: "t1", DisplayName: "Design", Channels: []models.Channel{
		{ID: "c1", DisplayName: "A very long channel name"},
		{ID: "t1", DisplayName: "General"},
	}}

	rows := ChannelRows(team, TeamPage("t1", "c1"))
	require.Len(t, rows, 2)
	require.True(t, rows[0].General)
	require.False(t, rows[0].Selected)
	require.True(t, rows[1].Selected)
	require.Equal(t, "A very long c...", rows[1].Name)
	require.Equal(t, "c1", rows[1].Hover.ChannelID)

	rows = ChannelRows(team, TeamPage("t1", ""))
	require.True(t, rows[0].Selected, "opening a team selects its general channel")
}

func TestChannelRowsWidthThreshold(t *testing.T) {
	team := models.Team{ID: "t"}
	for i := 0; i < 14; i++ {
		team.Channels = append(team.Channels, models.Channel{ID: fmt.Sprintf("c%d", i)})
	}
	require.Equal(t, 185, ChannelColumnWidth(len(ChannelRows(team, Home))))
	team.Channels = team.Channels[:13]
	require.Equal(t, 220, ChannelColumnWidth(len(ChannelRows(team, Home))))
}

func TestHistory(t *testing.T) {
	var h History
	require.Equal(t, Home, h.Current())
	require.False(t, h.Back())

	h.Open(TeamPage("t1", ""))
	h.Open(TeamPage("t1", "c2"))
	h.Open(TeamPage("t1", "c2"))
	require.Equal(t, TeamPage("t1", "c2"), h.Current())

	require.True(t, h.Back())
	require.Equal(t, TeamPage("t1", "t1"), h.Current())
	require.True(t, h.Back())
	require.Equal(t, Home, h.Current())
	require.False(t, h.Back())

	require.True(t, h.Forward())
	require.Equal(t, TeamPage("t1", "t1"), h.Current())
	require.True(t, h.CanForward())

	h.Open(Home)
	require.False(t, h.CanForward())
	require.True(t, h.Back())
	require.Equal(t, TeamPage("t1", "t1"), h.Current())
}
