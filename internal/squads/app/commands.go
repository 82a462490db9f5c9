package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/data"
	"github.com/tOgg1/squads/internal/squads/expansion"
	"github.com/tOgg1/squads/internal/squads/rescache"
)

const (
	defaultFetchTimeout = 30 * time.Second
	snapshotTimeout     = 5 * time.Second
)

// SnapshotStore persists the last loaded teams and profiles.
type SnapshotStore interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	SaveTeams(ctx context.Context, teams []models.Team) error
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	SaveProfiles(ctx context.Context, profiles []models.Profile) error
}

func loadTeamsCmd(p data.Provider, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		teams, err := p.Teams(ctx)
		return TeamsLoadedMsg{Teams: teams, Err: err}
	}
}

func loadProfilesCmd(p data.Provider, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		profiles, err := p.Profiles(ctx)
		return ProfilesLoadedMsg{Profiles: profiles, Err: err}
	}
}

func loadProfileCmd(p data.Provider, id string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		profile, err := p.Profile(ctx, id)
		return ProfileLoadedMsg{ID: id, Profile: profile, Err: err}
	}
}

func loadActivitiesCmd(p data.Provider, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		activities, err := p.Activities(ctx)
		return ActivitiesLoadedMsg{Activities: activities, Err: err}
	}
}

func fetchReplyChainCmd(p data.Provider, key expansion.Key, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msgs, err := p.ReplyChain(ctx, key.ThreadID, key.GroupingID)
		return ConversationFetchedMsg{Key: key, Messages: msgs, Err: err}
	}
}

func fetchTeamConversationsCmd(p data.Provider, key channelKey, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		convs, err := p.TeamConversations(ctx, key.TeamID, key.ChannelID)
		return TeamConversationsFetchedMsg{TeamID: key.TeamID, ChannelID: key.ChannelID, Conversations: convs, Err: err}
	}
}

// listenCompletionsCmd waits for the next image fetch result. Update
// re-arms it after applying each one.
func listenCompletionsCmd(cache *rescache.Cache) tea.Cmd {
	if cache == nil {
		return nil
	}
	return func() tea.Msg {
		comp, ok := <-cache.Completions()
		if !ok {
			return nil
		}
		return ImageCompletedMsg{Completion: comp}
	}
}

func loadSnapshotCmd(store SnapshotStore) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		teams, err := store.ListTeams(ctx)
		if err != nil {
			return SnapshotLoadedMsg{Err: err}
		}
		profiles, err := store.ListProfiles(ctx)
		return SnapshotLoadedMsg{Teams: teams, Profiles: profiles, Err: err}
	}
}

func saveTeamsCmd(store SnapshotStore, teams []models.Team) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		return SnapshotSavedMsg{Err: store.SaveTeams(ctx, teams)}
	}
}

func saveProfilesCmd(store SnapshotStore, profiles []models.Profile) tea.Cmd {
	if store == nil || len(profiles) == 0 {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		return SnapshotSavedMsg{Err: store.SaveProfiles(ctx, profiles)}
	}
}
