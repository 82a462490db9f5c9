package app

import (
	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/expansion"
	"github.com/tOgg1/squads/internal/squads/rescache"
)

// Intents besides the ones feed and nav rows carry (feed.ExpandIntent,
// feed.CollapseIntent, nav.PrefetchIntent, nav.OpenIntent).
type (
	// OpenHomeMsg opens the activity feed.
	OpenHomeMsg struct{}
	// HistoryBackMsg steps back in navigation history.
	HistoryBackMsg struct{}
	// HistoryForwardMsg steps forward in navigation history.
	HistoryForwardMsg struct{}
	// SearchChangedMsg carries the new team search text.
	SearchChangedMsg struct{ Text string }
	// ToggleRepliesMsg flips reply visibility of a team-page conversation.
	ToggleRepliesMsg struct{ ConversationID string }
	// FetchImageMsg explicitly (re)fetches an image, retrying failures.
	FetchImageMsg struct{ Request models.ImageRequest }
	// RefreshMsg reloads teams, profiles and the activity feed.
	RefreshMsg struct{}
)

// Results of background work. Err is set instead of the payload on failure.
type (
	TeamsLoadedMsg struct {
		Teams []models.Team
		Err   error
	}
	ProfilesLoadedMsg struct {
		Profiles []models.Profile
		Err      error
	}
	ProfileLoadedMsg struct {
		ID      string
		Profile models.Profile
		Err     error
	}
	ActivitiesLoadedMsg struct {
		Activities []models.Message
		Err        error
	}
	ConversationFetchedMsg struct {
		Key      expansion.Key
		Messages []models.Message
		Err      error
	}
	TeamConversationsFetchedMsg struct {
		TeamID        string
		ChannelID     string
		Conversations models.TeamConversations
		Err           error
	}
	ImageCompletedMsg struct {
		Completion rescache.Completion
	}
	SnapshotLoadedMsg struct {
		Teams    []models.Team
		Profiles []models.Profile
		Err      error
	}
	SnapshotSavedMsg struct {
		Err error
	}
)
