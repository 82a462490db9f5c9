// Package data provides the chat service collaborators: teams, profiles,
// the activity stream, reply chains and raw image bytes.
package data

import (
	"context"
	"errors"

	"github.com/tOgg1/squads/internal/models"
)

var (
	// ErrNotFound is returned when the service has no such resource.
	ErrNotFound = errors.New("not found")
	// ErrImageTooLarge rejects a picture body over the size limit rather
	// than caching a truncated copy.
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

// Provider is the chat API surface the client consumes. Every call may
// block on the network and may fail.
type Provider interface {
	// Teams lists the joined teams with their channels.
	Teams(ctx context.Context) ([]models.Team, error)
	// Profile resolves one author.
	Profile(ctx context.Context, id string) (models.Profile, error)
	// Profiles lists every known profile.
	Profiles(ctx context.Context) ([]models.Profile, error)
	// Activities returns the activity feed, oldest first.
	Activities(ctx context.Context) ([]models.Message, error)
	// ReplyChain returns the messages of the conversation identified by
	// thread and grouping id, oldest first.
	ReplyChain(ctx context.Context, threadID, groupingID string) ([]models.Message, error)
	// TeamConversations returns the reply chains of one channel.
	TeamConversations(ctx context.Context, teamID, channelID string) (models.TeamConversations, error)
	// FetchImage returns the bytes of a team picture.
	FetchImage(ctx context.Context, req models.ImageRequest) ([]byte, error)
}

// ProfileIndex maps profile id to profile.
func ProfileIndex(profiles []models.Profile) map[string]models.Profile {
	out := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		if p.ID == "" {
			continue
		}
		out[p.ID] = p
	}
	return out
}
