package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tOgg1/squads/internal/models"
)

// Fixture file names inside a FileProvider root.
const (
	teamsFile             = "teams.json"
	profilesFile          = "profiles.json"
	activitiesFile        = "activities.json"
	replyChainsFile       = "replychains.json"
	teamConversationsFile = "teamconversations.json"
	imagesDir             = "images"
)

// FileProvider serves fixtures from a directory. It backs offline use and
// tests; files are re-read on every call.
//
//	teams.json              []Team
//	profiles.json           []Profile
//	activities.json         []Message, oldest first
//	replychains.json        {"<thread>/<grouping>": []Message}
//	teamconversations.json  {"<team>/<channel>": TeamConversations}
//	images/<identity>.jpeg  picture bytes
type FileProvider struct {
	root string
}

// NewFileProvider returns a provider reading from root.
func NewFileProvider(root string) *FileProvider {
	return &FileProvider{root: root}
}

func (p *FileProvider) Teams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := p.readJSON(teamsFile, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (p *FileProvider) Profiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := p.readJSON(profilesFile, &profiles); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profiles, nil
}

func (p *FileProvider) Profile(ctx context.Context, id string) (models.Profile, error) {
	profiles, err := p.Profiles(ctx)
	if err != nil {
		return models.Profile{}, err
	}
	for _, profile := range profiles {
		if profile.ID == id {
			return profile, nil
		}
	}
	return models.Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
}

func (p *FileProvider) Activities(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	if err := p.readJSON(activitiesFile, &messages); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return messages, nil
}

func (p *FileProvider) ReplyChain(ctx context.Context, threadID, groupingID string) ([]models.Message, error) {
	var chains map[string][]models.Message
	if err := p.readJSON(replyChainsFile, &chains); err != nil {
		return nil, err
	}
	messages, ok := chains[threadID+"/"+groupingID]
	if !ok {
		return nil, fmt.Errorf("reply chain %s/%s: %w", threadID, groupingID, ErrNotFound)
	}
	return messages, nil
}

func (p *FileProvider) TeamConversations(ctx context.Context, teamID, channelID string) (models.TeamConversations, error) {
	var all map[string]models.TeamConversations
	if err := p.readJSON(teamConversationsFile, &all); err != nil {
		return models.TeamConversations{}, err
	}
	convs, ok := all[teamID+"/"+channelID]
	if !ok {
		return models.TeamConversations{}, fmt.Errorf("conversations %s/%s: %w", teamID, channelID, ErrNotFound)
	}
	return convs, nil
}

func (p *FileProvider) FetchImage(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := filepath.Base(strings.TrimSpace(req.Identity))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("image: %w", ErrNotFound)
	}
	payload, err := os.ReadFile(filepath.Join(p.root, imagesDir, name+".jpeg"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("image %s: %w", req.Identity, ErrNotFound)
		}
		return nil, fmt.Errorf("read image %s: %w", req.Identity, err)
	}
	return payload, nil
}

func (p *FileProvider) readJSON(name string, out any) error {
	payload, err := os.ReadFile(filepath.Join(p.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}
