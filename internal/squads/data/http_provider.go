package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tOgg1/squads/internal/logging"
	"github.com/tOgg1/squads/internal/models"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxImageBytes      = 8 << 20
)

// HTTPProvider talks to the chat service over its JSON API.
type HTTPProvider struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger

	profiles singleflight.Group
}

// NewHTTPProvider returns a provider for baseURL authenticating with token.
func NewHTTPProvider(baseURL, token string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPProvider{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
		logger:  logging.Component("data"),
	}
}

type teamsResponse struct {
	Teams []models.Team `json:"teams"`
}

type messagesResponse struct {
	Messages []models.Message `json:"messages"`
}

type profilesResponse struct {
	Profiles []models.Profile `json:"profiles"`
}

func (p *HTTPProvider) Teams(ctx context.Context) ([]models.Team, error) {
	var resp teamsResponse
	if err := p.getJSON(ctx, "/teams", &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// Profile collapses concurrent lookups of the same id into one request.
func (p *HTTPProvider) Profile(ctx context.Context, id string) (models.Profile, error) {
	v, err, _ := p.profiles.Do(id, func() (any, error) {
		var profile models.Profile
		if err := p.getJSON(ctx, "/profiles/"+url.PathEscape(id), &profile); err != nil {
			return models.Profile{}, err
		}
		return profile, nil
	})
	if err != nil {
		return models.Profile{}, err
	}
	return v.(models.Profile), nil
}

func (p *HTTPProvider) Profiles(ctx context.Context) ([]models.Profile, error) {
	var resp profilesResponse
	if err := p.getJSON(ctx, "/profiles", &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

func (p *HTTPProvider) Activities(ctx context.Context) ([]models.Message, error) {
	var resp messagesResponse
	if err := p.getJSON(ctx, "/activities", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (p *HTTPProvider) ReplyChain(ctx context.Context, threadID, groupingID string) ([]models.Message, error) {
	path := fmt.Sprintf("/threads/%s/chains/%s/messages", url.PathEscape(threadID), url.PathEscape(groupingID))
	var resp messagesResponse
	if err := p.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (p *HTTPProvider) TeamConversations(ctx context.Context, teamID, channelID string) (models.TeamConversations, error) {
	path := fmt.Sprintf("/teams/%s/channels/%s/conversations", url.PathEscape(teamID), url.PathEscape(channelID))
	var resp models.TeamConversations
	if err := p.getJSON(ctx, path, &resp); err != nil {
		return models.TeamConversations{}, err
	}
	return resp, nil
}

func (p *HTTPProvider) FetchImage(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	q := url.Values{}
	if req.ETag != "" {
		q.Set("etag", req.ETag)
	}
	q.Set("displayName", req.DisplayName)
	path := "/groups/" + url.PathEscape(req.GroupID) + "/picture?" + q.Encode()

	resp, err := p.get(ctx, path, "image/*")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", req.Identity, err)
	}
	if len(payload) > maxImageBytes {
		return nil, fmt.Errorf("image %s: %w", req.Identity, ErrImageTooLarge)
	}
	return payload, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, path string, out any) error {
	resp, err := p.get(ctx, path, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// get issues the request and converts error statuses. The caller closes
// the body on success.
func (p *HTTPProvider) get(ctx context.Context, path, accept string) (*http.Response, error) {
	target := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	start := time.Now()
	resp, err := p.http.Do(req)
	if err != nil {
		p.logger.Debug().Str("url", logging.RedactURL(target)).Err(err).Msg("request failed")
		return nil, fmt.Errorf("GET %s: %s", logging.RedactURL(path), logging.Redact(err.Error()))
	}
	p.logger.Debug().Str("url", logging.RedactURL(target)).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("request")

	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("GET %s: %w", logging.RedactURL(path), ErrNotFound)
	}
	var payload map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
		if msg, ok := payload["error"].(string); ok {
			return nil, fmt.Errorf("GET %s: http %d: %s", logging.RedactURL(path), resp.StatusCode, msg)
		}
	}
	return nil, fmt.Errorf("GET %s: http %d", logging.RedactURL(path), resp.StatusCode)
}
