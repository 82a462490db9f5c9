// Package app owns the client state and its single update path.
//
// Every mutation happens in Model.Update, one message at a time. Network
// work runs as tea.Cmd or on the resource cache workers and comes back as a
// result message; nothing running in the background touches the state.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tOgg1/squads/internal/logging"
	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/data"
	"github.com/tOgg1/squads/internal/squads/emoji"
	"github.com/tOgg1/squads/internal/squads/expansion"
	"github.com/tOgg1/squads/internal/squads/feed"
	"github.com/tOgg1/squads/internal/squads/nav"
	"github.com/tOgg1/squads/internal/squads/rescache"
	"github.com/tOgg1/squads/internal/squads/state"
	"github.com/tOgg1/squads/internal/squads/styles"
)

// Deps are the collaborators of a Model. Provider is required.
type Deps struct {
	Provider data.Provider
	Cache    *rescache.Cache
	Emoji    *emoji.Map
	Session  *state.Manager
	Snapshot SnapshotStore
	// Layout sizes the page; the zero value means styles.DefaultLayout.
	Layout styles.Layout

	PreviewWidth int
	FetchTimeout time.Duration
	// Now anchors relative timestamps; nil means time.Now.
	Now func() time.Time
}

type loadState int

const (
	loadPending loadState = iota
	loadFailed
	loadLoaded
)

type channelKey struct {
	TeamID    string
	ChannelID string
}

type channelConversations struct {
	state loadState
	convs models.TeamConversations
	err   error
}

// Model is the application state.
type Model struct {
	provider     data.Provider
	cache        *rescache.Cache
	emoji        *emoji.Map
	session      *state.Manager
	snapshot     SnapshotStore
	layout       styles.Layout
	previewWidth int
	fetchTimeout time.Duration
	now          func() time.Time
	logger       zerolog.Logger

	teams       []models.Team
	teamsLoaded bool
	profiles    map[string]models.Profile
	profileReqs map[string]struct{}
	activities  []models.Message
	expansions  *expansion.Store
	channels    map[channelKey]*channelConversations
	history     nav.History
	search      string
	status      string
}

// New builds a Model and restores the persisted session.
func New(deps Deps) *Model {
	session := deps.Session
	if session == nil {
		session = state.New("")
	}
	timeout := deps.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	layout := deps.Layout
	if layout == (styles.Layout{}) {
		layout = styles.DefaultLayout()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	m := &Model{
		provider:     deps.Provider,
		cache:        deps.Cache,
		emoji:        deps.Emoji,
		session:      session,
		snapshot:     deps.Snapshot,
		layout:       layout,
		previewWidth: deps.PreviewWidth,
		fetchTimeout: timeout,
		now:          now,
		logger:       logging.Component("app"),
		profiles:     make(map[string]models.Profile),
		profileReqs:  make(map[string]struct{}),
		expansions:   expansion.New(),
		channels:     make(map[channelKey]*channelConversations),
	}

	restored := session.Snapshot()
	m.search = restored.SearchText
	if restored.LastPage.Kind == state.PageTeam {
		m.history.Open(nav.TeamPage(restored.LastPage.TeamID, restored.LastPage.ChannelID))
	}
	return m
}

// Init starts the initial loads.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadSnapshotCmd(m.snapshot),
		loadTeamsCmd(m.provider, m.fetchTimeout),
		loadProfilesCmd(m.provider, m.fetchTimeout),
		loadActivitiesCmd(m.provider, m.fetchTimeout),
		listenCompletionsCmd(m.cache),
	}
	cmds = append(cmds, m.restoreExpansions()...)
	if page := m.history.Current(); page.Kind == nav.PageTeam {
		cmds = append(cmds, m.requestChannel(channelKey{TeamID: page.TeamID, ChannelID: page.ChannelID}, true))
	}
	return tea.Batch(cmds...)
}

func (m *Model) restoreExpansions() []tea.Cmd {
	var cmds []tea.Cmd
	for _, raw := range m.session.Snapshot().Expanded {
		key, ok := expansion.ParseKey(raw)
		if !ok {
			continue
		}
		if m.expansions.RequestExpand(key) {
			cmds = append(cmds, fetchReplyChainCmd(m.provider, key, m.fetchTimeout))
		}
	}
	return cmds
}

// Update applies one message and returns follow-up work.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case feed.ExpandIntent:
		return m.expand(msg.Key)
	case feed.CollapseIntent:
		m.expansions.Collapse(msg.Key)
		m.persistExpanded()
		return nil
	case nav.PrefetchIntent:
		return m.prefetch(msg)
	case nav.OpenIntent:
		return m.open(msg.Page)
	case OpenHomeMsg:
		return m.open(nav.Home)
	case HistoryBackMsg:
		if m.history.Back() {
			return m.pageChanged()
		}
		return nil
	case HistoryForwardMsg:
		if m.history.Forward() {
			return m.pageChanged()
		}
		return nil
	case SearchChangedMsg:
		m.search = msg.Text
		m.session.SetSearchText(msg.Text)
		return nil
	case ToggleRepliesMsg:
		m.session.SetShowReplies(msg.ConversationID, !m.session.ShowReplies(msg.ConversationID))
		return nil
	case FetchImageMsg:
		m.fetchImage(msg.Request)
		return nil
	case RefreshMsg:
		return tea.Batch(
			loadTeamsCmd(m.provider, m.fetchTimeout),
			loadProfilesCmd(m.provider, m.fetchTimeout),
			loadActivitiesCmd(m.provider, m.fetchTimeout),
		)

	case TeamsLoadedMsg:
		return m.applyTeams(msg)
	case ProfilesLoadedMsg:
		if msg.Err != nil {
			m.fail("profiles", msg.Err)
			return nil
		}
		m.mergeProfiles(msg.Profiles)
		return saveProfilesCmd(m.snapshot, msg.Profiles)
	case ProfileLoadedMsg:
		if msg.Err != nil {
			m.logger.Debug().Err(msg.Err).Str("profile", msg.ID).Msg("profile lookup failed")
			delete(m.profileReqs, msg.ID)
			return nil
		}
		m.mergeProfiles([]models.Profile{msg.Profile})
		return saveProfilesCmd(m.snapshot, []models.Profile{msg.Profile})
	case ActivitiesLoadedMsg:
		if msg.Err != nil {
			m.fail("activity feed", msg.Err)
			return nil
		}
		m.activities = msg.Activities
		for _, a := range msg.Activities {
			if err := models.ValidateActivity(a); err != nil {
				m.logger.Warn().Err(err).Str("message_id", a.ID).Msg("skipping feed item")
			}
		}
		return nil
	case ConversationFetchedMsg:
		return m.applyConversation(msg)
	case TeamConversationsFetchedMsg:
		return m.applyChannel(msg)
	case ImageCompletedMsg:
		if m.cache != nil {
			res := m.cache.Apply(msg.Completion)
			if res.State == rescache.Failed {
				log := logging.WithIdentity(res.Identity)
				log.Debug().Err(res.Err).Msg("image unavailable")
			}
		}
		return listenCompletionsCmd(m.cache)
	case SnapshotLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn().Err(msg.Err).Msg("offline snapshot unavailable")
			return nil
		}
		if !m.teamsLoaded && len(m.teams) == 0 {
			m.teams = msg.Teams
		}
		for _, p := range msg.Profiles {
			if _, ok := m.profiles[p.ID]; !ok && p.ID != "" {
				m.profiles[p.ID] = p
			}
		}
		return nil
	case SnapshotSavedMsg:
		if msg.Err != nil {
			m.logger.Warn().Err(msg.Err).Msg("save offline snapshot")
		}
		return nil
	}
	return nil
}

func (m *Model) expand(key expansion.Key) tea.Cmd {
	if !m.expansions.RequestExpand(key) {
		return nil
	}
	return fetchReplyChainCmd(m.provider, key, m.fetchTimeout)
}

func (m *Model) applyConversation(msg ConversationFetchedMsg) tea.Cmd {
	if !m.expansions.Complete(msg.Key, msg.Messages, msg.Err) {
		m.logger.Debug().Str("key", msg.Key.String()).Msg("dropping conversation for collapsed entry")
		return nil
	}
	if msg.Err != nil {
		m.logger.Warn().Err(msg.Err).Str("key", msg.Key.String()).Msg("conversation fetch failed")
	}
	m.persistExpanded()
	return m.requestProfiles(msg.Messages)
}

func (m *Model) persistExpanded() {
	keys := m.expansions.Keys(expansion.Loaded)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	m.session.SetExpanded(out)
}

// prefetch warms the team picture and the channel's conversations. It
// never changes the page.
func (m *Model) prefetch(intent nav.PrefetchIntent) tea.Cmd {
	if intent.Image.Identity != "" {
		m.fetchImage(intent.Image)
	}
	if intent.TeamID == "" {
		return nil
	}
	return m.requestChannel(channelKey{TeamID: intent.TeamID, ChannelID: intent.ChannelID}, false)
}

func (m *Model) open(page nav.Page) tea.Cmd {
	m.history.Open(page)
	return m.pageChanged()
}

func (m *Model) pageChanged() tea.Cmd {
	page := m.history.Current()
	if page.Kind != nav.PageTeam {
		m.session.SetLastPage(state.PageRef{Kind: state.PageHome})
		return nil
	}
	m.session.SetLastPage(state.PageRef{Kind: state.PageTeam, TeamID: page.TeamID, ChannelID: page.ChannelID})
	if team, ok := nav.FindTeam(m.teams, page.TeamID); ok {
		m.fetchImage(nav.PictureRequest(team))
	}
	return m.requestChannel(channelKey{TeamID: page.TeamID, ChannelID: page.ChannelID}, true)
}

// requestChannel dispatches a conversations fetch unless one is in flight
// or done. retry also refetches a failed channel.
func (m *Model) requestChannel(key channelKey, retry bool) tea.Cmd {
	if key.ChannelID == "" {
		key.ChannelID = key.TeamID
	}
	if entry, ok := m.channels[key]; ok {
		if entry.state != loadFailed || !retry {
			return nil
		}
	}
	m.channels[key] = &channelConversations{state: loadPending}
	return fetchTeamConversationsCmd(m.provider, key, m.fetchTimeout)
}

func (m *Model) applyChannel(msg TeamConversationsFetchedMsg) tea.Cmd {
	key := channelKey{TeamID: msg.TeamID, ChannelID: msg.ChannelID}
	entry, ok := m.channels[key]
	if !ok {
		entry = &channelConversations{}
		m.channels[key] = entry
	}
	if msg.Err != nil {
		log := logging.WithTeam(msg.TeamID)
		log.Warn().Err(msg.Err).Str("channel", msg.ChannelID).Msg("conversations fetch failed")
		if entry.state == loadLoaded {
			return nil
		}
		entry.state = loadFailed
		entry.err = msg.Err
		return nil
	}
	entry.state = loadLoaded
	entry.err = nil
	entry.convs = msg.Conversations

	var msgs []models.Message
	for _, conv := range msg.Conversations.ReplyChains {
		msgs = append(msgs, conv.Messages...)
	}
	return m.requestProfiles(msgs)
}

func (m *Model) applyTeams(msg TeamsLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		m.fail("teams", msg.Err)
		return nil
	}
	m.teams = msg.Teams
	m.teamsLoaded = true
	for _, team := range m.teams {
		m.fetchImage(nav.PictureRequest(team))
	}
	return saveTeamsCmd(m.snapshot, m.teams)
}

// fetchImage asks the cache for req on behalf of a user intent. Repeating
// the intent retries a failed fetch; a pending or resident picture is left
// alone.
func (m *Model) fetchImage(req models.ImageRequest) {
	if m.cache == nil {
		return
	}
	m.cache.Fetch(req)
}

// requestProfiles looks up authors that are not loaded yet, once each.
func (m *Model) requestProfiles(msgs []models.Message) tea.Cmd {
	var cmds []tea.Cmd
	for _, msg := range msgs {
		id := feed.ProfileID(msg.From)
		if id == "" {
			continue
		}
		if _, ok := m.profiles[id]; ok {
			continue
		}
		if _, ok := m.profileReqs[id]; ok {
			continue
		}
		m.profileReqs[id] = struct{}{}
		cmds = append(cmds, loadProfileCmd(m.provider, id, m.fetchTimeout))
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (m *Model) mergeProfiles(profiles []models.Profile) {
	for _, p := range profiles {
		if p.ID == "" {
			continue
		}
		m.profiles[p.ID] = p
	}
}

func (m *Model) fail(what string, err error) {
	m.status = "Could not load " + what + "."
	m.logger.Warn().Err(err).Str("what", what).Msg("load failed")
}

// Page returns the page currently shown.
func (m *Model) Page() nav.Page {
	return m.history.Current()
}

// Close flushes the session.
func (m *Model) Close() error {
	return m.session.Close()
}
