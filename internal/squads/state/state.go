// Package state persists the session between runs: the last open page,
// the team search text, reply toggles and which feed conversations were
// expanded.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	CurrentVersion = 1

	defaultDebounce = 1 * time.Second
	maxReplyToggles = 500
	maxExpanded     = 200
)

// Page kinds as stored.
const (
	PageHome = "home"
	PageTeam = "team"
)

type Session struct {
	Version     int             `json:"version"`
	LastPage    PageRef         `json:"last_page"`
	SearchText  string          `json:"search_text,omitempty"`
	ShowReplies map[string]bool `json:"show_replies,omitempty"` // conversation id -> replies visible
	Expanded    []string        `json:"expanded,omitempty"`     // expansion keys, "thread/grouping"
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

type PageRef struct {
	Kind      string `json:"kind"`
	TeamID    string `json:"team_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

type Manager struct {
	path     string
	lockPath string

	mu       sync.Mutex
	state    Session
	dirty    bool
	timer    *time.Timer
	debounce time.Duration
}

// New returns a manager for path. An empty path keeps state in memory only.
func New(path string) *Manager {
	path = strings.TrimSpace(path)
	lockPath := ""
	if path != "" {
		lockPath = path + ".lock"
	}
	return &Manager{
		path:     path,
		lockPath: lockPath,
		state:    emptySession(),
		debounce: defaultDebounce,
	}
}

func emptySession() Session {
	return Session{
		Version:     CurrentVersion,
		LastPage:    PageRef{Kind: PageHome},
		ShowReplies: make(map[string]bool),
	}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return err
	}
	m.state = loaded
	m.dirty = false
	return nil
}

func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.state)
}

func (m *Manager) SetLastPage(page PageRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page = normalizePage(page)
	if m.state.LastPage == page {
		return
	}
	m.state.LastPage = page
	m.markDirtyLocked()
}

func (m *Manager) SetSearchText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.SearchText == text {
		return
	}
	m.state.SearchText = text
	m.markDirtyLocked()
}

// ShowReplies reports whether replies of conversation id are visible.
func (m *Manager) ShowReplies(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ShowReplies[strings.TrimSpace(id)]
}

// SetShowReplies records the reply toggle of conversation id. Hidden is the
// default and is stored by omission.
func (m *Manager) SetShowReplies(id string, show bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id = strings.TrimSpace(id)
	if id == "" || m.state.ShowReplies[id] == show {
		return
	}
	if m.state.ShowReplies == nil {
		m.state.ShowReplies = make(map[string]bool)
	}
	if show {
		m.state.ShowReplies[id] = true
	} else {
		delete(m.state.ShowReplies, id)
	}
	m.markDirtyLocked()
}

// SetExpanded replaces the set of expanded feed conversations.
func (m *Manager) SetExpanded(keys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Expanded = normalizeKeys(keys)
	m.markDirtyLocked()
}

func (m *Manager) SaveSoon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markDirtyLocked()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.dirty = false
		m.mu.Unlock()
		return nil
	}
	session := cloneSession(m.state)
	m.dirty = false
	m.mu.Unlock()

	session.Version = CurrentVersion
	session.UpdatedAt = time.Now().UTC()
	session = normalizeSession(session)

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, session)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (Session, error) {
	out := emptySession()
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			return nil
		}
		var loaded Session
		if err := json.Unmarshal(payload, &loaded); err != nil {
			return fmt.Errorf("parse %s: %w", m.path, err)
		}
		out = loaded
		return nil
	}); err != nil {
		return Session{}, err
	}

	if out.Version <= 0 {
		out.Version = CurrentVersion
	}
	return normalizeSession(out), nil
}

func withFileLock(lockPath string, fn func() error) error {
	if strings.TrimSpace(lockPath) == "" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeAtomicJSON(path string, session Session) error {
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func normalizePage(page PageRef) PageRef {
	page.TeamID = strings.TrimSpace(page.TeamID)
	page.ChannelID = strings.TrimSpace(page.ChannelID)
	if page.Kind != PageTeam || page.TeamID == "" {
		return PageRef{Kind: PageHome}
	}
	return page
}

func normalizeSession(session Session) Session {
	session.LastPage = normalizePage(session.LastPage)

	// Cap reply toggles, keeping a deterministic subset.
	clean := make(map[string]bool, len(session.ShowReplies))
	ids := make([]string, 0, len(session.ShowReplies))
	for id, show := range session.ShowReplies {
		id = strings.TrimSpace(id)
		if id == "" || !show {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > maxReplyToggles {
		ids = ids[len(ids)-maxReplyToggles:]
	}
	for _, id := range ids {
		clean[id] = true
	}
	session.ShowReplies = clean
	session.Expanded = normalizeKeys(session.Expanded)
	return session
}

func normalizeKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	if len(out) > maxExpanded {
		out = out[:maxExpanded]
	}
	return out
}

func cloneSession(session Session) Session {
	out := session
	if session.ShowReplies != nil {
		out.ShowReplies = make(map[string]bool, len(session.ShowReplies))
		for k, v := range session.ShowReplies {
			out.ShowReplies[k] = v
		}
	}
	if len(session.Expanded) > 0 {
		out.Expanded = append([]string(nil), session.Expanded...)
	}
	return out
}
