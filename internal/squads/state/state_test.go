package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_LoadMissingFileOK(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "squads", "session.json"))
	require.NoError(t, m.Load())
	s := m.Snapshot()
	require.Equal(t, CurrentVersion, s.Version)
	require.Equal(t, PageRef{Kind: PageHome}, s.LastPage)
}

func TestManager_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "squads", "session.json")
	m := New(path)
	require.NoError(t, m.Load())

	m.SetLastPage(PageRef{Kind: PageTeam, TeamID: "t1", ChannelID: "c2"})
	m.SetSearchText("des")
	m.SetShowReplies("conv-1", true)
	m.SetShowReplies("conv-2", true)
	m.SetShowReplies("conv-2", false)
	m.SetExpanded([]string{"19:b/m2", "19:a/m1", "19:a/m1", " "})
	require.NoError(t, m.Close())

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	s := reloaded.Snapshot()
	require.Equal(t, PageRef{Kind: PageTeam, TeamID: "t1", ChannelID: "c2"}, s.LastPage)
	require.Equal(t, "des", s.SearchText)
	require.True(t, reloaded.ShowReplies("conv-1"))
	require.False(t, reloaded.ShowReplies("conv-2"))
	require.Equal(t, []string{"19:a/m1", "19:b/m2"}, s.Expanded)
}

func TestManager_InvalidPageFallsBackHome(t *testing.T) {
	m := New("")
	m.SetLastPage(PageRef{Kind: PageTeam})
	require.Equal(t, PageRef{Kind: PageHome}, m.Snapshot().LastPage)
	require.NoError(t, m.SaveNow())
}

func TestManager_CapsReplyTogglesOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	for i := 0; i < maxReplyToggles+20; i++ {
		m.SetShowReplies(fmt.Sprintf("conv-%04d", i), true)
	}
	require.NoError(t, m.SaveNow())
	require.NoError(t, m.Load())
	require.Len(t, m.Snapshot().ShowReplies, maxReplyToggles)
	require.NoError(t, m.Close())
}

func TestManager_DebouncedSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	m.debounce = 10 * time.Millisecond

	m.SetSearchText("mark")
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Close())
}

func TestManager_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	require.Error(t, New(path).Load())
}
