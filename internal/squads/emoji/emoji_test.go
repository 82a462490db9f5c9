package emoji

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAndReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emoji.yaml")
	require.NoError(t, os.WriteFile(path, []byte("smile: \"😄\"\nLike: \"👍\"\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	require.Equal(t, "hi 😄 and 👍 (unknown) 👍", m.Replace("hi (smile) and (like) (unknown) :like:"))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Zero(t, m.Len())
	require.Equal(t, "(smile)", m.Replace("(smile)"))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emoji.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestNilMapIsSafe(t *testing.T) {
	var m *Map
	require.Equal(t, "(smile)", m.Replace("(smile)"))
	_, ok := m.Lookup("smile")
	require.False(t, ok)
}
