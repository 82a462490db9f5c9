package rescache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DiskEntry describes a persisted payload.
type DiskEntry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// PathFor returns where identity's payload lives, whether or not it exists.
func (c *Cache) PathFor(identity string) string {
	return filepath.Join(c.dir, fileStem(identity)+c.ext)
}

// residentOnDisk reports whether a non-empty payload for identity exists.
// Any stat error, including a missing directory, is a miss.
func (c *Cache) residentOnDisk(identity string) (string, bool) {
	path := c.PathFor(identity)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return "", false
	}
	return path, true
}

// persist writes payload atomically so readers never observe a partial file.
func (c *Cache) persist(identity string, payload []byte) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	path := c.PathFor(identity)
	tmp, err := os.CreateTemp(c.dir, ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("create temp payload: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close payload: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename payload: %w", err)
	}
	return path, nil
}

// Entries lists persisted payloads, newest first. A missing directory yields
// no entries.
func (c *Cache) Entries() ([]DiskEntry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache dir: %w", err)
	}
	out := make([]DiskEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, c.ext) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, DiskEntry{
			Name:    strings.TrimSuffix(name, c.ext),
			Path:    filepath.Join(c.dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
