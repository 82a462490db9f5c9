// Package emoji loads the shortcode map used when rendering message text.
package emoji

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Map resolves a shortcode to its rendering reference. A Map is loaded once
// at startup and only read afterwards.
type Map struct {
	refs map[string]string
}

// shortcodePattern matches Teams-style "(smile)" and Slack-style ":smile:".
var shortcodePattern = regexp.MustCompile(`\(([a-z0-9_+-]+)\)|:([a-z0-9_+-]+):`)

// New builds a Map from refs. Keys are normalized to lowercase.
func New(refs map[string]string) *Map {
	m := &Map{refs: make(map[string]string, len(refs))}
	for code, ref := range refs {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" || ref == "" {
			continue
		}
		m.refs[code] = ref
	}
	return m
}

// Load reads a YAML document mapping shortcode to reference. A missing file
// yields an empty map.
func Load(path string) (*Map, error) {
	if strings.TrimSpace(path) == "" {
		return New(nil), nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("read emoji map: %w", err)
	}
	var refs map[string]string
	if err := yaml.Unmarshal(payload, &refs); err != nil {
		return nil, fmt.Errorf("parse emoji map %s: %w", path, err)
	}
	return New(refs), nil
}

// Lookup returns the reference for code.
func (m *Map) Lookup(code string) (string, bool) {
	if m == nil {
		return "", false
	}
	ref, ok := m.refs[strings.ToLower(code)]
	return ref, ok
}

// Len returns the number of shortcodes.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.refs)
}

// Replace substitutes known shortcodes in text. Unknown codes are left as-is.
func (m *Map) Replace(text string) string {
	if m.Len() == 0 || text == "" {
		return text
	}
	return shortcodePattern.ReplaceAllStringFunc(text, func(match string) string {
		code := strings.Trim(match, "():")
		if ref, ok := m.Lookup(code); ok {
			return ref
		}
		return match
	})
}
