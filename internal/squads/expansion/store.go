// Package expansion tracks which activity-feed conversations are expanded.
//
// A Store is owned by the serialized update path and is not safe for
// concurrent use.
package expansion

import (
	"strings"

	"github.com/tOgg1/squads/internal/models"
)

// Key identifies a conversation independently of its position in the feed.
type Key struct {
	ThreadID   string
	GroupingID string
}

// KeyFor derives the expansion key of an activity.
func KeyFor(a models.Activity) Key {
	return Key{ThreadID: a.SourceThreadID, GroupingID: a.GroupingID()}
}

// String renders the key for logs and persisted state.
func (k Key) String() string {
	return k.ThreadID + "/" + k.GroupingID
}

// ParseKey is the inverse of Key.String. Thread ids never contain "/" while
// grouping ids may, so the split is on the first separator.
func ParseKey(s string) (Key, bool) {
	thread, grouping, ok := strings.Cut(s, "/")
	if !ok || thread == "" || grouping == "" {
		return Key{}, false
	}
	return Key{ThreadID: thread, GroupingID: grouping}, true
}

// State is the observable state of a key.
type State int

const (
	// Absent means no expansion was requested; the feed shows a preview.
	Absent State = iota
	// Pending means a fetch is in flight; observed by the feed as Absent.
	Pending
	// Failed means the last fetch failed or returned nothing.
	Failed
	// Loaded means the conversation messages are available.
	Loaded
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	case Loaded:
		return "loaded"
	default:
		return "absent"
	}
}

type entry struct {
	state    State
	messages []models.Message
}

// Store is a sparse map from Key to expansion result.
type Store struct {
	entries map[Key]*entry
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

// Lookup returns the state of key and, when Loaded, its messages in stored
// order. The returned slice must not be modified.
func (s *Store) Lookup(key Key) (State, []models.Message) {
	e, ok := s.entries[key]
	if !ok {
		return Absent, nil
	}
	return e.state, e.messages
}

// RequestExpand marks key Pending and reports whether the caller must
// dispatch a fetch. Pending and Loaded keys never start a second fetch.
func (s *Store) RequestExpand(key Key) bool {
	e, ok := s.entries[key]
	if ok && (e.state == Pending || e.state == Loaded) {
		return false
	}
	s.entries[key] = &entry{state: Pending}
	return true
}

// Complete applies a fetch result. It reports false and drops the result
// when key is no longer Pending (collapsed or superseded).
func (s *Store) Complete(key Key, messages []models.Message, err error) bool {
	e, ok := s.entries[key]
	if !ok || e.state != Pending {
		return false
	}
	if err != nil || len(messages) == 0 {
		e.state = Failed
		e.messages = nil
		return true
	}
	e.state = Loaded
	e.messages = models.CloneMessages(messages)
	return true
}

// Collapse removes key, reverting the entry to a preview.
func (s *Store) Collapse(key Key) {
	delete(s.entries, key)
}

// Len returns the number of tracked keys, including Pending ones.
func (s *Store) Len() int {
	return len(s.entries)
}

// Keys returns the keys in the given state.
func (s *Store) Keys(state State) []Key {
	out := make([]Key, 0, len(s.entries))
	for k, e := range s.entries {
		if e.state == state {
			out = append(out, k)
		}
	}
	return out
}
