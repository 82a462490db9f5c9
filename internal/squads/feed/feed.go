// Package feed assembles the activity feed shown on the home page.
//
// Assembly is a pure function of the activity stream and the expansion
// store; the caller re-runs it after every state change.
package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/expansion"
)

// FailedText is the body of a failed-expansion entry.
const FailedText = "Failed to load conversation."

const defaultPreviewWidth = 80

// EntryKind classifies a feed entry.
type EntryKind int

const (
	EntryPreview EntryKind = iota
	EntryFailed
	EntryConversation
)

func (k EntryKind) String() string {
	switch k {
	case EntryFailed:
		return "failed"
	case EntryConversation:
		return "conversation"
	default:
		return "preview"
	}
}

// Intent is what activating a feed entry asks the update path to do.
type Intent interface {
	isIntent()
}

// ExpandIntent requests the conversation behind an activity. It is also the
// retry of a failed expansion.
type ExpandIntent struct {
	ThreadID   string
	GroupingID string
	Key        expansion.Key
}

// CollapseIntent reverts an expanded entry to its preview.
type CollapseIntent struct {
	Key expansion.Key
}

func (ExpandIntent) isIntent()   {}
func (CollapseIntent) isIntent() {}

// Preview is the collapsed form of an activity.
type Preview struct {
	Author   string
	Text     string
	At       time.Time
	Relative string
}

// Entry is one renderable feed item. Exactly one of Preview and
// Conversation is meaningful, selected by Kind.
type Entry struct {
	Kind         EntryKind
	MessageID    string
	Key          expansion.Key
	Preview      Preview
	Conversation ConversationView
	Intent       Intent
}

// ExpansionView is the read side of the expansion store.
type ExpansionView interface {
	Lookup(key expansion.Key) (expansion.State, []models.Message)
}

// Options configure assembly.
type Options struct {
	RenderOptions
	// PreviewWidth caps preview text in display columns.
	PreviewWidth int
}

// Skipped records an activity that could not be assembled.
type Skipped struct {
	MessageID string
	Err       error
}

// Result is the assembled feed.
type Result struct {
	Entries []Entry
	Skipped []Skipped
}

// Assemble turns activities, ordered oldest-first, into feed entries ordered
// newest-first. Activities without an activity payload are skipped and
// reported in Result.Skipped.
func Assemble(activities []models.Message, store ExpansionView, opts Options) Result {
	var result Result
	result.Entries = make([]Entry, 0, len(activities))
	for i := len(activities) - 1; i >= 0; i-- {
		entry, err := assembleOne(activities[i], store, opts)
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{MessageID: activities[i].ID, Err: err})
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	return result
}

// AssembleStrict is Assemble failing on the first malformed activity.
func AssembleStrict(activities []models.Message, store ExpansionView, opts Options) ([]Entry, error) {
	entries := make([]Entry, 0, len(activities))
	for i := len(activities) - 1; i >= 0; i-- {
		entry, err := assembleOne(activities[i], store, opts)
		if err != nil {
			return nil, fmt.Errorf("feed item %d (%s): %w", i, activities[i].ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func assembleOne(msg models.Message, store ExpansionView, opts Options) (Entry, error) {
	if err := models.ValidateActivity(msg); err != nil {
		return Entry{}, err
	}
	activity := *msg.Properties.Activity

	key := expansion.KeyFor(activity)
	expand := ExpandIntent{ThreadID: activity.SourceThreadID, GroupingID: key.GroupingID, Key: key}
	entry := Entry{MessageID: msg.ID, Key: key}

	state, messages := expansion.Absent, []models.Message(nil)
	if store != nil {
		state, messages = store.Lookup(key)
	}
	switch state {
	case expansion.Failed:
		entry.Kind = EntryFailed
		entry.Intent = expand
		return entry, nil
	case expansion.Loaded:
		if view, ok := RenderConversation(key.String(), messages, false, opts.RenderOptions); ok {
			entry.Kind = EntryConversation
			entry.Conversation = view
			entry.Intent = CollapseIntent{Key: key}
			return entry, nil
		}
		entry.Kind = EntryFailed
		entry.Intent = expand
		return entry, nil
	}

	entry.Kind = EntryPreview
	entry.Preview = previewOf(msg, activity, opts)
	entry.Intent = expand
	return entry, nil
}

func previewOf(msg models.Message, activity models.Activity, opts Options) Preview {
	author := strings.TrimSpace(activity.SourceUserImDisplayName)
	if author == "" {
		author = UnknownAuthor
	}
	at := activity.ActivityTimestamp
	if at.IsZero() {
		at = msg.DeliveredAt
	}
	width := opts.PreviewWidth
	if width <= 0 {
		width = defaultPreviewWidth
	}
	text := opts.Emoji.Replace(PlainText(activity.MessagePreview))
	return Preview{
		Author:   author,
		Text:     runewidth.Truncate(text, width, "…"),
		At:       at,
		Relative: relativeTime(at, opts.now()),
	}
}

// IsMissingActivity reports whether err is the missing-payload precondition.
func IsMissingActivity(err error) bool {
	return errors.Is(err, models.ErrMissingActivity)
}
