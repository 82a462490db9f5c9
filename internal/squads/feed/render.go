package feed

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/emoji"
)

// UnknownAuthor is shown when a message author cannot be resolved.
const UnknownAuthor = "Unknown"

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// RenderOptions are the read-only collaborators of rendering.
type RenderOptions struct {
	Emoji    *emoji.Map
	Profiles map[string]models.Profile
	// Now anchors relative timestamps. Zero means time.Now.
	Now time.Time
}

func (o RenderOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// MessageView is one rendered message.
type MessageView struct {
	ID       string
	Author   string
	Text     string
	At       time.Time
	Relative string
}

// ConversationView is a rendered reply chain. Messages keep the order they
// were given in; the first one is the root.
type ConversationView struct {
	ID          string
	Messages    []MessageView
	ShowReplies bool
}

// Root returns the first message.
func (c ConversationView) Root() MessageView {
	if len(c.Messages) == 0 {
		return MessageView{}
	}
	return c.Messages[0]
}

// ReplyCount is the number of messages after the root.
func (c ConversationView) ReplyCount() int {
	if len(c.Messages) < 2 {
		return 0
	}
	return len(c.Messages) - 1
}

// Replies returns the visible replies: none unless ShowReplies is set.
func (c ConversationView) Replies() []MessageView {
	if !c.ShowReplies || len(c.Messages) < 2 {
		return nil
	}
	return c.Messages[1:]
}

// RenderConversation renders messages in the order given. It reports false
// when there is nothing to show.
func RenderConversation(id string, messages []models.Message, showReplies bool, opts RenderOptions) (ConversationView, bool) {
	if len(messages) == 0 {
		return ConversationView{}, false
	}
	now := opts.now()
	view := ConversationView{
		ID:          id,
		Messages:    make([]MessageView, 0, len(messages)),
		ShowReplies: showReplies,
	}
	for _, msg := range messages {
		view.Messages = append(view.Messages, MessageView{
			ID:       msg.ID,
			Author:   AuthorOf(msg, opts.Profiles),
			Text:     opts.Emoji.Replace(PlainText(msg.Content)),
			At:       msg.DeliveredAt,
			Relative: relativeTime(msg.DeliveredAt, now),
		})
	}
	return view, true
}

// AuthorOf resolves the display name of a message author: the loaded
// profile first, then the name carried on the message.
func AuthorOf(msg models.Message, profiles map[string]models.Profile) string {
	if id := ProfileID(msg.From); id != "" {
		if profile, ok := profiles[id]; ok && profile.DisplayName != "" {
			return profile.DisplayName
		}
	}
	if name := strings.TrimSpace(msg.ImDisplayName); name != "" {
		return name
	}
	return UnknownAuthor
}

// ProfileID extracts the profile id from a sender reference, which is
// either the bare id or a contact URL ending in it.
func ProfileID(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.LastIndex(from, "/"); i >= 0 {
		from = from[i+1:]
	}
	return from
}

// PlainText strips markup from message content and collapses whitespace.
func PlainText(content string) string {
	if content == "" {
		return ""
	}
	text := tagPattern.ReplaceAllString(content, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

func relativeTime(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	return humanize.RelTime(at, now, "ago", "from now")
}
