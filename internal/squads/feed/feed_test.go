package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/squads/internal/models"
	"github.com/tOgg1/squads/internal/squads/emoji"
	"github.com/tOgg1/squads/internal/squads/expansion"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func activityMsg(id, thread, messageID, replyChain, preview string, at time.Time) models.Message {
	return models.Message{
		ID:          id,
		DeliveredAt: at,
		Properties: &models.Properties{Activity: &models.Activity{
			SourceThreadID:          thread,
			SourceMessageID:         messageID,
			SourceReplyChainID:      replyChain,
			SourceUserImDisplayName: "Ada Lovelace",
			MessagePreview:          preview,
			ActivityTimestamp:       at,
		}},
	}
}

func twoActivities() []models.Message {
	return []models.Message{
		activityMsg("a1", "19:thread-1", "m1", "", "first", testNow.Add(-2*time.Hour)),
		activityMsg("a2", "19:thread-2", "m2", "chain-2", "second", testNow.Add(-time.Hour)),
	}
}

func testOptions() Options {
	return Options{RenderOptions: RenderOptions{Now: testNow}}
}

func TestAssemble_EmptyStoreIsNewestFirstPreviews(t *testing.T) {
	result := Assemble(twoActivities(), expansion.New(), testOptions())
	require.Empty(t, result.Skipped)
	require.Len(t, result.Entries, 2)

	require.Equal(t, EntryPreview, result.Entries[0].Kind)
	require.Equal(t, "a2", result.Entries[0].MessageID)
	require.Equal(t, "second", result.Entries[0].Preview.Text)
	require.Equal(t, "1 hour ago", result.Entries[0].Preview.Relative)
	require.Equal(t, "Ada Lovelace", result.Entries[0].Preview.Author)

	require.Equal(t, EntryPreview, result.Entries[1].Kind)
	require.Equal(t, "a1", result.Entries[1].MessageID)
}

func TestAssemble_FailedExpansionShowsMarker(t *testing.T) {
	store := expansion.New()
	key := expansion.Key{ThreadID: "19:thread-2", GroupingID: "chain-2"}
	require.True(t, store.RequestExpand(key))
	require.True(t, store.Complete(key, nil, nil))

	result := Assemble(twoActivities(), store, testOptions())
	require.Len(t, result.Entries, 2)
	require.Equal(t, EntryFailed, result.Entries[0].Kind)
	require.Equal(t, ExpandIntent{ThreadID: "19:thread-2", GroupingID: "chain-2", Key: key}, result.Entries[0].Intent)
	require.Equal(t, EntryPreview, result.Entries[1].Kind)
}

func TestAssemble_LoadedExpansionIsConversationInStoredOrder(t *testing.T) {
	store := expansion.New()
	key := expansion.Key{ThreadID: "19:thread-1", GroupingID: "m1"}
	stored := []models.Message{
		{ID: "r1", ImDisplayName: "Grace", Content: "<p>root (smile)</p>", DeliveredAt: testNow.Add(-3 * time.Hour)},
		{ID: "r2", From: "https://x/contacts/8:orgid:42", Content: "reply", DeliveredAt: testNow.Add(-2 * time.Hour)},
	}
	store.RequestExpand(key)
	store.Complete(key, stored, nil)

	opts := testOptions()
	opts.Emoji = emoji.New(map[string]string{"smile": "😄"})
	opts.Profiles = map[string]models.Profile{"8:orgid:42": {ID: "8:orgid:42", DisplayName: "Linus"}}

	result := Assemble(twoActivities(), store, opts)
	entry := result.Entries[1]
	require.Equal(t, EntryConversation, entry.Kind)
	require.Equal(t, CollapseIntent{Key: key}, entry.Intent)

	want, ok := RenderConversation(key.String(), stored, false, opts.RenderOptions)
	require.True(t, ok)
	require.Equal(t, want, entry.Conversation)
	require.Equal(t, "root 😄", entry.Conversation.Root().Text)
	require.Equal(t, "Linus", entry.Conversation.Messages[1].Author)
	require.Equal(t, 1, entry.Conversation.ReplyCount())
	require.Empty(t, entry.Conversation.Replies())
}

func TestAssemble_PendingLooksAbsent(t *testing.T) {
	store := expansion.New()
	store.RequestExpand(expansion.Key{ThreadID: "19:thread-1", GroupingID: "m1"})

	result := Assemble(twoActivities(), store, testOptions())
	require.Equal(t, EntryPreview, result.Entries[1].Kind)
}

func TestAssemble_StableKeysSurviveInsertion(t *testing.T) {
	store := expansion.New()
	key := expansion.Key{ThreadID: "19:thread-2", GroupingID: "chain-2"}
	store.RequestExpand(key)
	store.Complete(key, nil, errors.New("403"))

	activities := append(twoActivities(), activityMsg("a3", "19:thread-3", "m3", "", "third", testNow))
	result := Assemble(activities, store, testOptions())
	require.Equal(t, EntryPreview, result.Entries[0].Kind)
	require.Equal(t, EntryFailed, result.Entries[1].Kind)
	require.Equal(t, "a2", result.Entries[1].MessageID)
}

func TestAssemble_SkipsItemWithoutActivity(t *testing.T) {
	activities := twoActivities()
	activities = append(activities, models.Message{ID: "plain", Content: "hello"})

	result := Assemble(activities, expansion.New(), testOptions())
	require.Len(t, result.Entries, 2)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, "plain", result.Skipped[0].MessageID)
	require.True(t, IsMissingActivity(result.Skipped[0].Err))

	_, err := AssembleStrict(activities, expansion.New(), testOptions())
	require.ErrorIs(t, err, models.ErrMissingActivity)
}

func TestAssemble_DoesNotMutateInput(t *testing.T) {
	activities := twoActivities()
	Assemble(activities, nil, testOptions())
	require.Equal(t, twoActivities(), activities)
}

func TestPreviewTruncation(t *testing.T) {
	opts := testOptions()
	opts.PreviewWidth = 10
	msg := activityMsg("a", "19:t", "m", "", "a rather long preview text", testNow)
	msg.Properties.Activity.SourceUserImDisplayName = ""

	entries, err := AssembleStrict([]models.Message{msg}, nil, opts)
	require.NoError(t, err)
	require.Equal(t, "a rather …", entries[0].Preview.Text)
	require.Equal(t, UnknownAuthor, entries[0].Preview.Author)
}

func TestRenderConversation(t *testing.T) {
	_, ok := RenderConversation("c", nil, true, RenderOptions{})
	require.False(t, ok)

	view, ok := RenderConversation("c", []models.Message{
		{ID: "1", Content: "root"},
		{ID: "2", Content: "a &amp; b"},
	}, true, RenderOptions{Now: testNow})
	require.True(t, ok)
	require.Equal(t, UnknownAuthor, view.Root().Author)
	require.Len(t, view.Replies(), 1)
	require.Equal(t, "a & b", view.Replies()[0].Text)
	require.Empty(t, view.Root().Relative)
}

func TestPlainText(t *testing.T) {
	require.Equal(t, "hello world", PlainText("<div>hello<br/>\n world</div>"))
	require.Equal(t, "", PlainText(""))
}
