package expansion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/squads/internal/models"
)

var testKey = Key{ThreadID: "19:abc@thread.tacv2", GroupingID: "1700000000000"}

func TestStore_AbsentByDefault(t *testing.T) {
	s := New()
	state, msgs := s.Lookup(testKey)
	require.Equal(t, Absent, state)
	require.Nil(t, msgs)
}

func TestStore_RequestExpandDedupsInFlight(t *testing.T) {
	s := New()
	require.True(t, s.RequestExpand(testKey))
	require.False(t, s.RequestExpand(testKey), "second expand while pending must not fetch")

	state, _ := s.Lookup(testKey)
	require.Equal(t, Pending, state)
}

func TestStore_CompleteSuccessAndFailure(t *testing.T) {
	s := New()
	require.True(t, s.RequestExpand(testKey))
	msgs := []models.Message{{ID: "1", Content: "root"}, {ID: "2", Content: "reply"}}
	require.True(t, s.Complete(testKey, msgs, nil))

	state, got := s.Lookup(testKey)
	require.Equal(t, Loaded, state)
	require.Equal(t, msgs, got)

	msgs[0].Content = "mutated"
	_, got = s.Lookup(testKey)
	require.Equal(t, "root", got[0].Content, "store keeps its own copy")

	require.False(t, s.RequestExpand(testKey), "loaded key does not refetch")

	other := Key{ThreadID: "19:x", GroupingID: "2"}
	require.True(t, s.RequestExpand(other))
	require.True(t, s.Complete(other, nil, errors.New("403")))
	state, _ = s.Lookup(other)
	require.Equal(t, Failed, state)
}

func TestStore_EmptyPayloadIsFailure(t *testing.T) {
	s := New()
	s.RequestExpand(testKey)
	s.Complete(testKey, []models.Message{}, nil)
	state, _ := s.Lookup(testKey)
	require.Equal(t, Failed, state)
}

func TestStore_FailedIsRetryable(t *testing.T) {
	s := New()
	s.RequestExpand(testKey)
	s.Complete(testKey, nil, errors.New("timeout"))

	require.True(t, s.RequestExpand(testKey))
	state, _ := s.Lookup(testKey)
	require.Equal(t, Pending, state)
}

func TestStore_CollapseDropsLateCompletion(t *testing.T) {
	s := New()
	s.RequestExpand(testKey)
	s.Collapse(testKey)
	require.False(t, s.Complete(testKey, []models.Message{{ID: "1"}}, nil))

	state, _ := s.Lookup(testKey)
	require.Equal(t, Absent, state)
	require.Zero(t, s.Len())
}

func TestKeyFor_UsesGroupingID(t *testing.T) {
	k := KeyFor(models.Activity{SourceThreadID: "19:t", SourceMessageID: "5", SourceReplyChainID: "3"})
	require.Equal(t, Key{ThreadID: "19:t", GroupingID: "3"}, k)

	parsed, ok := ParseKey(k.String())
	require.True(t, ok)
	require.Equal(t, k, parsed)

	_, ok = ParseKey("nothing")
	require.False(t, ok)
}
