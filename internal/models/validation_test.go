package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorsIs(t *testing.T) {
	validation := &ValidationErrors{}
	validation.Add("id", ErrEmptyID)

	err := validation.Err()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEmptyID))
}

func TestValidationErrorsNestedFields(t *testing.T) {
	nested := &ValidationErrors{}
	nested.AddMessage("sourceThreadId", "source thread id is required")

	validation := &ValidationErrors{}
	validation.Add("activity", nested)

	err := validation.Err()
	require.Error(t, err)

	list, ok := err.(*ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, list.Errors, 1)
	require.Equal(t, "activity.sourceThreadId", list.Errors[0].Field)
}

func TestActivityOfMissingPayload(t *testing.T) {
	_, err := ActivityOf(Message{ID: "m1"})
	require.ErrorIs(t, err, ErrMissingActivity)

	_, err = ActivityOf(Message{ID: "m1", Properties: &Properties{}})
	require.ErrorIs(t, err, ErrMissingActivity)
}

func TestActivityGroupingIDPrefersReplyChain(t *testing.T) {
	a := Activity{SourceThreadID: "19:t", SourceMessageID: "100", SourceReplyChainID: "90"}
	require.Equal(t, "90", a.GroupingID())

	a.SourceReplyChainID = ""
	require.Equal(t, "100", a.GroupingID())
}

func TestValidateActivity(t *testing.T) {
	ok := Message{Properties: &Properties{Activity: &Activity{SourceThreadID: "19:t", SourceMessageID: "1"}}}
	require.NoError(t, ValidateActivity(ok))

	noThread := Message{Properties: &Properties{Activity: &Activity{SourceMessageID: "1"}}}
	require.ErrorIs(t, ValidateActivity(noThread), ErrEmptyThreadID)
}

func TestValidateTeamChannels(t *testing.T) {
	err := ValidateTeam(Team{ID: "t1", Channels: []Channel{{ID: "t1"}, {ID: " "}}})
	require.ErrorIs(t, err, ErrEmptyID)
	require.Contains(t, err.Error(), "channels[1].id")

	require.True(t, Channel{ID: "t1"}.IsGeneral(Team{ID: "t1"}))
	require.False(t, Channel{ID: "c2"}.IsGeneral(Team{ID: "t1"}))
}
