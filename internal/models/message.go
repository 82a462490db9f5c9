package models

import "time"

// Message is either a feed item (Properties.Activity set) or a plain
// conversation message. Ordering key is DeliveredAt.
type Message struct {
	ID            string      `json:"id"`
	From          string      `json:"from,omitempty"`
	ImDisplayName string      `json:"imDisplayName,omitempty"`
	Content       string      `json:"content,omitempty"`
	DeliveredAt   time.Time   `json:"originalArrivalTime"`
	Properties    *Properties `json:"properties,omitempty"`
}

// Properties holds the structured payload attached to a message.
type Properties struct {
	Activity *Activity `json:"activity,omitempty"`
}

// Activity is the payload of an activity-feed item.
type Activity struct {
	ActivityType            string    `json:"activityType,omitempty"`
	SourceThreadID          string    `json:"sourceThreadId"`
	SourceMessageID         string    `json:"sourceMessageId"`
	SourceReplyChainID      string    `json:"sourceReplyChainId,omitempty"`
	SourceUserImDisplayName string    `json:"sourceUserImDisplayName,omitempty"`
	MessagePreview          string    `json:"messagePreview,omitempty"`
	ActivityTimestamp       time.Time `json:"activityTimestamp"`
}

// GroupingID is the conversation grouping key: the reply chain when one is
// present, otherwise the source message.
func (a Activity) GroupingID() string {
	if a.SourceReplyChainID != "" {
		return a.SourceReplyChainID
	}
	return a.SourceMessageID
}

// ActivityOf returns the activity payload of m, or ErrMissingActivity.
func ActivityOf(m Message) (Activity, error) {
	if m.Properties == nil || m.Properties.Activity == nil {
		return Activity{}, &ValidationError{Field: "properties.activity", Message: "activity payload is required", Cause: ErrMissingActivity}
	}
	return *m.Properties.Activity, nil
}

// Conversation is a reply chain. Messages are stored oldest-first.
type Conversation struct {
	ID                 string    `json:"id"`
	ContainerID        string    `json:"containerId,omitempty"`
	LatestDeliveryTime time.Time `json:"latestDeliveryTime"`
	Messages           []Message `json:"messages"`
}

// TeamConversations are the reply chains of one channel.
type TeamConversations struct {
	ReplyChains []Conversation `json:"replyChains"`
}

// CloneMessages returns a copy of msgs that shares no backing array.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	return append([]Message(nil), msgs...)
}
