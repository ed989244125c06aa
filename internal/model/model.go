package model

import "time"

// Room is an immutable snapshot of a chat room as reported by the source.
// Identity is RoomID; everything else may change between fetches.
type Room struct {
	ID          string    `json:"room_id"`
	Name        string    `json:"name"`
	Topic       string    `json:"topic"`
	OwnerUserID string    `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	Private     bool      `json:"is_private"`
	Archived    bool      `json:"is_archived"`
}

// User is an immutable snapshot of a chat user as reported by the source.
type User struct {
	ID          string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	MentionName string    `json:"mention_name"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	Bot         bool      `json:"is_bot"`
	Guest       bool      `json:"is_guest"`
	Deleted     bool      `json:"is_deleted"`
}

// MessageType classifies a message as reported by the source.
type MessageType string

const (
	MessageTypeMessage     MessageType = "message"
	MessageTypeBotMessage  MessageType = "bot_message"
	MessageTypeChannelJoin MessageType = "channel_join"
	MessageTypePinnedItem  MessageType = "pinned_item"
	MessageTypeUnknown     MessageType = "unknown"
)

// ParseMessageType maps a raw source value to a MessageType, falling back
// to MessageTypeUnknown for values this build does not know about.
func ParseMessageType(raw string) MessageType {
	switch MessageType(raw) {
	case MessageTypeMessage, MessageTypeBotMessage, MessageTypeChannelJoin, MessageTypePinnedItem:
		return MessageType(raw)
	default:
		return MessageTypeUnknown
	}
}

// Message is a single chat message produced by a source connector.
// Timestamps are normalized to UTC on decode and never mutated afterwards.
type Message struct {
	Timestamp   time.Time   `json:"date"`
	FromMention string      `json:"from_mention"`
	FromUserID  string      `json:"from_user_id"`
	RoomID      string      `json:"room_id"`
	Body        string      `json:"body"`
	Type        MessageType `json:"type"`
}

// EnrichedMessage joins a message with its resolved author and room.
// Built once before extraction; read-only after that.
type EnrichedMessage struct {
	Message Message
	Author  User
	Room    Room
}

// EntityMention is one distinct entity surface form recognized inside a
// single message, with the number of times it occurred in that message.
type EntityMention struct {
	Value       string    `json:"value"`
	Occurrences int       `json:"occurrences"`
	MentionedAt time.Time `json:"mentioned_at"`
}
