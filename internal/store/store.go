package store

import (
	"context"
	"time"

	"github.com/vovakirdan/chatscope-server/internal/model"
)

// MentionRecord is one extracted entity mention attributed to the message
// it came from.
type MentionRecord struct {
	Value       string
	Occurrences int
	MentionedAt time.Time
	RoomID      string
	UserID      string
}

// MessageSummary is one processed message rolled up for counting.
type MessageSummary struct {
	UserID    string
	RoomID    string
	MessageAt time.Time
	Type      model.MessageType
	Count     int
}

// MentionTotal is an aggregated mention count for one surface form.
type MentionTotal struct {
	Value string
	Total int
}

// Store is the persistence sink for pipeline output records.
type Store interface {
	SaveMention(ctx context.Context, m MentionRecord) error
	SaveMessageSummary(ctx context.Context, s MessageSummary) error
	// CountMessageSummaries counts summaries in [start, end); empty filter
	// values match everything.
	CountMessageSummaries(ctx context.Context, start, end time.Time, userID, roomID string, msgType model.MessageType) (int, error)
	// TopMentions returns the highest aggregated mention totals in
	// [start, end), ordered by total descending then value.
	TopMentions(ctx context.Context, start, end time.Time, limit int) ([]MentionTotal, error)
	Close() error
}
