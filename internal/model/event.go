package model

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// AnalyticsEvent is the unit broadcast to realtime subscribers. The payload
// is opaque to the broker; producers and consumers agree on its shape via
// the Type field.
type AnalyticsEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Encode serializes the event into a single wire frame. Encode and
// DecodeAnalyticsEvent are symmetric: decoding a frame and encoding the
// result yields the original bytes.
func (e AnalyticsEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode analytics event: %w", err)
	}
	return data, nil
}

// DecodeAnalyticsEvent deserializes a single wire frame.
func DecodeAnalyticsEvent(data []byte) (AnalyticsEvent, error) {
	var e AnalyticsEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return AnalyticsEvent{}, fmt.Errorf("decode analytics event: %w", err)
	}
	return e, nil
}
