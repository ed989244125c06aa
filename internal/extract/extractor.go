package extract

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/model"
)

// Recognizer finds named-entity surface forms in free text. All entity
// categories are eligible; the extractor decides what to keep.
type Recognizer interface {
	Entities(text string) ([]string, error)
}

// Extractor turns one enriched message into entity mentions. It is
// stateless and safe to run concurrently across pipeline workers.
type Extractor struct {
	rec Recognizer
	log *zerolog.Logger
}

// New builds an extractor on top of the given recognizer.
func New(rec Recognizer, logger *zerolog.Logger) *Extractor {
	return &Extractor{rec: rec, log: logger}
}

// Extract runs entity recognition over the message body and groups the
// recognized spans by exact surface form within this message. The author's
// mention handle and display name and the room's display name are supplied
// as disambiguation context and are never reported as entities. A
// recognizer failure is logged and yields an empty result; one bad message
// never halts the stream.
func (e *Extractor) Extract(msg model.EnrichedMessage) []model.EntityMention {
	spans, err := e.rec.Entities(msg.Message.Body)
	if err != nil {
		e.log.Warn().
			Err(err).
			Str("room_id", msg.Room.ID).
			Str("user_id", msg.Author.ID).
			Msg("entity recognition failed, emitting no mentions")
		return nil
	}

	counts := make(map[string]int, len(spans))
	order := make([]string, 0, len(spans))
	for _, span := range spans {
		if span == "" || excluded(span, msg) {
			continue
		}
		if _, seen := counts[span]; !seen {
			order = append(order, span)
		}
		counts[span]++
	}

	mentions := make([]model.EntityMention, 0, len(order))
	for _, value := range order {
		mentions = append(mentions, model.EntityMention{
			Value:       value,
			Occurrences: counts[value],
			MentionedAt: msg.Message.Timestamp,
		})
	}
	return mentions
}

func excluded(span string, msg model.EnrichedMessage) bool {
	for _, skip := range [...]string{msg.Author.MentionName, msg.Author.Name, msg.Room.Name} {
		if skip != "" && strings.EqualFold(span, skip) {
			return true
		}
	}
	return false
}
