package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/config"
	"github.com/vovakirdan/chatscope-server/internal/extract"
	"github.com/vovakirdan/chatscope-server/internal/model"
	"github.com/vovakirdan/chatscope-server/internal/source"
	"github.com/vovakirdan/chatscope-server/internal/store"
)

// EventTypeEntityMentions is the event published after each ingest cycle
// that produced at least one mention.
const EventTypeEntityMentions = "entity_mentions"

// MentionWindow is the payload of an entity_mentions event: aggregated
// mention totals for one fetch window.
type MentionWindow struct {
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Totals map[string]int `json:"totals"`
}

// Publisher accepts aggregated analytics events for realtime fan-out.
type Publisher interface {
	Publish(event model.AnalyticsEvent)
}

// Runner drives the ingest cycle: sync the directory, fetch each room's
// message window, enrich, run the extractor across a worker pool, persist
// the derived records and publish the aggregated window event.
type Runner struct {
	src       source.Connector
	extractor *extract.Extractor
	sink      store.Store
	pub       Publisher
	interval  time.Duration
	lookback  time.Duration
	workers   int
	cursor    time.Time
	log       *zerolog.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(src source.Connector, extractor *extract.Extractor, sink store.Store, pub Publisher, cfg config.PipelineConfig, logger *zerolog.Logger) *Runner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		src:       src,
		extractor: extractor,
		sink:      sink,
		pub:       pub,
		interval:  cfg.Interval,
		lookback:  cfg.Lookback,
		workers:   workers,
		log:       logger,
	}
}

// Run executes one cycle immediately and then one per interval until the
// context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.cycle(ctx, time.Now().UTC())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// cycle processes the window between the cursor and now. The first cycle
// reaches back by the configured lookback; after that each window starts
// where the previous one ended, so a message is ingested exactly once.
// The cursor only advances when the window was processed, so a failed
// directory sync is retried with the same window on the next tick.
func (r *Runner) cycle(ctx context.Context, now time.Time) {
	start := now.Add(-r.lookback)
	if !r.cursor.IsZero() && r.cursor.After(start) {
		start = r.cursor
	}
	if !start.Before(now) {
		return
	}

	if err := r.RunOnce(ctx, start, now); err != nil {
		r.log.Error().Err(err).Msg("ingest cycle skipped")
		return
	}
	r.cursor = now
}

// RunOnce processes one fetch window. Per-room fetch failures are logged
// and skipped; only a failed directory sync fails the whole window.
func (r *Runner) RunOnce(ctx context.Context, start, end time.Time) error {
	rooms, err := r.src.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	users, err := r.src.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var enriched []model.EnrichedMessage
	for _, room := range rooms {
		msgs, err := r.src.FetchMessages(ctx, start, end, room)
		if err != nil {
			if errors.Is(err, source.ErrUnsupported) {
				r.log.Debug().Msg("source has no message history, nothing to ingest")
				return nil
			}
			r.log.Error().Err(err).Str("room_id", room.ID).Msg("fetch messages failed, skipping room")
			continue
		}
		for _, msg := range msgs {
			enriched = append(enriched, model.EnrichedMessage{
				Message: msg,
				Author:  resolveAuthor(users, msg),
				Room:    room,
			})
		}
	}

	totals := make(map[string]int)
	for _, res := range r.extractAll(enriched) {
		summary := store.MessageSummary{
			UserID:    res.msg.Author.ID,
			RoomID:    res.msg.Room.ID,
			MessageAt: res.msg.Message.Timestamp,
			Type:      res.msg.Message.Type,
			Count:     1,
		}
		if err := r.sink.SaveMessageSummary(ctx, summary); err != nil {
			r.log.Error().Err(err).Msg("persist message summary failed")
		}

		for _, mention := range res.mentions {
			record := store.MentionRecord{
				Value:       mention.Value,
				Occurrences: mention.Occurrences,
				MentionedAt: mention.MentionedAt,
				RoomID:      res.msg.Room.ID,
				UserID:      res.msg.Author.ID,
			}
			if err := r.sink.SaveMention(ctx, record); err != nil {
				r.log.Error().Err(err).Str("value", mention.Value).Msg("persist mention failed")
			}
			totals[mention.Value] += mention.Occurrences
		}
	}

	if len(totals) == 0 {
		r.log.Debug().Int("messages", len(enriched)).Msg("cycle produced no mentions")
		return nil
	}

	payload, err := json.Marshal(MentionWindow{Start: start, End: end, Totals: totals})
	if err != nil {
		r.log.Error().Err(err).Msg("encode mention window failed")
		return nil
	}

	r.pub.Publish(model.AnalyticsEvent{
		ID:         uuid.NewString(),
		Type:       EventTypeEntityMentions,
		OccurredAt: end,
		Payload:    payload,
	})
	r.log.Info().
		Int("messages", len(enriched)).
		Int("distinct_entities", len(totals)).
		Msg("ingest cycle complete")
	return nil
}

type extractResult struct {
	msg      model.EnrichedMessage
	mentions []model.EntityMention
}

// extractAll fans the messages out to a fixed worker pool. The extractor
// is stateless, so workers share nothing but the job channel.
func (r *Runner) extractAll(msgs []model.EnrichedMessage) []extractResult {
	jobs := make(chan model.EnrichedMessage)
	out := make(chan extractResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				out <- extractResult{msg: msg, mentions: r.extractor.Extract(msg)}
			}
		}()
	}

	go func() {
		for _, msg := range msgs {
			jobs <- msg
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]extractResult, 0, len(msgs))
	for res := range out {
		results = append(results, res)
	}
	return results
}

// resolveAuthor looks the author up by user id, falling back to a scan by
// mention handle. An unknown author keeps the handle from the raw message
// so exclusion during extraction still works.
func resolveAuthor(users map[string]model.User, msg model.Message) model.User {
	if user, ok := users[msg.FromUserID]; ok {
		return user
	}
	for _, user := range users {
		if user.MentionName != "" && user.MentionName == msg.FromMention {
			return user
		}
	}
	return model.User{ID: msg.FromUserID, MentionName: msg.FromMention}
}
