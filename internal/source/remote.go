package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/config"
	"github.com/vovakirdan/chatscope-server/internal/model"
)

// Remote fetches rooms, users and message history from the chat platform's
// HTTP API. All calls go through the shared request helper, so token
// rotation, rate limiting and retries apply uniformly.
type Remote struct {
	client          *apiClient
	loc             *time.Location
	timezone        string
	dateLayout      string
	includePrivate  bool
	includeArchived bool
	log             *zerolog.Logger
}

// NewRemote builds the remote connector from configuration.
func NewRemote(cfg config.SourceConfig, logger *zerolog.Logger) (*Remote, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	client, err := newAPIClient(cfg.BaseURL, cfg.AuthTokens, cfg.Retries, cfg.RequestsPerSecond, logger)
	if err != nil {
		return nil, err
	}

	return &Remote{
		client:          client,
		loc:             loc,
		timezone:        cfg.Timezone,
		dateLayout:      cfg.DateFormat,
		includePrivate:  cfg.IncludePrivateRooms,
		includeArchived: cfg.IncludeArchivedRooms,
		log:             logger,
	}, nil
}

// ListRooms fetches the room directory. Private and archived rooms are
// dropped unless their inclusion is configured on.
func (r *Remote) ListRooms(ctx context.Context) (map[string]model.Room, error) {
	body, err := r.client.get(ctx, "rooms/list", nil)
	if err != nil {
		return nil, err
	}

	rooms := decodeEnvelope[model.Room](r.log, body, "rooms")
	result := make(map[string]model.Room, len(rooms))
	for _, room := range rooms {
		if room.Private && !r.includePrivate {
			continue
		}
		if room.Archived && !r.includeArchived {
			continue
		}
		result[room.ID] = room
	}
	return result, nil
}

// ListUsers fetches the user directory keyed by user id, unfiltered.
func (r *Remote) ListUsers(ctx context.Context) (map[string]model.User, error) {
	body, err := r.client.get(ctx, "users/list", nil)
	if err != nil {
		return nil, err
	}

	users := decodeEnvelope[model.User](r.log, body, "users")
	result := make(map[string]model.User, len(users))
	for _, user := range users {
		result[user.ID] = user
	}
	return result, nil
}

// ListUsersForRoom is not available on the remote API.
func (r *Remote) ListUsersForRoom(context.Context, model.Room) (map[string]model.User, error) {
	return nil, fmt.Errorf("list users for room: %w", ErrUnsupported)
}

// FetchMessages pages through a room's history one calendar day at a time,
// from start through end inclusive, then keeps only messages whose
// timestamp falls in [start, end). The half-open interval matches the
// upstream API convention.
func (r *Remote) FetchMessages(ctx context.Context, start, end time.Time, room model.Room) ([]model.Message, error) {
	var messages []model.Message

	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		params := url.Values{}
		params.Set("room_id", room.ID)
		params.Set("timezone", r.timezone)
		params.Set("date", cur.In(r.loc).Format(r.dateLayout))

		body, err := r.client.get(ctx, "rooms/history", params)
		if err != nil {
			return nil, err
		}

		for _, msg := range decodeEnvelope[model.Message](r.log, body, "messages") {
			ts := msg.Timestamp.UTC()
			if ts.Before(start) || !ts.Before(end) {
				continue
			}
			msg.Timestamp = ts
			if msg.RoomID == "" {
				msg.RoomID = room.ID
			}
			msg.Type = model.ParseMessageType(string(msg.Type))
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// ListEmojis is not implemented for the remote API yet.
func (r *Remote) ListEmojis(context.Context) (map[string]string, error) {
	return nil, fmt.Errorf("emoji listing is not implemented yet: %w", ErrUnsupported)
}
