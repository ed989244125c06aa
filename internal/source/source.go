package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/config"
	"github.com/vovakirdan/chatscope-server/internal/model"
)

// ErrUnsupported signals that a connector variant does not implement the
// requested capability. It is returned immediately, before any network
// activity, and callers are expected to check it with errors.Is.
var ErrUnsupported = errors.New("unsupported capability")

// Connector is the capability set a chat source must provide. Variants may
// decline individual capabilities by returning ErrUnsupported.
type Connector interface {
	// ListRooms returns the room directory keyed by room id.
	ListRooms(ctx context.Context) (map[string]model.Room, error)
	// ListUsers returns the user directory keyed by user id.
	ListUsers(ctx context.Context) (map[string]model.User, error)
	// ListUsersForRoom returns the members of one room keyed by user id.
	ListUsersForRoom(ctx context.Context, room model.Room) (map[string]model.User, error)
	// FetchMessages returns the messages of a room whose timestamps fall in
	// [start, end), ordered as fetched.
	FetchMessages(ctx context.Context, start, end time.Time, room model.Room) ([]model.Message, error)
	// ListEmojis returns emoji short-codes mapped to their representation.
	ListEmojis(ctx context.Context) (map[string]string, error)
}

// New selects the connector variant once at startup.
func New(cfg config.SourceConfig, logger *zerolog.Logger) (Connector, error) {
	switch cfg.Kind {
	case "remote":
		return NewRemote(cfg, logger)
	case "synthetic":
		return NewSynthetic(cfg.SyntheticUsers, cfg.SyntheticRooms, cfg.SyntheticSeed)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
