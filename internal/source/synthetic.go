package source

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"time"

	"github.com/goccy/go-json"

	"github.com/vovakirdan/chatscope-server/internal/model"
)

//go:embed emoji.json
var emojiData []byte

// syntheticEpoch is the fixed creation timestamp for generated fixtures.
// Using wall clock here would make two same-seed connectors differ.
var syntheticEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

const alphaNumerics = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Synthetic generates a deterministic directory of users and rooms for
// testing and demos. Two instances constructed with the same seed and
// counts produce field-for-field identical sets.
type Synthetic struct {
	users  map[string]model.User
	rooms  map[string]model.Room
	emojis map[string]string
}

// NewSynthetic builds the synthetic connector. A nil seed derives one from
// wall clock, which gives unique fixtures per run.
func NewSynthetic(numUsers, numRooms int, seed *int64) (*Synthetic, error) {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	rnd := rand.New(rand.NewSource(s))

	var emojis map[string]string
	if err := json.Unmarshal(emojiData, &emojis); err != nil {
		return nil, fmt.Errorf("load emoji table: %w", err)
	}

	return &Synthetic{
		users:  randomUsers(numUsers, rnd),
		rooms:  randomRooms(numRooms, rnd),
		emojis: emojis,
	}, nil
}

// ListRooms returns the generated room directory.
func (s *Synthetic) ListRooms(context.Context) (map[string]model.Room, error) {
	return s.rooms, nil
}

// ListUsers returns the generated user directory.
func (s *Synthetic) ListUsers(context.Context) (map[string]model.User, error) {
	return s.users, nil
}

// ListUsersForRoom returns the full directory; synthetic data has no
// per-room membership.
func (s *Synthetic) ListUsersForRoom(context.Context, model.Room) (map[string]model.User, error) {
	return s.users, nil
}

// FetchMessages is not available; there is no synthetic message history.
func (s *Synthetic) FetchMessages(context.Context, time.Time, time.Time, model.Room) ([]model.Message, error) {
	return nil, fmt.Errorf("message history from a synthetic source: %w", ErrUnsupported)
}

// ListEmojis returns the standard short-code table loaded at construction.
func (s *Synthetic) ListEmojis(context.Context) (map[string]string, error) {
	return s.emojis, nil
}

func randomUsers(n int, rnd *rand.Rand) map[string]model.User {
	users := make(map[string]model.User, n)
	for i := 0; i < n; i++ {
		id := randomAlphaNumeric(rnd, 5)
		users[id] = model.User{
			ID:          id,
			Email:       fmt.Sprintf("%s@email.com", randomAlphaNumeric(rnd, 4)),
			Name:        fmt.Sprintf("name-%s", randomAlphaNumeric(rnd, 4)),
			MentionName: randomAlphaNumeric(rnd, 6),
			Timezone:    "UTC",
			CreatedAt:   syntheticEpoch,
			ModifiedAt:  syntheticEpoch,
		}
	}
	return users
}

func randomRooms(n int, rnd *rand.Rand) map[string]model.Room {
	rooms := make(map[string]model.Room, n)
	for i := 0; i < n; i++ {
		id := randomAlphaNumeric(rnd, 5)
		rooms[id] = model.Room{
			ID:          id,
			Name:        fmt.Sprintf("room-%s", randomAlphaNumeric(rnd, 5)),
			Topic:       "random topic",
			OwnerUserID: randomAlphaNumeric(rnd, 5),
			CreatedAt:   syntheticEpoch,
			ModifiedAt:  syntheticEpoch,
		}
	}
	return rooms
}

func randomAlphaNumeric(rnd *rand.Rand, length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = alphaNumerics[rnd.Intn(len(alphaNumerics))]
	}
	return string(buf)
}
