package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/config"
)

func testRemote(t *testing.T, baseURL string, mutate func(*config.SourceConfig)) *Remote {
	t.Helper()

	cfg := config.SourceConfig{
		Kind:              "remote",
		BaseURL:           baseURL,
		AuthTokens:        []string{"tok-1"},
		Retries:           0,
		Timezone:          "UTC",
		DateFormat:        "2006-01-02",
		RequestsPerSecond: 0, // unlimited in tests
	}
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	remote, err := NewRemote(cfg, &logger)
	if err != nil {
		t.Fatalf("new remote: %v", err)
	}
	return remote
}

const roomsBody = `{"rooms": [
	{"room_id": "1", "name": "general", "is_private": false, "is_archived": false},
	{"room_id": "2", "name": "secret", "is_private": true, "is_archived": false},
	{"room_id": "3", "name": "old", "is_private": false, "is_archived": true}
]}`

func TestListRoomsFiltersPrivateAndArchived(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, roomsBody)
	}))
	defer ts.Close()

	tests := []struct {
		name            string
		includePrivate  bool
		includeArchived bool
		expected        []string
	}{
		{"exclude both", false, false, []string{"1"}},
		{"include private", true, false, []string{"1", "2"}},
		{"include archived", false, true, []string{"1", "3"}},
		{"include both", true, true, []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := testRemote(t, ts.URL, func(cfg *config.SourceConfig) {
				cfg.IncludePrivateRooms = tt.includePrivate
				cfg.IncludeArchivedRooms = tt.includeArchived
			})

			rooms, err := remote.ListRooms(context.Background())
			if err != nil {
				t.Fatalf("list rooms: %v", err)
			}
			if len(rooms) != len(tt.expected) {
				t.Fatalf("expected %d rooms, got %d: %v", len(tt.expected), len(rooms), rooms)
			}
			for _, id := range tt.expected {
				if _, ok := rooms[id]; !ok {
					t.Errorf("expected room %s in result", id)
				}
			}
		})
	}
}

func TestListRoomsMalformedBodyDegradesToEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "definitely not json")
	}))
	defer ts.Close()

	remote := testRemote(t, ts.URL, nil)

	rooms, err := remote.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("malformed body must not be an error, got: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("expected empty room map, got %v", rooms)
	}
}

func TestListUsersKeyedByID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"users": [
			{"user_id": "u1", "name": "Jane", "mention_name": "jane"},
			{"user_id": "u2", "name": "Bob", "mention_name": "bob", "is_bot": true}
		]}`)
	}))
	defer ts.Close()

	remote := testRemote(t, ts.URL, nil)

	users, err := remote.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users["u1"].MentionName != "jane" {
		t.Errorf("unexpected user u1: %+v", users["u1"])
	}
	if !users["u2"].Bot {
		t.Errorf("expected u2 to be a bot: %+v", users["u2"])
	}
}

func TestFetchMessagesDayPaginationAndBounds(t *testing.T) {
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	var dates []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		dates = append(dates, r.URL.Query().Get("date"))
		mu.Unlock()

		if got := r.URL.Query().Get("room_id"); got != "100" {
			t.Errorf("unexpected room_id %q", got)
		}
		if got := r.URL.Query().Get("timezone"); got != "UTC" {
			t.Errorf("unexpected timezone %q", got)
		}

		switch r.URL.Query().Get("date") {
		case "2025-03-01":
			// one message exactly at start (kept), one before start (dropped)
			fmt.Fprint(w, `{"messages": [
				{"date": "2025-03-01T00:00:00Z", "from_mention": "jane", "body": "at start", "type": "message"},
				{"date": "2025-02-28T23:59:59Z", "from_mention": "jane", "body": "before start", "type": "message"}
			]}`)
		case "2025-03-02":
			fmt.Fprint(w, `{"messages": [
				{"date": "2025-03-02T12:00:00Z", "from_mention": "bob", "body": "mid window", "type": "message"}
			]}`)
		case "2025-03-03":
			// exactly at end is excluded by the half-open interval
			fmt.Fprint(w, `{"messages": [
				{"date": "2025-03-03T00:00:00Z", "from_mention": "bob", "body": "at end", "type": "message"}
			]}`)
		default:
			fmt.Fprint(w, `{"messages": []}`)
		}
	}))
	defer ts.Close()

	remote := testRemote(t, ts.URL, nil)

	room := roomWithID("100")
	messages, err := remote.FetchMessages(context.Background(), start, end, room)
	if err != nil {
		t.Fatalf("fetch messages: %v", err)
	}

	mu.Lock()
	requestCount := len(dates)
	mu.Unlock()
	if requestCount != 3 {
		t.Fatalf("expected exactly 3 day requests, got %d: %v", requestCount, dates)
	}

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages inside [start, end), got %d: %+v", len(messages), messages)
	}
	for _, msg := range messages {
		if msg.Timestamp.Before(start) || !msg.Timestamp.Before(end) {
			t.Errorf("message outside [start, end): %v", msg.Timestamp)
		}
		if msg.RoomID != "100" {
			t.Errorf("expected room id backfilled, got %q", msg.RoomID)
		}
	}
}

func TestRequestHelperRotatesTokens(t *testing.T) {
	var mu sync.Mutex
	var tokens []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, r.URL.Query().Get("auth_token"))
		mu.Unlock()
		fmt.Fprint(w, `{"users": []}`)
	}))
	defer ts.Close()

	remote := testRemote(t, ts.URL, func(cfg *config.SourceConfig) {
		cfg.AuthTokens = []string{"a", "b", "c"}
	})

	for i := 0; i < 4; i++ {
		if _, err := remote.ListUsers(context.Background()); err != nil {
			t.Fatalf("list users #%d: %v", i, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	expected := []string{"a", "b", "c", "a"}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d calls, got %d", len(expected), len(tokens))
	}
	for i, tok := range expected {
		if tokens[i] != tok {
			t.Fatalf("call %d used token %q, want %q (all: %v)", i, tokens[i], tok, tokens)
		}
	}
}

func TestRequestHelperRetriesThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"users": []}`)
	}))
	defer ts.Close()

	remote := testRemote(t, ts.URL, func(cfg *config.SourceConfig) {
		cfg.Retries = 2
	})

	if _, err := remote.ListUsers(context.Background()); err != nil {
		t.Fatalf("expected retry to recover, got: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestRequestHelperSurfacesExhaustedRetries(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	remote := testRemote(t, ts.URL, func(cfg *config.SourceConfig) {
		cfg.Retries = 2
	})

	if _, err := remote.ListUsers(context.Background()); err == nil {
		t.Fatal("expected error after exhausted retries")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", calls)
	}
}

func TestRemoteUnsupportedCapabilities(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unsupported capability must not reach the network: %s", r.URL.Path)
	}))
	defer ts.Close()

	remote := testRemote(t, ts.URL, nil)

	if _, err := remote.ListUsersForRoom(context.Background(), roomWithID("1")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported from ListUsersForRoom, got: %v", err)
	}
	if _, err := remote.ListEmojis(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported from ListEmojis, got: %v", err)
	}
}
