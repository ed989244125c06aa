package http

import (
	"context"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/config"
	"github.com/vovakirdan/chatscope-server/internal/model"
	"github.com/vovakirdan/chatscope-server/internal/rt"
	"github.com/vovakirdan/chatscope-server/internal/source"
)

type stubConnector struct {
	rooms     map[string]model.Room
	users     map[string]model.User
	emojis    map[string]string
	emojisErr error
}

func (s *stubConnector) ListRooms(context.Context) (map[string]model.Room, error) {
	return s.rooms, nil
}

func (s *stubConnector) ListUsers(context.Context) (map[string]model.User, error) {
	return s.users, nil
}

func (s *stubConnector) ListUsersForRoom(context.Context, model.Room) (map[string]model.User, error) {
	return s.users, nil
}

func (s *stubConnector) FetchMessages(context.Context, time.Time, time.Time, model.Room) ([]model.Message, error) {
	return nil, fmt.Errorf("no history: %w", source.ErrUnsupported)
}

func (s *stubConnector) ListEmojis(context.Context) (map[string]string, error) {
	return s.emojis, s.emojisErr
}

func newTestServer(t *testing.T, connector source.Connector) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	broker := rt.NewBroker(&logger)
	srv := NewServer(connector, broker, config.Default(), &logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := stdhttp.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v (body %s)", url, err, body)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubConnector{})

	resp, err := stdhttp.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
}

func TestListRoomsKeyedByName(t *testing.T) {
	connector := &stubConnector{
		rooms: map[string]model.Room{
			"1": {ID: "1", Name: "general"},
			"2": {ID: "2", Name: "random"},
		},
	}
	ts := newTestServer(t, connector)

	var rooms map[string]model.Room
	if status := getJSON(t, ts.URL+"/api/rooms", &rooms); status != stdhttp.StatusOK {
		t.Fatalf("status %d, want 200", status)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms))
	}
	if rooms["general"].ID != "1" || rooms["random"].ID != "2" {
		t.Fatalf("rooms not keyed by display name: %+v", rooms)
	}
}

func TestGetRoomByName(t *testing.T) {
	connector := &stubConnector{
		rooms: map[string]model.Room{"1": {ID: "1", Name: "general", Topic: "talk"}},
	}
	ts := newTestServer(t, connector)

	var room model.Room
	if status := getJSON(t, ts.URL+"/api/rooms/room?room=general", &room); status != stdhttp.StatusOK {
		t.Fatalf("status %d, want 200", status)
	}
	if room.ID != "1" || room.Topic != "talk" {
		t.Fatalf("unexpected room: %+v", room)
	}

	var errResp ErrorResponse
	if status := getJSON(t, ts.URL+"/api/rooms/room?room=missing", &errResp); status != stdhttp.StatusNotFound {
		t.Fatalf("status %d, want 404", status)
	}
	if status := getJSON(t, ts.URL+"/api/rooms/room", &errResp); status != stdhttp.StatusBadRequest {
		t.Fatalf("status %d, want 400", status)
	}
}

func TestListUsers(t *testing.T) {
	connector := &stubConnector{
		users: map[string]model.User{"u1": {ID: "u1", Name: "jane"}},
	}
	ts := newTestServer(t, connector)

	var users map[string]model.User
	if status := getJSON(t, ts.URL+"/api/users", &users); status != stdhttp.StatusOK {
		t.Fatalf("status %d, want 200", status)
	}
	if users["u1"].Name != "jane" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestListEmojis(t *testing.T) {
	connector := &stubConnector{emojis: map[string]string{"smile": "\U0001F604"}}
	ts := newTestServer(t, connector)

	var emojis map[string]string
	if status := getJSON(t, ts.URL+"/api/emojis", &emojis); status != stdhttp.StatusOK {
		t.Fatalf("status %d, want 200", status)
	}
	if emojis["smile"] == "" {
		t.Fatalf("unexpected emoji table: %v", emojis)
	}
}

func TestListEmojisUnsupported(t *testing.T) {
	connector := &stubConnector{emojisErr: fmt.Errorf("not here: %w", source.ErrUnsupported)}
	ts := newTestServer(t, connector)

	var errResp ErrorResponse
	if status := getJSON(t, ts.URL+"/api/emojis", &errResp); status != stdhttp.StatusNotImplemented {
		t.Fatalf("status %d, want 501", status)
	}
	if errResp.Error == "" {
		t.Fatal("expected an error body")
	}
}
