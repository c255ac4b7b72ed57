package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/parley/internal/chat"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/handlers"
	"github.com/nfrund/parley/internal/middleware"
	"github.com/nfrund/parley/internal/presence"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/rooms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenUserRepository authenticates from a fixed token -> username table.
type tokenUserRepository struct {
	tokens map[string]string
}

func (r *tokenUserRepository) Authenticate(_ context.Context, token string) (*domain.User, error) {
	username, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.User{Username: username}, nil
}

func (r *tokenUserRepository) SignUp(context.Context, *domain.User, string) (string, error) {
	return "", domain.ErrUserAlreadyExists
}

func (r *tokenUserRepository) SignIn(context.Context, *domain.User, string) (string, error) {
	return "", domain.ErrInvalidCredentials
}

func (r *tokenUserRepository) FindUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *tokenUserRepository) ListUsers(context.Context) ([]domain.User, error) {
	return nil, nil
}

// seqMessageStore is an in-memory message store for wiring the full stack
// without a database.
type seqMessageStore struct {
	mu   sync.Mutex
	msgs []domain.Message
	seq  int
}

func (s *seqMessageStore) append(msg domain.Message) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.SentAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
	s.msgs = append(s.msgs, msg)
	return &msg
}

func (s *seqMessageStore) AppendRoomMessage(_ context.Context, room, from, text string) (*domain.Message, error) {
	return s.append(domain.Message{FromUser: from, Room: room, Text: text}), nil
}

func (s *seqMessageStore) AppendPrivateMessage(_ context.Context, from, to, text string) (*domain.Message, error) {
	return s.append(domain.Message{FromUser: from, ToUser: to, Text: text}), nil
}

func (s *seqMessageStore) recent(match func(domain.Message) bool, limit int) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, 0, limit)
	for i := len(s.msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if match(s.msgs[i]) {
			out = append(out, s.msgs[i])
		}
	}
	return out
}

func (s *seqMessageStore) RecentRoomMessages(_ context.Context, room string, limit int) ([]domain.Message, error) {
	return s.recent(func(m domain.Message) bool { return m.Room == room }, limit), nil
}

func (s *seqMessageStore) RecentPrivateMessages(_ context.Context, userA, userB string, limit int) ([]domain.Message, error) {
	return s.recent(func(m domain.Message) bool {
		return (m.FromUser == userA && m.ToUser == userB) || (m.FromUser == userB && m.ToUser == userA)
	}, limit), nil
}

func setupIntegrationTest(t *testing.T) *httptest.Server {
	t.Helper()

	users := &tokenUserRepository{tokens: map[string]string{
		"alice-token": "alice",
		"bob-token":   "bob",
	}}

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { bus.Close() })

	directory := presence.NewDirectory(bus)
	registry := rooms.NewRegistry([]string{"devops", "sports"})
	coordinator := chat.NewCoordinator(registry, directory, &seqMessageStore{}, bus, 50)
	require.NoError(t, coordinator.Run(context.Background()))

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.GET("/ws", coordinator.Handler(), middleware.Auth(users))

	testServer := httptest.NewServer(e)
	t.Cleanup(testServer.Close)
	return testServer
}

func dialWebSocket(t *testing.T, testServer *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "Failed to connect to websocket")
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read from websocket")

	var frame map[string]any
	require.NoError(t, json.Unmarshal(payload, &frame))
	return frame
}

func readEventNamed(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	frame := readEvent(t, conn)
	require.Equal(t, event, frame["event"])
	return frame
}

// readGreeting consumes the two admission frames. The room catalog and the
// presence snapshot ride different paths, so their order is not fixed.
func readGreeting(t *testing.T, conn *websocket.Conn) map[string]map[string]any {
	t.Helper()
	byName := make(map[string]map[string]any)
	for i := 0; i < 2; i++ {
		frame := readEvent(t, conn)
		byName[frame["event"].(string)] = frame
	}
	require.Contains(t, byName, "rooms:list")
	require.Contains(t, byName, "users:online")
	return byName
}

func writeEvent(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	payload, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

func TestWebSocket_Integration(t *testing.T) {
	testServer := setupIntegrationTest(t)

	t.Run("rejects a connection without a token", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/ws")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("full chat flow over two connections", func(t *testing.T) {
		alice := dialWebSocket(t, testServer, "alice-token")

		greeting := readGreeting(t, alice)
		assert.Equal(t, []any{"devops", "sports"}, greeting["rooms:list"]["rooms"])
		assert.Equal(t, []any{"alice"}, greeting["users:online"]["users"])

		bob := dialWebSocket(t, testServer, "bob-token")
		readGreeting(t, bob)

		// Everyone already online converges on the updated snapshot.
		frame := readEventNamed(t, alice, "users:online")
		assert.Equal(t, []any{"alice", "bob"}, frame["users"])

		writeEvent(t, alice, map[string]any{"event": "room:join", "room": "devops"})
		frame = readEventNamed(t, alice, "room:joined")
		assert.Equal(t, "devops", frame["room"])
		frame = readEventNamed(t, alice, "room:history")
		assert.Empty(t, frame["messages"])

		writeEvent(t, bob, map[string]any{"event": "room:join", "room": "devops"})
		readEventNamed(t, bob, "room:joined")
		readEventNamed(t, bob, "room:history")
		frame = readEventNamed(t, alice, "room:system")
		assert.Equal(t, "bob joined the room", frame["message"])

		writeEvent(t, alice, map[string]any{"event": "room:message", "message": "hello from alice"})
		for _, conn := range []*websocket.Conn{alice, bob} {
			frame = readEventNamed(t, conn, "room:message")
			assert.Equal(t, "hello from alice", frame["message"])
			assert.Equal(t, "alice", frame["from_user"])
		}

		writeEvent(t, bob, map[string]any{"event": "pm:message", "to_user": "alice", "message": "psst"})
		frame = readEventNamed(t, alice, "pm:message")
		assert.Equal(t, "psst", frame["message"])
		assert.Equal(t, "bob", frame["from_user"])

		writeEvent(t, alice, map[string]any{"event": "made:up"})
		frame = readEventNamed(t, alice, "error:msg")
		assert.Equal(t, "Unrecognized event", frame["message"])
	})
}
