package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/presence"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/rooms"
)

// Coordinator owns the presence directory and room registry, wires every
// session to them, and is the only component that performs cross-connection
// broadcast. Fan-out target sets are computed on demand from the live
// session set, never cached, so a dead connection can never be a dangling
// broadcast target.
type Coordinator struct {
	registry     *rooms.Registry
	directory    *presence.Directory
	store        domain.MessageRepository
	subscriber   pubsub.Subscriber
	historyLimit int
	logger       *slog.Logger

	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// NewCoordinator wires the coordinator to its collaborators. Run must be
// called before connections are admitted.
func NewCoordinator(registry *rooms.Registry, directory *presence.Directory,
	store domain.MessageRepository, subscriber pubsub.Subscriber, historyLimit int) *Coordinator {
	return &Coordinator{
		registry:     registry,
		directory:    directory,
		store:        store,
		subscriber:   subscriber,
		historyLimit: historyLimit,
		logger:       slog.Default().With("service", "chat"),
		sessions:     make(map[*Session]struct{}),
	}
}

// Run subscribes the coordinator to presence snapshots. Every effective
// directory mutation produces one users:online broadcast, in publish order.
func (c *Coordinator) Run(ctx context.Context) error {
	return c.subscriber.Subscribe(ctx, presence.TopicUsersChanged, func(ctx context.Context, msg pubsub.Message) error {
		var snapshot presence.Snapshot
		if err := json.Unmarshal(msg.Payload, &snapshot); err != nil {
			c.logger.Error("Failed to unmarshal presence snapshot", "error", err)
			return err
		}
		c.broadcastAll(eventOnlineUsers(snapshot.Users))
		return nil
	})
}

// Admit registers a freshly authenticated connection. The caller is
// responsible for starting the session's pumps. Admission sends the fixed
// room catalog to the new connection; registering presence triggers the
// online-users broadcast to everyone, the new connection included.
func (c *Coordinator) Admit(conn *websocket.Conn, username string) *Session {
	s := newSession(conn, username, c)

	c.mu.Lock()
	c.sessions[s] = struct{}{}
	c.mu.Unlock()

	c.directory.Register(username, s)
	s.Deliver(eventRoomsList(c.registry.Names()))

	c.logger.Info("Connection admitted", "username", username, "session_id", s.id)
	return s
}

// Disconnect runs the terminal transition for a session: drop it from the
// live set, release its presence entry (guarded against a newer connection
// having superseded it), and tell its room it left.
func (c *Coordinator) Disconnect(s *Session) {
	c.mu.Lock()
	if _, ok := c.sessions[s]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.sessions, s)
	c.mu.Unlock()

	c.directory.Unregister(s.username, s)

	if room := s.Room(); room != "" {
		c.notifyRoom(room, eventRoomSystem(room, s.username+" left the room"), s)
	}

	s.close()
	c.logger.Info("Connection closed", "username", s.username, "session_id", s.id)
}

// Dispatch applies one inbound command to the session that issued it.
// Commands arrive on the session's read goroutine, so per-session state has
// a single writer; only store calls can block, and they never hold a lock.
func (c *Coordinator) Dispatch(ctx context.Context, s *Session, cmd Command) {
	switch v := cmd.(type) {
	case JoinRoomCommand:
		c.joinRoom(ctx, s, v.Room)
	case LeaveRoomCommand:
		c.leaveRoom(s)
	case SendRoomMessageCommand:
		c.sendRoomMessage(ctx, s, v.Text)
	case RoomTypingCommand:
		c.roomTyping(s, v.IsTyping)
	case OpenPrivateCommand:
		c.openPrivate(ctx, s, v.WithUser)
	case SendPrivateMessageCommand:
		c.sendPrivateMessage(ctx, s, v.ToUser, v.Text)
	case PrivateTypingCommand:
		c.privateTyping(s, v.ToUser, v.IsTyping)
	}
}

func (c *Coordinator) joinRoom(ctx context.Context, s *Session, name string) {
	name = strings.TrimSpace(name)
	if err := c.registry.Validate(name); err != nil {
		c.logger.Debug("Rejected room join", "room", name, "error", err)
		s.Deliver(eventError("Invalid room"))
		return
	}

	if old := s.Room(); old != "" {
		s.setRoom("")
		c.notifyRoom(old, eventRoomSystem(old, s.username+" left the room"), s)
	}

	s.setRoom(name)
	s.Deliver(eventRoomJoined(name))
	c.notifyRoom(name, eventRoomSystem(name, s.username+" joined the room"), s)

	history, err := c.store.RecentRoomMessages(ctx, name, c.historyLimit)
	if err != nil {
		c.logger.Error("Failed to load room history", "room", name, "error", err)
		s.Deliver(eventError("Failed to load room history"))
		return
	}
	s.Deliver(eventRoomHistory(reverseMessages(history)))
}

func (c *Coordinator) leaveRoom(s *Session) {
	room := s.Room()
	if room == "" {
		return
	}
	s.setRoom("")
	c.notifyRoom(room, eventRoomSystem(room, s.username+" left the room"), s)
	s.Deliver(eventRoomLeft())
}

func (c *Coordinator) sendRoomMessage(ctx context.Context, s *Session, text string) {
	room := s.Room()
	if room == "" {
		s.Deliver(eventError("Join a room first"))
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	msg, err := c.store.AppendRoomMessage(ctx, room, s.username, text)
	if err != nil {
		c.logger.Error("Failed to persist room message", "room", room, "error", err)
		s.Deliver(eventError("Failed to send message"))
		return
	}

	// Round-trip confirmation: the sender receives its own message through
	// the same broadcast as everyone else.
	payload := eventRoomMessage(msg)
	for _, member := range c.sessionsInRoom(room, nil) {
		member.Deliver(payload)
	}
}

func (c *Coordinator) openPrivate(ctx context.Context, s *Session, withUser string) {
	other := strings.TrimSpace(withUser)
	if other == "" {
		return
	}

	key, err := ChannelKey(s.username, other)
	if err != nil {
		return
	}
	s.setPrivate(other, key)

	history, err := c.store.RecentPrivateMessages(ctx, s.username, other, c.historyLimit)
	if err != nil {
		c.logger.Error("Failed to load private history", "channel", key, "error", err)
		s.Deliver(eventError("Failed to load PM history"))
		return
	}
	s.Deliver(eventPMHistory(reverseMessages(history)))
}

func (c *Coordinator) sendPrivateMessage(ctx context.Context, s *Session, toUser, text string) {
	to := strings.TrimSpace(toUser)
	text = strings.TrimSpace(text)
	if to == "" || text == "" {
		return
	}

	msg, err := c.store.AppendPrivateMessage(ctx, s.username, to, text)
	if err != nil {
		c.logger.Error("Failed to persist private message", "to_user", to, "error", err)
		s.Deliver(eventError("Failed to send private message"))
		return
	}

	key, err := ChannelKey(s.username, to)
	if err != nil {
		return
	}

	// Dual-path delivery: every session with this thread open sees the
	// message live, and the peer's primary connection is notified even if
	// the thread is not open there. A session is never delivered twice.
	targets := make(map[*Session]struct{})
	for _, listener := range c.sessionsOnChannel(key, nil) {
		targets[listener] = struct{}{}
	}
	if h, ok := c.directory.Lookup(to); ok {
		if peer, ok := h.(*Session); ok {
			targets[peer] = struct{}{}
		}
	}

	payload := eventPMMessage(msg)
	for target := range targets {
		target.Deliver(payload)
	}
}

func (c *Coordinator) roomTyping(s *Session, isTyping bool) {
	room := s.Room()
	if room == "" {
		return
	}
	c.notifyRoom(room, eventRoomTyping(room, s.username, isTyping), s)
}

func (c *Coordinator) privateTyping(s *Session, toUser string, isTyping bool) {
	to := strings.TrimSpace(toUser)
	if to == "" {
		return
	}
	key, err := ChannelKey(s.username, to)
	if err != nil {
		return
	}
	// Typing is advisory: it only reaches listeners with this exact thread
	// open, never the peer's primary connection.
	payload := eventPMTyping(s.username, isTyping)
	for _, listener := range c.sessionsOnChannel(key, s) {
		listener.Deliver(payload)
	}
}

// broadcastAll delivers a payload to every connected session.
func (c *Coordinator) broadcastAll(payload []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for s := range c.sessions {
		s.Deliver(payload)
	}
}

// notifyRoom delivers a payload to every session in the room except the one
// given.
func (c *Coordinator) notifyRoom(room string, payload []byte, except *Session) {
	for _, member := range c.sessionsInRoom(room, except) {
		member.Deliver(payload)
	}
}

// sessionsInRoom snapshots the sessions currently in the room.
func (c *Coordinator) sessionsInRoom(room string, except *Session) []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var members []*Session
	for s := range c.sessions {
		if s != except && s.Room() == room {
			members = append(members, s)
		}
	}
	return members
}

// sessionsOnChannel snapshots the sessions whose private focus is the given
// channel key.
func (c *Coordinator) sessionsOnChannel(key string, except *Session) []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var listeners []*Session
	for s := range c.sessions {
		if s != except && s.ChannelKey() == key {
			listeners = append(listeners, s)
		}
	}
	return listeners
}
