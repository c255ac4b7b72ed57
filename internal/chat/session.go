package chat

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// sendBufferSize bounds each session's outbound queue. A session that falls
// this far behind has its frames dropped rather than stalling the sender.
const sendBufferSize = 256

const writeTimeout = 10 * time.Second

// Session is the per-connection state machine. The username is immutable
// for the session lifetime; the current room and private-channel focus are
// mutated only by this connection's own command stream, and read by the
// coordinator during fan-out.
type Session struct {
	id       string
	username string
	conn     *websocket.Conn
	send     chan []byte
	coord    *Coordinator

	mu         sync.RWMutex
	room       string
	peer       string
	channelKey string
	closed     bool
}

func newSession(conn *websocket.Conn, username string, coord *Coordinator) *Session {
	return &Session{
		id:       uuid.NewString(),
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		coord:    coord,
	}
}

// Username returns the verified identity this session was admitted with.
func (s *Session) Username() string { return s.username }

// Room returns the shared room this session is currently in, or "".
func (s *Session) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *Session) setRoom(room string) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
}

// Peer returns the other party of the open private channel, or "".
func (s *Session) Peer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peer
}

// ChannelKey returns the canonical key of the open private channel, or "".
func (s *Session) ChannelKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelKey
}

// setPrivate switches the session's private-channel focus. Replacing an
// earlier focus needs no notice: private channels have no membership events,
// only message delivery.
func (s *Session) setPrivate(peer, key string) {
	s.mu.Lock()
	s.peer = peer
	s.channelKey = key
	s.mu.Unlock()
}

// Deliver queues an outbound payload for this session without blocking.
// If the client's send buffer is full the frame is dropped. Fan-out targets
// are snapshotted before delivery, so a target may have disconnected in the
// meantime; the closed check and the channel close share s.mu, making a
// late Deliver a silent no-op rather than a send on a closed channel.
func (s *Session) Deliver(payload []byte) {
	if payload == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.send <- payload:
	default:
		slog.Warn("Session send buffer full, dropping frame",
			"session_id", s.id,
			"username", s.username)
	}
}

// close shuts the outbound queue, releasing writePump. Idempotent.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// readPump pumps frames from the WebSocket connection into the coordinator.
// There is at most one reader per connection; all session state transitions
// happen on this goroutine.
func (s *Session) readPump() {
	defer func() {
		s.coord.Disconnect(s)
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, raw, err := s.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally", "username", s.username)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "username", s.username, "error", err)
			}
			return
		}

		cmd, err := DecodeCommand(raw)
		if err != nil {
			slog.Debug("Rejected inbound frame", "username", s.username, "error", err)
			s.Deliver(eventError("Unrecognized event"))
			continue
		}

		s.coord.Dispatch(context.Background(), s, cmd)
	}
}

// writePump pumps queued payloads to the WebSocket connection. It exits when
// the send channel is closed by the coordinator or a write fails.
func (s *Session) writePump() {
	defer s.conn.Close(websocket.StatusNormalClosure, "")

	for payload := range s.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "username", s.username, "error", err)
			return
		}
	}
}
