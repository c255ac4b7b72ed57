package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nfrund/parley/internal/domain"
)

// Inbound event names accepted over the WebSocket. The set is closed: any
// other event name is rejected with an advisory error rather than silently
// ignored.
const (
	evtJoinRoom      = "room:join"
	evtLeaveRoom     = "room:leave"
	evtRoomMessage   = "room:message"
	evtRoomTyping    = "room:typing"
	evtOpenPrivate   = "pm:open"
	evtPrivateMsg    = "pm:message"
	evtPrivateTyping = "pm:typing"
)

// Outbound event names.
const (
	evtRoomsList    = "rooms:list"
	evtOnlineUsers  = "users:online"
	evtRoomJoined   = "room:joined"
	evtRoomLeft     = "room:left"
	evtRoomSystem   = "room:system"
	evtRoomHistory  = "room:history"
	evtPMHistory    = "pm:history"
	evtErrorMsg     = "error:msg"
)

// Command is a decoded inbound event. The variants form a closed set,
// matched exhaustively by the coordinator.
type Command interface {
	isCommand()
}

type JoinRoomCommand struct{ Room string }
type LeaveRoomCommand struct{}
type SendRoomMessageCommand struct{ Text string }
type RoomTypingCommand struct{ IsTyping bool }
type OpenPrivateCommand struct{ WithUser string }
type SendPrivateMessageCommand struct {
	ToUser string
	Text   string
}
type PrivateTypingCommand struct {
	ToUser   string
	IsTyping bool
}

func (JoinRoomCommand) isCommand()           {}
func (LeaveRoomCommand) isCommand()          {}
func (SendRoomMessageCommand) isCommand()    {}
func (RoomTypingCommand) isCommand()         {}
func (OpenPrivateCommand) isCommand()        {}
func (SendPrivateMessageCommand) isCommand() {}
func (PrivateTypingCommand) isCommand()      {}

// inboundFrame is the superset of fields a client may send. Field names
// follow the wire protocol.
type inboundFrame struct {
	Event    string `json:"event"`
	Room     string `json:"room"`
	WithUser string `json:"with_user"`
	ToUser   string `json:"to_user"`
	Message  string `json:"message"`
	IsTyping bool   `json:"isTyping"`
}

// DecodeCommand parses a raw inbound frame into its command variant.
func DecodeCommand(raw []byte) (Command, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch frame.Event {
	case evtJoinRoom:
		return JoinRoomCommand{Room: frame.Room}, nil
	case evtLeaveRoom:
		return LeaveRoomCommand{}, nil
	case evtRoomMessage:
		return SendRoomMessageCommand{Text: frame.Message}, nil
	case evtRoomTyping:
		return RoomTypingCommand{IsTyping: frame.IsTyping}, nil
	case evtOpenPrivate:
		return OpenPrivateCommand{WithUser: frame.WithUser}, nil
	case evtPrivateMsg:
		return SendPrivateMessageCommand{ToUser: frame.ToUser, Text: frame.Message}, nil
	case evtPrivateTyping:
		return PrivateTypingCommand{ToUser: frame.ToUser, IsTyping: frame.IsTyping}, nil
	default:
		return nil, fmt.Errorf("unrecognized event %q", frame.Event)
	}
}

// marshalEvent serializes an outbound frame. A marshal failure here is a
// programming error; it is logged and an empty frame is dropped by callers.
func marshalEvent(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal outbound event", "error", err)
		return nil
	}
	return payload
}

func eventRoomsList(names []string) []byte {
	return marshalEvent(struct {
		Event string   `json:"event"`
		Rooms []string `json:"rooms"`
	}{evtRoomsList, names})
}

func eventOnlineUsers(users []string) []byte {
	return marshalEvent(struct {
		Event string   `json:"event"`
		Users []string `json:"users"`
	}{evtOnlineUsers, users})
}

func eventRoomJoined(room string) []byte {
	return marshalEvent(struct {
		Event string `json:"event"`
		Room  string `json:"room"`
	}{evtRoomJoined, room})
}

func eventRoomLeft() []byte {
	return marshalEvent(struct {
		Event string `json:"event"`
	}{evtRoomLeft})
}

func eventRoomSystem(room, text string) []byte {
	return marshalEvent(struct {
		Event string `json:"event"`
		Room  string `json:"room"`
		Text  string `json:"message"`
	}{evtRoomSystem, room, text})
}

func eventRoomHistory(messages []domain.Message) []byte {
	return marshalEvent(struct {
		Event    string           `json:"event"`
		Messages []domain.Message `json:"messages"`
	}{evtRoomHistory, messages})
}

func eventRoomMessage(msg *domain.Message) []byte {
	return marshalEvent(struct {
		Event string `json:"event"`
		*domain.Message
	}{evtRoomMessage, msg})
}

func eventRoomTyping(room, fromUser string, isTyping bool) []byte {
	return marshalEvent(struct {
		Event    string `json:"event"`
		Room     string `json:"room"`
		FromUser string `json:"from_user"`
		IsTyping bool   `json:"isTyping"`
	}{evtRoomTyping, room, fromUser, isTyping})
}

func eventPMHistory(messages []domain.Message) []byte {
	return marshalEvent(struct {
		Event    string           `json:"event"`
		Messages []domain.Message `json:"messages"`
	}{evtPMHistory, messages})
}

func eventPMMessage(msg *domain.Message) []byte {
	return marshalEvent(struct {
		Event string `json:"event"`
		*domain.Message
	}{evtPrivateMsg, msg})
}

func eventPMTyping(fromUser string, isTyping bool) []byte {
	return marshalEvent(struct {
		Event    string `json:"event"`
		FromUser string `json:"from_user"`
		IsTyping bool   `json:"isTyping"`
	}{evtPrivateTyping, fromUser, isTyping})
}

func eventError(text string) []byte {
	return marshalEvent(struct {
		Event string `json:"event"`
		Text  string `json:"message"`
	}{evtErrorMsg, text})
}

// reverseMessages flips a newest-first fetch into chronological order for
// history delivery.
func reverseMessages(messages []domain.Message) []domain.Message {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}
