package domain

import (
	"context"
	"time"
)

// Message is a persisted chat message. Exactly one of Room or ToUser is set:
// Room for messages addressed to a shared room, ToUser for private messages.
// SentAt is assigned by the message store at append time, never by the
// client, so ordering within a room or a pair follows persistence order.
type Message struct {
	ID       string    `json:"id,omitempty"`
	FromUser string    `json:"from_user"`
	Room     string    `json:"room,omitempty"`
	ToUser   string    `json:"to_user,omitempty"`
	Text     string    `json:"message"`
	SentAt   time.Time `json:"date_sent"`
}

// MessageRepository is the gateway to the external message store. Recent*
// queries return messages newest first; callers reverse for chronological
// delivery.
type MessageRepository interface {
	AppendRoomMessage(ctx context.Context, room, from, text string) (*Message, error)
	AppendPrivateMessage(ctx context.Context, from, to, text string) (*Message, error)
	RecentRoomMessages(ctx context.Context, room string, limit int) ([]Message, error)
	RecentPrivateMessages(ctx context.Context, userA, userB string, limit int) ([]Message, error)
}
