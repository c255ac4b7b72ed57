package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nfrund/parley/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// sentAtFormat is a fixed-width UTC timestamp layout: unlike RFC3339Nano it
// never trims trailing zeros, so the string ordering SurrealDB applies in
// ORDER BY matches chronological ordering.
const sentAtFormat = "2006-01-02T15:04:05.000000000Z"

// messageRecord is the persisted shape of a message. SentAt travels as a
// string so the record round-trips without driver-specific time handling.
type messageRecord struct {
	ID       string `json:"id,omitempty"`
	FromUser string `json:"from_user"`
	Room     string `json:"room,omitempty"`
	ToUser   string `json:"to_user,omitempty"`
	Text     string `json:"message"`
	SentAt   string `json:"date_sent"`
}

func (r messageRecord) toDomain() (domain.Message, error) {
	sentAt, err := time.Parse(sentAtFormat, r.SentAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("invalid date_sent %q: %w", r.SentAt, err)
	}
	return domain.Message{
		ID:       r.ID,
		FromUser: r.FromUser,
		Room:     r.Room,
		ToUser:   r.ToUser,
		Text:     r.Text,
		SentAt:   sentAt,
	}, nil
}

// SurrealMessageStore implements domain.MessageRepository on SurrealDB.
// SentAt is assigned here, at append time, never taken from the client, so
// ordering within a room or a pair follows persistence order.
type SurrealMessageStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealMessageStore creates a new SurrealMessageStore.
func NewSurrealMessageStore(db *surrealdb.DB, ns, dbName string) *SurrealMessageStore {
	return &SurrealMessageStore{db: db, ns: ns, dbName: dbName}
}

func (s *SurrealMessageStore) use(ctx context.Context) error {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return fmt.Errorf("failed to set database scope: %w", err)
	}
	return nil
}

// AppendRoomMessage persists a room message and returns it with its assigned
// timestamp.
func (s *SurrealMessageStore) AppendRoomMessage(ctx context.Context, room, from, text string) (*domain.Message, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	query := `CREATE message SET
		from_user = $from,
		room = $room,
		message = $text,
		date_sent = $sent_at
	RETURN AFTER`
	params := map[string]any{
		"from":    from,
		"room":    room,
		"text":    text,
		"sent_at": time.Now().UTC().Format(sentAtFormat),
	}

	return s.createMessage(ctx, query, params)
}

// AppendPrivateMessage persists a private message attributed from -> to.
func (s *SurrealMessageStore) AppendPrivateMessage(ctx context.Context, from, to, text string) (*domain.Message, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	query := `CREATE message SET
		from_user = $from,
		to_user = $to,
		message = $text,
		date_sent = $sent_at
	RETURN AFTER`
	params := map[string]any{
		"from":    from,
		"to":      to,
		"text":    text,
		"sent_at": time.Now().UTC().Format(sentAtFormat),
	}

	return s.createMessage(ctx, query, params)
}

func (s *SurrealMessageStore) createMessage(ctx context.Context, query string, params map[string]any) (*domain.Message, error) {
	record, err := QueryOne[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("message was not created or could not be fetched")
	}

	msg, err := record.toDomain()
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// RecentRoomMessages returns the most recent messages for a room, newest
// first. Callers reverse for chronological delivery.
func (s *SurrealMessageStore) RecentRoomMessages(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	query := `SELECT * FROM message WHERE room = $room ORDER BY date_sent DESC LIMIT $limit`
	params := map[string]any{"room": room, "limit": limit}

	return s.queryMessages(ctx, query, params)
}

// RecentPrivateMessages returns the most recent messages between the
// unordered pair {userA, userB}, matched in either direction, newest first.
func (s *SurrealMessageStore) RecentPrivateMessages(ctx context.Context, userA, userB string, limit int) ([]domain.Message, error) {
	if err := s.use(ctx); err != nil {
		return nil, err
	}

	query := `SELECT * FROM message WHERE
		(from_user = $a AND to_user = $b) OR (from_user = $b AND to_user = $a)
	ORDER BY date_sent DESC LIMIT $limit`
	params := map[string]any{"a": userA, "b": userB, "limit": limit}

	return s.queryMessages(ctx, query, params)
}

func (s *SurrealMessageStore) queryMessages(ctx context.Context, query string, params map[string]any) ([]domain.Message, error) {
	records, err := Query[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(records))
	for _, record := range records {
		msg, err := record.toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
