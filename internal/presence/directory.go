package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/nfrund/parley/internal/pubsub"
)

// TopicUsersChanged carries the sorted online-users snapshot. Published on
// every effective mutation of the directory; the coordinator subscribes and
// fans the snapshot out to every connected session.
const TopicUsersChanged = "presence.users.changed"

// Handle is the live connection registered for a user. The directory never
// inspects it; it only stores it for lookup and compares it on unregister.
type Handle interface {
	// Deliver queues an outbound payload for the connection. It must not block.
	Deliver(payload []byte)
}

// Snapshot is the payload published on TopicUsersChanged.
type Snapshot struct {
	Users []string `json:"users"`
}

// Directory is the source of truth for who is online. It maps a username to
// exactly one live connection handle: a second connection under the same
// username replaces the prior entry silently (last-connected-wins, no
// forced-disconnect signal to the superseded connection).
type Directory struct {
	mu        sync.RWMutex
	entries   map[string]Handle
	publisher pubsub.Publisher
	logger    *slog.Logger
}

// NewDirectory creates a Directory that publishes online-set changes to the
// given publisher.
func NewDirectory(publisher pubsub.Publisher) *Directory {
	return &Directory{
		entries:   make(map[string]Handle),
		publisher: publisher,
		logger:    slog.Default().With("service", "presence"),
	}
}

// Register inserts or replaces the entry for username. It cannot fail; a
// same-named prior entry is evicted without notification.
func (d *Directory) Register(username string, h Handle) {
	d.mu.Lock()
	if _, replaced := d.entries[username]; replaced {
		d.logger.Info("Superseding existing connection", "username", username)
	}
	d.entries[username] = h
	snapshot := d.onlineLocked()
	d.mu.Unlock()

	d.publishSnapshot(snapshot)
}

// Unregister removes the entry for username only if the stored handle is
// still h. This guards against a stale disconnect racing a newer
// connection's Register: the newer entry must survive.
func (d *Directory) Unregister(username string, h Handle) {
	d.mu.Lock()
	current, ok := d.entries[username]
	if !ok || current != h {
		d.mu.Unlock()
		d.logger.Debug("Ignoring stale unregister", "username", username)
		return
	}
	delete(d.entries, username)
	snapshot := d.onlineLocked()
	d.mu.Unlock()

	d.publishSnapshot(snapshot)
}

// Lookup returns the current handle for username.
func (d *Directory) Lookup(username string) (Handle, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.entries[username]
	return h, ok
}

// Online returns a lexicographically sorted snapshot of the usernames
// currently registered.
func (d *Directory) Online() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.onlineLocked()
}

func (d *Directory) onlineLocked() []string {
	users := make([]string, 0, len(d.entries))
	for username := range d.entries {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

func (d *Directory) publishSnapshot(users []string) {
	payload, err := json.Marshal(Snapshot{Users: users})
	if err != nil {
		d.logger.Error("Failed to marshal presence snapshot", "error", err)
		return
	}

	msg := pubsub.Message{
		Topic:   TopicUsersChanged,
		Payload: payload,
	}
	if err := d.publisher.Publish(context.Background(), msg); err != nil {
		d.logger.Error("Failed to publish presence snapshot",
			"error", err,
			"topic", TopicUsersChanged)
	}
}
