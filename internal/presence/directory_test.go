package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/nfrund/parley/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mu        sync.Mutex
	published []pubsub.Message
}

func (m *mockPublisher) Publish(_ context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, msg)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func (m *mockPublisher) lastSnapshot(t *testing.T) Snapshot {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.published)
	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(m.published[len(m.published)-1].Payload, &snapshot))
	return snapshot
}

type fakeHandle struct{ name string }

func (h *fakeHandle) Deliver([]byte) {}

func TestDirectory_Register(t *testing.T) {
	t.Run("publishes a sorted snapshot per registration", func(t *testing.T) {
		pub := &mockPublisher{}
		dir := NewDirectory(pub)

		dir.Register("carol", &fakeHandle{name: "carol"})
		dir.Register("alice", &fakeHandle{name: "alice"})
		dir.Register("bob", &fakeHandle{name: "bob"})

		assert.Equal(t, 3, pub.count())
		assert.Equal(t, []string{"alice", "bob", "carol"}, pub.lastSnapshot(t).Users)
		assert.Equal(t, []string{"alice", "bob", "carol"}, dir.Online())
	})

	t.Run("same username replaces the prior handle", func(t *testing.T) {
		pub := &mockPublisher{}
		dir := NewDirectory(pub)
		first := &fakeHandle{name: "first"}
		second := &fakeHandle{name: "second"}

		dir.Register("alice", first)
		dir.Register("alice", second)

		h, ok := dir.Lookup("alice")
		require.True(t, ok)
		assert.Same(t, second, h)
		// No duplicate entries, but each effective mutation still publishes.
		assert.Equal(t, []string{"alice"}, pub.lastSnapshot(t).Users)
		assert.Equal(t, 2, pub.count())
	})
}

func TestDirectory_Unregister(t *testing.T) {
	t.Run("removes the entry and publishes", func(t *testing.T) {
		pub := &mockPublisher{}
		dir := NewDirectory(pub)
		h := &fakeHandle{name: "alice"}

		dir.Register("alice", h)
		dir.Unregister("alice", h)

		_, ok := dir.Lookup("alice")
		assert.False(t, ok)
		assert.Empty(t, pub.lastSnapshot(t).Users)
		assert.Equal(t, 2, pub.count())
	})

	t.Run("stale handle does not evict a newer connection", func(t *testing.T) {
		pub := &mockPublisher{}
		dir := NewDirectory(pub)
		old := &fakeHandle{name: "old"}
		replacement := &fakeHandle{name: "new"}

		dir.Register("alice", old)
		dir.Register("alice", replacement)
		before := pub.count()

		dir.Unregister("alice", old)

		h, ok := dir.Lookup("alice")
		require.True(t, ok)
		assert.Same(t, replacement, h)
		// An ineffective unregister publishes nothing.
		assert.Equal(t, before, pub.count())
	})

	t.Run("unknown username is a no-op", func(t *testing.T) {
		pub := &mockPublisher{}
		dir := NewDirectory(pub)

		dir.Unregister("ghost", &fakeHandle{})

		assert.Zero(t, pub.count())
	})
}

func TestDirectory_Concurrency(t *testing.T) {
	pub := &mockPublisher{}
	dir := NewDirectory(pub)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user%02d", i)
			h := &fakeHandle{name: name}
			dir.Register(name, h)
			if i%2 == 0 {
				dir.Unregister(name, h)
			}
		}(i)
	}
	wg.Wait()

	online := dir.Online()
	assert.Len(t, online, 25)
	assert.IsIncreasing(t, online)
}
