package chat

import (
	"strings"

	"github.com/nfrund/parley/internal/domain"
)

const (
	channelPrefix    = "pm:"
	channelSeparator = "__"
)

// ChannelKey derives the canonical identifier for the private channel
// between two users. The trimmed usernames are sorted lexicographically
// before concatenation, so ChannelKey(a, b) == ChannelKey(b, a) and both
// participants converge on the same addressable key. An identity that is
// empty after trimming is rejected rather than producing a degenerate key.
func ChannelKey(userA, userB string) (string, error) {
	a := strings.TrimSpace(userA)
	b := strings.TrimSpace(userB)
	if a == "" || b == "" {
		return "", domain.ErrEmptyIdentity
	}
	if b < a {
		a, b = b, a
	}
	return channelPrefix + a + channelSeparator + b, nil
}
