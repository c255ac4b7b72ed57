package rooms

import (
	"testing"

	"github.com/nfrund/parley/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewRegistry(t *testing.T) {
	t.Run("preserves configuration order", func(t *testing.T) {
		r := NewRegistry([]string{"devops", "sports", "gaming"})
		assert.Equal(t, []string{"devops", "sports", "gaming"}, r.Names())
	})

	t.Run("trims and drops empty entries", func(t *testing.T) {
		r := NewRegistry([]string{" devops ", "", "  ", "sports"})
		assert.Equal(t, []string{"devops", "sports"}, r.Names())
	})

	t.Run("drops duplicates keeping the first", func(t *testing.T) {
		r := NewRegistry([]string{"devops", "sports", "devops"})
		assert.Equal(t, []string{"devops", "sports"}, r.Names())
	})
}

func TestRegistry_IsValid(t *testing.T) {
	r := NewRegistry([]string{"devops", "cloud computing"})

	assert.True(t, r.IsValid("devops"))
	assert.True(t, r.IsValid("cloud computing"))
	assert.False(t, r.IsValid("backchannel"))
	assert.False(t, r.IsValid(""))
	assert.False(t, r.IsValid("Devops"))
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry([]string{"devops"})

	assert.NoError(t, r.Validate("devops"))
	assert.ErrorIs(t, r.Validate("backchannel"), domain.ErrInvalidRoom)
	assert.ErrorIs(t, r.Validate(""), domain.ErrInvalidRoom)
}

func TestRegistry_NamesReturnsCopy(t *testing.T) {
	r := NewRegistry([]string{"devops", "sports"})

	names := r.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"devops", "sports"}, r.Names())
}
