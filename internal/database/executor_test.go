package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasLimitClause(t *testing.T) {
	assert.True(t, hasLimitClause("SELECT * FROM message LIMIT 10"))
	assert.True(t, hasLimitClause("select * from message limit 10"))
	assert.True(t, hasLimitClause("SELECT * FROM message ORDER BY date_sent DESC LIMIT $limit"))
	assert.False(t, hasLimitClause("SELECT * FROM message"))
	assert.False(t, hasLimitClause("SELECT unlimited FROM message"))
}
