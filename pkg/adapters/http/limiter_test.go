package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0, 1))
	var disabled *Limiter
	assert.True(t, disabled.Allow("s1", time.Now()))

	l := NewLimiter(1, 2)
	now := time.Now()
	assert.True(t, l.Allow("s1", now))
	assert.True(t, l.Allow("s1", now))
	assert.False(t, l.Allow("s1", now))
	assert.True(t, l.Allow("s2", now))
	assert.True(t, l.Allow("s1", now.Add(time.Second)))
}
