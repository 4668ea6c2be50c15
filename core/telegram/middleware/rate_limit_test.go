package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiterSpacesUpdatesPerUser(t *testing.T) {
	u := newUserLimiter(time.Second, time.Minute)
	now := time.Now()

	assert.True(t, u.allow(1, now))
	assert.False(t, u.allow(1, now.Add(200*time.Millisecond)))
	assert.True(t, u.allow(2, now.Add(200*time.Millisecond)), "users are limited independently")
	assert.True(t, u.allow(1, now.Add(1100*time.Millisecond)))
}

func TestUserLimiterSweepsIdleUsers(t *testing.T) {
	u := newUserLimiter(time.Second, time.Minute)
	now := time.Now()

	u.allow(1, now)
	u.allow(2, now)
	u.allow(3, now.Add(2*time.Minute))

	assert.Len(t, u.buckets, 1)
}
