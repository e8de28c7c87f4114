package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestRateLimit_Allow(t *testing.T) {
	// Arrange
	now := time.Unix(1_700_000_000, 0)
	r := New(1, 2, slog.Default())
	r.now = func() time.Time { return now }

	// Act & Assert
	assert.True(t, r.Allow("u1"))
	assert.True(t, r.Allow("u1"))
	assert.False(t, r.Allow("u1"), "burst exhausted")
	assert.True(t, r.Allow("u2"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, r.Allow("u1"), "token refilled")
}

func TestRateLimit_EvictsIdle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := New(1, 1, slog.Default())
	r.now = func() time.Time { return now }

	r.Allow("u1")
	now = now.Add(time.Hour)
	r.Allow("u2")

	assert.Len(t, r.visitors, 1)
	assert.Contains(t, r.visitors, "u2")
}
