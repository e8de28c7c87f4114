package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

func TestHub_PublishFiltersByOwner(t *testing.T) {
	hub := NewHub(4, slog.Default())
	mine := hub.Subscribe("u1")
	other := hub.Subscribe("u2")
	defer mine.Close()
	defer other.Close()

	hub.Publish(Notification{UserID: "u1", Change: hydration.Change{Type: hydration.ChangeDelete, ID: "u1-1000-bottle"}})

	require.Len(t, mine.C, 1)
	assert.Equal(t, "u1-1000-bottle", (<-mine.C).ID)
	assert.Len(t, other.C, 0)
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	hub := NewHub(1, slog.Default())
	s := hub.Subscribe("u1")

	hub.Publish(Notification{UserID: "u1", Change: hydration.Change{Type: hydration.ChangeInsert, ID: "a"}})
	hub.Publish(Notification{UserID: "u1", Change: hydration.Change{Type: hydration.ChangeInsert, ID: "b"}})

	first, ok := <-s.C
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)
	_, ok = <-s.C
	assert.False(t, ok, "канал должен быть закрыт")
	assert.Zero(t, hub.Subscribers("u1"))

	s.Close()
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	hub := NewHub(0, slog.Default())
	s := hub.Subscribe("u1")
	assert.Equal(t, 1, hub.Subscribers("u1"))

	s.Close()
	s.Close()

	assert.Zero(t, hub.Subscribers("u1"))
	hub.Publish(Notification{UserID: "u1", Change: hydration.Change{ID: "x"}})
}
