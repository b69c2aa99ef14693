package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(4)

	bus.PublishNew(EventTypeTaskCreated, "alice", "t1")

	select {
	case event := <-ch:
		assert.Equal(t, EventTypeTaskCreated, event.Type)
		assert.Equal(t, "alice", event.Account)
		assert.Equal(t, "t1", event.TaskID)
		assert.NotEmpty(t, event.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(4)
	bus.Unsubscribe(id)

	// Channel is closed and publishing afterwards is harmless.
	_, open := <-ch
	require.False(t, open)
	bus.PublishNew(EventTypeTaskRemoved, "alice", "t1")
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := New()
	_, slow := bus.Subscribe(1)
	_, fast := bus.Subscribe(4)

	for i := 0; i < 3; i++ {
		bus.PublishNew(EventTypeTaskUpdated, "alice", "t1")
	}

	// The slow subscriber keeps only what its buffer held.
	assert.Len(t, slow, 1)
	assert.Len(t, fast, 3)
}
