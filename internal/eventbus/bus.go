package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventTypeTaskCreated   EventType = "task.created"
	EventTypeTaskUpdated   EventType = "task.updated"
	EventTypeTaskRemoved   EventType = "task.removed"
	EventTypeTaskAssigned  EventType = "task.assigned"
	EventTypeTaskCompleted EventType = "task.completed"
	EventTypeTaskAccepted  EventType = "task.accepted"
	EventTypeTaskRejected  EventType = "task.rejected"
)

// Event records one successful engine operation: who acted and on which task.
type Event struct {
	ID        string    `json:"id" yaml:"id"`
	Type      EventType `json:"type" yaml:"type"`
	Account   string    `json:"account" yaml:"account"`
	TaskID    string    `json:"task_id" yaml:"task_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, account, taskID string) {
	b.Publish(&Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Account:   account,
		TaskID:    taskID,
		CreatedAt: time.Now(),
	})
}
