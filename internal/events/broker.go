// Package events carries board changes to in-process subscribers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"TokenBoard/internal/model"
)

const subscriberBufSize = 256

// Event types published by the board.
const (
	TypeTokenAdded   = "token.added"
	TypeTokenUpdated = "token.updated"
	TypeTokenRemoved = "token.removed"
)

// Event is a single board change.
type Event struct {
	ID      uuid.UUID    `json:"id"`
	Type    string       `json:"type"`
	Address string       `json:"address"`
	Token   *model.Token `json:"token,omitempty"`
	At      time.Time    `json:"at"`
}

// NewEvent stamps an event with a fresh ID and the current time. The token
// is cloned so subscribers never share state with the board.
func NewEvent(typ string, tok model.Token) Event {
	c := tok.Clone()
	return Event{
		ID:      uuid.New(),
		Type:    typ,
		Address: tok.Address,
		Token:   &c,
		At:      time.Now(),
	}
}

// Broker fans out events to all subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Event
	nextID      atomic.Int64
	dropped     atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan Event),
	}
}

// Subscribe registers a new subscriber. The channel is buffered; slow
// consumers will have events dropped.
func (b *Broker) Subscribe() (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers without blocking.
func (b *Broker) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broker) Dropped() int64 { return b.dropped.Load() }

// Close unsubscribes everyone.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
