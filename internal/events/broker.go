// Package events fans recorded check results out to live subscribers.
package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"pagewatch/internal/storage"
)

// CheckEvent announces a newly recorded PageCheck.
type CheckEvent struct {
	// UserID owns the website of the checked page; events are only
	// delivered to that user's subscriptions
	UserID uint `json:"-"`

	PageURL string            `json:"page_url"`
	Check   storage.PageCheck `json:"check"`
}

// Broker delivers events to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses the event.
type Broker struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// Subscription receives the events of one user.
type Subscription struct {
	C <-chan CheckEvent

	ch     chan CheckEvent
	userID uint
	broker *Broker
	once   sync.Once
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a subscription for userID with the given buffer size.
func (b *Broker) Subscribe(userID uint, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan CheckEvent, buffer)
	sub := &Subscription{C: ch, ch: ch, userID: userID, broker: b}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Close unregisters the subscription and closes its channel. It is safe to
// call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s)
		s.broker.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers ev to every subscription of ev.UserID.
func (b *Broker) Publish(ev CheckEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		if sub.userID != ev.UserID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			log.Debug().
				Uint("user_id", ev.UserID).
				Uint("page_id", ev.Check.PageID).
				Msg("Live subscriber too slow, dropping event")
		}
	}
}

// HasSubscribers reports whether anyone is listening.
func (b *Broker) HasSubscribers() bool {
	return b.SubscriberCount() > 0
}

// SubscriberCount returns the number of open subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
