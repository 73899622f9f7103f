// Package events provides the in-process session state broadcaster. It exists
// to decouple the expiry recovery layer, buried under the transport, from the
// session controller at the top of the application, without threading
// callbacks through every layer in between.
package events

import "sync"

// TopicLogout is the single signal the session subsystem publishes.
const TopicLogout = "auth:logout"

// Logout reasons.
const (
	ReasonTokenExpired = "token_expired"
	ReasonTokenInvalid = "token_invalid"
	ReasonTokenMissing = "token_missing"
	ReasonUserLogout   = "logout"
)

// LogoutEvent announces an unrecoverable end of session.
type LogoutEvent struct {
	Reason string
}

// Broadcaster is a single-process publish/subscribe channel. Delivery is
// synchronous: Publish returns only after every subscriber callback has run,
// which is what lets callers order side effects after local state cleanup.
type Broadcaster struct {
	lock        sync.Mutex
	nextID      int
	subscribers map[int]func(LogoutEvent)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[int]func(LogoutEvent)),
	}
}

// Subscribe registers a callback and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (b *Broadcaster) Subscribe(fn func(LogoutEvent)) func() {
	b.lock.Lock()
	defer b.lock.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn

	return func() {
		b.lock.Lock()
		defer b.lock.Unlock()
		delete(b.subscribers, id)
	}
}

// Publish delivers the event to every current subscriber.
func (b *Broadcaster) Publish(event LogoutEvent) {
	b.lock.Lock()
	callbacks := make([]func(LogoutEvent), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		callbacks = append(callbacks, fn)
	}
	b.lock.Unlock()

	// Callbacks run outside the lock so a subscriber may unsubscribe itself.
	for _, fn := range callbacks {
		fn(event)
	}
}

// SubscriberCount reports how many callbacks are currently registered.
func (b *Broadcaster) SubscriberCount() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subscribers)
}
