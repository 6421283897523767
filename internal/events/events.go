// Package events carries coarse "this kind of entity changed" signals from the
// session to whatever is displaying it.
//
// The store never publishes. A [Bus] is fed by the session after a command commits,
// and subscribers re-run their queries when notified.
package events

import (
	"slices"
	"sync"
)

// Kind names an entity collection.
type Kind string

const (
	Singers      Kind = "singers"
	Songs        Kind = "songs"
	Performances Kind = "performances"
)

// All lists every kind in a stable order.
var All = []Kind{Singers, Songs, Performances}

// Handler receives one notification per changed kind.
type Handler func(Kind)

type subscription struct {
	id int
	fn Handler
}

// Bus delivers notifications synchronously, in subscription order.
//
// The zero value is ready to use. Handlers may subscribe or unsubscribe from inside a
// delivery; the change applies to the next Publish.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

// New returns an empty [Bus].
func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it. Calling the returned function twice is harmless.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Publish notifies every subscriber of each kind, once per kind, in the order given.
// Repeated kinds are delivered once.
func (b *Bus) Publish(kinds ...Kind) {
	if b == nil {
		return
	}

	b.mu.Lock()
	subs := slices.Clone(b.subs)
	b.mu.Unlock()

	var seen []Kind
	for _, k := range kinds {
		if slices.Contains(seen, k) {
			continue
		}
		seen = append(seen, k)
		for _, s := range subs {
			s.fn(k)
		}
	}
}

// Len reports the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Channel subscribes a buffered channel of size n. Notifications that would block are dropped,
// which suits consumers that only need to know that something changed.
func (b *Bus) Channel(n int) (<-chan Kind, func()) {
	ch := make(chan Kind, n)
	unsubscribe := b.Subscribe(func(k Kind) {
		select {
		case ch <- k:
		default:
		}
	})
	return ch, unsubscribe
}
