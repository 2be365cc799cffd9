// Package bus provides the in-process event fan-out between the analysis
// pipeline and connected clients.
package bus

import (
	"sync"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
)

const subscriberBuffer = 16

// Bus fans events out to subscribers. Delivery is at most once: a
// subscriber whose buffer is full misses the event rather than blocking the
// publisher. Clients recover by re-reading state.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan domain.Event
	log    *logger.Logger
}

// New creates an empty bus.
func New(log *logger.Logger) *Bus {
	return &Bus{
		subs: make(map[int]chan domain.Event),
		log:  log.With("component", "bus"),
	}
}

// Publish delivers the event to every current subscriber without blocking.
func (b *Bus) Publish(event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.log.Debug("dropping event for slow subscriber", "subscriber", id, "type", event.Type)
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function removes
// the subscription and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount reports the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
