package grpc

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-landcover-timeline/internal/loader"
)

// subscriberBuffer holds more than one full pass of events.
const subscriberBuffer = 64

// Broadcaster fans load pass events out to stream subscribers. It satisfies
// loader.Publisher.
type Broadcaster struct {
	subscribers map[uint64]chan loader.Event
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan loader.Event),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan loader.Event) {
	id := b.nextID.Add(1)
	ch := make(chan loader.Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish never blocks the load pass; a full subscriber misses the event.
func (b *Broadcaster) Publish(e loader.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
