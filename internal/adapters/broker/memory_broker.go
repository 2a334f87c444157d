package broker

import (
	"context"
	"logistics-dashboard-service/internal/ports"
	"sync"
)

const subscriberBuffer = 16

// MemoryBroker fans change events out to in-process subscribers.
// Publish never blocks: when a subscriber's buffer is full the oldest pending
// event is discarded, so the newest change is always delivered.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[<-chan ports.ChangeEvent]chan ports.ChangeEvent
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[<-chan ports.ChangeEvent]chan ports.ChangeEvent{}}
}

func (b *MemoryBroker) Subscribe() <-chan ports.ChangeEvent {
	ch := make(chan ports.ChangeEvent, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = ch
	b.mu.Unlock()
	return ch
}

// Unsubscribe closes the channel. Unknown channels are ignored.
func (b *MemoryBroker) Unsubscribe(ch <-chan ports.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(c)
	}
}

func (b *MemoryBroker) Publish(_ context.Context, evt ports.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		offer(ch, evt)
	}
}

// offer enqueues evt, evicting the oldest buffered events until it fits.
// ch must only be sent on by the caller.
func offer(ch chan ports.ChangeEvent, evt ports.ChangeEvent) {
	for {
		select {
		case ch <- evt:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
