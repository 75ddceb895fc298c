package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 64

// Broker is an in-memory fan-out publisher. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Broker[T any] struct {
	subs    map[chan Event[T]]struct{}
	mu      sync.RWMutex
	done    chan struct{}
	bufSize int
	dropped atomic.Int64
}

func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer sets the per-subscriber channel capacity.
func NewBrokerWithBuffer[T any](bufSize int) *Broker[T] {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	return &Broker[T]{
		subs:    make(map[chan Event[T]]struct{}),
		done:    make(chan struct{}),
		bufSize: bufSize,
	}
}

// Shutdown closes every subscriber channel. Later publishes are ignored and
// later subscriptions receive an already closed channel.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribe registers a subscriber. The channel is closed when ctx ends or
// the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.bufSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub)
		}
	}()

	return sub
}

func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber
// buffer was full.
func (b *Broker[T]) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Broker[T]) Publish(t EventType, payload T) {
	event := Event[T]{Type: t, Payload: payload}

	// The read lock is held while sending so Shutdown cannot close a channel
	// mid-send. Sends never block, so the hold is short.
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			b.dropped.Add(1)
		}
	}
}
