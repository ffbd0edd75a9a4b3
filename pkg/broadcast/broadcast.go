// Package broadcast provides a small in-memory fan-out used to publish
// state snapshots to multiple observers. Slow subscribers drop messages
// instead of blocking the publisher.
package broadcast

import (
	"context"
	"sync"
)

// Broadcaster fans values of type T out to all active subscribers.
// All methods are safe for concurrent use.
type Broadcaster[T any] struct {
	mu         sync.RWMutex
	subs       map[chan T]struct{}
	bufferSize int
	closed     bool
}

// New creates a broadcaster. Each subscriber gets a channel buffered to
// bufferSize (minimum 1, so publishing never blocks).
func New[T any](bufferSize int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subs:       make(map[chan T]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe registers a new observer. The subscription is removed and its
// channel closed when ctx is cancelled or the broadcaster closes.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, b.bufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			b.unsubscribe(ch)
		}()
	}

	return ch
}

// Publish delivers v to every subscriber, skipping any whose buffer is full.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}

func (b *Broadcaster[T]) unsubscribe(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}
