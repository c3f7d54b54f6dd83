// Package broker fans out the latest value of some state to any number of
// subscribers.
package broker

import "sync"

// Broker manages subscriber channels and broadcasts published values. Each
// subscriber channel holds at most one pending value; a slow subscriber only
// ever misses intermediate values, never the latest one. Subscribers that
// must see every value use SubscribeOrdered.
type Broker[T any] struct {
	mu      sync.Mutex
	clients map[chan T]struct{}
	queues  map[*queue[T]]struct{}
	latest  T
	hasLast bool
	closed  bool
}

// New returns an empty broker.
func New[T any]() *Broker[T] {
	return &Broker[T]{
		clients: make(map[chan T]struct{}),
		queues:  make(map[*queue[T]]struct{}),
	}
}

// Subscribe registers a new subscriber. If a value has already been published it
// is delivered immediately. The returned func unsubscribes and closes the channel.
func (b *Broker[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.clients[ch] = struct{}{}
	if b.hasLast {
		ch <- b.latest
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(ch) })
	}
}

func (b *Broker[T]) unsubscribe(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[ch]; !ok {
		return
	}
	delete(b.clients, ch)
	close(ch)
}

// Publish records v as the latest value and offers it to every subscriber.
func (b *Broker[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.latest = v
	b.hasLast = true
	for ch := range b.clients {
		select {
		case ch <- v:
		default:
			// Replace the stale pending value with the new one.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
	for q := range b.queues {
		q.push(v)
	}
}

// Latest returns the most recently published value.
func (b *Broker[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.hasLast
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		delete(b.clients, ch)
		close(ch)
	}
	for q := range b.queues {
		delete(b.queues, q)
		q.close()
	}
}
