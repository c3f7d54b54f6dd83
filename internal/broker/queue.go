package broker

import "sync"

// queue delivers every value published to it, in order, however slowly its
// reader drains the channel.
type queue[T any] struct {
	mu      sync.Mutex
	items   []T
	closing bool

	ready chan struct{}
	stop  chan struct{}
	out   chan T
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{
		ready: make(chan struct{}, 1),
		stop:  make(chan struct{}),
		out:   make(chan T),
	}
	go q.run()
	return q
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
}

// close lets the reader drain what is pending, then closes out.
func (q *queue[T]) close() {
	q.mu.Lock()
	q.closing = true
	q.mu.Unlock()
	q.signal()
}

func (q *queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue[T]) run() {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			closing := q.closing
			q.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-q.ready:
				continue
			case <-q.stop:
				return
			}
		}
		v := q.items[0]
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- v:
		case <-q.stop:
			return
		}
	}
}

// SubscribeOrdered registers a subscriber that receives the latest value, if
// any, and then every later value in publish order, none skipped. Pending
// values are still delivered after Close. The returned func unsubscribes,
// dropping anything pending, and the channel is then closed.
func (b *Broker[T]) SubscribeOrdered() (<-chan T, func()) {
	q := newQueue[T]()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		q.close()
		return q.out, func() {}
	}

	b.queues[q] = struct{}{}
	if b.hasLast {
		q.push(b.latest)
	}

	var once sync.Once
	return q.out, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.queues, q)
			b.mu.Unlock()
			close(q.stop)
		})
	}
}
