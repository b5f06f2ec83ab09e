// ABOUTME: Unbounded FIFO used to deliver change events without dropping any
// ABOUTME: Push never blocks; Pop blocks until an item arrives or the queue closes

package sharedmap

import "sync"

// Queue is an unbounded, goroutine-safe FIFO. The zero value is not usable;
// create one with NewQueue.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Push appends v and reports whether it was accepted. Pushes after Close are
// rejected.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, v)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Pop removes and returns the oldest item, blocking while the queue is empty.
// It returns false once the queue is closed and empty.
func (q *Queue[T]) Pop() (T, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return v, true
		}
		if q.closed {
			q.mu.Unlock()
			var zero T
			return zero, false
		}
		q.mu.Unlock()
		<-q.signal
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting pushes. Items already queued can still be popped.
// Safe to call multiple times.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Discard closes the queue and drops everything still queued. It returns how
// many items were dropped.
func (q *Queue[T]) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	if !q.closed {
		q.closed = true
		close(q.signal)
	}
	return n
}
